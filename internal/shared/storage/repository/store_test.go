// Package repository SQLite 集成测试
//
// 使用 SQLite 内存数据库验证 repository 层所有存储接口的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"olapp/internal/shared/model"
	"olapp/internal/shared/storage/dbutil"
	sqlitedriver "olapp/internal/shared/storage/driver/sqlite"
	"olapp/internal/shared/storagetypes"
	"olapp/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStore(t, ":memory:")
}

func openTestStore(t *testing.T, dsn string) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(dsn)
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, s *Store, id string) *model.User {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	u := &model.User{
		ID:        id,
		Email:     id + "@olapp.test",
		Name:      "User " + id,
		Role:      model.UserRoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedBusiness(t *testing.T, s *Store, id, ownerID string, required int) *model.Business {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	b := &model.Business{
		ID:                    id,
		OwnerID:               ownerID,
		Name:                  "Business " + id,
		Slug:                  "business-" + id,
		Address:               "Calle 1",
		Neighborhood:          "Centro",
		Phone:                 "3000000000",
		AcceptsCash:           true,
		Status:                model.BusinessStatusPending,
		RequiredConfirmations: required,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	require.NoError(t, s.CreateBusiness(context.Background(), b))
	return b
}

// ============================================================================
// Dialect 基础测试
// ============================================================================

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.Equal(t, "datetime('now')", d.CurrentTimestamp())
	assert.Equal(t, "1", d.BooleanLiteral(true))
	assert.Equal(t, "0", d.BooleanLiteral(false))
	assert.Equal(t, "", d.ForUpdateClause())
	assert.False(t, d.IsUniqueViolation(nil))
	assert.False(t, d.IsUniqueViolation(errors.New("boom")))
}

func TestRebind(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, "SELECT * FROM t WHERE id = ? AND name = ?",
		d.Rebind("SELECT * FROM t WHERE id = $1 AND name = $2"))
	// 应去除 PG 类型转换
	assert.Equal(t, "UPDATE t SET status = ? WHERE id = ?",
		d.Rebind("UPDATE t SET status = $1::varchar WHERE id = $2"))
}

func TestAutoMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Dialect().AutoMigrate(s.DB()))
}

// ============================================================================
// User 测试
// ============================================================================

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "usr-1")

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, model.UserRoleCustomer, got.Role)
	assert.False(t, got.IsSuperUser)

	got, err = s.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.UpdateUserProfile(ctx, u.ID, "New Name", "https://img/avatar.png"))
	require.NoError(t, s.PromoteSuperUser(ctx, u.ID))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "https://img/avatar.png", got.Avatar)
	assert.True(t, got.IsSuperUser)
	assert.Equal(t, model.UserRoleAdmin, got.Role)

	require.NoError(t, s.UpdateUserPassword(ctx, u.ID, "hash"))
	got, _ = s.GetUserByID(ctx, u.ID)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestUserNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetUserByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.UpdateUserProfile(ctx, "missing", "x", "")
	assert.ErrorIs(t, err, storagetypes.ErrNotFound)
}

func TestUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "usr-1")

	dup := *u
	dup.ID = "usr-2"
	err := s.CreateUser(context.Background(), &dup)
	assert.ErrorIs(t, err, storagetypes.ErrDuplicate)
}

// ============================================================================
// Business 测试
// ============================================================================

func TestBusinessCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner")

	b := seedBusiness(t, s, "biz-1", owner.ID, 3)

	got, err := s.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, model.BusinessStatusPending, got.Status)
	assert.Equal(t, 0, got.ConfirmationsCount)
	assert.Equal(t, 3, got.RequiredConfirmations)
	assert.True(t, got.AcceptsCash)
	assert.False(t, got.AcceptsCard)
	assert.Nil(t, got.WooCategoryID)

	bySlug, err := s.GetBusinessBySlug(ctx, b.Slug)
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, b.ID, bySlug.ID)

	got.Description = "Pan artesanal"
	got.AcceptsCard = true
	require.NoError(t, s.UpdateBusiness(ctx, got))
	got, _ = s.GetBusiness(ctx, b.ID)
	assert.Equal(t, "Pan artesanal", got.Description)
	assert.True(t, got.AcceptsCard)

	require.NoError(t, s.SetBusinessWooCategory(ctx, b.ID, 42))
	got, _ = s.GetBusiness(ctx, b.ID)
	require.NotNil(t, got.WooCategoryID)
	assert.Equal(t, int64(42), *got.WooCategoryID)

	require.NoError(t, s.UpdateBusinessStatus(ctx, b.ID, model.BusinessStatusRejected))
	got, _ = s.GetBusiness(ctx, b.ID)
	assert.Equal(t, model.BusinessStatusRejected, got.Status)
}

func TestBusinessNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetBusiness(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.UpdateBusinessStatus(ctx, "missing", model.BusinessStatusVerified)
	assert.ErrorIs(t, err, storagetypes.ErrNotFound)
}

func TestBusinessDuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")
	b := seedBusiness(t, s, "biz-1", owner.ID, 3)

	dup := *b
	dup.ID = "biz-2"
	err := s.CreateBusiness(context.Background(), &dup)
	assert.ErrorIs(t, err, storagetypes.ErrDuplicate)
}

func TestListBusinesses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	seedBusiness(t, s, "biz-a", alice.ID, 3)
	seedBusiness(t, s, "biz-b", bob.ID, 3)
	require.NoError(t, s.UpdateBusinessStatus(ctx, "biz-b", model.BusinessStatusVerified))

	all, err := s.ListBusinesses(ctx, model.BusinessFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := s.ListBusinesses(ctx, model.BusinessFilter{OwnerID: alice.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "biz-a", own[0].ID)

	pending, err := s.ListBusinesses(ctx, model.BusinessFilter{Status: model.BusinessStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "biz-a", pending[0].ID)

	none, err := s.ListBusinesses(ctx, model.BusinessFilter{OwnerID: bob.ID, Status: model.BusinessStatusPending})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := s.ListBusinesses(ctx, model.BusinessFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := s.CountBusinessesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// ============================================================================
// Verification 测试
// ============================================================================

func newVote(businessID, userID string) *model.BusinessVerification {
	return &model.BusinessVerification{
		ID:         "ver-" + businessID + "-" + userID,
		BusinessID: businessID,
		UserID:     userID,
	}
}

func TestRecordConfirmation_ReachesThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner")
	b := seedBusiness(t, s, "biz-1", owner.ID, 3)

	for i, uid := range []string{"u1", "u2"} {
		seedUser(t, s, uid)
		res, err := s.RecordConfirmation(ctx, newVote(b.ID, uid))
		require.NoError(t, err)
		assert.True(t, res.Inserted)
		assert.Equal(t, i+1, res.Count)
		assert.Equal(t, model.BusinessStatusPending, res.Status)
		assert.False(t, res.Transitioned())
	}

	seedUser(t, s, "u3")
	res, err := s.RecordConfirmation(ctx, newVote(b.ID, "u3"))
	require.NoError(t, err)
	assert.True(t, res.Inserted)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, model.BusinessStatusVerified, res.Status)
	assert.True(t, res.Transitioned())

	got, _ := s.GetBusiness(ctx, b.ID)
	assert.Equal(t, model.BusinessStatusVerified, got.Status)
	assert.Equal(t, 3, got.ConfirmationsCount)
}

func TestRecordConfirmation_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner")
	b := seedBusiness(t, s, "biz-1", owner.ID, 3)
	seedUser(t, s, "u1")

	_, err := s.RecordConfirmation(ctx, newVote(b.ID, "u1"))
	require.NoError(t, err)

	second := newVote(b.ID, "u1")
	second.ID = "ver-other"
	res, err := s.RecordConfirmation(ctx, second)
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Equal(t, 1, res.Count)

	n, err := s.CountVerifications(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	has, err := s.HasVerification(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = s.HasVerification(ctx, b.ID, "u2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRecordConfirmation_TerminalBusinessKeepsState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner")
	b := seedBusiness(t, s, "biz-1", owner.ID, 1)
	require.NoError(t, s.UpdateBusinessStatus(ctx, b.ID, model.BusinessStatusRejected))
	seedUser(t, s, "u1")

	res, err := s.RecordConfirmation(ctx, newVote(b.ID, "u1"))
	require.NoError(t, err)
	assert.True(t, res.Inserted)
	assert.Equal(t, model.BusinessStatusRejected, res.Status)
	assert.False(t, res.Transitioned())

	got, _ := s.GetBusiness(ctx, b.ID)
	assert.Equal(t, model.BusinessStatusRejected, got.Status)
	assert.Equal(t, 0, got.ConfirmationsCount)

	list, err := s.ListVerifications(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u1", list[0].UserID)
}

func TestRecordConfirmation_MissingBusiness(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "u1")

	_, err := s.RecordConfirmation(context.Background(), newVote("missing", "u1"))
	assert.ErrorIs(t, err, storagetypes.ErrNotFound)
}

func TestRecordConfirmation_QueryLog(t *testing.T) {
	s := newTestStore(t)
	logPath := filepath.Join(t.TempDir(), "db.log")
	s.SetLogger(logging.New(logging.Config{Level: "debug", Format: "json", Output: logPath}))

	owner := seedUser(t, s, "owner")
	b := seedBusiness(t, s, "biz-1", owner.ID, 3)
	seedUser(t, s, "u1")
	_, err := s.RecordConfirmation(context.Background(), newVote(b.ID, "u1"))
	require.NoError(t, err)
	_, err = s.RecordConfirmation(context.Background(), newVote("missing", "u1"))
	require.Error(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"operation":"record_confirmation"`)
	assert.Contains(t, out, `"msg":"DB query"`)
	assert.Contains(t, out, `"msg":"DB query failed"`)
}

// TestRecordConfirmation_Concurrent 多个不同用户并发投票：不丢票，状态转换只发生一次
func TestRecordConfirmation_Concurrent(t *testing.T) {
	s := openTestStore(t, "file:"+filepath.Join(t.TempDir(), "concurrent.db"))
	ctx := context.Background()
	owner := seedUser(t, s, "owner")
	b := seedBusiness(t, s, "biz-1", owner.ID, 3)

	const voters = 12
	for i := 0; i < voters; i++ {
		seedUser(t, s, fmt.Sprintf("voter-%d", i))
	}

	var wg sync.WaitGroup
	results := make([]*storagetypes.ConfirmationResult, voters)
	errs := make([]error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.RecordConfirmation(ctx, newVote(b.ID, fmt.Sprintf("voter-%d", i)))
		}(i)
	}
	wg.Wait()

	transitions := 0
	for i := 0; i < voters; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Inserted)
		if results[i].Transitioned() {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)

	n, err := s.CountVerifications(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, n)

	got, _ := s.GetBusiness(ctx, b.ID)
	assert.Equal(t, model.BusinessStatusVerified, got.Status)
	// VERIFIED 之后计数冻结在触发转换时的值
	assert.Equal(t, 3, got.ConfirmationsCount)
}

// ============================================================================
// HomePageContent 测试
// ============================================================================

func TestHomeContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetActiveHomeContent(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	content := &model.HomePageContent{
		HeroTitle:    "Bienvenido",
		HeroSubtitle: "Compra local",
		SliderItems: []*model.SliderItem{
			{Title: "Uno", ImageURL: "https://img/1.png", Order: 1, IsActive: true},
			{Title: "Dos", ImageURL: "https://img/2.png", Order: 2, IsActive: true},
		},
		FeaturedCategories: []*model.FeaturedCategory{
			{WooCategoryID: 7, Name: "Comida", Slug: "comida", Order: 1},
		},
	}
	require.NoError(t, s.SaveHomeContent(ctx, content))
	firstID := content.ID
	require.NotEmpty(t, firstID)

	got, err = s.GetActiveHomeContent(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bienvenido", got.HeroTitle)
	require.Len(t, got.SliderItems, 2)
	assert.Equal(t, "Uno", got.SliderItems[0].Title)
	require.Len(t, got.FeaturedCategories, 1)
	assert.Equal(t, int64(7), got.FeaturedCategories[0].WooCategoryID)

	// 再次保存：更新同一条记录，子集合整体替换
	update := &model.HomePageContent{
		HeroTitle:   "Hola",
		SliderItems: []*model.SliderItem{{Title: "Solo", ImageURL: "https://img/s.png", Order: 1}},
	}
	require.NoError(t, s.SaveHomeContent(ctx, update))
	assert.Equal(t, firstID, update.ID)

	got, err = s.GetActiveHomeContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hola", got.HeroTitle)
	require.Len(t, got.SliderItems, 1)
	assert.Equal(t, "Solo", got.SliderItems[0].Title)
	assert.Empty(t, got.FeaturedCategories)
}

func TestSetHomeLogo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 无生效记录时自动创建
	got, err := s.SetHomeLogo(ctx, "https://cdn/logos/logo-1.png")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn/logos/logo-1.png", got.LogoURL)
	firstID := got.ID

	got, err = s.SetHomeLogo(ctx, "https://cdn/logos/logo-2.png")
	require.NoError(t, err)
	assert.Equal(t, firstID, got.ID)
	assert.Equal(t, "https://cdn/logos/logo-2.png", got.LogoURL)
}
