package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olapp/internal/config"
	"olapp/internal/shared/model"
	"olapp/internal/shared/storage"
)

func newTestServer(t *testing.T, cfg Config) (http.Handler, *storage.RepositoryStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mux := http.NewServeMux()
	NewHandler(store, cfg).RegisterRoutes(mux)
	return Middleware(cfg, store)(mux), store
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, h http.Handler, email, role string) authResponse {
	t.Helper()
	rec := doJSON(t, h, "POST", "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	resp := register(t, h, "Ana@Olapp.co", "business")
	assert.Equal(t, "ana@olapp.co", resp.User.Email)
	assert.Equal(t, "ana", resp.User.Name)
	assert.Equal(t, model.UserRoleBusiness, resp.User.Role)
	assert.False(t, resp.User.IsSuperUser)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	rec := doJSON(t, h, "POST", "/api/v1/auth/register", "", map[string]string{
		"email": "ana@olapp.co", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "ana@olapp.co", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "ANA@olapp.co", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "password123"}},
		{"bad email", map[string]string{"email": "nope", "password": "password123"}},
		{"short password", map[string]string{"email": "a@b.co", "password": "short"}},
		{"admin role", map[string]string{"email": "a@b.co", "password": "password123", "role": "ADMIN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, "POST", "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterSuperUserEmail(t *testing.T) {
	cfg := testConfig()
	cfg.SuperUserEmails = []string{"root@olapp.co"}
	h, _ := newTestServer(t, cfg)

	resp := register(t, h, "root@olapp.co", "")
	assert.True(t, resp.User.IsSuperUser)
	assert.Equal(t, model.UserRoleAdmin, resp.User.Role)

	rec := doJSON(t, h, "GET", "/api/v1/user/me", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, true, me["isSuperUser"])
	assert.Equal(t, "ADMIN", me["role"])
	assert.Equal(t, "root@olapp.co", me["email"])
}

func TestRefreshAndMe(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	resp := register(t, h, "luis@olapp.co", "")

	rec := doJSON(t, h, "POST", "/api/v1/auth/refresh", "", map[string]string{"refresh_token": resp.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed["access_token"])

	// 访问令牌不能用于刷新
	rec = doJSON(t, h, "POST", "/api/v1/auth/refresh", "", map[string]string{"refresh_token": resp.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, "GET", "/api/v1/auth/me", refreshed["access_token"], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, resp.User.ID, me.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = doJSON(t, h, "GET", "/api/v1/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	resp := register(t, h, "eva@olapp.co", "")

	rec := doJSON(t, h, "PUT", "/api/v1/auth/password", resp.AccessToken, map[string]string{
		"old_password": "wrong", "new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, "PUT", "/api/v1/auth/password", resp.AccessToken, map[string]string{
		"old_password": "password123", "new_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "eva@olapp.co", "password": "newpassword1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSyncUser(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig()
	cfg.SuperUserEmails = []string{"boss@olapp.co"}

	// 首次访问：创建
	claims := &Claims{Email: "Maria@Olapp.co", Role: "BUSINESS", Avatar: "a.png"}
	claims.Subject = "ext-1"
	u, err := SyncUser(ctx, store, cfg, claims)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", u.ID)
	assert.Equal(t, "maria@olapp.co", u.Email)
	assert.Equal(t, "Maria", u.Name)
	assert.Equal(t, model.UserRoleBusiness, u.Role)

	// 名称变化：更新
	claims.Name = "María López"
	claims.Avatar = "b.png"
	u, err = SyncUser(ctx, store, cfg, claims)
	require.NoError(t, err)
	stored, err := store.GetUserByID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "María López", stored.Name)
	assert.Equal(t, "b.png", stored.Avatar)

	// 令牌中的 ADMIN 角色不会直接生效
	boss := &Claims{Email: "boss@olapp.co", Role: "ADMIN"}
	boss.Subject = "ext-2"
	u, err = SyncUser(ctx, store, cfg, boss)
	require.NoError(t, err)
	assert.True(t, u.IsSuperUser)
	stored, err = store.GetUserByID(ctx, "ext-2")
	require.NoError(t, err)
	assert.True(t, stored.IsSuperUser)
	assert.Equal(t, model.UserRoleAdmin, stored.Role)

	other := &Claims{Email: "eve@olapp.co", Role: "ADMIN"}
	other.Subject = "ext-3"
	u, err = SyncUser(ctx, store, cfg, other)
	require.NoError(t, err)
	assert.False(t, u.IsSuperUser)
	assert.Equal(t, model.UserRoleCustomer, u.Role)

	// 未知用户且没有邮箱
	anon := &Claims{}
	anon.Subject = "ext-4"
	_, err = SyncUser(ctx, store, cfg, anon)
	assert.Error(t, err)
}

func TestEnsureSuperUsers(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	existing := &model.User{ID: "usr-x", Email: "ops@olapp.co", Name: "ops", Role: model.UserRoleCustomer}
	require.NoError(t, store.CreateUser(ctx, existing))

	cfg := testConfig()
	cfg.SuperUserEmails = []string{"ops@olapp.co", "root@olapp.co", "later@olapp.co"}

	// 没有初始密码：只提升已存在的用户
	require.NoError(t, EnsureSuperUsers(ctx, store, cfg, ""))
	u, err := store.GetUserByEmail(ctx, "ops@olapp.co")
	require.NoError(t, err)
	assert.True(t, u.IsSuperUser)
	u, err = store.GetUserByEmail(ctx, "root@olapp.co")
	require.NoError(t, err)
	assert.Nil(t, u)

	// 有初始密码：创建缺失的超级用户，可以登录
	cfg.SuperUserEmails = []string{"root@olapp.co"}
	require.NoError(t, EnsureSuperUsers(ctx, store, cfg, "bootstrap-pass"))
	u, err = store.GetUserByEmail(ctx, "root@olapp.co")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.IsSuperUser)
	assert.True(t, CheckPassword("bootstrap-pass", u.PasswordHash))

	// 幂等
	require.NoError(t, EnsureSuperUsers(ctx, store, cfg, "bootstrap-pass"))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.AuthConfig{JWTSecret: "s", AccessTokenTTL: "30m"})
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "30m0s", cfg.AccessTokenTTL.String())
	assert.Equal(t, DefaultConfig().RefreshTokenTTL, cfg.RefreshTokenTTL)
}

func TestCheckPasswordEmptyHash(t *testing.T) {
	assert.False(t, CheckPassword("anything", ""))
	hash, err := HashPassword("secret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword("secret-pass", hash))
	assert.False(t, CheckPassword("other", hash))
}
