package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"olapp/internal/shared/model"
	"olapp/internal/shared/storage"
)

// UserStore 用户存储接口
type UserStore = storage.UserStore

// Handler 认证 HTTP 处理器
type Handler struct {
	store UserStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
	mux.HandleFunc("PUT /api/v1/auth/password", h.ChangePassword)
	mux.HandleFunc("GET /api/v1/user/me", h.UserMe)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type authResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
}

// meResponse GET /api/v1/user/me 的响应，字段名与前端约定一致
type meResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsSuperUser bool   `json:"isSuperUser"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	role := model.UserRoleCustomer
	if req.Role != "" {
		role = model.UserRole(strings.ToUpper(req.Role))
		if role != model.UserRoleCustomer && role != model.UserRoleBusiness {
			writeError(w, http.StatusBadRequest, "role must be CUSTOMER or BUSINESS")
			return
		}
	}

	// 检查邮箱是否已注册
	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.register] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID(),
		Email:        req.Email,
		Name:         displayName(req.Name, req.Email),
		PasswordHash: hash,
		Role:         role,
		Phone:        strings.TrimSpace(req.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if h.cfg.IsSuperUserEmail(user.Email) {
		user.IsSuperUser = true
		user.Role = model.UserRoleAdmin
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		log.Printf("[auth.register] issue tokens error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, resp)
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, resp)
}

// Refresh 刷新访问令牌
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := ParseToken(h.cfg, req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if claims.Type != "refresh" {
		writeError(w, http.StatusUnauthorized, "invalid token type")
		return
	}

	// 查询用户确保仍然存在
	user, err := h.store.GetUserByID(r.Context(), claims.Subject)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	accessToken, err := GenerateAccessToken(h.cfg, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// Me 获取当前用户完整信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UserMe 获取当前用户摘要
func (h *Handler) UserMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        string(user.Role),
		IsSuperUser: user.IsSuperUser,
	})
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "old_password and new_password are required")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if !CheckPassword(req.OldPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect old password")
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[auth.me] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}

func (h *Handler) issueTokens(user *model.User) (*authResponse, error) {
	accessToken, err := GenerateAccessToken(h.cfg, user)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	refreshToken, err := GenerateRefreshToken(h.cfg, user.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &authResponse{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ============================================================================
// 用户同步
// ============================================================================

// SyncUser 根据令牌声明同步用户记录
//
// 不存在时创建；名称或头像与声明不一致时更新；邮箱在超级用户名单中时提升。
func SyncUser(ctx context.Context, store UserStore, cfg Config, claims *Claims) (*model.User, error) {
	user, err := store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", claims.Subject, err)
	}
	if user == nil && claims.Email != "" {
		if user, err = store.GetUserByEmail(ctx, strings.ToLower(claims.Email)); err != nil {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
	}

	name := displayName(claims.Name, claims.Email)
	if user == nil {
		if claims.Email == "" {
			return nil, fmt.Errorf("token for unknown user %s has no email", claims.Subject)
		}
		role := model.UserRole(claims.Role)
		if !role.Valid() || role == model.UserRoleAdmin {
			role = model.UserRoleCustomer
		}
		now := time.Now()
		user = &model.User{
			ID:        claims.Subject,
			Email:     strings.ToLower(claims.Email),
			Name:      name,
			Role:      role,
			Avatar:    claims.Avatar,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		log.Printf("[auth] Synced new user: %s (%s)", user.Email, user.ID)
	} else if claims.Name != "" && (user.Name != name || user.Avatar != claims.Avatar) {
		if err := store.UpdateUserProfile(ctx, user.ID, name, claims.Avatar); err != nil {
			return nil, fmt.Errorf("update user profile: %w", err)
		}
		user.Name, user.Avatar = name, claims.Avatar
	}

	if !user.IsSuperUser && cfg.IsSuperUserEmail(user.Email) {
		if err := store.PromoteSuperUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("promote super user: %w", err)
		}
		user.IsSuperUser = true
		user.Role = model.UserRoleAdmin
		log.Printf("[auth] Promoted super user: %s", user.Email)
	}
	return user, nil
}

// ============================================================================
// 超级用户初始化
// ============================================================================

// EnsureSuperUsers 确保名单中的用户具有超级用户权限（启动时调用）
//
// 已存在的用户直接提升；不存在且配置了 adminPassword 时创建，
// 否则等待该邮箱注册时自动提升。
func EnsureSuperUsers(ctx context.Context, store UserStore, cfg Config, adminPassword string) error {
	for _, email := range cfg.SuperUserEmails {
		existing, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("check super user %s: %w", email, err)
		}
		if existing != nil {
			if !existing.IsSuperUser {
				if err := store.PromoteSuperUser(ctx, existing.ID); err != nil {
					return fmt.Errorf("promote %s: %w", email, err)
				}
				log.Printf("[auth] Promoted existing user to super user: %s", email)
			}
			continue
		}

		if adminPassword == "" {
			log.Printf("[auth] Super user %s not registered yet, will be promoted on registration", email)
			continue
		}

		hash, err := HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		now := time.Now()
		user := &model.User{
			ID:           generateID(),
			Email:        email,
			Name:         displayName("", email),
			PasswordHash: hash,
			Role:         model.UserRoleAdmin,
			IsSuperUser:  true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create super user %s: %w", email, err)
		}
		log.Printf("[auth] Created super user: %s (%s)", email, user.ID)
	}
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// displayName 未提供名称时取邮箱 @ 前部分
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func generateID() string {
	return "usr-" + uuid.NewString()
}
