// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"olapp/internal/apiserver/verification"
	"olapp/internal/config"
	"olapp/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// AuthUser 当前请求的认证用户
//
// 中间件同步用户记录后注入，IsSuperUser 以数据库为准而不是令牌。
type AuthUser struct {
	ID          string
	Email       string
	Name        string
	Role        string
	IsSuperUser bool
}

// Actor 转换为核验引擎使用的操作者
func (u *AuthUser) Actor() *verification.Actor {
	if u == nil {
		return nil
	}
	return &verification.Actor{
		ID:          u.ID,
		Email:       u.Email,
		Role:        model.UserRole(u.Role),
		IsSuperUser: u.IsSuperUser,
	}
}

// Config 认证配置
type Config struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SuperUserEmails []string
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		JWTSecret:       "",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

// ConfigFrom 从全局配置构建
func ConfigFrom(c config.AuthConfig) Config {
	def := DefaultConfig()
	return Config{
		JWTSecret:       c.JWTSecret,
		AccessTokenTTL:  config.ParseTTL(c.AccessTokenTTL, def.AccessTokenTTL),
		RefreshTokenTTL: config.ParseTTL(c.RefreshTokenTTL, def.RefreshTokenTTL),
		SuperUserEmails: c.SuperUserEmails,
	}
}

// Enabled 是否启用认证
func (c Config) Enabled() bool {
	return c.JWTSecret != ""
}

// IsSuperUserEmail 邮箱是否在超级用户名单中
func (c Config) IsSuperUserEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.SuperUserEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Role      string `json:"role,omitempty"`
	SuperUser bool   `json:"super,omitempty"`
	Type      string `json:"type,omitempty"` // "access" | "refresh"
}

// GenerateAccessToken 生成访问令牌
func GenerateAccessToken(cfg Config, user *model.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessTokenTTL)),
		},
		Email:     user.Email,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Role:      string(user.Role),
		SuperUser: user.IsSuperUser,
		Type:      "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// GenerateRefreshToken 生成刷新令牌
func GenerateRefreshToken(cfg Config, userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.RefreshTokenTTL)),
		},
		Type: "refresh",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

var errInvalidTokenType = errors.New("invalid token type")

// ParseToken 解析并验证 JWT
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证用户信息注入 context
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证用户
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return user
}

// ActorFromContext 当前请求的操作者，未认证时为 nil
func ActorFromContext(ctx context.Context) *verification.Actor {
	return GetAuthUser(ctx).Actor()
}

func authUserFrom(u *model.User) *AuthUser {
	return &AuthUser{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		IsSuperUser: u.IsSuperUser,
	}
}
