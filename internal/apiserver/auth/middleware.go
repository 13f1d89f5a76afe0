package auth

import (
	"log"
	"net/http"
	"strings"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/openapi.",
	"/health",
	"/metrics",
	"/ws/",
}

// 免认证路由精确匹配
var publicExact = map[string]bool{
	"GET /api/v1/home":               true,
	"GET /api/v1/businesses/pending": true,
	"GET /api/v1/products":           true,
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if publicExact[method+" "+path] {
		return true
	}
	// 商家详情 GET /api/v1/businesses/{slug}；列表 GET /api/v1/businesses 需要登录
	if method == http.MethodGet && strings.HasPrefix(path, "/api/v1/businesses/") {
		rest := strings.TrimPrefix(path, "/api/v1/businesses/")
		return rest != "" && !strings.Contains(rest, "/")
	}
	return false
}

// isOptionalAuthRoute 未登录也可访问，由处理器决定如何对待匿名用户
func isOptionalAuthRoute(method, path string) bool {
	return method == http.MethodPost &&
		strings.HasPrefix(path, "/api/v1/businesses/") &&
		strings.HasSuffix(path, "/confirm")
}

// Middleware 创建 JWT 认证中间件
//
// 携带有效令牌时同步用户记录并注入 AuthUser；公开路由和可选认证路由在没有令牌时匿名放行。
// store 为 nil 时直接使用令牌声明，不访问数据库。
// cfg.Enabled() == false 时所有请求匿名放行。
func Middleware(cfg Config, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 无认证模式：直接放行
			if !cfg.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			anonymousOK := isPublicRoute(r.Method, r.URL.Path) || isOptionalAuthRoute(r.Method, r.URL.Path)

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if anonymousOK {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				if anonymousOK {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, parts[1])
			if err == nil && claims.Type != "access" {
				err = errInvalidTokenType
			}
			if err != nil {
				if anonymousOK {
					next.ServeHTTP(w, r)
					return
				}
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			user := &AuthUser{
				ID:          claims.Subject,
				Email:       claims.Email,
				Name:        claims.Name,
				Role:        claims.Role,
				IsSuperUser: claims.SuperUser,
			}
			if store != nil {
				synced, err := SyncUser(r.Context(), store, cfg, claims)
				if err != nil {
					log.Printf("[auth] sync user %s error: %v", claims.Subject, err)
					http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
					return
				}
				user = authUserFrom(synced)
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// SuperUserOnly 超级用户专属路由中间件
func SuperUserOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil || !user.IsSuperUser {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
