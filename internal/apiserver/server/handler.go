package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"olapp/internal/apiserver/auth"
	"olapp/internal/apiserver/business"
	"olapp/internal/apiserver/home"
	"olapp/internal/apiserver/product"
	"olapp/pkg/logging"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 系统:
//   - GET  /health                            - 健康检查
//   - GET  /metrics                           - Prometheus 指标
//   - GET  /api/openapi.yaml                  - OpenAPI 文档
//   - GET  /api/v1/events                     - 商家事件流（超级用户）
//
// 认证 (auth 包):
//   - POST /api/v1/auth/register | login | refresh
//   - GET  /api/v1/auth/me, GET /api/v1/user/me
//   - PUT  /api/v1/auth/password
//
// 商家 (business 包):
//   - POST  /api/v1/businesses                - 登记商家
//   - GET   /api/v1/businesses                - 我的商家
//   - GET   /api/v1/businesses/pending        - 待确认商家
//   - GET   /api/v1/businesses/{slug}         - 商家详情
//   - PATCH /api/v1/businesses/{id}           - 编辑
//   - POST  /api/v1/businesses/{id}/confirm   - 社区确认
//   - POST  /api/v1/businesses/{id}/approve   - 超级用户审批
//   - POST  /api/v1/businesses/{id}/images    - 上传图片
//
// 商品 (product 包):
//   - GET  /api/v1/products
//   - GET  /api/v1/business/products, POST /api/v1/business/products
//   - GET  /api/v1/woocommerce/categories
//
// 首页 (home 包):
//   - GET  /api/v1/home
//   - PUT  /api/v1/admin/home, POST /api/v1/admin/logo
//
// WebSocket:
//   - GET  /ws/businesses/events              - 商家事件实时推送
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", MetricsHandler(h.deps.Gatherer))

	if h.openapi != nil {
		mux.HandleFunc("GET /api/openapi.yaml", h.openapi.ServeYAML)
		mux.HandleFunc("GET /api/openapi.json", h.openapi.ServeJSON)
	}

	mux.HandleFunc("GET /api/v1/events", auth.SuperUserOnly(h.GetEvents))

	authHandler := auth.NewHandler(h.deps.Store, h.deps.Auth)
	authHandler.RegisterRoutes(mux)

	bizHandler := business.NewHandler(h.deps.Store, h.deps.Engine, h.deps.Uploader, h.deps.RequiredConfirmations)
	bizHandler.RegisterRoutes(mux)

	productHandler := product.NewHandler(h.deps.Store, h.deps.Catalog)
	productHandler.RegisterRoutes(mux)

	homeHandler := home.NewHandler(h.deps.Store, h.deps.Uploader, h.deps.DefaultLogoURL)
	homeHandler.RegisterRoutes(mux)

	// 指标 → 认证 → 访问日志 → CORS，由内向外包装
	apiHandler := h.metrics.MetricsMiddleware(mux)
	authedHandler := auth.Middleware(h.deps.Auth, h.deps.Store)(apiHandler)
	loggedHandler := accessLogMiddleware(h.deps.Logger, authedHandler)
	corsHandler := corsMiddleware(loggedHandler)

	// WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /ws/businesses/events", h.eventGateway.HandleWebSocket)
	topMux.Handle("/", corsHandler)

	return topMux
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware 记录访问日志
//
// 请求 ID 取自 X-Request-ID，没有时生成，并写入 context 供下游日志使用。
func accessLogMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), logging.RequestIDKey, reqID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		logger.WithContext(ctx).HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), clientIP(r))
	})
}

// clientIP 优先取反向代理写入的 X-Forwarded-For 第一跳
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
