package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// newDevHandler 开发模式 handler：API 路由由 Go 处理，其余反向代理到前端 dev server
//
//	Browser → http://localhost:8080 (Go)
//	          ├── /api/*   → Go handlers
//	          ├── /ws/*    → Go WebSocket
//	          ├── /health  → Go
//	          ├── /metrics → Go
//	          └── /*       → reverse proxy → FRONTEND_DEV_URL (Next.js dev)
func newDevHandler(apiHandler http.Handler, frontendAddr string) (http.Handler, error) {
	target, err := url.Parse(frontendAddr)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	// 改写 Host 以支持 Next.js HMR
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
	}

	log.Printf("[dev] Reverse proxy: non-API routes → %s", frontendAddr)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			apiHandler.ServeHTTP(w, r)
			return
		}
		// 其余请求（页面、静态资源、HMR WebSocket）→ 前端
		proxy.ServeHTTP(w, r)
	}), nil
}
