package main

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// isAPIPath 由 Go 路由处理的路径
func isAPIPath(p string) bool {
	return strings.HasPrefix(p, "/api/") ||
		strings.HasPrefix(p, "/ws/") ||
		p == "/health" ||
		p == "/metrics"
}

// newStaticHandler 在 API 之外提供前端静态文件
//
// 优先级：
//  1. API/WebSocket/metrics 路由 → 委托给 apiHandler
//  2. 静态文件匹配（含默认 logo /ola-logo.JPG）
//  3. .html 后缀匹配（Next.js 静态导出：/negocios → /negocios.html）
//  4. 兜底 → index.html（SPA 客户端路由接管），不存在 index.html 时返回 404
//
// 步骤 4 不使用 http.FileServer：FileServer 对 /index.html 会 301 到 ./，非根路径会无限重定向。
func newStaticHandler(apiHandler http.Handler, staticFS fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(staticFS))
	indexHTML, _ := fs.ReadFile(staticFS, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			apiHandler.ServeHTTP(w, r)
			return
		}

		cleanPath := path.Clean(r.URL.Path)
		if cleanPath != "/" && fileExists(staticFS, cleanPath) {
			fileServer.ServeHTTP(w, r)
			return
		}

		if cleanPath != "/" && !strings.Contains(path.Base(cleanPath), ".") {
			if data, err := fs.ReadFile(staticFS, strings.TrimPrefix(cleanPath, "/")+".html"); err == nil {
				serveHTML(w, data)
				return
			}
		}

		if indexHTML == nil {
			http.NotFound(w, r)
			return
		}
		serveHTML(w, indexHTML)
	})
}

func serveHTML(w http.ResponseWriter, content []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// fileExists 文件存在且不是目录
func fileExists(fsys fs.FS, filePath string) bool {
	f, err := fsys.Open(strings.TrimPrefix(filePath, "/"))
	if err != nil {
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return !stat.IsDir()
}
