// Package server 路由装配与核心基础设施
//
// 业务接口分散在各领域包中（auth、business、product、home），本包负责：
//   - 组装路由和中间件（CORS、认证、HTTP 指标）
//   - 健康检查与 Prometheus 指标端点
//   - 商家事件查询接口与 WebSocket 推送
//   - 内嵌 OpenAPI 文档
//
// 文件组织：
//   - common.go: Handler 定义与通用工具函数
//   - handler.go: 路由
//   - events.go: 商家事件接口
//   - websocket.go: WebSocket 事件网关
//   - metrics.go: Prometheus 指标
//   - openapi.go: OpenAPI 文档加载与校验
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"olapp/internal/apiserver/auth"
	"olapp/internal/apiserver/home"
	"olapp/internal/apiserver/verification"
	"olapp/internal/shared/catalog"
	"olapp/internal/shared/eventbus"
	"olapp/internal/shared/objstore"
	"olapp/internal/shared/storage"
	"olapp/pkg/logging"
)

// Deps Handler 依赖
//
// Catalog 为 nil 时使用未配置的目录实现；Uploader 为 nil 时图片上传接口返回 503。
type Deps struct {
	Store    storage.PersistentStore
	EventBus eventbus.BusinessEventBus
	Catalog  catalog.Catalog
	Uploader objstore.Uploader
	Engine   *verification.Engine

	Auth                  auth.Config
	RequiredConfirmations int
	DefaultLogoURL        string

	// Logger 访问日志，nil 时使用 logging.Default("api")
	Logger *logging.Logger

	// Registerer 指标注册表，nil 时使用 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
	// Gatherer /metrics 输出来源，nil 时使用 prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// Handler API 处理器
type Handler struct {
	deps Deps

	eventGateway *EventGateway
	metrics      *Metrics
	openapi      *OpenAPIDoc
}

// NewHandler 创建 Handler 实例
func NewHandler(deps Deps) *Handler {
	if deps.EventBus == nil {
		deps.EventBus = eventbus.NewNoOpEventBus()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Unconfigured{}
	}
	if deps.Engine == nil {
		deps.Engine = verification.NewEngine(deps.Store, verification.WithPublisher(deps.EventBus))
	}
	if deps.DefaultLogoURL == "" {
		deps.DefaultLogoURL = home.DefaultLogoURL
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default("api")
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	h := &Handler{deps: deps}
	h.metrics = NewMetrics("olapp", deps.Registerer)
	h.eventGateway = NewEventGateway(deps.EventBus, h.metrics)
	return h
}

// SetOpenAPI 挂载已加载的 OpenAPI 文档
func (h *Handler) SetOpenAPI(doc *OpenAPIDoc) {
	h.openapi = doc
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// EventGateway 返回 WebSocket 事件网关
func (h *Handler) EventGateway() *EventGateway {
	return h.eventGateway
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Health 健康检查接口
//
// 路由: GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
