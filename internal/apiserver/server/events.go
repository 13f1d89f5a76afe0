package server

import (
	"net/http"
	"strconv"

	"olapp/internal/shared/eventbus"
)

// GetEvents 查询商家事件流
//
// 路由: GET /api/v1/events
//
// 查询参数:
//   - from: 起始事件 ID（包含），默认从最早保留的事件开始
//   - limit: 返回数量限制，默认 100，最大 1000
//   - business_id: 只返回该商家的事件
//
// 响应:
//
//	{
//	  "events": [...],
//	  "count": 10,
//	  "total": 57
//	}
//
// total 是事件总线当前保留的事件数。
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	businessID := q.Get("business_id")

	// 按商家过滤时多取一些，过滤后再截断
	fetch := int64(limit)
	if businessID != "" {
		fetch = eventbus.MaxStreamLength
	}

	events, err := h.deps.EventBus.GetBusinessEvents(r.Context(), q.Get("from"), fetch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}

	out := make([]*eventbus.BusinessEvent, 0, len(events))
	for _, ev := range events {
		if businessID != "" && ev.BusinessID != businessID {
			continue
		}
		out = append(out, ev)
		if len(out) >= limit {
			break
		}
	}

	total, err := h.deps.EventBus.GetBusinessEventCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": out,
		"count":  len(out),
		"total":  total,
	})
}
