package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"olapp/internal/shared/eventbus"
)

// upgrader WebSocket 升级器配置
//
// CheckOrigin 允许所有来源，与 CORS 中间件保持一致
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	replayLimit  = 100
)

// wsClient 单个 WebSocket 连接
//
// gorilla/websocket 不支持并发写，所有写操作经过 mu。
type wsClient struct {
	conn       *websocket.Conn
	businessID string // 为空表示订阅全部商家
	mu         sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// EventGateway 商家事件 WebSocket 网关
//
// 网关只向事件总线订阅一次（Run），再扇出给所有连接；
// 连接可以通过 business_id 只接收某个商家的事件。
type EventGateway struct {
	bus     eventbus.BusinessEventBus
	metrics *Metrics

	clients map[*wsClient]struct{}
	mu      sync.RWMutex
}

// NewEventGateway 创建事件网关
func NewEventGateway(bus eventbus.BusinessEventBus, metrics *Metrics) *EventGateway {
	return &EventGateway{
		bus:     bus,
		metrics: metrics,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run 订阅事件总线并广播，ctx 结束或订阅 channel 关闭时返回
func (g *EventGateway) Run(ctx context.Context) error {
	ch, err := g.bus.SubscribeBusinessEvents(ctx)
	if err != nil {
		return err
	}
	log.Printf("[ws] event gateway subscribed to business events")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			g.Broadcast(ev)
		}
	}
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/businesses/events
//
// 查询参数：
//   - business_id: 只接收该商家的事件（可选）
//   - from: 先补发 ID 不小于 from 的历史事件，用于断线重连（可选）
//
// 推送消息格式：
//
//	{"type": "event", "data": {"id": "...", "type": "business.verified", ...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
//
// 补发与实时推送可能重叠，客户端按事件 ID 去重。
func (g *EventGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("business_id")
	from := r.URL.Query().Get("from")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn, businessID: businessID}
	g.addClient(client)
	defer g.removeClient(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go g.readPump(client, cancel)

	if from != "" {
		if err := g.replay(ctx, client, from); err != nil {
			log.Printf("[ws] replay from %s failed: %v", from, err)
		}
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		}
	}
}

// replay 补发历史事件
func (g *EventGateway) replay(ctx context.Context, c *wsClient, from string) error {
	events, err := g.bus.GetBusinessEvents(ctx, from, replayLimit)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if c.businessID != "" && ev.BusinessID != c.businessID {
			continue
		}
		if err := c.writeJSON(eventMessage(ev)); err != nil {
			return err
		}
		g.recordMessage("out", ev.Type)
	}
	return nil
}

// Broadcast 向订阅了该事件的所有连接推送
func (g *EventGateway) Broadcast(ev *eventbus.BusinessEvent) {
	g.mu.RLock()
	targets := make([]*wsClient, 0, len(g.clients))
	for c := range g.clients {
		if c.businessID == "" || c.businessID == ev.BusinessID {
			targets = append(targets, c)
		}
	}
	g.mu.RUnlock()

	msg := eventMessage(ev)
	for _, c := range targets {
		if err := c.writeJSON(msg); err != nil {
			log.Printf("[ws] write error: %v", err)
			continue
		}
		g.recordMessage("out", ev.Type)
	}
}

// ClientCount 当前连接数
func (g *EventGateway) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

func (g *EventGateway) addClient(c *wsClient) {
	g.mu.Lock()
	g.clients[c] = struct{}{}
	g.mu.Unlock()
	if g.metrics != nil {
		g.metrics.WSConnectionOpened()
	}
}

func (g *EventGateway) removeClient(c *wsClient) {
	g.mu.Lock()
	_, ok := g.clients[c]
	delete(g.clients, c)
	g.mu.Unlock()
	if ok && g.metrics != nil {
		g.metrics.WSConnectionClosed()
	}
}

// readPump 读取客户端消息，连接断开时取消 ctx
func (g *EventGateway) readPump(c *wsClient, cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		var req map[string]interface{}
		if json.Unmarshal(msg, &req) == nil && req["type"] == "ping" {
			g.recordMessage("in", "ping")
			c.writeJSON(map[string]string{"type": "pong"})
		}
	}
}

func (g *EventGateway) recordMessage(direction, msgType string) {
	if g.metrics != nil {
		g.metrics.RecordWSMessage(direction, msgType)
	}
}

func eventMessage(ev *eventbus.BusinessEvent) map[string]interface{} {
	return map[string]interface{}{
		"type": "event",
		"data": ev,
	}
}
