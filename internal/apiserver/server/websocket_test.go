package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olapp/internal/shared/eventbus"
)

type wsMessage struct {
	Type string                  `json:"type"`
	Data *eventbus.BusinessEvent `json:"data"`
}

// startGateway 启动网关和测试服务器，返回 ws:// 地址
func startGateway(t *testing.T) (*EventGateway, *eventbus.MemoryBus, *Metrics, string) {
	t.Helper()
	bus := eventbus.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	metrics := NewMetrics("test", prometheus.NewRegistry())
	gw := NewEventGateway(bus, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/businesses/events", gw.HandleWebSocket)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return gw, bus, metrics, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/businesses/events"
}

func dial(t *testing.T, gw *EventGateway, url string, wantClients int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return gw.ClientCount() == wantClients }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg wsMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestEventGateway_Broadcast(t *testing.T) {
	gw, bus, metrics, url := startGateway(t)
	conn := dial(t, gw, url, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnectionsActive))

	// 等待网关完成订阅后再发布
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.PublishBusinessEvent(context.Background(),
		eventbus.NewBusinessEvent(eventbus.EventBusinessVerified, "biz-1", map[string]interface{}{"source": "admin"})))

	msg := readMessage(t, conn)
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, eventbus.EventBusinessVerified, msg.Data.Type)
	assert.Equal(t, "biz-1", msg.Data.BusinessID)
	assert.Equal(t, "admin", msg.Data.Data["source"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSMessagesTotal.WithLabelValues("out", eventbus.EventBusinessVerified)))
}

func TestEventGateway_FilterByBusiness(t *testing.T) {
	gw, bus, _, url := startGateway(t)
	conn := dial(t, gw, url+"?business_id=biz-2", 1)

	time.Sleep(50 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, bus.PublishBusinessEvent(ctx, eventbus.NewBusinessEvent(eventbus.EventBusinessConfirmed, "biz-1", nil)))
	require.NoError(t, bus.PublishBusinessEvent(ctx, eventbus.NewBusinessEvent(eventbus.EventBusinessRejected, "biz-2", nil)))

	// biz-1 的事件被过滤，第一条收到的就是 biz-2
	msg := readMessage(t, conn)
	assert.Equal(t, "biz-2", msg.Data.BusinessID)
	assert.Equal(t, eventbus.EventBusinessRejected, msg.Data.Type)
}

func TestEventGateway_ReplayFrom(t *testing.T) {
	gw, bus, _, url := startGateway(t)

	ctx := context.Background()
	for _, id := range []string{"biz-1", "biz-2", "biz-3"} {
		require.NoError(t, bus.PublishBusinessEvent(ctx, eventbus.NewBusinessEvent(eventbus.EventBusinessConfirmed, id, nil)))
	}

	conn := dial(t, gw, url+"?from=2-0", 1)

	first := readMessage(t, conn)
	second := readMessage(t, conn)
	assert.Equal(t, "2-0", first.Data.ID)
	assert.Equal(t, "biz-2", first.Data.BusinessID)
	assert.Equal(t, "3-0", second.Data.ID)
}

func TestEventGateway_PingPong(t *testing.T) {
	gw, _, _, url := startGateway(t)
	conn := dial(t, gw, url, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "pong", msg.Type)
}

func TestEventGateway_Disconnect(t *testing.T) {
	gw, _, metrics, url := startGateway(t)
	conn := dial(t, gw, url, 1)
	dial(t, gw, url, 2)

	conn.Close()
	require.Eventually(t, func() bool { return gw.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnectionsActive))
}

func TestEventGateway_BroadcastNoClients(t *testing.T) {
	gw := NewEventGateway(eventbus.NewNoOpEventBus(), nil)

	// 不应 panic
	gw.Broadcast(eventbus.NewBusinessEvent(eventbus.EventBusinessVerified, "biz-1", nil))
	assert.Equal(t, 0, gw.ClientCount())
}
