package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olapp/internal/apiserver/auth"
	"olapp/internal/shared/catalog/catalogtest"
	"olapp/internal/shared/eventbus"
	"olapp/internal/shared/model"
	"olapp/internal/shared/objstore"
	"olapp/internal/shared/storage"
	"olapp/pkg/logging"
)

const superEmail = "root@olapp.co"

type testEnv struct {
	handler *Handler
	router  http.Handler
	store   *storage.RepositoryStore
	bus     *eventbus.MemoryBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := eventbus.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	authCfg := auth.DefaultConfig()
	authCfg.JWTSecret = "test-secret"
	authCfg.SuperUserEmails = []string{superEmail}

	reg := prometheus.NewRegistry()
	h := NewHandler(Deps{
		Store:                 store,
		EventBus:              bus,
		Catalog:               catalogtest.New(),
		Uploader:              objstore.NewMemory("http://cdn.test"),
		Auth:                  authCfg,
		RequiredConfirmations: 2,
		Logger:                logging.Nop(),
		Registerer:            reg,
		Gatherer:              reg,
	})
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	h.SetOpenAPI(doc)

	return &testEnv{handler: h, router: h.Router(), store: store, bus: bus}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, role string) string {
	t.Helper()
	rec := e.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, "GET", "/health", "", nil)
	env.do(t, "GET", "/api/v1/businesses/panaderia-luz", "", nil)

	rec := env.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "olapp_http_requests_total")
	assert.Contains(t, body, `path="/api/v1/businesses/{id}"`)
	assert.NotContains(t, body, "panaderia-luz")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "OPTIONS", "/api/v1/businesses", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestRouter_AuthBoundaries(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"home is public", "GET", "/api/v1/home", http.StatusOK},
		{"pending is public", "GET", "/api/v1/businesses/pending", http.StatusOK},
		{"business detail is public", "GET", "/api/v1/businesses/missing", http.StatusNotFound},
		{"my businesses needs token", "GET", "/api/v1/businesses", http.StatusUnauthorized},
		{"create needs token", "POST", "/api/v1/businesses", http.StatusUnauthorized},
		{"events are super user only", "GET", "/api/v1/events", http.StatusUnauthorized},
		{"anonymous confirm reaches handler", "POST", "/api/v1/businesses/missing/confirm", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, "", nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

// TestCommunityVerificationFlow 商家登记 → 社区确认 → 自动认证 → 事件可查询
func TestCommunityVerificationFlow(t *testing.T) {
	env := newTestEnv(t)

	owner := env.register(t, "owner@olapp.co", "BUSINESS")
	alice := env.register(t, "alice@olapp.co", "CUSTOMER")
	bob := env.register(t, "bob@olapp.co", "CUSTOMER")
	root := env.register(t, superEmail, "CUSTOMER")

	rec := env.do(t, "POST", "/api/v1/businesses", owner, map[string]interface{}{
		"name":         "Panadería Luz",
		"address":      "Calle 1",
		"neighborhood": "Centro",
		"phone":        "555-0101",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var biz model.Business
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &biz))
	assert.Equal(t, "panaderia-luz", biz.Slug)
	assert.Equal(t, model.BusinessStatusPending, biz.Status)
	assert.Equal(t, 2, biz.RequiredConfirmations)

	// 本人投票不计数
	rec = env.do(t, "POST", "/api/v1/businesses/"+biz.ID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"owner"`)

	rec = env.do(t, "POST", "/api/v1/businesses/"+biz.ID+"/confirm", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recorded":true`)

	rec = env.do(t, "POST", "/api/v1/businesses/"+biz.ID+"/confirm", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Recorded      bool   `json:"recorded"`
		Confirmations int    `json:"confirmations"`
		Status        string `json:"status"`
		Transitioned  bool   `json:"transitioned"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Recorded)
	assert.Equal(t, 2, out.Confirmations)
	assert.Equal(t, "VERIFIED", out.Status)
	assert.True(t, out.Transitioned)

	rec = env.do(t, "GET", "/api/v1/businesses/panaderia-luz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"VERIFIED"`)

	// 非超级用户不能看事件流
	rec = env.do(t, "GET", "/api/v1/events", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "GET", "/api/v1/events?business_id="+biz.ID, root, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var events struct {
		Events []*eventbus.BusinessEvent `json:"events"`
		Count  int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Equal(t, 3, events.Count)
	assert.Equal(t, eventbus.EventBusinessConfirmed, events.Events[0].Type)
	assert.Equal(t, eventbus.EventBusinessConfirmed, events.Events[1].Type)
	assert.Equal(t, eventbus.EventBusinessVerified, events.Events[2].Type)
}

func TestGetEvents_LimitAndFilter(t *testing.T) {
	env := newTestEnv(t)
	root := env.register(t, superEmail, "CUSTOMER")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		id := "biz-a"
		if i%2 == 1 {
			id = "biz-b"
		}
		require.NoError(t, env.bus.PublishBusinessEvent(ctx, eventbus.NewBusinessEvent(eventbus.EventBusinessConfirmed, id, nil)))
	}

	tests := []struct {
		query string
		count int
	}{
		{"", 5},
		{"?limit=2", 2},
		{"?business_id=biz-b", 2},
		{"?business_id=biz-a&limit=1", 1},
		{"?from=4-0", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, "GET", "/api/v1/events"+tt.query, root, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Count int `json:"count"`
				Total int `json:"total"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.count, resp.Count)
			assert.Equal(t, 5, resp.Total)
		})
	}
}

func TestServeOpenAPI(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "openapi: 3.0.3"))

	rec = env.do(t, "GET", "/api/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/v1/businesses", "/api/v1/businesses"},
		{"/api/v1/businesses/", "/api/v1/businesses/"},
		{"/api/v1/businesses/pending", "/api/v1/businesses/pending"},
		{"/api/v1/businesses/panaderia-luz", "/api/v1/businesses/{id}"},
		{"/api/v1/businesses/biz-1/confirm", "/api/v1/businesses/{id}/confirm"},
		{"/api/v1/home", "/api/v1/home"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in), tt.in)
	}
}
