package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOpenAPI(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Version())
}

// TestOpenAPI_DocumentsRoutes 路由表中的接口都应出现在文档里
func TestOpenAPI_DocumentsRoutes(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/api/openapi.yaml"},
		{"POST", "/api/v1/auth/register"},
		{"POST", "/api/v1/auth/login"},
		{"POST", "/api/v1/auth/refresh"},
		{"GET", "/api/v1/auth/me"},
		{"PUT", "/api/v1/auth/password"},
		{"GET", "/api/v1/user/me"},
		{"POST", "/api/v1/businesses"},
		{"GET", "/api/v1/businesses"},
		{"GET", "/api/v1/businesses/pending"},
		{"GET", "/api/v1/businesses/{slug}"},
		{"PATCH", "/api/v1/businesses/{id}"},
		{"POST", "/api/v1/businesses/{id}/confirm"},
		{"POST", "/api/v1/businesses/{id}/approve"},
		{"POST", "/api/v1/businesses/{id}/images"},
		{"GET", "/api/v1/products"},
		{"GET", "/api/v1/business/products"},
		{"POST", "/api/v1/business/products"},
		{"GET", "/api/v1/woocommerce/categories"},
		{"GET", "/api/v1/home"},
		{"PUT", "/api/v1/admin/home"},
		{"POST", "/api/v1/admin/logo"},
		{"GET", "/api/v1/events"},
		{"GET", "/ws/businesses/events"},
	}
	for _, r := range routes {
		assert.True(t, doc.HasOperation(r.method, r.path), "%s %s not documented", r.method, r.path)
	}

	assert.False(t, doc.HasOperation("DELETE", "/api/v1/businesses/{id}"))
	assert.False(t, doc.HasOperation("GET", "/api/v1/unknown"))
}

func TestParseOpenAPI_Invalid(t *testing.T) {
	_, err := ParseOpenAPI(context.Background(), []byte("openapi: 3.0.3\ninfo: {}\npaths: {}\n"))
	assert.Error(t, err)

	_, err = ParseOpenAPI(context.Background(), []byte(": not yaml"))
	assert.Error(t, err)
}
