package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"olapp/api"
)

// OpenAPIDoc 已校验的 OpenAPI 文档
type OpenAPIDoc struct {
	raw []byte
	doc *openapi3.T
}

// LoadOpenAPI 加载并校验内嵌的 OpenAPI 文档
func LoadOpenAPI(ctx context.Context) (*OpenAPIDoc, error) {
	raw, err := api.OpenAPIFS.ReadFile(api.OpenAPIFile)
	if err != nil {
		return nil, fmt.Errorf("read openapi: %w", err)
	}
	return ParseOpenAPI(ctx, raw)
}

// ParseOpenAPI 解析并校验 OpenAPI 文档
func ParseOpenAPI(ctx context.Context, raw []byte) (*OpenAPIDoc, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi: %w", err)
	}
	return &OpenAPIDoc{raw: raw, doc: doc}, nil
}

// Version 文档版本
func (d *OpenAPIDoc) Version() string {
	return d.doc.Info.Version
}

// HasOperation 文档中是否描述了该接口
//
// path 使用路由模板形式，参数名不同也视为同一路径，例如 /api/v1/businesses/{slug}。
func (d *OpenAPIDoc) HasOperation(method, path string) bool {
	item := d.doc.Paths.Find(path)
	if item == nil {
		return false
	}
	return item.GetOperation(method) != nil
}

// ServeYAML 路由: GET /api/openapi.yaml
func (d *OpenAPIDoc) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(d.raw)
}

// ServeJSON 路由: GET /api/openapi.json
func (d *OpenAPIDoc) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := d.doc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode openapi document")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
