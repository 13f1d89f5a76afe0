// Package api 内嵌的 OpenAPI 文档
package api

import "embed"

//go:embed openapi/*.yaml
var OpenAPIFS embed.FS

// OpenAPIFile 主文档在 OpenAPIFS 中的路径
const OpenAPIFile = "openapi/olapp.yaml"
