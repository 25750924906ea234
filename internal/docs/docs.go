package docs

import (
	"embed"
	"net/http"
)

//go:embed openapi.yaml swagger.html
var assets embed.FS

const (
	openAPIFile = "openapi.yaml"
	swaggerFile = "swagger.html"
)

// OpenAPIHandler sirve el documento OpenAPI embebido.
func OpenAPIHandler() http.HandlerFunc {
	return asset(openAPIFile, "application/yaml; charset=utf-8")
}

// SwaggerUIHandler sirve la página de Swagger UI que consume /docs/openapi.yaml.
func SwaggerUIHandler() http.HandlerFunc {
	return asset(swaggerFile, "text/html; charset=utf-8")
}

func asset(name, contentType string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		body, err := assets.ReadFile(name)
		if err != nil {
			http.Error(writer, name+" not found", http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", contentType)
		writer.Header().Set("Cache-Control", "no-cache")
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write(body)
	}
}
