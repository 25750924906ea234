package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDFrom devuelve el request id que chi guardó en el context.
// Si no está (handlers testeados sin middleware) cae al header "X-Request-Id".
func RequestIDFrom(request *http.Request) string {
	if request == nil {
		return ""
	}
	if id := middleware.GetReqID(request.Context()); id != "" {
		return id
	}
	return request.Header.Get("X-Request-Id")
}
