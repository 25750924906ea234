package health

import (
	"context"
	"net/http"
	"time"

	"github.com/Lelo88/inventory-pricing-api/internal/httpx"
)

const readyTimeout = 2 * time.Second

// Pinger es lo mínimo que necesitamos para chequear una dependencia.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger (ej: redis.Client.Ping(ctx).Err()).
type PingFunc func(ctx context.Context) error

func (ping PingFunc) Ping(ctx context.Context) error {
	return ping(ctx)
}

// Option configura el Handler.
type Option func(*Handler)

// WithCache agrega Redis al chequeo de /ready.
func WithCache(cache Pinger) Option {
	return func(handler *Handler) {
		handler.cache = cache
	}
}

// Handler encapsula endpoints de health.
type Handler struct {
	database Pinger
	cache    Pinger
}

// New crea un handler de health. La base es obligatoria para /ready.
func New(database Pinger, opts ...Option) *Handler {
	handler := &Handler{database: database}
	for _, opt := range opts {
		opt(handler)
	}
	return handler
}

// Health indica si el proceso está vivo.
// NO chequea dependencias; eso lo hace /ready.
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready chequea Postgres (y Redis si está configurado) con timeout corto.
func (handler *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if handler.database == nil {
		httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "database pool not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := handler.database.Ping(ctx); err != nil {
		httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "database is not reachable")
		return
	}

	checks := map[string]string{"database": "ok"}
	if handler.cache != nil {
		if err := handler.cache.Ping(ctx); err != nil {
			httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "cache is not reachable")
			return
		}
		checks["cache"] = "ok"
	}

	httpx.OK(w, r, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}
