package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los colectores de la API. Un *Metrics nil es válido y no
// registra nada, así los servicios no necesitan chequear.
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	quotes           *prometheus.CounterVec
	couponRejections *prometheus.CounterVec
}

// New registra los colectores en reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_quotes_total",
		Help: "Cart quotes computed, by whether a coupon contributed.",
	}, []string{"coupon"})
	couponRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_coupon_rejections_total",
		Help: "Rejected coupon validations by reason.",
	}, []string{"reason"})
	reg.MustRegister(requests, duration, quotes, couponRejections)
	return &Metrics{
		requests:         requests,
		duration:         duration,
		quotes:           quotes,
		couponRejections: couponRejections,
	}
}

// Middleware mide cada request usando el patrón de ruta de chi
// (no el path crudo, para no explotar la cardinalidad con ids).
func (metrics *Metrics) Middleware(next http.Handler) http.Handler {
	if metrics == nil || metrics.requests == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil && routeCtx.RoutePattern() != "" {
			route = routeCtx.RoutePattern()
		}
		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveQuote cuenta una cotización; couponApplied indica si el cupón aportó.
func (metrics *Metrics) ObserveQuote(couponApplied bool) {
	if metrics == nil || metrics.quotes == nil {
		return
	}
	metrics.quotes.WithLabelValues(strconv.FormatBool(couponApplied)).Inc()
}

// ObserveCouponRejection cuenta un rechazo de cupón.
func (metrics *Metrics) ObserveCouponRejection(reason string) {
	if metrics == nil || metrics.couponRejections == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	metrics.couponRejections.WithLabelValues(reason).Inc()
}

// Handler expone /metrics para el gatherer dado.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
