package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for HTTP traffic.
//
// WHY A STRUCT INSTEAD OF PACKAGE-LEVEL VARS?
// promauto at package level registers with the global registry at import
// time, which makes tests that create the app twice panic on duplicate
// registration. Constructing the instruments against an injected Registerer
// keeps registration explicit and testable — the same reason we inject the
// repository and the clock.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the HTTP metrics.
//
// Labels are kept low-cardinality on purpose: the chi route PATTERN
// ("/api/habits/{id}") rather than the raw path ("/api/habits/1",
// "/api/habits/2", ... — one time series per habit would bloat Prometheus),
// and the status BUCKET ("2xx") rather than each individual code.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "habit_tracker_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habit_tracker_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// Middleware records a counter increment and a duration observation for
// every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		endpoint := routePattern(r)
		m.requestsTotal.WithLabelValues(endpoint, statusBucket(wrapped.statusCode)).Inc()
		m.requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// routePattern returns the matched chi route pattern. It must be read
// AFTER next.ServeHTTP — chi fills the route context during routing, which
// happens inside the call. Requests that never matched a chi route (static
// files) fall back to the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// statusBucket collapses status codes into their class.
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
