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

var (
	// Registry holds the service collectors. It is separate from the default
	// registry so tests can assert on it without global state from other packages.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "customer_service",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	// SessionsIssued counts issued session tokens by role.
	SessionsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "sessions",
			Name:      "issued_total",
			Help:      "Session tokens issued.",
		},
		[]string{"role"},
	)

	// SessionsRevoked counts explicit revocations (logout, password change, account deletion).
	SessionsRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "sessions",
			Name:      "revoked_total",
			Help:      "Session tokens revoked.",
		},
	)

	// SessionsSwept counts sessions removed by the expiry sweep.
	SessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "sessions",
			Name:      "swept_total",
			Help:      "Expired sessions removed by the sweep job.",
		},
	)

	// AuthFailures counts rejected tokens by reason.
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "sessions",
			Name:      "validation_failures_total",
			Help:      "Session validations that failed.",
		},
		[]string{"reason"},
	)

	// EventsPublished counts outgoing domain events by routing key and outcome.
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events published.",
		},
		[]string{"routing_key", "result"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "customer_service",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the login rate limiter.",
		},
		[]string{"route"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		SessionsIssued,
		SessionsRevoked,
		SessionsSwept,
		AuthFailures,
		EventsPublished,
		RateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency keyed by the matched chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status(ww))).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// status defaults to 200 when the handler never called WriteHeader.
func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
