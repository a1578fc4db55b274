package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dialekt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dialekt",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Chat metrics
	chatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of chat turns by chat type and outcome",
		},
		[]string{"chat_type", "outcome"},
	)

	completionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dialekt",
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Completion gateway latency in seconds",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32, 60},
		},
		[]string{"provider", "status"},
	)

	completionTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "completion",
			Name:      "tokens_total",
			Help:      "Total tokens reported by the completion gateway",
		},
		[]string{"provider"},
	)

	// Quota metrics
	quotaDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Free tier quota decisions",
		},
		[]string{"decision"},
	)

	usageRowsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "quota",
			Name:      "rows_pruned_total",
			Help:      "Daily usage rows removed by the pruner",
		},
	)

	// Billing metrics
	billingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "billing",
			Name:      "events_total",
			Help:      "Billing provider events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	subscriptionActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialekt",
			Subsystem: "billing",
			Name:      "actions_total",
			Help:      "Subscription actions requested by users",
		},
		[]string{"action", "outcome"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Label by route pattern to keep cardinality bounded
		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordChatTurn records the outcome of a chat turn
func RecordChatTurn(chatType, outcome string) {
	chatTurnsTotal.WithLabelValues(chatType, outcome).Inc()
}

// RecordCompletion records a completion gateway call
func RecordCompletion(provider, status string, duration time.Duration, tokens int) {
	completionDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
	if tokens > 0 {
		completionTokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}
}

// RecordQuotaDecision records an allowed or denied quota consumption
func RecordQuotaDecision(allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	quotaDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordUsagePruned records rows removed by the usage pruner
func RecordUsagePruned(rows int64) {
	usageRowsPruned.Add(float64(rows))
}

// RecordBillingEvent records a processed billing event
func RecordBillingEvent(eventType, outcome string) {
	billingEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordSubscriptionAction records a cancel or reactivate request
func RecordSubscriptionAction(action, outcome string) {
	subscriptionActionsTotal.WithLabelValues(action, outcome).Inc()
}
