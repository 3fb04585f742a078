// Package observ holds the engine's Prometheus instrumentation.
package observ

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts portfolio commands by action and outcome
	// (ok, rejected, conflict, error).
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelfolio_commands_total",
		Help: "Portfolio commands applied, by action and outcome",
	}, []string{"action", "outcome"})

	ConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modelfolio_conflict_retries_total",
		Help: "Commands re-applied after a concurrent version bump",
	})

	ValuationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelfolio_valuations_total",
		Help: "Daily valuations logged, by status",
	}, []string{"status"})

	ValuationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modelfolio_valuation_duration_seconds",
		Help:    "Time to value and log one portfolio",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// PriceFallbacks counts holdings valued at their buy price because no
	// quote was available.
	PriceFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modelfolio_price_fallbacks_total",
		Help: "Holdings valued at buy price for lack of a quote",
	})

	StorageRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelfolio_storage_retries_total",
		Help: "Storage operations retried after a transient failure",
	}, []string{"op"})

	DedupDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modelfolio_dedup_deleted_total",
		Help: "Duplicate price log rows removed by the dedup sweep",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelfolio_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modelfolio_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics under the matched route, not the raw
// path, to keep label cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
