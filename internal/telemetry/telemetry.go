// Package telemetry holds the Prometheus metrics exposed at GET /metrics,
// in the same promauto-registered-global style as the source project's
// metrics package.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPDuration tracks how long each HTTP read endpoint takes.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// HTTPRequestsTotal counts every HTTP request served.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// HTTPRequestsInFlight tracks requests currently being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

var (
	// EngineOperationsTotal counts every engine operation dispatched by the
	// stream driver, labeled by the kind of operation and whether it
	// succeeded.
	EngineOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_engine_operations_total",
			Help: "Total number of ledger engine operations",
		},
		[]string{"operation", "status"},
	)

	// EventPublishErrorsTotal counts event-publish failures reported through
	// RecordEventPublishError. The engine only logs a failed publish and does
	// not report it here, so engine publishes do not increment this counter.
	EventPublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_event_publish_errors_total",
			Help: "Total number of event publish failures",
		},
	)

	// AccountsGauge reports the number of known accounts as of the last
	// GET /accounts listing; GET /accounts/:id does not update it.
	AccountsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_accounts_total",
			Help: "Current number of accounts known to the ledger",
		},
	)
)

// RecordOperation records the outcome of a dispatched engine operation.
func RecordOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EngineOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordEventPublishError increments the publish-error counter.
func RecordEventPublishError() {
	EventPublishErrorsTotal.Inc()
}

// StartTime is captured at process start so handlers can report uptime
// without threading a clock through the container.
var StartTime = time.Now()
