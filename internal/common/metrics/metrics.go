// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_console_gateway_requests_total",
			Help: "Total number of backend calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_console_gateway_request_duration_seconds",
			Help:    "Duration of backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SessionTeardowns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_console_session_teardowns_total",
			Help: "Number of times an unauthorized response cleared the stored session",
		},
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_console_wizard_transitions_total",
			Help: "Wizard step transitions by form and direction",
		},
		[]string{"form", "direction"},
	)

	WizardValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_console_wizard_validation_failures_total",
			Help: "Advance attempts blocked by a failing field",
		},
		[]string{"form", "field"},
	)

	SubmissionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loan_console_submissions_in_flight",
			Help: "Mutating requests currently in flight per form",
		},
		[]string{"form"},
	)
)
