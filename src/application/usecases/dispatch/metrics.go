package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveryOutcomesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notify",
			Name:      "delivery_outcomes_total",
			Help:      "Delivery attempts by channel, provider and outcome.",
		},
		[]string{"channel", "provider", "state"},
	)

	batchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notify",
			Name:      "batches_total",
			Help:      "Dispatch calls by channel, provider and overall state.",
		},
		[]string{"channel", "provider", "state"}, // state: sent, partial, failed, failed_fast
	)

	auditWritesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notify",
			Name:      "audit_writes_total",
			Help:      "Audit record writes by status.",
		},
		[]string{"status"},
	)

	dispatchDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notify",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a whole dispatch call, inter-send waits included.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"channel", "provider"},
	)
)
