package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts webhook events by kind and what the engine did with
	// them: applied, duplicate, ignored, needs_review.
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_events_total",
			Help: "Webhook events processed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	LedgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Token ledger credits and debits, by outcome",
		},
		[]string{"op", "outcome"},
	)

	CheckoutSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Checkout sessions created",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(LedgerOps)
	prometheus.MustRegister(CheckoutSessions)
	prometheus.MustRegister(WorkerQueueDepth)
}
