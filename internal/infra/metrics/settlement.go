package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookLatencyMs,
		paymentsTotal,
		settledRevenueTotal,
		transfersTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events by type and outcome (processed/duplicate/dropped/error/rejected).",
		},
		[]string{"type", "outcome"},
	)

	webhookLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_latency_ms",
			Help:    "Webhook handling latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"type"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments reaching a terminal status (completed/failed).",
		},
		[]string{"status"},
	)

	settledRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settled_revenue_total",
			Help: "Gross minor-unit value of completed payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfers_total",
			Help: "Payout transfers by party (merchant/driver) and outcome (created/skipped/error).",
		},
		[]string{"party", "outcome"},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func ObserveWebhookLatency(eventType string, ms float64) {
	webhookLatencyMs.WithLabelValues(norm(eventType)).Observe(ms)
}

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddSettledRevenue(currency string, amountCents int64) {
	settledRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountCents))
}

func IncTransfer(party, outcome string) {
	transfersTotal.WithLabelValues(norm(party), norm(outcome)).Inc()
}
