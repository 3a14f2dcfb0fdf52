package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by result",
		},
		[]string{"result"},
	)

	CheckoutPersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_persist_failures_total",
			Help: "Charges accepted by the gateway whose records failed to persist",
		},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of outbound gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// Register registers all collectors; call once from main.
func Register() {
	prometheus.MustRegister(
		CheckoutsTotal,
		WebhookEventsTotal,
		CheckoutPersistFailures,
		GatewayRequestDuration,
	)
}
