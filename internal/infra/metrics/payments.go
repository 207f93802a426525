package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsInitiatedTotal,
		paymentsSettledTotal,
		paymentsRevenueTotal,
		gatewayRequestDuration,
	)
}

var (
	paymentsInitiatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Payment attempts handed to a gateway, by provider and result.",
		},
		[]string{"provider", "result"}, // result: 'ok', 'gateway_error', 'rate_limited'
	)

	paymentsSettledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_settled_total",
			Help: "Payment attempts reaching a terminal status, by provider and status.",
		},
		[]string{"provider", "status"}, // status: 'completed', 'failed', 'expired'
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of completed payments, labeled by provider.",
		},
		[]string{"provider"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of outbound gateway initiation calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "result"},
	)
)

func IncPaymentInitiated(provider, result string) {
	paymentsInitiatedTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}

func IncPaymentSettled(provider, status string) {
	paymentsSettledTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddPaymentRevenue(provider string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(provider)).Add(amount)
}

func ObserveGatewayRequest(provider, result string, seconds float64) {
	gatewayRequestDuration.WithLabelValues(norm(provider), norm(result)).Observe(seconds)
}
