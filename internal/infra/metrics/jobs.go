package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		attemptsExpiredTotal,
		ordersExpiredTotal,
	)
}

var (
	attemptsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_attempts_expired_total",
			Help: "Stale pending payment attempts closed by the expiry sweep.",
		},
	)

	ordersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_orders_expired_total",
			Help: "Active subscription orders expired past their end date.",
		},
	)
)

func AddAttemptsExpired(count int) {
	attemptsExpiredTotal.Add(float64(count))
}

func AddOrdersExpired(count int) {
	ordersExpiredTotal.Add(float64(count))
}
