package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		callbacksTotal,
		callbackReplaysTotal,
	)
}

var (
	// outcome: 'acknowledged', 'invalid_signature', 'order_not_found',
	// 'invalid_amount', 'internal_error'
	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Gateway callbacks processed, by provider, channel and outcome.",
		},
		[]string{"provider", "channel", "outcome"},
	)

	callbackReplaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callback_replays_total",
			Help: "Callbacks that arrived after the attempt was already terminal.",
		},
		[]string{"provider", "channel"},
	)
)

func IncCallback(provider, channel, outcome string) {
	callbacksTotal.WithLabelValues(norm(provider), norm(channel), norm(outcome)).Inc()
}

func IncCallbackReplay(provider, channel string) {
	callbackReplaysTotal.WithLabelValues(norm(provider), norm(channel)).Inc()
}
