package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics counts checkout attempts and their outcomes per gateway.
type CheckoutMetrics struct {
	attemptsStarted  *prometheus.CounterVec
	attemptsResolved *prometheus.CounterVec
	ordersFinalized  *prometheus.CounterVec
	finalizeFailures prometheus.Counter
	staleCallbacks   prometheus.Counter
}

func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	factory := promauto.With(registerer)

	return &CheckoutMetrics{
		attemptsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_attempts_started_total",
			Help: "Total number of checkout attempts begun, by gateway",
		}, []string{"gateway"}),
		attemptsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_attempts_resolved_total",
			Help: "Total number of gateway outcomes applied, by gateway and outcome",
		}, []string{"gateway", "outcome"}),
		ordersFinalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_orders_finalized_total",
			Help: "Total number of orders persisted, by payment method",
		}, []string{"method"}),
		finalizeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkout_finalize_failures_total",
			Help: "Total number of order persistence failures after confirmed payment",
		}),
		staleCallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkout_stale_callbacks_total",
			Help: "Total number of gateway callbacks discarded for superseded attempts",
		}),
	}
}

func (m *CheckoutMetrics) AttemptStarted(gateway string) {
	m.attemptsStarted.WithLabelValues(gateway).Inc()
}

func (m *CheckoutMetrics) AttemptResolved(gateway, outcome string) {
	m.attemptsResolved.WithLabelValues(gateway, outcome).Inc()
}

func (m *CheckoutMetrics) OrderFinalized(method string) {
	m.ordersFinalized.WithLabelValues(method).Inc()
}

func (m *CheckoutMetrics) FinalizeFailed() {
	m.finalizeFailures.Inc()
}

func (m *CheckoutMetrics) StaleCallback() {
	m.staleCallbacks.Inc()
}
