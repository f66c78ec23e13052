package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutMetrics_Counters(t *testing.T) {
	m := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	m.AttemptStarted("card")
	m.AttemptStarted("card")
	m.AttemptStarted("paypal")
	m.AttemptResolved("card", "success")
	m.AttemptResolved("card", "cancelled")
	m.OrderFinalized("cod")
	m.FinalizeFailed()
	m.StaleCallback()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.attemptsStarted.WithLabelValues("card")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsStarted.WithLabelValues("paypal")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsResolved.WithLabelValues("card", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsResolved.WithLabelValues("card", "cancelled")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ordersFinalized.WithLabelValues("cod")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.finalizeFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.staleCallbacks))
}
