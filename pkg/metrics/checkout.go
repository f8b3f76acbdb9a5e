package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout result labels.
const (
	CheckoutResultCommitted    = "committed"
	CheckoutResultInvalid      = "invalid"
	CheckoutResultNotFound     = "not_found"
	CheckoutResultInsufficient = "insufficient_stock"
	CheckoutResultFailed       = "failed"
)

// CheckoutMetrics tracks commit outcomes and latency of the checkout pipeline.
type CheckoutMetrics struct {
	attempts  *prometheus.CounterVec
	duration  prometheus.Histogram
	unitsSold prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Time spent committing a checkout, including rollbacks.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	unitsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_units_sold_total",
		Help:      "Units sold across committed checkouts.",
	})
	reg.MustRegister(attempts, duration, unitsSold)
	return &CheckoutMetrics{attempts: attempts, duration: duration, unitsSold: unitsSold}
}

// Observe records one checkout attempt.
func (c *CheckoutMetrics) Observe(result string, elapsed time.Duration, units int) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(result)).Inc()
	c.duration.Observe(elapsed.Seconds())
	if result == CheckoutResultCommitted && units > 0 {
		c.unitsSold.Add(float64(units))
	}
}
