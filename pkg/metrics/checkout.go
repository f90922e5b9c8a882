package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records reservation ledger activity.
type CheckoutMetrics struct {
	duration      *prometheus.HistogramVec
	unitsReserved *prometheus.CounterVec
	outOfStock    *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	unitsReserved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_units_reserved_total",
		Help: "Units successfully reserved by checkout batches.",
	}, []string{"category"})
	outOfStock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_out_of_stock_total",
		Help: "Checkout units rejected because stock hit zero.",
	}, []string{"category"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout batches rejected before any mutation.",
	}, []string{"reason"})
	reg.MustRegister(duration, unitsReserved, outOfStock, failures)
	return &CheckoutMetrics{
		duration:      duration,
		unitsReserved: unitsReserved,
		outOfStock:    outOfStock,
		failures:      failures,
	}
}

// ObserveDuration records the duration of one checkout batch.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// AddUnitsReserved counts units reserved for the named category.
func (c *CheckoutMetrics) AddUnitsReserved(category string, units int) {
	if c == nil || c.unitsReserved == nil || units <= 0 {
		return
	}
	c.unitsReserved.WithLabelValues(normalizeLabel(category)).Add(float64(units))
}

// IncOutOfStock counts a unit rejected on an empty counter.
func (c *CheckoutMetrics) IncOutOfStock(category string) {
	if c == nil || c.outOfStock == nil {
		return
	}
	c.outOfStock.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncFailure counts a batch rejected during validation.
func (c *CheckoutMetrics) IncFailure(reason string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
