package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCheckoutMetricsRecordCounters(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := NewCheckoutMetrics(registry)

	m.AddUnitsReserved("oscilloscopes", 3)
	m.AddUnitsReserved("oscilloscopes", 2)
	m.IncOutOfStock("cables")
	m.IncFailure("limit_exceeded")
	m.ObserveDuration("success", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.unitsReserved.WithLabelValues("oscilloscopes")); got != 5 {
		t.Fatalf("units reserved: expected 5, got %v", got)
	}
	if got := testutil.ToFloat64(m.outOfStock.WithLabelValues("cables")); got != 1 {
		t.Fatalf("out of stock: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("limit_exceeded")); got != 1 {
		t.Fatalf("failures: expected 1, got %v", got)
	}
}

func TestCheckoutMetricsIgnoreNonPositiveUnits(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := NewCheckoutMetrics(registry)

	m.AddUnitsReserved("cables", 0)
	m.AddUnitsReserved("cables", -4)

	if got := testutil.ToFloat64(m.unitsReserved.WithLabelValues("cables")); got != 0 {
		t.Fatalf("expected counter untouched, got %v", got)
	}
}

func TestCheckoutMetricsNilRegistererIsInert(t *testing.T) {
	t.Parallel()

	m := NewCheckoutMetrics(nil)
	m.AddUnitsReserved("cables", 1)
	m.IncOutOfStock("cables")
	m.IncFailure("validation")
	m.ObserveDuration("failure", time.Second)

	var nilMetrics *CheckoutMetrics
	nilMetrics.IncFailure("validation")
}
