package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCheckoutMetricsCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.Observe(CheckoutResultCommitted, 20*time.Millisecond, 3)
	m.Observe(CheckoutResultCommitted, 10*time.Millisecond, 2)
	m.Observe(CheckoutResultInsufficient, 5*time.Millisecond, 4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "trademaster_checkout_total", "result", CheckoutResultCommitted); err != nil || got != 2 {
		t.Fatalf("expected committed=2, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "trademaster_checkout_total", "result", CheckoutResultInsufficient); err != nil || got != 1 {
		t.Fatalf("expected insufficient=1, got %f err=%v", got, err)
	}

	units := findMetricFamily(mfs, "trademaster_checkout_units_sold_total")
	if units == nil || units.GetMetric()[0].GetCounter().GetValue() != 5 {
		t.Fatalf("expected 5 units sold from committed checkouts only")
	}

	hist := findMetricFamily(mfs, "trademaster_checkout_duration_seconds")
	if hist == nil || hist.GetMetric()[0].GetHistogram().GetSampleCount() != 3 {
		t.Fatalf("expected three duration samples")
	}
}

func TestOutboxMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("sale_created")
	m.IncFailed("low_stock_alert")
	m.IncFailed("low_stock_alert")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "trademaster_outbox_failed_total", "event_type", "low_stock_alert"); err != nil || got != 2 {
		t.Fatalf("expected failed=2, got %f err=%v", got, err)
	}
}
