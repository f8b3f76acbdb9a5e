package enums

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod(" Card ")
	if err != nil || got != PaymentMethodCard {
		t.Fatalf("expected card, got %q err=%v", got, err)
	}
	if _, err := ParsePaymentMethod("cheque"); err == nil {
		t.Fatal("expected error for unknown payment method")
	}
}

func TestParseStockPolicyDefaultsToReject(t *testing.T) {
	got, err := ParseStockPolicy("")
	if err != nil || got != StockPolicyReject {
		t.Fatalf("expected reject default, got %q err=%v", got, err)
	}
	backorder, err := ParseStockPolicy("BACKORDER")
	if err != nil || !backorder.AllowsNegative() {
		t.Fatalf("expected backorder to allow negative stock, got %q err=%v", backorder, err)
	}
	if _, err := ParseStockPolicy("sometimes"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestAlertSeverityRankOrdering(t *testing.T) {
	ordered := []AlertSeverity{AlertSeverityCritical, AlertSeverityHigh, AlertSeverityMedium, AlertSeverityLow}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Fatalf("expected %s to rank before %s", ordered[i-1], ordered[i])
		}
	}
	if AlertSeverity("bogus").Rank() <= AlertSeverityLow.Rank() {
		t.Fatal("expected unknown severity to sort last")
	}
}

func TestParseCurrency(t *testing.T) {
	got, err := ParseCurrency("")
	if err != nil || got != CurrencyUSD {
		t.Fatalf("expected USD default, got %q err=%v", got, err)
	}
	got, err = ParseCurrency("npr")
	if err != nil || got != CurrencyNPR {
		t.Fatalf("expected NPR, got %q err=%v", got, err)
	}
	if _, err := ParseCurrency("XYZ"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
}

func TestOutboxEventTypes(t *testing.T) {
	for _, raw := range []string{"sale_created", "stock_adjusted", "low_stock_alert"} {
		if _, err := ParseOutboxEventType(raw); err != nil {
			t.Fatalf("expected %s to parse: %v", raw, err)
		}
	}
	if agg := OutboxAggregateType("order"); agg.IsValid() {
		t.Fatal("expected order aggregate to be rejected")
	}
}
