package enums

import (
	"fmt"
	"strings"
)

// Currency is the ISO code a product is priced in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyNPR Currency = "NPR"
	CurrencyINR Currency = "INR"
	CurrencyEUR Currency = "EUR"
)

// DefaultCurrency applies when a product is created without one.
const DefaultCurrency = CurrencyUSD

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyNPR,
	CurrencyINR,
	CurrencyEUR,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency. Empty input yields DefaultCurrency.
func ParseCurrency(value string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return DefaultCurrency, nil
	}
	for _, candidate := range validCurrencies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
