package enums

import (
	"fmt"
	"strings"
)

// StockPolicy decides what happens when a sale or adjustment would push stock below zero.
type StockPolicy string

const (
	// StockPolicyReject refuses the write and leaves stock untouched.
	StockPolicyReject StockPolicy = "reject"
	// StockPolicyBackorder lets stock go negative; the deficit is owed to the customer.
	StockPolicyBackorder StockPolicy = "backorder"
)

var validStockPolicies = []StockPolicy{StockPolicyReject, StockPolicyBackorder}

func (p StockPolicy) String() string {
	return string(p)
}

func (p StockPolicy) IsValid() bool {
	for _, candidate := range validStockPolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// AllowsNegative reports whether stock may drop below zero.
func (p StockPolicy) AllowsNegative() bool {
	return p == StockPolicyBackorder
}

func ParseStockPolicy(value string) (StockPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return StockPolicyReject, nil
	}
	for _, candidate := range validStockPolicies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock policy %q", value)
}
