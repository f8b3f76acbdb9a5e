package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

// Alert flags a product whose stock has reached its reorder threshold.
type Alert struct {
	ProductID       int64               `json:"product_id"`
	ProductName     string              `json:"product_name"`
	SKU             *string             `json:"sku,omitempty"`
	CurrentStock    int                 `json:"current_stock"`
	Threshold       int                 `json:"threshold"`
	ReorderQuantity int                 `json:"reorder_quantity"`
	Severity        enums.AlertSeverity `json:"severity"`
}

// ReorderSuggestion prices the restock of one alerting product.
type ReorderSuggestion struct {
	ProductID       int64               `json:"product_id"`
	ProductName     string              `json:"product_name"`
	CurrentStock    int                 `json:"current_stock"`
	Threshold       int                 `json:"threshold"`
	ReorderQuantity int                 `json:"reorder_quantity"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	EstimatedCost   decimal.Decimal     `json:"estimated_cost"`
	Priority        enums.AlertSeverity `json:"priority"`
}

// Classify returns the severity for a stock level against its threshold and
// false when the product is not low on stock. Negative stock (backorder) is
// treated like zero.
func Classify(stock, threshold int) (enums.AlertSeverity, bool) {
	switch {
	case stock <= 0:
		return enums.AlertSeverityCritical, true
	case stock <= threshold/2:
		return enums.AlertSeverityHigh, true
	case stock <= threshold:
		return enums.AlertSeverityMedium, true
	default:
		return "", false
	}
}

// Alerts classifies products, Critical first, then lowest stock, then id.
func Alerts(products []models.Product) []Alert {
	alerts := make([]Alert, 0)
	for _, product := range products {
		severity, ok := Classify(product.StockQuantity, product.LowStockThreshold)
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			ProductID:       product.ID,
			ProductName:     product.Name,
			SKU:             product.SKU,
			CurrentStock:    product.StockQuantity,
			Threshold:       product.LowStockThreshold,
			ReorderQuantity: product.ReorderQuantity,
			Severity:        severity,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.CurrentStock != b.CurrentStock {
			return a.CurrentStock < b.CurrentStock
		}
		return a.ProductID < b.ProductID
	})
	return alerts
}

// ReorderSuggestions follows the alert order.
func ReorderSuggestions(products []models.Product) []ReorderSuggestion {
	prices := make(map[int64]decimal.Decimal, len(products))
	for _, product := range products {
		prices[product.ID] = product.Price
	}

	alerts := Alerts(products)
	suggestions := make([]ReorderSuggestion, 0, len(alerts))
	for _, alert := range alerts {
		price := prices[alert.ProductID]
		suggestions = append(suggestions, ReorderSuggestion{
			ProductID:       alert.ProductID,
			ProductName:     alert.ProductName,
			CurrentStock:    alert.CurrentStock,
			Threshold:       alert.Threshold,
			ReorderQuantity: alert.ReorderQuantity,
			UnitPrice:       price,
			EstimatedCost:   EstimatedCost(price, alert.ReorderQuantity),
			Priority:        alert.Severity,
		})
	}
	return suggestions
}

func EstimatedCost(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func LowStockCount(products []models.Product) int {
	count := 0
	for _, product := range products {
		if product.IsLowStock() {
			count++
		}
	}
	return count
}

// OutOfStock keeps products with nothing on hand, in id order.
func OutOfStock(products []models.Product) []models.Product {
	out := make([]models.Product, 0)
	for _, product := range products {
		if product.StockQuantity <= 0 {
			out = append(out, product)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
