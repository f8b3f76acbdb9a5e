package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one product in a cart with the unit price captured when it was first added.
type Line struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         *string         `json:"sku,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Total is quantity × unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ephemeral, per-session basket. It is never written to the ledger.
type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) find(productID int64) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) remove(productID int64) bool {
	idx := c.find(productID)
	if idx < 0 {
		return false
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	return true
}

// TaxRate applied to cart subtotals.
var TaxRate = decimal.Zero

// LineView is a cart line with its computed total.
type LineView struct {
	Line
	Total decimal.Decimal `json:"total"`
}

// Summary is what callers see: lines with totals plus subtotal, tax and grand total.
type Summary struct {
	SessionID string          `json:"session_id"`
	Lines     []LineView      `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summarize computes the totals for c.
func Summarize(c *Cart) Summary {
	summary := Summary{
		SessionID: c.SessionID,
		Lines:     make([]LineView, 0, len(c.Lines)),
		Subtotal:  decimal.Zero,
		UpdatedAt: c.UpdatedAt,
	}
	for _, line := range c.Lines {
		total := line.Total()
		summary.Lines = append(summary.Lines, LineView{Line: line, Total: total})
		summary.Subtotal = summary.Subtotal.Add(total)
		summary.ItemCount += line.Quantity
	}
	summary.Tax = summary.Subtotal.Mul(TaxRate).Round(2)
	summary.Total = summary.Subtotal.Add(summary.Tax)
	return summary
}
