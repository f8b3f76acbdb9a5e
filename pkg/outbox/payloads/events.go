package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

// SaleCreatedEvent is emitted in the checkout transaction for every committed sale.
type SaleCreatedEvent struct {
	SaleID        int64               `json:"sale_id"`
	SaleDate      time.Time           `json:"sale_date"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	CustomerID    *int64              `json:"customer_id,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Lines         []SaleLine          `json:"lines"`
}

// SaleLine mirrors one sale item plus the stock left after the decrement.
type SaleLine struct {
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	StockAfter int             `json:"stock_after"`
}

// StockAdjustedEvent records an explicit inventory edit outside checkout.
type StockAdjustedEvent struct {
	ProductID  int64  `json:"product_id"`
	Delta      int    `json:"delta"`
	StockAfter int    `json:"stock_after"`
	Reason     string `json:"reason,omitempty"`
}

// LowStockAlertEvent is raised by the scheduled low-stock scan.
type LowStockAlertEvent struct {
	ProductID       int64               `json:"product_id"`
	ProductName     string              `json:"product_name"`
	CurrentStock    int                 `json:"current_stock"`
	Threshold       int                 `json:"threshold"`
	ReorderQuantity int                 `json:"reorder_quantity"`
	Severity        enums.AlertSeverity `json:"severity"`
	EstimatedCost   decimal.Decimal     `json:"estimated_cost"`
}
