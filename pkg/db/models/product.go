package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

const (
	DefaultLowStockThreshold = 5
	DefaultReorderQuantity   = 20
)

// Product is the live catalog record. StockQuantity is authoritative and only
// moves through checkout or explicit inventory adjustments, each bumping Version.
type Product struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"column:name;size:200;not null" json:"name"`
	SKU               *string         `gorm:"column:sku;size:50" json:"sku,omitempty"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	Currency          enums.Currency  `gorm:"column:currency;size:3;not null" json:"currency"`
	StockQuantity     int             `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null" json:"low_stock_threshold"`
	ReorderQuantity   int             `gorm:"column:reorder_quantity;not null" json:"reorder_quantity"`
	CategoryID        int64           `gorm:"column:category_id;not null;index" json:"category_id"`
	Version           int64           `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsLowStock reports whether stock has reached the reorder threshold.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
