package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

// Sale is an immutable ledger entry. TotalAmount always equals the sum of its
// items' TotalPrice; CustomerName is a snapshot taken at checkout.
type Sale struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SaleDate      time.Time           `gorm:"column:sale_date;not null;index" json:"sale_date"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:decimal(18,2);not null" json:"total_amount"`
	CustomerID    *int64              `gorm:"column:customer_id;index" json:"customer_id,omitempty"`
	CustomerName  *string             `gorm:"column:customer_name;size:100" json:"customer_name,omitempty"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;size:20;not null" json:"payment_method"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// ItemCount sums quantities across all lines.
func (s Sale) ItemCount() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// SaleItem snapshots the product name and unit price at the moment of sale.
type SaleItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SaleID      int64           `gorm:"column:sale_id;not null;index" json:"sale_id"`
	ProductID   int64           `gorm:"column:product_id;not null;index" json:"product_id"`
	ProductName string          `gorm:"column:product_name;size:200;not null" json:"product_name"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(18,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:decimal(18,2);not null" json:"total_price"`
}
