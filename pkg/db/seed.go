package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

type seedProduct struct {
	name     string
	sku      string
	price    string
	stock    int
	category string
}

var seedCategories = []models.Category{
	{Name: "Electronics", Description: strPtr("Gadgets and devices")},
	{Name: "Groceries", Description: strPtr("Daily food items")},
}

var seedProducts = []seedProduct{
	{name: "Laptop", sku: "ELEC-001", price: "1200.00", stock: 10, category: "Electronics"},
	{name: "Smartphone", sku: "ELEC-002", price: "800.00", stock: 20, category: "Electronics"},
	{name: "Rice (5kg)", sku: "GROC-001", price: "15.00", stock: 50, category: "Groceries"},
}

// Seed inserts the starter catalog when no products exist yet. It reports
// whether anything was written.
func Seed(ctx context.Context, client *Client) (bool, error) {
	seeded := false
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Count(&count).Error; err != nil {
			return fmt.Errorf("counting products: %w", err)
		}
		if count > 0 {
			return nil
		}

		categoryIDs := make(map[string]int64, len(seedCategories))
		for _, c := range seedCategories {
			category := c
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("seeding category %s: %w", category.Name, err)
			}
			categoryIDs[category.Name] = category.ID
		}

		for _, p := range seedProducts {
			product := models.Product{
				Name:              p.name,
				SKU:               strPtr(p.sku),
				Price:             decimal.RequireFromString(p.price),
				Currency:          enums.DefaultCurrency,
				StockQuantity:     p.stock,
				LowStockThreshold: models.DefaultLowStockThreshold,
				ReorderQuantity:   models.DefaultReorderQuantity,
				CategoryID:        categoryIDs[p.category],
			}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("seeding product %s: %w", p.name, err)
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

func strPtr(v string) *string {
	return &v
}
