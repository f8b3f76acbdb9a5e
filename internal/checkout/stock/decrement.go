package stock

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
)

// Request asks for Qty units of a product.
type Request struct {
	ProductID int64
	Qty       int
}

// Result reports the stock left after a product's combined decrement.
type Result struct {
	ProductID  int64
	Qty        int
	StockAfter int
}

// Decrement removes the requested units inside tx. Requests for the same
// product are summed and applied once, in ascending product id order, so two
// transactions touching overlapping products always lock rows in the same
// order. Unless allowNegative is set, a product without enough stock aborts
// the whole call with a consistency error and the caller must roll back.
func Decrement(ctx context.Context, tx *gorm.DB, requests []Request, allowNegative bool) ([]Result, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	totals := make(map[int64]int, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		totals[req.ProductID] += req.Qty
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		qty := totals[id]
		query := tx.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id)
		if !allowNegative {
			query = query.Where("stock_quantity >= ?", qty)
		}
		res := query.Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"version":        gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return nil, pkgerrors.Persistence(res.Error, "decrement stock")
		}

		var product models.Product
		if err := tx.WithContext(ctx).Select("id", "stock_quantity").First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": id})
			}
			return nil, pkgerrors.Persistence(err, "reload stock")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConsistency, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": id,
					"requested":  qty,
					"available":  product.StockQuantity,
				})
		}
		results = append(results, Result{ProductID: id, Qty: qty, StockAfter: product.StockQuantity})
	}
	return results, nil
}
