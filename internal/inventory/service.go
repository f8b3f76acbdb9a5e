package inventory

import (
	"context"
	"fmt"

	"github.com/sangambaral17/TradeMaster/internal/catalog"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
)

type catalogReader interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error)
	UpdateThreshold(ctx context.Context, id int64, threshold int) (*models.Product, error)
	UpdateReorderQuantity(ctx context.Context, id int64, quantity int) (*models.Product, error)
}

// Service answers stock alert queries against the live catalog.
type Service interface {
	Alerts(ctx context.Context) ([]Alert, error)
	ReorderSuggestions(ctx context.Context) ([]ReorderSuggestion, error)
	OutOfStock(ctx context.Context) ([]models.Product, error)
	LowStockCount(ctx context.Context) (int, error)
	UpdateThreshold(ctx context.Context, productID int64, threshold int) (*models.Product, error)
	UpdateReorderQuantity(ctx context.Context, productID int64, quantity int) (*models.Product, error)
}

type service struct {
	catalog catalogReader
	logg    *logger.Logger
}

func NewService(catalog catalogReader, logg *logger.Logger) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{catalog: catalog, logg: logg}, nil
}

func (s *service) Alerts(ctx context.Context) ([]Alert, error) {
	products, err := s.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	return Alerts(products), nil
}

func (s *service) ReorderSuggestions(ctx context.Context) ([]ReorderSuggestion, error) {
	products, err := s.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	return ReorderSuggestions(products), nil
}

// OutOfStock products always satisfy the low-stock filter since thresholds are never negative.
func (s *service) OutOfStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	return OutOfStock(products), nil
}

func (s *service) LowStockCount(ctx context.Context) (int, error) {
	products, err := s.lowStock(ctx)
	if err != nil {
		return 0, err
	}
	return LowStockCount(products), nil
}

func (s *service) UpdateThreshold(ctx context.Context, productID int64, threshold int) (*models.Product, error) {
	return s.catalog.UpdateThreshold(ctx, productID, threshold)
}

func (s *service) UpdateReorderQuantity(ctx context.Context, productID int64, quantity int) (*models.Product, error) {
	return s.catalog.UpdateReorderQuantity(ctx, productID, quantity)
}

func (s *service) lowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.catalog.ListProducts(ctx, catalog.ProductFilter{LowStock: true})
	if err != nil {
		return nil, err
	}
	s.logg.Debug(s.logg.WithField(ctx, "low_stock_products", len(products)), "inventory scan loaded")
	return products, nil
}
