package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/db"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
	"github.com/sangambaral17/TradeMaster/pkg/outbox"
	"github.com/sangambaral17/TradeMaster/pkg/outbox/payloads"
)

// Service exposes catalog management: categories, products and stock edits.
type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id int64, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	AdjustStock(ctx context.Context, id int64, delta int, reason string) (*models.Product, error)
	UpdateThreshold(ctx context.Context, id int64, threshold int) (*models.Product, error)
	UpdateReorderQuantity(ctx context.Context, id int64, quantity int) (*models.Product, error)
}

// CategoryInput carries the editable category fields.
type CategoryInput struct {
	Name        string
	Description *string
}

// CreateProductInput holds the payload to create a product. Zero threshold
// and reorder values fall back to the catalog defaults only when left nil.
type CreateProductInput struct {
	Name              string
	SKU               *string
	Price             decimal.Decimal
	Currency          string
	StockQuantity     int
	LowStockThreshold *int
	ReorderQuantity   *int
	CategoryID        int64
}

// UpdateProductInput holds optional product mutations.
type UpdateProductInput struct {
	Name              *string
	SKU               *string
	Price             *decimal.Decimal
	Currency          *string
	StockQuantity     *int
	LowStockThreshold *int
	ReorderQuantity   *int
	CategoryID        *int64
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	events outbox.Emitter
	policy enums.StockPolicy
	logg   *logger.Logger
}

// NewService wires the catalog service. policy governs AdjustStock decrements.
func NewService(repo *Repository, tx txRunner, events outbox.Emitter, policy enums.StockPolicy, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid stock policy %q", policy)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, events: events, policy: policy, logg: logg}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name, err := validateName(input.Name, 100, "category name")
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name, Description: trimOptional(input.Description)}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Persistence(err, "create category")
	}
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "load category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list categories")
	}
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, id int64, input CategoryInput) (*models.Category, error) {
	name, err := validateName(input.Name, 100, "category name")
	if err != nil {
		return nil, err
	}
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	category.Description = trimOptional(input.Description)
	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return nil, pkgerrors.Persistence(err, "update category")
	}
	return category, nil
}

// DeleteCategory refuses while any product still points at the category.
func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountProductsInCategory(ctx, id)
		if err != nil {
			return pkgerrors.Persistence(err, "count category products")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has products").
				WithDetails(map[string]any{"product_count": count})
		}
		deleted, err := txRepo.DeleteCategory(ctx, id)
		if err != nil {
			return pkgerrors.Persistence(err, "delete category")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil
	})
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name, err := validateName(input.Name, 200, "product name")
	if err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	currency, err := enums.ParseCurrency(input.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity must be non-negative")
	}

	threshold := models.DefaultLowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	if err := validateLowStockThreshold(threshold); err != nil {
		return nil, err
	}
	reorder := models.DefaultReorderQuantity
	if input.ReorderQuantity != nil {
		reorder = *input.ReorderQuantity
	}
	if err := validateReorderQuantity(reorder); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:              name,
		SKU:               trimOptional(input.SKU),
		Price:             input.Price.Round(2),
		Currency:          currency,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: threshold,
		ReorderQuantity:   reorder,
		CategoryID:        input.CategoryID,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindCategory(ctx, input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return pkgerrors.Persistence(err, "load category")
		}
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Persistence(err, "create product")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list products")
	}
	return products, nil
}

// UpdateProduct applies the optional fields on top of the stored row. The
// write is guarded by the version read so concurrent checkouts are not undone.
func (s *service) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := product.Version

	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if input.CategoryID != nil {
			if _, err := txRepo.FindCategory(ctx, *input.CategoryID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
				}
				return pkgerrors.Persistence(err, "load category")
			}
		}
		ok, err := txRepo.UpdateProduct(ctx, product, expected)
		if err != nil {
			return pkgerrors.Persistence(err, "update product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "product was modified concurrently")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct refuses while sale items reference the product so the ledger stays intact.
func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		refs, err := txRepo.CountSaleReferences(ctx, id)
		if err != nil {
			return pkgerrors.Persistence(err, "count sale references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by recorded sales").
				WithDetails(map[string]any{"sale_item_count": refs})
		}
		deleted, err := txRepo.DeleteProduct(ctx, id)
		if err != nil {
			return pkgerrors.Persistence(err, "delete product")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil
	})
}

// AdjustStock moves stock by delta and records a stock_adjusted event in the
// same transaction.
func (s *service) AdjustStock(ctx context.Context, id int64, delta int, reason string) (*models.Product, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		ok, err := txRepo.AdjustStock(ctx, id, delta, s.policy.AllowsNegative())
		if err != nil {
			return pkgerrors.Persistence(err, "adjust stock")
		}
		product, err := txRepo.FindProduct(ctx, id)
		if err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConsistency, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": id,
					"available":  product.StockQuantity,
					"requested":  -delta,
				})
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   outbox.AggregateID(id),
			Data: payloads.StockAdjustedEvent{
				ProductID:  id,
				Delta:      delta,
				StockAfter: product.StockQuantity,
				Reason:     strings.TrimSpace(reason),
			},
		}); err != nil {
			return pkgerrors.Persistence(err, "emit stock adjusted event")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":  id,
		"delta":       delta,
		"stock_after": updated.StockQuantity,
	})
	s.logg.Info(logCtx, "stock adjusted")
	return updated, nil
}

func (s *service) UpdateThreshold(ctx context.Context, id int64, threshold int) (*models.Product, error) {
	if err := validateLowStockThreshold(threshold); err != nil {
		return nil, err
	}
	return s.updateColumn(ctx, id, "low_stock_threshold", threshold)
}

func (s *service) UpdateReorderQuantity(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	if err := validateReorderQuantity(quantity); err != nil {
		return nil, err
	}
	return s.updateColumn(ctx, id, "reorder_quantity", quantity)
}

func (s *service) updateColumn(ctx context.Context, id int64, column string, value int) (*models.Product, error) {
	ok, err := s.repo.UpdateProductColumn(ctx, id, column, value)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "update "+column)
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.GetProduct(ctx, id)
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name, err := validateName(*input.Name, 200, "product name")
		if err != nil {
			return err
		}
		product.Name = name
	}
	if input.SKU != nil {
		product.SKU = trimOptional(input.SKU)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return err
		}
		product.Price = input.Price.Round(2)
	}
	if input.Currency != nil {
		currency, err := enums.ParseCurrency(*input.Currency)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		product.Currency = currency
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity must be non-negative")
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.LowStockThreshold != nil {
		if err := validateLowStockThreshold(*input.LowStockThreshold); err != nil {
			return err
		}
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if input.ReorderQuantity != nil {
		if err := validateReorderQuantity(*input.ReorderQuantity); err != nil {
			return err
		}
		product.ReorderQuantity = *input.ReorderQuantity
	}
	if input.CategoryID != nil {
		product.CategoryID = *input.CategoryID
	}
	return nil
}

func validateName(raw string, max int, field string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	if len([]rune(name)) > max {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return name, nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	return nil
}

func validateLowStockThreshold(value int) error {
	if value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold must be non-negative")
	}
	return nil
}

func validateReorderQuantity(value int) error {
	if value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder_quantity must be non-negative")
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Persistence(err, op)
}

var _ txRunner = (*db.Client)(nil)
