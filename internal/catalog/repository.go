package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/internal/repo"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *int64
	Search     string
	LowStock   bool
}

// Repository persists products and categories.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

func (r *Repository) FindProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductsByIDs returns the matching products ordered by id. Missing ids are simply absent.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.base.DB(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error
	return products, err
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.base.DB(ctx).Model(&models.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(sku, '')) LIKE ?", like, like)
	}
	if filter.LowStock {
		query = query.Where("stock_quantity <= low_stock_threshold")
	}

	var products []models.Product
	err := query.Order("name ASC").Order("id ASC").Find(&products).Error
	return products, err
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).Create(product).Error
}

// UpdateProduct writes the editable fields guarded by the version the caller
// read. It reports false when another writer got there first.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product, expectedVersion int64) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Updates(map[string]any{
			"name":                product.Name,
			"sku":                 product.SKU,
			"price":               product.Price,
			"currency":            product.Currency,
			"stock_quantity":      product.StockQuantity,
			"low_stock_threshold": product.LowStockThreshold,
			"reorder_quantity":    product.ReorderQuantity,
			"category_id":         product.CategoryID,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AdjustStock applies delta to stock_quantity in a single statement. Unless
// allowNegative is set the update only matches when the result stays >= 0.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int, allowNegative bool) (bool, error) {
	query := r.base.DB(ctx).Model(&models.Product{}).Where("id = ?", id)
	if !allowNegative && delta < 0 {
		query = query.Where("stock_quantity >= ?", -delta)
	}
	res := query.Updates(map[string]any{
		"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
		"version":        gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateProductColumn sets one column and bumps version, so editors holding
// an older version lose their UpdateProduct race instead of overwriting it.
func (r *Repository) UpdateProductColumn(ctx context.Context, id int64, column string, value any) (bool, error) {
	res := r.base.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
		column:    value,
		"version": gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	res := r.base.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountSaleReferences reports how many sale items point at the product.
func (r *Repository) CountSaleReferences(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.SaleItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.base.DB(ctx).Create(category).Error
}

func (r *Repository) FindCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.base.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.base.DB(ctx).Order("name ASC").Order("id ASC").Find(&categories).Error
	return categories, err
}

func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.base.DB(ctx).
		Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{"name": category.Name, "description": category.Description}).Error
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	res := r.base.DB(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) CountProductsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}
