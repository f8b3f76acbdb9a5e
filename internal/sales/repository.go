package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/internal/repo"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/pagination"
)

// Query selects ledger rows. From is inclusive, To exclusive; both optional.
type Query struct {
	From       *time.Time
	To         *time.Time
	CustomerID *int64
	Cursor     *pagination.Cursor
	Limit      int
}

// Repository reads and appends ledger rows.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// Insert writes the sale and its items. The customer association is never upserted.
func (r *Repository) Insert(ctx context.Context, sale *models.Sale) error {
	return r.base.DB(ctx).Omit("Customer").Create(sale).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := r.withDetails(r.base.DB(ctx)).First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListNewestFirst orders by sale_date DESC, id DESC and honours the cursor.
func (r *Repository) ListNewestFirst(ctx context.Context, q Query) ([]models.Sale, error) {
	query := r.filtered(r.base.DB(ctx), q)
	if q.Cursor != nil {
		query = query.Where("(sale_date < ?) OR (sale_date = ? AND id < ?)", q.Cursor.At, q.Cursor.At, q.Cursor.ID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var sales []models.Sale
	err := r.withDetails(query).Order("sale_date DESC").Order("id DESC").Find(&sales).Error
	return sales, err
}

// ListChronological returns every matching sale oldest first.
func (r *Repository) ListChronological(ctx context.Context, q Query) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.withDetails(r.filtered(r.base.DB(ctx), q)).
		Order("sale_date ASC").
		Order("id ASC").
		Find(&sales).Error
	return sales, err
}

func (r *Repository) filtered(query *gorm.DB, q Query) *gorm.DB {
	if q.From != nil {
		query = query.Where("sale_date >= ?", q.From.UTC())
	}
	if q.To != nil {
		query = query.Where("sale_date < ?", q.To.UTC())
	}
	if q.CustomerID != nil {
		query = query.Where("customer_id = ?", *q.CustomerID)
	}
	return query
}

func (r *Repository) withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Customer")
}
