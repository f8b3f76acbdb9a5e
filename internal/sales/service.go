package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
	"github.com/sangambaral17/TradeMaster/pkg/pagination"
)

// Ledger is the append-only record of committed sales.
type Ledger interface {
	Append(ctx context.Context, tx *gorm.DB, sale *models.Sale) error
	Get(ctx context.Context, id int64) (*models.Sale, error)
	List(ctx context.Context, filter Filter) (*Page, error)
	History(ctx context.Context, from, to *time.Time) (*History, error)
	Window(ctx context.Context, from, to time.Time) ([]models.Sale, error)
	ForCustomer(ctx context.Context, customerID int64) ([]models.Sale, error)
}

// Filter narrows a paged ledger listing. From is inclusive, To exclusive.
type Filter struct {
	From       *time.Time
	To         *time.Time
	CustomerID *int64
	Limit      int
	Cursor     string
}

// Page is one slice of a newest-first listing.
type Page struct {
	Sales      []models.Sale
	NextCursor string
}

// History is an unpaged listing with its revenue total.
type History struct {
	Sales        []models.Sale
	TotalRevenue decimal.Decimal
}

type service struct {
	repo *Repository
}

func NewLedger(repo *Repository) (Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

// Append writes sale inside tx after checking the line and total invariants.
func (s *service) Append(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if err := CheckTotals(sale); err != nil {
		return err
	}
	if err := s.repo.WithTx(tx).Insert(ctx, sale); err != nil {
		return pkgerrors.Persistence(err, "append sale")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Persistence(err, "load sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, filter Filter) (*Page, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	rows, err := s.repo.ListNewestFirst(ctx, Query{
		From:       filter.From,
		To:         filter.To,
		CustomerID: filter.CustomerID,
		Cursor:     cursor,
		Limit:      limit + 1,
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list sales")
	}

	page := &Page{Sales: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		page.Sales = rows[:limit]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.SaleDate, ID: last.ID})
	}
	return page, nil
}

func (s *service) History(ctx context.Context, from, to *time.Time) (*History, error) {
	rows, err := s.repo.ListNewestFirst(ctx, Query{From: from, To: to})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load sales history")
	}
	total := decimal.Zero
	for _, sale := range rows {
		total = total.Add(sale.TotalAmount)
	}
	return &History{Sales: rows, TotalRevenue: total}, nil
}

// Window returns the sales in [from, to) oldest first, with items and customer.
func (s *service) Window(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	rows, err := s.repo.ListChronological(ctx, Query{From: &from, To: &to})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load sales window")
	}
	return rows, nil
}

func (s *service) ForCustomer(ctx context.Context, customerID int64) ([]models.Sale, error) {
	rows, err := s.repo.ListChronological(ctx, Query{CustomerID: &customerID})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load customer sales")
	}
	return rows, nil
}

// CheckTotals verifies every line total is quantity × unit price and that the
// sale total is their exact sum.
func CheckTotals(sale *models.Sale) error {
	if sale == nil || len(sale.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale must contain at least one item")
	}
	sum := decimal.Zero
	for _, item := range sale.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.TotalPrice.Equal(expected) {
			return pkgerrors.New(pkgerrors.CodeValidation, "item total does not match quantity and unit price")
		}
		sum = sum.Add(item.TotalPrice)
	}
	if !sale.TotalAmount.Equal(sum) {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale total does not match its items")
	}
	return nil
}
