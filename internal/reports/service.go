package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
)

const (
	defaultTopProductsLimit = 10
	maxTopProductsLimit     = 100
)

type ledgerReader interface {
	Window(ctx context.Context, from, to time.Time) ([]models.Sale, error)
	ForCustomer(ctx context.Context, customerID int64) ([]models.Sale, error)
}

type customerLoader interface {
	Get(ctx context.Context, id int64) (*models.Customer, error)
}

// Service loads the relevant ledger window and hands it to the Engine.
type Service interface {
	Daily(ctx context.Context, date time.Time) (*DailyReport, error)
	Weekly(ctx context.Context, weekStart time.Time) (*WeeklyReport, error)
	Monthly(ctx context.Context, year int, month time.Month) (*MonthlyReport, error)
	Range(ctx context.Context, start, end time.Time) (*RangeReport, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	CustomerHistory(ctx context.Context, customerID int64) (*CustomerHistory, error)
}

type service struct {
	ledger    ledgerReader
	customers customerLoader
	engine    Engine
	logg      *logger.Logger
}

func NewService(ledger ledgerReader, customers customerLoader, loc *time.Location, logg *logger.Logger) (Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("sales ledger required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{ledger: ledger, customers: customers, engine: NewEngine(loc), logg: logg}, nil
}

func (s *service) Daily(ctx context.Context, date time.Time) (*DailyReport, error) {
	start := s.engine.StartOfDay(date)
	sales, err := s.window(ctx, "daily", start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	report := s.engine.Daily(sales, start)
	return &report, nil
}

func (s *service) Weekly(ctx context.Context, weekStart time.Time) (*WeeklyReport, error) {
	start := s.engine.StartOfDay(weekStart)
	sales, err := s.window(ctx, "weekly", start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}
	report := s.engine.Weekly(sales, start)
	return &report, nil
}

func (s *service) Monthly(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year is out of range")
	}
	start := s.engine.StartOfMonth(year, month)
	sales, err := s.window(ctx, "monthly", start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	report := s.engine.Monthly(sales, year, month)
	return &report, nil
}

func (s *service) Range(ctx context.Context, start, end time.Time) (*RangeReport, error) {
	from := s.engine.StartOfDay(start)
	last := s.engine.StartOfDay(end)
	if last.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	sales, err := s.window(ctx, "range", from, last.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	report := s.engine.Range(sales, from, last)
	return &report, nil
}

func (s *service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	if limit <= 0 {
		limit = defaultTopProductsLimit
	}
	if limit > maxTopProductsLimit {
		limit = maxTopProductsLimit
	}
	// window end is exclusive; nudge it so a sale stamped exactly at `to` counts
	sales, err := s.window(ctx, "top_products", from, to.Add(time.Nanosecond))
	if err != nil {
		return nil, err
	}
	return s.engine.TopProducts(sales, from, to, limit), nil
}

func (s *service) CustomerHistory(ctx context.Context, customerID int64) (*CustomerHistory, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	sales, err := s.ledger.ForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	history := s.engine.CustomerHistory(*customer, sales)
	return &history, nil
}

func (s *service) window(ctx context.Context, report string, from, to time.Time) ([]models.Sale, error) {
	sales, err := s.ledger.Window(ctx, from, to)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"report":     report,
		"from":       from,
		"to":         to,
		"sale_count": len(sales),
	})
	s.logg.Debug(logCtx, "report window loaded")
	return sales, nil
}
