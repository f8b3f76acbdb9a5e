package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/internal/checkout/stock"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
	"github.com/sangambaral17/TradeMaster/pkg/metrics"
	"github.com/sangambaral17/TradeMaster/pkg/outbox"
	"github.com/sangambaral17/TradeMaster/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductLoader reads catalog rows inside the checkout transaction.
type ProductLoader interface {
	LoadProducts(ctx context.Context, tx *gorm.DB, ids []int64) ([]models.Product, error)
}

// CustomerLoader reads a customer inside the checkout transaction.
type CustomerLoader interface {
	LoadCustomer(ctx context.Context, tx *gorm.DB, id int64) (*models.Customer, error)
}

type ledgerAppender interface {
	Append(ctx context.Context, tx *gorm.DB, sale *models.Sale) error
}

type stockDecrementer interface {
	Decrement(ctx context.Context, tx *gorm.DB, requests []stock.Request, allowNegative bool) ([]stock.Result, error)
}

type stockEngine struct{}

func (stockEngine) Decrement(ctx context.Context, tx *gorm.DB, requests []stock.Request, allowNegative bool) ([]stock.Result, error) {
	return stock.Decrement(ctx, tx, requests, allowNegative)
}

// Service turns cart lines into a committed sale.
type Service interface {
	Commit(ctx context.Context, req Request) (*models.Sale, error)
}

// Line is one requested product. UnitPrice carries the cart's price snapshot;
// when nil the current catalog price is used.
type Line struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

// Request is everything a checkout needs.
type Request struct {
	Lines         []Line
	PaymentMethod enums.PaymentMethod
	CustomerID    *int64
}

// Options tunes checkout behaviour.
type Options struct {
	StockPolicy          enums.StockPolicy
	DefaultPaymentMethod enums.PaymentMethod
}

type service struct {
	tx        txRunner
	products  ProductLoader
	customers CustomerLoader
	ledger    ledgerAppender
	events    outbox.Emitter
	stock     stockDecrementer
	opts      Options
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout coordinator. metrics may be nil.
func NewService(
	tx txRunner,
	products ProductLoader,
	customers CustomerLoader,
	ledger ledgerAppender,
	events outbox.Emitter,
	opts Options,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("sales ledger required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if opts.StockPolicy == "" {
		opts.StockPolicy = enums.StockPolicyReject
	}
	if !opts.StockPolicy.IsValid() {
		return nil, fmt.Errorf("invalid stock policy %q", opts.StockPolicy)
	}
	if opts.DefaultPaymentMethod == "" {
		opts.DefaultPaymentMethod = enums.PaymentMethodCash
	}
	if !opts.DefaultPaymentMethod.IsValid() {
		return nil, fmt.Errorf("invalid default payment method %q", opts.DefaultPaymentMethod)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:        tx,
		products:  products,
		customers: customers,
		ledger:    ledger,
		events:    events,
		stock:     stockEngine{},
		opts:      opts,
		metrics:   checkoutMetrics,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Commit validates req and then, in one transaction, appends the sale and
// decrements stock. Any failure leaves ledger and catalog untouched.
func (s *service) Commit(ctx context.Context, req Request) (*models.Sale, error) {
	started := time.Now()
	sale, err := s.commit(ctx, req)

	units := 0
	if sale != nil {
		units = sale.ItemCount()
	}
	s.metrics.Observe(resultLabel(err), time.Since(started), units)

	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"line_count":  len(req.Lines),
			"customer_id": req.CustomerID,
		})
		if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodePersistence && typed.Code() != pkgerrors.CodeInternal {
			s.logg.Warn(logCtx, fmt.Sprintf("checkout rejected: %s", typed.Message()))
		} else {
			s.logg.Error(logCtx, "checkout failed", err)
		}
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id":      sale.ID,
		"item_count":   units,
		"total_amount": sale.TotalAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, "checkout.committed")
	return sale, nil
}

func (s *service) commit(ctx context.Context, req Request) (*models.Sale, error) {
	method, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	var sale *models.Sale
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var customerName *string
		if req.CustomerID != nil {
			customer, err := s.customers.LoadCustomer(ctx, tx, *req.CustomerID)
			if err != nil {
				return err
			}
			name := customer.Name
			customerName = &name
		}

		products, err := s.loadProducts(ctx, tx, req.Lines)
		if err != nil {
			return err
		}

		items := make([]models.SaleItem, 0, len(req.Lines))
		requests := make([]stock.Request, 0, len(req.Lines))
		total := decimal.Zero
		for _, line := range req.Lines {
			product := products[line.ProductID]
			item := buildItem(line, product)
			total = total.Add(item.TotalPrice)
			items = append(items, item)
			requests = append(requests, stock.Request{ProductID: line.ProductID, Qty: line.Quantity})
		}

		candidate := &models.Sale{
			SaleDate:      s.now(),
			TotalAmount:   total,
			CustomerID:    req.CustomerID,
			CustomerName:  customerName,
			PaymentMethod: method,
			Items:         items,
		}
		if err := s.ledger.Append(ctx, tx, candidate); err != nil {
			return err
		}

		results, err := s.stock.Decrement(ctx, tx, requests, s.opts.StockPolicy.AllowsNegative())
		if err != nil {
			return err
		}

		if err := s.emitSaleCreated(ctx, tx, candidate, results); err != nil {
			return pkgerrors.Persistence(err, "queue sale_created event")
		}
		sale = candidate
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "commit checkout")
	}
	return sale, nil
}

func (s *service) validate(req Request) (enums.PaymentMethod, error) {
	if len(req.Lines) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for i, line := range req.Lines {
		if line.ProductID <= 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id is required", i+1))
		}
		if line.Quantity <= 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		if line.UnitPrice != nil && !line.UnitPrice.IsPositive() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price must be positive", i+1))
		}
	}
	if req.CustomerID != nil && *req.CustomerID <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is invalid")
	}

	method := req.PaymentMethod
	if method == "" {
		method = s.opts.DefaultPaymentMethod
	}
	if !method.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", method))
	}
	return method, nil
}

func (s *service) loadProducts(ctx context.Context, tx *gorm.DB, lines []Line) (map[int64]*models.Product, error) {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows, err := s.products.LoadProducts(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_ids": missing})
	}
	return byID, nil
}

func (s *service) emitSaleCreated(ctx context.Context, tx *gorm.DB, sale *models.Sale, results []stock.Result) error {
	after := make(map[int64]int, len(results))
	for _, res := range results {
		after[res.ProductID] = res.StockAfter
	}
	lines := make([]payloads.SaleLine, 0, len(sale.Items))
	for _, item := range sale.Items {
		lines = append(lines, payloads.SaleLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			StockAfter: after[item.ProductID],
		})
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleCreated,
		AggregateType: enums.AggregateSale,
		AggregateID:   outbox.AggregateID(sale.ID),
		Data: payloads.SaleCreatedEvent{
			SaleID:        sale.ID,
			SaleDate:      sale.SaleDate,
			TotalAmount:   sale.TotalAmount,
			CustomerID:    sale.CustomerID,
			PaymentMethod: sale.PaymentMethod,
			Lines:         lines,
		},
		Version:    1,
		OccurredAt: sale.SaleDate,
	})
}

func buildItem(line Line, product *models.Product) models.SaleItem {
	unit := product.Price
	if line.UnitPrice != nil {
		unit = *line.UnitPrice
	}
	unit = unit.Round(2)
	return models.SaleItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    line.Quantity,
		UnitPrice:   unit,
		TotalPrice:  unit.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.CheckoutResultCommitted
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.CheckoutResultInvalid
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return metrics.CheckoutResultNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeConsistency):
		return metrics.CheckoutResultInsufficient
	default:
		return metrics.CheckoutResultFailed
	}
}
