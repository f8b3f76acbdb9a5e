package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sangambaral17/TradeMaster/internal/checkout"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
)

const (
	maxSessionIDLength = 128
	sessionLockStripes = 64
)

type productLoader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type committer interface {
	Commit(ctx context.Context, req checkout.Request) (*models.Sale, error)
}

// Service manages per-session carts and hands them to checkout.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Summary, error)
	Add(ctx context.Context, sessionID string, productID int64, quantity int) (*Summary, error)
	SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*Summary, error)
	Remove(ctx context.Context, sessionID string, productID int64) (*Summary, error)
	Clear(ctx context.Context, sessionID string) error
	Checkout(ctx context.Context, sessionID string, input CheckoutInput) (*models.Sale, error)
}

// CheckoutInput carries the tender details for a cart checkout.
type CheckoutInput struct {
	PaymentMethod enums.PaymentMethod
	CustomerID    *int64
}

type service struct {
	store    Store
	products productLoader
	checkout committer
	notifier *Notifier
	logg     *logger.Logger
	now      func() time.Time

	// fixed stripe set; sessions sharing a stripe just serialize
	locks [sessionLockStripes]sync.Mutex
}

// NewService builds the cart service. notifier may be nil when nobody listens.
func NewService(store Store, products productLoader, checkout committer, notifier *Notifier, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:    store,
		products: products,
		checkout: checkout,
		notifier: notifier,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Summary, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	summary := Summarize(cart)
	return &summary, nil
}

// Add puts quantity units of the product in the cart. Adding a product already
// present raises its quantity and keeps the original price snapshot.
func (s *service) Add(ctx context.Context, sessionID string, productID int64, quantity int) (*Summary, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, enums.CartEventLineAdded, func(cart *Cart) error {
		if idx := cart.find(productID); idx >= 0 {
			cart.Lines[idx].Quantity += quantity
			return nil
		}
		cart.Lines = append(cart.Lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			UnitPrice:   product.Price,
			Quantity:    quantity,
		})
		return nil
	})
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
func (s *service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*Summary, error) {
	if quantity <= 0 {
		return s.Remove(ctx, sessionID, productID)
	}
	return s.mutate(ctx, sessionID, enums.CartEventQuantityChanged, func(cart *Cart) error {
		idx := cart.find(productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		cart.Lines[idx].Quantity = quantity
		return nil
	})
}

func (s *service) Remove(ctx context.Context, sessionID string, productID int64) (*Summary, error) {
	return s.mutate(ctx, sessionID, enums.CartEventLineRemoved, func(cart *Cart) error {
		if !cart.remove(productID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	unlock := s.lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.publish(enums.CartEventCleared, Summarize(&Cart{SessionID: sessionID, UpdatedAt: s.now()}), nil)
	return nil
}

// Checkout commits the cart as a sale and empties it. On failure the cart is left as it was.
func (s *service) Checkout(ctx context.Context, sessionID string, input CheckoutInput) (*models.Sale, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	unlock := s.lock(sessionID)
	defer unlock()

	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]checkout.Line, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		price := line.UnitPrice
		lines = append(lines, checkout.Line{ProductID: line.ProductID, Quantity: line.Quantity, UnitPrice: &price})
	}
	sale, err := s.checkout.Commit(ctx, checkout.Request{
		Lines:         lines,
		PaymentMethod: input.PaymentMethod,
		CustomerID:    input.CustomerID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		// sale already committed; the till can clear the stale cart itself
		logCtx := s.logg.WithField(s.logg.WithSessionID(ctx, sessionID), "sale_id", sale.ID)
		s.logg.Error(logCtx, "failed to clear cart after checkout", err)
	}
	s.publish(enums.CartEventCheckedOut, Summarize(&Cart{SessionID: sessionID, UpdatedAt: s.now()}), &sale.ID)
	return sale, nil
}

func (s *service) mutate(ctx context.Context, sessionID string, kind enums.CartEventKind, fn func(cart *Cart) error) (*Summary, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	unlock := s.lock(sessionID)
	defer unlock()

	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	cart.UpdatedAt = s.now()
	if len(cart.Lines) == 0 {
		err = s.store.Delete(ctx, sessionID)
	} else {
		err = s.store.Save(ctx, cart)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	summary := Summarize(cart)
	s.publish(kind, summary, nil)
	return &summary, nil
}

// lock serializes read-modify-write cycles on one session within this process.
func (s *service) lock(sessionID string) func() {
	mu := &s.locks[lockStripe(sessionID)]
	mu.Lock()
	return mu.Unlock
}

func lockStripe(sessionID string) uint64 {
	return xxhash.Sum64String(sessionID) % sessionLockStripes
}

func (s *service) publish(kind enums.CartEventKind, summary Summary, saleID *int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(Event{
		SessionID: summary.SessionID,
		Kind:      kind,
		Cart:      summary,
		SaleID:    saleID,
		At:        s.now(),
	})
}

func validateSession(sessionID string) error {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if trimmed != sessionID || len(sessionID) > maxSessionIDLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is invalid")
	}
	return nil
}
