package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/internal/inventory"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
	"github.com/sangambaral17/TradeMaster/pkg/outbox"
	"github.com/sangambaral17/TradeMaster/pkg/outbox/payloads"
)

const (
	lowStockJobName       = "low-stock-scan"
	defaultAlertCooldown  = 24 * time.Hour
	lowStockCooldownScope = "low-stock-alert"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type suggestionSource interface {
	ReorderSuggestions(ctx context.Context) ([]inventory.ReorderSuggestion, error)
}

// alertCooldown remembers which (product, severity) pairs were announced recently.
type alertCooldown interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// LowStockJobParams configure the scan. Cooldown is optional; without it every
// scan re-emits every alert.
type LowStockJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Inventory   suggestionSource
	Events      outbox.Emitter
	Cooldown    alertCooldown
	CooldownTTL time.Duration
}

// NewLowStockJob builds the job that turns current stock alerts into
// low_stock_alert outbox events.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	ttl := params.CooldownTTL
	if ttl <= 0 {
		ttl = defaultAlertCooldown
	}
	return &lowStockJob{
		logg:      params.Logger,
		db:        params.DB,
		inventory: params.Inventory,
		events:    params.Events,
		cooldown:  params.Cooldown,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	db        txRunner
	inventory suggestionSource
	events    outbox.Emitter
	cooldown  alertCooldown
	ttl       time.Duration
	now       func() time.Time
}

func (j *lowStockJob) Name() string { return lowStockJobName }

// Run emits one event per alerting product, each in its own transaction, and
// keeps going past individual failures.
func (j *lowStockJob) Run(ctx context.Context) error {
	suggestions, err := j.inventory.ReorderSuggestions(ctx)
	if err != nil {
		return fmt.Errorf("load low stock alerts: %w", err)
	}

	var (
		errs                error
		emitted, suppressed int
	)
	for _, suggestion := range suggestions {
		fresh, key, err := j.claim(ctx, suggestion)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !fresh {
			suppressed++
			continue
		}
		if err := j.emit(ctx, suggestion); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %d: %w", suggestion.ProductID, err))
			j.unclaim(ctx, key)
			continue
		}
		emitted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"alerts":     len(suggestions),
		"emitted":    emitted,
		"suppressed": suppressed,
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}

func (j *lowStockJob) claim(ctx context.Context, suggestion inventory.ReorderSuggestion) (bool, string, error) {
	if j.cooldown == nil {
		return true, "", nil
	}
	key := j.cooldown.IdempotencyKey(lowStockCooldownScope, fmt.Sprintf("%d:%s", suggestion.ProductID, suggestion.Priority))
	ok, err := j.cooldown.SetNX(ctx, key, j.now().UTC().Format(time.RFC3339), j.ttl)
	if err != nil {
		return false, "", fmt.Errorf("claim alert cooldown for product %d: %w", suggestion.ProductID, err)
	}
	return ok, key, nil
}

// unclaim lets the next scan retry a product whose event was not written.
func (j *lowStockJob) unclaim(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := j.cooldown.Del(ctx, key); err != nil {
		j.logg.Warn(j.logg.WithField(ctx, "key", key), "failed to clear alert cooldown")
	}
}

func (j *lowStockJob) emit(ctx context.Context, suggestion inventory.ReorderSuggestion) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLowStockAlert,
			AggregateType: enums.AggregateProduct,
			AggregateID:   outbox.AggregateID(suggestion.ProductID),
			OccurredAt:    j.now().UTC(),
			Data: payloads.LowStockAlertEvent{
				ProductID:       suggestion.ProductID,
				ProductName:     suggestion.ProductName,
				CurrentStock:    suggestion.CurrentStock,
				Threshold:       suggestion.Threshold,
				ReorderQuantity: suggestion.ReorderQuantity,
				Severity:        suggestion.Priority,
				EstimatedCost:   suggestion.EstimatedCost,
			},
		})
	})
}
