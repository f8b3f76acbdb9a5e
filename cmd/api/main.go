package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/sangambaral17/TradeMaster/api/routes"
	"github.com/sangambaral17/TradeMaster/internal/cart"
	"github.com/sangambaral17/TradeMaster/internal/catalog"
	"github.com/sangambaral17/TradeMaster/internal/checkout"
	"github.com/sangambaral17/TradeMaster/internal/customers"
	"github.com/sangambaral17/TradeMaster/internal/inventory"
	"github.com/sangambaral17/TradeMaster/internal/reports"
	"github.com/sangambaral17/TradeMaster/internal/sales"
	"github.com/sangambaral17/TradeMaster/pkg/config"
	"github.com/sangambaral17/TradeMaster/pkg/db"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
	"github.com/sangambaral17/TradeMaster/pkg/metrics"
	"github.com/sangambaral17/TradeMaster/pkg/migrate"
	"github.com/sangambaral17/TradeMaster/pkg/outbox"
	"github.com/sangambaral17/TradeMaster/pkg/redis"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 5 * time.Second
	cartEventBuffer   = 64
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	bootCtx := context.Background()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	stockPolicy, err := enums.ParseStockPolicy(cfg.Checkout.StockPolicy)
	if err != nil {
		return err
	}
	defaultMethod, err := enums.ParsePaymentMethod(cfg.Checkout.DefaultPaymentMethod)
	if err != nil {
		return err
	}

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}
	if cfg.App.SeedOnStart {
		seeded, err := db.Seed(bootCtx, dbClient)
		if err != nil {
			return err
		}
		if seeded {
			logg.Info(bootCtx, "starter catalog seeded")
		}
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, dbClient, events, stockPolicy, logg)
	if err != nil {
		return err
	}

	customerRepo := customers.NewRepository(dbClient.DB())
	customerService, err := customers.NewService(customerRepo, dbClient)
	if err != nil {
		return err
	}

	ledger, err := sales.NewLedger(sales.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		checkout.CatalogProducts(catalogRepo),
		checkout.DirectoryCustomers(customerRepo),
		ledger,
		events,
		checkout.Options{StockPolicy: stockPolicy, DefaultPaymentMethod: defaultMethod},
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		return err
	}

	var cartStore cart.Store = cart.NewMemoryStore()
	if cfg.FeatureFlags.RedisCarts() {
		redisStore, err := cart.NewRedisStore(redisClient, cfg.Redis.CartTTL)
		if err != nil {
			return err
		}
		cartStore = redisStore
	}
	notifier := cart.NewNotifier(cartEventBuffer)
	cartService, err := cart.NewService(cartStore, catalogService, checkoutService, notifier, logg)
	if err != nil {
		return err
	}

	reportService, err := reports.NewService(ledger, customerService, loc, logg)
	if err != nil {
		return err
	}
	inventoryService, err := inventory.NewService(catalogService, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    prometheus.DefaultGatherer,
		Location:    loc,
	}, routes.Services{
		Catalog:   catalogService,
		Customers: customerService,
		Sales:     ledger,
		Cart:      cartService,
		Checkout:  checkoutService,
		Reports:   reportService,
		Inventory: inventoryService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       server.Addr,
		"cart_store": cfg.FeatureFlags.CartStore,
		"timezone":   loc.String(),
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(groupCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return notifier.Run(groupCtx)
	})
	group.Go(func() error {
		logCartEvents(groupCtx, logg, notifier)
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	logg.Info(ctx, "api server stopped gracefully")
	return nil
}

// logCartEvents mirrors cart activity into the structured log until the
// notifier closes.
func logCartEvents(ctx context.Context, logg *logger.Logger, notifier *cart.Notifier) {
	updates, cancel := notifier.Subscribe(ctx)
	defer cancel()
	for event := range updates {
		fields := map[string]any{
			"cart_session": event.SessionID,
			"cart_event":   event.Kind,
			"item_count":   event.Cart.ItemCount,
			"total":        event.Cart.Total.StringFixed(2),
		}
		if event.SaleID != nil {
			fields["sale_id"] = *event.SaleID
		}
		logg.Debug(logg.WithFields(ctx, fields), "cart.event")
	}
	if dropped := notifier.Dropped(); dropped > 0 {
		logg.Warn(logg.WithField(ctx, "dropped", dropped), "cart events dropped for slow subscribers")
	}
}
