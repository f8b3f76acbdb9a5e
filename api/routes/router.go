package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sangambaral17/TradeMaster/api/controllers"
	"github.com/sangambaral17/TradeMaster/api/middleware"
	"github.com/sangambaral17/TradeMaster/internal/cart"
	"github.com/sangambaral17/TradeMaster/internal/catalog"
	"github.com/sangambaral17/TradeMaster/internal/checkout"
	"github.com/sangambaral17/TradeMaster/internal/customers"
	"github.com/sangambaral17/TradeMaster/internal/inventory"
	"github.com/sangambaral17/TradeMaster/internal/reports"
	"github.com/sangambaral17/TradeMaster/internal/sales"
	"github.com/sangambaral17/TradeMaster/pkg/config"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
	pkgredis "github.com/sangambaral17/TradeMaster/pkg/redis"
)

// Services is everything the HTTP surface dispatches to.
type Services struct {
	Catalog   catalog.Service
	Customers customers.Service
	Sales     sales.Ledger
	Cart      cart.Service
	Checkout  checkout.Service
	Reports   reports.Service
	Inventory inventory.Service
}

// Infra carries the probes, stores and registries the router needs beyond the
// domain services. Idempotency and Gatherer may be nil.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Location    *time.Location
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	idempotent := func(h http.Handler) http.Handler { return h }
	if infra.Idempotency != nil {
		idempotent = middleware.Idempotency(infra.Idempotency, cfg.Redis.IdemTTL, logg)
	}
	clock := controllers.ReportClock{Location: infra.Location}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg,
			controllers.Dependency{Name: "postgres", Pinger: infra.DB},
			controllers.Dependency{Name: "redis", Pinger: infra.Redis},
		))
	})
	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(svc.Catalog, logg))
			r.Post("/", controllers.CreateCategory(svc.Catalog, logg))
			r.Get("/{id}", controllers.GetCategory(svc.Catalog, logg))
			r.Put("/{id}", controllers.UpdateCategory(svc.Catalog, logg))
			r.Delete("/{id}", controllers.DeleteCategory(svc.Catalog, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svc.Catalog, logg))
			r.With(idempotent).Post("/", controllers.CreateProduct(svc.Catalog, logg))
			r.Get("/{id}", controllers.GetProduct(svc.Catalog, logg))
			r.Put("/{id}", controllers.UpdateProduct(svc.Catalog, logg))
			r.Delete("/{id}", controllers.DeleteProduct(svc.Catalog, logg))
			r.With(idempotent).Patch("/{id}/stock", controllers.AdjustStock(svc.Catalog, logg))
			r.Patch("/{id}/threshold", controllers.UpdateThreshold(svc.Inventory, logg))
			r.Patch("/{id}/reorder-quantity", controllers.UpdateReorderQuantity(svc.Inventory, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(svc.Customers, logg))
			r.With(idempotent).Post("/", controllers.CreateCustomer(svc.Customers, logg))
			r.Get("/{id}", controllers.GetCustomer(svc.Customers, logg))
			r.Put("/{id}", controllers.UpdateCustomer(svc.Customers, logg))
			r.Delete("/{id}", controllers.DeleteCustomer(svc.Customers, logg))
			r.Get("/{id}/history", controllers.CustomerHistory(svc.Reports, logg))
		})

		r.Route("/carts/{session}", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svc.Cart, logg))
			r.Delete("/", controllers.ClearCart(svc.Cart, logg))
			r.Post("/lines", controllers.AddCartLine(svc.Cart, logg))
			r.Put("/lines/{productID}", controllers.SetCartLine(svc.Cart, logg))
			r.Delete("/lines/{productID}", controllers.RemoveCartLine(svc.Cart, logg))
			r.With(idempotent).Post("/checkout", controllers.CheckoutCart(svc.Cart, logg))
		})

		r.With(idempotent).Post("/checkout", controllers.Checkout(svc.Checkout, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(svc.Sales, infra.Location, logg))
			r.Get("/{id}", controllers.GetSale(svc.Sales, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", controllers.DailyReport(svc.Reports, clock, logg))
			r.Get("/weekly", controllers.WeeklyReport(svc.Reports, clock, logg))
			r.Get("/monthly", controllers.MonthlyReport(svc.Reports, clock, logg))
			r.Get("/range", controllers.RangeReport(svc.Reports, clock, logg))
			r.Get("/top-products", controllers.TopProducts(svc.Reports, clock, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/alerts", controllers.InventoryAlerts(svc.Inventory, logg))
			r.Get("/reorder-suggestions", controllers.ReorderSuggestions(svc.Inventory, logg))
			r.Get("/out-of-stock", controllers.OutOfStock(svc.Inventory, logg))
			r.Get("/low-stock-count", controllers.LowStockCount(svc.Inventory, logg))
		})
	})

	return r
}
