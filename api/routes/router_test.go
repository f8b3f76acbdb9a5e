package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sangambaral17/TradeMaster/internal/checkout"
	"github.com/sangambaral17/TradeMaster/internal/inventory"
	"github.com/sangambaral17/TradeMaster/pkg/config"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type countingCheckout struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCheckout) Commit(ctx context.Context, req checkout.Request) (*models.Sale, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &models.Sale{ID: int64(c.calls)}, nil
}

type stubInventory struct {
	inventory.Service
}

func (stubInventory) LowStockCount(context.Context) (int, error) {
	return 2, nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = toString(value)
	return true, nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = toString(value)
	return nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Env: "test", CORSOrigins: []string{"https://till.example.com"}},
		Redis: config.RedisConfig{IdemTTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, svc Services, idem *memoryIdempotency) http.Handler {
	t.Helper()
	infra := Infra{
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Gatherer: prometheus.NewRegistry(),
		Location: time.UTC,
	}
	if idem != nil {
		infra.Idempotency = idem
	}
	return NewRouter(testConfig(), logger.Nop(), infra, svc)
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, Services{}, nil)
	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(t, Services{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "till-7-0001")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Request-Id"); got != "till-7-0001" {
		t.Fatalf("unexpected request id %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, Services{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "https://till.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://till.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestInventoryRoute(t *testing.T) {
	router := newTestRouter(t, Services{Inventory: stubInventory{}}, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/low-stock-count", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"low_stock_count":2`) {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutReplaysDuplicateIdempotencyKey(t *testing.T) {
	svc := &countingCheckout{}
	router := newTestRouter(t, Services{Checkout: svc}, &memoryIdempotency{data: map[string]string{}})
	body := `{"lines":[{"product_id":1,"quantity":1}]}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "till-1-0001")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusCreated || second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay, got %d %v", second.Code, second.Header())
	}
	if svc.calls != 1 {
		t.Fatalf("expected one commit, got %d", svc.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %s vs %s", first.Body.String(), second.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t, Services{}, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
