package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
)

type lineBody struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":1,"quantity":0}`))
	var body lineBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok || details["quantity"] == "" {
		t.Fatalf("expected quantity detail, got %v", pkgerrors.As(err).Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":1,"quantity":1,"price":"0.01"}`))
	var body lineBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryDate(t *testing.T) {
	loc := time.FixedZone("NPT", 5*3600+45*60)
	req := httptest.NewRequest(http.MethodGet, "/?date=2025-03-10&bad=10/03/2025", nil)

	got, err := ParseQueryDate(req, "date", loc, time.Time{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected date %s", got)
	}
	if _, err := ParseQueryDate(req, "bad", loc, time.Time{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got, _ := ParseQueryDate(req, "missing", loc, fallback); !got.Equal(fallback) {
		t.Fatalf("expected fallback, got %s", got)
	}
}

func TestParseIDParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/12", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", "12")
	rc.URLParams.Add("bad", "-4")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	if id, err := ParseIDParam(req, "id"); err != nil || id != 12 {
		t.Fatalf("expected 12, got %d (%v)", id, err)
	}
	if _, err := ParseIDParam(req, "bad"); err == nil {
		t.Fatalf("expected error for negative id")
	}
}

func TestSanitizeStringIsRuneSafe(t *testing.T) {
	if got := SanitizeString("  चामल  ", 2); got != "चा" {
		t.Fatalf("unexpected %q", got)
	}
}
