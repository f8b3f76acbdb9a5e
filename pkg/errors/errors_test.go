package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConsistency, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodePersistence, status: http.StatusServiceUnavailable, publicMsg: "storage unavailable", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "cart is empty")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "cart is empty" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "lines"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestPersistenceKeepsTypedErrors(t *testing.T) {
	notFound := New(CodeNotFound, "product not found")
	if got := Persistence(fmt.Errorf("load: %w", notFound), "load product"); !IsCode(got, CodeNotFound) {
		t.Fatalf("expected not found to survive, got %v", got)
	}

	raw := stdErrors.New("disk full")
	got := Persistence(raw, "insert sale")
	if !IsCode(got, CodePersistence) {
		t.Fatalf("expected persistence code, got %v", got)
	}
	if !stdErrors.Is(got, raw) {
		t.Fatalf("expected cause to be preserved")
	}
	if Persistence(nil, "noop") != nil {
		t.Fatalf("expected nil passthrough")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeConsistency, "stock below zero")
	wrapped := fmt.Errorf("checkout: %w", err)
	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeConsistency {
		t.Fatalf("expected typed consistency error, got %v", typed)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("expected nil for untyped error")
	}
}

func TestDumpExtractsPgDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "sale_items_product_id_fkey", TableName: "sale_items"}
	err := Wrap(CodeConflict, pgErr, "product is referenced by sales")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.Driver != DriverPgx || d.DBCode != "23503" || d.DBConstraint != "sale_items_product_id_fkey" {
		t.Fatalf("unexpected pg detail %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two entries in chain, got %d", len(d.Chain))
	}
}

func TestDumpExtractsLibPqDetail(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "products_sku_key", Table: "products", Message: "duplicate key value"}
	d := Dump(fmt.Errorf("goose up: %w", pqErr))

	if d.Driver != DriverPq {
		t.Fatalf("expected pq driver, got %q", d.Driver)
	}
	if d.DBCode != "23505" || d.DBConstraint != "products_sku_key" || d.DBTable != "products" {
		t.Fatalf("unexpected pq detail %+v", d)
	}
	if d.Code != "" {
		t.Fatalf("expected no typed code, got %s", d.Code)
	}
}

func TestDumpExtractsSQLiteDetail(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:dump_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, sku TEXT NOT NULL UNIQUE)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := conn.Exec("INSERT INTO widgets (sku) VALUES ('ELEC-001')").Error; err != nil {
		t.Fatalf("seed row: %v", err)
	}
	dupErr := conn.Exec("INSERT INTO widgets (sku) VALUES ('ELEC-001')").Error
	if dupErr == nil {
		t.Fatal("expected unique violation")
	}

	d := Dump(Wrap(CodeConflict, dupErr, "sku already exists"))
	if d.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %+v", d)
	}
	if d.DBCode != "2067" {
		t.Fatalf("expected extended unique code 2067, got %q", d.DBCode)
	}
	if d.DBTable != "widgets" || d.DBColumn != "sku" {
		t.Fatalf("unexpected sqlite target %+v", d)
	}
}
