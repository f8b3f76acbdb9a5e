package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// database/sql drivers goose runs against
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sangambaral17/TradeMaster/pkg/config"
)

// SQLDriverName returns the database/sql driver registered for the configured
// DB driver: lib/pq for postgres and go-sqlite3 for sqlite.
func SQLDriverName(driver string) (string, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return "", err
	}
	if dialect == "postgres" {
		return "postgres", nil
	}
	return "sqlite3", nil
}

// Open dials a single-connection handle for the migration CLI, separate from
// the application's gorm pool.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db dsn is required")
	}
	name, err := SQLDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	return conn, nil
}
