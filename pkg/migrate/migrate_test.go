package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/config"
)

func TestDialect(t *testing.T) {
	got, err := Dialect("postgres")
	require.NoError(t, err)
	require.Equal(t, "postgres", got)

	got, err = Dialect("SQLite")
	require.NoError(t, err)
	require.Equal(t, "sqlite3", got)

	_, err = Dialect("mysql")
	require.Error(t, err)
}

func TestValidateDirs(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		require.NoError(t, ValidateDir(DriverDir("migrations", driver)), driver)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestDialectsShipSameVersions(t *testing.T) {
	pg, err := filepath.Glob(filepath.Join("migrations", "postgres", "*.sql"))
	require.NoError(t, err)
	lite, err := filepath.Glob(filepath.Join("migrations", "sqlite", "*.sql"))
	require.NoError(t, err)

	require.Equal(t, len(pg), len(lite))
	for i := range pg {
		require.Equal(t, filepath.Base(pg[i]), filepath.Base(lite[i]))
	}
}

func TestSalesLedgerMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "postgres", "*_create_sales_ledger.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no sales ledger migration found")

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS sales",
		"total_amount NUMERIC(18,2) NOT NULL",
		"REFERENCES customers(id) ON DELETE SET NULL",
		"CREATE TABLE IF NOT EXISTS sale_items",
		"CHECK (quantity > 0)",
		"REFERENCES products(id) ON DELETE RESTRICT",
		"DROP TABLE IF EXISTS sale_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEmbeddedSQLiteMigrationsApply(t *testing.T) {
	dsn := "file:migrate_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Run(context.Background(), sqlDB, "sqlite", "", "up"))

	for _, table := range []string{"categories", "products", "customers", "sales", "sale_items", "outbox_events"} {
		require.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}

	require.NoError(t, MigrateToVersion(context.Background(), sqlDB, "sqlite", "", "20251204090000"))
	require.False(t, conn.Migrator().HasTable("sales"))
	require.True(t, conn.Migrator().HasTable("products"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Loyalty Points!")
	require.NoError(t, err)
	require.Regexp(t, `\d{14}_add_loyalty_points\.sql$`, path)
	require.NoError(t, ValidateDir(dir))
}

func TestSQLDriverName(t *testing.T) {
	got, err := SQLDriverName("postgres")
	require.NoError(t, err)
	require.Equal(t, "postgres", got)

	got, err = SQLDriverName("sqlite")
	require.NoError(t, err)
	require.Equal(t, "sqlite3", got)

	_, err = SQLDriverName("oracle")
	require.Error(t, err)
}

func TestOpenRunsMigrationsOnDedicatedConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	cfg := config.DBConfig{Driver: "sqlite", DSN: "file:" + path + "?_foreign_keys=on"}

	conn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, Run(context.Background(), conn, cfg.Driver, "", "up"))

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sale_items'").Scan(&count))
	require.Equal(t, 1, count)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "postgres"})
	require.Error(t, err)
}
