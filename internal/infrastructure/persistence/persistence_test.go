package persistence

import (
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// newTestDB returns a migrated sqlite database in a temp directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "catalog.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open(DialectSQLite.DriverName(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Migrate(t.Context(), db, DialectSQLite, discardLogger())
	require.NoError(t, err)
	return db
}

func newTestUnitOfWork(t *testing.T, db *sql.DB) *UnitOfWork {
	t.Helper()

	uow, err := NewUnitOfWork(db, DialectSQLite, WithClock(fixedClock), WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = uow.Close() })
	return uow
}

func newProduct(name string, price string, stock int) *domain.Product {
	return domain.NewProduct(name, decimal.RequireFromString(price), stock, time.Time{})
}

// seedProducts stores products through a separate unit of work.
func seedProducts(t *testing.T, db *sql.DB, products ...*domain.Product) {
	t.Helper()

	uow := newTestUnitOfWork(t, db)
	require.NoError(t, uow.Products().AddRange(products))
	n, err := uow.SaveChanges(t.Context())
	require.NoError(t, err)
	require.Equal(t, len(products), n)
}
