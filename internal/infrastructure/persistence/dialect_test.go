package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"sqlite", DialectSQLite},
		{"SQLite3", DialectSQLite},
		{"postgres", DialectPostgres},
		{" postgresql ", DialectPostgres},
		{"pgx", DialectPostgres},
		{"mysql", DialectMySQL},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDialect("oracle")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDatabaseDriver)
}

func TestDialect_DriverName(t *testing.T) {
	assert.Equal(t, "sqlite", DialectSQLite.DriverName())
	assert.Equal(t, "pgx", DialectPostgres.DriverName())
	assert.Equal(t, "mysql", DialectMySQL.DriverName())
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"

	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", DialectPostgres.Rebind(q))
	assert.Equal(t, q, DialectSQLite.Rebind(q))
	assert.Equal(t, q, DialectMySQL.Rebind(q))
}

func TestDialect_Paging(t *testing.T) {
	skip, take := 10, 5

	tail, args := DialectSQLite.paging(&skip, &take)
	assert.Equal(t, " LIMIT ? OFFSET ?", tail)
	assert.Equal(t, []any{5, 10}, args)

	tail, args = DialectPostgres.paging(nil, &take)
	assert.Equal(t, " LIMIT ?", tail)
	assert.Equal(t, []any{5}, args)

	tail, _ = DialectSQLite.paging(&skip, nil)
	assert.Equal(t, " LIMIT -1 OFFSET ?", tail)

	tail, _ = DialectPostgres.paging(&skip, nil)
	assert.Equal(t, " OFFSET ?", tail)

	tail, _ = DialectMySQL.paging(&skip, nil)
	assert.Equal(t, " LIMIT "+mysqlMaxLimit+" OFFSET ?", tail)

	tail, args = DialectMySQL.paging(nil, nil)
	assert.Empty(t, tail)
	assert.Nil(t, args)
}

func TestDialect_IsUniqueViolation(t *testing.T) {
	pgErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	myErr := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	assert.True(t, DialectPostgres.IsUniqueViolation(pgErr))
	assert.True(t, DialectMySQL.IsUniqueViolation(myErr))
	assert.True(t, DialectSQLite.IsUniqueViolation(errors.New("UNIQUE constraint failed: products.id")))

	assert.False(t, DialectPostgres.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, DialectMySQL.IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, DialectSQLite.IsUniqueViolation(nil))
}
