package persistence

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
)

// Dialect is the SQL flavor of the connected database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// mysqlMaxLimit is the documented way to express an unbounded LIMIT in MySQL.
const mysqlMaxLimit = "18446744073709551615"

// ParseDialect maps a configured driver name to its dialect, case-insensitively.
func ParseDialect(name string) (Dialect, error) {
	driver, ok := config.CanonicalDriver(name)
	if !ok {
		return "", domain.ErrUnsupportedDatabaseDriver
	}
	return Dialect(driver), nil
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	default:
		return string(d)
	}
}

// Rebind converts '?' placeholders to the dialect's form. Only postgres
// differs, using $1, $2 and so on. Placeholders inside string literals are
// not recognized, so callers must pass values as arguments.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres || query == "" {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// paging renders the LIMIT/OFFSET tail. Either bound may be absent.
func (d Dialect) paging(skip, take *int) (string, []any) {
	switch {
	case skip == nil && take == nil:
		return "", nil
	case skip == nil:
		return " LIMIT ?", []any{*take}
	case take != nil:
		return " LIMIT ? OFFSET ?", []any{*take, *skip}
	}

	switch d {
	case DialectSQLite:
		return " LIMIT -1 OFFSET ?", []any{*skip}
	case DialectMySQL:
		return " LIMIT " + mysqlMaxLimit + " OFFSET ?", []any{*skip}
	default:
		return " OFFSET ?", []any{*skip}
	}
}

// IsUniqueViolation reports whether err is a primary key or unique constraint conflict.
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
