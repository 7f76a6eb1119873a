package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// RelationLoader fills a named relation on already materialized owners.
// It runs on the same querier as the root query.
type RelationLoader[T any] func(ctx context.Context, q Querier, d Dialect, owners []T) error

// Table maps an entity type onto a relational table.
type Table[T domain.Entity] struct {
	Name string
	// Columns lists every mapped column; the first one is the primary key.
	Columns []string
	Scan    func(Scanner) (T, error)
	// Values returns column values in Columns order.
	Values    func(T) []any
	Relations map[string]RelationLoader[T]
}

func (t Table[T]) key() string { return t.Columns[0] }

func (t Table[T]) baseQuery() Query[T] {
	return NewQuery[T](t.Name, t.Columns...)
}

// relations resolves include names to loaders, failing on unknown names.
func (t Table[T]) relations(names []string) ([]RelationLoader[T], error) {
	unknown := lo.Filter(names, func(name string, _ int) bool {
		_, ok := t.Relations[name]
		return !ok
	})
	if len(unknown) > 0 {
		return nil, errors.Wrapf(domain.ErrUnknownInclude, "%s: %s", t.Name, strings.Join(unknown, ", "))
	}
	return lo.Map(lo.Uniq(names), func(name string, _ int) RelationLoader[T] {
		return t.Relations[name]
	}), nil
}

func (t Table[T]) insertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(t.Columns, ", "), placeholders)
}

func (t Table[T]) updateSQL() string {
	sets := lo.Map(t.Columns[1:], func(col string, _ int) string { return col + " = ?" })
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", t.Name, strings.Join(sets, ", "), t.key())
}

func (t Table[T]) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.Name, t.key())
}

// statement renders the write for one staged change. Values are read at
// flush time, after audit stamping.
func (t Table[T]) statement(kind changeKind, entity T) (string, []any) {
	switch kind {
	case changeInsert:
		return t.insertSQL(), t.Values(entity)
	case changeUpdate:
		values := t.Values(entity)
		return t.updateSQL(), append(values[1:], values[0])
	default:
		return t.deleteSQL(), []any{entity.GetID()}
	}
}
