package persistence

import (
	"slices"
	"strings"

	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

// Query is an immutable description of a read against one table. Every
// method returns a modified copy, so a base query can be shared freely.
type Query[T any] struct {
	table   string
	columns []string

	noTracking bool
	splitQuery bool

	where      specification.Criteria[T]
	orderBy    string
	descending bool
	includes   []string

	skip *int
	take *int
}

// NewQuery starts a query selecting columns from table.
func NewQuery[T any](table string, columns ...string) Query[T] {
	return Query[T]{table: table, columns: slices.Clone(columns)}
}

func (q Query[T]) AsNoTracking() Query[T] {
	q.noTracking = true
	return q
}

func (q Query[T]) AsSplitQuery() Query[T] {
	q.splitQuery = true
	return q
}

// Where narrows the query with AND.
func (q Query[T]) Where(c specification.Criteria[T]) Query[T] {
	q.where = specification.And(q.where, c)
	return q
}

func (q Query[T]) OrderBy(field specification.Field[T]) Query[T] {
	q.orderBy = field.Name()
	q.descending = false
	return q
}

func (q Query[T]) OrderByDescending(field specification.Field[T]) Query[T] {
	q.orderBy = field.Name()
	q.descending = true
	return q
}

// Include requests a named relation to be loaded with the results.
func (q Query[T]) Include(name string) Query[T] {
	q.includes = append(slices.Clip(q.includes), name)
	return q
}

func (q Query[T]) Skip(n int) Query[T] {
	q.skip = &n
	return q
}

func (q Query[T]) Take(n int) Query[T] {
	q.take = &n
	return q
}

func (q Query[T]) IsNoTracking() bool { return q.noTracking }
func (q Query[T]) IsSplitQuery() bool { return q.splitQuery }
func (q Query[T]) Includes() []string { return slices.Clone(q.includes) }

// TakeValue returns the row limit, if any.
func (q Query[T]) TakeValue() (int, bool) {
	if q.take == nil {
		return 0, false
	}
	return *q.take, true
}

// ToSelect renders the row query for dialect d.
func (q Query[T]) ToSelect(d Dialect) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(q.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(q.table)

	args := q.writeWhere(&sb)

	if q.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.orderBy)
		if q.descending {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}

	tail, pageArgs := d.paging(q.skip, q.take)
	sb.WriteString(tail)
	args = append(args, pageArgs...)

	return d.Rebind(sb.String()), args
}

// ToCount renders a row count. Ordering and paging do not affect a count.
func (q Query[T]) ToCount(d Dialect) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(q.table)
	args := q.writeWhere(&sb)
	return d.Rebind(sb.String()), args
}

// ToExists renders a query returning at most one row when anything matches.
func (q Query[T]) ToExists(d Dialect) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT 1 FROM ")
	sb.WriteString(q.table)
	args := q.writeWhere(&sb)
	sb.WriteString(" LIMIT 1")
	return d.Rebind(sb.String()), args
}

func (q Query[T]) writeWhere(sb *strings.Builder) []any {
	clause, args := q.where.Build()
	if clause == "" {
		return nil
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(clause)
	return args
}
