package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

func productQuery() Query[*domain.Product] {
	return NewQuery[*domain.Product]("products", "id", "name")
}

func TestEvaluate_EmptySpecification(t *testing.T) {
	q := Evaluate(productQuery(), specification.New[*domain.Product](), false)

	sql, args := q.ToSelect(DialectSQLite)
	assert.Equal(t, "SELECT id, name FROM products", sql)
	assert.Empty(t, args)
	assert.False(t, q.IsNoTracking())
	assert.False(t, q.IsSplitQuery())
}

func TestEvaluate_FullSpecification(t *testing.T) {
	spec := specification.Matching(specification.Eq(domain.ProductFieldIsDeleted, false)).
		Where(specification.Gte(domain.ProductFieldStock, 3)).
		OrderByDescending(domain.ProductFieldCreateDate).
		Paginate(20, 10).
		NoTracking().
		SplitQuery()

	q := Evaluate(productQuery(), spec, false)

	sql, args := q.ToSelect(DialectPostgres)
	assert.Equal(t,
		"SELECT id, name FROM products WHERE (is_deleted = $1 AND stock >= $2) ORDER BY create_date DESC LIMIT $3 OFFSET $4",
		sql)
	assert.Equal(t, []any{false, 3, 10, 20}, args)
	assert.True(t, q.IsNoTracking())
	assert.True(t, q.IsSplitQuery())
}

func TestEvaluate_IgnorePaging(t *testing.T) {
	spec := specification.Matching(specification.Eq(domain.ProductFieldName, "Pen")).
		OrderBy(domain.ProductFieldName).
		Paginate(5, 5)

	q := Evaluate(productQuery(), spec, true)

	sql, args := q.ToSelect(DialectSQLite)
	assert.Equal(t, "SELECT id, name FROM products WHERE name = ? ORDER BY name ASC", sql)
	assert.Equal(t, []any{"Pen"}, args)

	count, countArgs := q.ToCount(DialectSQLite)
	assert.Equal(t, "SELECT COUNT(*) FROM products WHERE name = ?", count)
	assert.Equal(t, []any{"Pen"}, countArgs)

	exists, _ := q.ToExists(DialectSQLite)
	assert.Equal(t, "SELECT 1 FROM products WHERE name = ? LIMIT 1", exists)
}

func TestEvaluate_PagingOnlyWhenEnabled(t *testing.T) {
	q := Evaluate(productQuery(), specification.New[*domain.Product](), false)
	_, ok := q.TakeValue()
	assert.False(t, ok)

	q = Evaluate(productQuery(), specification.New[*domain.Product]().Paginate(0, 3), false)
	take, ok := q.TakeValue()
	assert.True(t, ok)
	assert.Equal(t, 3, take)
}

func TestEvaluate_IncludeOrder(t *testing.T) {
	spec := specification.New[*domain.Product]().
		IncludePath("supplier.address").
		Include(specification.NewRelation[*domain.Product]("supplier")).
		Include(specification.NewRelation[*domain.Product]("category"))

	q := Evaluate(productQuery(), spec, false)

	assert.Equal(t, []string{"supplier", "category", "supplier.address"}, q.Includes())
}

func TestEvaluate_DoesNotModifyBase(t *testing.T) {
	base := productQuery()
	spec := specification.Matching(specification.Eq(domain.ProductFieldName, "Pen")).
		Include(specification.NewRelation[*domain.Product]("supplier")).
		Paginate(1, 1).
		NoTracking()

	_ = Evaluate(base, spec, false)

	sql, args := base.ToSelect(DialectSQLite)
	assert.Equal(t, "SELECT id, name FROM products", sql)
	assert.Empty(t, args)
	assert.Empty(t, base.Includes())
	assert.False(t, base.IsNoTracking())
}

func TestEvaluate_Deterministic(t *testing.T) {
	spec := specification.Matching(specification.In(domain.ProductFieldStock, 1, 2, 3)).
		Or(specification.IsNull(domain.ProductFieldUpdateBy)).
		OrderBy(domain.ProductFieldName)

	first, firstArgs := Evaluate(productQuery(), spec, false).ToSelect(DialectMySQL)
	second, secondArgs := Evaluate(productQuery(), spec, false).ToSelect(DialectMySQL)

	assert.Equal(t, first, second)
	assert.Equal(t, firstArgs, secondArgs)
	assert.Equal(t, "SELECT id, name FROM products WHERE (stock IN (?, ?, ?) OR update_by IS NULL) ORDER BY name ASC", first)
}
