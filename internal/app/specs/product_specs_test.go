package specs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProductByID_Defaults(t *testing.T) {
	id := uuid.New()
	spec := ProductByID(id)

	clause, args := spec.Criteria().Build()
	assert.Equal(t, "(id = ? AND is_deleted = ?)", clause)
	assert.Equal(t, []any{id, false}, args)

	assert.True(t, spec.AsNoTracking())
	assert.True(t, spec.AsSplitQuery())
	assert.False(t, spec.IsPagingEnabled())
	assert.Empty(t, spec.Includes())
}

func TestProductByID_Options(t *testing.T) {
	id := uuid.New()
	spec := ProductByID(id, IncludeDeleted(), Tracked())

	clause, args := spec.Criteria().Build()
	assert.Equal(t, "id = ?", clause)
	assert.Equal(t, []any{id}, args)
	assert.False(t, spec.AsNoTracking())
}

func TestProductsPage(t *testing.T) {
	spec := ProductsPage(40, 20)

	clause, _ := spec.Criteria().Build()
	assert.Equal(t, "is_deleted = ?", clause)
	assert.Equal(t, "create_date", spec.OrderByDescendingField().Name())
	assert.True(t, spec.IsPagingEnabled())
	skip, _ := spec.Skip()
	take, _ := spec.Take()
	assert.Equal(t, 40, skip)
	assert.Equal(t, 20, take)
	assert.True(t, spec.AsNoTracking())

	all := ProductsPage(0, 10, IncludeDeleted())
	assert.True(t, all.Criteria().IsEmpty())
}
