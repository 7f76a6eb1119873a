// Package specs holds the named product queries used by the use cases.
package specs

import (
	"github.com/google/uuid"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

// ProductSpec is a specification over products.
type ProductSpec = specification.Specification[*domain.Product]

type options struct {
	includeDeleted bool
	tracked        bool
}

// Option adjusts a product specification.
type Option func(*options)

// IncludeDeleted lifts the soft-delete filter.
func IncludeDeleted() Option {
	return func(o *options) { o.includeDeleted = true }
}

// Tracked reads products for modification within the same unit of work.
func Tracked() Option {
	return func(o *options) { o.tracked = true }
}

func apply(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func notDeleted() specification.Criteria[*domain.Product] {
	return specification.Eq(domain.ProductFieldIsDeleted, false)
}

// ProductByID matches one live product, read without tracking and with split
// loading unless options say otherwise.
func ProductByID(id uuid.UUID, opts ...Option) ProductSpec {
	o := apply(opts)

	spec := specification.Matching(specification.Eq(domain.ProductFieldID, id)).
		WhereIf(!o.includeDeleted, notDeleted()).
		SplitQuery()
	if !o.tracked {
		spec = spec.NoTracking()
	}
	return spec
}

// ProductsPage lists live products, newest first.
func ProductsPage(skip, take int, opts ...Option) ProductSpec {
	o := apply(opts)

	spec := specification.New[*domain.Product]().
		WhereIf(!o.includeDeleted, notDeleted()).
		OrderByDescending(domain.ProductFieldCreateDate).
		Paginate(skip, take)
	if !o.tracked {
		spec = spec.NoTracking()
	}
	return spec
}
