package persistence

import "github.com/mrops-br/product-catalog-api/internal/domain/specification"

// Evaluate applies spec to base and returns the resulting query.
//
// Steps run in a fixed order: read modes, predicate, ordering, includes and
// finally paging. Paging is skipped when ignorePaging is set so that counts
// and existence checks can reuse a paged specification. Evaluate has no side
// effects; base is never modified.
func Evaluate[T any](base Query[T], spec specification.Specification[T], ignorePaging bool) Query[T] {
	q := base

	if spec.AsNoTracking() {
		q = q.AsNoTracking()
	}
	if spec.AsSplitQuery() {
		q = q.AsSplitQuery()
	}

	if c := spec.Criteria(); !c.IsEmpty() {
		q = q.Where(c)
	}

	if asc := spec.OrderByField(); !asc.IsZero() {
		q = q.OrderBy(asc)
	} else if desc := spec.OrderByDescendingField(); !desc.IsZero() {
		q = q.OrderByDescending(desc)
	}

	for _, rel := range spec.Includes() {
		q = q.Include(rel.Name())
	}
	for _, path := range spec.IncludePaths() {
		q = q.Include(path)
	}

	if spec.IsPagingEnabled() && !ignorePaging {
		if skip, ok := spec.Skip(); ok {
			q = q.Skip(skip)
		}
		if take, ok := spec.Take(); ok {
			q = q.Take(take)
		}
	}

	return q
}
