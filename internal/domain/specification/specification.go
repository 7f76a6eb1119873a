package specification

import "slices"

// Specification describes a read over entity T.
//
// Specifications are values: every method has a value receiver and returns a
// new specification, so one instance can be shared between callers without
// any of them observing another's composition.
type Specification[T any] struct {
	criteria     Criteria[T]
	includes     []Relation[T]
	includePaths []string

	orderBy           Field[T]
	orderByDescending Field[T]

	skip          *int
	take          *int
	pagingEnabled bool

	asNoTracking bool
	asSplitQuery bool
}

// New returns a specification matching every entity.
func New[T any]() Specification[T] {
	return Specification[T]{}
}

// Matching returns a specification filtered by criteria.
func Matching[T any](criteria Criteria[T]) Specification[T] {
	return Specification[T]{criteria: criteria}
}

// Where narrows the predicate with AND.
func (s Specification[T]) Where(c Criteria[T]) Specification[T] {
	s.criteria = And(s.criteria, c)
	return s
}

// Or widens the predicate with OR.
func (s Specification[T]) Or(c Criteria[T]) Specification[T] {
	s.criteria = Or(s.criteria, c)
	return s
}

// WhereIf applies Where only when cond holds.
func (s Specification[T]) WhereIf(cond bool, c Criteria[T]) Specification[T] {
	if !cond {
		return s
	}
	return s.Where(c)
}

// OrIf applies Or only when cond holds.
func (s Specification[T]) OrIf(cond bool, c Criteria[T]) Specification[T] {
	if !cond {
		return s
	}
	return s.Or(c)
}

// ResetCriteria drops the predicate.
func (s Specification[T]) ResetCriteria() Specification[T] {
	s.criteria = Criteria[T]{}
	return s
}

// Include loads a relation together with the root entities.
func (s Specification[T]) Include(rel Relation[T]) Specification[T] {
	s.includes = append(slices.Clip(s.includes), rel)
	return s
}

// IncludePath loads a relation addressed by name.
func (s Specification[T]) IncludePath(path string) Specification[T] {
	s.includePaths = append(slices.Clip(s.includePaths), path)
	return s
}

// OrderBy sorts ascending by field and clears any descending rule.
func (s Specification[T]) OrderBy(field Field[T]) Specification[T] {
	s.orderBy = field
	s.orderByDescending = Field[T]{}
	return s
}

// OrderByDescending sorts descending by field and clears any ascending rule.
func (s Specification[T]) OrderByDescending(field Field[T]) Specification[T] {
	s.orderByDescending = field
	s.orderBy = Field[T]{}
	return s
}

// Paginate enables paging. Negative values are clamped to zero.
func (s Specification[T]) Paginate(skip, take int) Specification[T] {
	skip, take = max(skip, 0), max(take, 0)
	s.skip = &skip
	s.take = &take
	s.pagingEnabled = true
	return s
}

// NoTracking reads entities without registering them for change tracking.
func (s Specification[T]) NoTracking() Specification[T] {
	s.asNoTracking = true
	return s
}

// Tracking reverts NoTracking.
func (s Specification[T]) Tracking() Specification[T] {
	s.asNoTracking = false
	return s
}

// SplitQuery loads each include with an independent statement.
func (s Specification[T]) SplitQuery() Specification[T] {
	s.asSplitQuery = true
	return s
}

func (s Specification[T]) Criteria() Criteria[T]            { return s.criteria }
func (s Specification[T]) Includes() []Relation[T]          { return slices.Clone(s.includes) }
func (s Specification[T]) IncludePaths() []string           { return slices.Clone(s.includePaths) }
func (s Specification[T]) OrderByField() Field[T]           { return s.orderBy }
func (s Specification[T]) OrderByDescendingField() Field[T] { return s.orderByDescending }
func (s Specification[T]) IsPagingEnabled() bool            { return s.pagingEnabled }
func (s Specification[T]) AsNoTracking() bool               { return s.asNoTracking }
func (s Specification[T]) AsSplitQuery() bool               { return s.asSplitQuery }

// Skip returns the number of rows to skip, if set.
func (s Specification[T]) Skip() (int, bool) {
	if s.skip == nil {
		return 0, false
	}
	return *s.skip, true
}

// Take returns the page size, if set.
func (s Specification[T]) Take() (int, bool) {
	if s.take == nil {
		return 0, false
	}
	return *s.take, true
}
