// Package specification provides composable, declarative query descriptors.
//
// A Specification describes what to read for one entity type: a predicate,
// relation includes, an ordering rule, optional paging and read-mode flags.
// It says nothing about how the read is executed; the persistence layer
// evaluates it into a query.
package specification

import "fmt"

// Field is a column of the entity T. Binding the entity type at compile time
// keeps criteria for one entity from being applied to another.
type Field[T any] struct {
	name string
}

// NewField declares a column of T. It panics on names that are not plain SQL
// identifiers, since fields are declared once at package initialization.
func NewField[T any](name string) Field[T] {
	if !isSafeIdentifier(name) {
		panic(fmt.Sprintf("specification: unsafe field name %q", name))
	}
	return Field[T]{name: name}
}

// Name returns the column name.
func (f Field[T]) Name() string { return f.name }

// IsZero reports whether the field was never declared.
func (f Field[T]) IsZero() bool { return f.name == "" }

// Relation is a named relation of T that can be included in a read.
type Relation[T any] struct {
	name string
}

// NewRelation declares a relation of T.
func NewRelation[T any](name string) Relation[T] {
	if !isSafeIdentifier(name) {
		panic(fmt.Sprintf("specification: unsafe relation name %q", name))
	}
	return Relation[T]{name: name}
}

// Name returns the relation name.
func (r Relation[T]) Name() string { return r.name }

// isSafeIdentifier accepts foo, bar_1 and dotted forms like table.column.
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	start := true
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch == '.':
			if start {
				return false
			}
			start = true
			continue
		case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
		case ch >= '0' && ch <= '9':
			if start {
				return false
			}
		default:
			return false
		}
		start = false
	}
	return !start
}
