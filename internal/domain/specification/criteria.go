package specification

import (
	"fmt"
	"strings"
)

type operator int

const (
	opCompare operator = iota + 1
	opIn
	opIsNull
	opIsNotNull
	opNot
	opAnd
	opOr
)

// node is one element of a predicate tree. Nodes are never modified after
// construction, so trees can be shared freely between criteria.
type node struct {
	op       operator
	field    string
	cmp      string
	values   []any
	children []*node
}

// Criteria is a boolean predicate over T. The zero value matches everything.
type Criteria[T any] struct {
	root *node
}

// IsEmpty reports whether the criteria holds no predicate.
func (c Criteria[T]) IsEmpty() bool { return c.root == nil }

// And returns a criteria matching when c and other both match.
func (c Criteria[T]) And(other Criteria[T]) Criteria[T] { return And(c, other) }

// Or returns a criteria matching when c or other matches.
func (c Criteria[T]) Or(other Criteria[T]) Criteria[T] { return Or(c, other) }

// Build renders the predicate as a SQL clause with '?' placeholders.
// An empty criteria yields an empty clause.
func (c Criteria[T]) Build() (string, []any) {
	if c.root == nil {
		return "", nil
	}
	var sb strings.Builder
	var args []any
	c.root.write(&sb, &args)
	return sb.String(), args
}

// String renders the clause for logging and tracing.
func (c Criteria[T]) String() string {
	clause, args := c.Build()
	if clause == "" {
		return "<all>"
	}
	return fmt.Sprintf("%s %v", clause, args)
}

func (n *node) write(sb *strings.Builder, args *[]any) {
	switch n.op {
	case opCompare:
		sb.WriteString(n.field)
		sb.WriteString(" ")
		sb.WriteString(n.cmp)
		sb.WriteString(" ?")
		*args = append(*args, n.values...)
	case opIn:
		if len(n.values) == 0 {
			sb.WriteString("1 = 0")
			return
		}
		sb.WriteString(n.field)
		sb.WriteString(" IN (")
		sb.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(n.values)), ", "))
		sb.WriteString(")")
		*args = append(*args, n.values...)
	case opIsNull:
		sb.WriteString(n.field)
		sb.WriteString(" IS NULL")
	case opIsNotNull:
		sb.WriteString(n.field)
		sb.WriteString(" IS NOT NULL")
	case opNot:
		sb.WriteString("NOT (")
		n.children[0].write(sb, args)
		sb.WriteString(")")
	case opAnd, opOr:
		sep := " AND "
		if n.op == opOr {
			sep = " OR "
		}
		sb.WriteString("(")
		for i, child := range n.children {
			if i > 0 {
				sb.WriteString(sep)
			}
			child.write(sb, args)
		}
		sb.WriteString(")")
	}
}

func compare[T any](field Field[T], cmp string, value any) Criteria[T] {
	return Criteria[T]{root: &node{op: opCompare, field: field.name, cmp: cmp, values: []any{value}}}
}

func Eq[T any](field Field[T], value any) Criteria[T]  { return compare(field, "=", value) }
func Ne[T any](field Field[T], value any) Criteria[T]  { return compare(field, "<>", value) }
func Gt[T any](field Field[T], value any) Criteria[T]  { return compare(field, ">", value) }
func Gte[T any](field Field[T], value any) Criteria[T] { return compare(field, ">=", value) }
func Lt[T any](field Field[T], value any) Criteria[T]  { return compare(field, "<", value) }
func Lte[T any](field Field[T], value any) Criteria[T] { return compare(field, "<=", value) }

// Like matches a SQL LIKE pattern.
func Like[T any](field Field[T], pattern string) Criteria[T] { return compare(field, "LIKE", pattern) }

// In matches any of values. An empty list never matches.
func In[T any](field Field[T], values ...any) Criteria[T] {
	return Criteria[T]{root: &node{op: opIn, field: field.name, values: append([]any(nil), values...)}}
}

func IsNull[T any](field Field[T]) Criteria[T] {
	return Criteria[T]{root: &node{op: opIsNull, field: field.name}}
}

func IsNotNull[T any](field Field[T]) Criteria[T] {
	return Criteria[T]{root: &node{op: opIsNotNull, field: field.name}}
}

// Not negates c. Negating an empty criteria stays empty.
func Not[T any](c Criteria[T]) Criteria[T] {
	if c.root == nil {
		return c
	}
	return Criteria[T]{root: &node{op: opNot, children: []*node{c.root}}}
}

// And combines criteria with AND, skipping empty ones.
func And[T any](criteria ...Criteria[T]) Criteria[T] { return combine(opAnd, criteria) }

// Or combines criteria with OR, skipping empty ones.
func Or[T any](criteria ...Criteria[T]) Criteria[T] { return combine(opOr, criteria) }

func combine[T any](op operator, criteria []Criteria[T]) Criteria[T] {
	children := make([]*node, 0, len(criteria))
	for _, c := range criteria {
		if c.root != nil {
			children = append(children, c.root)
		}
	}
	switch len(children) {
	case 0:
		return Criteria[T]{}
	case 1:
		return Criteria[T]{root: children[0]}
	}
	return Criteria[T]{root: &node{op: op, children: children}}
}
