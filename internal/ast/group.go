package ast

// Group is an ordered, mutable container of nodes. It backs both
// logical operator groups (AND/OR items) and clause column lists.
//
// Group enforces only ordering and mutability. It does not validate
// semantic constraints - an AND with zero items is structurally legal
// and it is the consumer that decides what it means (serialization
// omits empty groups; evaluation would treat empty AND as true and
// empty OR as false).
type Group[T any] struct {
	Items []T
}

// Append adds items to the end of the group, preserving order.
func (g *Group[T]) Append(items ...T) {
	g.Items = append(g.Items, items...)
}

// Len returns the number of items in the group.
func (g *Group[T]) Len() int {
	return len(g.Items)
}
