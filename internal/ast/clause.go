package ast

import (
	"strconv"
	"strings"
)

// Clause is one top-level section of a query. Each clause renders
// itself as query text and as a fragment of the native JSON format,
// merged by key into the enclosing query object.
type Clause interface {
	Node

	// JSONKey is the clause's key in the native JSON query object.
	JSONKey() string

	// JSONFragment returns the clause's native-JSON encoding, or nil
	// when the clause contributes nothing (e.g. an empty condition
	// group). Nil fragments are omitted from the exported object.
	JSONFragment() any

	// Descendants returns the clause's child nodes for idealized-tree
	// traversal.
	Descendants() []Node
}

// SelectClause holds the ordered projection list. Columns are
// *Property references or operators (aggregate calls, AS projections).
type SelectClause struct {
	Columns Group[Node]
}

func (s *SelectClause) QueryString() string {
	if s.Columns.Len() == 0 {
		return ""
	}
	parts := make([]string, s.Columns.Len())
	for i, col := range s.Columns.Items {
		parts[i] = col.QueryString()
	}
	return "SELECT " + strings.Join(parts, ", ")
}

func (s *SelectClause) JSONKey() string { return "select" }

func (s *SelectClause) JSONFragment() any {
	if s.Columns.Len() == 0 {
		return nil
	}
	entries := make([]any, s.Columns.Len())
	for i, col := range s.Columns.Items {
		switch c := col.(type) {
		case *Property:
			entries[i] = c.Name()
		case Operator:
			entries[i] = c.JSONValue()
		default:
			entries[i] = col.QueryString()
		}
	}
	return entries
}

func (s *SelectClause) Descendants() []Node {
	return s.Columns.Items
}

// WhereClause holds a single root condition, conventionally an AND/OR
// group. A nil or empty root is vacuously true and serializes to
// nothing.
type WhereClause struct {
	Root Operator
}

func (w *WhereClause) QueryString() string {
	return renderCondition("WHERE", w.Root)
}

func (w *WhereClause) JSONKey() string { return "where" }

func (w *WhereClause) JSONFragment() any {
	return conditionJSON(w.Root)
}

func (w *WhereClause) Descendants() []Node {
	if w.Root == nil {
		return nil
	}
	return []Node{w.Root}
}

// HavingClause is a condition over aggregate results, same shape as
// WHERE.
type HavingClause struct {
	Root Operator
}

func (h *HavingClause) QueryString() string {
	return renderCondition("HAVING", h.Root)
}

func (h *HavingClause) JSONKey() string { return "having" }

func (h *HavingClause) JSONFragment() any {
	return conditionJSON(h.Root)
}

func (h *HavingClause) Descendants() []Node {
	if h.Root == nil {
		return nil
	}
	return []Node{h.Root}
}

// Direction orders an ORDER BY term.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// OrderTerm is one (property, direction) pair of an ORDER BY clause.
type OrderTerm struct {
	Prop *Property
	Dir  Direction
}

// OrderByClause holds the ordered sequence of sort terms.
type OrderByClause struct {
	Terms []OrderTerm
}

func (o *OrderByClause) QueryString() string {
	if len(o.Terms) == 0 {
		return ""
	}
	parts := make([]string, len(o.Terms))
	for i, t := range o.Terms {
		parts[i] = t.Prop.Name() + " " + strings.ToUpper(string(t.Dir))
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

func (o *OrderByClause) JSONKey() string { return "order_by" }

func (o *OrderByClause) JSONFragment() any {
	if len(o.Terms) == 0 {
		return nil
	}
	entries := make([]any, len(o.Terms))
	for i, t := range o.Terms {
		entries[i] = []any{t.Prop.Name(), string(t.Dir)}
	}
	return entries
}

func (o *OrderByClause) Descendants() []Node {
	nodes := make([]Node, len(o.Terms))
	for i, t := range o.Terms {
		nodes[i] = t.Prop
	}
	return nodes
}

// GroupByClause holds the grouping properties. The Permuted variant
// signals that all permutations of the listed properties should be
// grouped.
type GroupByClause struct {
	Props    []*Property
	Permuted bool
}

func (g *GroupByClause) QueryString() string {
	if len(g.Props) == 0 {
		return ""
	}
	parts := make([]string, len(g.Props))
	for i, p := range g.Props {
		parts[i] = p.Name()
	}
	keyword := "GROUP BY "
	if g.Permuted {
		keyword = "GROUP BY PERMUTED "
	}
	return keyword + strings.Join(parts, ", ")
}

func (g *GroupByClause) JSONKey() string {
	if g.Permuted {
		return "group_by_permuted"
	}
	return "group_by"
}

func (g *GroupByClause) JSONFragment() any {
	if len(g.Props) == 0 {
		return nil
	}
	entries := make([]any, len(g.Props))
	for i, p := range g.Props {
		entries[i] = p.Name()
	}
	return entries
}

func (g *GroupByClause) Descendants() []Node {
	nodes := make([]Node, len(g.Props))
	for i, p := range g.Props {
		nodes[i] = p
	}
	return nodes
}

// LimitClause caps the row count, with an optional offset.
type LimitClause struct {
	Count  int64
	Offset int64
}

func (l *LimitClause) QueryString() string {
	text := "LIMIT " + strconv.FormatInt(l.Count, 10)
	if l.Offset > 0 {
		text += " OFFSET " + strconv.FormatInt(l.Offset, 10)
	}
	return text
}

func (l *LimitClause) JSONKey() string { return "limit" }

func (l *LimitClause) JSONFragment() any {
	fragment := map[string]any{"count": l.Count}
	if l.Offset > 0 {
		fragment["offset"] = l.Offset
	}
	return fragment
}

func (l *LimitClause) Descendants() []Node { return nil }

// TimeRangeClause restricts the query to a time window: either an
// absolute [Start, End] pair (unix seconds) or a relative Duration in
// seconds. The clause is carried in the native JSON format only; the
// assembled query text and the idealized-tree traversal both exclude
// it, so the textual rendering here is informational.
type TimeRangeClause struct {
	Start    int64
	End      int64
	Duration int64
}

func (t *TimeRangeClause) QueryString() string {
	if t.Duration > 0 {
		return "TIME RANGE LAST " + strconv.FormatInt(t.Duration, 10) + "s"
	}
	return "TIME RANGE " + strconv.FormatInt(t.Start, 10) + " TO " + strconv.FormatInt(t.End, 10)
}

func (t *TimeRangeClause) JSONKey() string { return "time_range" }

func (t *TimeRangeClause) JSONFragment() any {
	if t.Duration > 0 {
		return map[string]any{"duration": t.Duration}
	}
	fragment := map[string]any{}
	if t.Start != 0 {
		fragment["start"] = t.Start
	}
	if t.End != 0 {
		fragment["end"] = t.End
	}
	if len(fragment) == 0 {
		return nil
	}
	return fragment
}

func (t *TimeRangeClause) Descendants() []Node { return nil }

// renderCondition renders a WHERE/HAVING clause, dropping empty
// condition groups entirely.
func renderCondition(keyword string, root Operator) string {
	if root == nil || IsEmptyGroup(root) {
		return ""
	}
	return keyword + " " + root.QueryString()
}

// conditionJSON encodes a condition root, returning nil for absent or
// empty groups so the clause is omitted from the exported object.
func conditionJSON(root Operator) any {
	if root == nil || IsEmptyGroup(root) {
		return nil
	}
	return root.JSONValue()
}
