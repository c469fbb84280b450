package ast

import "strings"

// Operator is a sealed interface for condition-tree and projection
// nodes: logical groups, comparators, aggregate calls, and AS
// projections. Only types in this package implement it.
type Operator interface {
	Node

	// PropertyRef returns the property this operator tests, or nil for
	// operators that do not test a property (logical groups, AS
	// projections).
	PropertyRef() *Property

	// Descendants returns the immediate operand children in a fixed,
	// deterministic order (operands before combinators) so traversal
	// order is reproducible.
	Descendants() []Node

	// JSONValue renders the operator as a native-JSON fragment.
	JSONValue() any

	operatorNode() // Sealed - only these types implement it
}

// CompareOp identifies a binary comparator. The textual form is also
// the key used in the native JSON condition encoding.
type CompareOp string

const (
	OpEqual          CompareOp = "="
	OpNotEqual       CompareOp = "!="
	OpLess           CompareOp = "<"
	OpLessOrEqual    CompareOp = "<="
	OpGreater        CompareOp = ">"
	OpGreaterOrEqual CompareOp = ">="
)

// And is a logical conjunction over an ordered group of operators.
// An empty And is structurally legal and semantically vacuous (true).
type And struct {
	Group[Operator]
}

func (*And) operatorNode() {}

func (*And) PropertyRef() *Property { return nil }

func (a *And) Descendants() []Node {
	return operatorNodes(a.Items)
}

func (a *And) QueryString() string {
	return renderGroup(a.Items, " AND ")
}

func (a *And) JSONValue() any {
	return map[string]any{"and": operatorJSON(a.Items)}
}

// Or is a logical disjunction over an ordered group of operators.
// An empty Or is structurally legal and semantically vacuous (false).
type Or struct {
	Group[Operator]
}

func (*Or) operatorNode() {}

func (*Or) PropertyRef() *Property { return nil }

func (o *Or) Descendants() []Node {
	return operatorNodes(o.Items)
}

func (o *Or) QueryString() string {
	return renderGroup(o.Items, " OR ")
}

func (o *Or) JSONValue() any {
	return map[string]any{"or": operatorJSON(o.Items)}
}

// Comparison tests a property against a single scalar.
type Comparison struct {
	Op    CompareOp
	Prop  *Property
	Value Scalar
}

func (*Comparison) operatorNode() {}

func (c *Comparison) PropertyRef() *Property { return c.Prop }

func (c *Comparison) Descendants() []Node {
	return []Node{c.Prop, c.Value}
}

func (c *Comparison) QueryString() string {
	return c.Prop.Name() + " " + string(c.Op) + " " + c.Value.QueryString()
}

func (c *Comparison) JSONValue() any {
	return map[string]any{string(c.Op): []any{c.Prop.Name(), c.Value.JSONValue()}}
}

// In tests a property for membership in a set of scalars.
type In struct {
	Prop   *Property
	Values []Scalar
}

func (*In) operatorNode() {}

func (i *In) PropertyRef() *Property { return i.Prop }

func (i *In) Descendants() []Node {
	nodes := make([]Node, 0, len(i.Values)+1)
	nodes = append(nodes, i.Prop)
	for _, v := range i.Values {
		nodes = append(nodes, v)
	}
	return nodes
}

func (i *In) QueryString() string {
	parts := make([]string, len(i.Values))
	for n, v := range i.Values {
		parts[n] = v.QueryString()
	}
	return i.Prop.Name() + " IN (" + strings.Join(parts, ", ") + ")"
}

func (i *In) JSONValue() any {
	vals := make([]any, len(i.Values))
	for n, v := range i.Values {
		vals[n] = v.JSONValue()
	}
	return map[string]any{"in": []any{i.Prop.Name(), vals}}
}

// Aggregate is an aggregate function call over a property, such as
// count(event) or sum(bytes). Aggregate columns have inferred type
// "number".
type Aggregate struct {
	Fn  string
	Arg *Property
}

func (*Aggregate) operatorNode() {}

func (a *Aggregate) PropertyRef() *Property { return a.Arg }

func (a *Aggregate) Descendants() []Node {
	return []Node{a.Arg}
}

func (a *Aggregate) QueryString() string {
	return a.Fn + "(" + a.Arg.Name() + ")"
}

func (a *Aggregate) JSONValue() any {
	return map[string]any{"fn": a.Fn, "arg": a.Arg.Name()}
}

// ProjectAs renames a column or aggregate expression in the SELECT
// list. Origin is either a *Property or an Operator.
type ProjectAs struct {
	Origin Node
	Alias  Token
}

func (*ProjectAs) operatorNode() {}

func (*ProjectAs) PropertyRef() *Property { return nil }

func (p *ProjectAs) Descendants() []Node {
	return []Node{p.Origin, p.Alias}
}

func (p *ProjectAs) QueryString() string {
	return p.Origin.QueryString() + " AS " + p.Alias.Text
}

func (p *ProjectAs) JSONValue() any {
	var origin any
	switch o := p.Origin.(type) {
	case *Property:
		origin = o.Name()
	case Operator:
		origin = o.JSONValue()
	default:
		origin = p.Origin.QueryString()
	}
	return map[string]any{"as": p.Alias.Text, "origin": origin}
}

// IsEmptyGroup reports whether op is an AND/OR group carrying no
// conditions. Emptiness is recursive: a group whose items are all
// empty groups is itself empty. Empty groups are omitted from both
// serializations.
func IsEmptyGroup(op Operator) bool {
	switch g := op.(type) {
	case *And:
		return allEmptyGroups(g.Items)
	case *Or:
		return allEmptyGroups(g.Items)
	default:
		return false
	}
}

func allEmptyGroups(items []Operator) bool {
	for _, item := range items {
		if !IsEmptyGroup(item) {
			return false
		}
	}
	return true
}

// renderGroup joins item renderings with the given connective,
// parenthesizing nested groups so precedence survives re-parsing.
// Empty items contribute nothing; a fully empty group renders to "".
func renderGroup(items []Operator, sep string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		text := item.QueryString()
		if text == "" {
			continue
		}
		switch item.(type) {
		case *And, *Or:
			text = "(" + text + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, sep)
}

func operatorNodes(items []Operator) []Node {
	nodes := make([]Node, len(items))
	for i, item := range items {
		nodes[i] = item
	}
	return nodes
}

func operatorJSON(items []Operator) []any {
	vals := make([]any, 0, len(items))
	for _, item := range items {
		if IsEmptyGroup(item) {
			continue
		}
		vals = append(vals, item.JSONValue())
	}
	return vals
}
