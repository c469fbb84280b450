package ast

import "strings"

// Node is the base contract shared by every element of the idealized
// tree: tokens, scalars, operators, and clauses.
type Node interface {
	// QueryString renders the node in the SQL-like textual form.
	QueryString() string
}

// Token is the base unit of the tree: a raw text value.
// Aliases introduced by AS projections are plain tokens.
type Token struct {
	Text string
}

func (t Token) QueryString() string {
	return t.Text
}

// Property names a field on the queried entity, optionally qualified
// by a namespace prefix ("ns:id" in textual form).
type Property struct {
	NS string
	ID string
}

// ParseProperty splits a textual property reference into its
// namespace and identifier parts. "status" has no namespace;
// "log:message" is identifier "message" in namespace "log".
func ParseProperty(s string) *Property {
	if ns, id, ok := strings.Cut(s, ":"); ok {
		return &Property{NS: ns, ID: id}
	}
	return &Property{ID: s}
}

// Name returns the normalized textual name of the property.
// Two property references are equal when their names are equal.
func (p *Property) Name() string {
	if p.NS != "" {
		return p.NS + ":" + p.ID
	}
	return p.ID
}

// Equal reports textual equality of normalized names.
func (p *Property) Equal(other *Property) bool {
	if other == nil {
		return false
	}
	return p.Name() == other.Name()
}

func (p *Property) QueryString() string {
	return p.Name()
}
