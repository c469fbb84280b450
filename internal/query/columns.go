package query

import (
	"fmt"

	"github.com/roach88/sqx/internal/ast"
)

// ColumnType is the coarse inferred type of a SELECT column.
type ColumnType string

const (
	// TypeNumber marks columns computed by aggregate expressions.
	TypeNumber ColumnType = "number"
	// TypeAny marks bare field references.
	TypeAny ColumnType = "any"
)

// ColumnDescriptor describes one SELECT column. Descriptors are
// derived, not stored: every ColumnDescriptions call recomputes them.
type ColumnDescriptor struct {
	// Name is the column's display name: the alias for AS
	// projections, the rendered expression otherwise.
	Name string `json:"name"`

	// Type is "number" for aggregate expressions, "any" otherwise.
	Type ColumnType `json:"type"`

	// AsField is the rendered origin expression when the column was
	// renamed with AS.
	AsField string `json:"as_field,omitempty"`

	// IsAggregate marks columns computed by aggregate expressions.
	IsAggregate bool `json:"is_aggregate,omitempty"`
}

// ColumnDescriptions classifies each entry of the SELECT list:
//
//   - bare property reference: {name, type "any"}
//   - AS projection: {alias, origin text, "number" when the origin is
//     an operator, aggregate flag accordingly}
//   - bare operator (aggregate expression without alias): {rendered
//     text, "number", aggregate}
//
// Anything else is skipped with a diagnostic, not an error. The call
// also refreshes the query-level aggregate flag reported by
// IsAggregate.
func (q *SearchQuery) ColumnDescriptions() []ColumnDescriptor {
	q.aggregate = false
	if q.Select == nil {
		return nil
	}

	descriptors := make([]ColumnDescriptor, 0, q.Select.Columns.Len())
	for _, col := range q.Select.Columns.Items {
		switch c := col.(type) {
		case *ast.Property:
			descriptors = append(descriptors, ColumnDescriptor{
				Name: c.Name(),
				Type: TypeAny,
			})
		case *ast.ProjectAs:
			d := ColumnDescriptor{
				Name:    c.Alias.Text,
				AsField: c.Origin.QueryString(),
				Type:    TypeAny,
			}
			if _, ok := c.Origin.(ast.Operator); ok {
				d.Type = TypeNumber
				d.IsAggregate = true
				q.aggregate = true
			}
			descriptors = append(descriptors, d)
		case ast.Operator:
			descriptors = append(descriptors, ColumnDescriptor{
				Name:        c.QueryString(),
				Type:        TypeNumber,
				IsAggregate: true,
			})
			q.aggregate = true
		default:
			q.diagf(fmt.Sprintf("skipping unrecognized select entry %q", col.QueryString()))
		}
	}
	return descriptors
}

// IsAggregate runs column inference, then reports whether any SELECT
// column is an aggregate expression. It is not a pure query of
// existing state: calling it recomputes column descriptions.
func (q *SearchQuery) IsAggregate() bool {
	q.ColumnDescriptions()
	return q.aggregate
}
