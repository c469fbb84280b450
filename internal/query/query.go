// Package query exposes the SearchQuery facade: construction from
// text, native JSON, or nothing; export back to both forms; condition
// tree mutation; column inference; and idealized-tree traversal.
//
// The facade owns zero or one instance of each clause kind. Mutation
// methods are not safe for concurrent use; callers sharing a
// SearchQuery across goroutines must serialize access.
package query

import (
	"strings"

	"github.com/roach88/sqx/internal/ast"
	"github.com/roach88/sqx/internal/parser"
)

// SearchQuery aggregates at most one instance of each clause kind,
// plus an optional key (identifier) and name (display label).
type SearchQuery struct {
	Key  string
	Name string

	Select          *ast.SelectClause
	Where           *ast.WhereClause
	OrderBy         *ast.OrderByClause
	GroupBy         *ast.GroupByClause
	GroupByPermuted *ast.GroupByClause
	Having          *ast.HavingClause
	Limit           *ast.LimitClause
	TimeRange       *ast.TimeRangeClause

	// aggregate caches the result of the last column inference pass.
	// IsAggregate always recomputes before reporting, so stale values
	// are never observable through the public API.
	aggregate bool

	// diag receives diagnostics for entries skipped during column
	// inference. Nil means discard.
	diag func(msg string)
}

// Empty produces a query with only a display name set.
func Empty(name string) *SearchQuery {
	return &SearchQuery{Name: name}
}

// FromQueryString parses query text. A non-empty parse error list is
// surfaced as a single *InvalidQueryError; no partial results are
// exposed.
func FromQueryString(text string) (*SearchQuery, error) {
	clauses, errs := parser.ParseQuery(text)
	if len(errs) > 0 {
		return nil, &InvalidQueryError{Errors: errs}
	}
	q := &SearchQuery{}
	q.setClauses(clauses)
	return q, nil
}

// FromJSON builds a query from a decoded native JSON object. Key and
// name are extracted here; clause population is delegated to the
// parser's JSON path. Missing clauses remain unset.
func FromJSON(raw map[string]any) (*SearchQuery, error) {
	clauses, errs := parser.FromJSON(raw)
	if len(errs) > 0 {
		return nil, &InvalidQueryError{Errors: errs}
	}

	q := &SearchQuery{}
	if key, ok := raw["key"].(string); ok {
		q.Key = key
	}
	if name, ok := raw["name"].(string); ok {
		q.Name = name
	}
	q.setClauses(clauses)
	return q, nil
}

// FromJSONBytes decodes and builds in one step.
func FromJSONBytes(data []byte) (*SearchQuery, error) {
	raw, err := parser.DecodeJSONBytes(data)
	if err != nil {
		return nil, err
	}
	return FromJSON(raw)
}

func (q *SearchQuery) setClauses(c parser.Clauses) {
	q.Select = c.Select
	q.Where = c.Where
	q.OrderBy = c.OrderBy
	q.GroupBy = c.GroupBy
	q.GroupByPermuted = c.GroupByPermuted
	q.Having = c.Having
	q.Limit = c.Limit
	q.TimeRange = c.TimeRange
}

// SetDiagnostics installs a sink for non-fatal inference diagnostics
// (e.g. skipped SELECT entries). Nil discards them.
func (q *SearchQuery) SetDiagnostics(fn func(msg string)) {
	q.diag = fn
}

func (q *SearchQuery) diagf(msg string) {
	if q.diag != nil {
		q.diag(msg)
	}
}

// ToQueryString renders the query in the fixed clause order SELECT,
// GROUP BY, GROUP BY PERMUTED, HAVING, WHERE, ORDER BY, LIMIT, joined
// by single spaces. The order is a rendering convention: re-rendered
// text is normalized, and round-trip stability is structural, not
// byte-level. TIME RANGE is carried in JSON only.
func (q *SearchQuery) ToQueryString() string {
	parts := make([]string, 0, 7)
	for _, clause := range q.renderOrder() {
		if clause == nil {
			continue
		}
		if text := clause.QueryString(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// ToJSON merges each present clause's JSON fragment into one object,
// keyed by clause name, plus key/name if set. Absent clauses
// contribute nothing - no null placeholders.
func (q *SearchQuery) ToJSON() map[string]any {
	out := map[string]any{}
	if q.Key != "" {
		out["key"] = q.Key
	}
	if q.Name != "" {
		out["name"] = q.Name
	}
	for _, clause := range q.allClauses() {
		if clause == nil {
			continue
		}
		if fragment := clause.JSONFragment(); fragment != nil {
			out[clause.JSONKey()] = fragment
		}
	}
	return out
}

// renderOrder returns clauses in the textual rendering order.
func (q *SearchQuery) renderOrder() []ast.Clause {
	return []ast.Clause{
		nilable(q.Select), nilable(q.GroupBy), nilable(q.GroupByPermuted),
		nilable(q.Having), nilable(q.Where), nilable(q.OrderBy), nilable(q.Limit),
	}
}

// allClauses includes TIME RANGE, which is exported to JSON but
// excluded from the assembled query text and from traversal.
func (q *SearchQuery) allClauses() []ast.Clause {
	return append(q.renderOrder(), nilable(q.TimeRange))
}

// nilable keeps a typed-nil clause pointer from masquerading as a
// non-nil ast.Clause interface value.
func nilable[T ast.Clause](clause T) ast.Clause {
	var zero T
	if any(clause) == any(zero) {
		return nil
	}
	return clause
}

// Conditions returns the WHERE clause's root condition, lazily
// creating an empty WHERE with an AND root if none exists. Never
// returns nil. An empty AND is vacuously true and serializes to
// nothing.
func (q *SearchQuery) Conditions() ast.Operator {
	if q.Where == nil {
		q.Where = &ast.WhereClause{Root: &ast.And{}}
	} else if q.Where.Root == nil {
		q.Where.Root = &ast.And{}
	}
	return q.Where.Root
}

// And ensures the WHERE root is an AND group. If it already is, this
// is a no-op; otherwise the existing root becomes the sole initial
// member of a fresh AND group. Alternating And and Or therefore nests
// the prior condition one level deeper on each kind change - that is
// intentional. Returns the query for chaining.
func (q *SearchQuery) And() *SearchQuery {
	root := q.Conditions()
	if _, ok := root.(*ast.And); ok {
		return q
	}
	group := &ast.And{}
	group.Append(root)
	q.Where.Root = group
	return q
}

// Or ensures the WHERE root is an OR group, wrapping any other root
// as its sole initial member. See And for the nesting semantics.
func (q *SearchQuery) Or() *SearchQuery {
	root := q.Conditions()
	if _, ok := root.(*ast.Or); ok {
		return q
	}
	group := &ast.Or{}
	group.Append(root)
	q.Where.Root = group
	return q
}

// Equals appends an equality condition to the WHERE root group.
// Returns ErrRootNotGroup when the root is a bare comparator.
func (q *SearchQuery) Equals(property string, value any) error {
	scalar, err := ast.ScalarFromJSON(value)
	if err != nil {
		return err
	}
	return q.appendCondition(&ast.Comparison{
		Op:    ast.OpEqual,
		Prop:  ast.ParseProperty(property),
		Value: scalar,
	})
}

// In appends a membership condition to the WHERE root group.
// Returns ErrRootNotGroup when the root is a bare comparator.
func (q *SearchQuery) In(property string, values ...any) error {
	scalars := make([]ast.Scalar, len(values))
	for i, v := range values {
		scalar, err := ast.ScalarFromJSON(v)
		if err != nil {
			return err
		}
		scalars[i] = scalar
	}
	return q.appendCondition(&ast.In{
		Prop:   ast.ParseProperty(property),
		Values: scalars,
	})
}

func (q *SearchQuery) appendCondition(op ast.Operator) error {
	switch root := q.Conditions().(type) {
	case *ast.And:
		root.Append(op)
	case *ast.Or:
		root.Append(op)
	default:
		return ErrRootNotGroup
	}
	return nil
}

// PropertyConditions collects every operator in the WHERE tree whose
// own property reference equals the given property name (textual
// equality of normalized names).
func (q *SearchQuery) PropertyConditions(property string) []ast.Operator {
	want := ast.ParseProperty(property)
	var matches []ast.Operator

	var root ast.Node
	if q.Where != nil {
		root = q.Where.Root
	}
	if root == nil {
		return nil
	}

	q.TraverseDescendants(root, func(node ast.Node, _ int) {
		op, ok := node.(ast.Operator)
		if !ok {
			return
		}
		if prop := op.PropertyRef(); prop != nil && prop.Equal(want) {
			matches = append(matches, op)
		}
	})
	return matches
}

// PropertyCondition returns the single condition on the given
// property, nil when there is none, and a *MultipleConditionsError
// when more than one matches.
func (q *SearchQuery) PropertyCondition(property string) (ast.Operator, error) {
	matches := q.PropertyConditions(property)
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &MultipleConditionsError{Property: property, Count: len(matches)}
	}
}
