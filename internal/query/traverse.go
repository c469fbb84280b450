package query

import "github.com/roach88/sqx/internal/ast"

// Visit receives one idealized-tree node and its depth.
type Visit func(node ast.Node, depth int)

// TraverseDescendants walks the idealized tree depth-first.
//
// When from is nil, the walk starts at the query itself and covers,
// in order, SELECT, WHERE, ORDER BY, GROUP BY, GROUP BY PERMUTED,
// HAVING, and LIMIT - deliberately excluding TIME RANGE. Each
// clause's child nodes enter the walk at depth 0.
//
// Node rules, which determine exactly which nodes a caller sees:
//   - AND/OR groups are transparent containers: the walk recurses
//     into each item at depth+1 without visiting the group itself.
//   - Operators are visited first, then their descendants are walked
//     at depth+1.
//   - Any other node (tokens, properties, scalars) is visited with no
//     recursion.
func (q *SearchQuery) TraverseDescendants(from ast.Node, fn Visit) {
	if from != nil {
		traverse(from, 0, fn)
		return
	}

	clauses := []ast.Clause{
		nilable(q.Select), nilable(q.Where), nilable(q.OrderBy),
		nilable(q.GroupBy), nilable(q.GroupByPermuted),
		nilable(q.Having), nilable(q.Limit),
	}
	for _, clause := range clauses {
		if clause == nil {
			continue
		}
		for _, node := range clause.Descendants() {
			traverse(node, 0, fn)
		}
	}
}

func traverse(node ast.Node, depth int, fn Visit) {
	switch n := node.(type) {
	case *ast.And:
		for _, item := range n.Items {
			traverse(item, depth+1, fn)
		}
	case *ast.Or:
		for _, item := range n.Items {
			traverse(item, depth+1, fn)
		}
	case ast.Operator:
		fn(n, depth)
		for _, child := range n.Descendants() {
			traverse(child, depth+1, fn)
		}
	default:
		fn(node, depth)
	}
}
