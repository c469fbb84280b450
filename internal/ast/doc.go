// Package ast defines the node model for SQX search queries.
//
// A query is a set of clauses (SELECT, WHERE, ORDER BY, GROUP BY,
// HAVING, LIMIT, TIME RANGE), each built from a small closed set of
// node kinds:
//
//   - Tokens: raw text, property references, scalar literals
//   - Operators: logical groups (AND/OR) and comparators (=, !=, <,
//     <=, >, >=, IN), plus aggregate calls and AS projections
//   - Clauses: one per query section
//
// Operators and scalars are sealed interfaces - only types in this
// package implement them. The marker method pattern prevents external
// implementations and keeps type switches in the parser, renderer,
// and JSON converter exhaustive.
//
// Every node renders to the SQL-like textual form via QueryString.
// Every clause additionally renders to a fragment of the native JSON
// query format via JSONKey/JSONFragment; fragments are merged by key
// into the enclosing query object. Both renderings round-trip through
// the parser to a structurally equal tree.
package ast
