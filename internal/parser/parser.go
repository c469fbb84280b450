// Package parser converts query text and native JSON query objects
// into AST clauses.
//
// The parser accumulates diagnostics instead of failing fast: every
// malformed construct appends to the error list and parsing
// synchronizes to the next clause keyword, so one pass reports as many
// problems as possible. A Go error is never returned for malformed
// input; returning an error is reserved for internal invariant
// violations, of which there are none today.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sqx/internal/ast"
)

// Clauses is the parse product: zero or one instance of each clause
// kind. Absent clauses are nil.
type Clauses struct {
	Select          *ast.SelectClause
	GroupBy         *ast.GroupByClause
	GroupByPermuted *ast.GroupByClause
	Having          *ast.HavingClause
	Where           *ast.WhereClause
	OrderBy         *ast.OrderByClause
	Limit           *ast.LimitClause
	TimeRange       *ast.TimeRangeClause
}

// clauseKeywords are the idents that begin a clause. Error recovery
// skips forward to the next one of these.
var clauseKeywords = map[string]bool{
	"SELECT": true, "GROUP": true, "HAVING": true,
	"WHERE": true, "ORDER": true, "LIMIT": true,
}

type state struct {
	toks []token
	pos  int
	errs []ParseError
}

// ParseQuery parses query text into clauses, accumulating diagnostics.
// A non-empty error list means the parse attempt failed as a whole;
// the returned clauses are then best-effort fragments and must not be
// used.
func ParseQuery(text string) (Clauses, []ParseError) {
	toks, lexErrs := lex(text)
	s := &state{toks: toks, errs: lexErrs}

	var c Clauses
	if s.keyword() == "SELECT" {
		s.next()
		c.Select = s.parseSelect()
	} else {
		s.errorf(s.cur(), "query must begin with SELECT")
		s.sync()
	}

	for s.cur().kind != tokEOF {
		tok := s.cur()
		switch s.keyword() {
		case "SELECT":
			s.errorf(tok, "duplicate SELECT clause")
			s.next()
			s.sync()
		case "GROUP":
			s.next()
			s.parseGroupBy(&c)
		case "HAVING":
			s.next()
			if !s.checkDuplicate(tok, "HAVING", c.Having != nil) {
				if root := s.parseCondition(); root != nil {
					c.Having = &ast.HavingClause{Root: root}
				}
			}
		case "WHERE":
			s.next()
			if !s.checkDuplicate(tok, "WHERE", c.Where != nil) {
				if root := s.parseCondition(); root != nil {
					c.Where = &ast.WhereClause{Root: root}
				}
			}
		case "ORDER":
			s.next()
			if !s.checkDuplicate(tok, "ORDER BY", c.OrderBy != nil) {
				c.OrderBy = s.parseOrderBy()
			}
		case "LIMIT":
			s.next()
			if !s.checkDuplicate(tok, "LIMIT", c.Limit != nil) {
				c.Limit = s.parseLimit()
			}
		default:
			s.errorf(tok, "unexpected token %q", tok.text)
			s.next()
			s.sync()
		}
	}

	return c, s.errs
}

// checkDuplicate records an error and resynchronizes when a clause
// appears twice. Reports true when the clause was a duplicate.
func (s *state) checkDuplicate(tok token, name string, present bool) bool {
	if present {
		s.errorf(tok, "duplicate %s clause", name)
		s.sync()
		return true
	}
	return false
}

func (s *state) cur() token {
	return s.toks[s.pos]
}

func (s *state) next() token {
	tok := s.toks[s.pos]
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return tok
}

// keyword returns the uppercased text of the current token when it is
// an ident, else "".
func (s *state) keyword() string {
	if tok := s.cur(); tok.kind == tokIdent {
		return strings.ToUpper(tok.text)
	}
	return ""
}

func (s *state) atKeyword(kw string) bool {
	return s.keyword() == kw
}

func (s *state) errorf(tok token, format string, args ...any) {
	near := tok.text
	if tok.kind == tokEOF {
		near = "end of query"
	}
	s.errs = append(s.errs, ParseError{
		Off:     tok.off,
		Near:    near,
		Message: fmt.Sprintf(format, args...),
	})
}

// sync skips tokens until the next clause keyword or EOF. This is the
// error-recovery point that lets one pass report several errors.
func (s *state) sync() {
	for {
		tok := s.cur()
		if tok.kind == tokEOF {
			return
		}
		if tok.kind == tokIdent && clauseKeywords[strings.ToUpper(tok.text)] {
			return
		}
		s.next()
	}
}

// parseSelect parses the projection list after the SELECT keyword.
func (s *state) parseSelect() *ast.SelectClause {
	clause := &ast.SelectClause{}
	for {
		if item := s.parseSelectItem(); item != nil {
			clause.Columns.Append(item)
		}
		if s.cur().kind != tokComma {
			break
		}
		s.next()
	}
	if clause.Columns.Len() == 0 {
		return nil
	}
	return clause
}

// parseSelectItem parses one projection entry: a property reference,
// an aggregate call, or either of those renamed with AS.
func (s *state) parseSelectItem() ast.Node {
	tok := s.cur()
	if tok.kind != tokIdent {
		s.errorf(tok, "expected column name")
		s.sync()
		return nil
	}

	var origin ast.Node
	ident := s.next()
	if s.cur().kind == tokLParen {
		s.next()
		arg := s.parseProperty()
		if arg == nil {
			return nil
		}
		if s.cur().kind != tokRParen {
			s.errorf(s.cur(), "expected ) after aggregate argument")
			s.sync()
			return nil
		}
		s.next()
		origin = &ast.Aggregate{Fn: strings.ToLower(ident.text), Arg: arg}
	} else {
		prop := s.parsePropertyTail(ident)
		if prop == nil {
			return nil
		}
		origin = prop
	}

	if s.atKeyword("AS") {
		s.next()
		alias := s.cur()
		if alias.kind != tokIdent {
			s.errorf(alias, "expected alias after AS")
			s.sync()
			return nil
		}
		s.next()
		return &ast.ProjectAs{Origin: origin, Alias: ast.Token{Text: alias.text}}
	}

	return origin
}

// parseProperty parses a property reference: ident, optionally
// namespace-qualified with ':' and extended with '.' segments.
func (s *state) parseProperty() *ast.Property {
	tok := s.cur()
	if tok.kind != tokIdent {
		s.errorf(tok, "expected property name")
		s.sync()
		return nil
	}
	s.next()
	return s.parsePropertyTail(tok)
}

// parsePropertyTail finishes a property whose first ident has already
// been consumed.
func (s *state) parsePropertyTail(first token) *ast.Property {
	prop := &ast.Property{ID: first.text}

	if s.cur().kind == tokColon {
		s.next()
		id := s.cur()
		if id.kind != tokIdent {
			s.errorf(id, "expected identifier after namespace %q", first.text)
			s.sync()
			return nil
		}
		s.next()
		prop = &ast.Property{NS: first.text, ID: id.text}
	}

	for s.cur().kind == tokPeriod {
		s.next()
		seg := s.cur()
		if seg.kind != tokIdent {
			s.errorf(seg, "expected identifier after '.'")
			s.sync()
			return nil
		}
		s.next()
		prop.ID += "." + seg.text
	}

	return prop
}

// parseCondition parses a boolean expression with AND/OR precedence
// and parenthesized grouping. OR binds looser than AND.
func (s *state) parseCondition() ast.Operator {
	return s.parseOr()
}

func (s *state) parseOr() ast.Operator {
	var items []ast.Operator
	if first := s.parseAnd(); first != nil {
		items = append(items, first)
	}
	for s.atKeyword("OR") {
		s.next()
		if item := s.parseAnd(); item != nil {
			items = append(items, item)
		}
	}
	return combineOr(items)
}

func (s *state) parseAnd() ast.Operator {
	var items []ast.Operator
	if first := s.parsePrimary(); first != nil {
		items = append(items, first)
	}
	for s.atKeyword("AND") {
		s.next()
		if item := s.parsePrimary(); item != nil {
			items = append(items, item)
		}
	}
	return combineAnd(items)
}

func (s *state) parsePrimary() ast.Operator {
	tok := s.cur()
	switch {
	case tok.kind == tokLParen:
		s.next()
		inner := s.parseOr()
		if s.cur().kind != tokRParen {
			s.errorf(s.cur(), "unbalanced parentheses")
			s.sync()
			return inner
		}
		s.next()
		return inner
	case tok.kind == tokIdent:
		return s.parseComparison()
	default:
		s.errorf(tok, "expected condition")
		s.sync()
		return nil
	}
}

// parseComparison parses "prop <op> scalar" or "prop IN (scalars)".
func (s *state) parseComparison() ast.Operator {
	prop := s.parseProperty()
	if prop == nil {
		return nil
	}

	tok := s.cur()
	switch {
	case tok.kind == tokCompare:
		s.next()
		value := s.parseScalar()
		if value == nil {
			return nil
		}
		return &ast.Comparison{Op: ast.CompareOp(tok.text), Prop: prop, Value: value}
	case s.atKeyword("IN"):
		s.next()
		return s.parseIn(prop)
	default:
		s.errorf(tok, "expected comparison operator after %q", prop.Name())
		s.sync()
		return nil
	}
}

func (s *state) parseIn(prop *ast.Property) ast.Operator {
	if s.cur().kind != tokLParen {
		s.errorf(s.cur(), "expected ( after IN")
		s.sync()
		return nil
	}
	s.next()

	var values []ast.Scalar
	for {
		if v := s.parseScalar(); v != nil {
			values = append(values, v)
		} else {
			return nil
		}
		if s.cur().kind != tokComma {
			break
		}
		s.next()
	}

	if s.cur().kind != tokRParen {
		s.errorf(s.cur(), "expected ) to close IN list")
		s.sync()
		return nil
	}
	s.next()
	return &ast.In{Prop: prop, Values: values}
}

// parseScalar parses a literal: quoted string, number, or boolean.
func (s *state) parseScalar() ast.Scalar {
	tok := s.cur()
	switch tok.kind {
	case tokString:
		s.next()
		return ast.String(tok.text)
	case tokNumber:
		s.next()
		n, err := ast.NumberFromString(tok.text)
		if err != nil {
			s.errorf(tok, "invalid number literal")
			return nil
		}
		return n
	case tokIdent:
		switch strings.ToUpper(tok.text) {
		case "TRUE":
			s.next()
			return ast.Bool(true)
		case "FALSE":
			s.next()
			return ast.Bool(false)
		}
	}
	s.errorf(tok, "expected literal value")
	s.sync()
	return nil
}

// parseGroupBy parses GROUP BY [PERMUTED] prop-list. The GROUP
// keyword has already been consumed.
func (s *state) parseGroupBy(c *Clauses) {
	if !s.atKeyword("BY") {
		s.errorf(s.cur(), "expected BY after GROUP")
		s.sync()
		return
	}
	s.next()

	permuted := false
	if s.atKeyword("PERMUTED") {
		permuted = true
		s.next()
	}

	tok := s.cur()
	if permuted && c.GroupByPermuted != nil {
		s.errorf(tok, "duplicate GROUP BY PERMUTED clause")
		s.sync()
		return
	}
	if !permuted && c.GroupBy != nil {
		s.errorf(tok, "duplicate GROUP BY clause")
		s.sync()
		return
	}

	props := s.parsePropertyList()
	if len(props) == 0 {
		return
	}
	clause := &ast.GroupByClause{Props: props, Permuted: permuted}
	if permuted {
		c.GroupByPermuted = clause
	} else {
		c.GroupBy = clause
	}
}

func (s *state) parsePropertyList() []*ast.Property {
	var props []*ast.Property
	for {
		if p := s.parseProperty(); p != nil {
			props = append(props, p)
		}
		if s.cur().kind != tokComma {
			break
		}
		s.next()
	}
	return props
}

// parseOrderBy parses "BY prop [ASC|DESC] [, ...]" after ORDER.
func (s *state) parseOrderBy() *ast.OrderByClause {
	if !s.atKeyword("BY") {
		s.errorf(s.cur(), "expected BY after ORDER")
		s.sync()
		return nil
	}
	s.next()

	var terms []ast.OrderTerm
	for {
		prop := s.parseProperty()
		if prop == nil {
			break
		}
		dir := ast.Ascending
		switch s.keyword() {
		case "ASC":
			s.next()
		case "DESC":
			dir = ast.Descending
			s.next()
		}
		terms = append(terms, ast.OrderTerm{Prop: prop, Dir: dir})
		if s.cur().kind != tokComma {
			break
		}
		s.next()
	}

	if len(terms) == 0 {
		return nil
	}
	return &ast.OrderByClause{Terms: terms}
}

// parseLimit parses "LIMIT n [OFFSET m]". The LIMIT keyword has
// already been consumed.
func (s *state) parseLimit() *ast.LimitClause {
	count, ok := s.parseIntLiteral("row count after LIMIT")
	if !ok {
		return nil
	}

	clause := &ast.LimitClause{Count: count}
	if s.atKeyword("OFFSET") {
		s.next()
		offset, ok := s.parseIntLiteral("offset after OFFSET")
		if !ok {
			return nil
		}
		clause.Offset = offset
	}
	return clause
}

func (s *state) parseIntLiteral(what string) (int64, bool) {
	tok := s.cur()
	if tok.kind != tokNumber {
		s.errorf(tok, "expected %s", what)
		s.sync()
		return 0, false
	}
	n, err := strconv.ParseInt(tok.text, 10, 64)
	if err != nil {
		s.errorf(tok, "expected integer %s", what)
		s.sync()
		return 0, false
	}
	s.next()
	return n, true
}

// combineOr folds parsed items into a single operator: nil for none,
// the item itself for one, an OR group otherwise.
func combineOr(items []ast.Operator) ast.Operator {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	default:
		group := &ast.Or{}
		group.Append(items...)
		return group
	}
}

func combineAnd(items []ast.Operator) ast.Operator {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	default:
		group := &ast.And{}
		group.Append(items...)
		return group
	}
}
