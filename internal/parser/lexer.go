package parser

import (
	"fmt"
	"strings"
	"text/scanner"
)

// tokenKind classifies lexer tokens. Keywords are recognized at parse
// time by case-insensitive comparison of ident tokens, not by the
// lexer.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokPeriod
	tokCompare // =, !=, <, <=, >, >=
)

type token struct {
	kind tokenKind
	text string
	off  int
}

// lex tokenizes query text. Unknown characters and unterminated
// string literals are recorded as parse errors; the offending input
// is skipped and scanning continues.
func lex(input string) ([]token, []ParseError) {
	var s scanner.Scanner
	s.Init(strings.NewReader(input))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats
	s.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(i > 0 && ch >= '0' && ch <= '9')
	}

	var errs []ParseError
	s.Error = func(_ *scanner.Scanner, msg string) {
		errs = append(errs, ParseError{Off: s.Pos().Offset, Message: msg})
	}

	var toks []token
	for {
		tok := s.Scan()
		if tok == scanner.EOF {
			break
		}
		off := s.Position.Offset

		switch tok {
		case scanner.Ident:
			toks = append(toks, token{kind: tokIdent, text: s.TokenText(), off: off})
		case scanner.Int, scanner.Float:
			toks = append(toks, token{kind: tokNumber, text: s.TokenText(), off: off})
		case '\'', '"':
			text, ok := scanQuoted(&s, tok)
			if !ok {
				errs = append(errs, ParseError{Off: off, Message: "unterminated string literal"})
				continue
			}
			toks = append(toks, token{kind: tokString, text: text, off: off})
		case '(':
			toks = append(toks, token{kind: tokLParen, text: "(", off: off})
		case ')':
			toks = append(toks, token{kind: tokRParen, text: ")", off: off})
		case ',':
			toks = append(toks, token{kind: tokComma, text: ",", off: off})
		case ':':
			toks = append(toks, token{kind: tokColon, text: ":", off: off})
		case '.':
			toks = append(toks, token{kind: tokPeriod, text: ".", off: off})
		case '=':
			toks = append(toks, token{kind: tokCompare, text: "=", off: off})
		case '!':
			if s.Peek() == '=' {
				s.Next()
				toks = append(toks, token{kind: tokCompare, text: "!=", off: off})
			} else {
				errs = append(errs, ParseError{Off: off, Near: "!", Message: "unknown token"})
			}
		case '<':
			toks = append(toks, token{kind: tokCompare, text: compareText(&s, "<"), off: off})
		case '>':
			toks = append(toks, token{kind: tokCompare, text: compareText(&s, ">"), off: off})
		case '-':
			// Negative numeric literal. The scanner never combines the
			// sign with the digits, so glue them back together here.
			// Peek before scanning so a bare '-' does not swallow the
			// token after it.
			if ch := s.Peek(); ch >= '0' && ch <= '9' {
				s.Scan()
				toks = append(toks, token{kind: tokNumber, text: "-" + s.TokenText(), off: off})
			} else {
				errs = append(errs, ParseError{Off: off, Near: "-", Message: "unknown token"})
			}
		default:
			errs = append(errs, ParseError{
				Off:     off,
				Near:    s.TokenText(),
				Message: fmt.Sprintf("unknown token %q", s.TokenText()),
			})
		}
	}

	toks = append(toks, token{kind: tokEOF, off: len(input)})
	return toks, errs
}

// scanQuoted consumes a quoted string literal after its opening quote,
// handling backslash escapes. Returns false on EOF before the closing
// quote.
func scanQuoted(s *scanner.Scanner, quote rune) (string, bool) {
	var b strings.Builder
	for {
		ch := s.Next()
		switch ch {
		case scanner.EOF:
			return "", false
		case quote:
			return b.String(), true
		case '\\':
			esc := s.Next()
			if esc == scanner.EOF {
				return "", false
			}
			b.WriteRune(esc)
		default:
			b.WriteRune(ch)
		}
	}
}

// compareText extends < or > to <= or >= when the next rune is '='.
func compareText(s *scanner.Scanner, base string) string {
	if s.Peek() == '=' {
		s.Next()
		return base + "="
	}
	return base
}
