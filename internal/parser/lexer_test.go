package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexBasicTokens(t *testing.T) {
	toks, errs := lex("SELECT a, log:b.c")
	require.Empty(t, errs)

	kinds := make([]tokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.kind
	}
	assert.Equal(t, []tokenKind{
		tokIdent, tokIdent, tokComma, tokIdent, tokColon, tokIdent, tokPeriod, tokIdent, tokEOF,
	}, kinds)
}

func TestLexOffsets(t *testing.T) {
	toks, errs := lex("SELECT name")
	require.Empty(t, errs)
	require.Len(t, toks, 3)

	assert.Equal(t, 0, toks[0].off)
	assert.Equal(t, 7, toks[1].off)
	assert.Equal(t, len("SELECT name"), toks[2].off)
}

func TestLexCompareOperators(t *testing.T) {
	toks, errs := lex("= != < <= > >=")
	require.Empty(t, errs)
	require.Len(t, toks, 7)

	var texts []string
	for _, tok := range toks[:6] {
		assert.Equal(t, tokCompare, tok.kind)
		texts = append(texts, tok.text)
	}
	assert.Equal(t, []string{"=", "!=", "<", "<=", ">", ">="}, texts)
}

func TestLexStringLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single quoted", `'open'`, "open"},
		{"double quoted", `"open"`, "open"},
		{"escaped quote", `'it\'s'`, "it's"},
		{"escaped backslash", `'a\\b'`, `a\b`},
		{"empty", `''`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, errs := lex(tt.input)
			require.Empty(t, errs)
			require.Len(t, toks, 2)
			assert.Equal(t, tokString, toks[0].kind)
			assert.Equal(t, tt.want, toks[0].text)
		})
	}
}

func TestLexNumbers(t *testing.T) {
	toks, errs := lex("42 3.14 -7")
	require.Empty(t, errs)
	require.Len(t, toks, 4)

	assert.Equal(t, "42", toks[0].text)
	assert.Equal(t, "3.14", toks[1].text)
	assert.Equal(t, "-7", toks[2].text)
	for _, tok := range toks[:3] {
		assert.Equal(t, tokNumber, tok.kind)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, errs := lex("'never closed")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "unterminated string")
}

func TestLexUnknownToken(t *testing.T) {
	toks, errs := lex("a # b")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "unknown token")

	// Scanning continues past the bad character.
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].text)
	assert.Equal(t, "b", toks[1].text)
}

func TestLexBareBang(t *testing.T) {
	_, errs := lex("a ! b")
	require.Len(t, errs, 1)
	assert.Equal(t, "!", errs[0].Near)
}

func TestLexBareMinusKeepsFollowingToken(t *testing.T) {
	toks, errs := lex("a - b")
	require.Len(t, errs, 1)
	assert.Equal(t, "-", errs[0].Near)

	// The token after the stray minus survives.
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].text)
	assert.Equal(t, "b", toks[1].text)
}
