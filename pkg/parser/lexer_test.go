package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerBasicTokens(t *testing.T) {
	input := "2 * (x + 1) ^ 3 / y - 4!"
	want := []struct {
		typ TokenType
		lit string
	}{
		{TOKEN_NUMBER, "2"},
		{TOKEN_STAR, "*"},
		{TOKEN_LPAREN, "("},
		{TOKEN_IDENT, "x"},
		{TOKEN_PLUS, "+"},
		{TOKEN_NUMBER, "1"},
		{TOKEN_RPAREN, ")"},
		{TOKEN_CARET, "^"},
		{TOKEN_NUMBER, "3"},
		{TOKEN_SLASH, "/"},
		{TOKEN_IDENT, "y"},
		{TOKEN_MINUS, "-"},
		{TOKEN_NUMBER, "4"},
		{TOKEN_BANG, "!"},
		{TOKEN_EOF, ""},
	}

	l := NewLexer(input)
	for i, w := range want {
		tok := l.NextToken()
		assert.Equal(t, w.typ, tok.Type, "token %d", i)
		assert.Equal(t, w.lit, tok.Literal, "token %d", i)
	}
}

func TestLexerNumbers(t *testing.T) {
	toks := Tokenize("3.14 1e6 2.5e-3 .5")
	require.Len(t, toks, 5)
	assert.Equal(t, "3.14", toks[0].Literal)
	assert.Equal(t, "1e6", toks[1].Literal)
	assert.Equal(t, "2.5e-3", toks[2].Literal)
	assert.Equal(t, ".5", toks[3].Literal)
	for _, tok := range toks[:4] {
		assert.Equal(t, TOKEN_NUMBER, tok.Type)
	}
}

func TestLexerDoubleStarIsPower(t *testing.T) {
	toks := Tokenize("x ** 2")
	require.Len(t, toks, 4)
	assert.Equal(t, TOKEN_CARET, toks[1].Type)
	assert.Equal(t, "**", toks[1].Literal)
}

func TestLexerUnicodeNormalization(t *testing.T) {
	toks := Tokenize("2×π") // 2×π
	require.Len(t, toks, 4)
	assert.Equal(t, TOKEN_NUMBER, toks[0].Type)
	assert.Equal(t, TOKEN_STAR, toks[1].Type)
	assert.Equal(t, TOKEN_IDENT, toks[2].Type)
	assert.Equal(t, "pi", toks[2].Literal)

	toks = Tokenize("x²") // x²
	require.Len(t, toks, 4)
	assert.Equal(t, TOKEN_CARET, toks[1].Type)
	assert.Equal(t, "2", toks[2].Literal)

	toks = Tokenize("√(9)") // √(9)
	require.GreaterOrEqual(t, len(toks), 4)
	assert.Equal(t, TOKEN_IDENT, toks[0].Type)
	assert.Equal(t, "sqrt", toks[0].Literal)
}

func TestLexerLineAndColumn(t *testing.T) {
	l := NewLexer("x +\ny")
	x := l.NextToken()
	assert.Equal(t, 1, x.Pos.Line)
	assert.Equal(t, 1, x.Pos.Column)

	plus := l.NextToken()
	assert.Equal(t, 1, plus.Pos.Line)

	y := l.NextToken()
	assert.Equal(t, 2, y.Pos.Line)
	assert.Equal(t, 1, y.Pos.Column)
}

func TestLexerIllegalCharacter(t *testing.T) {
	toks := Tokenize("x @ y")
	require.Len(t, toks, 4)
	assert.Equal(t, TOKEN_ILLEGAL, toks[1].Type)
	assert.Equal(t, "@", toks[1].Literal)
}
