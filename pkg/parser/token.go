// Package parser turns calculator input into expression trees. It
// covers plain expressions, equations, assignments, function
// definitions, and matrix literals.
package parser

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_IDENT
	TOKEN_NUMBER

	// Operators
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_CARET
	TOKEN_PERCENT
	TOKEN_BANG
	TOKEN_EQUALS

	// Delimiters
	TOKEN_COMMA
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACKET
	TOKEN_RBRACKET
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:      "EOF",
	TOKEN_ILLEGAL:  "ILLEGAL",
	TOKEN_IDENT:    "IDENT",
	TOKEN_NUMBER:   "NUMBER",
	TOKEN_PLUS:     "+",
	TOKEN_MINUS:    "-",
	TOKEN_STAR:     "*",
	TOKEN_SLASH:    "/",
	TOKEN_CARET:    "^",
	TOKEN_PERCENT:  "%",
	TOKEN_BANG:     "!",
	TOKEN_EQUALS:   "=",
	TOKEN_COMMA:    ",",
	TOKEN_LPAREN:   "(",
	TOKEN_RPAREN:   ")",
	TOKEN_LBRACKET: "[",
	TOKEN_RBRACKET: "]",
}

func (t TokenType) String() string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position is a location in the input (1-based line and column).
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
