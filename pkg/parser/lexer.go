package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// mathReplacer rewrites common mathematical glyphs into their ASCII
// spellings before lexing.
var mathReplacer = strings.NewReplacer(
	"π", "pi", // π
	"√(", "sqrt(", // √(
	"−", "-", // minus sign
	"×", "*", // ×
	"·", "*", // ·
	"÷", "/", // ÷
	"²", "^2", // ²
	"³", "^3", // ³
)

// Normalize applies NFC normalization and rewrites mathematical glyphs
// so the byte-oriented lexer only sees ASCII operators.
func Normalize(input string) string {
	return mathReplacer.Replace(norm.NFC.String(input))
}

// Lexer tokenizes calculator input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input. The input is
// normalized first, so unicode operators and constants are accepted.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: Normalize(input),
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() Position {
	return Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.currentPos()

	var tok Token
	tok.Pos = pos

	switch l.ch {
	case 0:
		tok.Type = TOKEN_EOF
		tok.Literal = ""
	case '+':
		tok = l.newToken(TOKEN_PLUS, "+")
	case '-':
		tok = l.newToken(TOKEN_MINUS, "-")
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok = Token{Type: TOKEN_CARET, Literal: "**", Pos: pos}
		} else {
			tok = l.newToken(TOKEN_STAR, "*")
		}
	case '/':
		tok = l.newToken(TOKEN_SLASH, "/")
	case '^':
		tok = l.newToken(TOKEN_CARET, "^")
	case '%':
		tok = l.newToken(TOKEN_PERCENT, "%")
	case '!':
		tok = l.newToken(TOKEN_BANG, "!")
	case '=':
		tok = l.newToken(TOKEN_EQUALS, "=")
	case ',':
		tok = l.newToken(TOKEN_COMMA, ",")
	case '(':
		tok = l.newToken(TOKEN_LPAREN, "(")
	case ')':
		tok = l.newToken(TOKEN_RPAREN, ")")
	case '[':
		tok = l.newToken(TOKEN_LBRACKET, "[")
	case ']':
		tok = l.newToken(TOKEN_RBRACKET, "]")
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Literal = l.readIdentifier()
			tok.Type = TOKEN_IDENT
			tok.Pos = pos
			return tok
		case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
			tok.Type = TOKEN_NUMBER
			tok.Literal = l.readNumber()
			tok.Pos = pos
			return tok
		default:
			tok = l.newToken(TOKEN_ILLEGAL, string(l.ch))
		}
	}

	l.readChar()
	return tok
}

// newToken creates a new token.
func (l *Lexer) newToken(tokenType TokenType, literal string) Token {
	return Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

// skipWhitespace skips spaces, tabs, and newlines.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readIdentifier reads an identifier. A dot followed by a letter stays
// inside the identifier, so qualified macro names like geometry.area
// lex as a single name.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || (l.ch == '.' && isLetter(l.peekChar())) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar() // skip 'e' or 'E'
			if l.ch == '+' || l.ch == '-' {
				l.readChar() // skip sign
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.input[start:l.pos]
}

// isLetter returns true if ch is a letter.
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	return tokens
}
