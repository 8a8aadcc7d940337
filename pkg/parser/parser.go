// Package parser turns calculator input into expression trees.
//
// # Usage
//
//	e, err := parser.ParseExpression("sin(x)^2 + cos(x)^2")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser with precedence
// climbing:
//
//	statement  → IDENT '=' expr
//	           | IDENT '(' IDENT ')' '=' expr
//	           | expr
//	expr       → unary (('+'|'-'|'*'|'/'|'%'|'^') expr)*
//	unary      → ('-'|'+') unary | postfix
//	postfix    → primary '!'*
//	primary    → NUMBER | IDENT | IDENT '(' args ')' | '(' expr ')'
//	matrix     → '[' row (',' row)* ']'   with row → '[' expr (',' expr)* ']'
//
// '^' is right-associative; everything else associates left. Input is
// unicode-normalized first, so π, √(, ×, ÷, −, ² and ³ are accepted.
package parser

import (
	"fmt"
	"math/big"

	"github.com/symstack-labs/symsh/pkg/expr"
)

// Operator precedence levels, lowest first.
const (
	precLowest = iota
	precSum
	precProduct
	precPrefix
	precPower
)

var precedences = map[TokenType]int{
	TOKEN_PLUS:    precSum,
	TOKEN_MINUS:   precSum,
	TOKEN_STAR:    precProduct,
	TOKEN_SLASH:   precProduct,
	TOKEN_PERCENT: precProduct,
	TOKEN_CARET:   precPower,
}

// Parser is a recursive-descent expression parser.
type Parser struct {
	l    *Lexer
	cur  Token
	peek Token
}

// NewParser creates a parser over the given input.
func NewParser(input string) *Parser {
	p := &Parser{l: NewLexer(input)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(t TokenType) error {
	if p.cur.Type != t {
		return p.errorf(ErrUnexpectedToken, p.cur.Type, t)
	}
	p.next()
	return nil
}

// ParseExpression parses input as a single expression. Trailing input
// after the expression is an error.
func ParseExpression(input string) (expr.Expr, error) {
	p := NewParser(input)
	e, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_EOF {
		return nil, p.errorf(ErrTrailingInput, p.cur.Literal)
	}
	return e.Simplify(), nil
}

// ParseEquation parses input as lhs = rhs. Input without an equals
// sign is read as expr = 0.
func ParseEquation(input string) (*expr.Equation, error) {
	p := NewParser(input)
	lhs, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Type == TOKEN_EOF {
		return expr.Eq(lhs.Simplify(), expr.N(0)), nil
	}
	if err := p.expect(TOKEN_EQUALS); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_EOF {
		return nil, p.errorf(ErrTrailingInput, p.cur.Literal)
	}
	return expr.Eq(lhs.Simplify(), rhs.Simplify()), nil
}

// StatementKind discriminates the parsed statement forms.
type StatementKind int

const (
	// StmtExpr is a bare expression.
	StmtExpr StatementKind = iota
	// StmtAssign is a variable assignment: name = expr.
	StmtAssign
	// StmtFuncDef is a function definition: name(param) = expr.
	StmtFuncDef
)

// Statement is one parsed line of calculator input.
type Statement struct {
	Kind  StatementKind
	Name  string
	Param string
	Expr  expr.Expr
}

// ParseStatement parses a line of input as an assignment, a function
// definition, or a bare expression.
func ParseStatement(input string) (*Statement, error) {
	if stmt, ok, err := tryParseBinding(input); ok || err != nil {
		return stmt, err
	}
	e, err := ParseExpression(input)
	if err != nil {
		return nil, err
	}
	return &Statement{Kind: StmtExpr, Expr: e}, nil
}

// tryParseBinding recognizes the two binding forms by their token
// prefix: IDENT = ... and IDENT ( IDENT ) = ...
func tryParseBinding(input string) (*Statement, bool, error) {
	toks := Tokenize(input)

	if len(toks) >= 3 && toks[0].Type == TOKEN_IDENT && toks[1].Type == TOKEN_EQUALS {
		p := NewParser(input)
		name := p.cur.Literal
		p.next() // name
		p.next() // =
		body, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, true, err
		}
		if p.cur.Type != TOKEN_EOF {
			return nil, true, p.errorf(ErrTrailingInput, p.cur.Literal)
		}
		return &Statement{Kind: StmtAssign, Name: name, Expr: body.Simplify()}, true, nil
	}

	if len(toks) >= 6 &&
		toks[0].Type == TOKEN_IDENT &&
		toks[1].Type == TOKEN_LPAREN &&
		toks[2].Type == TOKEN_IDENT &&
		toks[3].Type == TOKEN_RPAREN &&
		toks[4].Type == TOKEN_EQUALS {
		p := NewParser(input)
		name := p.cur.Literal
		param := toks[2].Literal
		for i := 0; i < 5; i++ {
			p.next()
		}
		body, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, true, err
		}
		if p.cur.Type != TOKEN_EOF {
			return nil, true, p.errorf(ErrTrailingInput, p.cur.Literal)
		}
		return &Statement{Kind: StmtFuncDef, Name: name, Param: param, Expr: body.Simplify()}, true, nil
	}

	return nil, false, nil
}

func (p *Parser) parseExpression(minPrec int) (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec, isOp := precedences[p.cur.Type]
		if !isOp || prec < minPrec {
			return left, nil
		}
		op := p.cur.Type
		p.next()

		// ^ is right-associative, the rest left-associative.
		nextMin := prec + 1
		if op == TOKEN_CARET {
			nextMin = prec
		}
		right, err := p.parseExpression(nextMin)
		if err != nil {
			return nil, err
		}

		switch op {
		case TOKEN_PLUS:
			left = expr.AddOf(left, right)
		case TOKEN_MINUS:
			left = expr.AddOf(left, expr.MulOf(expr.N(-1), right))
		case TOKEN_STAR:
			left = expr.MulOf(left, right)
		case TOKEN_SLASH:
			left = expr.MulOf(left, expr.PowOf(right, expr.N(-1)))
		case TOKEN_PERCENT:
			left = expr.CallOf("mod", left, right)
		case TOKEN_CARET:
			left = expr.PowOf(left, right)
		}
	}
}

func (p *Parser) parseUnary() (expr.Expr, error) {
	switch p.cur.Type {
	case TOKEN_MINUS:
		p.next()
		operand, err := p.parseExpression(precPrefix)
		if err != nil {
			return nil, err
		}
		return expr.MulOf(expr.N(-1), operand), nil
	case TOKEN_PLUS:
		p.next()
		return p.parseExpression(precPrefix)
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (expr.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TOKEN_BANG {
		p.next()
		e = expr.CallOf("fact", e)
	}
	return e, nil
}

func (p *Parser) parsePrimary() (expr.Expr, error) {
	switch p.cur.Type {
	case TOKEN_NUMBER:
		lit := p.cur.Literal
		r, ok := new(big.Rat).SetString(lit)
		if !ok {
			return nil, p.errorf(ErrInvalidNumber, lit)
		}
		p.next()
		return expr.NumFromRat(r), nil

	case TOKEN_IDENT:
		name := p.cur.Literal
		if p.peek.Type == TOKEN_LPAREN {
			return p.parseCall(name)
		}
		p.next()
		return expr.S(name), nil

	case TOKEN_LPAREN:
		p.next()
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, p.errorf(ErrUnexpectedToken, p.cur.Type, "expression")
}

func (p *Parser) parseCall(name string) (expr.Expr, error) {
	p.next() // name
	p.next() // (

	var args []expr.Expr
	if p.cur.Type != TOKEN_RPAREN {
		for {
			arg, err := p.parseExpression(precLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Type != TOKEN_COMMA {
				break
			}
			p.next()
		}
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}

	// sqrt and log desugar onto the power and ln forms the calculus
	// rules know about.
	switch {
	case name == "sqrt" && len(args) == 1:
		return expr.SqrtOf(args[0]), nil
	case name == "log" && len(args) == 1:
		return expr.LnOf(args[0]), nil
	}
	return expr.CallOf(name, args...), nil
}

// ParseMatrix parses a matrix literal of the form
// [[a, b], [c, d]]. Entries are full expressions.
func ParseMatrix(input string) (*expr.Matrix, error) {
	p := NewParser(input)
	m, err := p.parseMatrixLiteral()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TOKEN_EOF {
		return nil, p.errorf(ErrTrailingInput, p.cur.Literal)
	}
	return m, nil
}

func (p *Parser) parseMatrixLiteral() (*expr.Matrix, error) {
	if err := p.expect(TOKEN_LBRACKET); err != nil {
		return nil, err
	}

	var rows [][]expr.Expr
	for {
		row, err := p.parseMatrixRow()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if p.cur.Type != TOKEN_COMMA {
			break
		}
		p.next()
	}
	if err := p.expect(TOKEN_RBRACKET); err != nil {
		return nil, err
	}
	return expr.NewMatrix(rows)
}

func (p *Parser) parseMatrixRow() ([]expr.Expr, error) {
	if err := p.expect(TOKEN_LBRACKET); err != nil {
		return nil, err
	}
	var row []expr.Expr
	for {
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		row = append(row, e.Simplify())
		if p.cur.Type != TOKEN_COMMA {
			break
		}
		p.next()
	}
	if err := p.expect(TOKEN_RBRACKET); err != nil {
		return nil, err
	}
	return row, nil
}
