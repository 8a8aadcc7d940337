package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symstack-labs/symsh/pkg/expr"
)

func mustParse(t *testing.T, input string) expr.Expr {
	t.Helper()
	e, err := ParseExpression(input)
	require.NoError(t, err, "input %q", input)
	return e
}

func TestParsePrecedence(t *testing.T) {
	x := expr.S("x")

	got := mustParse(t, "1 + 2 * x")
	want := expr.AddOf(expr.N(1), expr.MulOf(expr.N(2), x))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)

	got = mustParse(t, "(1 + 2) * x")
	want = expr.MulOf(expr.N(3), x)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestParsePowerRightAssociative(t *testing.T) {
	x := expr.S("x")
	got := mustParse(t, "x ^ 2 ^ 3")
	want := expr.PowOf(x, expr.N(8))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestParseUnaryMinus(t *testing.T) {
	x := expr.S("x")

	got := mustParse(t, "-x")
	want := expr.MulOf(expr.N(-1), x)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)

	// Unary minus binds looser than the exponent.
	got = mustParse(t, "-x^2")
	want = expr.MulOf(expr.N(-1), expr.PowOf(x, expr.N(2)))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestParseDivisionAsNegativePower(t *testing.T) {
	got := mustParse(t, "1 / x")
	want := expr.PowOf(expr.S("x"), expr.N(-1))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestParseExactFractions(t *testing.T) {
	got := mustParse(t, "1/3 + 1/6")
	assert.True(t, got.Equal(expr.Frac(1, 2)), "got %s", got)
}

func TestParseDecimalLiteral(t *testing.T) {
	got := mustParse(t, "0.25")
	assert.True(t, got.Equal(expr.Frac(1, 4)), "got %s", got)
}

func TestParseFunctionCalls(t *testing.T) {
	x := expr.S("x")

	got := mustParse(t, "sin(x)")
	assert.True(t, got.Equal(expr.SinOf(x)), "got %s", got)

	got = mustParse(t, "sqrt(x)")
	assert.True(t, got.Equal(expr.SqrtOf(x)), "got %s", got)

	got = mustParse(t, "log(x)")
	assert.True(t, got.Equal(expr.LnOf(x)), "got %s", got)
}

func TestParseFactorialPostfix(t *testing.T) {
	got := mustParse(t, "5!")
	assert.True(t, got.Equal(expr.N(120)), "got %s", got)
}

func TestParseModuloOperator(t *testing.T) {
	got := mustParse(t, "7 % 3")
	assert.True(t, got.Equal(expr.N(1)), "got %s", got)
}

func TestParseDoubleStarPower(t *testing.T) {
	got := mustParse(t, "2 ** 5")
	assert.True(t, got.Equal(expr.N(32)), "got %s", got)
}

func TestParseUnicodeInput(t *testing.T) {
	got := mustParse(t, "2×π") // 2×π
	want := expr.MulOf(expr.N(2), expr.Pi)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"1 +",
		"(x + 1",
		"sin(x",
		"* 3",
		"x y",
	}
	for _, input := range cases {
		_, err := ParseExpression(input)
		require.Error(t, err, "input %q", input)
		var pe *ParseError
		require.ErrorAs(t, err, &pe, "input %q", input)
		assert.Contains(t, err.Error(), "parse error at line")
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := ParseExpression("1 + * 2")
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, 1, pe.Pos.Line)
	assert.Equal(t, 5, pe.Pos.Column)
}

func TestParseEquationForms(t *testing.T) {
	x := expr.S("x")

	eq, err := ParseEquation("x^2 = 4")
	require.NoError(t, err)
	assert.True(t, eq.LHS.Equal(expr.PowOf(x, expr.N(2))))
	assert.True(t, eq.RHS.Equal(expr.N(4)))

	eq, err = ParseEquation("x - 3")
	require.NoError(t, err)
	assert.True(t, eq.RHS.Equal(expr.N(0)))
}

func TestParseStatementAssignment(t *testing.T) {
	stmt, err := ParseStatement("a = 2 + 3")
	require.NoError(t, err)
	assert.Equal(t, StmtAssign, stmt.Kind)
	assert.Equal(t, "a", stmt.Name)
	assert.True(t, stmt.Expr.Equal(expr.N(5)))
}

func TestParseStatementFuncDef(t *testing.T) {
	stmt, err := ParseStatement("f(x) = x^2 + 1")
	require.NoError(t, err)
	assert.Equal(t, StmtFuncDef, stmt.Kind)
	assert.Equal(t, "f", stmt.Name)
	assert.Equal(t, "x", stmt.Param)
	want := expr.AddOf(expr.PowOf(expr.S("x"), expr.N(2)), expr.N(1))
	assert.True(t, stmt.Expr.Equal(want))
}

func TestParseStatementBareExpression(t *testing.T) {
	stmt, err := ParseStatement("sin(x) + 1")
	require.NoError(t, err)
	assert.Equal(t, StmtExpr, stmt.Kind)
}

func TestParseMatrixLiteral(t *testing.T) {
	m, err := ParseMatrix("[[1, 2], [3, 4]]")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.True(t, m.Data[0][1].Equal(expr.N(2)))
	assert.True(t, m.Data[1][0].Equal(expr.N(3)))
}

func TestParseMatrixWithExpressions(t *testing.T) {
	m, err := ParseMatrix("[[1 + 1, x], [sin(0), 2^3]]")
	require.NoError(t, err)
	assert.True(t, m.Data[0][0].Equal(expr.N(2)))
	assert.True(t, m.Data[0][1].Equal(expr.S("x")))
	assert.True(t, m.Data[1][0].Equal(expr.N(0)))
	assert.True(t, m.Data[1][1].Equal(expr.N(8)))
}

func TestParseMatrixRaggedRows(t *testing.T) {
	_, err := ParseMatrix("[[1, 2], [3]]")
	require.Error(t, err)
}
