package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffPowerRule(t *testing.T) {
	x := S("x")
	got := Diff(PowOf(x, N(3)), "x")
	want := MulOf(N(3), PowOf(x, N(2)))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDiffProductRule(t *testing.T) {
	x := S("x")
	got := Diff(MulOf(x, SinOf(x)), "x").Simplify()
	want := AddOf(SinOf(x), MulOf(x, CosOf(x))).Simplify()
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDiffChainRule(t *testing.T) {
	x := S("x")
	got := Diff(SinOf(PowOf(x, N(2))), "x").Simplify()
	want := MulOf(N(2), x, CosOf(PowOf(x, N(2)))).Simplify()
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDiffConstantAndOtherSymbol(t *testing.T) {
	assert.True(t, Diff(N(7), "x").Equal(N(0)))
	assert.True(t, Diff(S("y"), "x").Equal(N(0)))
	assert.True(t, Diff(S("x"), "x").Equal(N(1)))
}

func TestDiffN(t *testing.T) {
	x := S("x")
	got := DiffN(PowOf(x, N(4)), "x", 2).Simplify()
	want := MulOf(N(12), PowOf(x, N(2)))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDiffExpLn(t *testing.T) {
	x := S("x")
	gotExp := Diff(ExpOf(x), "x").Simplify()
	assert.True(t, gotExp.Equal(ExpOf(x)), "got %s", gotExp)

	gotLn := Diff(LnOf(x), "x").Simplify()
	assert.True(t, gotLn.Equal(PowOf(x, N(-1))), "got %s", gotLn)
}

func TestIntegratePolynomial(t *testing.T) {
	x := S("x")
	got, ok := Integrate(PowOf(x, N(2)), "x")
	require.True(t, ok)
	want := MulOf(Frac(1, 3), PowOf(x, N(3)))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestIntegrateSum(t *testing.T) {
	x := S("x")
	got, ok := Integrate(AddOf(MulOf(N(2), x), N(3)), "x")
	require.True(t, ok)
	want := AddOf(PowOf(x, N(2)), MulOf(N(3), x))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestIntegrateReciprocal(t *testing.T) {
	x := S("x")
	got, ok := Integrate(PowOf(x, N(-1)), "x")
	require.True(t, ok)
	assert.True(t, got.Equal(LnOf(AbsOf(x))), "got %s", got)
}

func TestIntegrateTrig(t *testing.T) {
	x := S("x")
	got, ok := Integrate(SinOf(x), "x")
	require.True(t, ok)
	assert.True(t, got.Equal(MulOf(N(-1), CosOf(x))), "got %s", got)

	got, ok = Integrate(CosOf(MulOf(N(2), x)), "x")
	require.True(t, ok)
	want := MulOf(Frac(1, 2), SinOf(MulOf(N(2), x)))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestIntegrateDerivativeRoundTrip(t *testing.T) {
	x := S("x")
	e := AddOf(MulOf(N(3), PowOf(x, N(2))), MulOf(N(2), x))
	anti, ok := Integrate(e, "x")
	require.True(t, ok)
	back := Diff(anti, "x").Simplify()
	assert.True(t, back.Equal(e.Simplify()), "d/dx %s = %s, want %s", anti, back, e)
}

func TestIntegrateNoRule(t *testing.T) {
	x := S("x")
	_, ok := Integrate(SinOf(PowOf(x, N(2))), "x")
	assert.False(t, ok, "sin(x^2) has no elementary antiderivative rule")
}

func TestDefiniteIntegratePolynomial(t *testing.T) {
	x := S("x")
	v, err := DefiniteIntegrate(PowOf(x, N(2)), "x", 0, 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, v, 1e-10)
}

func TestDefiniteIntegrateSin(t *testing.T) {
	v, err := DefiniteIntegrate(SinOf(S("x")), "x", 0, 3.141592653589793, nil)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-9)
}

func TestDefiniteIntegrateWithBindings(t *testing.T) {
	e := MulOf(S("a"), S("x"))
	v, err := DefiniteIntegrate(e, "x", 0, 2, &EvalEnv{Bindings: map[string]float64{"a": 3}})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v, 1e-10)
}

func TestMaclaurinSeriesExp(t *testing.T) {
	x := S("x")
	got := MaclaurinSeries(ExpOf(x), "x", 3)
	want := AddOf(N(1), x, MulOf(Frac(1, 2), PowOf(x, N(2))), MulOf(Frac(1, 6), PowOf(x, N(3))))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestMaclaurinSeriesSinSkipsEvenTerms(t *testing.T) {
	x := S("x")
	got := MaclaurinSeries(SinOf(x), "x", 5)
	want := AddOf(x, MulOf(Frac(-1, 6), PowOf(x, N(3))), MulOf(Frac(1, 120), PowOf(x, N(5))))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestTaylorSeriesAroundPoint(t *testing.T) {
	x := S("x")
	// x^2 around 1: 1 + 2(x-1) + (x-1)^2
	got := TaylorSeries(PowOf(x, N(2)), "x", N(1), 2)
	sub := got.Sub("x", N(3)).Simplify()
	assert.True(t, sub.Equal(N(9)), "series at x=3 gave %s", sub)
}

func TestTaylorSeriesWithRemainderAppendsOTerm(t *testing.T) {
	x := S("x")
	got := TaylorSeriesWithRemainder(ExpOf(x), "x", N(0), 2)
	assert.Contains(t, got.String(), "O(x^3)")
}

func TestMissingDerivative(t *testing.T) {
	x := S("x")

	name, ok := MissingDerivative(CallOf("foo", x))
	require.True(t, ok)
	assert.Equal(t, "foo", name)

	name, ok = MissingDerivative(AddOf(PowOf(x, N(2)), CallOf("floor", x)))
	require.True(t, ok)
	assert.Equal(t, "floor", name)

	name, ok = MissingDerivative(CallOf("mod", x, N(3)))
	require.True(t, ok)
	assert.Equal(t, "mod", name)

	_, ok = MissingDerivative(MulOf(x, SinOf(ExpOf(x))))
	assert.False(t, ok)
}
