package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func div(num, denom Expr) Expr {
	return MulOf(num, PowOf(denom, N(-1)))
}

func TestLimitDirectSubstitution(t *testing.T) {
	x := S("x")
	res := Limit(AddOf(PowOf(x, N(2)), N(1)), "x", N(2), Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(N(5)), "got %s", res.Value)
}

func TestLimitSinXOverX(t *testing.T) {
	x := S("x")
	res := Limit(div(SinOf(x), x), "x", N(0), Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(N(1)), "got %s", res.Value)
}

func TestLimitRemovableSingularity(t *testing.T) {
	x := S("x")
	// (x^2 - 1) / (x - 1) -> 2 at x = 1
	num := AddOf(PowOf(x, N(2)), N(-1))
	denom := AddOf(x, N(-1))
	res := Limit(div(num, denom), "x", N(1), Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(N(2)), "got %s", res.Value)
}

func TestLimitAtInfinity(t *testing.T) {
	x := S("x")
	res := Limit(div(N(1), x), "x", PosInf, Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(N(0)), "got %s", res.Value)
}

func TestLimitRationalAtInfinity(t *testing.T) {
	x := S("x")
	// (2x^2 + 1) / (x^2 + 3) -> 2
	num := AddOf(MulOf(N(2), PowOf(x, N(2))), N(1))
	denom := AddOf(PowOf(x, N(2)), N(3))
	res := Limit(div(num, denom), "x", PosInf, Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(N(2)), "got %s", res.Value)
}

func TestLimitExpAtNegativeInfinity(t *testing.T) {
	res := Limit(ExpOf(S("x")), "x", NegInf, Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(N(0)), "got %s", res.Value)
}

func TestLimitOneSidedReciprocal(t *testing.T) {
	x := S("x")
	res := Limit(div(N(1), x), "x", N(0), FromRight)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(PosInf), "got %s", res.Value)

	res = Limit(div(N(1), x), "x", N(0), FromLeft)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(NegInf), "got %s", res.Value)
}

func TestLimitTwoSidedReciprocalUndetermined(t *testing.T) {
	x := S("x")
	res := Limit(div(N(1), x), "x", N(0), Both)
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoRule)
}

func TestLimitSymbolicConstantResult(t *testing.T) {
	x := S("x")
	res := Limit(MulOf(Pi, x), "x", N(2), Both)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, res.Value.Equal(MulOf(N(2), Pi)), "got %s", res.Value)
}
