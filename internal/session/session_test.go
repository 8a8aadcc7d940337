package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symstack-labs/symsh/pkg/expr"
)

func TestAssignAndResolve(t *testing.T) {
	s := New(ModeExact, 12)
	require.NoError(t, s.Assign("a", expr.N(3)))

	e := expr.AddOf(expr.S("a"), expr.N(1))
	got, err := s.Resolve(e)
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.N(4)), "got %s", got)
}

func TestAssignRejectsBuiltinNames(t *testing.T) {
	s := New(ModeExact, 12)
	for _, name := range []string{"sin", "pi", "e", "ans", "sqrt"} {
		err := s.Assign(name, expr.N(1))
		require.Error(t, err, "name %q", name)
	}
	err := s.DefineFunc("cos", "x", expr.S("x"))
	require.Error(t, err)
}

func TestChainedBindings(t *testing.T) {
	s := New(ModeExact, 12)
	require.NoError(t, s.Assign("a", expr.N(2)))
	require.NoError(t, s.Assign("b", expr.MulOf(expr.S("a"), expr.N(3))))

	got, err := s.Resolve(expr.S("b"))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.N(6)), "got %s", got)
}

func TestSelfReferentialBindingErrors(t *testing.T) {
	s := New(ModeExact, 12)
	require.NoError(t, s.Assign("a", expr.AddOf(expr.S("a"), expr.N(1))))
	_, err := s.Resolve(expr.S("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion")
}

func TestUserFunctionApplication(t *testing.T) {
	s := New(ModeExact, 12)
	body := expr.AddOf(expr.PowOf(expr.S("x"), expr.N(2)), expr.N(1))
	require.NoError(t, s.DefineFunc("f", "x", body))

	got, err := s.Resolve(expr.CallOf("f", expr.N(3)))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.N(10)), "got %s", got)

	// Symbolic argument stays symbolic.
	got, err = s.Resolve(expr.CallOf("f", expr.S("y")))
	require.NoError(t, err)
	want := expr.AddOf(expr.PowOf(expr.S("y"), expr.N(2)), expr.N(1))
	assert.True(t, got.Equal(want), "got %s", got)
}

func TestAnsHistory(t *testing.T) {
	s := New(ModeExact, 12)

	_, err := s.Resolve(expr.S("ans"))
	require.Error(t, err, "ans with no history must error")

	s.PushResult(expr.N(10))
	s.PushResult(expr.N(20))

	got, err := s.Resolve(expr.S("ans"))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.N(20)))

	got, err = s.Resolve(expr.CallOf("ans", expr.N(2)))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.N(10)))

	_, err = s.Resolve(expr.CallOf("ans", expr.N(5)))
	require.Error(t, err)
}

func TestClear(t *testing.T) {
	s := New(ModeExact, 12)
	require.NoError(t, s.Assign("a", expr.N(1)))
	require.NoError(t, s.DefineFunc("f", "x", expr.S("x")))

	require.NoError(t, s.Clear("a"))
	require.NoError(t, s.Clear("f"))
	require.Error(t, s.Clear("missing"))

	require.NoError(t, s.Assign("b", expr.N(2)))
	s.ClearAll()
	assert.Empty(t, s.Vars)
	assert.Empty(t, s.Funcs)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yml")

	s := New(ModeFloat, 8)
	require.NoError(t, s.Assign("a", expr.MulOf(expr.N(2), expr.S("x"))))
	require.NoError(t, s.DefineFunc("g", "t", expr.SinOf(expr.S("t"))))
	require.NoError(t, s.SaveFile(path))

	loaded := New(ModeExact, 12)
	require.NoError(t, loaded.LoadFile(path))
	assert.Equal(t, ModeFloat, loaded.Mode)
	assert.Equal(t, 8, loaded.Precision)

	got, err := loaded.Resolve(expr.S("a"))
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.MulOf(expr.N(2), expr.S("x"))), "got %s", got)

	fn, ok := loaded.Funcs["g"]
	require.True(t, ok)
	assert.Equal(t, "t", fn.Param)
}

func TestAnsRingBounded(t *testing.T) {
	s := New(ModeExact, 12)
	for i := int64(0); i < 150; i++ {
		s.PushResult(expr.N(i))
	}
	assert.Equal(t, 100, s.HistoryLen())
	got, err := s.Ans(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(expr.N(149)))
}
