package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symstack-labs/symsh/pkg/expr"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNewDefaults(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, "exact", e.Mode())
	assert.Equal(t, 12, e.Precision())
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(Config{Mode: "symbolic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")

	_, err = New(Config{Precision: 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid precision")
}

func TestExecuteBareExpression(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("1/3 + 1/6")
	require.NoError(t, err)
	assert.Equal(t, "1/2", res.Body)
	assert.Equal(t, KindNumber, res.Kind)
}

func TestExecuteEvalCommand(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("eval 2^10")
	require.NoError(t, err)
	assert.Equal(t, "1024", res.Body)
}

func TestExecuteBlankLine(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("   ")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAnsHistory(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("6 * 7")
	require.NoError(t, err)

	res, err := e.Execute("ans + 8")
	require.NoError(t, err)
	assert.Equal(t, "50", res.Body)

	res, err = e.Execute("ans(2)")
	require.NoError(t, err)
	assert.Equal(t, "42", res.Body)
}

func TestAnsWithoutHistory(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("ans")
	require.Error(t, err)
}

func TestAssignmentAndClear(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("a = 5")
	require.NoError(t, err)
	assert.Equal(t, "a", res.Label)
	assert.Equal(t, "5", res.Body)

	res, err = e.Execute("a^2 + 1")
	require.NoError(t, err)
	assert.Equal(t, "26", res.Body)

	res, err = e.Execute("clear a")
	require.NoError(t, err)
	assert.Equal(t, "cleared a", res.Body)

	res, err = e.Execute("a")
	require.NoError(t, err)
	assert.Equal(t, "a", res.Body)
	assert.Equal(t, KindExpression, res.Kind)
}

func TestUserFunction(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("f(x) = x^2 + 1")
	require.NoError(t, err)

	res, err := e.Execute("f(3)")
	require.NoError(t, err)
	assert.Equal(t, "10", res.Body)
}

func TestSimplifyCommand(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("simplify sin(x)^2 + cos(x)^2")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Body)
}

func TestDiffDefaults(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("diff x^3")
	require.NoError(t, err)

	want := expr.MulOf(expr.N(3), expr.PowOf(expr.S("x"), expr.N(2)))
	assert.Equal(t, want.String(), res.Body)
}

func TestDiffVarAndOrder(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("diff t^4 ; t ; 2")
	require.NoError(t, err)

	want := expr.MulOf(expr.N(12), expr.PowOf(expr.S("t"), expr.N(2)))
	assert.Equal(t, want.String(), res.Body)
}

func TestDiffInvalidOrder(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("diff x^2 ; x ; 0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order")
}

func TestDiffRejectsUnknownFunction(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("diff foo(x) ; x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no derivative rule for "foo"`)
}

func TestDiffRejectsFloor(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("diff floor(x) + x^2 ; x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no derivative rule for "floor"`)
}

func TestDiffExpandsUserFunction(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("g(x) = x^3")
	require.NoError(t, err)

	res, err := e.Execute("diff g(x) ; x")
	require.NoError(t, err)
	want := expr.MulOf(expr.N(3), expr.PowOf(expr.S("x"), expr.N(2)))
	assert.Equal(t, want.String(), res.Body)
}

func TestSeriesRejectsUnknownFunction(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("series foo(x) ; x ; 0 ; 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no derivative rule for "foo"`)
}

func TestIntegrateIndefinite(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("integrate x^2")
	require.NoError(t, err)

	want := expr.MulOf(expr.Frac(1, 3), expr.PowOf(expr.S("x"), expr.N(3)))
	assert.Equal(t, want.String(), res.Body)
}

func TestIntegrateDefiniteExact(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("integrate x^2 ; x ; 0 ; 1")
	require.NoError(t, err)
	assert.Equal(t, "1/3", res.Body)
	assert.Equal(t, KindNumber, res.Kind)
}

func TestIntegrateUnpairedBounds(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("integrate x^2 ; x ; 0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounds come in pairs")
}

func TestIntegrateNoRule(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("integrate sin(x^2)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no integration rule")
}

func TestLimitRemovableSingularity(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("limit sin(x) * x^-1 ; x ; 0")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Body)
}

func TestLimitAtInfinity(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("limit 1/x ; x ; inf")
	require.NoError(t, err)
	assert.Equal(t, "0", res.Body)
}

func TestLimitDirection(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("limit 1/x ; x ; 0 ; sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction")
}

func TestLimitUndetermined(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("limit 1/x ; x ; 0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit could not be determined")
}

func TestSeriesDefaults(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("series exp(x) ; x ; 0 ; 3")
	require.NoError(t, err)

	want := expr.TaylorSeries(expr.ExpOf(expr.S("x")), "x", expr.N(0), 3)
	assert.Equal(t, want.String(), res.Body)
}

func TestSeriesRemainder(t *testing.T) {
	e := newTestEngine(t)
	e.SeriesRemainder = true
	res, err := e.Execute("series exp(x) ; x ; 0 ; 3")
	require.NoError(t, err)
	assert.Contains(t, res.Body, "O(x^4)")
}

func TestNumericPrecision(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("numeric pi ; precision=4")
	require.NoError(t, err)
	assert.Equal(t, "3.142", res.Body)
	assert.Equal(t, KindNumber, res.Kind)
}

func TestNumericBindings(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("numeric x^2 + y ; x=3 ; y=1")
	require.NoError(t, err)
	assert.Equal(t, "10", res.Body)
}

func TestNumericUnboundSymbol(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("numeric x + 1")
	require.Error(t, err)
}

func TestSolveQuadratic(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("solve x^2 = 4")
	require.NoError(t, err)
	assert.Equal(t, KindList, res.Kind)
	assert.Equal(t, []string{"x = -2", "x = 2"}, res.Items)
}

func TestSolveLinearSystem(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("solve x + y = 3 ; x - y = 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 2", "y = 1"}, res.Items)
}

func TestSolveExplicitVars(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("solve y + x = 3 ; y - x = 1 ; x, y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 1", "y = 2"}, res.Items)
}

func TestSolveNoUnknowns(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("solve 1 = 2")
	require.Error(t, err)
}

func TestMatrixDeterminant(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("matrix det ; [[1, 2], [3, 4]]")
	require.NoError(t, err)
	assert.Equal(t, "-2", res.Body)
}

func TestMatrixInverse(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("matrix inv ; [[2, 0], [0, 2]]")
	require.NoError(t, err)
	assert.Equal(t, KindMatrix, res.Kind)
	assert.Equal(t, [][]string{{"1/2", "0"}, {"0", "1/2"}}, res.Cells)
}

func TestMatrixEigenvals(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("matrix eigenvals ; [[2, 0], [0, 3]]")
	require.NoError(t, err)
	assert.Equal(t, KindList, res.Kind)
	assert.Equal(t, []string{"2", "3"}, res.Items)
}

func TestMatrixEigenvalsRepeated(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("matrix eigenvals ; [[2, 0], [0, 2]]")
	require.NoError(t, err)
	assert.Equal(t, []string{"2 (multiplicity 2)"}, res.Items)
}

func TestMatrixEigenvects(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("matrix eigenvects ; [[2, 0], [0, 3]]")
	require.NoError(t, err)
	assert.Equal(t, KindList, res.Kind)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "2 (multiplicity 1): [1, 0]", res.Items[0])
	assert.Equal(t, "3 (multiplicity 1): [0, 1]", res.Items[1])
}

func TestMatrixEigenvectsDefective(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Execute("matrix eigenvects ; [[1, 1], [0, 1]]")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "1 (multiplicity 2): [1, 0]", res.Items[0])
}

func TestMatrixAddDimensionMismatch(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("matrix add ; [[1, 2]] ; [[1], [2]]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot add")
}

func TestMatrixUnknownOp(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("matrix frobnicate ; [[1]]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown matrix operation")
}

func TestMatrixSessionBindings(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute("a = 3")
	require.NoError(t, err)

	res, err := e.Execute("matrix trace ; [[a, 0], [0, a]]")
	require.NoError(t, err)
	assert.Equal(t, "6", res.Body)
}

func TestFloatMode(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetMode("float"))

	res, err := e.Execute("1/4")
	require.NoError(t, err)
	assert.Equal(t, "0.25", res.Body)
	assert.Equal(t, KindNumber, res.Kind)

	// Free symbols stay symbolic even in float mode.
	res, err = e.Execute("x + x")
	require.NoError(t, err)
	assert.Equal(t, KindExpression, res.Kind)
}

func TestSetPrecisionBounds(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetPrecision(6))
	assert.Equal(t, 6, e.Precision())
	require.Error(t, e.SetPrecision(0))
	require.Error(t, e.SetPrecision(51))
}

func TestVarsListing(t *testing.T) {
	e := newTestEngine(t)
	res := e.Vars()
	assert.Equal(t, "no definitions", res.Body)

	_, err := e.Execute("a = 1")
	require.NoError(t, err)
	_, err = e.Execute("g(t) = t + 1")
	require.NoError(t, err)

	res = e.Vars()
	assert.Equal(t, KindTable, res.Kind)
	assert.Equal(t, [][]string{{"a", "1"}, {"g(t)", "t + 1"}}, res.Cells)
}

func TestHistoryWithoutStore(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.History(10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no state store")
}

func TestHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	e, err := New(Config{StatePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	_, err = e.Execute("1 + 1")
	require.NoError(t, err)
	_, execErr := e.Execute("1 +")
	require.Error(t, execErr)

	res, err := e.History(10)
	require.NoError(t, err)
	assert.Equal(t, KindTable, res.Kind)
	require.Len(t, res.Cells, 2)
	// Recent returns newest first.
	assert.Equal(t, "1 +", res.Cells[0][1])
	assert.Contains(t, res.Cells[0][2], "error:")
	assert.Equal(t, "1 + 1", res.Cells[1][1])
	assert.Equal(t, "2", res.Cells[1][2])
}

func TestMacroFunctions(t *testing.T) {
	dir := t.TempDir()
	src := "def double(x):\n    return x * 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.star"), []byte(src), 0o644))

	e, err := New(Config{MacrosDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	assert.Equal(t, []string{"util.double"}, e.MacroNames())

	res, err := e.Execute("numeric util.double(21)")
	require.NoError(t, err)
	assert.Equal(t, "42", res.Body)
}

func TestSessionSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")

	e := newTestEngine(t)
	_, err := e.Execute("a = 7")
	require.NoError(t, err)
	require.NoError(t, e.SaveSession(path))

	e2 := newTestEngine(t)
	require.NoError(t, e2.LoadSession(path))
	res, err := e2.Execute("a + 1")
	require.NoError(t, err)
	assert.Equal(t, "8", res.Body)
}
