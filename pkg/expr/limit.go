package expr

import (
	"fmt"
	"math"
)

// Direction selects the approach side for a limit.
type Direction int

const (
	// Both is the default two-sided limit.
	Both Direction = iota
	// FromRight approaches the point from above.
	FromRight
	// FromLeft approaches the point from below.
	FromLeft
)

// maxLHopital bounds the L'Hopital recursion depth.
const maxLHopital = 5

// LimitResult holds the outcome of a limit computation. When Success
// is false, Err carries the reason.
type LimitResult struct {
	Value   Expr
	Success bool
	Err     error
}

// Limit computes lim_{name -> point} of e. The point may be PosInf or
// NegInf for limits at infinity. The strategy is direct substitution,
// then L'Hopital for 0/0 quotients, then a Taylor fallback; one-sided
// and infinite limits use a numeric probe.
func Limit(e Expr, name string, point Expr, dir Direction) LimitResult {
	if isInfPoint(point) {
		return limitAtInfinity(e, name, point)
	}
	if dir != Both {
		return limitOneSided(e, name, point, dir)
	}
	return limitRecursive(e, name, point, maxLHopital)
}

// PosInf and NegInf are the limit points at infinity.
var (
	PosInf = S("inf")
	NegInf Expr = MulOf(N(-1), S("inf"))
)

func isInfPoint(point Expr) bool {
	if s, ok := point.(*Sym); ok && s.name == "inf" {
		return true
	}
	if m, ok := point.(*Mul); ok {
		for _, f := range m.factors {
			if s, ok2 := f.(*Sym); ok2 && s.name == "inf" {
				return true
			}
		}
	}
	return false
}

func infSign(point Expr) float64 {
	if m, ok := point.(*Mul); ok {
		if n, ok2 := m.factors[0].(*Num); ok2 && n.IsNegative() {
			return -1
		}
	}
	return 1
}

func limitRecursive(e Expr, name string, point Expr, depth int) LimitResult {
	e = e.Simplify()

	// A vanishing denominator makes plain substitution unreliable: the
	// product fold would turn 0 * x^-1 into 0. Detect that case before
	// trusting the substituted value.
	denomVanishes := false
	if num, denom, ok := extractQuotient(e); ok {
		denAt := denom.Sub(name, point).Simplify()
		if dv, dok := denAt.Eval(); dok && dv.IsZero() {
			denomVanishes = true
			numAt := num.Sub(name, point).Simplify()
			if nv, nok := numAt.Eval(); nok && nv.IsZero() && depth > 0 {
				return limitRecursive(
					MulOf(Diff(num, name), PowOf(Diff(denom, name), N(-1))),
					name, point, depth-1,
				)
			}
		}
	}

	if !denomVanishes {
		subbed := e.Sub(name, point).Simplify()
		if v, ok := subbed.Eval(); ok {
			f := v.Float64()
			if !math.IsNaN(f) && !math.IsInf(f, 0) {
				return LimitResult{Value: subbed, Success: true}
			}
		}
		// Substitution may leave a symbolic constant (pi, other free
		// symbols). A leftover with no symbols at all is an unevaluable
		// form like 0^-1 and falls through to the other strategies.
		syms := map[string]struct{}{}
		collectSymbols(subbed, syms)
		if _, hasVar := syms[name]; !hasVar && len(syms) > 0 {
			return LimitResult{Value: subbed, Success: true}
		}
	}

	// Taylor fallback around the point.
	if _, ok := point.Eval(); ok {
		series := TaylorSeries(e, name, point, 4)
		subSeries := series.Sub(name, point).Simplify()
		if v, ok2 := subSeries.Eval(); ok2 {
			f := v.Float64()
			if !math.IsNaN(f) && !math.IsInf(f, 0) {
				return LimitResult{Value: subSeries, Success: true}
			}
		}
	}

	return LimitResult{
		Err: fmt.Errorf("%w: limit could not be determined: %s as %s -> %s",
			ErrNoRule, e.String(), name, point.String()),
	}
}

// extractQuotient splits a product into numerator and denominator when
// it contains factors with exponent -1.
func extractQuotient(e Expr) (num, denom Expr, ok bool) {
	m, isMul := e.(*Mul)
	if !isMul {
		return nil, nil, false
	}
	var numFactors, denomFactors []Expr
	for _, f := range m.factors {
		if p, isPow := f.(*Pow); isPow {
			if en, isNum := p.exp.(*Num); isNum && en.IsNegOne() {
				denomFactors = append(denomFactors, p.base)
				continue
			}
		}
		numFactors = append(numFactors, f)
	}
	if len(denomFactors) == 0 {
		return nil, nil, false
	}
	switch len(numFactors) {
	case 0:
		num = N(1)
	case 1:
		num = numFactors[0]
	default:
		num = &Mul{factors: numFactors}
	}
	if len(denomFactors) == 1 {
		denom = denomFactors[0]
	} else {
		denom = &Mul{factors: denomFactors}
	}
	return num, denom, true
}

// probeSteps are the shrinking offsets used by the numeric probes.
var probeSteps = []float64{1e-3, 1e-4, 1e-5, 1e-6, 1e-7}

func limitOneSided(e Expr, name string, point Expr, dir Direction) LimitResult {
	// A clean two-sided value also answers the one-sided question.
	if two := limitRecursive(e, name, point, maxLHopital); two.Success {
		return two
	}

	p, err := EvalFloat(point, nil)
	if err != nil {
		return LimitResult{Err: fmt.Errorf("limit point: %w", err)}
	}
	sign := 1.0
	if dir == FromLeft {
		sign = -1
	}
	vals := make([]float64, 0, len(probeSteps))
	for _, h := range probeSteps {
		v, err := EvalFloat(e, &EvalEnv{Bindings: map[string]float64{name: p + sign*h}})
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return classifyProbe(e, name, point, vals)
}

func limitAtInfinity(e Expr, name string, point Expr) LimitResult {
	sign := infSign(point)
	vals := make([]float64, 0, 5)
	for _, mag := range []float64{1e4, 1e5, 1e6, 1e7, 1e8} {
		v, err := EvalFloat(e, &EvalEnv{Bindings: map[string]float64{name: sign * mag}})
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return classifyProbe(e, name, point, vals)
}

// classifyProbe inspects a sequence of samples taken while approaching
// the point: convergence yields the value, monotone blow-up yields a
// signed infinity, anything else is undetermined.
func classifyProbe(e Expr, name string, point Expr, vals []float64) LimitResult {
	fail := LimitResult{
		Err: fmt.Errorf("%w: limit could not be determined: %s as %s -> %s",
			ErrNoRule, e.String(), name, point.String()),
	}
	if len(vals) < 3 {
		return fail
	}
	last := vals[len(vals)-1]
	prev := vals[len(vals)-2]

	// Convergence test, scaled for large magnitudes.
	tol := 1e-6 * math.Max(1, math.Abs(last))
	if math.Abs(last-prev) < tol {
		if math.Abs(last-math.Round(last)) < 1e-6 {
			return LimitResult{Value: N(int64(math.Round(last))), Success: true}
		}
		return LimitResult{Value: Float(last), Success: true}
	}

	// Blow-up test: strictly growing magnitude with a stable sign.
	growing := true
	for i := 1; i < len(vals); i++ {
		if math.Abs(vals[i]) <= math.Abs(vals[i-1]) || vals[i]*vals[i-1] < 0 {
			growing = false
			break
		}
	}
	if growing && math.Abs(last) > 1e6 {
		if last > 0 {
			return LimitResult{Value: PosInf, Success: true}
		}
		return LimitResult{Value: NegInf, Success: true}
	}
	return fail
}
