package expr

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SolveResult holds the roots found by a solver. Exact reports whether
// the solutions are exact rationals/symbolic forms rather than floats.
type SolveResult struct {
	Solutions []Expr
	Exact     bool
}

// SolvePolynomial solves residual = 0 for name, dispatching on degree:
// linear and quadratic exactly, cubic by Cardano, higher degrees by a
// numeric scan + Newton refinement.
func SolvePolynomial(residual Expr, name string) (SolveResult, error) {
	coeffs := PolyCoeffs(residual, name)
	deg := Degree(residual, name)

	get := func(d int) Expr {
		if c, ok := coeffs[d]; ok {
			return c
		}
		return N(0)
	}

	switch deg {
	case 0:
		if n, ok := residual.Simplify().(*Num); ok && n.IsZero() {
			return SolveResult{}, fmt.Errorf("%w: identity 0 = 0 has infinitely many solutions", ErrNoRule)
		}
		return SolveResult{}, fmt.Errorf("%w: equation has no unknown %s", ErrNoRule, name)
	case 1:
		return solveLinear(get(1), get(0))
	case 2:
		return solveQuadratic(get(2), get(1), get(0))
	case 3:
		return solveCubic(get(3), get(2), get(1), get(0))
	}
	return solveNewton(residual, name)
}

// solveLinear solves a*x + b = 0.
func solveLinear(a, b Expr) (SolveResult, error) {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	if aok && bok {
		if an.IsZero() {
			if bn.IsZero() {
				return SolveResult{}, fmt.Errorf("%w: identity 0 = 0 has infinitely many solutions", ErrNoRule)
			}
			return SolveResult{}, fmt.Errorf("%w: equation is inconsistent", ErrNoRule)
		}
		root, err := numDiv(numNeg(bn), an)
		if err != nil {
			return SolveResult{}, err
		}
		return SolveResult{Solutions: []Expr{root}, Exact: true}, nil
	}
	// Symbolic coefficients: express the root symbolically.
	return SolveResult{
		Solutions: []Expr{MulOf(N(-1), b, PowOf(a, N(-1))).Simplify()},
	}, nil
}

// solveQuadratic solves a*x^2 + b*x + c = 0, keeping exact roots when
// the discriminant is a perfect square.
func solveQuadratic(a, b, c Expr) (SolveResult, error) {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	cn, cok := c.Eval()
	if !aok || !bok || !cok {
		disc := AddOf(PowOf(b, N(2)), MulOf(N(-4), a, c))
		denom := MulOf(N(2), a)
		x1 := MulOf(AddOf(MulOf(N(-1), b), SqrtOf(disc)), PowOf(denom, N(-1)))
		x2 := MulOf(AddOf(MulOf(N(-1), b), MulOf(N(-1), SqrtOf(disc))), PowOf(denom, N(-1)))
		return SolveResult{Solutions: []Expr{x1.Simplify(), x2.Simplify()}, Exact: true}, nil
	}
	if an.IsZero() {
		return solveLinear(b, c)
	}
	af, bf, cf := an.Float64(), bn.Float64(), cn.Float64()
	disc := bf*bf - 4*af*cf
	if disc < 0 {
		return SolveResult{}, fmt.Errorf("%w: complex roots %g ± %gi", ErrNoRule,
			-bf/(2*af), math.Sqrt(-disc)/(2*af))
	}
	sq := math.Sqrt(disc)
	sqInt := int64(math.Round(sq))
	if float64(sqInt)*float64(sqInt) == disc && an.IsInteger() && bn.IsInteger() {
		twoA := numMul(N(2), an)
		x1, err := numDiv(numAdd(numNeg(bn), N(sqInt)), twoA)
		if err != nil {
			return SolveResult{}, err
		}
		x2, err := numDiv(numSub(numNeg(bn), N(sqInt)), twoA)
		if err != nil {
			return SolveResult{}, err
		}
		roots := []Expr{x1, x2}
		sortRoots(roots)
		return SolveResult{Solutions: roots, Exact: true}, nil
	}
	roots := []Expr{Float((-bf - sq) / (2 * af)), Float((-bf + sq) / (2 * af))}
	sortRoots(roots)
	return SolveResult{Solutions: roots}, nil
}

// solveCubic solves a*x^3 + b*x^2 + c*x + d = 0 by Cardano's method
// via the depressed cubic.
func solveCubic(a, b, c, d Expr) (SolveResult, error) {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	cn, cok := c.Eval()
	dn, dok := d.Eval()
	if !aok || !bok || !cok || !dok {
		return SolveResult{}, fmt.Errorf("%w: cubic requires numeric coefficients", ErrNoRule)
	}
	af, bf, cf, df := an.Float64(), bn.Float64(), cn.Float64(), dn.Float64()
	if af == 0 {
		return solveQuadratic(b, c, d)
	}
	p := (3*af*cf - bf*bf) / (3 * af * af)
	q := (2*bf*bf*bf - 9*af*bf*cf + 27*af*af*df) / (27 * af * af * af)
	offset := bf / (3 * af)
	disc := -(4*p*p*p + 27*q*q)

	var roots []Expr
	switch {
	case disc > 0:
		// Three real roots via trigonometric form.
		m := 2 * math.Sqrt(-p/3)
		theta := math.Acos(3*q/(p*m)) / 3
		for k := 0; k < 3; k++ {
			roots = append(roots, Float(m*math.Cos(theta-2*math.Pi*float64(k)/3)-offset))
		}
	case disc == 0:
		if q == 0 {
			roots = []Expr{Float(-offset)}
		} else {
			roots = []Expr{Float(3*q/p - offset), Float(-3 * q / (2 * p) - offset)}
		}
	default:
		A := math.Cbrt(-q/2 + math.Sqrt(q*q/4+p*p*p/27))
		B := 0.0
		if A != 0 {
			B = -p / (3 * A)
		}
		roots = []Expr{Float(A + B - offset)}
	}
	sortRoots(roots)
	return SolveResult{Solutions: roots}, nil
}

const (
	newtonSegments  = 8
	newtonScanRange = 100.0
	newtonScanSteps = 200
	newtonMaxIter   = 100
	newtonTol       = 1e-10
)

// solveNewton scans [-newtonScanRange, newtonScanRange] for sign
// changes and Newton-refines each candidate. The scan segments run in
// parallel; all goroutines finish before the function returns.
func solveNewton(e Expr, name string) (SolveResult, error) {
	f := func(x float64) float64 {
		v, err := EvalFloat(e, &EvalEnv{Bindings: map[string]float64{name: x}})
		if err != nil {
			return math.NaN()
		}
		return v
	}
	de := Diff(e, name)
	df := func(x float64) float64 {
		v, err := EvalFloat(de, &EvalEnv{Bindings: map[string]float64{name: x}})
		if err != nil {
			return math.NaN()
		}
		return v
	}

	var mu sync.Mutex
	var roots []float64
	addRoot := func(x float64) {
		mu.Lock()
		defer mu.Unlock()
		for _, r := range roots {
			if math.Abs(r-x) < newtonTol*100 {
				return
			}
		}
		roots = append(roots, x)
	}

	var g errgroup.Group
	perSegment := newtonScanSteps / newtonSegments
	for seg := 0; seg < newtonSegments; seg++ {
		start := seg * perSegment
		g.Go(func() error {
			for i := start; i < start+perSegment; i++ {
				x := -newtonScanRange + 2*newtonScanRange*float64(i)/newtonScanSteps
				for iter := 0; iter < newtonMaxIter; iter++ {
					fx := f(x)
					if math.IsNaN(fx) {
						break
					}
					if math.Abs(fx) < newtonTol {
						addRoot(x)
						break
					}
					dfx := df(x)
					if math.IsNaN(dfx) || math.Abs(dfx) < 1e-15 {
						break
					}
					x -= fx / dfx
					if math.Abs(x) > newtonScanRange*10 {
						break
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(roots) == 0 {
		return SolveResult{}, fmt.Errorf("%w: no real roots found in [%g, %g]",
			ErrNoRule, -newtonScanRange, newtonScanRange)
	}
	sort.Float64s(roots)
	solutions := make([]Expr, len(roots))
	for i, r := range roots {
		// Snap to integers the refinement landed next to.
		if math.Abs(r-math.Round(r)) < 1e-8 {
			solutions[i] = N(int64(math.Round(r)))
		} else {
			solutions[i] = Float(r)
		}
	}
	return SolveResult{Solutions: solutions}, nil
}

func sortRoots(roots []Expr) {
	sort.Slice(roots, func(i, j int) bool {
		a, aok := roots[i].Eval()
		b, bok := roots[j].Eval()
		if aok && bok {
			return numCmp(a, b) < 0
		}
		return roots[i].String() < roots[j].String()
	})
}

// SolveLinearSystem solves the residuals as a linear system in vars by
// Gaussian elimination over exact rationals. Each residual must be
// linear in every unknown with rational coefficients.
func SolveLinearSystem(residuals []Expr, vars []string) (map[string]Expr, error) {
	n := len(vars)
	if len(residuals) != n {
		return nil, fmt.Errorf("%w: %d equations for %d unknowns", ErrNoRule, len(residuals), n)
	}

	// Extract coefficients by substitution: the constant term is the
	// residual at the origin; coefficient i is residual(e_i) - const.
	zeroed := func(e Expr, unit string) Expr {
		out := e
		for _, v := range vars {
			switch v {
			case unit:
				out = out.Sub(v, N(1))
			default:
				out = out.Sub(v, N(0))
			}
		}
		return out.Simplify()
	}

	a := make([][]*big.Rat, n)
	b := make([]*big.Rat, n)
	for i, res := range residuals {
		constTerm, ok := zeroed(res, "").Eval()
		if !ok {
			return nil, fmt.Errorf("%w: equation %d is not linear with rational coefficients", ErrNoRule, i+1)
		}
		a[i] = make([]*big.Rat, n)
		recon := []Expr{NumFromRat(constTerm.Rat())}
		for j, v := range vars {
			at, ok := zeroed(res, v).Eval()
			if !ok {
				return nil, fmt.Errorf("%w: equation %d is not linear with rational coefficients", ErrNoRule, i+1)
			}
			coeff := numSub(at, constTerm)
			a[i][j] = coeff.Rat()
			recon = append(recon, MulOf(coeff, S(v)))
		}
		// Linearity check: the reconstruction must match the residual.
		if !AddOf(recon...).Simplify().Equal(res.Simplify()) {
			return nil, fmt.Errorf("%w: equation %d is not linear in %v", ErrNoRule, i+1, vars)
		}
		b[i] = new(big.Rat).Neg(constTerm.Rat())
	}

	sol, err := gaussianEliminate(a, b)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Expr, n)
	for i, v := range vars {
		out[v] = NumFromRat(sol[i])
	}
	return out, nil
}

// gaussianEliminate solves a*x = b over rationals with partial
// pivoting by magnitude.
func gaussianEliminate(a [][]*big.Rat, b []*big.Rat) ([]*big.Rat, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := -1
		var best *big.Rat
		for row := col; row < n; row++ {
			abs := new(big.Rat).Abs(a[row][col])
			if abs.Sign() != 0 && (pivot < 0 || abs.Cmp(best) > 0) {
				pivot = row
				best = abs
			}
		}
		if pivot < 0 {
			return nil, fmt.Errorf("%w: system is singular or underdetermined", ErrSingular)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			if a[row][col].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Quo(a[row][col], a[col][col])
			for k := col; k < n; k++ {
				a[row][k] = new(big.Rat).Sub(a[row][k], new(big.Rat).Mul(factor, a[col][k]))
			}
			b[row] = new(big.Rat).Sub(b[row], new(big.Rat).Mul(factor, b[col]))
		}
	}

	x := make([]*big.Rat, n)
	for row := n - 1; row >= 0; row-- {
		sum := new(big.Rat).Set(b[row])
		for k := row + 1; k < n; k++ {
			sum.Sub(sum, new(big.Rat).Mul(a[row][k], x[k]))
		}
		x[row] = sum.Quo(sum, a[row][row])
	}
	return x, nil
}
