package expr

import (
	"math"
	"sort"
)

// maxSimplifyPasses bounds the Simplify fixpoint loop.
const maxSimplifyPasses = 10

// DeepSimplify repeats simplification and identity passes until the
// printed form stops changing.
func DeepSimplify(e Expr) Expr {
	prev := ""
	curr := e.Simplify()
	for i := 0; i < maxSimplifyPasses; i++ {
		str := curr.String()
		if str == prev {
			break
		}
		prev = str
		curr = TrigSimplify(curr).Simplify()
	}
	return curr
}

// TrigSimplify applies the Pythagorean identity sin^2+cos^2=1 and the
// exp/ln inverse cancellations throughout the tree.
func TrigSimplify(e Expr) Expr {
	return trigSimplifyExpr(e.Simplify()).Simplify()
}

func trigSimplifyExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = trigSimplifyExpr(t)
		}
		return trigFindPythagorean(AddOf(newTerms...))
	case *Mul:
		newFactors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			newFactors[i] = trigSimplifyExpr(f)
		}
		return MulOf(newFactors...)
	case *Pow:
		return PowOf(trigSimplifyExpr(v.base), v.exp)
	case *Call:
		args := make([]Expr, len(v.args))
		for i, a := range v.args {
			args[i] = trigSimplifyExpr(a)
		}
		return CallOf(v.name, args...)
	}
	return e
}

// trigFindPythagorean looks for matching c*sin(u)^2 and c*cos(u)^2
// terms in a sum and replaces the pair with c.
func trigFindPythagorean(e Expr) Expr {
	add, ok := e.(*Add)
	if !ok {
		return e
	}
	type trigTerm struct {
		fn    string
		arg   string
		coeff *Num
		idx   int
	}
	var found []trigTerm
	for idx, t := range add.terms {
		coeff, inner := splitCoefficient(t)
		p, ok2 := inner.(*Pow)
		if !ok2 {
			continue
		}
		fn, ok3 := p.base.(*Call)
		if !ok3 || len(fn.args) != 1 {
			continue
		}
		if en, ok4 := p.exp.(*Num); ok4 && en.IsInteger() && en.Int64() == 2 {
			if fn.name == "sin" || fn.name == "cos" {
				found = append(found, trigTerm{fn.name, fn.args[0].String(), coeff, idx})
			}
		}
	}
	for i := 0; i < len(found); i++ {
		for j := i + 1; j < len(found); j++ {
			ti, tj := found[i], found[j]
			if ti.arg == tj.arg && ti.fn != tj.fn && numCmp(ti.coeff, tj.coeff) == 0 {
				newTerms := []Expr{}
				for idx, t := range add.terms {
					if idx != ti.idx && idx != tj.idx {
						newTerms = append(newTerms, t)
					}
				}
				newTerms = append(newTerms, ti.coeff)
				return AddOf(newTerms...).Simplify()
			}
		}
	}
	return e
}

// Expand distributes products over sums and unrolls small integer
// powers of sums.
func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

const maxExpandExp = 10

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			a, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(expanded)-1)
			for j, ef := range expanded {
				if j != i {
					rest = append(rest, ef)
				}
			}
			terms := make([]Expr, len(a.terms))
			for k, t := range a.terms {
				terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
			}
			return expandExpr(AddOf(terms...))
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			exp := n.Int64()
			if exp >= 0 && exp <= maxExpandExp {
				result := Expr(N(1))
				base := expandExpr(v.base)
				for i := int64(0); i < exp; i++ {
					result = expandExpr(MulOf(result, base))
				}
				return result
			}
		}
		return &Pow{base: expandExpr(v.base), exp: expandExpr(v.exp)}
	}
	return e
}

// Degree returns the polynomial degree of e in name, treating
// non-polynomial subtrees as degree 0.
func Degree(e Expr, name string) int {
	e = e.Simplify()
	switch v := e.(type) {
	case *Sym:
		if v.name == name {
			return 1
		}
		return 0
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == name {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				return int(n.Int64())
			}
		}
		return 0
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			if d := Degree(t, name); d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		total := 0
		for _, f := range v.factors {
			total += Degree(f, name)
		}
		return total
	}
	return 0
}

// PolyCoeffs maps each power of name to its coefficient expression.
func PolyCoeffs(e Expr, name string) map[int]Expr {
	result := map[int]Expr{}
	extractCoeffs(Expand(e), name, result)
	return result
}

func extractCoeffs(e Expr, name string, out map[int]Expr) {
	switch v := e.(type) {
	case *Num:
		addCoeff(out, 0, v)
	case *Sym:
		if v.name == name {
			addCoeff(out, 1, N(1))
		} else {
			addCoeff(out, 0, v)
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == name {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() && !n.IsNegative() {
				addCoeff(out, int(n.Int64()), N(1))
				return
			}
		}
		addCoeff(out, 0, e)
	case *Mul:
		deg := 0
		coeffFactors := []Expr{}
		for _, f := range v.factors {
			if d := Degree(f, name); d > 0 {
				deg += d
			} else {
				coeffFactors = append(coeffFactors, f)
			}
		}
		var coeff Expr
		switch len(coeffFactors) {
		case 0:
			coeff = N(1)
		case 1:
			coeff = coeffFactors[0]
		default:
			coeff = MulOf(coeffFactors...)
		}
		addCoeff(out, deg, coeff)
	case *Add:
		for _, t := range v.terms {
			extractCoeffs(t, name, out)
		}
	default:
		addCoeff(out, 0, e)
	}
}

func addCoeff(out map[int]Expr, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = AddOf(existing, val).Simplify()
	} else {
		out[deg] = val.Simplify()
	}
}

// Collect rewrites e as a polynomial in name with coefficients
// collected per power, highest degree first.
func Collect(e Expr, name string) Expr {
	coeffs := PolyCoeffs(e, name)
	if len(coeffs) == 0 {
		return N(0)
	}
	degrees := make([]int, 0, len(coeffs))
	for d := range coeffs {
		degrees = append(degrees, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degrees)))
	terms := make([]Expr, 0, len(degrees))
	for _, d := range degrees {
		c := coeffs[d]
		if cn, ok := c.(*Num); ok && cn.IsZero() {
			continue
		}
		switch d {
		case 0:
			terms = append(terms, c)
		case 1:
			terms = append(terms, MulOf(c, S(name)))
		default:
			terms = append(terms, MulOf(c, PowOf(S(name), N(int64(d)))))
		}
	}
	if len(terms) == 0 {
		return N(0)
	}
	return AddOf(terms...).Simplify()
}

// FactorResult holds the outcome of a factoring attempt.
type FactorResult struct {
	Factors []Expr
	Success bool
}

// Factor attempts to factor a polynomial in name. It handles a common
// integer factor, difference of squares, perfect square trinomials,
// monic quadratics with integer roots, and sum/difference of cubes.
func Factor(e Expr, name string) FactorResult {
	e = Collect(e, name).Simplify()
	coeffs := PolyCoeffs(e, name)
	deg := Degree(e, name)

	commonFactor := N(0)
	for _, c := range coeffs {
		cn, ok := c.(*Num)
		if !ok || !cn.IsInteger() {
			commonFactor = N(1)
			break
		}
		if commonFactor.IsZero() {
			commonFactor = numAbs(cn)
		} else {
			a := numAbs(commonFactor).Int64()
			b := numAbs(cn).Int64()
			commonFactor = N(gcdInt(a, b))
		}
	}
	if commonFactor.IsZero() {
		commonFactor = N(1)
	}

	scaled := coeffs
	if !commonFactor.IsOne() {
		scaled = map[int]Expr{}
		for d, c := range coeffs {
			scaled[d] = MulOf(c, PowOf(commonFactor, N(-1))).Simplify()
		}
	}

	x := S(name)

	if deg == 2 {
		if result, ok := factorQuadratic(scaled, x, commonFactor); ok {
			return result
		}
	}
	if deg == 3 {
		if result, ok := factorCubes(scaled, x, commonFactor); ok {
			return result
		}
	}

	if !commonFactor.IsOne() {
		return FactorResult{
			Factors: []Expr{commonFactor, MulOf(PowOf(commonFactor, N(-1)), e).Simplify()},
			Success: true,
		}
	}
	return FactorResult{Factors: []Expr{e}, Success: false}
}

func factorQuadratic(coeffs map[int]Expr, x *Sym, common *Num) (FactorResult, bool) {
	a2, hasA := coeffs[2]
	b1 := coeffs[1]
	c0 := coeffs[0]
	if !hasA {
		return FactorResult{}, false
	}
	if b1 == nil {
		b1 = N(0)
	}
	if c0 == nil {
		c0 = N(0)
	}
	an, aok := a2.Eval()
	bn, bok := b1.Eval()
	cn, cok := c0.Eval()
	if !aok || !bok || !cok {
		return FactorResult{}, false
	}

	withCommon := func(factors []Expr) FactorResult {
		if !common.IsOne() {
			factors = append([]Expr{common}, factors...)
		}
		return FactorResult{Factors: factors, Success: true}
	}

	// Difference of squares: x^2 - c with c a perfect square.
	if an.IsOne() && bn.IsZero() && cn.IsNegative() {
		cf := -cn.Float64()
		sq := math.Sqrt(cf)
		if math.Abs(sq-math.Round(sq)) < 1e-10 {
			s := N(int64(math.Round(sq)))
			return withCommon([]Expr{AddOf(x, MulOf(N(-1), s)), AddOf(x, s)}), true
		}
	}

	// Perfect square trinomial.
	af, bf, cf := an.Float64(), bn.Float64(), cn.Float64()
	sqA := math.Sqrt(math.Abs(af))
	sqC := math.Sqrt(math.Abs(cf))
	if math.Abs(sqA-math.Round(sqA)) < 1e-10 && math.Abs(sqC-math.Round(sqC)) < 1e-10 &&
		math.Abs(2*sqA*sqC-math.Abs(bf)) < 1e-10 && bf != 0 {
		sA, sC := int64(math.Round(sqA)), int64(math.Round(sqC))
		sign := N(1)
		if bf < 0 {
			sign = N(-1)
		}
		inner := AddOf(MulOf(N(sA), x), MulOf(sign, N(sC)))
		return withCommon([]Expr{PowOf(inner, N(2))}), true
	}

	// Monic quadratic with integer roots.
	if an.IsOne() && bn.IsInteger() && cn.IsInteger() {
		cv, bv := cn.Int64(), bn.Int64()
		absC := cv
		if absC < 0 {
			absC = -absC
		}
		for d := int64(1); d <= absC && d <= 1000; d++ {
			if absC%d != 0 {
				continue
			}
			for _, cand := range []int64{d, -d, absC / d, -(absC / d)} {
				if cand*cand+bv*cand+cv == 0 {
					r1 := cand
					r2 := -bv - r1
					return withCommon([]Expr{AddOf(x, N(-r1)), AddOf(x, N(-r2))}), true
				}
			}
		}
	}
	return FactorResult{}, false
}

func factorCubes(coeffs map[int]Expr, x *Sym, common *Num) (FactorResult, bool) {
	c3, has3 := coeffs[3]
	c0, has0 := coeffs[0]
	_, has2 := coeffs[2]
	_, has1 := coeffs[1]
	if !has3 || !has0 || has2 || has1 {
		return FactorResult{}, false
	}
	an, aok := c3.Eval()
	cn, cok := c0.Eval()
	if !aok || !cok || !an.IsOne() {
		return FactorResult{}, false
	}
	cf := cn.Float64()
	cbrt := math.Cbrt(math.Abs(cf))
	if math.Abs(cbrt-math.Round(cbrt)) >= 1e-10 || cf == 0 {
		return FactorResult{}, false
	}
	b := int64(math.Round(cbrt))
	var factors []Expr
	if cf < 0 {
		// x^3 - b^3 = (x - b)(x^2 + b*x + b^2)
		factors = []Expr{
			AddOf(x, N(-b)),
			AddOf(PowOf(x, N(2)), MulOf(N(b), x), N(b*b)),
		}
	} else {
		// x^3 + b^3 = (x + b)(x^2 - b*x + b^2)
		factors = []Expr{
			AddOf(x, N(b)),
			AddOf(PowOf(x, N(2)), MulOf(N(-b), x), N(b*b)),
		}
	}
	if !common.IsOne() {
		factors = append([]Expr{common}, factors...)
	}
	return FactorResult{Factors: factors, Success: true}, true
}
