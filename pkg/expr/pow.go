package expr

import (
	"math"
)

// maxFoldExp bounds exact folding of integer powers so a pathological
// input cannot allocate huge rationals during simplification.
const maxFoldExp = 20

// Pow is base^exp.
type Pow struct{ base, exp Expr }

// PowOf returns the simplified power base^exp.
func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// Base returns the base operand.
func (p *Pow) Base() Expr { return p.base }

// Exp returns the exponent operand.
func (p *Pow) Exp() Expr { return p.exp }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			// 0^0 stays unevaluated; it errors under float evaluation.
			if bn, ok2 := base.(*Num); ok2 && bn.IsZero() {
				return &Pow{base: base, exp: exp}
			}
			return N(1)
		}
		if en.IsOne() {
			return base
		}
	}

	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 && en.IsNegative() {
			// 0^negative is a division by zero; keep it symbolic.
			return &Pow{base: base, exp: exp}
		}
		return N(0)
	}
	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}

	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			e := en.Int64()
			if e >= 0 && e <= maxFoldExp {
				result := N(1)
				for i := int64(0); i < e; i++ {
					result = numMul(result, bn)
				}
				return result
			}
			if e < 0 && e >= -maxFoldExp {
				result := N(1)
				for i := int64(0); i < -e; i++ {
					result = numMul(result, bn)
				}
				// base == 0 was handled above, so the reciprocal exists.
				r, _ := numRecip(result)
				return r
			}
		}
	}

	// (a^b)^c -> a^(b*c)
	if inner, ok := base.(*Pow); ok {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch p.base.(type) {
	case *Add, *Mul:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if n := p.base.(*Num); n.IsNegative() || !n.IsInteger() {
			baseStr = "(" + baseStr + ")"
		}
	}
	switch p.exp.(type) {
	case *Add, *Mul, *Pow:
		expStr = "(" + expStr + ")"
	case *Num:
		if n := p.exp.(*Num); n.IsNegative() || !n.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(name string, value Expr) Expr {
	return PowOf(p.base.Sub(name, value), p.exp.Sub(name, value))
}

func (p *Pow) Diff(name string) Expr {
	du := p.base.Diff(name)
	dv := p.exp.Diff(name)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		// Power rule: d(u^n) = n*u^(n-1)*u'
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		// d(a^v) = a^v * ln(a) * v'
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	// General case: d(u^v) = u^v * (v'*ln(u) + v*u'/u)
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	pf := math.Pow(b.Float64(), e.Float64())
	if math.IsNaN(pf) || math.IsInf(pf, 0) {
		return nil, false
	}
	return Float(pf), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) kind() string { return "pow" }

// SqrtOf returns arg^(1/2).
func SqrtOf(arg Expr) Expr { return PowOf(arg, Frac(1, 2)) }
