// Package expr implements a deterministic symbolic math kernel: exact
// rational arithmetic, rule-based calculus, polynomial utilities, and
// small dense matrices. Expressions are immutable; every operation
// returns a new tree. Simplification is canonicalizing, so String() is
// stable for a given input and Simplify is idempotent on its own output.
package expr

import (
	"errors"
	"fmt"
	"math/big"
)

// Sentinel errors for the kernel. User-facing messages come from the
// wrapped text, never stack traces.
var (
	// ErrEval marks a numeric evaluation failure (division by zero,
	// 0^0, ln of a non-positive value, NaN/Inf results).
	ErrEval = errors.New("evaluation error")

	// ErrSingular marks a singular matrix or linear system.
	ErrSingular = errors.New("singular matrix")

	// ErrNoRule marks an operation the rule tables cannot handle.
	ErrNoRule = errors.New("no applicable rule")

	// ErrUnknownName marks a reference to an unbound symbol or function.
	ErrUnknownName = errors.New("unknown name")
)

// Expr is a node in a symbolic expression tree.
type Expr interface {
	// Simplify returns the canonical form of the node. It folds exact
	// arithmetic but never converts an exact value to a float.
	Simplify() Expr

	// String renders the canonical infix form.
	String() string

	// LaTeX renders the node as LaTeX markup.
	LaTeX() string

	// Sub substitutes value for every free occurrence of name.
	Sub(name string, value Expr) Expr

	// Diff differentiates with respect to name. It never errors: the
	// parser rejects function names without a derivative rule before a
	// tree reaches Diff.
	Diff(name string) Expr

	// Eval attempts numeric evaluation without an environment. It
	// returns false when the node contains free symbols or a form that
	// has no closed numeric value.
	Eval() (*Num, bool)

	// Equal reports structural equality.
	Equal(other Expr) bool

	kind() string
}

// Num is an exact rational constant.
type Num struct{ val *big.Rat }

// N returns the integer constant n.
func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

// Frac returns the rational constant p/q.
func Frac(p, q int64) *Num {
	if q == 0 {
		panic("expr: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// Float returns the closest rational to f.
func Float(f float64) *Num { return &Num{val: new(big.Rat).SetFloat64(f)} }

// NumFromRat copies r into a Num.
func NumFromRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) kind() string          { return "num" }

func (n *Num) Float64() float64 { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool     { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool      { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsNegOne() bool   { return n.val.Cmp(ratNegOne) == 0 }
func (n *Num) IsInteger() bool  { return n.val.IsInt() }
func (n *Num) IsPositive() bool { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool { return n.val.Sign() < 0 }
func (n *Num) Rat() *big.Rat    { return new(big.Rat).Set(n.val) }

// Int64 returns the integer value. Only meaningful when IsInteger.
func (n *Num) Int64() int64 { return n.val.Num().Int64() }

var (
	ratOne    = new(big.Rat).SetInt64(1)
	ratNegOne = new(big.Rat).SetInt64(-1)
)

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numSub(a, b *Num) *Num { return &Num{val: new(big.Rat).Sub(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

func numRecip(a *Num) (*Num, error) {
	if a.IsZero() {
		return nil, fmt.Errorf("%w: division by zero", ErrEval)
	}
	return &Num{val: new(big.Rat).Inv(a.val)}, nil
}

func numDiv(a, b *Num) (*Num, error) {
	r, err := numRecip(b)
	if err != nil {
		return nil, err
	}
	return numMul(a, r), nil
}

func numAbs(a *Num) *Num {
	r := new(big.Rat).Set(a.val)
	if r.Sign() < 0 {
		r.Neg(r)
	}
	return &Num{val: r}
}

func numCmp(a, b *Num) int { return a.val.Cmp(b.val) }

func gcdInt(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Sym is a free symbolic variable. The constants pi and e are plain
// symbols; they fold to floats only under numeric evaluation.
type Sym struct{ name string }

// S returns the symbol with the given name.
func S(name string) *Sym { return &Sym{name: name} }

// Pi and E are the built-in mathematical constants.
var (
	Pi = S("pi")
	E  = S("e")
)

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) kind() string          { return "sym" }
func (s *Sym) Name() string          { return s.name }

func (s *Sym) LaTeX() string {
	if s.name == "pi" {
		return "\\pi"
	}
	return s.name
}

func (s *Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s *Sym) Diff(name string) Expr {
	if s.name == name {
		return N(1)
	}
	return N(0)
}

// Equation is a symbolic equation LHS = RHS. Equations are inputs to
// the solvers, not expression nodes.
type Equation struct{ LHS, RHS Expr }

// Eq builds the equation lhs = rhs.
func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }

func (e *Equation) String() string { return e.LHS.String() + " = " + e.RHS.String() }
func (e *Equation) LaTeX() string  { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// Residual returns LHS - RHS simplified, the form the solvers consume.
func (e *Equation) Residual() Expr {
	return AddOf(e.LHS, MulOf(N(-1), e.RHS)).Simplify()
}

// BigO is the remainder term of a truncated series.
type BigO struct {
	name  string
	order int
}

// OTerm returns the remainder O(name^order).
func OTerm(name string, order int) *BigO { return &BigO{name: name, order: order} }

func (o *BigO) Simplify() Expr        { return o }
func (o *BigO) String() string        { return fmt.Sprintf("O(%s^%d)", o.name, o.order) }
func (o *BigO) LaTeX() string         { return fmt.Sprintf("\\mathcal{O}(%s^{%d})", o.name, o.order) }
func (o *BigO) Sub(string, Expr) Expr { return o }
func (o *BigO) Diff(string) Expr      { return N(0) }
func (o *BigO) Eval() (*Num, bool)    { return nil, false }
func (o *BigO) kind() string          { return "bigo" }
func (o *BigO) Order() int            { return o.order }

func (o *BigO) Equal(other Expr) bool {
	ob, ok := other.(*BigO)
	return ok && ob.name == o.name && ob.order == o.order
}

// FreeSymbols returns the set of free symbol names in e. The constants
// pi and e are excluded; they are bound by the evaluator.
func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	delete(result, "pi")
	delete(result, "e")
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Call:
		for _, a := range v.args {
			collectSymbols(a, out)
		}
	}
}
