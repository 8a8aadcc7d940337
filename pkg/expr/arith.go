package expr

import (
	"sort"
	"strings"
)

// Add is an n-ary sum. Simplify flattens nested sums, folds the exact
// numeric part, collects repeated symbols, and sorts the remaining
// terms so the printed form is deterministic.
type Add struct{ terms []Expr }

// AddOf returns the simplified sum of terms.
func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Terms exposes the term slice for structural inspection.
func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	numAccum := N(0)
	symCoeffs := map[string]*Num{}
	symOrder := []string{}
	others := []Expr{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum = numAdd(numAccum, v)
		case *Sym:
			if _, seen := symCoeffs[v.name]; !seen {
				symOrder = append(symOrder, v.name)
				symCoeffs[v.name] = N(0)
			}
			symCoeffs[v.name] = numAdd(symCoeffs[v.name], N(1))
		default:
			others = append(others, t)
		}
	}

	result := []Expr{}
	sort.Strings(symOrder)
	for _, name := range symOrder {
		coeff := symCoeffs[name]
		if coeff.IsZero() {
			continue
		}
		if coeff.IsOne() {
			result = append(result, S(name))
		} else {
			result = append(result, MulOf(coeff, S(name)))
		}
	}
	result = append(result, collectLikeTerms(others)...)
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}

	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// collectLikeTerms merges terms that differ only by a numeric
// coefficient, e.g. 2*sin(x) + 3*sin(x) -> 5*sin(x).
func collectLikeTerms(terms []Expr) []Expr {
	type bucket struct {
		rest  Expr
		coeff *Num
	}
	order := []string{}
	buckets := map[string]*bucket{}
	for _, t := range terms {
		coeff, rest := splitCoefficient(t)
		key := rest.String()
		if b, ok := buckets[key]; ok {
			b.coeff = numAdd(b.coeff, coeff)
			continue
		}
		order = append(order, key)
		buckets[key] = &bucket{rest: rest, coeff: coeff}
	}
	out := make([]Expr, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		switch {
		case b.coeff.IsZero():
		case b.coeff.IsOne():
			out = append(out, b.rest)
		default:
			out = append(out, &Mul{factors: append([]Expr{b.coeff}, mulFactors(b.rest)...)})
		}
	}
	return out
}

// splitCoefficient splits t into a numeric coefficient and the rest.
func splitCoefficient(t Expr) (*Num, Expr) {
	m, ok := t.(*Mul)
	if !ok || len(m.factors) < 2 {
		return N(1), t
	}
	coeff, ok := m.factors[0].(*Num)
	if !ok {
		return N(1), t
	}
	rest := m.factors[1:]
	if len(rest) == 1 {
		return coeff, rest[0]
	}
	return coeff, &Mul{factors: rest}
}

func mulFactors(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.String()
		if i == 0 {
			sb.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			sb.WriteString(" - ")
			sb.WriteString(strings.TrimPrefix(s, "-"))
		} else {
			sb.WriteString(" + ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.LaTeX()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Sub(name string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(name, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(name string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(name)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) kind() string { return "add" }

// Mul is an n-ary product. Simplify flattens nested products, folds
// the numeric coefficient to the front, merges equal bases into
// powers, and sorts the symbolic factors.
type Mul struct{ factors []Expr }

// MulOf returns the simplified product of factors.
func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Factors exposes the factor slice for structural inspection.
func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	others := []Expr{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
		} else {
			others = append(others, f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	others = collectLikeFactors(others)
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() in the comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	sorted := make([]Expr, len(ks))
	for i := range ks {
		sorted[i] = ks[i].e
	}
	others = sorted

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// collectLikeFactors merges factors with equal bases into a single
// power, e.g. x * x^2 -> x^3.
func collectLikeFactors(factors []Expr) []Expr {
	type bucket struct {
		base Expr
		exps []Expr
	}
	order := []string{}
	buckets := map[string]*bucket{}
	for _, f := range factors {
		base, exp := splitPower(f)
		key := base.String()
		if b, ok := buckets[key]; ok {
			b.exps = append(b.exps, exp)
			continue
		}
		order = append(order, key)
		buckets[key] = &bucket{base: base, exps: []Expr{exp}}
	}
	out := make([]Expr, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		if len(b.exps) == 1 {
			if n, ok := b.exps[0].(*Num); ok && n.IsOne() {
				out = append(out, b.base)
				continue
			}
			out = append(out, &Pow{base: b.base, exp: b.exps[0]})
			continue
		}
		merged := PowOf(b.base, AddOf(b.exps...))
		if n, ok := merged.(*Num); ok && n.IsOne() {
			continue
		}
		out = append(out, merged)
	}
	return out
}

func splitPower(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	// -1 * x prints as -x.
	if first, ok := m.factors[0].(*Num); ok && first.IsNegOne() && len(m.factors) > 1 {
		rest := &Mul{factors: m.factors[1:]}
		if len(rest.factors) == 1 {
			if _, isAdd := rest.factors[0].(*Add); !isAdd {
				return "-" + rest.factors[0].String()
			}
			return "-(" + rest.factors[0].String() + ")"
		}
		return "-" + rest.String()
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "\\left(" + f.LaTeX() + "\\right)"
		} else {
			parts[i] = f.LaTeX()
		}
	}
	return strings.Join(parts, " ")
}

func (m *Mul) Sub(name string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(name, value)
	}
	return MulOf(newFactors...)
}

// Diff applies the generalized product rule.
func (m *Mul) Diff(name string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(name)
		others := make([]Expr, 0, len(m.factors)-1)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		if len(others) == 0 {
			terms[i] = dfi
		} else {
			terms[i] = MulOf(append([]Expr{dfi}, others...)...)
		}
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) kind() string { return "mul" }
