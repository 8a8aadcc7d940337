package expr

import (
	"math"
	"strings"
)

// Call is a named function application. Built-in functions take one
// argument; calls with other names (session user functions, macro
// functions) stay symbolic until the evaluator resolves them.
type Call struct {
	name string
	args []Expr
}

// CallOf returns the simplified application name(args...).
func CallOf(name string, args ...Expr) Expr {
	return (&Call{name: name, args: args}).Simplify()
}

// Convenience constructors for the common built-ins.
func SinOf(arg Expr) Expr  { return CallOf("sin", arg) }
func CosOf(arg Expr) Expr  { return CallOf("cos", arg) }
func TanOf(arg Expr) Expr  { return CallOf("tan", arg) }
func ExpOf(arg Expr) Expr  { return CallOf("exp", arg) }
func LnOf(arg Expr) Expr   { return CallOf("ln", arg) }
func AbsOf(arg Expr) Expr  { return CallOf("abs", arg) }
func AtanOf(arg Expr) Expr { return CallOf("atan", arg) }
func AsinOf(arg Expr) Expr { return CallOf("asin", arg) }

// Name returns the function name.
func (c *Call) Name() string { return c.name }

// Args returns the argument list.
func (c *Call) Args() []Expr { return c.args }

// Arg returns the single argument of a unary call.
func (c *Call) Arg() Expr { return c.args[0] }

// builtinFloat maps built-in names to their float implementations.
var builtinFloat = map[string]func(float64) (float64, bool){
	"sin":   func(v float64) (float64, bool) { return math.Sin(v), true },
	"cos":   func(v float64) (float64, bool) { return math.Cos(v), true },
	"tan":   func(v float64) (float64, bool) { return math.Tan(v), true },
	"asin":  func(v float64) (float64, bool) { return math.Asin(v), v >= -1 && v <= 1 },
	"acos":  func(v float64) (float64, bool) { return math.Acos(v), v >= -1 && v <= 1 },
	"atan":  func(v float64) (float64, bool) { return math.Atan(v), true },
	"sinh":  func(v float64) (float64, bool) { return math.Sinh(v), true },
	"cosh":  func(v float64) (float64, bool) { return math.Cosh(v), true },
	"tanh":  func(v float64) (float64, bool) { return math.Tanh(v), true },
	"exp":   func(v float64) (float64, bool) { return math.Exp(v), true },
	"ln":    func(v float64) (float64, bool) { return math.Log(v), v > 0 },
	"abs":   func(v float64) (float64, bool) { return math.Abs(v), true },
	"floor": func(v float64) (float64, bool) { return math.Floor(v), true },
	"ceil":  func(v float64) (float64, bool) { return math.Ceil(v), true },
	"sign": func(v float64) (float64, bool) {
		switch {
		case v > 0:
			return 1, true
		case v < 0:
			return -1, true
		}
		return 0, true
	},
}

// IsBuiltin reports whether name is a built-in function.
func IsBuiltin(name string) bool {
	_, ok := builtinFloat[name]
	return ok || name == "sqrt" || name == "fact"
}

// BuiltinNames returns the built-in function names sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFloat)+2)
	for n := range builtinFloat {
		names = append(names, n)
	}
	names = append(names, "sqrt", "fact")
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Simplify applies exact identities only. It never folds a built-in
// applied to an exact rational into a float; that happens solely under
// numeric evaluation.
func (c *Call) Simplify() Expr {
	args := make([]Expr, len(c.args))
	for i, a := range c.args {
		args[i] = a.Simplify()
	}
	if len(args) != 1 {
		return c.simplifyNary(args)
	}
	arg := args[0]

	switch c.name {
	case "sin", "tan", "sinh", "tanh", "asin", "atan":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(0)
		}
	case "cos", "cosh":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
	case "exp":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
		if inner, ok := arg.(*Call); ok && inner.name == "ln" {
			return inner.args[0]
		}
	case "ln":
		if n, ok := arg.(*Num); ok && n.IsOne() {
			return N(0)
		}
		if s, ok := arg.(*Sym); ok && s.name == "e" {
			return N(1)
		}
		if inner, ok := arg.(*Call); ok && inner.name == "exp" {
			return inner.args[0]
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			return numAbs(n)
		}
		// abs(-u) == abs(u)
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 2 {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegative() {
				rest := append([]Expr{numNeg(coeff)}, m.factors[1:]...)
				return AbsOf(MulOf(rest...))
			}
		}
	case "floor", "ceil":
		if n, ok := arg.(*Num); ok && n.IsInteger() {
			return n
		}
		if n, ok := arg.(*Num); ok {
			f := n.Float64()
			if c.name == "floor" {
				return N(int64(math.Floor(f)))
			}
			return N(int64(math.Ceil(f)))
		}
	case "sign":
		if n, ok := arg.(*Num); ok {
			switch {
			case n.IsPositive():
				return N(1)
			case n.IsNegative():
				return N(-1)
			}
			return N(0)
		}
	case "fact":
		if n, ok := arg.(*Num); ok && n.IsInteger() && !n.IsNegative() {
			if v := n.Int64(); v <= 20 {
				result := N(1)
				for i := int64(2); i <= v; i++ {
					result = numMul(result, N(i))
				}
				return result
			}
		}
	}
	return &Call{name: c.name, args: []Expr{arg}}
}

func (c *Call) simplifyNary(args []Expr) Expr {
	if c.name == "mod" && len(args) == 2 {
		a, aok := args[0].(*Num)
		b, bok := args[1].(*Num)
		if aok && bok && a.IsInteger() && b.IsInteger() && !b.IsZero() {
			return N(a.Int64() % b.Int64())
		}
	}
	return &Call{name: c.name, args: args}
}

func (c *Call) String() string {
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.String()
	}
	return c.name + "(" + strings.Join(parts, ", ") + ")"
}

func (c *Call) LaTeX() string {
	if len(c.args) == 1 {
		arg := c.args[0].LaTeX()
		switch c.name {
		case "sin", "cos", "tan", "exp", "ln", "sinh", "cosh", "tanh":
			return "\\" + c.name + "\\left(" + arg + "\\right)"
		case "asin":
			return "\\arcsin\\left(" + arg + "\\right)"
		case "acos":
			return "\\arccos\\left(" + arg + "\\right)"
		case "atan":
			return "\\arctan\\left(" + arg + "\\right)"
		case "abs":
			return "\\left|" + arg + "\\right|"
		case "floor":
			return "\\lfloor " + arg + " \\rfloor"
		case "ceil":
			return "\\lceil " + arg + " \\rceil"
		}
	}
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.LaTeX()
	}
	return "\\operatorname{" + c.name + "}\\left(" + strings.Join(parts, ", ") + "\\right)"
}

func (c *Call) Sub(name string, value Expr) Expr {
	args := make([]Expr, len(c.args))
	for i, a := range c.args {
		args[i] = a.Sub(name, value)
	}
	return CallOf(c.name, args...)
}

// Diff applies the chain rule with the built-in derivative table.
func (c *Call) Diff(name string) Expr {
	if len(c.args) != 1 {
		// Multi-argument calls have no derivative rule; the parser and
		// engine keep them out of differentiation paths.
		return CallOf("D["+c.name+"]", c.args...)
	}
	arg := c.args[0]
	du := arg.Diff(name)
	var outer Expr
	switch c.name {
	case "sin":
		outer = CosOf(arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(arg), N(2)))
	case "exp":
		outer = ExpOf(arg)
	case "ln":
		outer = PowOf(arg, N(-1))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(arg, N(2)))), Frac(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(arg, N(2)))), Frac(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(arg, N(2))), N(-1))
	case "sinh":
		outer = CallOf("cosh", arg)
	case "cosh":
		outer = CallOf("sinh", arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(CallOf("tanh", arg), N(2))))
	case "abs":
		outer = CallOf("sign", arg)
	default:
		return MulOf(CallOf("D["+c.name+"]", arg), du)
	}
	return MulOf(outer, du).Simplify()
}

func (c *Call) Eval() (*Num, bool) {
	if len(c.args) != 1 {
		if c.name == "mod" && len(c.args) == 2 {
			if folded, ok := c.Simplify().(*Num); ok {
				return folded, true
			}
		}
		return nil, false
	}
	n, ok := c.args[0].Eval()
	if !ok {
		return nil, false
	}
	fn, ok := builtinFloat[c.name]
	if !ok {
		return nil, false
	}
	v, ok := fn(n.Float64())
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return Float(v), true
}

func (c *Call) Equal(other Expr) bool {
	o, ok := other.(*Call)
	if !ok || c.name != o.name || len(c.args) != len(o.args) {
		return false
	}
	for i := range c.args {
		if !c.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (c *Call) kind() string { return "call" }
