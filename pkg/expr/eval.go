package expr

import (
	"fmt"
	"math"
)

// EvalEnv supplies bindings for floating-point evaluation. A nil env
// resolves only the constants pi and e.
type EvalEnv struct {
	// Bindings maps symbol names to values.
	Bindings map[string]float64

	// Funcs resolves function names the kernel does not know, such as
	// session user functions and Starlark macro functions.
	Funcs map[string]func(args []float64) (float64, error)
}

// EvalFloat evaluates e to a float64. Unlike Simplify, it folds
// everything: constants, built-in functions, and environment-resolved
// names. Free symbols without a binding error with ErrUnknownName.
func EvalFloat(e Expr, env *EvalEnv) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil

	case *Sym:
		if env != nil {
			if val, ok := env.Bindings[v.name]; ok {
				return val, nil
			}
		}
		switch v.name {
		case "pi":
			return math.Pi, nil
		case "e":
			return math.E, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownName, v.name)

	case *Add:
		sum := 0.0
		for _, t := range v.terms {
			f, err := EvalFloat(t, env)
			if err != nil {
				return 0, err
			}
			sum += f
		}
		return sum, nil

	case *Mul:
		prod := 1.0
		for _, f := range v.factors {
			fv, err := EvalFloat(f, env)
			if err != nil {
				return 0, err
			}
			prod *= fv
		}
		return prod, nil

	case *Pow:
		b, err := EvalFloat(v.base, env)
		if err != nil {
			return 0, err
		}
		ex, err := EvalFloat(v.exp, env)
		if err != nil {
			return 0, err
		}
		if b == 0 && ex == 0 {
			return 0, fmt.Errorf("%w: 0^0 is indeterminate", ErrEval)
		}
		if b == 0 && ex < 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrEval)
		}
		r := math.Pow(b, ex)
		if math.IsNaN(r) {
			return 0, fmt.Errorf("%w: %s is not a real number", ErrEval, v.String())
		}
		return r, nil

	case *Call:
		args := make([]float64, len(v.args))
		for i, a := range v.args {
			f, err := EvalFloat(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = f
		}
		return evalCallFloat(v, args, env)

	case *BigO:
		return 0, fmt.Errorf("%w: cannot evaluate remainder term %s", ErrEval, v.String())
	}
	return 0, fmt.Errorf("%w: cannot evaluate %s", ErrEval, e.String())
}

func evalCallFloat(c *Call, args []float64, env *EvalEnv) (float64, error) {
	if len(args) == 1 {
		if fn, ok := builtinFloat[c.name]; ok {
			v, ok := fn(args[0])
			if !ok {
				return 0, fmt.Errorf("%w: %s is undefined at %g", ErrEval, c.name, args[0])
			}
			return v, nil
		}
		if c.name == "fact" {
			n := args[0]
			if n < 0 || n != math.Trunc(n) {
				return 0, fmt.Errorf("%w: factorial of non-integer %g", ErrEval, n)
			}
			return math.Gamma(n + 1), nil
		}
	}
	if c.name == "mod" && len(args) == 2 {
		if args[1] == 0 {
			return 0, fmt.Errorf("%w: modulo by zero", ErrEval)
		}
		return math.Mod(args[0], args[1]), nil
	}
	if env != nil {
		if fn, ok := env.Funcs[c.name]; ok {
			return fn(args)
		}
	}
	return 0, fmt.Errorf("%w: function %s", ErrUnknownName, c.name)
}
