// Package session holds the mutable interactive state of a calculator
// run: variable bindings, user-defined functions, the answer history,
// and the evaluation mode.
package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/symstack-labs/symsh/pkg/expr"
	"github.com/symstack-labs/symsh/pkg/parser"
)

// Evaluation modes.
const (
	ModeExact = "exact"
	ModeFloat = "float"
)

// ansLimit bounds the kept answer history.
const ansLimit = 100

// maxResolveDepth bounds substitution through chained bindings.
const maxResolveDepth = 20

// UserFunc is a single-parameter function defined with f(x) = body.
type UserFunc struct {
	Param string
	Body  expr.Expr
}

// Session is the mutable state of one calculator run.
type Session struct {
	Vars      map[string]UserVar
	Funcs     map[string]UserFunc
	Mode      string
	Precision int

	ans []expr.Expr
}

// UserVar is a bound variable with its definition order retained for
// stable listing.
type UserVar struct {
	Value expr.Expr
	Seq   int
}

// New creates a session with the given mode and display precision.
func New(mode string, precision int) *Session {
	return &Session{
		Vars:      map[string]UserVar{},
		Funcs:     map[string]UserFunc{},
		Mode:      mode,
		Precision: precision,
	}
}

// reserved reports whether name is not assignable.
func reserved(name string) bool {
	return name == "ans" || name == parser.ConstantPi || name == parser.ConstantE ||
		expr.IsBuiltin(name)
}

// Assign binds a variable. Built-in names are rejected.
func (s *Session) Assign(name string, value expr.Expr) error {
	if reserved(name) {
		return fmt.Errorf("cannot assign to built-in name %q", name)
	}
	seq := len(s.Vars)
	if prev, ok := s.Vars[name]; ok {
		seq = prev.Seq
	}
	s.Vars[name] = UserVar{Value: value, Seq: seq}
	return nil
}

// DefineFunc defines a user function. Built-in names are rejected.
func (s *Session) DefineFunc(name, param string, body expr.Expr) error {
	if reserved(name) {
		return fmt.Errorf("cannot redefine built-in name %q", name)
	}
	s.Funcs[name] = UserFunc{Param: param, Body: body}
	return nil
}

// Clear removes one binding (variable or function). Unknown names are
// an error.
func (s *Session) Clear(name string) error {
	if _, ok := s.Vars[name]; ok {
		delete(s.Vars, name)
		return nil
	}
	if _, ok := s.Funcs[name]; ok {
		delete(s.Funcs, name)
		return nil
	}
	return fmt.Errorf("%w: nothing named %q to clear", expr.ErrUnknownName, name)
}

// ClearAll removes every variable and function binding.
func (s *Session) ClearAll() {
	s.Vars = map[string]UserVar{}
	s.Funcs = map[string]UserFunc{}
}

// PushResult appends a result to the answer history.
func (s *Session) PushResult(e expr.Expr) {
	s.ans = append(s.ans, e)
	if len(s.ans) > ansLimit {
		s.ans = s.ans[len(s.ans)-ansLimit:]
	}
}

// Ans returns the k-th most recent result (k = 1 is the last).
func (s *Session) Ans(k int) (expr.Expr, error) {
	if len(s.ans) == 0 {
		return nil, fmt.Errorf("no previous result")
	}
	if k < 1 || k > len(s.ans) {
		return nil, fmt.Errorf("ans(%d): history holds %d results", k, len(s.ans))
	}
	return s.ans[len(s.ans)-k], nil
}

// HistoryLen returns the number of kept results.
func (s *Session) HistoryLen() int { return len(s.ans) }

// Resolve substitutes session bindings into e: ans references, bound
// variables, then user function applications. Names that stay unbound
// remain free symbols.
func (s *Session) Resolve(e expr.Expr) (expr.Expr, error) {
	var err error
	for depth := 0; depth < maxResolveDepth; depth++ {
		var next expr.Expr
		next, err = s.resolveOnce(e)
		if err != nil {
			return nil, err
		}
		if next.Equal(e) {
			return next.Simplify(), nil
		}
		e = next
	}
	return nil, fmt.Errorf("binding recursion too deep (self-referential definition?)")
}

func (s *Session) resolveOnce(e expr.Expr) (expr.Expr, error) {
	switch v := e.(type) {
	case *expr.Sym:
		if v.Name() == "ans" {
			return s.Ans(1)
		}
		if uv, ok := s.Vars[v.Name()]; ok {
			return uv.Value, nil
		}
		return v, nil

	case *expr.Add:
		terms := make([]expr.Expr, len(v.Terms()))
		for i, t := range v.Terms() {
			rt, err := s.resolveOnce(t)
			if err != nil {
				return nil, err
			}
			terms[i] = rt
		}
		return expr.AddOf(terms...), nil

	case *expr.Mul:
		factors := make([]expr.Expr, len(v.Factors()))
		for i, f := range v.Factors() {
			rf, err := s.resolveOnce(f)
			if err != nil {
				return nil, err
			}
			factors[i] = rf
		}
		return expr.MulOf(factors...), nil

	case *expr.Pow:
		base, err := s.resolveOnce(v.Base())
		if err != nil {
			return nil, err
		}
		exp, err := s.resolveOnce(v.Exp())
		if err != nil {
			return nil, err
		}
		return expr.PowOf(base, exp), nil

	case *expr.Call:
		args := make([]expr.Expr, len(v.Args()))
		for i, a := range v.Args() {
			ra, err := s.resolveOnce(a)
			if err != nil {
				return nil, err
			}
			args[i] = ra
		}
		if v.Name() == "ans" && len(args) == 1 {
			k, ok := args[0].(*expr.Num)
			if !ok || !k.IsInteger() {
				return nil, fmt.Errorf("ans takes an integer index")
			}
			return s.Ans(int(k.Int64()))
		}
		if fn, ok := s.Funcs[v.Name()]; ok && len(args) == 1 {
			return fn.Body.Sub(fn.Param, args[0]), nil
		}
		return expr.CallOf(v.Name(), args...), nil
	}
	return e, nil
}

// snapshot is the on-disk form of a saved session.
type snapshot struct {
	Mode      string                  `yaml:"mode"`
	Precision int                     `yaml:"precision"`
	Vars      map[string]string       `yaml:"vars,omitempty"`
	Funcs     map[string]funcSnapshot `yaml:"funcs,omitempty"`
}

type funcSnapshot struct {
	Param string `yaml:"param"`
	Body  string `yaml:"body"`
}

// SaveFile writes the session bindings to a YAML file.
func (s *Session) SaveFile(path string) error {
	snap := snapshot{
		Mode:      s.Mode,
		Precision: s.Precision,
		Vars:      map[string]string{},
		Funcs:     map[string]funcSnapshot{},
	}
	for name, uv := range s.Vars {
		snap.Vars[name] = uv.Value.String()
	}
	for name, fn := range s.Funcs {
		snap.Funcs[name] = funcSnapshot{Param: fn.Param, Body: fn.Body.String()}
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// LoadFile reads bindings from a YAML file into the session,
// replacing existing bindings of the same names.
func (s *Session) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading session file: %w", err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding session file: %w", err)
	}
	if snap.Mode == ModeExact || snap.Mode == ModeFloat {
		s.Mode = snap.Mode
	}
	if snap.Precision > 0 {
		s.Precision = snap.Precision
	}
	for name, src := range snap.Vars {
		value, err := parser.ParseExpression(src)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		if err := s.Assign(name, value); err != nil {
			return err
		}
	}
	for name, fn := range snap.Funcs {
		body, err := parser.ParseExpression(fn.Body)
		if err != nil {
			return fmt.Errorf("function %q: %w", name, err)
		}
		if err := s.DefineFunc(name, fn.Param, body); err != nil {
			return err
		}
	}
	return nil
}
