package engine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/symstack-labs/symsh/internal/session"
	"github.com/symstack-labs/symsh/pkg/expr"
	"github.com/symstack-labs/symsh/pkg/parser"
)

// defaultVar is the variable commands fall back to when none is given.
const defaultVar = "x"

// defaultSeriesOrder is the Taylor expansion order when none is given.
const defaultSeriesOrder = 6

// Eval evaluates a statement: an assignment, a function definition, or
// a bare expression.
func (e *Engine) Eval(args []string) (*Result, error) {
	if len(args) != 1 {
		return nil, errors.New("eval takes one expression")
	}
	return e.evalStatement(args[0])
}

func (e *Engine) evalStatement(input string) (*Result, error) {
	stmt, err := parser.ParseStatement(input)
	if err != nil {
		return nil, err
	}

	switch stmt.Kind {
	case parser.StmtAssign:
		val, err := e.sess.Resolve(stmt.Expr)
		if err != nil {
			return nil, err
		}
		val = val.Simplify()
		if err := e.sess.Assign(stmt.Name, val); err != nil {
			return nil, err
		}
		return &Result{Label: stmt.Name, Body: val.String(), Kind: KindExpression, value: val}, nil

	case parser.StmtFuncDef:
		if err := e.sess.DefineFunc(stmt.Name, stmt.Param, stmt.Expr); err != nil {
			return nil, err
		}
		body := fmt.Sprintf("%s(%s) = %s", stmt.Name, stmt.Param, stmt.Expr.String())
		return &Result{Body: body, Kind: KindText}, nil

	default:
		val, err := e.sess.Resolve(stmt.Expr)
		if err != nil {
			return nil, err
		}
		return e.exprResult(val.Simplify()), nil
	}
}

// exprResult renders a symbolic value according to the session mode.
// In float mode fully bound expressions fold to a number; expressions
// with free symbols stay symbolic either way.
func (e *Engine) exprResult(val expr.Expr) *Result {
	if e.sess.Mode == session.ModeFloat {
		if f, err := expr.EvalFloat(val, e.evalEnv(nil)); err == nil {
			return &Result{Body: e.formatFloat(f), Kind: KindNumber, value: val}
		}
	}
	kind := KindExpression
	if _, ok := val.(*expr.Num); ok {
		kind = KindNumber
	}
	return &Result{Body: val.String(), Kind: kind, value: val}
}

func (e *Engine) formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', e.sess.Precision, 64)
}

// Simplify deep-simplifies an expression: constant folding, like-term
// and like-factor collection, trig and exp/ln identities.
func (e *Engine) Simplify(args []string) (*Result, error) {
	if len(args) != 1 {
		return nil, errors.New("simplify takes one expression")
	}
	val, err := e.resolveArg(args[0])
	if err != nil {
		return nil, err
	}
	val = expr.TrigSimplify(expr.DeepSimplify(val))
	return e.exprResult(val), nil
}

// Diff differentiates: diff <expr> [; var [; order]].
func (e *Engine) Diff(args []string) (*Result, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, errors.New("diff takes an expression, an optional variable, and an optional order")
	}
	val, err := e.resolveArg(args[0])
	if err != nil {
		return nil, err
	}
	name := defaultVar
	if len(args) >= 2 {
		if name, err = parseVarName(args[1]); err != nil {
			return nil, err
		}
	}
	order := 1
	if len(args) == 3 {
		order, err = strconv.Atoi(args[2])
		if err != nil || order < 1 {
			return nil, fmt.Errorf("invalid order %q: must be an integer >= 1", args[2])
		}
	}
	if fn, ok := expr.MissingDerivative(val); ok {
		return nil, fmt.Errorf("no derivative rule for %q", fn)
	}
	return e.exprResult(expr.DiffN(val, name, order).Simplify()), nil
}

// Integrate integrates: integrate <expr> [; var [; lower ; upper]].
func (e *Engine) Integrate(args []string) (*Result, error) {
	switch len(args) {
	case 1, 2, 4:
	case 3:
		return nil, errors.New("integration bounds come in pairs: integrate <expr> ; var ; lower ; upper")
	default:
		return nil, errors.New("integrate takes an expression, an optional variable, and optional bounds")
	}

	val, err := e.resolveArg(args[0])
	if err != nil {
		return nil, err
	}
	name := defaultVar
	if len(args) >= 2 {
		if name, err = parseVarName(args[1]); err != nil {
			return nil, err
		}
	}

	if len(args) < 4 {
		anti, ok := expr.Integrate(val, name)
		if !ok {
			return nil, fmt.Errorf("no integration rule applies to %s", val.String())
		}
		return e.exprResult(anti), nil
	}
	return e.integrateDefinite(val, name, args[2], args[3])
}

func (e *Engine) integrateDefinite(val expr.Expr, name, lower, upper string) (*Result, error) {
	lo, loF, err := e.resolveBound(lower)
	if err != nil {
		return nil, fmt.Errorf("invalid lower bound: %w", err)
	}
	hi, hiF, err := e.resolveBound(upper)
	if err != nil {
		return nil, fmt.Errorf("invalid upper bound: %w", err)
	}

	// Prefer the exact route F(b) - F(a) when a rule applies.
	if anti, ok := expr.Integrate(val, name); ok {
		diff := expr.AddOf(anti.Sub(name, hi), expr.MulOf(expr.N(-1), anti.Sub(name, lo))).Simplify()
		if _, exact := diff.Eval(); exact {
			return e.exprResult(diff), nil
		}
		if f, ferr := expr.EvalFloat(diff, e.evalEnv(nil)); ferr == nil {
			return &Result{Body: e.formatFloat(f), Kind: KindNumber, value: expr.Float(f)}, nil
		}
	}

	f, err := expr.DefiniteIntegrate(val, name, loF, hiF, e.evalEnv(nil))
	if err != nil {
		return nil, err
	}
	return &Result{Body: e.formatFloat(f), Kind: KindNumber, value: expr.Float(f)}, nil
}

// resolveBound parses an integration bound both symbolically and as a
// float, so the exact route and the numeric fallback share one parse.
func (e *Engine) resolveBound(s string) (expr.Expr, float64, error) {
	b, err := e.resolveArg(s)
	if err != nil {
		return nil, 0, err
	}
	f, err := expr.EvalFloat(b, e.evalEnv(nil))
	if err != nil {
		return nil, 0, err
	}
	return b, f, nil
}

// Limit computes a limit: limit <expr> ; var ; point [; direction].
func (e *Engine) Limit(args []string) (*Result, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, errors.New("limit takes an expression, a variable, a point, and an optional direction")
	}
	val, err := e.resolveArg(args[0])
	if err != nil {
		return nil, err
	}
	name, err := parseVarName(args[1])
	if err != nil {
		return nil, err
	}

	var point expr.Expr
	switch strings.TrimSpace(args[2]) {
	case "inf", "+inf":
		point = expr.PosInf
	case "-inf":
		point = expr.NegInf
	default:
		if point, err = e.resolveArg(args[2]); err != nil {
			return nil, fmt.Errorf("invalid limit point: %w", err)
		}
	}

	dir := expr.Both
	if len(args) == 4 {
		switch args[3] {
		case "+":
			dir = expr.FromRight
		case "-":
			dir = expr.FromLeft
		default:
			return nil, fmt.Errorf("invalid direction %q: must be + or -", args[3])
		}
	}

	res := expr.Limit(val, name, point, dir)
	if !res.Success {
		if res.Err != nil {
			return nil, fmt.Errorf("limit could not be determined: %w", res.Err)
		}
		return nil, errors.New("limit could not be determined")
	}
	return e.exprResult(res.Value), nil
}

// Series expands a Taylor series: series <expr> [; var [; point [; order]]].
func (e *Engine) Series(args []string, withRemainder bool) (*Result, error) {
	if len(args) < 1 || len(args) > 4 {
		return nil, errors.New("series takes an expression, an optional variable, point, and order")
	}
	val, err := e.resolveArg(args[0])
	if err != nil {
		return nil, err
	}
	name := defaultVar
	if len(args) >= 2 {
		if name, err = parseVarName(args[1]); err != nil {
			return nil, err
		}
	}
	var point expr.Expr = expr.N(0)
	if len(args) >= 3 {
		if point, err = e.resolveArg(args[2]); err != nil {
			return nil, fmt.Errorf("invalid expansion point: %w", err)
		}
	}
	order := defaultSeriesOrder
	if len(args) == 4 {
		order, err = strconv.Atoi(args[3])
		if err != nil || order < 1 {
			return nil, fmt.Errorf("invalid order %q: must be an integer >= 1", args[3])
		}
	}

	if fn, ok := expr.MissingDerivative(val); ok {
		return nil, fmt.Errorf("no derivative rule for %q", fn)
	}

	var s expr.Expr
	if withRemainder {
		s = expr.TaylorSeriesWithRemainder(val, name, point, order)
	} else {
		s = expr.TaylorSeries(val, name, point, order)
	}
	return &Result{Body: s.String(), Kind: KindExpression, value: s}, nil
}

// Numeric forces floating evaluation with optional bindings:
// numeric <expr> [; name=value ...] [; precision=N].
func (e *Engine) Numeric(args []string) (*Result, error) {
	if len(args) < 1 {
		return nil, errors.New("numeric takes an expression and optional name=value bindings")
	}
	val, err := e.resolveArg(args[0])
	if err != nil {
		return nil, err
	}

	bindings := map[string]float64{}
	precision := e.sess.Precision
	for _, arg := range args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid binding %q: expected name=value", arg)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "precision" {
			p, perr := strconv.Atoi(value)
			if perr != nil || p < 1 || p > 50 {
				return nil, fmt.Errorf("invalid precision %q: must be an integer between 1 and 50", value)
			}
			precision = p
			continue
		}
		if _, verr := parseVarName(name); verr != nil {
			return nil, fmt.Errorf("invalid binding %q: %w", arg, verr)
		}
		bound, berr := e.resolveArg(value)
		if berr != nil {
			return nil, fmt.Errorf("invalid binding %q: %w", arg, berr)
		}
		f, ferr := expr.EvalFloat(bound, e.evalEnv(nil))
		if ferr != nil {
			return nil, fmt.Errorf("invalid binding %q: %w", arg, ferr)
		}
		bindings[name] = f
	}

	f, err := expr.EvalFloat(val, e.evalEnv(bindings))
	if err != nil {
		return nil, err
	}
	body := strconv.FormatFloat(f, 'g', precision, 64)
	return &Result{Body: body, Kind: KindNumber, value: expr.Float(f)}, nil
}

// Solve solves equations: solve <eq> [; eq ...] [; vars]. A trailing
// argument without "=" that is a comma-separated identifier list names
// the unknowns; otherwise the free symbols in order of appearance are
// used.
func (e *Engine) Solve(args []string) (*Result, error) {
	if len(args) < 1 {
		return nil, errors.New("solve takes at least one equation")
	}

	eqArgs := args
	var vars []string
	if len(args) > 1 {
		if names, ok := parseVarList(args[len(args)-1]); ok {
			vars = names
			eqArgs = args[:len(args)-1]
		}
	}

	residuals := make([]expr.Expr, 0, len(eqArgs))
	free := map[string]struct{}{}
	for _, arg := range eqArgs {
		eq, err := parser.ParseEquation(arg)
		if err != nil {
			return nil, err
		}
		res, err := e.sess.Resolve(eq.Residual())
		if err != nil {
			return nil, err
		}
		res = res.Simplify()
		residuals = append(residuals, res)
		for name := range expr.FreeSymbols(res) {
			free[name] = struct{}{}
		}
	}

	if vars == nil {
		vars = symbolsInOrder(eqArgs, free)
	}
	if len(vars) == 0 {
		return nil, errors.New("no unknowns to solve for")
	}

	if len(residuals) == 1 && len(vars) == 1 {
		sol, err := expr.SolvePolynomial(residuals[0], vars[0])
		if err != nil {
			return nil, err
		}
		items := make([]string, len(sol.Solutions))
		for i, s := range sol.Solutions {
			items[i] = vars[0] + " = " + e.solutionString(s)
		}
		return &Result{Body: strings.Join(items, ", "), Kind: KindList, Items: items}, nil
	}

	sols, err := expr.SolveLinearSystem(residuals, vars)
	if err != nil {
		return nil, err
	}
	items := make([]string, len(vars))
	for i, name := range vars {
		items[i] = name + " = " + e.solutionString(sols[name])
	}
	return &Result{Body: strings.Join(items, ", "), Kind: KindList, Items: items}, nil
}

func (e *Engine) solutionString(s expr.Expr) string {
	if e.sess.Mode == session.ModeFloat {
		if f, err := expr.EvalFloat(s, e.evalEnv(nil)); err == nil {
			return e.formatFloat(f)
		}
	}
	return s.String()
}

// symbolsInOrder returns the free symbols in order of first appearance
// across the equation arguments.
func symbolsInOrder(eqArgs []string, free map[string]struct{}) []string {
	var vars []string
	seen := map[string]struct{}{}
	for _, arg := range eqArgs {
		for _, tok := range parser.Tokenize(arg) {
			if tok.Type != parser.TOKEN_IDENT {
				continue
			}
			if _, isFree := free[tok.Literal]; !isFree {
				continue
			}
			if _, dup := seen[tok.Literal]; dup {
				continue
			}
			seen[tok.Literal] = struct{}{}
			vars = append(vars, tok.Literal)
		}
	}
	return vars
}

// parseVarList recognizes a comma-separated identifier list. Returns
// false when the argument contains "=" or anything but identifiers.
func parseVarList(arg string) ([]string, bool) {
	if strings.Contains(arg, "=") {
		return nil, false
	}
	toks := parser.Tokenize(arg)
	var names []string
	for i, tok := range toks {
		if tok.Type == parser.TOKEN_EOF {
			break
		}
		if i%2 == 0 {
			if tok.Type != parser.TOKEN_IDENT || expr.IsBuiltin(tok.Literal) {
				return nil, false
			}
			names = append(names, tok.Literal)
		} else if tok.Type != parser.TOKEN_COMMA {
			return nil, false
		}
	}
	if len(names) == 0 {
		return nil, false
	}
	return names, true
}

// matrixOps names the supported matrix operations.
var matrixOps = []string{"det", "inv", "transpose", "trace", "rank", "rref", "eigenvals", "eigenvects", "add", "sub", "mul"}

// Matrix runs a matrix operation: matrix <op> ; <matrix> [; <matrix>].
func (e *Engine) Matrix(args []string) (*Result, error) {
	if len(args) < 2 {
		return nil, errors.New("matrix takes an operation and a matrix literal")
	}
	op := strings.ToLower(args[0])

	binary := op == "add" || op == "sub" || op == "mul"
	if binary && len(args) != 3 {
		return nil, fmt.Errorf("matrix %s takes two matrix literals", op)
	}
	if !binary && len(args) != 2 {
		return nil, fmt.Errorf("matrix %s takes one matrix literal", op)
	}

	m, err := e.resolveMatrix(args[1])
	if err != nil {
		return nil, err
	}

	switch op {
	case "det":
		d, err := m.Determinant()
		if err != nil {
			return nil, err
		}
		return e.exprResult(d), nil
	case "trace":
		t, err := m.Trace()
		if err != nil {
			return nil, err
		}
		return e.exprResult(t), nil
	case "inv":
		inv, err := m.Inverse()
		if err != nil {
			return nil, err
		}
		return e.matrixResult(inv), nil
	case "transpose":
		return e.matrixResult(m.Transpose()), nil
	case "rref":
		r, err := m.RREF()
		if err != nil {
			return nil, err
		}
		return e.matrixResult(r), nil
	case "rank":
		r, err := m.Rank()
		if err != nil {
			return nil, err
		}
		return &Result{Body: strconv.Itoa(r), Kind: KindNumber, value: expr.N(int64(r))}, nil
	case "eigenvals":
		pairs, err := m.Eigenvectors()
		if err != nil {
			return nil, err
		}
		items := make([]string, len(pairs))
		for i, p := range pairs {
			items[i] = e.solutionString(p.Value)
			if p.Multiplicity > 1 {
				items[i] += fmt.Sprintf(" (multiplicity %d)", p.Multiplicity)
			}
		}
		return &Result{Body: strings.Join(items, ", "), Kind: KindList, Items: items}, nil
	case "eigenvects":
		pairs, err := m.Eigenvectors()
		if err != nil {
			return nil, err
		}
		items := make([]string, len(pairs))
		for i, p := range pairs {
			vecs := make([]string, len(p.Vectors))
			for j, v := range p.Vectors {
				comps := make([]string, v.Rows)
				for k, row := range v.Data {
					comps[k] = e.solutionString(row[0])
				}
				vecs[j] = "[" + strings.Join(comps, ", ") + "]"
			}
			items[i] = fmt.Sprintf("%s (multiplicity %d): %s",
				e.solutionString(p.Value), p.Multiplicity, strings.Join(vecs, ", "))
		}
		return &Result{Body: strings.Join(items, "; "), Kind: KindList, Items: items}, nil
	case "add", "sub", "mul":
		other, err := e.resolveMatrix(args[2])
		if err != nil {
			return nil, err
		}
		var out *expr.Matrix
		switch op {
		case "add":
			out, err = m.Add(other)
		case "sub":
			out, err = m.Subtract(other)
		default:
			out, err = m.Multiply(other)
		}
		if err != nil {
			return nil, err
		}
		return e.matrixResult(out), nil
	default:
		return nil, fmt.Errorf("unknown matrix operation %q (supported: %s)", op, strings.Join(matrixOps, ", "))
	}
}

// resolveMatrix parses a matrix literal and resolves session bindings
// in every entry.
func (e *Engine) resolveMatrix(literal string) (*expr.Matrix, error) {
	m, err := parser.ParseMatrix(literal)
	if err != nil {
		return nil, err
	}
	data := make([][]expr.Expr, m.Rows)
	for i := range m.Data {
		data[i] = make([]expr.Expr, m.Cols)
		for j, entry := range m.Data[i] {
			resolved, rerr := e.sess.Resolve(entry)
			if rerr != nil {
				return nil, rerr
			}
			data[i][j] = resolved.Simplify()
		}
	}
	return expr.NewMatrix(data)
}

func (e *Engine) matrixResult(m *expr.Matrix) *Result {
	cells := make([][]string, m.Rows)
	for i, row := range m.Data {
		cells[i] = make([]string, m.Cols)
		for j, entry := range row {
			cells[i][j] = e.solutionString(entry)
		}
	}
	return &Result{Body: m.String(), Kind: KindMatrix, Cells: cells}
}

// Clear removes one session binding, or all of them.
func (e *Engine) Clear(name string) (*Result, error) {
	if name == "" {
		e.sess.ClearAll()
		return &Result{Body: "cleared all definitions", Kind: KindText}, nil
	}
	if err := e.sess.Clear(name); err != nil {
		return nil, err
	}
	return &Result{Body: "cleared " + name, Kind: KindText}, nil
}

// Vars lists the session's variables and user functions.
func (e *Engine) Vars() *Result {
	type binding struct {
		name, def string
		seq       int
	}
	var rows []binding
	for name, v := range e.sess.Vars {
		rows = append(rows, binding{name: name, def: v.Value.String(), seq: v.Seq})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	var fnames []string
	for name := range e.sess.Funcs {
		fnames = append(fnames, name)
	}
	sort.Strings(fnames)

	cells := make([][]string, 0, len(rows)+len(fnames))
	var lines []string
	for _, r := range rows {
		cells = append(cells, []string{r.name, r.def})
		lines = append(lines, r.name+" = "+r.def)
	}
	for _, name := range fnames {
		fn := e.sess.Funcs[name]
		sig := fmt.Sprintf("%s(%s)", name, fn.Param)
		cells = append(cells, []string{sig, fn.Body.String()})
		lines = append(lines, sig+" = "+fn.Body.String())
	}

	if len(cells) == 0 {
		return &Result{Body: "no definitions", Kind: KindText}
	}
	return &Result{
		Body:    strings.Join(lines, "\n"),
		Kind:    KindTable,
		Columns: []string{"name", "definition"},
		Cells:   cells,
	}
}

// History returns the last n persisted entries.
func (e *Engine) History(n int) (*Result, error) {
	if e.store == nil {
		return nil, errors.New("history is not available: no state store is open")
	}
	if n < 1 {
		n = 20
	}
	entries, err := e.store.Recent(n)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(entries) == 0 {
		return &Result{Body: "no history", Kind: KindText}, nil
	}

	cells := make([][]string, len(entries))
	lines := make([]string, len(entries))
	for i, en := range entries {
		out := en.Output
		if en.IsError {
			out = "error: " + out
		}
		cells[i] = []string{en.CreatedAt.Format("2006-01-02 15:04:05"), en.Input, out}
		lines[i] = en.Input + " => " + out
	}
	return &Result{
		Body:    strings.Join(lines, "\n"),
		Kind:    KindTable,
		Columns: []string{"when", "input", "output"},
		Cells:   cells,
	}, nil
}

func parseHistoryCount(rest string) int {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 20
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 20
	}
	return n
}

// resolveArg parses an expression argument and resolves session
// bindings in it.
func (e *Engine) resolveArg(arg string) (expr.Expr, error) {
	parsed, err := parser.ParseExpression(arg)
	if err != nil {
		return nil, err
	}
	return e.sess.Resolve(parsed)
}

// parseVarName validates a variable-name argument.
func parseVarName(s string) (string, error) {
	parsed, err := parser.ParseExpression(s)
	if err != nil {
		return "", fmt.Errorf("invalid variable name %q", s)
	}
	sym, ok := parsed.(*expr.Sym)
	if !ok || expr.IsBuiltin(sym.Name()) {
		return "", fmt.Errorf("invalid variable name %q", s)
	}
	switch sym.Name() {
	case parser.ConstantPi, parser.ConstantE, "inf", "ans":
		return "", fmt.Errorf("invalid variable name %q", s)
	}
	return sym.Name(), nil
}
