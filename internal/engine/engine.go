// Package engine evaluates calculator commands. It owns the session
// state, the optional history store, and the Starlark macro registry,
// and is the only layer the CLI talks to.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/symstack-labs/symsh/internal/macro"
	"github.com/symstack-labs/symsh/internal/session"
	"github.com/symstack-labs/symsh/internal/state"
	"github.com/symstack-labs/symsh/pkg/expr"
)

// Config holds engine configuration.
type Config struct {
	// Precision is the number of significant digits for numeric output.
	Precision int
	// Mode is the arithmetic mode, "exact" or "float".
	Mode string
	// StatePath is the path to the SQLite history database (optional).
	StatePath string
	// MacrosDir is the path to the Starlark macros directory (optional).
	MacrosDir string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine dispatches calculator commands against a session.
type Engine struct {
	logger *slog.Logger
	sess   *session.Session
	store  state.Store
	macros *macro.Registry

	sessionID string
	seq       int

	// SeriesRemainder keeps the O-term on series output.
	SeriesRemainder bool
}

// New creates an engine. The history store and the macro registry are
// optional: failures there degrade to a logged warning so the
// calculator keeps working.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = session.ModeExact
	}
	if mode != session.ModeExact && mode != session.ModeFloat {
		return nil, fmt.Errorf("invalid mode %q: must be %q or %q", mode, session.ModeExact, session.ModeFloat)
	}
	precision := cfg.Precision
	if precision == 0 {
		precision = 12
	}
	if precision < 1 || precision > 50 {
		return nil, fmt.Errorf("invalid precision %d: must be between 1 and 50", precision)
	}

	e := &Engine{
		logger:    logger,
		sess:      session.New(mode, precision),
		sessionID: state.NewID(),
	}

	if cfg.MacrosDir != "" {
		reg, err := macro.LoadRegistry(cfg.MacrosDir)
		if err != nil {
			logger.Warn("failed to load macros", "dir", cfg.MacrosDir, "error", err)
		} else if reg != nil && reg.Len() > 0 {
			logger.Debug("loaded macros", "count", reg.Len())
			e.macros = reg
		}
	}

	if cfg.StatePath != "" {
		st := state.NewSQLiteStore()
		if err := st.Open(cfg.StatePath); err != nil {
			logger.Warn("history disabled: failed to open state store", "path", cfg.StatePath, "error", err)
		} else if err := st.Migrate(); err != nil {
			logger.Warn("history disabled: failed to migrate state store", "path", cfg.StatePath, "error", err)
			_ = st.Close()
		} else {
			e.store = st
		}
	}

	return e, nil
}

// Close releases the history store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Execute runs one line of calculator input: a command with
// `;`-separated arguments, or a bare statement which evaluates as
// `eval`. Successful results are pushed onto the ans history and, when
// a store is open, persisted.
func (e *Engine) Execute(input string) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	start := time.Now()
	res, err := e.dispatch(input)
	e.record(input, res, err, time.Since(start))
	return res, err
}

func (e *Engine) dispatch(input string) (*Result, error) {
	word, rest := splitCommand(input)

	switch word {
	case "eval":
		return e.Eval(splitArgs(rest))
	case "simplify":
		return e.Simplify(splitArgs(rest))
	case "diff":
		return e.Diff(splitArgs(rest))
	case "integrate":
		return e.Integrate(splitArgs(rest))
	case "limit":
		return e.Limit(splitArgs(rest))
	case "series":
		return e.Series(splitArgs(rest), e.SeriesRemainder)
	case "numeric":
		return e.Numeric(splitArgs(rest))
	case "solve":
		return e.Solve(splitArgs(rest))
	case "matrix":
		return e.Matrix(splitArgs(rest))
	case "clear":
		return e.Clear(strings.TrimSpace(rest))
	case "history":
		return e.History(parseHistoryCount(rest))
	default:
		return e.evalStatement(input)
	}
}

// splitCommand splits the leading command word from its argument text.
func splitCommand(input string) (string, string) {
	i := strings.IndexAny(input, " \t")
	if i < 0 {
		return strings.ToLower(input), ""
	}
	return strings.ToLower(input[:i]), strings.TrimSpace(input[i+1:])
}

// splitArgs splits command arguments on `;` and trims each.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = strings.TrimSpace(p)
	}
	return args
}

// record pushes a successful result onto the ans history and persists
// the evaluation when a store is open. Store failures are warnings.
func (e *Engine) record(input string, res *Result, err error, dur time.Duration) {
	if err == nil && res != nil && res.value != nil {
		e.sess.PushResult(res.value)
	}
	if e.store == nil {
		return
	}

	entry := &state.Entry{
		SessionID:  e.sessionID,
		Seq:        e.seq,
		Input:      input,
		DurationMS: dur.Milliseconds(),
	}
	e.seq++
	switch {
	case err != nil:
		entry.Output = err.Error()
		entry.IsError = true
	case res != nil:
		entry.Output = res.Body
	}

	if aerr := e.store.Append(entry); aerr != nil {
		e.logger.Warn("failed to persist history entry", "error", aerr)
	}
}

// evalEnv builds the numeric evaluation environment: the given
// bindings plus the loaded macro functions.
func (e *Engine) evalEnv(bindings map[string]float64) *expr.EvalEnv {
	env := &expr.EvalEnv{Bindings: bindings}
	if e.macros != nil && e.macros.Len() > 0 {
		env.Funcs = make(map[string]func([]float64) (float64, error), e.macros.Len())
		for _, name := range e.macros.Names() {
			fn, _ := e.macros.Lookup(name)
			env.Funcs[name] = fn
		}
	}
	return env
}

// Mode returns the current arithmetic mode.
func (e *Engine) Mode() string { return e.sess.Mode }

// SetMode switches between exact and float arithmetic.
func (e *Engine) SetMode(mode string) error {
	if mode != session.ModeExact && mode != session.ModeFloat {
		return fmt.Errorf("invalid mode %q: must be %q or %q", mode, session.ModeExact, session.ModeFloat)
	}
	e.sess.Mode = mode
	return nil
}

// Precision returns the number of significant digits for numeric output.
func (e *Engine) Precision() int { return e.sess.Precision }

// SetPrecision changes the numeric output precision.
func (e *Engine) SetPrecision(n int) error {
	if n < 1 || n > 50 {
		return fmt.Errorf("invalid precision %d: must be between 1 and 50", n)
	}
	e.sess.Precision = n
	return nil
}

// MacroNames returns the qualified names of the loaded macro functions.
func (e *Engine) MacroNames() []string {
	if e.macros == nil {
		return nil
	}
	return e.macros.Names()
}

// MacroInfo describes a loaded macro for help listings.
type MacroInfo struct {
	Signature string
	Doc       string
}

// MacroListing returns the loaded macros with the signatures and
// docstrings collected from the static parse of their source files,
// sorted by qualified name.
func (e *Engine) MacroListing() []MacroInfo {
	if e.macros == nil {
		return nil
	}
	described := e.macros.Describe()
	infos := make([]MacroInfo, len(described))
	for i, d := range described {
		infos[i] = MacroInfo{Signature: d.Signature, Doc: d.Doc}
	}
	return infos
}

// SaveSession writes the session bindings to a YAML file.
func (e *Engine) SaveSession(path string) error { return e.sess.SaveFile(path) }

// LoadSession restores session bindings from a YAML file.
func (e *Engine) LoadSession(path string) error { return e.sess.LoadFile(path) }
