package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/symstack-labs/symsh/internal/cli/config"
	"github.com/symstack-labs/symsh/internal/cli/output"
	"github.com/symstack-labs/symsh/internal/engine"
	"github.com/symstack-labs/symsh/internal/script"
	"github.com/symstack-labs/symsh/pkg/parser"
)

// commandWords are the calculator commands offered for completion.
var commandWords = []string{
	"eval", "simplify", "diff", "integrate", "limit", "series",
	"numeric", "solve", "matrix", "script", "clear", "history",
}

// dotCommands are the REPL control commands.
var dotCommands = []string{
	".help", ".vars", ".mode", ".precision", ".history", ".save", ".load", ".quit", ".exit",
}

// RunREPL runs the interactive shell until EOF or .quit.
func RunREPL(cmd *cobra.Command, eng *engine.Engine, r *output.Renderer, cfg *config.Config) error {
	historyFile := cfg.HistoryFile
	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".symsh_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(eng),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "symsh (mode: %s, precision: %d)\n", eng.Mode(), eng.Precision())
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if quit := execREPLLine(cmd, eng, r, line); quit {
			break
		}
	}

	return nil
}

// execREPLLine handles one REPL line. Returns true when the REPL
// should exit.
func execREPLLine(cmd *cobra.Command, eng *engine.Engine, r *output.Renderer, line string) bool {
	if line == "exit" || line == "quit" {
		return true
	}
	if strings.HasPrefix(line, ".") {
		return handleDotCommand(cmd, eng, r, line)
	}

	parts := strings.Fields(line)
	if strings.ToLower(parts[0]) == "script" {
		if len(parts) != 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: script <file>")
			return false
		}
		logger := config.GetLogger(cmd.Context())
		runner := script.NewRunner(eng, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(res *engine.Result) {
			r.Result(res)
		}, logger)
		if err := runner.RunFile(parts[1]); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return false
	}

	res, err := eng.Execute(line)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return false
	}
	r.Result(res)
	return false
}

func handleDotCommand(cmd *cobra.Command, eng *engine.Engine, r *output.Renderer, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	errOut := cmd.ErrOrStderr()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout(), eng)

	case ".vars":
		r.Result(eng.Vars())

	case ".mode":
		if len(parts) < 2 {
			r.Println("mode: " + eng.Mode())
			return false
		}
		if err := eng.SetMode(parts[1]); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		r.Println("mode: " + eng.Mode())

	case ".precision":
		if len(parts) < 2 {
			r.Printf("precision: %d\n", eng.Precision())
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: invalid precision %q\n", parts[1])
			return false
		}
		if err := eng.SetPrecision(n); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		r.Printf("precision: %d\n", eng.Precision())

	case ".history":
		n := 20
		if len(parts) >= 2 {
			if v, err := strconv.Atoi(parts[1]); err == nil && v > 0 {
				n = v
			}
		}
		res, err := eng.History(n)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		r.Result(res)

	case ".save":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .save <file>")
			return false
		}
		if err := eng.SaveSession(parts[1]); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		r.Println("saved session to " + parts[1])

	case ".load":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .load <file>")
			return false
		}
		if err := eng.LoadSession(parts[1]); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		r.Println("loaded session from " + parts[1])

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer, eng *engine.Engine) {
	help := `
Commands (arguments separated by ;):
  eval <expr>                              Evaluate an expression
  simplify <expr>                          Deep simplification
  diff <expr> [; var [; order]]            Differentiate
  integrate <expr> [; var [; lo ; hi]]     Integrate
  limit <expr> ; var ; point [; +|-]       Limit
  series <expr> [; var [; point [; n]]]    Taylor series
  numeric <expr> [; name=value ...]        Floating evaluation
  solve <eq> [; eq ...] [; vars]           Solve equations
  matrix <op> ; <matrix> [; <matrix>]      Matrix operations
  script <file>                            Run a script file
  clear [name]                             Remove one or all bindings

Bindings:
  name = <expr>         Assign a variable
  f(x) = <expr>         Define a function
  ans, ans(k)           Previous results

Shell:
  .help                 Show this help message
  .vars                 List session bindings
  .mode [exact|float]   Show or switch arithmetic mode
  .precision [n]        Show or set output precision
  .history [n]          Show persisted history
  .save <file>          Save session bindings
  .load <file>          Load session bindings
  .quit / .exit         Exit`
	_, _ = fmt.Fprintln(w, help)

	if macros := eng.MacroListing(); len(macros) > 0 {
		_, _ = fmt.Fprintln(w, "\nMacros:")
		for _, m := range macros {
			if m.Doc != "" {
				_, _ = fmt.Fprintf(w, "  %-32s %s\n", m.Signature, m.Doc)
			} else {
				_, _ = fmt.Fprintf(w, "  %s\n", m.Signature)
			}
		}
	}
}

// newCompleter creates a readline completer covering commands,
// built-in functions, constants, macros, and dot-commands.
func newCompleter(eng *engine.Engine) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, word := range commandWords {
		items = append(items, readline.PcItem(word))
	}
	for _, word := range parser.CompletionWords() {
		items = append(items, readline.PcItem(word))
	}
	for _, name := range eng.MacroNames() {
		items = append(items, readline.PcItem(name))
	}
	for _, word := range dotCommands {
		items = append(items, readline.PcItem(word))
	}
	return readline.NewPrefixCompleter(items...)
}
