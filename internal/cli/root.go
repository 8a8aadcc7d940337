// Package cli provides the command-line interface for symsh.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/symstack-labs/symsh/internal/cli/commands"
	"github.com/symstack-labs/symsh/internal/cli/config"
	"github.com/symstack-labs/symsh/internal/engine"
	"github.com/symstack-labs/symsh/internal/script"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ErrBatch marks a batch failure whose messages were already printed,
// so Execute exits non-zero without repeating them.
var ErrBatch = errors.New("one or more commands failed")

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		commandFlags  []string
		scriptFile    string
		haltOnError   bool
		watchScript   bool
		withRemainder bool
	)

	rootCmd := &cobra.Command{
		Use:   "symsh",
		Short: "symsh - Symbolic Calculator Shell",
		Long: `symsh is an interactive symbolic calculator.

It evaluates exact arithmetic over rationals, differentiates and
integrates expressions, computes limits and Taylor series, solves
equations, and works with matrices. Sessions carry named variables,
user functions, and the ans history between commands.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetCurrentConfig()
			logger := config.GetLogger(cmd.Context())

			eng, err := commands.NewEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			eng.SeriesRemainder = withRemainder

			r := commands.NewRendererFor(cmd, cfg)

			// -c commands run first, in order.
			failed := 0
			for _, input := range commandFlags {
				res, err := eng.Execute(input)
				if err != nil {
					r.Error(err)
					failed++
					if haltOnError {
						return ErrBatch
					}
					continue
				}
				r.Result(res)
			}
			if len(commandFlags) > 0 && scriptFile == "" {
				if failed > 0 {
					return ErrBatch
				}
				return nil
			}

			// -s runs a script file after any -c commands.
			if scriptFile != "" {
				runner := script.NewRunner(eng, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(res *engine.Result) {
					r.Result(res)
				}, logger)
				runner.Halt = haltOnError
				if watchScript {
					return runner.Watch(cmd.Context(), scriptFile)
				}
				if err := runner.RunFile(scriptFile); err != nil {
					r.Error(err)
					return ErrBatch
				}
				if failed > 0 {
					return ErrBatch
				}
				return nil
			}

			// No -c and no -s: interactive REPL on a terminal,
			// otherwise read commands from stdin.
			if stdinIsTerminal(cmd) {
				return commands.RunREPL(cmd, eng, r, cfg)
			}
			runner := script.NewRunner(eng, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(res *engine.Result) {
				r.Result(res)
			}, logger)
			runner.Halt = haltOnError
			if err := runner.Run(cmd.InOrStdin(), false); err != nil {
				r.Error(err)
				return ErrBatch
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Symbolic calculator shell
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./symsh.yml)")
	rootCmd.PersistentFlags().Int("precision", config.DefaultPrecision, "Significant digits for floating output")
	rootCmd.PersistentFlags().String("mode", config.DefaultMode, "Arithmetic mode (exact|float)")
	rootCmd.PersistentFlags().StringP("format", "f", config.DefaultFormat, "Output format (auto|text|markdown|json)")
	rootCmd.PersistentFlags().String("prompt", config.DefaultPrompt, "Interactive prompt string")
	rootCmd.PersistentFlags().String("history-file", "", "Readline history file")
	rootCmd.PersistentFlags().String("state-path", "", "Path to the command history database")
	rootCmd.PersistentFlags().String("macros-dir", "", "Path to Starlark macro files")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Local flags for batch execution
	rootCmd.Flags().StringArrayVarP(&commandFlags, "command", "c", nil, "Command to run (repeatable, runs in order)")
	rootCmd.Flags().StringVarP(&scriptFile, "script", "s", "", "Script file to run")
	rootCmd.Flags().BoolVar(&haltOnError, "halt", false, "Stop at the first failing command")
	rootCmd.Flags().BoolVar(&watchScript, "watch", false, "Re-run the script when it changes")
	rootCmd.Flags().BoolVar(&withRemainder, "remainder", false, "Include the remainder term in series output")

	// Register completion for format flag
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Register completion for mode flag
	_ = rootCmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"exact", "float"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewScriptCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// stdinIsTerminal reports whether the command reads from an
// interactive terminal.
func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context, so
// signal cancellation reaches long-running commands like --watch.
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrBatch) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for symsh.

To load completions:

Bash:
  $ source <(symsh completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ symsh completion bash > /etc/bash_completion.d/symsh
  # macOS:
  $ symsh completion bash > $(brew --prefix)/etc/bash_completion.d/symsh

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ symsh completion zsh > "${fpath[1]}/_symsh"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ symsh completion fish | source

  # To load completions for each session, execute once:
  $ symsh completion fish > ~/.config/fish/completions/symsh.fish

PowerShell:
  PS> symsh completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> symsh completion powershell > symsh.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
