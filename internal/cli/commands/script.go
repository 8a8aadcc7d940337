package commands

import (
	"github.com/spf13/cobra"

	"github.com/symstack-labs/symsh/internal/cli/config"
	"github.com/symstack-labs/symsh/internal/engine"
	"github.com/symstack-labs/symsh/internal/script"
)

// NewScriptCommand creates the script command.
func NewScriptCommand() *cobra.Command {
	var halt bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "script <file>",
		Short: "Run a calculator script file",
		Long: `Execute a script file: one command per line, blank lines and
lines starting with # skipped. Each executed line is echoed before its
output. Errors are printed and the run continues unless --halt is set.`,
		Example: `  symsh script calc.txt
  symsh script calc.txt --halt
  symsh script calc.txt --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetCurrentConfig()
			logger := config.GetLogger(cmd.Context())

			eng, err := NewEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			r := NewRendererFor(cmd, cfg)
			runner := script.NewRunner(eng, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(res *engine.Result) {
				r.Result(res)
			}, logger)
			runner.Halt = halt

			if watch {
				return runner.Watch(cmd.Context(), args[0])
			}
			return runner.RunFile(args[0])
		},
	}

	cmd.Flags().BoolVar(&halt, "halt", false, "Stop at the first error")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-run the script when the file changes")

	return cmd
}
