package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/symstack-labs/symsh/internal/cli/config"
)

// NewHistoryCommand creates the history command, which prints entries
// persisted by prior sessions.
func NewHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [n]",
		Short: "Show persisted evaluation history",
		Long:  `Print the last n evaluations from the history database (default 20).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 20
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("invalid count %q: must be a positive integer", args[0])
				}
				n = v
			}

			cfg := config.GetCurrentConfig()
			logger := config.GetLogger(cmd.Context())

			eng, err := NewEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			res, err := eng.History(n)
			if err != nil {
				return err
			}
			NewRendererFor(cmd, cfg).Result(res)
			return nil
		},
	}
}
