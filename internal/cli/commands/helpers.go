// Package commands implements the symsh subcommands and the
// interactive REPL.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/symstack-labs/symsh/internal/cli/config"
	"github.com/symstack-labs/symsh/internal/cli/output"
	"github.com/symstack-labs/symsh/internal/engine"
)

// NewEngine creates an engine from the CLI configuration.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	// Ensure the state directory exists
	if cfg.StatePath != "" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	return engine.New(engine.Config{
		Precision: cfg.Precision,
		Mode:      cfg.Mode,
		StatePath: cfg.StatePath,
		MacrosDir: cfg.MacrosDir,
		Logger:    logger,
	})
}

// NewRendererFor creates a renderer bound to the command's streams.
func NewRendererFor(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Format))
	if cfg.NoColor {
		r.DisableColor()
	}
	return r
}
