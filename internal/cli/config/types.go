// Package config loads symsh configuration from a YAML file,
// environment variables, and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	Precision   int    `koanf:"precision"`
	Mode        string `koanf:"mode"`
	Format      string `koanf:"format"`
	Prompt      string `koanf:"prompt"`
	HistoryFile string `koanf:"history_file"`
	StatePath   string `koanf:"state_path"`
	MacrosDir   string `koanf:"macros_dir"`
	NoColor     bool   `koanf:"no_color"`
	Verbose     bool   `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultPrecision = 12
	DefaultMode      = "exact"
	DefaultFormat    = "auto" // Auto-detect: TTY=text, non-TTY=text without color
	DefaultPrompt    = "symsh> "
)
