package config

import "fmt"

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Precision < 1 || c.Precision > 50 {
		return fmt.Errorf("invalid precision %d: must be between 1 and 50", c.Precision)
	}
	if c.Mode != "exact" && c.Mode != "float" {
		return fmt.Errorf("invalid mode %q: must be exact or float", c.Mode)
	}
	switch c.Format {
	case "auto", "text", "json", "markdown":
	default:
		return fmt.Errorf("invalid format %q: must be auto, text, json, or markdown", c.Format)
	}
	return nil
}
