// Package output renders command results as text, JSON, or markdown.
package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Info    lipgloss.Style
	Result  lipgloss.Style
}

// NewStyles builds the style set. Styling is disabled when color is
// off (NO_COLOR, or a non-TTY destination).
func NewStyles(colored bool) *Styles {
	if !colored {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header1: plain, Header2: plain, Bold: plain, Muted: plain,
			Error: plain, Warning: plain, Success: plain, Info: plain, Result: plain,
		}
	}
	return &Styles{
		Header1: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Result:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// colorEnabled reports whether styled output should be used, honoring
// NO_COLOR and friends via termenv.
func colorEnabled(isTTY bool) bool {
	return isTTY && !termenv.EnvNoColor()
}
