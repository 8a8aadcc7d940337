package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/symstack-labs/symsh/internal/engine"
)

// Mode is the output format.
type Mode string

const (
	// ModeAuto picks text on a TTY and plain text without color otherwise.
	ModeAuto Mode = "auto"
	// ModeText is styled terminal text.
	ModeText Mode = "text"
	// ModeJSON is one JSON object per result.
	ModeJSON Mode = "json"
	// ModeMarkdown is markdown suitable for piping into documents.
	ModeMarkdown Mode = "markdown"
)

// Renderer writes command results and messages.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. For ModeAuto the effective format is
// decided by whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, mode: mode}
	r.styles = NewStyles(colorEnabled(r.isTTY()))
	return r
}

// DisableColor switches to unstyled output regardless of TTY state.
func (r *Renderer) DisableColor() {
	r.styles = NewStyles(false)
}

func (r *Renderer) isTTY() bool {
	if f, ok := r.out.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// EffectiveMode resolves ModeAuto to a concrete mode.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	return ModeText
}

// Out returns the destination writer.
func (r *Renderer) Out() io.Writer { return r.out }

// Styles returns the active style set.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the output stream.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output stream.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Error writes an error line to the error stream.
func (r *Renderer) Error(err error) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(fmt.Sprintf("Error: %v", err)))
}

// Warning writes a warning line to the error stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("Warning: "+msg))
}

// Success writes a highlighted line to the output stream.
func (r *Renderer) Success(msg string) {
	_, _ = fmt.Fprintln(r.out, r.styles.Success.Render(msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resultJSON is the JSON shape of a rendered result.
type resultJSON struct {
	Label  string     `json:"label,omitempty"`
	Result string     `json:"result"`
	Items  []string   `json:"items,omitempty"`
	Rows   [][]string `json:"rows,omitempty"`
}

// Result renders one engine result in the effective mode.
func (r *Renderer) Result(res *engine.Result) {
	if res == nil {
		return
	}
	switch r.EffectiveMode() {
	case ModeJSON:
		_ = r.JSON(resultJSON{Label: res.Label, Result: res.Body, Items: res.Items, Rows: res.Cells})
	case ModeMarkdown:
		r.resultMarkdown(res)
	default:
		r.resultText(res)
	}
}

func (r *Renderer) resultText(res *engine.Result) {
	switch res.Kind {
	case engine.KindMatrix:
		renderGrid(r.out, nil, res.Cells)
	case engine.KindTable:
		renderGrid(r.out, res.Columns, res.Cells)
	case engine.KindList:
		for _, item := range res.Items {
			r.Println(r.styles.Result.Render(item))
		}
	default:
		body := r.styles.Result.Render(res.Body)
		if res.Label != "" {
			r.Println(r.styles.Bold.Render(res.Label) + " = " + body)
			return
		}
		r.Println(body)
	}
}

func (r *Renderer) resultMarkdown(res *engine.Result) {
	switch res.Kind {
	case engine.KindMatrix:
		renderMarkdownTable(r.out, nil, res.Cells)
	case engine.KindTable:
		renderMarkdownTable(r.out, res.Columns, res.Cells)
	case engine.KindList:
		for _, item := range res.Items {
			r.Printf("- %s\n", item)
		}
	default:
		if res.Label != "" {
			r.Printf("**%s** = `%s`\n", res.Label, res.Body)
			return
		}
		r.Printf("`%s`\n", res.Body)
	}
}
