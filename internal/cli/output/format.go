package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// FormatHeader renders a markdown header of the given level.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue renders a markdown key-value line.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// renderGrid writes cells as a light box-drawn table. A nil header
// renders a borderless grid, used for matrices.
func renderGrid(w io.Writer, header []string, cells [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	if header != nil {
		row := make(table.Row, len(header))
		for i, h := range header {
			row[i] = h
		}
		t.AppendHeader(row)
	}
	for _, cell := range cells {
		row := make(table.Row, len(cell))
		for i, c := range cell {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
}

// renderMarkdownTable writes cells as a markdown pipe table. A nil
// header gets empty column names so the table stays valid markdown.
func renderMarkdownTable(w io.Writer, header []string, cells [][]string) {
	if len(cells) == 0 {
		return
	}
	if header == nil {
		header = make([]string, len(cells[0]))
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, cell := range cells {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cell, " | "))
	}
}
