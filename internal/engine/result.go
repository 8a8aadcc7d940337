package engine

import "github.com/symstack-labs/symsh/pkg/expr"

// ResultKind selects how a result is rendered.
type ResultKind int

const (
	// KindText is plain text output.
	KindText ResultKind = iota
	// KindExpression is a symbolic expression.
	KindExpression
	// KindNumber is a single numeric value.
	KindNumber
	// KindList is a list of values, one per line or comma-joined.
	KindList
	// KindMatrix is a matrix, rendered as a grid.
	KindMatrix
	// KindTable is tabular output with a header row.
	KindTable
)

// Result is the output of one command. Body always carries a plain
// text rendering; Items, Cells and Columns carry structure for the
// list, matrix and table kinds.
type Result struct {
	Label   string
	Body    string
	Kind    ResultKind
	Items   []string
	Cells   [][]string
	Columns []string

	// value is pushed onto the ans history when non-nil.
	value expr.Expr
}
