package parser

import "github.com/symstack-labs/symsh/pkg/expr"

// Constants recognized by the evaluator. They lex as plain
// identifiers; binding happens at evaluation time.
const (
	ConstantPi = "pi"
	ConstantE  = "e"
)

// CompletionWords returns the identifiers worth offering in
// tab-completion: built-in functions plus the named constants.
func CompletionWords() []string {
	words := expr.BuiltinNames()
	return append(words, ConstantPi, ConstantE, "log")
}
