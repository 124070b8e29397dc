package analyzer

import (
	"errors"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
)

// Options configures one Analyze run.
type Options struct {
	// MaxRecursionDepth overrides the Evaluator's call-chain depth limit
	// (zero keeps the default of 256).
	MaxRecursionDepth int
	// Loader resolves Include statements; nil disables Include entirely
	// (an Include statement is then silently skipped, matching a
	// single-file compilation unit with no includes).
	Loader SourceLoader
}

// Analyze folds a parsed statement stream into an Analyzed program,
// following Include statements through opts.Loader and collecting every
// diagnostic before returning. It is the single entry point external
// callers (a driver binary, a test) use; everything in this package below
// it is an implementation detail of the fold.
func Analyze(entryFile string, statements []*ast.Statement, opts Options) (*analyzed.Analyzed, error) {
	state := NewProgramState()
	if opts.MaxRecursionDepth > 0 {
		state.Evaluator.MaxDepth = opts.MaxRecursionDepth
	}
	state.visited[entryFile] = true

	sp := &StatementProcessor{Loader: opts.Loader}
	for _, stmt := range statements {
		stmt.Ref.File = firstNonEmpty(stmt.Ref.File, entryFile)
		if err := sp.Process(state, stmt); err != nil {
			return nil, err
		}
	}

	if state.Errors.HasErrors() {
		return nil, errors.New(state.Errors.String())
	}
	return state.Build(), nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
