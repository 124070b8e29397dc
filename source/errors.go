package source

import (
	"fmt"

	errorsv1 "gopkg.in/src-d/go-errors.v1"
)

// Error kind taxonomy for the analysis phase (spec.md §7: "Error kinds
// (taxonomy, not type names)"). Each Kind is a sentinel created with
// gopkg.in/src-d/go-errors.v1 so callers can test with errors.Is /
// Kind.Is rather than type-asserting a concrete struct.
var (
	KindUnresolvedReference = errorsv1.NewKind("unresolved reference: %s")
	KindDuplicateDefinition = errorsv1.NewKind("duplicate definition: %s")
	KindNamespaceDegree     = errorsv1.NewKind("namespace %q declares degree %s, but %q already fixed it at %s")
	KindArrayOutOfBounds    = errorsv1.NewKind("array index %d out of bounds for %q of length %d")
	KindDisallowedOperator  = errorsv1.NewKind("operator %q is not allowed in an algebraic position")
	KindDisallowedForm      = errorsv1.NewKind("expression form not allowed here: %s")
	KindEvaluation          = errorsv1.NewKind("evaluation error in %s: %s")
	KindRecursionDepth      = errorsv1.NewKind("recursion depth exceeded evaluating %s (limit %d)")
	// KindConnectUnsupported fires when a Connect identity reaches the
	// condenser: it is parsed and round-trips through the printer, but this
	// compiler never lowers it into anything the witness generator can act
	// on (spec.md §9 DESIGN NOTES open question).
	KindConnectUnsupported = errorsv1.NewKind("connect identity %d is not supported by the condenser")
)

// Error is one diagnostic: a Kind-tagged message plus the Ref it occurred
// at. It mirrors the teacher's common.Error / Error.ToDisplayString, which
// renders "ERROR: file:line:col: message" with a caret snippet.
type Error struct {
	Ref     Ref
	Column  int
	Snippet string
	Kind    *errorsv1.Kind
	Err     error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Display renders the full multi-line diagnostic the way
// common.Error.ToDisplayString does: header line, source snippet, caret.
func (e *Error) Display() string {
	header := fmt.Sprintf("ERROR: %s:%d: %s", e.Ref.File, e.Ref.Line, e.Err.Error())
	if e.Snippet == "" {
		return header
	}
	return header + "\n | " + Caret(e.Snippet, e.Column)
}

// Errors is the accumulator every analyzer pass reports into, grounded on
// common.Errors: a flat, append-only slice with a combined String().
type Errors struct {
	errs []*Error
}

// NewErrors returns an empty accumulator.
func NewErrors() *Errors {
	return &Errors{}
}

// Report appends one diagnostic built from a Kind and its format args.
func (e *Errors) Report(ref Ref, table *LineTable, kind *errorsv1.Kind, args ...interface{}) {
	err := &Error{Ref: ref, Kind: kind, Err: kind.New(args...)}
	if table != nil {
		if snippet, ok := table.Snippet(ref.Line); ok {
			err.Snippet = snippet
		}
	}
	e.errs = append(e.errs, err)
}

// ReportAt is like Report but also records the column for caret alignment.
func (e *Errors) ReportAt(ref Ref, col int, table *LineTable, kind *errorsv1.Kind, args ...interface{}) {
	e.Report(ref, table, kind, args...)
	if len(e.errs) > 0 {
		e.errs[len(e.errs)-1].Column = col
	}
}

// All returns every accumulated diagnostic.
func (e *Errors) All() []*Error {
	return e.errs[:]
}

// HasErrors reports whether any diagnostic was reported.
func (e *Errors) HasErrors() bool {
	return len(e.errs) > 0
}

func (e *Errors) String() string {
	out := ""
	for i, err := range e.errs {
		if i > 0 {
			out += "\n"
		}
		out += err.Display()
	}
	return out
}
