package analyzer

import (
	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/source"
)

// ProgramState is the running accumulator every statement folds into, kept
// separate from StatementProcessor (the stateless logic operating on it) so
// the two compose the way checker/env.go's Env (data) and checker/checker.go
// (logic) do.
type ProgramState struct {
	Symbols   *SymbolTable
	Errors    *source.Errors
	Evaluator *Evaluator
	Condenser *Condenser

	Degree          int
	degreeSet       bool
	degreeRef       source.Ref
	degreeNamespace string

	CurrentNamespace string
	sawNamespace     bool

	visited map[string]bool // canonical include paths already processed

	definitions   map[string]*analyzed.Definition
	intermediates map[string]*analyzed.IntermediateDefinition
	publics       map[string]*analyzed.PublicDeclaration

	identities       []*analyzed.Identity
	identityCounters map[analyzed.IdentityKind]int64

	sourceOrder []analyzed.SourceOrderEntry
}

// NewProgramState wires a fresh symbol table, evaluator, and condenser
// together into an empty accumulator.
func NewProgramState() *ProgramState {
	symbols := NewSymbolTable()
	errs := source.NewErrors()
	ev := NewEvaluator(symbols, errs)
	st := &ProgramState{
		Symbols:          symbols,
		Errors:           errs,
		Evaluator:        ev,
		Condenser:        NewCondenser(symbols, errs, ev),
		visited:          map[string]bool{},
		definitions:      map[string]*analyzed.Definition{},
		intermediates:    map[string]*analyzed.IntermediateDefinition{},
		publics:          map[string]*analyzed.PublicDeclaration{},
		identityCounters: map[analyzed.IdentityKind]int64{},
	}
	return st
}

// namespaceForDeclaration is the namespace new symbols are declared under:
// the current namespace once one has been opened, or the implicit "Global"
// namespace for anything declared before the first `namespace` statement.
func (st *ProgramState) namespaceForDeclaration() string {
	if !st.sawNamespace {
		return "Global"
	}
	return st.CurrentNamespace
}

func (st *ProgramState) nextIdentityID(kind analyzed.IdentityKind) int64 {
	id := st.identityCounters[kind]
	st.identityCounters[kind]++
	return id
}

// Build assembles the final Analyzed value from everything accumulated.
func (st *ProgramState) Build() *analyzed.Analyzed {
	out := analyzed.New(st.Degree)
	out.Definitions = st.definitions
	out.Intermediates = st.intermediates
	out.Publics = st.publics
	out.Identities = st.identities
	out.SourceOrder = st.sourceOrder
	return out
}
