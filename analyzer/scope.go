package analyzer

import (
	"strings"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
)

// SourceLoader resolves an include path, written relative to the including
// file, to that file's already-parsed statement stream and a canonical
// path used for include cycle detection ("each canonical path is processed
// at most once"). Both file I/O and the parser grammar are out-of-scope
// external concerns (spec.md §1); this single collaborator stands in for
// both, since a parsed-but-unresolved include is the only artifact the
// analyzer can consume.
type SourceLoader interface {
	Load(fromFile, path string) (statements []*ast.Statement, canonicalPath string, err error)
}

// IDAllocator hands out dense, per-subkind polynomial ids, plus a separate
// counter for non-polynomial ("other") symbols, per "Symbol ID allocation
// uses separate counters per kind ... so IDs are dense within a kind;
// arrays reserve length consecutive IDs."
type IDAllocator struct {
	nextPoly  map[analyzed.PolySubKind]int64
	nextOther int64
}

// NewIDAllocator returns an allocator with every counter at zero.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{nextPoly: map[analyzed.PolySubKind]int64{}}
}

// NextPoly reserves width consecutive ids (width=1 for a scalar column) in
// the given subkind's dense range and returns the first one.
func (a *IDAllocator) NextPoly(sub analyzed.PolySubKind, width int) int64 {
	if width < 1 {
		width = 1
	}
	id := a.nextPoly[sub]
	a.nextPoly[sub] = id + int64(width)
	return id
}

// NextOther reserves one id in the "other"/constant-scalar counter.
func (a *IDAllocator) NextOther() int64 {
	id := a.nextOther
	a.nextOther++
	return id
}

// SymbolTable is the running absolute-name -> Symbol map built up while
// folding statements, plus the top-level-definition set that name
// resolution rule 2 needs. Grounded on checker/env.go's scope-chain symbol
// lookup, flattened to a single map: this language has no nested lexical
// scoping of *symbols* (only of compile-time let/lambda bindings, handled
// separately by Env).
type SymbolTable struct {
	ids      *IDAllocator
	symbols  map[string]*analyzed.Symbol
	topLevel map[string]bool
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		ids:      NewIDAllocator(),
		symbols:  map[string]*analyzed.Symbol{},
		topLevel: map[string]bool{},
	}
}

// IDs exposes the underlying allocator.
func (st *SymbolTable) IDs() *IDAllocator { return st.ids }

// Declare registers sym under its absolute name. isTopLevel marks a symbol
// declared before any namespace statement was seen, which resolution rule 2
// treats as reachable unnamespaced from anywhere.
func (st *SymbolTable) Declare(sym *analyzed.Symbol, isTopLevel bool) {
	st.symbols[sym.AbsoluteName] = sym
	if isTopLevel {
		st.topLevel[sym.AbsoluteName] = true
	}
}

// Lookup finds a symbol by its already-resolved absolute name.
func (st *SymbolTable) Lookup(absoluteName string) (*analyzed.Symbol, bool) {
	sym, ok := st.symbols[absoluteName]
	return sym, ok
}

// Exists reports whether absoluteName has been declared.
func (st *SymbolTable) Exists(absoluteName string) bool {
	_, ok := st.symbols[absoluteName]
	return ok
}

// All returns every declared symbol, for the final assembly pass.
func (st *SymbolTable) All() map[string]*analyzed.Symbol {
	return st.symbols
}

// Resolve implements the four-rule name-resolution priority list for a
// parsed reference `ns::name` against the namespace currently being
// processed:
//  1. a `%`-prefixed name is an unnamespaced global constant.
//  2. a name matching a top-level definition is used unnamespaced,
//     regardless of any namespace written on the reference.
//  3. an unnamespaced reference falls back to `Global.name` if that exists.
//  4. otherwise it resolves to `current_namespace.name`.
//
// An explicit `ns::name` that matches neither rule 1 nor 2 resolves
// directly to `ns.name`.
func (st *SymbolTable) Resolve(ref ast.NamespacedRef, currentNamespace string) (string, bool) {
	if strings.HasPrefix(ref.Name, "%") {
		return ref.Name, st.Exists(ref.Name)
	}
	if st.topLevel[ref.Name] {
		return ref.Name, true
	}
	if st.topLevel["Global."+ref.Name] {
		return "Global." + ref.Name, true
	}
	if ref.Namespace != "" {
		abs := ref.Namespace + "." + ref.Name
		return abs, st.Exists(abs)
	}
	if st.Exists("Global." + ref.Name) {
		return "Global." + ref.Name, true
	}
	abs := currentNamespace + "." + ref.Name
	return abs, st.Exists(abs)
}
