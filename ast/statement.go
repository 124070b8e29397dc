package ast

import "github.com/AztecProtocol/powdr/source"

// StatementKind tags the top-level statement variants the parser produces
// (spec.md §6 "Parsed AST interface").
type StatementKind int

const (
	IncludeKind StatementKind = iota
	NamespaceKind
	LetStatementKind
	PolynomialDefinitionKind
	PublicDeclarationKind
	PolynomialConstantDeclarationKind
	PolynomialConstantDefinitionKind
	PolynomialCommitDeclarationKind
	PolynomialIdentityKind
	PlookupIdentityKind
	PermutationIdentityKind
	ConnectIdentityKind
	ConstantDefinitionKind
	MacroDefinitionKind
	FunctionCallStatementKind
)

// SelectedExpressions is one side of a plookup/permutation/connect
// statement: an optional selector and a tuple of expressions (spec.md §3
// "Identity").
type SelectedExpressions struct {
	Selector    Expr // nil if absent
	Expressions []Expr
}

// Statement is one top-level item from the parsed stream, tagged by Kind.
// Every statement carries the source Ref (file and 1-based line) it starts
// at, not a byte offset.
type Statement struct {
	Kind StatementKind
	Ref  source.Ref

	// Include
	IncludePath string

	// Namespace
	NamespaceName   string
	NamespaceDegree Expr

	// LetStatement / ConstantDefinition / MacroDefinition
	Name  string
	Value Expr // nil for a LetStatement with no initializer

	// MacroDefinition
	Params []string

	// PolynomialDefinition (intermediate column: `col name = expr;`)
	// reuses Name/Value above, plus optional ArrayLength for `col name[n] = expr;`
	ArrayLength int // 0 if not an array

	// PublicDeclaration: `public Name = col(row);`
	PublicName   string
	PublicColumn NamespacedRef
	PublicRow    Expr

	// PolynomialConstantDeclaration / PolynomialCommitDeclaration:
	// `col fixed name;` / `col witness name;` (possibly arrays, one per Name)
	ColumnNames []string
	ColumnLens  []int // parallel to ColumnNames, 0 if scalar

	// PolynomialConstantDefinition: `col fixed name = expr;` or `= [a,b]+[c]*;`
	// reuses Name, plus:
	FunctionBody Expr          // non-nil for a lambda-mapping definition
	ArrayBody    []Expr        // non-nil literal elements for an array definition
	RepeatBody   []Expr        // the repeating tail pattern, if any (the "+[p]*" part)

	// PolynomialIdentity: `expr = 0;`
	Identity Expr

	// PlookupIdentity / PermutationIdentity / ConnectIdentity
	Left  SelectedExpressions
	Right SelectedExpressions

	// FunctionCall (bare statement-position call, e.g. a compile-time assertion)
	Call Expr
}
