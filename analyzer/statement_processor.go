package analyzer

import (
	"strconv"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
)

// StatementProcessor folds one top-level ast.Statement into a ProgramState:
// allocating symbol ids, evaluating compile-time expressions (namespace
// degrees, constant values, array bodies), condensing identities, and
// following Include statements through a SourceLoader with cycle safety.
// Grounded on checker/checker.go's per-declaration-kind dispatch loop,
// adapted from type-checking declarations to folding PIL statements.
type StatementProcessor struct {
	Loader SourceLoader
}

// Process dispatches stmt by kind, mutating state.
func (sp *StatementProcessor) Process(state *ProgramState, stmt *ast.Statement) error {
	switch stmt.Kind {
	case ast.IncludeKind:
		return sp.processInclude(state, stmt)
	case ast.NamespaceKind:
		sp.processNamespace(state, stmt)
	case ast.LetStatementKind:
		sp.processLet(state, stmt, "")
	case ast.ConstantDefinitionKind:
		sp.processLet(state, stmt, "%")
	case ast.MacroDefinitionKind:
		sp.processMacro(state, stmt)
	case ast.FunctionCallStatementKind:
		sp.processCallStatement(state, stmt)
	case ast.PolynomialCommitDeclarationKind:
		sp.processColumnDeclaration(state, stmt, analyzed.Committed)
	case ast.PolynomialConstantDeclarationKind:
		sp.processColumnDeclaration(state, stmt, analyzed.Constant)
	case ast.PolynomialConstantDefinitionKind:
		sp.processFixedDefinition(state, stmt)
	case ast.PolynomialDefinitionKind:
		sp.processIntermediateDefinition(state, stmt)
	case ast.PublicDeclarationKind:
		sp.processPublicDeclaration(state, stmt)
	case ast.PolynomialIdentityKind:
		sp.processPolynomialIdentity(state, stmt)
	case ast.PlookupIdentityKind:
		sp.processSelectedIdentity(state, stmt, analyzed.PlookupIdentity)
	case ast.PermutationIdentityKind:
		sp.processSelectedIdentity(state, stmt, analyzed.PermutationIdentity)
	case ast.ConnectIdentityKind:
		sp.processSelectedIdentity(state, stmt, analyzed.ConnectIdentity)
	}
	return nil
}

func (sp *StatementProcessor) exprProcessor(state *ProgramState) *ExpressionProcessor {
	return NewExpressionProcessor(state.Symbols, state.Errors, state.namespaceForDeclaration())
}

func (sp *StatementProcessor) absoluteName(state *ProgramState, name string) string {
	return state.namespaceForDeclaration() + "." + name
}

// processInclude loads and folds an included file's statements in place,
// refusing to revisit a canonical path already on the include stack.
func (sp *StatementProcessor) processInclude(state *ProgramState, stmt *ast.Statement) error {
	if sp.Loader == nil {
		return nil
	}
	statements, canonical, err := sp.Loader.Load(stmt.Ref.File, stmt.IncludePath)
	if err != nil {
		return err
	}
	if state.visited[canonical] {
		state.Errors.Report(stmt.Ref, nil, KindIncludeCycle, canonical)
		return nil
	}
	state.visited[canonical] = true
	for _, s := range statements {
		if err := sp.Process(state, s); err != nil {
			return err
		}
	}
	return nil
}

// processNamespace evaluates the degree expression and asserts every
// namespace in the compilation unit shares it, naming both source
// locations on a mismatch.
func (sp *StatementProcessor) processNamespace(state *ProgramState, stmt *ast.Statement) {
	state.sawNamespace = true
	state.CurrentNamespace = stmt.NamespaceName

	resolved := sp.exprProcessor(state).Resolve(stmt.NamespaceDegree)
	val, err := state.Evaluator.Eval(resolved, nil, nil)
	if err != nil {
		return
	}
	degree, err := val.Int()
	if err != nil {
		state.Errors.Report(stmt.Ref, nil, source.KindEvaluation, "namespace degree", err.Error())
		return
	}

	if !state.degreeSet {
		state.Degree = degree
		state.degreeSet = true
		state.degreeRef = stmt.Ref
		state.degreeNamespace = stmt.NamespaceName
		return
	}
	if degree != state.Degree {
		state.Errors.Report(stmt.Ref, nil, source.KindNamespaceDegree,
			stmt.NamespaceName, strconv.Itoa(degree), state.degreeNamespace, strconv.Itoa(state.Degree))
	}
}

// processLet handles a LetStatement or a `%`-prefixed ConstantDefinition:
// an optional-value name binding evaluated once at declaration time.
// The third argument ("%" for ConstantDefinition, "" for a plain let) is
// unused: a global constant is recognized by the `%` prefix its parsed Name
// already carries.
func (sp *StatementProcessor) processLet(state *ProgramState, stmt *ast.Statement, _ string) {
	abs := stmt.Name
	isGlobalConst := len(stmt.Name) > 0 && stmt.Name[0] == '%'
	if !isGlobalConst {
		abs = sp.absoluteName(state, stmt.Name)
	}

	sym := &analyzed.Symbol{
		ID:           state.Symbols.IDs().NextOther(),
		AbsoluteName: abs,
		Ref:          stmt.Ref,
		Kind:         analyzed.KindOther,
	}
	if isGlobalConst {
		sym.Kind = analyzed.KindConstantScalar
	}

	isTopLevel := isGlobalConst || !state.sawNamespace
	state.Symbols.Declare(sym, isTopLevel)
	state.definitions[abs] = &analyzed.Definition{Symbol: sym}
	state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderDefinition, Name: abs})

	if stmt.Value == nil {
		return
	}
	resolved := sp.exprProcessor(state).Resolve(stmt.Value)
	val, err := state.Evaluator.Eval(resolved, nil, nil)
	if err != nil {
		return
	}
	if isGlobalConst {
		sym.Kind = analyzed.KindConstantScalar
	}
	state.Evaluator.Consts[abs] = val

	if isGlobalConst {
		if f, err := fieldOf(val); err == nil {
			state.definitions[abs].Value = &analyzed.FunctionValueDefinition{
				Kind:       analyzed.ExpressionValue,
				Expression: analyzed.NewConstant(f),
			}
		}
	}
}

func (sp *StatementProcessor) processMacro(state *ProgramState, stmt *ast.Statement) {
	abs := sp.absoluteName(state, stmt.Name)
	sym := &analyzed.Symbol{ID: state.Symbols.IDs().NextOther(), AbsoluteName: abs, Ref: stmt.Ref, Kind: analyzed.KindOther}
	state.Symbols.Declare(sym, !state.sawNamespace)
	state.definitions[abs] = &analyzed.Definition{Symbol: sym}
	state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderDefinition, Name: abs})

	body := sp.exprProcessor(state).withLocals(stmt.Params).Resolve(stmt.Value)
	state.Evaluator.Consts[abs] = LambdaVal(&Closure{Params: stmt.Params, Body: body, Env: nil})
}

func (sp *StatementProcessor) processCallStatement(state *ProgramState, stmt *ast.Statement) {
	resolved := sp.exprProcessor(state).Resolve(stmt.Call)
	_, _ = state.Evaluator.Eval(resolved, nil, nil)
}

func (sp *StatementProcessor) processColumnDeclaration(state *ProgramState, stmt *ast.Statement, sub analyzed.PolySubKind) {
	for i, name := range stmt.ColumnNames {
		abs := sp.absoluteName(state, name)
		width := 1
		var arrayLen *int
		if i < len(stmt.ColumnLens) && stmt.ColumnLens[i] > 0 {
			n := stmt.ColumnLens[i]
			width = n
			arrayLen = &n
		}
		id := state.Symbols.IDs().NextPoly(sub, width)
		sym := &analyzed.Symbol{
			ID: id, AbsoluteName: abs, Ref: stmt.Ref,
			Kind: analyzed.KindPolynomial, SubKind: sub,
			Degree: state.Degree, ArrayLength: arrayLen,
		}
		state.Symbols.Declare(sym, !state.sawNamespace)
		state.definitions[abs] = &analyzed.Definition{Symbol: sym}
		state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderDefinition, Name: abs})
	}
}

// processFixedDefinition handles `col fixed name = expr;`, a lambda mapping
// definition, or an explicit-prefix-plus-repeating-tail array definition.
// If name was not already declared by a PolynomialConstantDeclaration, it
// is declared here as a scalar fixed column.
func (sp *StatementProcessor) processFixedDefinition(state *ProgramState, stmt *ast.Statement) {
	abs := sp.absoluteName(state, stmt.Name)
	if _, ok := state.Symbols.Lookup(abs); !ok {
		id := state.Symbols.IDs().NextPoly(analyzed.Constant, 1)
		sym := &analyzed.Symbol{ID: id, AbsoluteName: abs, Ref: stmt.Ref, Kind: analyzed.KindPolynomial, SubKind: analyzed.Constant, Degree: state.Degree}
		state.Symbols.Declare(sym, !state.sawNamespace)
		state.definitions[abs] = &analyzed.Definition{Symbol: sym}
		state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderDefinition, Name: abs})
	}

	var value *analyzed.FunctionValueDefinition
	switch {
	case stmt.FunctionBody != nil:
		resolved := sp.exprProcessor(state).Resolve(stmt.FunctionBody)
		lam := resolved.AsLambda()
		value = &analyzed.FunctionValueDefinition{Kind: analyzed.MappingValue, Mapping: &lam}
	case stmt.ArrayBody != nil || stmt.RepeatBody != nil:
		prefix := sp.evalConstArray(state, stmt.ArrayBody)
		tail := sp.evalConstArray(state, stmt.RepeatBody)
		value = &analyzed.FunctionValueDefinition{
			Kind:  analyzed.ArrayValue,
			Array: &analyzed.RepeatedArray{Pattern: prefix, Tail: tail, Size: state.Degree},
		}
	default:
		return
	}
	state.definitions[abs].Value = value
}

func (sp *StatementProcessor) evalConstArray(state *ProgramState, exprs []ast.Expr) []field.Element {
	out := make([]field.Element, 0, len(exprs))
	ep := sp.exprProcessor(state)
	for _, e := range exprs {
		resolved := ep.Resolve(e)
		val, err := state.Evaluator.Eval(resolved, nil, nil)
		if err != nil {
			out = append(out, field.Zero)
			continue
		}
		f, err := fieldOf(val)
		if err != nil {
			state.Errors.Report(e.Ref(), nil, source.KindEvaluation, "fixed column array element", err.Error())
			f = field.Zero
		}
		out = append(out, f)
	}
	return out
}

func fieldOf(v Value) (field.Element, error) {
	if v.Kind != FieldValue {
		return field.Zero, errNotAField
	}
	return v.Field, nil
}

// processIntermediateDefinition handles `col name = expr;` and the array
// form `col name[n] = expr;`: an intermediate column is an alias whose
// algebraic expression becomes available for substitution in every identity
// condensed afterward. The array form reserves n consecutive ids but
// condenses expr once for the whole array; no per-element expression is
// built.
func (sp *StatementProcessor) processIntermediateDefinition(state *ProgramState, stmt *ast.Statement) {
	abs := sp.absoluteName(state, stmt.Name)
	var arrayLen *int
	if stmt.ArrayLength > 0 {
		n := stmt.ArrayLength
		arrayLen = &n
	}
	id := state.Symbols.IDs().NextPoly(analyzed.Intermediate, maxInt(stmt.ArrayLength, 1))
	sym := &analyzed.Symbol{
		ID: id, AbsoluteName: abs, Ref: stmt.Ref,
		Kind: analyzed.KindPolynomial, SubKind: analyzed.Intermediate,
		Degree: state.Degree, ArrayLength: arrayLen,
	}
	state.Symbols.Declare(sym, !state.sawNamespace)
	state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderDefinition, Name: abs})

	resolved := sp.exprProcessor(state).Resolve(stmt.Value)
	expr := state.Condenser.Condense(resolved)
	state.intermediates[abs] = &analyzed.IntermediateDefinition{Symbol: sym, Expression: expr}
	state.Condenser.Intermediates[abs] = expr
}

func (sp *StatementProcessor) processPublicDeclaration(state *ProgramState, stmt *ast.Statement) {
	abs := sp.absoluteName(state, stmt.PublicName)
	ep := sp.exprProcessor(state)

	colRef := ast.NewReference(0, stmt.Ref, stmt.PublicColumn)
	resolvedCol := ep.Resolve(colRef)
	colName := resolvedCol.AsReference().Name
	sym, ok := state.Symbols.Lookup(colName)
	if !ok {
		state.Errors.Report(stmt.Ref, nil, source.KindUnresolvedReference, colName)
		return
	}

	var idx *int
	if stmt.PublicColumn.Index != nil {
		i, ok := state.Condenser.constIndex(ep.Resolve(stmt.PublicColumn.Index))
		if ok {
			idx = &i
		}
	}

	resolvedRow := ep.Resolve(stmt.PublicRow)
	rowVal, err := state.Evaluator.Eval(resolvedRow, nil, nil)
	row := 0
	if err == nil {
		row, _ = rowVal.Int()
	}

	poly := sym.PolyID()
	if idx != nil {
		poly.ID += int64(*idx)
	}
	state.publics[abs] = &analyzed.PublicDeclaration{Name: abs, Ref: stmt.Ref, Poly: poly, ArrayIndex: idx, Row: row}
	state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderPublicDeclaration, Name: abs})
}

func (sp *StatementProcessor) processPolynomialIdentity(state *ProgramState, stmt *ast.Statement) {
	resolved := sp.exprProcessor(state).Resolve(stmt.Identity)
	expr := state.Condenser.Condense(resolved)
	id := analyzed.NewPolynomialIdentity(state.nextIdentityID(analyzed.PolynomialIdentity), stmt.Ref, expr)
	state.identities = append(state.identities, id)
	state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderIdentity, IdentityIndex: len(state.identities) - 1})
}

// processSelectedIdentity condenses a Plookup/Permutation/Connect identity.
// Connect is accepted syntactically (it parses, and analyzed.ConnectIdentity
// round-trips through the printer) but is rejected right here with a named
// error: this compiler never lowers Connect into anything the witness
// generator can act on (spec.md §9 DESIGN NOTES open question).
func (sp *StatementProcessor) processSelectedIdentity(state *ProgramState, stmt *ast.Statement, kind analyzed.IdentityKind) {
	if kind == analyzed.ConnectIdentity {
		state.Errors.Report(stmt.Ref, nil, source.KindConnectUnsupported, state.nextIdentityID(kind))
		return
	}

	ep := sp.exprProcessor(state)
	condenseSide := func(side ast.SelectedExpressions) analyzed.SelectedExpressions {
		out := analyzed.SelectedExpressions{}
		if side.Selector != nil {
			out.Selector = state.Condenser.Condense(ep.Resolve(side.Selector))
		}
		for _, e := range side.Expressions {
			out.Expressions = append(out.Expressions, state.Condenser.Condense(ep.Resolve(e)))
		}
		return out
	}

	id := &analyzed.Identity{
		ID:    state.nextIdentityID(kind),
		Kind:  kind,
		Ref:   stmt.Ref,
		Left:  condenseSide(stmt.Left),
		Right: condenseSide(stmt.Right),
	}
	state.identities = append(state.identities, id)
	state.sourceOrder = append(state.sourceOrder, analyzed.SourceOrderEntry{Kind: analyzed.SourceOrderIdentity, IdentityIndex: len(state.identities) - 1})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var errNotAField = fieldKindError{}

type fieldKindError struct{}

func (fieldKindError) Error() string { return "value is not a field element" }
