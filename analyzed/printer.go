package analyzed

import (
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"
)

// Print renders the canonical text form described in spec.md §6: one
// statement per source_order entry, `namespace Name(deg);` headers,
// `col witness name;` / `col intermediate = expr;`, polynomial identities as
// `expr = 0;`, plookups as `{lhs selectors} in {rhs selectors};`. References
// inside expressions print by subkind and poly id (`witness_0`, `fixed_2'`),
// not by column name, and mapping and query bodies print as the placeholders
// `|i| <mapping>` / `query |i| <query>`, so this output cannot be re-parsed
// and re-analyzed into the same Analyzed.
func Print(a *Analyzed) string {
	var b strings.Builder
	currentNamespace := ""

	emitNamespaceHeader := func(name string) {
		if name != currentNamespace {
			fmt.Fprintf(&b, "namespace %s(%d);\n", name, a.Degree)
			currentNamespace = name
		}
	}

	for _, entry := range a.SourceOrder {
		switch entry.Kind {
		case SourceOrderDefinition:
			if inter, ok := a.Intermediates[entry.Name]; ok {
				emitNamespaceHeader(namespaceOf(entry.Name))
				fmt.Fprintf(&b, "col intermediate %s = %s;\n", localName(entry.Name), PrintAlgebraic(inter.Expression))
				continue
			}
			def, ok := a.Definitions[entry.Name]
			if !ok {
				continue
			}
			emitNamespaceHeader(namespaceOf(entry.Name))
			b.WriteString(printDefinition(entry.Name, def))
		case SourceOrderPublicDeclaration:
			pub, ok := a.Publics[entry.Name]
			if !ok {
				continue
			}
			emitNamespaceHeader(namespaceOf(pub.Name))
			fmt.Fprintf(&b, "public %s = %s;\n", localName(pub.Name), pub.printTarget())
		case SourceOrderIdentity:
			if entry.IdentityIndex < 0 || entry.IdentityIndex >= len(a.Identities) {
				continue
			}
			id := a.Identities[entry.IdentityIndex]
			b.WriteString(printIdentity(id))
		}
	}
	return b.String()
}

func (p *PublicDeclaration) printTarget() string {
	if p.ArrayIndex != nil {
		return fmt.Sprintf("col[%d](%d)", *p.ArrayIndex, p.Row)
	}
	return fmt.Sprintf("col(%d)", p.Row)
}

func printDefinition(name string, def *Definition) string {
	local := localName(name)
	sym := def.Symbol
	switch sym.Kind {
	case KindConstantScalar:
		if def.Value == nil || def.Value.Expression == nil {
			return fmt.Sprintf("constant %%%s;\n", strcase.UpperSnakeCase(local))
		}
		return fmt.Sprintf("constant %%%s = %s;\n", strcase.UpperSnakeCase(local), PrintAlgebraic(def.Value.Expression))
	case KindOther:
		return fmt.Sprintf("// %s\n", local)
	}

	switch sym.SubKind {
	case Committed:
		return fmt.Sprintf("col witness %s%s;\n", local, arraySuffix(sym))
	case Constant:
		if def.Value == nil {
			return fmt.Sprintf("col fixed %s%s;\n", local, arraySuffix(sym))
		}
		return fmt.Sprintf("col fixed %s%s = %s;\n", local, arraySuffix(sym), printFixedValue(def.Value))
	default:
		return fmt.Sprintf("col intermediate %s;\n", local)
	}
}

func arraySuffix(sym *Symbol) string {
	if sym.IsArray() {
		return fmt.Sprintf("[%d]", *sym.ArrayLength)
	}
	return ""
}

func printFixedValue(v *FunctionValueDefinition) string {
	switch v.Kind {
	case MappingValue:
		return "|i| <mapping>"
	case QueryValue:
		return "query |i| <query>"
	case ArrayValue:
		return printRepeatedArray(*v.Array)
	default:
		return PrintAlgebraic(v.Expression)
	}
}

// printRepeatedArray renders `[ v0, v1, ... ] + [ p ]*`, with the trailing
// `*` meaning "repeat to fill degree" (spec.md §6).
func printRepeatedArray(r RepeatedArray) string {
	prefix := make([]string, len(r.Pattern))
	for i, v := range r.Pattern {
		prefix[i] = v.String()
	}
	out := "[ " + strings.Join(prefix, ", ") + " ]"
	if len(r.Tail) == 0 {
		return out
	}
	tail := make([]string, len(r.Tail))
	for i, v := range r.Tail {
		tail[i] = v.String()
	}
	return out + " + [ " + strings.Join(tail, ", ") + " ]*"
}

func printIdentity(id *Identity) string {
	switch id.Kind {
	case PolynomialIdentity:
		return PrintAlgebraic(id.Expression()) + " = 0;\n"
	case PlookupIdentity:
		return fmt.Sprintf("%s in %s;\n", printSelected(id.Left), printSelected(id.Right))
	case PermutationIdentity:
		return fmt.Sprintf("%s is %s;\n", printSelected(id.Left), printSelected(id.Right))
	default:
		return fmt.Sprintf("%s connect %s;\n", printSelected(id.Left), printSelected(id.Right))
	}
}

func printSelected(s SelectedExpressions) string {
	exprs := make([]string, len(s.Expressions))
	for i, e := range s.Expressions {
		exprs[i] = PrintAlgebraic(e)
	}
	body := "{ " + strings.Join(exprs, ", ") + " }"
	if s.Selector != nil {
		return PrintAlgebraic(s.Selector) + " " + body
	}
	return body
}

// PrintAlgebraic renders one AlgebraicExpression as PIL-like source text.
func PrintAlgebraic(e *AlgebraicExpression) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case AlgConstant:
		return e.Constant.String()
	case AlgReference:
		return printReference(e.Reference)
	case AlgPublicReference:
		return ":" + e.Public
	case AlgBinaryOp:
		return fmt.Sprintf("(%s %s %s)", PrintAlgebraic(e.Left), e.BinOp, PrintAlgebraic(e.Right))
	default:
		return fmt.Sprintf("%s%s", e.UnOp, PrintAlgebraic(e.Operand))
	}
}

func printReference(r AlgebraicReference) string {
	name := fmt.Sprintf("%s_%d", r.Poly.SubKind, r.Poly.ID)
	if r.Index != nil {
		name = fmt.Sprintf("%s[%d]", name, *r.Index)
	}
	if r.Next {
		name += "'"
	}
	return name
}

func namespaceOf(absoluteName string) string {
	idx := strings.LastIndex(absoluteName, ".")
	if idx < 0 {
		return "Global"
	}
	return absoluteName[:idx]
}

func localName(absoluteName string) string {
	idx := strings.LastIndex(absoluteName, ".")
	if idx < 0 {
		return absoluteName
	}
	return absoluteName[idx+1:]
}
