package analyzer

import (
	"fmt"

	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/spf13/cast"
)

// ValueKind tags the variant of a compile-time evaluation result (spec's
// "Compile-time evaluation": literals, arithmetic, comparisons, logical
// operators, lambda calls).
type ValueKind int

const (
	FieldValue ValueKind = iota
	BoolValue
	ArrayValue
	LambdaValue
	StringValue
)

// Closure is a lambda value closed over the environment it was created in,
// needed for higher-order calls: a function passed around as a value must
// carry its defining scope, not just its body.
type Closure struct {
	Params []string
	Body   ast.Expr
	Env    *Env
}

// Value is the tagged result of evaluating a compile-time expression.
type Value struct {
	Kind    ValueKind
	Field   field.Element
	Bool    bool
	Array   []Value
	Closure *Closure
	Str     string
}

func FieldVal(v field.Element) Value { return Value{Kind: FieldValue, Field: v} }
func BoolVal(v bool) Value           { return Value{Kind: BoolValue, Bool: v} }
func ArrayVal(v []Value) Value       { return Value{Kind: ArrayValue, Array: v} }
func StringVal(v string) Value       { return Value{Kind: StringValue, Str: v} }
func LambdaVal(c *Closure) Value     { return Value{Kind: LambdaValue, Closure: c} }

// Int coerces a FieldValue down to a platform int, the way a degree or an
// array length needs to be consumed. Goes through spf13/cast rather than an
// unchecked int64-to-int truncation so an over-wide value surfaces as an
// error instead of silently wrapping.
func (v Value) Int() (int, error) {
	if v.Kind != FieldValue {
		return 0, fmt.Errorf("expected a field element, got %s", v.kindName())
	}
	b := v.Field.BigInt()
	if !b.IsInt64() {
		return 0, fmt.Errorf("field element %s does not fit in an int", b)
	}
	return cast.ToIntE(b.Int64())
}

func (v Value) kindName() string {
	switch v.Kind {
	case FieldValue:
		return "field element"
	case BoolValue:
		return "bool"
	case ArrayValue:
		return "array"
	case LambdaValue:
		return "lambda"
	default:
		return "string"
	}
}

func (v Value) String() string {
	switch v.Kind {
	case FieldValue:
		return v.Field.String()
	case BoolValue:
		return fmt.Sprintf("%v", v.Bool)
	case StringValue:
		return v.Str
	case LambdaValue:
		return "<lambda>"
	default:
		return "<array>"
	}
}
