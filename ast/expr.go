// Package ast defines the parsed statement and expression trees as produced
// by the (out-of-scope) parser. It is pure data: no resolution, no
// evaluation. The tagged-variant design — a Kind enum plus As<Kind>
// accessors on a single Expr interface — follows the teacher's
// common/ast/expr.go, which the DESIGN NOTES explicitly call for:
// "Dynamic dispatch over polymorphic expressions...handled as tagged
// variants; visitors are external functions that match on the variant, not
// methods on a base type."
package ast

import (
	"math/big"

	"github.com/AztecProtocol/powdr/source"
)

// ExprKind tags the concrete shape of an Expr.
type ExprKind int

const (
	UnspecifiedKind ExprKind = iota
	NumberKind
	StringKind
	ReferenceKind
	PublicReferenceKind
	BinaryOpKind
	UnaryOpKind
	FunctionCallKind
	MatchKind
	LambdaKind
	ArrayLiteralKind
	TupleKind
	IndexKind
)

// BinaryOperator enumerates the operators the parser can produce. Most are
// legal only at compile-time-evaluation positions; the condenser accepts a
// strict subset (+, -, *, ^) in algebraic position (spec.md §4.1
// "Condensation").
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mul
	Pow
	Div
	Mod
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	LogicalAnd
	LogicalOr
)

func (op BinaryOperator) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Pow:
		return "**"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	default:
		return "?"
	}
}

// UnaryOperator enumerates the two unary operators spec.md allows.
type UnaryOperator int

const (
	UnaryPlus UnaryOperator = iota
	UnaryMinus
)

func (op UnaryOperator) String() string {
	if op == UnaryMinus {
		return "-"
	}
	return "+"
}

// NamespacedRef is the reference form the parser produces: an optional
// namespace and a name, exactly as written (spec.md §4.1 name-resolution
// input: "ns::name"). It also carries an optional index expression for
// `name[i]` array-element access.
type NamespacedRef struct {
	Namespace string // "" if none written
	Name      string
	Index     Expr // nil if not an array access
	Next      bool  // true for a trailing-apostrophe "next row" reference, e.g. `a'`
}

// Expr is the base expression node. Concrete payloads are reached through
// the As* accessors, valid only when Kind() matches.
type Expr interface {
	ID() int64
	Ref() source.Ref
	Kind() ExprKind

	AsNumber() *big.Int
	AsString() string
	AsReference() NamespacedRef
	AsPublicReference() string
	AsBinaryOp() BinaryOpExpr
	AsUnaryOp() UnaryOpExpr
	AsFunctionCall() FunctionCallExpr
	AsMatch() MatchExpr
	AsLambda() LambdaExpr
	AsArrayLiteral() []Expr
	AsTuple() []Expr

	isExpr()
}

// BinaryOpExpr is the payload of a BinaryOpKind node.
type BinaryOpExpr struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

// UnaryOpExpr is the payload of a UnaryOpKind node.
type UnaryOpExpr struct {
	Op   UnaryOperator
	Expr Expr
}

// FunctionCallExpr is the payload of a FunctionCallKind node: calling a
// named function (builtin or user-defined lambda binding) with arguments.
// Higher-order calls (spec.md §4.1 "lambda calls (including higher-order)")
// are expressed by letting Function itself be an arbitrary Expr (e.g. a
// reference to a lambda-valued let-binding), not just a bare name.
type FunctionCallExpr struct {
	Function Expr
	Args     []Expr
}

// MatchArm is one `pattern => value` arm of a match expression. CatchAll
// marks the catch-all arm (spec.md §4.1 "match expressions with catch-all"),
// whose Pattern is ignored; any other arm with a nil Pattern never matches.
type MatchArm struct {
	Pattern *big.Int
	CatchAll bool
	Value    Expr
}

// MatchExpr is the payload of a MatchKind node.
type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
}

// LambdaExpr is the payload of a LambdaKind node: an anonymous function
// value, used both as a plain compile-time function and, when it is the
// value of a fixed-column definition, as a Mapping FunctionValueDefinition
// (spec.md §3).
type LambdaExpr struct {
	Params []string
	Body   Expr
}

type exprImpl struct {
	id   int64
	ref  source.Ref
	kind ExprKind

	number     *big.Int
	str        string
	reference  NamespacedRef
	public     string
	binary     BinaryOpExpr
	unary      UnaryOpExpr
	call       FunctionCallExpr
	match      MatchExpr
	lambda     LambdaExpr
	elements   []Expr
}

func (e *exprImpl) isExpr()          {}
func (e *exprImpl) ID() int64        { return e.id }
func (e *exprImpl) Ref() source.Ref  { return e.ref }
func (e *exprImpl) Kind() ExprKind   { return e.kind }

func (e *exprImpl) AsNumber() *big.Int             { return e.number }
func (e *exprImpl) AsString() string                { return e.str }
func (e *exprImpl) AsReference() NamespacedRef      { return e.reference }
func (e *exprImpl) AsPublicReference() string       { return e.public }
func (e *exprImpl) AsBinaryOp() BinaryOpExpr         { return e.binary }
func (e *exprImpl) AsUnaryOp() UnaryOpExpr           { return e.unary }
func (e *exprImpl) AsFunctionCall() FunctionCallExpr { return e.call }
func (e *exprImpl) AsMatch() MatchExpr               { return e.match }
func (e *exprImpl) AsLambda() LambdaExpr             { return e.lambda }
func (e *exprImpl) AsArrayLiteral() []Expr           { return e.elements }
func (e *exprImpl) AsTuple() []Expr                  { return e.elements }

// NewNumber builds a NumberKind literal.
func NewNumber(id int64, ref source.Ref, v *big.Int) Expr {
	return &exprImpl{id: id, ref: ref, kind: NumberKind, number: v}
}

// NewString builds a StringKind literal.
func NewString(id int64, ref source.Ref, v string) Expr {
	return &exprImpl{id: id, ref: ref, kind: StringKind, str: v}
}

// NewReference builds a ReferenceKind node.
func NewReference(id int64, ref source.Ref, r NamespacedRef) Expr {
	return &exprImpl{id: id, ref: ref, kind: ReferenceKind, reference: r}
}

// NewPublicReference builds a PublicReferenceKind node.
func NewPublicReference(id int64, ref source.Ref, name string) Expr {
	return &exprImpl{id: id, ref: ref, kind: PublicReferenceKind, public: name}
}

// NewBinaryOp builds a BinaryOpKind node.
func NewBinaryOp(id int64, ref source.Ref, op BinaryOperator, left, right Expr) Expr {
	return &exprImpl{id: id, ref: ref, kind: BinaryOpKind, binary: BinaryOpExpr{Op: op, Left: left, Right: right}}
}

// NewUnaryOp builds a UnaryOpKind node.
func NewUnaryOp(id int64, ref source.Ref, op UnaryOperator, operand Expr) Expr {
	return &exprImpl{id: id, ref: ref, kind: UnaryOpKind, unary: UnaryOpExpr{Op: op, Expr: operand}}
}

// NewFunctionCall builds a FunctionCallKind node.
func NewFunctionCall(id int64, ref source.Ref, fn Expr, args []Expr) Expr {
	return &exprImpl{id: id, ref: ref, kind: FunctionCallKind, call: FunctionCallExpr{Function: fn, Args: args}}
}

// NewMatch builds a MatchKind node.
func NewMatch(id int64, ref source.Ref, scrutinee Expr, arms []MatchArm) Expr {
	return &exprImpl{id: id, ref: ref, kind: MatchKind, match: MatchExpr{Scrutinee: scrutinee, Arms: arms}}
}

// NewLambda builds a LambdaKind node.
func NewLambda(id int64, ref source.Ref, params []string, body Expr) Expr {
	return &exprImpl{id: id, ref: ref, kind: LambdaKind, lambda: LambdaExpr{Params: params, Body: body}}
}

// NewArrayLiteral builds an ArrayLiteralKind node.
func NewArrayLiteral(id int64, ref source.Ref, elements []Expr) Expr {
	return &exprImpl{id: id, ref: ref, kind: ArrayLiteralKind, elements: elements}
}

// NewTuple builds a TupleKind node (used by SelectedExpressions' lhs/rhs
// tuples of a plookup/permutation).
func NewTuple(id int64, ref source.Ref, elements []Expr) Expr {
	return &exprImpl{id: id, ref: ref, kind: TupleKind, elements: elements}
}
