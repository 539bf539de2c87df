package ast

import (
	"joosc/internal/source"
	"joosc/internal/token"
	"joosc/internal/types"
)

// ExprBase carries the span and the post-sema type decoration.
type ExprBase struct {
	Sp  source.Span
	Tid types.TypeId
}

func (b *ExprBase) Span() source.Span          { return b.Sp }
func (b *ExprBase) TypeId() types.TypeId       { return b.Tid }
func (b *ExprBase) SetTypeId(t types.TypeId)   { b.Tid = t }
func (b *ExprBase) exprNode()                  {}


// IntLit is a 32-bit integer literal.
type IntLit struct {
	ExprBase
	Val int32
}

// BoolLit is true or false.
type BoolLit struct {
	ExprBase
	Val bool
}

// CharLit is a UTF-16 character literal.
type CharLit struct {
	ExprBase
	Val rune
}

// StringLit is a string literal with escapes already decoded.
type StringLit struct {
	ExprBase
	Val string

	// Sid is assigned when the literal is interned during constant folding.
	Sid types.StringId
}

// NullLit is the null literal.
type NullLit struct {
	ExprBase
}

// NameExpr is an unresolved, possibly qualified name. The type checker
// rewrites every NameExpr into VarExpr, FieldAccess chains, or StaticRef.
type NameExpr struct {
	ExprBase
	Parts     []string
	PartSpans []source.Span
}

// ThisExpr is the receiver reference.
type ThisExpr struct {
	ExprBase
}

// VarExpr is a resolved local variable or parameter use (sema-created).
type VarExpr struct {
	ExprBase
	Name string
	Vid  types.LocalVarId
}

// StaticRef is a resolved reference to a type, used as the base of static
// field accesses and static calls (sema-created).
type StaticRef struct {
	ExprBase
	RefTid types.TypeId
}

// FieldAccess reads a field. A static field access has a StaticRef Base.
type FieldAccess struct {
	ExprBase
	Base     Expr
	Name     string
	NameSpan source.Span

	Fid      types.FieldId
	IsLength bool // array .length pseudo-field
}

// ArrayIndex reads an array element.
type ArrayIndex struct {
	ExprBase
	Arr Expr
	Idx Expr
}

// CallExpr invokes a method. Base nil means an unqualified call, resolved
// against the enclosing type.
type CallExpr struct {
	ExprBase
	Base     Expr
	Name     string
	NameSpan source.Span
	Args     []Expr

	Mid      types.MethodId
	OwnerTid types.TypeId
	IsStatic bool
}

// NewObject allocates and constructs a class instance.
type NewObject struct {
	ExprBase
	Type TypeRef
	Args []Expr

	CtorMid types.MethodId
}

// NewArray allocates an array.
type NewArray struct {
	ExprBase
	Elem TypeRef
	Len  Expr
}

// CastExpr converts between types.
type CastExpr struct {
	ExprBase
	Target TypeRef
	E      Expr
}

// InstanceOfExpr tests the dynamic type of a reference.
type InstanceOfExpr struct {
	ExprBase
	E      Expr
	Target TypeRef
}

// BinExpr is a binary operation. The operator keeps its token kind.
type BinExpr struct {
	ExprBase
	Op token.Kind
	L  Expr
	R  Expr
}

// UnaryExpr is unary minus or logical not.
type UnaryExpr struct {
	ExprBase
	Op token.Kind
	E  Expr
}

// AssignExpr stores R into the place denoted by L.
type AssignExpr struct {
	ExprBase
	L Expr
	R Expr
}
