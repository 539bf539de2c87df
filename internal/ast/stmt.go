package ast

import (
	"joosc/internal/source"
	"joosc/internal/types"
)

type StmtBase struct {
	Sp source.Span
}

func (b *StmtBase) Span() source.Span { return b.Sp }
func (b *StmtBase) stmtNode()         {}


// BlockStmt is a braced statement sequence with its own scope.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// LocalDecl declares a local variable. Init may be nil; the type checker
// enforces definite assignment before any read.
type LocalDecl struct {
	StmtBase
	Type     TypeRef
	Name     string
	NameSpan source.Span
	Init     Expr // nil when absent

	Vid types.LocalVarId
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	StmtBase
	E Expr
}

// IfStmt is a conditional with an optional else branch.
type IfStmt struct {
	StmtBase
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// WhileStmt is a while loop.
type WhileStmt struct {
	StmtBase
	Cond Expr
	Body Stmt
}

// ForStmt is a for loop; any of Init, Cond, Update may be nil.
type ForStmt struct {
	StmtBase
	Init   Stmt
	Cond   Expr
	Update Expr
	Body   Stmt
}

// ReturnStmt returns from the enclosing method, with an optional value.
type ReturnStmt struct {
	StmtBase
	E Expr // nil for bare return
}

// EmptyStmt is a lone semicolon.
type EmptyStmt struct {
	StmtBase
}
