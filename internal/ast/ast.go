// Package ast defines the Joos syntax tree.
//
// Expression nodes carry a TypeId decoration that stays Unassigned until the
// type checker rewrites the tree. The checker replaces nodes bottom-up, so
// consumers after sema may rely on every expression having a valid type and
// on names being resolved into VarExpr / FieldAccess / StaticRef forms.
package ast

import (
	"joosc/internal/source"
	"joosc/internal/token"
	"joosc/internal/types"
)

// Node is anything with a source location.
type Node interface {
	Span() source.Span
}

// Expr is an expression node.
type Expr interface {
	Node
	TypeId() types.TypeId
	SetTypeId(types.TypeId)
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the whole compilation closure: user units plus stdlib units.
type Program struct {
	Files []*File
}

// File is one compilation unit.
type File struct {
	FileID  source.FileID
	Package []string
	PkgSpan source.Span
	Imports []Import
	Decl    *TypeDecl // at most one type per file

	// Stdlib marks units loaded from the bundled standard library.
	Stdlib bool
}

func (f *File) Span() source.Span { return f.PkgSpan }

// Import is a single-type or on-demand import declaration.
type Import struct {
	Parts    []string
	Wildcard bool
	Sp       source.Span
}

func (i Import) Span() source.Span { return i.Sp }

// Path returns the dotted import path.
func (i Import) Path() string {
	out := ""
	for k, p := range i.Parts {
		if k > 0 {
			out += "."
		}
		out += p
	}
	return out
}

// TypeDecl declares a class or interface.
type TypeDecl struct {
	Kind       types.TypeKind
	Mods       types.Modifiers
	Name       string
	NameSpan   source.Span
	Extends    []TypeRef // classes: 0 or 1; interfaces: any number
	Implements []TypeRef // classes only
	Fields     []*FieldDecl
	Methods    []*MethodDecl
	Sp         source.Span

	Tid types.TypeId // assigned by the declaration resolver
}

func (d *TypeDecl) Span() source.Span { return d.Sp }

// FieldDecl declares a field.
type FieldDecl struct {
	Mods     types.Modifiers
	Type     TypeRef
	Name     string
	NameSpan source.Span
	Init     Expr // nil when absent

	Fid types.FieldId
}

func (d *FieldDecl) Span() source.Span { return d.NameSpan }

// Param is one formal method parameter.
type Param struct {
	Type     TypeRef
	Name     string
	NameSpan source.Span

	Vid types.LocalVarId
}

func (p *Param) Span() source.Span { return p.NameSpan }

// MethodDecl declares a method or constructor.
type MethodDecl struct {
	Mods     types.Modifiers
	RetType  *TypeRef // nil for constructors
	Name     string
	NameSpan source.Span
	Params   []*Param
	Body     *BlockStmt // nil for abstract and native methods
	Sp       source.Span

	Mid types.MethodId
}

func (d *MethodDecl) Span() source.Span { return d.Sp }

// IsConstructor reports whether the declaration is a constructor.
func (d *MethodDecl) IsConstructor() bool { return d.RetType == nil }

// TypeRef is a syntactic type reference: a primitive keyword or a possibly
// qualified name, with array dimensions.
type TypeRef struct {
	Prim  token.Kind // KwInt etc., or 0 for named types
	Parts []string
	Dims  int
	Sp    source.Span

	Tid types.TypeId // resolved by the declaration resolver / type checker
}

func (t TypeRef) Span() source.Span { return t.Sp }

// IsVoid reports whether the reference is the void pseudo-type.
func (t TypeRef) IsVoid() bool { return t.Prim == token.KwVoid }

// Name returns the dotted spelling of a named type reference.
func (t TypeRef) Name() string {
	if t.Prim != 0 {
		return t.Prim.String()
	}
	out := ""
	for k, p := range t.Parts {
		if k > 0 {
			out += "."
		}
		out += p
	}
	return out
}
