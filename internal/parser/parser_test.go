package parser_test

import (
	"testing"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/lexer"
	"joosc/internal/parser"
	"joosc/internal/source"
	"joosc/internal/token"
)

func parseString(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.java", []byte(src))
	bag := diag.NewBag(50)
	reporter := diag.BagReporter{Bag: bag}
	toks := lexer.LexFile(fs.Get(id), reporter)
	f := parser.ParseFile(id, toks, reporter)
	return f, bag
}

func TestParseClassShape(t *testing.T) {
	f, bag := parseString(t, `
package foo.bar;
import java.util.Arrays;
import java.io.*;

public class A extends B implements C, D {
    public int x = 1;
    public A() {}
    public int get() { return x; }
}`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(f.Package) != 2 || f.Package[0] != "foo" || f.Package[1] != "bar" {
		t.Fatalf("package = %v", f.Package)
	}
	if len(f.Imports) != 2 || f.Imports[0].Wildcard || !f.Imports[1].Wildcard {
		t.Fatalf("imports = %+v", f.Imports)
	}
	d := f.Decl
	if d == nil || d.Name != "A" || len(d.Extends) != 1 || len(d.Implements) != 2 {
		t.Fatalf("decl = %+v", d)
	}
	if len(d.Fields) != 1 || len(d.Methods) != 2 {
		t.Fatalf("members: %d fields, %d methods", len(d.Fields), len(d.Methods))
	}
	if !d.Methods[0].IsConstructor() || d.Methods[1].IsConstructor() {
		t.Fatalf("constructor detection failed")
	}
}

func methodBody(t *testing.T, stmts string) (*ast.MethodDecl, *diag.Bag) {
	t.Helper()
	f, bag := parseString(t, "public class A { public void m() { "+stmts+" } }")
	if f.Decl == nil || len(f.Decl.Methods) != 1 {
		t.Fatalf("bad fixture parse: %+v", bag.Items())
	}
	return f.Decl.Methods[0], bag
}

func TestParseCastVsParen(t *testing.T) {
	m, bag := methodBody(t, "int x = (int) c; int y = (a) - b;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	first := m.Body.Stmts[0].(*ast.LocalDecl)
	if _, ok := first.Init.(*ast.CastExpr); !ok {
		t.Fatalf("(int) c should parse as a cast, got %T", first.Init)
	}
	second := m.Body.Stmts[1].(*ast.LocalDecl)
	if bin, ok := second.Init.(*ast.BinExpr); !ok || bin.Op != token.Minus {
		t.Fatalf("(a) - b should parse as subtraction, got %T", second.Init)
	}
}

func TestParseNamedCast(t *testing.T) {
	m, bag := methodBody(t, "Object o = (String) s;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	decl := m.Body.Stmts[0].(*ast.LocalDecl)
	if _, ok := decl.Init.(*ast.CastExpr); !ok {
		t.Fatalf("(String) s should parse as a cast, got %T", decl.Init)
	}
}

func TestParseIntRange(t *testing.T) {
	_, bag := methodBody(t, "int x = 2147483648;")
	if !bagHas(bag, diag.WeedIntegerOutOfRange) {
		t.Fatalf("expected IntegerOutOfRange, got %+v", bag.Items())
	}

	m, bag2 := methodBody(t, "int x = -2147483648;")
	if bag2.HasErrors() {
		t.Fatalf("INT_MIN must be accepted: %+v", bag2.Items())
	}
	decl := m.Body.Stmts[0].(*ast.LocalDecl)
	lit, ok := decl.Init.(*ast.IntLit)
	if !ok || lit.Val != -2147483648 {
		t.Fatalf("INT_MIN literal = %+v", decl.Init)
	}
}

func TestParseCallShapes(t *testing.T) {
	m, bag := methodBody(t, "foo(); a.b.c(1, 2); this.d();")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	first := m.Body.Stmts[0].(*ast.ExprStmt).E.(*ast.CallExpr)
	if first.Base != nil || first.Name != "foo" {
		t.Fatalf("foo() = %+v", first)
	}
	second := m.Body.Stmts[1].(*ast.ExprStmt).E.(*ast.CallExpr)
	base, ok := second.Base.(*ast.NameExpr)
	if !ok || len(base.Parts) != 2 || second.Name != "c" || len(second.Args) != 2 {
		t.Fatalf("a.b.c(1,2) = %+v", second)
	}
	third := m.Body.Stmts[2].(*ast.ExprStmt).E.(*ast.CallExpr)
	if _, ok := third.Base.(*ast.ThisExpr); !ok {
		t.Fatalf("this.d() = %+v", third)
	}
}

func TestParsePrecedence(t *testing.T) {
	m, bag := methodBody(t, "int x = 1 + 2 * 3;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	decl := m.Body.Stmts[0].(*ast.LocalDecl)
	add, ok := decl.Init.(*ast.BinExpr)
	if !ok || add.Op != token.Plus {
		t.Fatalf("top = %+v", decl.Init)
	}
	mul, ok := add.R.(*ast.BinExpr)
	if !ok || mul.Op != token.Star {
		t.Fatalf("rhs = %+v", add.R)
	}
}

func TestParseNewArray(t *testing.T) {
	m, bag := methodBody(t, "int[] a = new int[5]; A b = new A(1);")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	arr := m.Body.Stmts[0].(*ast.LocalDecl).Init.(*ast.NewArray)
	if arr.Elem.Prim != token.KwInt {
		t.Fatalf("new int[5] = %+v", arr)
	}
	obj := m.Body.Stmts[1].(*ast.LocalDecl).Init.(*ast.NewObject)
	if len(obj.Args) != 1 {
		t.Fatalf("new A(1) = %+v", obj)
	}
}

func bagHas(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}
