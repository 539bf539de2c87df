package names_test

import (
	"testing"

	"joosc/internal/diag"
	"joosc/internal/names"
	"joosc/internal/source"
	"joosc/internal/types"
)

func sp(file, start, end uint32) source.Span {
	return source.Span{File: source.FileID(file), Start: start, End: end}
}

func build(t *testing.T, decls []names.Decl) (*names.TypeSet, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(50)
	set := names.Build(decls, diag.BagReporter{Bag: bag})
	return set, bag
}

func TestBuildDuplicateDefinition(t *testing.T) {
	_, bag := build(t, []names.Decl{
		{Pkg: []string{"foo"}, Name: "Foo", Pos: sp(0, 26, 29)},
		{Pkg: []string{"foo"}, Name: "Foo", Pos: sp(1, 26, 29)},
	})
	if bag.Len() != 1 {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	d := bag.Items()[0]
	if d.Code != diag.SetTypeDuplicateDefinition {
		t.Fatalf("code = %v", d.Code)
	}
	spans := d.Spans()
	if len(spans) != 2 || spans[0].String() != "0:26-29" || spans[1].String() != "1:26-29" {
		t.Fatalf("spans = %v", spans)
	}
}

func TestBuildPrefixShadow(t *testing.T) {
	_, bag := build(t, []names.Decl{
		{Pkg: []string{"foo"}, Name: "Bar", Pos: sp(0, 0, 3)},
		{Pkg: []string{"foo", "Bar"}, Name: "Baz", Pos: sp(1, 0, 3)},
	})
	if !bagHas(bag, diag.SetTypeShadowsPackagePrefix) {
		t.Fatalf("expected TypeShadowsPackagePrefix, got %+v", bag.Items())
	}
}

func TestGetAndPrefix(t *testing.T) {
	set, bag := build(t, []names.Decl{
		{Pkg: []string{"a", "b"}, Name: "C", Pos: sp(0, 0, 1)},
	})
	if bag.HasErrors() {
		t.Fatalf("unexpected: %+v", bag.Items())
	}
	tid, ok := set.Get("a.b.C")
	if !ok || !tid.IsUserType() {
		t.Fatalf("Get(a.b.C) = %v, %v", tid, ok)
	}
	if got, ok := set.Get("int"); !ok || got != types.Int {
		t.Fatalf("primitives must be pre-inserted")
	}
	ptid, n := set.GetPrefix([]string{"a", "b", "C", "f", "g"})
	if n != 3 || ptid != tid {
		t.Fatalf("GetPrefix = %v, %d", ptid, n)
	}
}

func TestScopeWildcardAmbiguity(t *testing.T) {
	set, _ := build(t, []names.Decl{
		{Pkg: []string{"a"}, Name: "bar", Pos: sp(0, 0, 1)},
		{Pkg: []string{"b"}, Name: "bar", Pos: sp(1, 0, 1)},
		{Pkg: []string{"c"}, Name: "bar", Pos: sp(2, 0, 1)},
		{Pkg: []string{"d"}, Name: "Use", Pos: sp(3, 0, 1)},
	})
	bag := diag.NewBag(50)
	sc := set.WithImports([]string{"d"}, "Use", sp(3, 0, 1), []names.Import{
		{Path: "a", Wildcard: true, Pos: sp(3, 10, 12)},
		{Path: "b", Wildcard: true, Pos: sp(3, 20, 22)},
		{Path: "c", Wildcard: true, Pos: sp(3, 30, 32)},
	}, diag.BagReporter{Bag: bag})

	tid := sc.ResolveSimple("bar", sp(3, 72, 75), diag.BagReporter{Bag: bag})
	if !tid.IsError() {
		t.Fatalf("ambiguous lookup must poison, got %v", tid)
	}
	if !bagHas(bag, diag.SetAmbiguousType) {
		t.Fatalf("expected AmbiguousType, got %+v", bag.Items())
	}
}

func TestScopeSingleImportWinsOverWildcard(t *testing.T) {
	set, _ := build(t, []names.Decl{
		{Pkg: []string{"a"}, Name: "T", Pos: sp(0, 0, 1)},
		{Pkg: []string{"b"}, Name: "T", Pos: sp(1, 0, 1)},
		{Pkg: []string{"d"}, Name: "Use", Pos: sp(2, 0, 1)},
	})
	bag := diag.NewBag(50)
	sc := set.WithImports([]string{"d"}, "Use", sp(2, 0, 1), []names.Import{
		{Path: "a.T", Wildcard: false, Pos: sp(2, 10, 13)},
		{Path: "b", Wildcard: true, Pos: sp(2, 20, 22)},
	}, diag.BagReporter{Bag: bag})

	want, _ := set.Get("a.T")
	got := sc.ResolveSimple("T", sp(2, 30, 31), diag.BagReporter{Bag: bag})
	if got != want || bag.HasErrors() {
		t.Fatalf("got %v want %v, bag %+v", got, want, bag.Items())
	}
}

func TestScopeSingleImportCollision(t *testing.T) {
	set, _ := build(t, []names.Decl{
		{Pkg: []string{"a"}, Name: "T", Pos: sp(0, 0, 1)},
		{Pkg: []string{"b"}, Name: "T", Pos: sp(1, 0, 1)},
		{Pkg: []string{"d"}, Name: "Use", Pos: sp(2, 0, 1)},
	})
	bag := diag.NewBag(50)
	set.WithImports([]string{"d"}, "Use", sp(2, 0, 1), []names.Import{
		{Path: "a.T", Wildcard: false, Pos: sp(2, 10, 13)},
		{Path: "b.T", Wildcard: false, Pos: sp(2, 20, 23)},
	}, diag.BagReporter{Bag: bag})
	if !bagHas(bag, diag.SetDuplicateCompUnitNames) {
		t.Fatalf("expected DuplicateCompUnitNames, got %+v", bag.Items())
	}
}

func TestScopeUnknownImport(t *testing.T) {
	set, _ := build(t, []names.Decl{
		{Pkg: []string{"d"}, Name: "Use", Pos: sp(0, 0, 1)},
	})
	bag := diag.NewBag(50)
	set.WithImports([]string{"d"}, "Use", sp(0, 0, 1), []names.Import{
		{Path: "no.such.Type", Wildcard: false, Pos: sp(0, 10, 22)},
	}, diag.BagReporter{Bag: bag})
	if !bagHas(bag, diag.SetUnknownImport) {
		t.Fatalf("expected UnknownImport, got %+v", bag.Items())
	}

	// Wildcard imports of nonexistent packages are silently accepted.
	bag2 := diag.NewBag(50)
	set.WithImports([]string{"d"}, "Use", sp(0, 0, 1), []names.Import{
		{Path: "no.such", Wildcard: true, Pos: sp(0, 10, 17)},
	}, diag.BagReporter{Bag: bag2})
	if bag2.HasErrors() {
		t.Fatalf("wildcard of missing package must not error: %+v", bag2.Items())
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
