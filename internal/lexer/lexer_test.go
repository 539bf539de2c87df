package lexer_test

import (
	"testing"

	"joosc/internal/diag"
	"joosc/internal/lexer"
	"joosc/internal/source"
	"joosc/internal/token"
)

func lexString(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.java", []byte(src))
	bag := diag.NewBag(50)
	toks := lexer.LexFile(fs.Get(id), diag.BagReporter{Bag: bag})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		out = append(out, tk.Kind)
	}
	return out
}

func TestLexBasicClass(t *testing.T) {
	toks, bag := lexString(t, "public class A { int x; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	want := []token.Kind{
		token.KwPublic, token.KwClass, token.Ident, token.LBrace,
		token.KwInt, token.Ident, token.Semicolon, token.RBrace, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexOperators(t *testing.T) {
	toks, bag := lexString(t, "== != <= >= && || = < >")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	want := []token.Kind{
		token.EqEq, token.BangEq, token.LtEq, token.GtEq,
		token.AmpAmp, token.PipePipe, token.Assign, token.Lt, token.Gt, token.EOF,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexCommentsSkipped(t *testing.T) {
	toks, bag := lexString(t, "// line\n/* block\nmore */ x")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(toks) != 2 || toks[0].Kind != token.Ident || toks[0].Text != "x" {
		t.Fatalf("got %v", toks)
	}
}

func TestLexUnclosedString(t *testing.T) {
	_, bag := lexString(t, `String s = "abc`)
	if !bagHas(bag, diag.LexUnclosedStringLit) {
		t.Fatalf("expected LexUnclosedStringLit, got %+v", bag.Items())
	}
}

func TestLexUnclosedBlockComment(t *testing.T) {
	_, bag := lexString(t, "/* never closed")
	if !bagHas(bag, diag.LexUnclosedBlockComment) {
		t.Fatalf("expected LexUnclosedBlockComment, got %+v", bag.Items())
	}
}

func TestLexReservedKeyword(t *testing.T) {
	_, bag := lexString(t, "synchronized")
	if !bagHas(bag, diag.LexUnsupportedToken) {
		t.Fatalf("expected LexUnsupportedToken, got %+v", bag.Items())
	}
}

func TestLexUnexpectedChar(t *testing.T) {
	toks, bag := lexString(t, "a # b")
	if !bagHas(bag, diag.LexUnexpectedChar) {
		t.Fatalf("expected LexUnexpectedChar, got %+v", bag.Items())
	}
	// The lexer recovers and keeps producing tokens.
	if len(toks) != 3 {
		t.Fatalf("got %v", toks)
	}
}

func TestLexCharEscapes(t *testing.T) {
	toks, bag := lexString(t, `'\n' '\377' '\\'`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(toks) != 4 {
		t.Fatalf("got %d tokens", len(toks))
	}
	for i := 0; i < 3; i++ {
		if toks[i].Kind != token.CharLit {
			t.Fatalf("token %d: %v", i, toks[i])
		}
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
