package diagfmt_test

import (
	"strings"
	"testing"

	"joosc/internal/diag"
	"joosc/internal/diagfmt"
	"joosc/internal/source"
)

func TestSimpleSingleSpan(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SetAmbiguousType,
		Message:  "ambiguous",
		Primary:  source.Span{File: 3, Start: 72, End: 75},
	})

	var b strings.Builder
	diagfmt.Simple(&b, bag)
	if got := b.String(); got != "AmbiguousType(3:72-75)\n" {
		t.Fatalf("Simple = %q", got)
	}
}

func TestSimpleMultiSpan(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SetTypeDuplicateDefinition,
		Message:  "dup",
		Primary:  source.Span{File: 0, Start: 26, End: 29},
		Notes: []diag.Note{
			{Span: source.Span{File: 1, Start: 26, End: 29}, Msg: "also here"},
		},
	})

	var b strings.Builder
	diagfmt.Simple(&b, bag)
	want := "TypeDuplicateDefinitionError: [0:26-29,1:26-29,]\n"
	if got := b.String(); got != want {
		t.Fatalf("Simple = %q, want %q", got, want)
	}
}
