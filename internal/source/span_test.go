package source

import (
	"testing"
)

func TestSpanString(t *testing.T) {
	sp := Span{File: 3, Start: 72, End: 75}
	if got := sp.String(); got != "3:72-75" {
		t.Fatalf("Span.String() = %q, want %q", got, "3:72-75")
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	got := a.Cover(b)
	if got.Start != 5 || got.End != 20 {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("Cover across files must not extend: %v", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.java", []byte("abc\ndef\n\nxyz"))

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{6, 2, 3},
		{8, 3, 1},
		{9, 4, 1},
		{11, 4, 3},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start.Line != tc.line || start.Col != tc.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", tc.off, start.Line, start.Col, tc.line, tc.col)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.java", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	if got := f.GetLine(1); got != "first" {
		t.Fatalf("line 1 = %q", got)
	}
	if got := f.GetLine(2); got != "second" {
		t.Fatalf("line 2 = %q", got)
	}
	if got := f.GetLine(3); got != "third" {
		t.Fatalf("line 3 = %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Fatalf("line 4 = %q", got)
	}
}

func TestLoadNormalization(t *testing.T) {
	content := []byte("a\r\nb")
	normalized, changed := normalizeCRLF(content)
	if !changed || string(normalized) != "a\nb" {
		t.Fatalf("normalizeCRLF = %q, %v", normalized, changed)
	}
	bom := []byte{0xEF, 0xBB, 0xBF, 'x'}
	stripped, had := removeBOM(bom)
	if !had || string(stripped) != "x" {
		t.Fatalf("removeBOM = %q, %v", stripped, had)
	}
}
