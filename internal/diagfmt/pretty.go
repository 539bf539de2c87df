package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"joosc/internal/diag"
	"joosc/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	posColor  = color.New(color.Bold)
)

// Pretty renders diagnostics for humans:
//
//	<path>:<line>:<col>: error: <message>
//	<source line>
//	    ^~~~~
//
// followed by notes in the same shape. The bag is expected to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for i := range bag.Items() {
		d := &bag.Items()[i]
		writeEntry(w, fs, d.Severity, d.Primary, d.Message, opts)
		for _, n := range d.Notes {
			writeEntry(w, fs, diag.SevInfo, n.Span, n.Msg, opts)
		}
	}
}

func writeEntry(w io.Writer, fs *source.FileSet, sev diag.Severity, sp source.Span, msg string, opts PrettyOpts) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)

	head := fmt.Sprintf("%s:%d:%d:", f.Path, start.Line, start.Col)
	label := sevLabel(sev)
	if opts.Color {
		head = posColor.Sprint(head)
		switch sev {
		case diag.SevError:
			label = errColor.Sprint(label)
		case diag.SevWarning:
			label = warnColor.Sprint(label)
		}
	}
	fmt.Fprintf(w, "%s %s: %s\n", head, label, msg)

	line := f.GetLine(start.Line)
	if line == "" && start.Col > 1 {
		return
	}
	expanded := expandTabs(line, opts.TabWidth)
	fmt.Fprintln(w, expanded)

	// Underline [start.Col, endCol) on the first line of the span.
	endCol := end.Col
	if end.Line != start.Line {
		endCol = uint32(len(line)) + 1
	}
	if endCol <= start.Col {
		endCol = start.Col + 1
	}
	pad := displayWidth(line, int(start.Col)-1, opts.TabWidth)
	width := displayWidth(line[min(int(start.Col)-1, len(line)):], int(endCol-start.Col), opts.TabWidth)
	if width < 1 {
		width = 1
	}
	underline := strings.Repeat(" ", pad) + "^" + strings.Repeat("~", width-1)
	if opts.Color && sev == diag.SevError {
		underline = errColor.Sprint(underline)
	}
	fmt.Fprintln(w, underline)
}

func sevLabel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

// displayWidth computes the rendered width of the first n bytes of line,
// counting tabs as jumps to the next tab stop and wide runes per runewidth.
func displayWidth(line string, n int, tabWidth int) int {
	if n > len(line) {
		n = len(line)
	}
	if n < 0 {
		n = 0
	}
	w := 0
	for _, r := range line[:n] {
		if r == '\t' {
			w += tabWidth - w%tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

func expandTabs(line string, tabWidth int) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	w := 0
	for _, r := range line {
		if r == '\t' {
			spaces := tabWidth - w%tabWidth
			b.WriteString(strings.Repeat(" ", spaces))
			w += spaces
			continue
		}
		b.WriteRune(r)
		w += runewidth.RuneWidth(r)
	}
	return b.String()
}
