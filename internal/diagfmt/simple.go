package diagfmt

import (
	"fmt"
	"io"

	"joosc/internal/diag"
)

// Simple renders diagnostics in the canonical machine-checkable form:
//
//	<Kind>(<file>:<start>-<end>)
//
// for single-location diagnostics, and
//
//	<Kind>: [<file>:<start>-<end>,...,]
//
// when a diagnostic carries several locations (duplicate definitions and
// the like). This is the format the test suites compare against.
func Simple(w io.Writer, bag *diag.Bag) {
	for i := range bag.Items() {
		d := &bag.Items()[i]
		name := diag.SimpleName(d.Code)
		if len(d.Notes) == 0 {
			fmt.Fprintf(w, "%s(%s)\n", name, d.Primary)
			continue
		}
		fmt.Fprintf(w, "%s: [", name)
		for _, sp := range d.Spans() {
			fmt.Fprintf(w, "%s,", sp)
		}
		fmt.Fprint(w, "]\n")
	}
}
