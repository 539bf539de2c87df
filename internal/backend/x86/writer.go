// Package x86 is the one-pass NASM assembly writer. It consumes IR streams
// and the offset table and emits one .s file per compilation unit plus the
// program-wide start.s.
package x86

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"joosc/internal/ir"
	"joosc/internal/layout"
	"joosc/internal/linkids"
	"joosc/internal/sema"
	"joosc/internal/source"
	"joosc/internal/types"
)

// Exception discriminants passed to _joos_throw.
const (
	ExcNullPointer = iota
	ExcOutOfBounds
	ExcNegativeArraySize
	ExcClassCast
	ExcArrayStore
	ExcArithmetic
)

// Writer emits assembly for one program.
type Writer struct {
	ot      *layout.OffsetTable
	tmap    *types.TypeInfoMap
	ids     *linkids.LinkIds
	strings *sema.ConstStrings
	fset    *source.FileSet
}

// NewWriter wires a writer to the laid-out world.
func NewWriter(ot *layout.OffsetTable, tmap *types.TypeInfoMap, ids *linkids.LinkIds, strings *sema.ConstStrings, fset *source.FileSet) *Writer {
	return &Writer{ot: ot, tmap: tmap, ids: ids, strings: strings, fset: fset}
}

// WriteProgram writes f<F>.s per unit and start.s into outDir.
func (w *Writer) WriteProgram(prog *ir.Program, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for i := range prog.Units {
		unit := &prog.Units[i]
		path := filepath.Join(outDir, fmt.Sprintf("f%d.s", unit.FileID))
		if err := w.writeFile(path, func(u *unitWriter) {
			w.emitUnit(u, unit)
		}); err != nil {
			return err
		}
	}
	startPath := filepath.Join(outDir, "start.s")
	return w.writeFile(startPath, func(u *unitWriter) {
		w.emitStart(u, prog)
	})
}

func (w *Writer) writeFile(path string, emit func(*unitWriter)) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	u := newUnitWriter()
	emit(u)
	bw := bufio.NewWriter(f)
	u.flush(bw)
	return bw.Flush()
}

// unitWriter buffers the sections of one output file and tracks symbol
// references so extern declarations cover exactly the external ones.
type unitWriter struct {
	text    []string
	rodata  []string
	data    []string
	bss     []string
	defined map[string]bool
	refs    map[string]bool
}

func newUnitWriter() *unitWriter {
	return &unitWriter{
		defined: make(map[string]bool),
		refs:    make(map[string]bool),
	}
}

func (u *unitWriter) textf(format string, args ...any) {
	u.text = append(u.text, fmt.Sprintf(format, args...))
}

func (u *unitWriter) rodataf(format string, args ...any) {
	u.rodata = append(u.rodata, fmt.Sprintf(format, args...))
}

func (u *unitWriter) dataf(format string, args ...any) {
	u.data = append(u.data, fmt.Sprintf(format, args...))
}

func (u *unitWriter) bssf(format string, args ...any) {
	u.bss = append(u.bss, fmt.Sprintf(format, args...))
}

// define registers a global label owned by this file.
func (u *unitWriter) define(sym string) {
	u.defined[sym] = true
}

// ref notes a symbol use; externs are derived at flush time.
func (u *unitWriter) ref(sym string) string {
	u.refs[sym] = true
	return sym
}

func (u *unitWriter) flush(out *bufio.Writer) {
	var externs []string
	for sym := range u.refs {
		if !u.defined[sym] {
			externs = append(externs, sym)
		}
	}
	sort.Strings(externs)
	for _, sym := range externs {
		fmt.Fprintf(out, "extern %s\n", sym)
	}
	var globals []string
	for sym := range u.defined {
		globals = append(globals, sym)
	}
	sort.Strings(globals)
	for _, sym := range globals {
		fmt.Fprintf(out, "global %s\n", sym)
	}

	fmt.Fprint(out, "\nsection .text\n")
	for _, l := range u.text {
		fmt.Fprintln(out, l)
	}
	if len(u.rodata) > 0 {
		fmt.Fprint(out, "\nsection .rodata\n")
		for _, l := range u.rodata {
			fmt.Fprintln(out, l)
		}
	}
	if len(u.data) > 0 {
		fmt.Fprint(out, "\nsection .data\n")
		for _, l := range u.data {
			fmt.Fprintln(out, l)
		}
	}
	if len(u.bss) > 0 {
		fmt.Fprint(out, "\nsection .bss\n")
		for _, l := range u.bss {
			fmt.Fprintln(out, l)
		}
	}
}

// Symbol naming.

func methodLabel(tid uint64, mid types.MethodId) string {
	return fmt.Sprintf("_t%d_m%d", tid, mid)
}

func vtableLabel(tid uint64) string {
	return fmt.Sprintf("vtable_t%d", tid)
}

func itableLabel(tid uint64) string {
	return fmt.Sprintf("itable_t%d", tid)
}

func typeInfoLabel(tid uint64) string {
	return fmt.Sprintf("typeinfo_t%d", tid)
}

func stringLabel(sid types.StringId) string {
	return fmt.Sprintf("string%d", sid)
}

func srcFileLabel(fid uint64) string {
	return fmt.Sprintf("src_file%d", fid)
}

func typeNameLabel(tid uint64) string {
	return fmt.Sprintf("types%d", tid)
}

func methodNameLabel(mid types.MethodId) string {
	return fmt.Sprintf("methods%d", mid)
}

// emitUnit writes one compilation unit: code, dispatch tables, statics.
func (w *Writer) emitUnit(u *unitWriter, unit *ir.CompUnit) {
	for i := range unit.Types {
		t := &unit.Types[i]
		for j := range t.Streams {
			w.emitStream(u, &t.Streams[j])
		}
	}
	for i := range unit.Types {
		t := &unit.Types[i]
		ti, ok := w.tmap.Get(types.TypeId{Base: t.Tid})
		if !ok {
			continue
		}
		w.emitTables(u, ti)
		w.emitStatics(u, ti)
	}
}
