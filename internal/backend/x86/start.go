package x86

import (
	"fmt"

	"joosc/internal/ir"
	"joosc/internal/source"
	"joosc/internal/types"
)

const heapSize = 64 * 1024 * 1024

// emitStart writes the program-wide start.s: process entry, static
// initialization, the allocator, the thrower, and the constant pools.
func (w *Writer) emitStart(u *unitWriter, prog *ir.Program) {
	w.emitEntry(u)
	w.emitStaticInit(u)
	w.emitMalloc(u)
	w.emitThrow(u)
	w.emitNativeWrite(u)
	w.emitStringPool(u)
	w.emitNamePools(u)
}

func (w *Writer) emitEntry(u *unitWriter) {
	u.define("_start")
	u.textf("_start:")
	// A zero frame pointer terminates the stack walk in _joos_throw.
	u.textf("\txor ebp, ebp")
	u.textf("\tcall %s", u.ref("_static_init"))
	u.textf("\tcall %s", u.ref(methodLabel(w.ids.EntryTid.Base, w.ids.EntryMid)))
	u.textf("\tmov ebx, eax")
	u.textf("\tmov eax, 1")
	u.textf("\tint 0x80")
}

// emitStaticInit builds every type's runtime TypeInfo first, then runs
// the static field initializers, both in strict topological order.
func (w *Writer) emitStaticInit(u *unitWriter) {
	u.define("_static_init")
	u.textf("_static_init:")
	u.textf("\tpush ebp")
	u.textf("\tmov ebp, esp")
	// Reserve the same bookkeeping slots as compiled methods so the
	// exception walker can traverse this frame.
	u.textf("\tsub esp, 8")
	u.textf("\tmov [ebp-4], esp")
	u.textf("\tmov dword [ebp-8], 0")
	for _, ti := range w.tmap.Topo() {
		u.textf("\tcall %s", u.ref(methodLabel(ti.Tid.Base, types.MethodIdTypeInit)))
	}
	for _, ti := range w.tmap.Topo() {
		if ti.Kind == types.InterfaceKind {
			continue
		}
		u.textf("\tcall %s", u.ref(methodLabel(ti.Tid.Base, types.MethodIdStaticInit)))
	}
	u.textf("\tmov esp, ebp")
	u.textf("\tpop ebp")
	u.textf("\tret")
}

// emitMalloc is a bump allocator over a zeroed .bss arena; allocation
// size arrives in eax, the pointer returns in eax. ecx survives.
func (w *Writer) emitMalloc(u *unitWriter) {
	u.define("_joos_malloc")
	u.textf("_joos_malloc:")
	u.textf("\tmov edx, [heap_next]")
	u.textf("\tadd [heap_next], eax")
	u.textf("\tmov eax, edx")
	u.textf("\tret")
	u.define("heap_next")
	u.dataf("heap_next:")
	u.dataf("\tdd joos_heap")
	u.define("joos_heap")
	u.bssf("joos_heap:")
	u.bssf("\tresb %d", heapSize)
}

// emitThrow renders the exception banner and the backtrace, then exits.
// The discriminant arrives in eax, the faulting site's StackFrame record
// in ebx.
func (w *Writer) emitThrow(u *unitWriter) {
	sf := w.ids.StackFrameTid.Base
	u.define("_joos_throw")
	u.textf("_joos_throw:")
	u.textf("\tpush ebx")
	u.textf("\tpush eax")
	u.textf("\tcall %s", u.ref(methodLabel(sf, w.ids.StackFramePrintException)))
	u.textf("\tadd esp, 4")
	// The faulting site first, then each caller's active call site,
	// read from the metadata slot above each saved frame pointer.
	u.textf("\tcall %s", u.ref(methodLabel(sf, w.ids.StackFramePrint)))
	u.textf("\tadd esp, 4")
	u.textf("\tmov esi, ebp")
	u.textf(".walk:")
	u.textf("\ttest esi, esi")
	u.textf("\tjz .done")
	u.textf("\tmov esi, [esi]")
	u.textf("\ttest esi, esi")
	u.textf("\tjz .done")
	u.textf("\tmov ecx, [esi-8]")
	u.textf("\ttest ecx, ecx")
	u.textf("\tjz .walk")
	u.textf("\tpush esi")
	u.textf("\tpush ecx")
	u.textf("\tcall %s", u.ref(methodLabel(sf, w.ids.StackFramePrint)))
	u.textf("\tadd esp, 4")
	u.textf("\tpop esi")
	u.textf("\tjmp .walk")
	u.textf(".done:")
	u.textf("\tmov ebx, 13")
	u.textf("\tmov eax, 1")
	u.textf("\tint 0x80")
}

// emitNativeWrite implements OutputStream.nativeWrite: the byte arrives
// in eax, goes to stdout via the write syscall, and 0 returns in eax.
func (w *Writer) emitNativeWrite(u *unitWriter) {
	sym := "NATIVEjava.io.OutputStream.nativeWrite"
	u.define(sym)
	u.textf("%s:", sym)
	u.textf("\tpush ebx")
	u.textf("\tpush ecx")
	u.textf("\tpush edx")
	u.textf("\tpush eax")
	u.textf("\tmov ecx, esp")
	u.textf("\tmov ebx, 1")
	u.textf("\tmov edx, 1")
	u.textf("\tmov eax, 4")
	u.textf("\tint 0x80")
	u.textf("\tadd esp, 4")
	u.textf("\tpop edx")
	u.textf("\tpop ecx")
	u.textf("\tpop ebx")
	u.textf("\tmov eax, 0")
	u.textf("\tret")
}

// emitStringObject writes one Joos String object and its backing char
// array under the given label.
func (w *Writer) emitStringObject(u *unitWriter, label, val string) {
	charsLabel := label + "_chars"
	u.define(label)
	u.define(charsLabel)

	runes := []rune(val)
	u.rodataf("%s:", charsLabel)
	u.rodataf("\tdd %s", u.ref(vtableLabel(w.ids.ArrayTid.Base)))
	u.rodataf("\tdd %d", len(runes))
	u.rodataf("\tdd %d", types.CharBase)
	if len(runes) == 0 {
		u.rodataf("\tdw 0")
	} else {
		line := "\tdw "
		for i, r := range runes {
			if i > 0 {
				line += ", "
			}
			line += fmt.Sprintf("%d", uint16(r))
		}
		u.rodataf("%s", line)
	}

	u.rodataf("%s:", label)
	u.rodataf("\tdd %s", u.ref(vtableLabel(w.ids.StringTid.Base)))
	u.rodataf("\tdd %s", charsLabel)
}

// emitStringPool writes every interned constant string.
func (w *Writer) emitStringPool(u *unitWriter) {
	for _, entry := range w.strings.All() {
		w.emitStringObject(u, stringLabel(entry.Id), entry.Val)
	}
}

// emitNamePools writes the filename, type-name, and method-name String
// objects the stack-frame records point at.
func (w *Writer) emitNamePools(u *unitWriter) {
	for i := 0; i < w.fset.Len(); i++ {
		f := w.fset.Get(source.FileID(i))
		w.emitStringObject(u, srcFileLabel(uint64(f.ID)), f.Path)
	}

	for _, ti := range w.tmap.Topo() {
		w.emitStringObject(u, typeNameLabel(ti.Tid.Base), ti.FQN)

		for _, mi := range ti.DeclMethods {
			w.emitStringObject(u, methodNameLabel(mi.Mid), mi.Name)
		}
		for _, ctor := range ti.Ctors {
			w.emitStringObject(u, methodNameLabel(ctor.Mid), "<init>")
		}
	}

	w.emitStringObject(u, methodNameLabel(types.MethodIdInstanceInit), "<instance_init>")
	w.emitStringObject(u, methodNameLabel(types.MethodIdStaticInit), "<static_init>")
	w.emitStringObject(u, methodNameLabel(types.MethodIdTypeInit), "<type_init>")
}
