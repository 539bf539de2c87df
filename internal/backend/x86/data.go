package x86

import (
	"sort"

	"joosc/internal/layout"
	"joosc/internal/types"
)

// emitTables writes a class's vtable and itable into .rodata.
func (w *Writer) emitTables(u *unitWriter, ti *types.TypeInfo) {
	if ti.Kind == types.InterfaceKind {
		return
	}

	vt := w.ot.VtableOf(ti.Tid)
	vlabel := vtableLabel(ti.Tid.Base)
	u.define(vlabel)
	u.rodataf("%s:", vlabel)
	// Leading slots: static type-info pointer cell and itable pointer.
	u.rodataf("\tdd %s", u.ref(typeInfoLabel(ti.Tid.Base)))
	u.rodataf("\tdd %s", u.ref(itableLabel(ti.Tid.Base)))
	for _, entry := range vt {
		mi, ok := ti.Methods.ByMid(entry.Mid)
		if ok && mi.IsAbstract() {
			u.rodataf("\tdd 0")
			continue
		}
		u.rodataf("\tdd %s", u.ref(methodLabel(entry.Owner.Base, entry.Mid)))
	}

	// Itable: a sparse array indexed by the global interface slots.
	entries := w.ot.ItableOf(ti.Tid)
	bySlot := make(map[uint32]string, len(entries))
	var maxSlot uint32
	for _, it := range entries {
		bySlot[it.Slot] = methodLabel(it.Owner.Base, it.Mid)
		if it.Slot+1 > maxSlot {
			maxSlot = it.Slot + 1
		}
	}
	ilabel := itableLabel(ti.Tid.Base)
	u.define(ilabel)
	u.rodataf("%s:", ilabel)
	if maxSlot == 0 {
		u.rodataf("\tdd 0")
		return
	}
	for slot := uint32(0); slot < maxSlot; slot++ {
		if sym, ok := bySlot[slot]; ok {
			u.rodataf("\tdd %s", u.ref(sym))
		} else {
			u.rodataf("\tdd 0")
		}
	}
}

// emitStatics reserves the static-field backing storage, the per-type
// TypeInfo slot included.
func (w *Writer) emitStatics(u *unitWriter, ti *types.TypeInfo) {
	statics := w.ot.StaticFieldsOf(ti.Tid)
	sorted := make([]int, len(statics))
	for i := range statics {
		sorted[i] = i
	}
	sort.Slice(sorted, func(a, b int) bool {
		return statics[sorted[a]].Fid < statics[sorted[b]].Fid
	})
	for _, i := range sorted {
		sf := statics[i]
		label := layout.StaticLabel(ti.Tid, sf.Fid)
		u.define(label)
		u.dataf("%s:", label)
		u.dataf("\tdd 0")
	}
}
