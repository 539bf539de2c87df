package layout

import (
	"fmt"

	"joosc/internal/ir"
	"joosc/internal/types"
)

// Build computes the whole-program layout in topological order, so every
// supertype's layout exists before its subtypes extend it.
func Build(tmap *types.TypeInfoMap) *OffsetTable {
	t := &OffsetTable{
		typeSizes:     make(map[uint64]uint32),
		fieldOffsets:  make(map[types.FieldId]uint32),
		methodOffsets: make(map[types.MethodId]MethodSlot),
		vtables:       make(map[uint64][]VtableEntry),
		itables:       make(map[uint64][]ItableEntry),
		statics:       make(map[uint64][]StaticField),
		natives:       make(map[types.MethodId]string),
	}

	// Interface methods first: one global slot per declared interface
	// method, shared by every implementing class.
	for _, ti := range tmap.Topo() {
		if ti.Kind != types.InterfaceKind {
			continue
		}
		for _, mi := range ti.DeclMethods {
			t.methodOffsets[mi.Mid] = MethodSlot{Offset: t.itableSlots * PtrSize, Kind: types.InterfaceKind}
			t.itableSlots++
		}
	}

	for _, ti := range tmap.Topo() {
		if ti.Kind == types.InterfaceKind {
			t.buildStatics(ti)
			continue
		}
		t.buildInstanceLayout(tmap, ti)
		t.buildVtable(tmap, ti)
		t.buildItable(tmap, ti)
		t.buildStatics(ti)
		t.buildNatives(ti)
	}
	return t
}

// buildInstanceLayout packs the superclass's fields first, then this
// type's declared instance fields, one 4-byte slot each.
func (t *OffsetTable) buildInstanceLayout(tmap *types.TypeInfoMap, ti *types.TypeInfo) {
	var off uint32
	if sup, ok := tmap.Super(ti.Tid); ok {
		off = t.typeSizes[sup.Base]
	}
	for _, fi := range ti.DeclFields {
		if fi.IsStatic() {
			continue
		}
		t.fieldOffsets[fi.Fid] = off
		off += PtrSize
	}
	t.typeSizes[ti.Tid.Base] = off
}

// buildVtable extends the superclass's vtable: overriding methods keep the
// parent's slot, newly introduced instance methods append.
func (t *OffsetTable) buildVtable(tmap *types.TypeInfoMap, ti *types.TypeInfo) {
	var vt []VtableEntry
	if sup, ok := tmap.Super(ti.Tid); ok {
		vt = append(vt, t.vtables[sup.Base]...)
	}

	for _, mi := range ti.DeclMethods {
		if mi.IsStatic() {
			continue
		}
		replaced := false
		for i := range vt {
			if vt[i].Sig == mi.Sig {
				vt[i] = VtableEntry{Owner: ti.Tid, Mid: mi.Mid, Sig: mi.Sig}
				idx, err := safeIdx(i)
				if err != nil {
					panic(err)
				}
				t.methodOffsets[mi.Mid] = MethodSlot{
					Offset: VtableOverhead + idx*PtrSize,
					Kind:   types.ClassKind,
				}
				replaced = true
				break
			}
		}
		if replaced {
			continue
		}
		idx, err := safeIdx(len(vt))
		if err != nil {
			panic(err)
		}
		vt = append(vt, VtableEntry{Owner: ti.Tid, Mid: mi.Mid, Sig: mi.Sig})
		t.methodOffsets[mi.Mid] = MethodSlot{
			Offset: VtableOverhead + idx*PtrSize,
			Kind:   types.ClassKind,
		}
	}
	t.vtables[ti.Tid.Base] = vt
}

// buildItable projects every reachable interface method onto the class's
// sparse itable through the class's own method table.
func (t *OffsetTable) buildItable(tmap *types.TypeInfoMap, ti *types.TypeInfo) {
	var entries []ItableEntry
	seen := make(map[uint32]bool)

	var visit func(tid types.TypeId)
	visit = func(tid types.TypeId) {
		iti, ok := tmap.Get(tid)
		if !ok {
			return
		}
		if iti.Kind == types.InterfaceKind {
			for _, imi := range iti.DeclMethods {
				slot, ok := t.methodOffsets[imi.Mid]
				if !ok {
					continue
				}
				idx := slot.Offset / PtrSize
				if seen[idx] {
					continue
				}
				impl, has := ti.Methods.Get(imi.Sig)
				if !has || impl.IsAbstract() {
					continue
				}
				seen[idx] = true
				entries = append(entries, ItableEntry{Slot: idx, Owner: impl.Owner, Mid: impl.Mid})
			}
		}
		for _, sup := range tmap.Supertypes(tid) {
			visit(sup)
		}
	}
	visit(ti.Tid)
	t.itables[ti.Tid.Base] = entries
}

// buildStatics records the backing storage list: declared static fields
// plus the synthetic TypeInfo slot every type carries.
func (t *OffsetTable) buildStatics(ti *types.TypeInfo) {
	statics := []StaticField{
		{Fid: types.TypeInfoFid(ti.Tid.Base), Size: ir.SizePtr},
	}
	for _, fi := range ti.DeclFields {
		if !fi.IsStatic() {
			continue
		}
		statics = append(statics, StaticField{Fid: fi.Fid, Size: ir.SizeClassOf(fi.Tid)})
	}
	t.statics[ti.Tid.Base] = statics
}

func (t *OffsetTable) buildNatives(ti *types.TypeInfo) {
	for _, mi := range ti.DeclMethods {
		if mi.IsNative() {
			t.natives[mi.Mid] = fmt.Sprintf("NATIVE%s.%s", ti.FQN, mi.Name)
		}
	}
}

func safeIdx(i int) (uint32, error) {
	if i < 0 || i > 1<<30 {
		return 0, fmt.Errorf("layout: vtable index out of range: %d", i)
	}
	return uint32(i), nil
}
