// Package layout assigns concrete byte offsets to instance fields, vtable
// and itable slots, and static-field backing storage for the closed type
// world. The table is built once and read-only afterwards.
package layout

import (
	"fmt"

	"fortio.org/safecast"

	"joosc/internal/ir"
	"joosc/internal/types"
)

// PtrSize is the target word size. The backend emits 32-bit x86.
const PtrSize = 4

// ObjectOverhead is the per-object header: one vtable pointer.
const ObjectOverhead = PtrSize

// VtableOverhead is the two leading vtable slots: the static type-info
// pointer and the itable pointer.
const VtableOverhead = 2 * PtrSize

// ArrayHeaderSize covers the vtable pointer, the length word, and the
// element-type pointer.
const ArrayHeaderSize = 12

// VtableEntry is one method slot: the type owning the implementation and
// the implementing method.
type VtableEntry struct {
	Owner types.TypeId
	Mid   types.MethodId
	Sig   types.Signature
}

// ItableEntry is one sparse interface-dispatch slot.
type ItableEntry struct {
	Slot  uint32
	Owner types.TypeId
	Mid   types.MethodId
}

// StaticField is one backing symbol's worth of static storage.
type StaticField struct {
	Fid  types.FieldId
	Size ir.SizeClass
}

// MethodSlot locates a method for dispatch.
type MethodSlot struct {
	Offset uint32
	Kind   types.TypeKind
}

// OffsetTable is the sealed layout of the whole program.
type OffsetTable struct {
	typeSizes     map[uint64]uint32
	fieldOffsets  map[types.FieldId]uint32
	methodOffsets map[types.MethodId]MethodSlot
	vtables       map[uint64][]VtableEntry
	itables       map[uint64][]ItableEntry
	statics       map[uint64][]StaticField
	natives       map[types.MethodId]string
	itableSlots   uint32
}

// SizeOf returns the allocated byte size of an instance, header included.
func (t *OffsetTable) SizeOf(tid types.TypeId) uint32 {
	if tid.Ndims != 0 {
		panic("layout: SizeOf of an array type")
	}
	return t.typeSizes[tid.Base] + ObjectOverhead
}

// OffsetOfField returns the byte offset of an instance field, header
// included.
func (t *OffsetTable) OffsetOfField(fid types.FieldId) uint32 {
	off, ok := t.fieldOffsets[fid]
	if !ok {
		panic(fmt.Sprintf("layout: unknown field %d", fid))
	}
	return off + ObjectOverhead
}

// OffsetOfMethod returns the dispatch slot for a method and whether it
// dispatches through the vtable or the itable.
func (t *OffsetTable) OffsetOfMethod(mid types.MethodId) (MethodSlot, bool) {
	s, ok := t.methodOffsets[mid]
	return s, ok
}

// VtableOf returns the ordered vtable of a class.
func (t *OffsetTable) VtableOf(tid types.TypeId) []VtableEntry {
	return t.vtables[tid.Base]
}

// ItableOf returns the sparse itable entries of a class.
func (t *OffsetTable) ItableOf(tid types.TypeId) []ItableEntry {
	return t.itables[tid.Base]
}

// ItableSlots returns the global interface slot count.
func (t *OffsetTable) ItableSlots() uint32 {
	return t.itableSlots
}

// StaticFieldsOf returns the static backing storage of a type, the
// synthetic TypeInfo slot included.
func (t *OffsetTable) StaticFieldsOf(tid types.TypeId) []StaticField {
	return t.statics[tid.Base]
}

// NativeCall resolves the external symbol of a native method.
func (t *OffsetTable) NativeCall(mid types.MethodId) (string, bool) {
	s, ok := t.natives[mid]
	return s, ok
}

// StaticLabel names the backing symbol of a static field.
func StaticLabel(owner types.TypeId, fid types.FieldId) string {
	if base, ok := types.TypeInfoFidBase(fid); ok {
		return fmt.Sprintf("typeinfo_t%d", base)
	}
	return fmt.Sprintf("static_t%d_f%d", owner.Base, fid)
}

// ElemSize returns the in-array byte width of an element type.
func ElemSize(elem types.TypeId) uint32 {
	w, err := safecast.Conv[uint32](ir.SizeClassOf(elem).ByteWidth())
	if err != nil {
		panic(err)
	}
	return w
}
