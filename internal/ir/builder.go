package ir

import (
	"fmt"

	"joosc/internal/types"
)

// Mem names one typed stack slot inside a stream under construction.
type Mem struct {
	Id        types.MemId
	Size      SizeClass
	Immutable bool
	valid     bool
}

// IsValid reports whether the Mem was produced by a builder.
func (m Mem) IsValid() bool { return m.valid }

// StreamBuilder accumulates ops for one method. It enforces the stack
// discipline the backend depends on: ALLOC_MEM / DEALLOC_MEM pair up in
// strict LIFO order, and every value is written before it is read.
type StreamBuilder struct {
	args []uint64
	ops  []Op

	params            []SizeClass
	paramsInitialized bool

	nextMem   types.MemId
	nextLabel types.LabelId

	live       []types.MemId // allocation stack, for the LIFO assert
	unassigned map[types.MemId]bool
	sizes      map[types.MemId]SizeClass
}

// NewStreamBuilder returns an empty builder. Mem id 0 is reserved.
func NewStreamBuilder() *StreamBuilder {
	return &StreamBuilder{
		nextMem:    1,
		unassigned: make(map[types.MemId]bool),
		sizes:      make(map[types.MemId]SizeClass),
	}
}

func (b *StreamBuilder) appendOp(t OpType, args ...uint64) {
	begin := len(b.args)
	b.args = append(b.args, args...)
	b.ops = append(b.ops, Op{Type: t, Begin: begin, End: len(b.args)})
}

// AllocParams declares the parameter slots. Must run before any other
// allocation; parameters are assigned by the prologue and never deallocated.
func (b *StreamBuilder) AllocParams(sizes []SizeClass) []Mem {
	if b.paramsInitialized {
		panic("ir: AllocParams called twice")
	}
	if b.nextMem != 1 {
		panic("ir: AllocParams must precede other allocations")
	}
	b.paramsInitialized = true
	b.params = sizes
	out := make([]Mem, 0, len(sizes))
	for _, sc := range sizes {
		m := Mem{Id: b.nextMem, Size: sc, valid: true}
		b.nextMem++
		b.sizes[m.Id] = sc
		out = append(out, m)
	}
	return out
}

func (b *StreamBuilder) allocMem(sc SizeClass, immutable bool) Mem {
	m := Mem{Id: b.nextMem, Size: sc, Immutable: immutable, valid: true}
	b.nextMem++
	b.sizes[m.Id] = sc
	b.unassigned[m.Id] = true
	b.live = append(b.live, m.Id)
	imm := uint64(0)
	if immutable {
		imm = 1
	}
	b.appendOp(OpAllocMem, uint64(m.Id), uint64(sc), imm)
	return m
}

// AllocTemp allocates a short-lived slot.
func (b *StreamBuilder) AllocTemp(sc SizeClass) Mem {
	return b.allocMem(sc, false)
}

// AllocLocal allocates a slot scoped to a source block.
func (b *StreamBuilder) AllocLocal(sc SizeClass) Mem {
	return b.allocMem(sc, false)
}

// AllocDummy allocates a slot for a syntactically required but unused
// destination.
func (b *StreamBuilder) AllocDummy() Mem {
	return b.allocMem(SizeInt, false)
}

// DeallocMem releases the most recent live allocation. Releasing out of
// order is a generator bug.
func (b *StreamBuilder) DeallocMem(m Mem) {
	if len(b.live) == 0 || b.live[len(b.live)-1] != m.Id {
		panic(fmt.Sprintf("ir: DEALLOC_MEM out of LIFO order (mem %d)", m.Id))
	}
	b.live = b.live[:len(b.live)-1]
	delete(b.unassigned, m.Id)
	b.appendOp(OpDeallocMem, uint64(m.Id))
}

// AllocLabel reserves a label id unique to this stream.
func (b *StreamBuilder) AllocLabel() types.LabelId {
	l := b.nextLabel
	b.nextLabel++
	return l
}

// EmitLabel places a label at the current position.
func (b *StreamBuilder) EmitLabel(l types.LabelId) {
	b.appendOp(OpLabel, uint64(l))
}

func (b *StreamBuilder) assertAssigned(mems ...Mem) {
	for _, m := range mems {
		if b.unassigned[m.Id] {
			panic(fmt.Sprintf("ir: mem %d read before assignment", m.Id))
		}
	}
}

func (b *StreamBuilder) setAssigned(mems ...Mem) {
	for _, m := range mems {
		delete(b.unassigned, m.Id)
	}
}

// Site is the source coordinate attached to ops that can raise runtime
// exceptions or that record call-site stack frames.
type Site struct {
	File uint64
	Line uint64
}

func (b *StreamBuilder) ConstInt32(dst Mem, v int32) {
	b.appendOp(OpConst, uint64(dst.Id), uint64(dst.Size), uint64(uint32(v)))
	b.setAssigned(dst)
}

func (b *StreamBuilder) ConstBool(dst Mem, v bool) {
	val := uint64(0)
	if v {
		val = 1
	}
	b.appendOp(OpConst, uint64(dst.Id), uint64(SizeBool), val)
	b.setAssigned(dst)
}

func (b *StreamBuilder) ConstNull(dst Mem) {
	b.appendOp(OpConst, uint64(dst.Id), uint64(SizePtr), 0)
	b.setAssigned(dst)
}

// ConstStr points dst at the interned string object sid.
func (b *StreamBuilder) ConstStr(dst Mem, sid types.StringId) {
	b.appendOp(OpConstStr, uint64(dst.Id), uint64(sid))
	b.setAssigned(dst)
}

// AllocHeap allocates an instance of type base into dst.
func (b *StreamBuilder) AllocHeap(dst Mem, base uint64) {
	b.appendOp(OpAllocHeap, uint64(dst.Id), base)
	b.setAssigned(dst)
}

// AllocArray allocates an array of n elements of elem into dst.
func (b *StreamBuilder) AllocArray(dst Mem, elem types.TypeId, n Mem, site Site) {
	b.assertAssigned(n)
	b.appendOp(OpAllocArray, uint64(dst.Id), elem.Base, uint64(elem.Ndims), uint64(n.Id), site.File, site.Line)
	b.setAssigned(dst)
}

func (b *StreamBuilder) Mov(dst, src Mem) {
	b.assertAssigned(src)
	b.appendOp(OpMov, uint64(dst.Id), uint64(src.Id))
	b.setAssigned(dst)
}

// MovAddr writes the address of slot src into dst. Taking the address
// hands out write access, so src counts as assigned from here on.
func (b *StreamBuilder) MovAddr(dst, src Mem) {
	b.appendOp(OpMovAddr, uint64(dst.Id), uint64(src.Id))
	b.setAssigned(dst, src)
}

// MovToAddr stores src through the pointer held in dstPtr.
func (b *StreamBuilder) MovToAddr(dstPtr, src Mem, site Site) {
	b.assertAssigned(dstPtr, src)
	b.appendOp(OpMovToAddr, uint64(dstPtr.Id), uint64(src.Id), site.File, site.Line)
}

// FieldDeref reads field fid of src into dst; a NoMem receiver reads a
// static field.
func (b *StreamBuilder) FieldDeref(dst Mem, src Mem, fid types.FieldId, site Site) {
	recv := NoMem
	if src.IsValid() {
		b.assertAssigned(src)
		recv = uint64(src.Id)
	}
	b.appendOp(OpFieldDeref, uint64(dst.Id), recv, uint64(fid), site.File, site.Line)
	b.setAssigned(dst)
}

// FieldAddr writes the address of field fid of src into dst.
func (b *StreamBuilder) FieldAddr(dst Mem, src Mem, fid types.FieldId, site Site) {
	recv := NoMem
	if src.IsValid() {
		b.assertAssigned(src)
		recv = uint64(src.Id)
	}
	b.appendOp(OpFieldAddr, uint64(dst.Id), recv, uint64(fid), site.File, site.Line)
	b.setAssigned(dst)
}

// ArrayDeref reads arr[idx] into dst, null- and bounds-checked.
func (b *StreamBuilder) ArrayDeref(dst, arr, idx Mem, elem SizeClass, site Site) {
	b.assertAssigned(arr, idx)
	b.appendOp(OpArrayDeref, uint64(dst.Id), uint64(arr.Id), uint64(idx.Id), uint64(elem), site.File, site.Line)
	b.setAssigned(dst)
}

// ArrayAddr writes &arr[idx] into dst, null- and bounds-checked at the
// point this op executes.
func (b *StreamBuilder) ArrayAddr(dst, arr, idx Mem, elem SizeClass, site Site) {
	b.assertAssigned(arr, idx)
	b.appendOp(OpArrayAddr, uint64(dst.Id), uint64(arr.Id), uint64(idx.Id), uint64(elem), site.File, site.Line)
	b.setAssigned(dst)
}

func (b *StreamBuilder) binOp(t OpType, dst, l, r Mem) {
	b.assertAssigned(l, r)
	b.appendOp(t, uint64(dst.Id), uint64(l.Id), uint64(r.Id))
	b.setAssigned(dst)
}

func (b *StreamBuilder) Add(dst, l, r Mem) { b.binOp(OpAdd, dst, l, r) }
func (b *StreamBuilder) Sub(dst, l, r Mem) { b.binOp(OpSub, dst, l, r) }
func (b *StreamBuilder) Mul(dst, l, r Mem) { b.binOp(OpMul, dst, l, r) }

// Div and Mod carry a site for the division-by-zero check.
func (b *StreamBuilder) Div(dst, l, r Mem, site Site) {
	b.assertAssigned(l, r)
	b.appendOp(OpDiv, uint64(dst.Id), uint64(l.Id), uint64(r.Id), site.File, site.Line)
	b.setAssigned(dst)
}

func (b *StreamBuilder) Mod(dst, l, r Mem, site Site) {
	b.assertAssigned(l, r)
	b.appendOp(OpMod, uint64(dst.Id), uint64(l.Id), uint64(r.Id), site.File, site.Line)
	b.setAssigned(dst)
}

func (b *StreamBuilder) Eq(dst, l, r Mem)  { b.binOp(OpEq, dst, l, r) }
func (b *StreamBuilder) Lt(dst, l, r Mem)  { b.binOp(OpLt, dst, l, r) }
func (b *StreamBuilder) Leq(dst, l, r Mem) { b.binOp(OpLeq, dst, l, r) }
func (b *StreamBuilder) And(dst, l, r Mem) { b.binOp(OpAnd, dst, l, r) }
func (b *StreamBuilder) Or(dst, l, r Mem)  { b.binOp(OpOr, dst, l, r) }
func (b *StreamBuilder) Xor(dst, l, r Mem) { b.binOp(OpXor, dst, l, r) }

func (b *StreamBuilder) Not(dst, src Mem) {
	b.assertAssigned(src)
	b.appendOp(OpNot, uint64(dst.Id), uint64(src.Id))
	b.setAssigned(dst)
}

func (b *StreamBuilder) Neg(dst, src Mem) {
	b.assertAssigned(src)
	b.appendOp(OpNeg, uint64(dst.Id), uint64(src.Id))
	b.setAssigned(dst)
}

// Extend widens src into dst; the src class decides sign vs zero
// extension.
func (b *StreamBuilder) Extend(dst, src Mem) {
	b.assertAssigned(src)
	b.appendOp(OpExtend, uint64(dst.Id), uint64(src.Id))
	b.setAssigned(dst)
}

// Truncate narrows src into dst's class.
func (b *StreamBuilder) Truncate(dst, src Mem) {
	b.assertAssigned(src)
	b.appendOp(OpTruncate, uint64(dst.Id), uint64(src.Id))
	b.setAssigned(dst)
}

// InstanceOf evaluates `src instanceof target` into the SizeBool dst.
func (b *StreamBuilder) InstanceOf(dst, src Mem, target types.TypeId) {
	b.assertAssigned(src)
	b.appendOp(OpInstanceOf, uint64(dst.Id), uint64(src.Id), target.Base, uint64(target.Ndims))
	b.setAssigned(dst)
}

// CastExceptionIfFalse raises CCE when cond is false.
func (b *StreamBuilder) CastExceptionIfFalse(cond Mem, site Site) {
	b.assertAssigned(cond)
	b.appendOp(OpCastExceptionIfFalse, uint64(cond.Id), site.File, site.Line)
}

// CheckArrayStore raises ASE when val cannot be stored into arr.
func (b *StreamBuilder) CheckArrayStore(arr, val Mem, site Site) {
	b.assertAssigned(arr, val)
	b.appendOp(OpCheckArrayStore, uint64(arr.Id), uint64(val.Id), site.File, site.Line)
}

// StaticCall invokes (tid, mid) with args; the result lands in dst.
func (b *StreamBuilder) StaticCall(dst Mem, tid uint64, mid types.MethodId, args []Mem, site Site) {
	packed := make([]uint64, 0, len(args)+6)
	packed = append(packed, uint64(dst.Id), tid, uint64(mid), uint64(len(args)))
	for _, a := range args {
		b.assertAssigned(a)
		packed = append(packed, uint64(a.Id))
	}
	packed = append(packed, site.File, site.Line)
	b.appendOp(OpStaticCall, packed...)
	b.setAssigned(dst)
}

// DynamicCall dispatches mid on thisPtr with args.
func (b *StreamBuilder) DynamicCall(dst, thisPtr Mem, mid types.MethodId, args []Mem, site Site) {
	b.assertAssigned(thisPtr)
	packed := make([]uint64, 0, len(args)+6)
	packed = append(packed, uint64(dst.Id), uint64(thisPtr.Id), uint64(mid), uint64(len(args)))
	for _, a := range args {
		b.assertAssigned(a)
		packed = append(packed, uint64(a.Id))
	}
	packed = append(packed, site.File, site.Line)
	b.appendOp(OpDynamicCall, packed...)
	b.setAssigned(dst)
}

func (b *StreamBuilder) Jmp(l types.LabelId) {
	b.appendOp(OpJmp, uint64(l))
}

func (b *StreamBuilder) JmpIf(l types.LabelId, cond Mem) {
	if cond.Size != SizeBool {
		panic("ir: JMP_IF condition must be SizeBool")
	}
	b.assertAssigned(cond)
	b.appendOp(OpJmpIf, uint64(l), uint64(cond.Id))
}

func (b *StreamBuilder) Ret() {
	b.appendOp(OpRet)
}

func (b *StreamBuilder) RetValue(m Mem) {
	b.assertAssigned(m)
	b.appendOp(OpRet, uint64(m.Id))
}

// SizeOf returns the class a mem was allocated with.
func (b *StreamBuilder) SizeOf(id types.MemId) SizeClass {
	return b.sizes[id]
}

// Build seals the stream.
func (b *StreamBuilder) Build(isEntryPoint bool, tid uint64, mid types.MethodId) Stream {
	return Stream{
		Tid:          tid,
		Mid:          mid,
		IsEntryPoint: isEntryPoint,
		Params:       b.params,
		Args:         b.args,
		Ops:          b.ops,
		NumMems:      uint64(b.nextMem),
		NumLabels:    uint64(b.nextLabel),
	}
}
