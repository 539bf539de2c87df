package x86

import (
	"fmt"

	"joosc/internal/ir"
	"joosc/internal/layout"
	"joosc/internal/types"
)

// frameKey identifies one exception/call site within a method.
type frameKey struct {
	file uint64
	line uint64
}

// stubKey identifies one exception stub: a site and a discriminant.
type stubKey struct {
	frame frameKey
	etype int
}

// streamEmitter lowers one IR stream to assembly with strict stack
// bookkeeping: curOffset mirrors the IR's ALLOC/DEALLOC pairs and the
// emitter asserts the pair-up.
type streamEmitter struct {
	w *Writer
	u *unitWriter
	s *ir.Stream

	offsets   map[types.MemId]int
	curOffset int

	frames     map[frameKey]string
	stubs      map[stubKey]string
	stubOrder  []stubKey
	frameOrder []frameKey
	nextLocal  int
}

// Reserved prologue slots below the saved frame pointer: the saved stack
// pointer and the stack-frame-metadata pointer.
const reservedBytes = 8

func (w *Writer) emitStream(u *unitWriter, s *ir.Stream) {
	e := &streamEmitter{
		w:       w,
		u:       u,
		s:       s,
		offsets: make(map[types.MemId]int),
		frames:  make(map[frameKey]string),
		stubs:   make(map[stubKey]string),
	}
	e.emit()
}

func (e *streamEmitter) emit() {
	label := methodLabel(e.s.Tid, e.s.Mid)
	e.u.define(label)
	e.u.textf("%s:", label)

	// Prologue: link the frame, reserve the bookkeeping slots.
	e.u.textf("\tpush ebp")
	e.u.textf("\tmov ebp, esp")
	e.u.textf("\tsub esp, %d", reservedBytes)
	e.u.textf("\tmov [ebp-4], esp")
	e.u.textf("\tmov dword [ebp-8], 0")
	e.curOffset = -reservedBytes

	// Parameters sit above the return address, pushed right to left.
	var mem types.MemId = 1
	for i := range e.s.Params {
		e.offsets[mem] = 8 + 4*i
		mem++
	}

	for _, op := range e.s.Ops {
		e.emitOp(op)
	}

	if e.curOffset != -reservedBytes {
		panic(fmt.Sprintf("x86: unbalanced ALLOC/DEALLOC in %s: %d", label, e.curOffset))
	}
	e.emitStubs()
}

// slot renders a mem's frame-relative operand.
func (e *streamEmitter) slot(id uint64) string {
	off, ok := e.offsets[types.MemId(id)]
	if !ok {
		panic(fmt.Sprintf("x86: use of unallocated mem %d", id))
	}
	if off >= 0 {
		return fmt.Sprintf("[ebp+%d]", off)
	}
	return fmt.Sprintf("[ebp%d]", off)
}

// frameFor lazily emits the stack-frame metadata record for a site.
func (e *streamEmitter) frameFor(site frameKey) string {
	if l, ok := e.frames[site]; ok {
		return l
	}
	l := fmt.Sprintf("frame_t%d_m%d_f%d_l%d", e.s.Tid, e.s.Mid, site.file, site.line)
	e.frames[site] = l
	e.frameOrder = append(e.frameOrder, site)
	e.u.define(l)
	e.u.rodataf("%s:", l)
	e.u.rodataf("\tdd %s", e.u.ref(vtableLabel(e.w.ids.StackFrameTid.Base)))
	e.u.rodataf("\tdd %s", e.u.ref(srcFileLabel(site.file)))
	e.u.rodataf("\tdd %s", e.u.ref(typeNameLabel(e.s.Tid)))
	e.u.rodataf("\tdd %s", e.u.ref(methodNameLabel(e.s.Mid)))
	e.u.rodataf("\tdd %d", site.line)
	return l
}

// stubFor returns the method-local exception stub for (site, etype),
// creating it at most once.
func (e *streamEmitter) stubFor(etype int, site frameKey) string {
	k := stubKey{frame: site, etype: etype}
	if l, ok := e.stubs[k]; ok {
		return l
	}
	l := fmt.Sprintf(".e%d", len(e.stubs))
	e.stubs[k] = l
	e.stubOrder = append(e.stubOrder, k)
	e.frameFor(site)
	return l
}

// setFrame records the active site in the frame's metadata slot.
func (e *streamEmitter) setFrame(site frameKey) {
	e.u.textf("\tmov dword [ebp-8], %s", e.frameFor(site))
}

// emitStubs writes the epilogue-adjacent exception stubs: one per
// distinct (site, exception) pair.
func (e *streamEmitter) emitStubs() {
	for _, k := range e.stubOrder {
		e.u.textf("%s:", e.stubs[k])
		e.u.textf("\tmov eax, %d", k.etype)
		e.u.textf("\tmov ebx, %s", e.frames[k.frame])
		e.u.textf("\tjmp %s", e.u.ref("_joos_throw"))
	}
}

func site2(args []uint64, i int) frameKey {
	return frameKey{file: args[i], line: args[i+1]}
}

func (e *streamEmitter) emitOp(op ir.Op) {
	a := e.s.ArgsOf(op)
	switch op.Type {
	case ir.OpAllocMem:
		e.curOffset -= 4
		e.offsets[types.MemId(a[0])] = e.curOffset
		e.u.textf("\tsub esp, 4")

	case ir.OpDeallocMem:
		off, ok := e.offsets[types.MemId(a[0])]
		if !ok || off != e.curOffset {
			panic(fmt.Sprintf("x86: DEALLOC_MEM pair-up violated for mem %d", a[0]))
		}
		delete(e.offsets, types.MemId(a[0]))
		e.curOffset += 4
		e.u.textf("\tadd esp, 4")

	case ir.OpLabel:
		e.u.textf(".L%d:", a[0])

	case ir.OpJmp:
		e.u.textf("\tjmp .L%d", a[0])

	case ir.OpJmpIf:
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		e.u.textf("\ttest eax, eax")
		e.u.textf("\tjnz .L%d", a[0])

	case ir.OpConst:
		e.u.textf("\tmov dword %s, %d", e.slot(a[0]), uint32(a[2]))

	case ir.OpConstStr:
		e.u.textf("\tmov eax, %s", e.u.ref(stringLabel(types.StringId(a[1]))))
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpMov:
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpMovAddr:
		off := e.offsets[types.MemId(a[1])]
		e.u.textf("\tlea eax, [ebp%+d]", off)
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpMovToAddr:
		e.u.textf("\tmov eax, %s", e.slot(a[0]))
		e.u.textf("\tmov ebx, %s", e.slot(a[1]))
		e.u.textf("\tmov [eax], ebx")

	case ir.OpFieldDeref:
		e.emitFieldOp(a, false)

	case ir.OpFieldAddr:
		e.emitFieldOp(a, true)

	case ir.OpArrayDeref:
		e.emitArrayOp(a, false)

	case ir.OpArrayAddr:
		e.emitArrayOp(a, true)

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor:
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		switch op.Type {
		case ir.OpAdd:
			e.u.textf("\tadd eax, %s", e.slot(a[2]))
		case ir.OpSub:
			e.u.textf("\tsub eax, %s", e.slot(a[2]))
		case ir.OpMul:
			e.u.textf("\timul eax, %s", e.slot(a[2]))
		case ir.OpAnd:
			e.u.textf("\tand eax, %s", e.slot(a[2]))
		case ir.OpOr:
			e.u.textf("\tor eax, %s", e.slot(a[2]))
		case ir.OpXor:
			e.u.textf("\txor eax, %s", e.slot(a[2]))
		}
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpDiv, ir.OpMod:
		site := site2(a, 3)
		e.u.textf("\tmov ecx, %s", e.slot(a[2]))
		e.u.textf("\ttest ecx, ecx")
		e.u.textf("\tjz %s", e.stubFor(ExcArithmetic, site))
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		e.u.textf("\tcdq")
		e.u.textf("\tidiv ecx")
		if op.Type == ir.OpDiv {
			e.u.textf("\tmov %s, eax", e.slot(a[0]))
		} else {
			e.u.textf("\tmov %s, edx", e.slot(a[0]))
		}

	case ir.OpEq, ir.OpLt, ir.OpLeq:
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		e.u.textf("\tcmp eax, %s", e.slot(a[2]))
		switch op.Type {
		case ir.OpEq:
			e.u.textf("\tsete al")
		case ir.OpLt:
			e.u.textf("\tsetl al")
		case ir.OpLeq:
			e.u.textf("\tsetle al")
		}
		e.u.textf("\tmovzx eax, al")
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpNot:
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		e.u.textf("\txor eax, 1")
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpNeg:
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		e.u.textf("\tneg eax")
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpExtend:
		src := ir.SizeClass(e.memSize(a[1]))
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		switch {
		case src == ir.SizeByte:
			e.u.textf("\tmovsx eax, al")
		case src == ir.SizeShort:
			e.u.textf("\tmovsx eax, ax")
		case src == ir.SizeChar:
			e.u.textf("\tmovzx eax, ax")
		case src == ir.SizeBool:
			e.u.textf("\tand eax, 1")
		}
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpTruncate:
		dst := ir.SizeClass(e.memSize(a[0]))
		e.u.textf("\tmov eax, %s", e.slot(a[1]))
		switch dst {
		case ir.SizeByte:
			e.u.textf("\tmovsx eax, al")
		case ir.SizeShort:
			e.u.textf("\tmovsx eax, ax")
		case ir.SizeChar:
			e.u.textf("\tmovzx eax, ax")
		case ir.SizeBool:
			e.u.textf("\tand eax, 1")
		}
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpAllocHeap:
		size := e.w.ot.SizeOf(types.TypeId{Base: a[1]})
		e.u.textf("\tmov eax, %d", size)
		e.u.textf("\tcall %s", e.u.ref("_joos_malloc"))
		e.u.textf("\tmov dword [eax], %s", e.u.ref(vtableLabel(a[1])))
		e.u.textf("\tmov %s, eax", e.slot(a[0]))

	case ir.OpAllocArray:
		e.emitAllocArray(a)

	case ir.OpInstanceOf:
		e.emitInstanceOf(a)

	case ir.OpCastExceptionIfFalse:
		site := site2(a, 1)
		e.u.textf("\tmov eax, %s", e.slot(a[0]))
		e.u.textf("\ttest eax, eax")
		e.u.textf("\tjz %s", e.stubFor(ExcClassCast, site))

	case ir.OpCheckArrayStore:
		e.emitCheckArrayStore(a)

	case ir.OpStaticCall:
		e.emitStaticCall(a)

	case ir.OpDynamicCall:
		e.emitDynamicCall(a)

	case ir.OpRet:
		if len(a) == 1 {
			e.u.textf("\tmov eax, %s", e.slot(a[0]))
		}
		e.u.textf("\tmov esp, ebp")
		e.u.textf("\tpop ebp")
		e.u.textf("\tret")
	}
}

// memSize recovers a mem's size class from its ALLOC_MEM op; parameters
// use the declared parameter classes.
func (e *streamEmitter) memSize(id uint64) ir.SizeClass {
	if int(id) >= 1 && int(id) <= len(e.s.Params) {
		return e.s.Params[id-1]
	}
	for _, op := range e.s.Ops {
		if op.Type == ir.OpAllocMem {
			args := e.s.ArgsOf(op)
			if args[0] == id {
				return ir.SizeClass(args[1])
			}
		}
	}
	return ir.SizeInt
}

func (e *streamEmitter) emitFieldOp(a []uint64, addr bool) {
	fid := types.FieldId(a[2])
	site := site2(a, 3)

	if a[1] == ir.NoMem {
		// Static field: the backing symbol is the storage.
		owner := e.staticOwner(fid)
		label := e.u.ref(layout.StaticLabel(owner, fid))
		if addr {
			e.u.textf("\tmov eax, %s", label)
		} else {
			e.u.textf("\tmov eax, [%s]", label)
		}
		e.u.textf("\tmov %s, eax", e.slot(a[0]))
		return
	}

	e.u.textf("\tmov eax, %s", e.slot(a[1]))
	e.u.textf("\ttest eax, eax")
	e.u.textf("\tjz %s", e.stubFor(ExcNullPointer, site))

	var off uint32
	if fid == types.ArrayLengthFid {
		off = 4
	} else {
		off = e.w.ot.OffsetOfField(fid)
	}
	if addr {
		e.u.textf("\tlea eax, [eax+%d]", off)
	} else {
		e.u.textf("\tmov eax, [eax+%d]", off)
	}
	e.u.textf("\tmov %s, eax", e.slot(a[0]))
}

// staticOwner finds the type owning a static field.
func (e *streamEmitter) staticOwner(fid types.FieldId) types.TypeId {
	if base, ok := types.TypeInfoFidBase(fid); ok {
		return types.TypeId{Base: base}
	}
	for _, ti := range e.w.tmap.Topo() {
		for _, fi := range ti.DeclFields {
			if fi.Fid == fid {
				return ti.Tid
			}
		}
	}
	panic(fmt.Sprintf("x86: static field %d has no owner", fid))
}

func (e *streamEmitter) emitArrayOp(a []uint64, addr bool) {
	elem := ir.SizeClass(a[3])
	site := site2(a, 4)
	scale := elem.ByteWidth()

	e.u.textf("\tmov eax, %s", e.slot(a[1]))
	e.u.textf("\ttest eax, eax")
	e.u.textf("\tjz %s", e.stubFor(ExcNullPointer, site))
	e.u.textf("\tmov ebx, %s", e.slot(a[2]))
	e.u.textf("\tcmp ebx, [eax+4]")
	e.u.textf("\tjae %s", e.stubFor(ExcOutOfBounds, site))

	if addr {
		e.u.textf("\tlea eax, [eax+%d+ebx*%d]", layout.ArrayHeaderSize, scale)
		e.u.textf("\tmov %s, eax", e.slot(a[0]))
		return
	}
	switch elem {
	case ir.SizeByte:
		e.u.textf("\tmovsx eax, byte [eax+%d+ebx*%d]", layout.ArrayHeaderSize, scale)
	case ir.SizeBool:
		e.u.textf("\tmovzx eax, byte [eax+%d+ebx*%d]", layout.ArrayHeaderSize, scale)
	case ir.SizeShort:
		e.u.textf("\tmovsx eax, word [eax+%d+ebx*%d]", layout.ArrayHeaderSize, scale)
	case ir.SizeChar:
		e.u.textf("\tmovzx eax, word [eax+%d+ebx*%d]", layout.ArrayHeaderSize, scale)
	default:
		e.u.textf("\tmov eax, [eax+%d+ebx*%d]", layout.ArrayHeaderSize, scale)
	}
	e.u.textf("\tmov %s, eax", e.slot(a[0]))
}

func (e *streamEmitter) emitAllocArray(a []uint64) {
	elem := types.TypeId{Base: a[1], Ndims: uint32(a[2])}
	site := site2(a, 4)
	scale := layout.ElemSize(elem)

	e.u.textf("\tmov ecx, %s", e.slot(a[3]))
	e.u.textf("\ttest ecx, ecx")
	e.u.textf("\tjs %s", e.stubFor(ExcNegativeArraySize, site))
	e.u.textf("\tmov eax, ecx")
	e.u.textf("\timul eax, %d", scale)
	e.u.textf("\tadd eax, %d", layout.ArrayHeaderSize+3)
	e.u.textf("\tand eax, ~3")
	e.u.textf("\tcall %s", e.u.ref("_joos_malloc"))
	e.u.textf("\tmov dword [eax], %s", e.u.ref(vtableLabel(e.w.ids.ArrayTid.Base)))
	e.u.textf("\tmov [eax+4], ecx")
	switch {
	case elem.Ndims > 0:
		e.u.textf("\tmov dword [eax+8], 0")
	case elem.IsUserType():
		e.u.textf("\tmov edx, [%s]", e.u.ref(typeInfoLabel(elem.Base)))
		e.u.textf("\tmov [eax+8], edx")
	default:
		e.u.textf("\tmov dword [eax+8], %d", elem.Base)
	}
	e.u.textf("\tmov %s, eax", e.slot(a[0]))
}

// emitInstanceOf leaves 1 in dst when the object in src conforms to the
// target type. Null is never an instance.
func (e *streamEmitter) emitInstanceOf(a []uint64) {
	target := types.TypeId{Base: a[2], Ndims: uint32(a[3])}
	done := e.localLabel()
	isFalse := e.localLabel()

	e.u.textf("\tmov eax, %s", e.slot(a[1]))
	e.u.textf("\ttest eax, eax")
	e.u.textf("\tjz %s", isFalse)

	if target.Ndims > 0 {
		// Array target: the object must be an array, then the element
		// types must conform.
		e.u.textf("\tcmp dword [eax], %s", e.u.ref(vtableLabel(e.w.ids.ArrayTid.Base)))
		e.u.textf("\tjne %s", isFalse)
		elem := target.Elem()
		switch {
		case elem.IsUserType() && target.Ndims == 1:
			e.u.textf("\tmov eax, [eax+8]")
			e.u.textf("\tmov ebx, [%s]", e.u.ref(typeInfoLabel(elem.Base)))
			e.emitInstanceOfCall()
			e.u.textf("\tjmp %s", done)
		default:
			// Primitive or nested-array elements match by identity.
			if elem.IsUserType() || elem.Ndims > 0 {
				e.u.textf("\tcmp dword [eax+8], 0")
			} else {
				e.u.textf("\tcmp dword [eax+8], %d", elem.Base)
			}
			e.u.textf("\tjne %s", isFalse)
			e.u.textf("\tmov eax, 1")
			e.u.textf("\tjmp %s", done)
		}
	} else {
		// Object target: compare the object's TypeInfo graph. The vtable's
		// first slot points at the static TypeInfo cell.
		e.u.textf("\tmov eax, [eax]")
		e.u.textf("\tmov eax, [eax]")
		e.u.textf("\tmov eax, [eax]")
		e.u.textf("\tmov ebx, [%s]", e.u.ref(typeInfoLabel(target.Base)))
		e.emitInstanceOfCall()
		e.u.textf("\tjmp %s", done)
	}

	e.u.textf("%s:", isFalse)
	e.u.textf("\tmov eax, 0")
	e.u.textf("%s:", done)
	e.u.textf("\tmov %s, eax", e.slot(a[0]))
}

// emitInstanceOfCall invokes TypeInfo.InstanceOf(query, target) with the
// query TypeInfo in eax and the target TypeInfo in ebx.
func (e *streamEmitter) emitInstanceOfCall() {
	tiBase := e.w.ids.TypeInfoTid.Base
	e.u.textf("\tpush ebx")
	e.u.textf("\tpush eax")
	e.u.textf("\tcall %s", e.u.ref(methodLabel(tiBase, e.w.ids.TypeInfoInstanceOf)))
	e.u.textf("\tadd esp, 8")
}

func (e *streamEmitter) emitCheckArrayStore(a []uint64) {
	site := site2(a, 2)
	ok := e.localLabel()

	e.u.textf("\tmov eax, %s", e.slot(a[1]))
	e.u.textf("\ttest eax, eax")
	e.u.textf("\tjz %s", ok) // storing null is always legal
	e.u.textf("\tmov eax, [eax]")
	e.u.textf("\tmov eax, [eax]")
	e.u.textf("\tmov eax, [eax]") // value's TypeInfo
	e.u.textf("\tmov ebx, %s", e.slot(a[0]))
	e.u.textf("\tmov ebx, [ebx+8]") // array's element TypeInfo
	e.emitInstanceOfCall()
	e.u.textf("\ttest eax, eax")
	e.u.textf("\tjz %s", e.stubFor(ExcArrayStore, site))
	e.u.textf("%s:", ok)
}

func (e *streamEmitter) emitStaticCall(a []uint64) {
	tid := a[1]
	mid := types.MethodId(a[2])
	nargs := int(a[3])
	args := a[4 : 4+nargs]
	site := site2(a, 4+nargs)

	e.setFrame(site)
	for i := nargs - 1; i >= 0; i-- {
		e.u.textf("\tpush dword %s", e.slot(args[i]))
	}
	if native, ok := e.w.ot.NativeCall(mid); ok {
		// Native convention: the single argument arrives in eax.
		if nargs > 0 {
			e.u.textf("\tmov eax, [esp]")
		}
		e.u.textf("\tcall %s", e.u.ref(native))
	} else {
		e.u.textf("\tcall %s", e.u.ref(methodLabel(tid, mid)))
	}
	if nargs > 0 {
		e.u.textf("\tadd esp, %d", 4*nargs)
	}
	e.u.textf("\tmov %s, eax", e.slot(a[0]))
}

func (e *streamEmitter) emitDynamicCall(a []uint64) {
	mid := types.MethodId(a[2])
	nargs := int(a[3])
	args := a[4 : 4+nargs]
	site := site2(a, 4+nargs)

	slot, ok := e.w.ot.OffsetOfMethod(mid)
	if !ok {
		panic(fmt.Sprintf("x86: method %d has no dispatch slot", mid))
	}

	e.u.textf("\tmov eax, %s", e.slot(a[1]))
	e.u.textf("\ttest eax, eax")
	e.u.textf("\tjz %s", e.stubFor(ExcNullPointer, site))

	e.setFrame(site)
	for i := nargs - 1; i >= 0; i-- {
		e.u.textf("\tpush dword %s", e.slot(args[i]))
	}
	e.u.textf("\tpush eax") // receiver is the first parameter
	e.u.textf("\tmov ebx, [eax]")
	if slot.Kind == types.InterfaceKind {
		e.u.textf("\tmov ebx, [ebx+4]")
	}
	e.u.textf("\tcall [ebx+%d]", slot.Offset)
	e.u.textf("\tadd esp, %d", 4*(nargs+1))
	e.u.textf("\tmov %s, eax", e.slot(a[0]))
}

// localLabel returns a fresh method-local label for emitter-internal
// control flow, disjoint from IR labels.
func (e *streamEmitter) localLabel() string {
	e.nextLocal++
	return fmt.Sprintf(".x%d", e.nextLocal)
}
