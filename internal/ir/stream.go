// Package ir defines the per-method linear instruction streams and the
// builder that enforces their invariants.
package ir

import (
	"joosc/internal/linkids"
	"joosc/internal/source"
	"joosc/internal/types"
)

// OpType enumerates IR instructions. Each op's arguments index into the
// stream's flat u64 pool; the encodings are listed per op.
type OpType uint8

const (
	// OpAllocMem: (mem, sizeclass, immutable).
	OpAllocMem OpType = iota
	// OpDeallocMem: (mem). Deallocation is strictly LIFO.
	OpDeallocMem
	// OpAllocHeap: (dst, tidBase). dst receives a pointer to a zeroed
	// object with its vtable pointer installed.
	OpAllocHeap
	// OpAllocArray: (dst, elemBase, elemNdims, lenMem, fileid, line).
	// Validates the length, allocates the 12-byte header plus elements.
	OpAllocArray
	// OpLabel: (label).
	OpLabel
	// OpConst: (dst, sizeclass, value).
	OpConst
	// OpConstStr: (dst, stringId). dst points at the interned String.
	OpConstStr
	// OpMov: (dst, src).
	OpMov
	// OpMovAddr: (dst, src). dst receives the address of slot src.
	OpMovAddr
	// OpMovToAddr: (dstPtr, src). Stores src through the pointer in
	// dstPtr; raises NPE on a null pointer: (dstPtr, src, fileid, line).
	OpMovToAddr
	// OpFieldDeref: (dst, src, fid, fileid, line). src == NoMem reads a
	// static field; otherwise a null src raises NPE.
	OpFieldDeref
	// OpFieldAddr: (dst, src, fid, fileid, line). Address flavor.
	OpFieldAddr
	// OpArrayDeref: (dst, arr, idx, sizeclass, fileid, line). Null and
	// bounds checked.
	OpArrayDeref
	// OpArrayAddr: (dst, arr, idx, sizeclass, fileid, line). Address
	// flavor; performs the same checks when it executes.
	OpArrayAddr
	// Binary arithmetic: (dst, lhs, rhs). Div and Mod carry
	// (dst, lhs, rhs, fileid, line) for the zero check.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	// Comparisons: (dst, lhs, rhs); dst is SizeBool.
	OpEq
	OpLt
	OpLeq
	// OpNot, OpNeg: (dst, src).
	OpNot
	OpNeg
	// Eager boolean: (dst, lhs, rhs).
	OpAnd
	OpOr
	OpXor
	// OpExtend: (dst, src). Sign- or zero-extends per the src class.
	OpExtend
	// OpTruncate: (dst, src). Truncates to the dst class.
	OpTruncate
	// OpInstanceOf: (dst, src, targetBase, targetNdims).
	OpInstanceOf
	// OpCastExceptionIfFalse: (cond, fileid, line).
	OpCastExceptionIfFalse
	// OpCheckArrayStore: (arr, val, fileid, line). Raises ASE when the
	// value's dynamic type does not fit the array's element type.
	OpCheckArrayStore
	// OpStaticCall: (dst, tidBase, mid, nargs, arg..., fileid, line).
	OpStaticCall
	// OpDynamicCall: (dst, this, mid, nargs, arg..., fileid, line).
	// Null receivers raise NPE.
	OpDynamicCall
	// OpJmp: (label).
	OpJmp
	// OpJmpIf: (label, cond).
	OpJmpIf
	// OpRet: () or (mem).
	OpRet
)

// NoMem marks the absent receiver of a static field access.
const NoMem uint64 = 0

// Op is one instruction; begin/end index the stream's argument pool.
type Op struct {
	Type  OpType
	Begin int
	End   int
}

// Stream is the linear IR for one method.
type Stream struct {
	Tid          uint64 // owning type base
	Mid          types.MethodId
	IsEntryPoint bool
	Params       []SizeClass

	Args []uint64
	Ops  []Op

	// NumMems and NumLabels are the allocation high-water marks, for
	// deterministic re-runs and backend table sizing.
	NumMems   uint64
	NumLabels uint64
}

// ArgsOf returns the argument slice of an op.
func (s *Stream) ArgsOf(op Op) []uint64 {
	return s.Args[op.Begin:op.End]
}

// Type groups one type's method streams.
type Type struct {
	Tid     uint64
	Streams []Stream
}

// CompUnit groups one file's types.
type CompUnit struct {
	FileID source.FileID
	Types  []Type
}

// Program is the whole lowered program.
type Program struct {
	Units []CompUnit
	Ids   *linkids.LinkIds
}
