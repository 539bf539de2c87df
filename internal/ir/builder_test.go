package ir

import (
	"testing"

	"joosc/internal/types"
)

func TestBuilderLIFODiscipline(t *testing.T) {
	b := NewStreamBuilder()
	b.AllocParams(nil)

	a := b.AllocTemp(SizeInt)
	c := b.AllocTemp(SizeBool)
	b.ConstInt32(a, 7)
	b.ConstBool(c, true)
	b.DeallocMem(c)
	b.DeallocMem(a)

	s := b.Build(false, 16, types.MethodId(8))
	var ops []OpType
	for _, op := range s.Ops {
		ops = append(ops, op.Type)
	}
	want := []OpType{OpAllocMem, OpAllocMem, OpConst, OpConst, OpDeallocMem, OpDeallocMem}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestBuilderOutOfOrderDeallocPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("out-of-order DEALLOC_MEM must panic")
		}
	}()
	b := NewStreamBuilder()
	b.AllocParams(nil)
	a := b.AllocTemp(SizeInt)
	_ = b.AllocTemp(SizeInt)
	b.DeallocMem(a)
}

func TestBuilderReadBeforeAssignPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("reading an unassigned mem must panic")
		}
	}()
	b := NewStreamBuilder()
	b.AllocParams(nil)
	a := b.AllocTemp(SizeInt)
	d := b.AllocTemp(SizeInt)
	b.Mov(d, a) // a was never written
}

func TestBuilderJmpIfRequiresBool(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("JMP_IF on a non-bool mem must panic")
		}
	}()
	b := NewStreamBuilder()
	b.AllocParams(nil)
	a := b.AllocTemp(SizeInt)
	b.ConstInt32(a, 1)
	l := b.AllocLabel()
	b.JmpIf(l, a)
}

func TestSizeClassOf(t *testing.T) {
	cases := []struct {
		tid  types.TypeId
		want SizeClass
	}{
		{types.Bool, SizeBool},
		{types.Byte, SizeByte},
		{types.Char, SizeChar},
		{types.Short, SizeShort},
		{types.Int, SizeInt},
		{types.Null, SizePtr},
		{types.TypeId{Base: 42}, SizePtr},
		{types.TypeId{Base: types.IntBase, Ndims: 1}, SizePtr},
	}
	for _, tc := range cases {
		if got := SizeClassOf(tc.tid); got != tc.want {
			t.Errorf("SizeClassOf(%v) = %v, want %v", tc.tid, got, tc.want)
		}
	}
}
