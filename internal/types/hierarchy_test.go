package types_test

import (
	"testing"

	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/types"
)

const objectBase = types.FirstUserBase

// world builds raw TypeInfos around an implicit Object at base 16.
type world struct {
	alloc *types.IdAlloc
	raw   []*types.TypeInfo
	next  uint64
}

func newWorld() *world {
	w := &world{alloc: types.NewIdAlloc(), next: objectBase}
	w.class("java.lang.Object", 0)
	return w
}

func (w *world) tid(i int) types.TypeId {
	return types.TypeId{Base: objectBase + uint64(i)}
}

func (w *world) add(ti *types.TypeInfo) *types.TypeInfo {
	ti.Tid = types.TypeId{Base: w.next}
	w.next++
	w.raw = append(w.raw, ti)
	return ti
}

func (w *world) class(fqn string, _ int) *types.TypeInfo {
	return w.add(&types.TypeInfo{
		Kind: types.ClassKind,
		Mods: types.ModPublic,
		Name: fqn,
		FQN:  fqn,
	})
}

func (w *world) method(ti *types.TypeInfo, name string, ret types.TypeId, mods types.Modifiers, hasBody bool) *types.MethodInfo {
	mi := &types.MethodInfo{
		Mid:     w.alloc.Method(),
		Owner:   ti.Tid,
		Mods:    mods,
		RetTid:  ret,
		Name:    name,
		Sig:     types.MakeSignature(name, nil),
		HasBody: hasBody,
		Pos:     source.Span{},
	}
	ti.DeclMethods = append(ti.DeclMethods, mi)
	return mi
}

func buildWorld(t *testing.T, w *world) (*types.TypeInfoMap, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(50)
	m := types.BuildHierarchy(w.raw, objectBase, w.alloc, diag.BagReporter{Bag: bag})
	return m, bag
}

func TestTopoOrderSupertypesFirst(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	b := w.class("B", 0)
	b.Extends = []types.TypeId{a.Tid}
	c := w.class("C", 0)
	c.Extends = []types.TypeId{b.Tid}

	m, bag := buildWorld(t, w)
	if bag.HasErrors() {
		t.Fatalf("unexpected: %+v", bag.Items())
	}
	ta, _ := m.Get(a.Tid)
	tb, _ := m.Get(b.Tid)
	tc, _ := m.Get(c.Tid)
	if !(ta.TopoIdx < tb.TopoIdx && tb.TopoIdx < tc.TopoIdx) {
		t.Fatalf("topo order: A=%d B=%d C=%d", ta.TopoIdx, tb.TopoIdx, tc.TopoIdx)
	}
	if !m.IsAncestor(a.Tid, c.Tid) {
		t.Fatalf("A must be an ancestor of C")
	}
}

func TestInheritanceCycle(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	b := w.class("B", 0)
	a.Extends = []types.TypeId{b.Tid}
	b.Extends = []types.TypeId{a.Tid}

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhInheritanceCycle) {
		t.Fatalf("expected InheritanceCycle, got %+v", bag.Items())
	}
}

func TestExtendFinal(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	a.Mods |= types.ModFinal
	b := w.class("B", 0)
	b.Extends = []types.TypeId{a.Tid}

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhExtendFinal) {
		t.Fatalf("expected ExtendFinal, got %+v", bag.Items())
	}
}

func TestExtendInterface(t *testing.T) {
	w := newWorld()
	i := w.add(&types.TypeInfo{Kind: types.InterfaceKind, Mods: types.ModPublic, Name: "I", FQN: "I"})
	b := w.class("B", 0)
	b.Extends = []types.TypeId{i.Tid}

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhExtendInterface) {
		t.Fatalf("expected ExtendInterface, got %+v", bag.Items())
	}
}

func TestImplementClass(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	b := w.class("B", 0)
	b.Implements = []types.TypeId{a.Tid}

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhImplementClass) {
		t.Fatalf("expected ImplementClass, got %+v", bag.Items())
	}
}

func TestOverrideReturnType(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	w.method(a, "f", types.Int, types.ModPublic, true)
	b := w.class("B", 0)
	b.Extends = []types.TypeId{a.Tid}
	w.method(b, "f", types.Bool, types.ModPublic, true)

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhOverrideReturnType) {
		t.Fatalf("expected OverrideReturnType, got %+v", bag.Items())
	}
}

func TestOverrideStaticAndFinal(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	w.method(a, "f", types.Int, types.ModPublic|types.ModFinal, true)
	w.method(a, "g", types.Int, types.ModPublic|types.ModStatic, true)
	b := w.class("B", 0)
	b.Extends = []types.TypeId{a.Tid}
	w.method(b, "f", types.Int, types.ModPublic, true)
	w.method(b, "g", types.Int, types.ModPublic, true)

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhOverrideFinal) {
		t.Fatalf("expected OverrideFinal, got %+v", bag.Items())
	}
	if !bagHas(bag, diag.InhOverrideStatic) {
		t.Fatalf("expected OverrideStatic, got %+v", bag.Items())
	}
}

func TestAbstractCoverage(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	a.Mods |= types.ModAbstract
	w.method(a, "f", types.Int, types.ModPublic|types.ModAbstract, false)
	b := w.class("B", 0)
	b.Extends = []types.TypeId{a.Tid}

	_, bag := buildWorld(t, w)
	if !bagHas(bag, diag.InhAbstractMethodNotImplemented) {
		t.Fatalf("expected AbstractMethodNotImplemented, got %+v", bag.Items())
	}
}

func TestDefaultCtorSynthesized(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)

	m, bag := buildWorld(t, w)
	if bag.HasErrors() {
		t.Fatalf("unexpected: %+v", bag.Items())
	}
	ta, _ := m.Get(a.Tid)
	if len(ta.Ctors) != 1 || len(ta.Ctors[0].Params) != 0 || !ta.Ctors[0].IsCtor {
		t.Fatalf("ctors = %+v", ta.Ctors)
	}
}

func TestMethodInheritedThroughTable(t *testing.T) {
	w := newWorld()
	a := w.class("A", 0)
	fa := w.method(a, "f", types.Int, types.ModPublic, true)
	b := w.class("B", 0)
	b.Extends = []types.TypeId{a.Tid}

	m, bag := buildWorld(t, w)
	if bag.HasErrors() {
		t.Fatalf("unexpected: %+v", bag.Items())
	}
	tb, _ := m.Get(b.Tid)
	got, ok := tb.Methods.Get(types.MakeSignature("f", nil))
	if !ok || got.Mid != fa.Mid {
		t.Fatalf("inherited lookup = %+v, %v", got, ok)
	}
}

func bagHas(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}
