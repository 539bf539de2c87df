package ir

import (
	"sort"

	"joosc/internal/ast"
	"joosc/internal/linkids"
	"joosc/internal/sema"
	"joosc/internal/source"
	"joosc/internal/symbols"
	"joosc/internal/types"
)

// Generator lowers the checked AST into per-method streams. Id allocation
// inside each stream is deterministic: running the generator twice over the
// same decorated AST produces byte-identical streams.
type Generator struct {
	syms *symbols.Result
	tmap *types.TypeInfoMap
	ids  *linkids.LinkIds
	fset *source.FileSet
	sem  *sema.Result
}

// NewGenerator wires the generator to the checked world.
func NewGenerator(syms *symbols.Result, tmap *types.TypeInfoMap, ids *linkids.LinkIds, fset *source.FileSet, sem *sema.Result) *Generator {
	return &Generator{syms: syms, tmap: tmap, ids: ids, fset: fset, sem: sem}
}

// Generate lowers the whole program, one compilation unit per source file,
// in file order.
func (g *Generator) Generate() *Program {
	prog := &Program{Ids: g.ids}

	// Group types by declaring file, deterministically.
	byFile := make(map[source.FileID][]*types.TypeInfo)
	for _, ti := range g.tmap.Topo() {
		byFile[ti.FileID] = append(byFile[ti.FileID], ti)
	}
	fileIDs := make([]source.FileID, 0, len(byFile))
	for fid := range byFile {
		fileIDs = append(fileIDs, fid)
	}
	sort.Slice(fileIDs, func(i, j int) bool { return fileIDs[i] < fileIDs[j] })

	for _, fid := range fileIDs {
		unit := CompUnit{FileID: fid}
		tis := byFile[fid]
		sort.Slice(tis, func(i, j int) bool { return tis[i].Tid.Base < tis[j].Tid.Base })
		for _, ti := range tis {
			unit.Types = append(unit.Types, g.genType(ti))
		}
		prog.Units = append(prog.Units, unit)
	}
	return prog
}

func (g *Generator) genType(ti *types.TypeInfo) Type {
	out := Type{Tid: ti.Tid.Base}
	d := g.syms.Decls[ti.Tid.Base]
	if d == nil {
		return out
	}
	if ti.Kind == types.InterfaceKind {
		// Interfaces carry no method bodies, but they still need a
		// runtime TypeInfo for instanceof.
		out.Streams = append(out.Streams, g.genTypeInit(ti))
		return out
	}

	out.Streams = append(out.Streams, g.genInstanceInit(ti, d))
	out.Streams = append(out.Streams, g.genStaticInit(ti, d))
	out.Streams = append(out.Streams, g.genTypeInit(ti))

	for _, ctor := range ti.Ctors {
		md := g.syms.Methods[ctor.Mid]
		out.Streams = append(out.Streams, g.genCtor(ti, ctor, md))
	}
	for _, md := range d.Methods {
		if md.IsConstructor() || md.Body == nil {
			continue
		}
		out.Streams = append(out.Streams, g.genMethod(ti, md))
	}
	return out
}

// methodGen is the per-stream lowering state.
type methodGen struct {
	g    *Generator
	b    *StreamBuilder
	ti   *types.TypeInfo
	vars map[types.LocalVarId]Mem
	this Mem
}

func (g *Generator) newMethodGen(ti *types.TypeInfo) *methodGen {
	return &methodGen{
		g:    g,
		b:    NewStreamBuilder(),
		ti:   ti,
		vars: make(map[types.LocalVarId]Mem),
	}
}

// site maps a span to the (file, line) pair carried by throwing ops.
func (m *methodGen) site(sp source.Span) Site {
	start, _ := m.g.fset.Resolve(sp)
	return Site{File: uint64(sp.File), Line: uint64(start.Line)}
}

func (g *Generator) genMethod(ti *types.TypeInfo, md *ast.MethodDecl) Stream {
	m := g.newMethodGen(ti)
	isStatic := md.Mods.Has(types.ModStatic)

	sizes := make([]SizeClass, 0, len(md.Params)+1)
	if !isStatic {
		sizes = append(sizes, SizePtr)
	}
	for _, p := range md.Params {
		sizes = append(sizes, SizeClassOf(p.Type.Tid))
	}
	params := m.b.AllocParams(sizes)
	idx := 0
	if !isStatic {
		m.this = params[0]
		idx = 1
	}
	for i, p := range md.Params {
		m.vars[p.Vid] = params[idx+i]
	}

	m.lowerBlock(md.Body)
	if md.RetType == nil || md.RetType.Tid == types.Void {
		m.b.Ret()
	}

	isEntry := ti.Tid == g.ids.EntryTid && md.Mid == g.ids.EntryMid
	return m.b.Build(isEntry, ti.Tid.Base, md.Mid)
}

func (g *Generator) genCtor(ti *types.TypeInfo, ctor *types.MethodInfo, md *ast.MethodDecl) Stream {
	m := g.newMethodGen(ti)

	nParams := 0
	if md != nil {
		nParams = len(md.Params)
	}
	sizes := make([]SizeClass, 0, nParams+1)
	sizes = append(sizes, SizePtr)
	if md != nil {
		for _, p := range md.Params {
			sizes = append(sizes, SizeClassOf(p.Type.Tid))
		}
	}
	params := m.b.AllocParams(sizes)
	m.this = params[0]
	if md != nil {
		for i, p := range md.Params {
			m.vars[p.Vid] = params[1+i]
		}
	}

	// Implicit super() precedes every constructor body.
	if sup, ok := g.tmap.Super(ti.Tid); ok {
		if sti, found := g.tmap.Get(sup); found {
			for _, sc := range sti.Ctors {
				if len(sc.Params) == 0 {
					dummy := m.b.AllocDummy()
					m.b.StaticCall(dummy, sup.Base, sc.Mid, []Mem{m.this}, m.site(ti.NameSpan))
					m.b.DeallocMem(dummy)
					break
				}
			}
		}
	}

	if md != nil && md.Body != nil {
		m.lowerBlock(md.Body)
	}
	m.b.Ret()
	return m.b.Build(false, ti.Tid.Base, ctor.Mid)
}

// genInstanceInit builds the synthesized instance initializer: the super
// initializer first, then each non-static field initializer in declaration
// order.
func (g *Generator) genInstanceInit(ti *types.TypeInfo, d *ast.TypeDecl) Stream {
	m := g.newMethodGen(ti)
	params := m.b.AllocParams([]SizeClass{SizePtr})
	m.this = params[0]

	if sup, ok := g.tmap.Super(ti.Tid); ok {
		dummy := m.b.AllocDummy()
		m.b.StaticCall(dummy, sup.Base, types.MethodIdInstanceInit, []Mem{m.this}, m.site(ti.NameSpan))
		m.b.DeallocMem(dummy)
	}

	for _, fd := range d.Fields {
		if fd.Mods.Has(types.ModStatic) || fd.Init == nil {
			continue
		}
		m.storeField(m.this, fd.Fid, fd.Type.Tid, fd.Init, fd.NameSpan)
	}
	m.b.Ret()
	return m.b.Build(false, ti.Tid.Base, types.MethodIdInstanceInit)
}

// genStaticInit runs each static field initializer in declaration order.
func (g *Generator) genStaticInit(ti *types.TypeInfo, d *ast.TypeDecl) Stream {
	m := g.newMethodGen(ti)
	m.b.AllocParams(nil)

	for _, fd := range d.Fields {
		if !fd.Mods.Has(types.ModStatic) || fd.Init == nil {
			continue
		}
		m.storeField(Mem{}, fd.Fid, fd.Type.Tid, fd.Init, fd.NameSpan)
	}
	m.b.Ret()
	return m.b.Build(false, ti.Tid.Base, types.MethodIdStaticInit)
}

// genTypeInit allocates the runtime TypeInfo for the type: the parents
// array concatenates extends and implements, each read from the parent's
// static TypeInfo slot. The topological static-init order guarantees the
// parents exist.
func (g *Generator) genTypeInit(ti *types.TypeInfo) Stream {
	m := g.newMethodGen(ti)
	m.b.AllocParams(nil)
	site := m.site(ti.NameSpan)

	tiTid := g.ids.TypeInfoTid
	parents := append(append([]types.TypeId{}, ti.Extends...), ti.Implements...)

	arr := m.b.AllocTemp(SizePtr)
	n := m.b.AllocTemp(SizeInt)
	m.b.ConstInt32(n, int32(len(parents)))
	m.b.AllocArray(arr, tiTid, n, site)

	for i, parent := range parents {
		pv := m.b.AllocTemp(SizePtr)
		m.b.FieldDeref(pv, Mem{}, types.TypeInfoFid(parent.Base), site)
		idx := m.b.AllocTemp(SizeInt)
		m.b.ConstInt32(idx, int32(i))
		addr := m.b.AllocTemp(SizePtr)
		m.b.ArrayAddr(addr, arr, idx, SizePtr, site)
		m.b.MovToAddr(addr, pv, site)
		m.b.DeallocMem(addr)
		m.b.DeallocMem(idx)
		m.b.DeallocMem(pv)
	}

	obj := m.b.AllocTemp(SizePtr)
	m.b.AllocHeap(obj, tiTid.Base)
	dummy := m.b.AllocDummy()
	m.b.StaticCall(dummy, tiTid.Base, types.MethodIdInstanceInit, []Mem{obj}, site)
	tidConst := m.b.AllocTemp(SizeInt)
	m.b.ConstInt32(tidConst, int32(ti.Tid.Base))
	m.b.StaticCall(dummy, tiTid.Base, g.ids.TypeInfoCtor, []Mem{obj, tidConst, arr}, site)

	slot := m.b.AllocTemp(SizePtr)
	m.b.FieldAddr(slot, Mem{}, types.TypeInfoFid(ti.Tid.Base), site)
	m.b.MovToAddr(slot, obj, site)

	m.b.DeallocMem(slot)
	m.b.DeallocMem(tidConst)
	m.b.DeallocMem(dummy)
	m.b.DeallocMem(obj)
	m.b.DeallocMem(n)
	m.b.DeallocMem(arr)
	m.b.Ret()
	return m.b.Build(false, ti.Tid.Base, types.MethodIdTypeInit)
}

// storeField evaluates init and stores it into (recv, fid); an invalid
// recv targets a static field.
func (m *methodGen) storeField(recv Mem, fid types.FieldId, ftid types.TypeId, init ast.Expr, sp source.Span) {
	addr := m.b.AllocTemp(SizePtr)
	val := m.lowerExpr(init)
	m.b.FieldAddr(addr, recv, fid, m.site(sp))
	m.b.MovToAddr(addr, val, m.site(sp))
	m.b.DeallocMem(val)
	m.b.DeallocMem(addr)
	_ = ftid
}
