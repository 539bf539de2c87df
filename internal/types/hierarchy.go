package types

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"joosc/internal/diag"
)

// BuildHierarchy seals the raw TypeInfos produced by the declaration
// resolver: it validates supertype references, rejects cycles, assigns the
// topological order, merges field and method tables with the Joos override
// rules, checks abstract coverage, and synthesizes default constructors.
//
// Table construction continues past most errors; erroneous signatures land
// on the per-type blacklist so later stages produce no cascading noise.
func BuildHierarchy(raw []*TypeInfo, objectBase uint64, alloc *IdAlloc, r diag.Reporter) *TypeInfoMap {
	m := &TypeInfoMap{byBase: make(map[uint64]*TypeInfo, len(raw))}
	for _, ti := range raw {
		m.byBase[ti.Tid.Base] = ti
	}

	checkSupertypes(m, raw, objectBase, r)
	order, ok := toposort(m, raw, r)
	if !ok {
		// Cycles poison table merging; stop after reporting them.
		m.topo = order
		return m
	}
	m.topo = order
	for i, ti := range order {
		idx, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("topo index overflow: %w", err))
		}
		ti.TopoIdx = idx
	}

	for _, ti := range m.topo {
		mergeFields(m, ti, r)
		mergeMethods(m, ti, r)
		checkAbstractCoverage(ti, r)
		synthesizeCtor(ti, alloc)
	}
	alloc.Seal()
	return m
}

func checkSupertypes(m *TypeInfoMap, raw []*TypeInfo, objectBase uint64, r diag.Reporter) {
	for _, ti := range raw {
		kept := ti.Extends[:0]
		seen := make(map[uint64]bool, len(ti.Extends))
		for _, sup := range ti.Extends {
			if !sup.IsUserType() {
				continue // unresolved, already diagnosed
			}
			sti, ok := m.Get(sup)
			if !ok {
				continue
			}
			if seen[sup.Base] {
				diag.ReportError(r, diag.InhDuplicateSupertype, ti.NameSpan,
					fmt.Sprintf("%s repeated in extends clause", sti.FQN)).Emit()
				continue
			}
			seen[sup.Base] = true
			switch ti.Kind {
			case ClassKind:
				if sti.Kind == InterfaceKind {
					diag.ReportError(r, diag.InhExtendInterface, ti.NameSpan,
						fmt.Sprintf("class %s cannot extend interface %s", ti.FQN, sti.FQN)).Emit()
					continue
				}
				if sti.IsFinal() {
					diag.ReportError(r, diag.InhExtendFinal, ti.NameSpan,
						fmt.Sprintf("class %s cannot extend final class %s", ti.FQN, sti.FQN)).Emit()
					continue
				}
			case InterfaceKind:
				if sti.Kind == ClassKind {
					diag.ReportError(r, diag.InhExtendInterface, ti.NameSpan,
						fmt.Sprintf("interface %s cannot extend class %s", ti.FQN, sti.FQN)).Emit()
					continue
				}
			}
			kept = append(kept, sup)
		}
		ti.Extends = kept

		keptImpl := ti.Implements[:0]
		seenImpl := make(map[uint64]bool, len(ti.Implements))
		for _, sup := range ti.Implements {
			if !sup.IsUserType() {
				continue
			}
			sti, ok := m.Get(sup)
			if !ok {
				continue
			}
			if seenImpl[sup.Base] {
				diag.ReportError(r, diag.InhDuplicateSupertype, ti.NameSpan,
					fmt.Sprintf("%s repeated in implements clause", sti.FQN)).Emit()
				continue
			}
			seenImpl[sup.Base] = true
			if sti.Kind == ClassKind {
				diag.ReportError(r, diag.InhImplementClass, ti.NameSpan,
					fmt.Sprintf("class %s cannot implement class %s", ti.FQN, sti.FQN)).Emit()
				continue
			}
			keptImpl = append(keptImpl, sup)
		}
		ti.Implements = keptImpl

		// Every class except java.lang.Object extends something.
		if ti.Kind == ClassKind && len(ti.Extends) == 0 && ti.Tid.Base != objectBase {
			ti.Extends = append(ti.Extends, TypeId{Base: objectBase})
		}
	}
}

// toposort orders types with supertypes first. It reports every distinct
// cycle and returns ok=false when any was found.
func toposort(m *TypeInfoMap, raw []*TypeInfo, r diag.Reporter) ([]*TypeInfo, bool) {
	sorted := make([]*TypeInfo, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tid.Base < sorted[j].Tid.Base })

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uint64]uint8, len(raw))
	var order []*TypeInfo
	var stack []*TypeInfo
	cyclic := false

	var visit func(ti *TypeInfo)
	visit = func(ti *TypeInfo) {
		switch color[ti.Tid.Base] {
		case black:
			return
		case gray:
			// Found a cycle: everything on the stack from ti onward.
			cyclic = true
			start := 0
			for i, s := range stack {
				if s == ti {
					start = i
					break
				}
			}
			b := diag.ReportError(r, diag.InhInheritanceCycle, ti.NameSpan,
				fmt.Sprintf("inheritance cycle involving %s", ti.FQN))
			for _, s := range stack[start:] {
				if s != ti {
					b = b.WithNote(s.NameSpan, fmt.Sprintf("%s participates in the cycle", s.FQN))
				}
			}
			b.Emit()
			return
		}
		color[ti.Tid.Base] = gray
		stack = append(stack, ti)
		for _, sup := range m.Supertypes(ti.Tid) {
			if sti, ok := m.Get(sup); ok {
				visit(sti)
			}
		}
		stack = stack[:len(stack)-1]
		color[ti.Tid.Base] = black
		order = append(order, ti)
	}

	for _, ti := range sorted {
		visit(ti)
	}
	return order, !cyclic
}

func mergeFields(m *TypeInfoMap, ti *TypeInfo, r diag.Reporter) {
	table := NewFieldTable()
	seenFid := make(map[FieldId]bool)

	// Inherited fields, supertype order. Interfaces declare none.
	for _, sup := range m.Supertypes(ti.Tid) {
		sti, ok := m.Get(sup)
		if !ok || sti.Fields == nil {
			continue
		}
		for _, f := range sti.Fields.Ordered {
			if seenFid[f.Fid] {
				continue
			}
			seenFid[f.Fid] = true
			table.Insert(f)
		}
	}

	declared := make(map[string]*FieldInfo, len(ti.DeclFields))
	for _, f := range ti.DeclFields {
		if prev, dup := declared[f.Name]; dup {
			diag.ReportError(r, diag.InhDuplicateField, f.Pos,
				fmt.Sprintf("field %s redeclared in %s", f.Name, ti.FQN)).
				WithNote(prev.Pos, "previous declaration").Emit()
			continue
		}
		declared[f.Name] = f
		shadowed := table.Insert(f)
		if shadowed != nil && shadowed.Tid != f.Tid {
			diag.ReportError(r, diag.InhDuplicateField, f.Pos,
				fmt.Sprintf("field %s shadows an inherited field of a different type", f.Name)).
				WithNote(shadowed.Pos, "inherited declaration").Emit()
		}
	}
	ti.Fields = table
}

func mergeMethods(m *TypeInfoMap, ti *TypeInfo, r diag.Reporter) {
	table := NewMethodTable()

	// Merge inherited method tables. When the same signature arrives from
	// several supertypes, a concrete implementation wins over an abstract
	// declaration; differing return types poison the signature.
	for _, sup := range m.Supertypes(ti.Tid) {
		sti, ok := m.Get(sup)
		if !ok || sti.Methods == nil {
			continue
		}
		for _, inh := range sti.Methods.Ordered {
			prev, has := table.Get(inh.Sig)
			if !has {
				table.Insert(inh)
				continue
			}
			if prev.Mid == inh.Mid {
				continue // diamond: same method through two paths
			}
			if prev.RetTid != inh.RetTid {
				diag.ReportError(r, diag.InhOverrideReturnType, ti.NameSpan,
					fmt.Sprintf("%s inherits %s with conflicting return types", ti.FQN, inh.Name)).
					WithNote(prev.Pos, "declared here").
					WithNote(inh.Pos, "and here").Emit()
				table.Blacklist(inh.Sig)
				continue
			}
			if prev.IsAbstract() && !inh.IsAbstract() {
				table.Insert(inh)
			}
		}
	}

	declaredSigs := make(map[Signature]*MethodInfo, len(ti.DeclMethods))
	for _, dm := range ti.DeclMethods {
		if prev, dup := declaredSigs[dm.Sig]; dup {
			diag.ReportError(r, diag.InhDuplicateMethod, dm.Pos,
				fmt.Sprintf("method %s redeclared in %s", dm.Name, ti.FQN)).
				WithNote(prev.Pos, "previous declaration").Emit()
			continue
		}
		declaredSigs[dm.Sig] = dm

		inh, has := table.Get(dm.Sig)
		if has {
			checkOverride(ti, dm, inh, r)
		}
		table.Insert(dm)
	}

	ti.Methods = table

	// Constructors never merge; check duplicates within the type.
	ctorSigs := make(map[Signature]*MethodInfo, len(ti.Ctors))
	for _, c := range ti.Ctors {
		if prev, dup := ctorSigs[c.Sig]; dup {
			diag.ReportError(r, diag.InhDuplicateConstructor, c.Pos,
				fmt.Sprintf("constructor %s redeclared", ti.Name)).
				WithNote(prev.Pos, "previous declaration").Emit()
			continue
		}
		ctorSigs[c.Sig] = c
	}
}

// checkOverride enforces the Joos overriding rules against the method being
// replaced in the table.
func checkOverride(ti *TypeInfo, dm, inh *MethodInfo, r diag.Reporter) {
	if dm.RetTid != inh.RetTid {
		diag.ReportError(r, diag.InhOverrideReturnType, dm.Pos,
			fmt.Sprintf("%s.%s changes the return type of the overridden method", ti.FQN, dm.Name)).
			WithNote(inh.Pos, "overridden declaration").Emit()
	}
	// public may not become protected.
	if inh.Mods.Has(ModPublic) && dm.Mods.Has(ModProtected) {
		diag.ReportError(r, diag.InhOverrideAccess, dm.Pos,
			fmt.Sprintf("%s.%s lowers the access of the overridden method", ti.FQN, dm.Name)).
			WithNote(inh.Pos, "overridden declaration").Emit()
	}
	if dm.IsStatic() != inh.IsStatic() {
		diag.ReportError(r, diag.InhOverrideStatic, dm.Pos,
			fmt.Sprintf("%s.%s and the overridden method disagree on static", ti.FQN, dm.Name)).
			WithNote(inh.Pos, "overridden declaration").Emit()
	}
	if inh.Mods.Has(ModFinal) {
		diag.ReportError(r, diag.InhOverrideFinal, dm.Pos,
			fmt.Sprintf("%s.%s overrides a final method", ti.FQN, dm.Name)).
			WithNote(inh.Pos, "overridden declaration").Emit()
	}
}

// checkAbstractCoverage requires a concrete class to implement every
// abstract method reachable through its supertype closure.
func checkAbstractCoverage(ti *TypeInfo, r diag.Reporter) {
	if ti.Kind != ClassKind || ti.IsAbstract() {
		return
	}
	for _, mi := range ti.Methods.Ordered {
		if !mi.IsAbstract() {
			continue
		}
		if ti.Methods.IsBlacklisted(mi.Sig) {
			continue
		}
		ti.Methods.Blacklist(mi.Sig)
		diag.ReportError(r, diag.InhAbstractMethodNotImplemented, ti.NameSpan,
			fmt.Sprintf("class %s does not implement abstract method %s", ti.FQN, mi.Name)).
			WithNote(mi.Pos, "declared abstract here").Emit()
	}
}

// synthesizeCtor adds the implicit default constructor when none is
// declared.
func synthesizeCtor(ti *TypeInfo, alloc *IdAlloc) {
	if ti.Kind != ClassKind || len(ti.Ctors) > 0 {
		return
	}
	ti.Ctors = append(ti.Ctors, &MethodInfo{
		Mid:     alloc.Method(),
		Owner:   ti.Tid,
		Mods:    ModPublic,
		RetTid:  Void,
		Name:    ti.Name,
		Params:  nil,
		Sig:     MakeSignature(ti.Name, nil),
		IsCtor:  true,
		HasBody: true,
		Pos:     ti.NameSpan,
	})
}
