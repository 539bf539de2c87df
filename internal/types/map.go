package types

// TypeInfoMap is the sealed directory of every declared type, in a
// topological order where supertypes precede subtypes.
type TypeInfoMap struct {
	byBase map[uint64]*TypeInfo
	topo   []*TypeInfo
}

// Get returns the TypeInfo for a user type id. Array dimensions are
// ignored: members of T[] resolve against java.lang.Object in sema.
func (m *TypeInfoMap) Get(tid TypeId) (*TypeInfo, bool) {
	ti, ok := m.byBase[tid.Base]
	return ti, ok
}

// MustGet panics when the base is unknown.
func (m *TypeInfoMap) MustGet(tid TypeId) *TypeInfo {
	ti, ok := m.byBase[tid.Base]
	if !ok {
		panic("types: unknown type base")
	}
	return ti
}

// Topo returns all types, supertypes first.
func (m *TypeInfoMap) Topo() []*TypeInfo {
	return m.topo
}

// Super returns the single extended class of a class type, if any.
func (m *TypeInfoMap) Super(tid TypeId) (TypeId, bool) {
	ti, ok := m.Get(tid)
	if !ok || ti.Kind != ClassKind || len(ti.Extends) == 0 {
		return Unassigned, false
	}
	return ti.Extends[0], true
}

// IsAncestor reports whether anc appears in desc's supertype closure.
// A type is its own ancestor.
func (m *TypeInfoMap) IsAncestor(anc, desc TypeId) bool {
	if !anc.IsUserType() || !desc.IsUserType() {
		return false
	}
	if anc == desc {
		return true
	}
	seen := make(map[uint64]bool, 8)
	stack := []TypeId{desc}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur.Base] {
			continue
		}
		seen[cur.Base] = true
		ti, ok := m.Get(cur)
		if !ok {
			continue
		}
		for _, s := range ti.Extends {
			if s == anc {
				return true
			}
			stack = append(stack, s)
		}
		for _, s := range ti.Implements {
			if s == anc {
				return true
			}
			stack = append(stack, s)
		}
	}
	return false
}

// Supertypes returns the direct supertypes, extends first.
func (m *TypeInfoMap) Supertypes(tid TypeId) []TypeId {
	ti, ok := m.Get(tid)
	if !ok {
		return nil
	}
	out := make([]TypeId, 0, len(ti.Extends)+len(ti.Implements))
	out = append(out, ti.Extends...)
	out = append(out, ti.Implements...)
	return out
}
