package types

// IdAlloc hands out dense member and local ids. One allocator is shared by
// the declaration resolver and the hierarchy builder so synthesized members
// (default constructors) draw from the same space, then it is sealed.
type IdAlloc struct {
	nextField  FieldId
	nextMethod MethodId
	nextVar    LocalVarId
	sealed     bool
}

// NewIdAlloc returns an allocator starting past the reserved ids.
func NewIdAlloc() *IdAlloc {
	return &IdAlloc{
		nextField:  FirstUserFieldId,
		nextMethod: FirstUserMethodId,
		nextVar:    1,
	}
}

func (a *IdAlloc) Field() FieldId {
	if a.sealed {
		panic("types: field id allocated after seal")
	}
	id := a.nextField
	a.nextField++
	return id
}

func (a *IdAlloc) Method() MethodId {
	if a.sealed {
		panic("types: method id allocated after seal")
	}
	id := a.nextMethod
	a.nextMethod++
	return id
}

func (a *IdAlloc) Var() LocalVarId {
	id := a.nextVar
	a.nextVar++
	return id
}

// Seal forbids further member id allocation.
func (a *IdAlloc) Seal() { a.sealed = true }
