package sema

import (
	"sort"

	"joosc/internal/types"
)

// ConstStrings interns every compile-time string constant. Equal folds
// share one StringId, which the backend reuses for its string pool.
type ConstStrings struct {
	byVal map[string]types.StringId
	vals  []string
}

// NewConstStrings returns an empty interner. Id 0 is reserved.
func NewConstStrings() *ConstStrings {
	return &ConstStrings{
		byVal: make(map[string]types.StringId),
		vals:  []string{""},
	}
}

// Intern returns the stable id for a string value.
func (cs *ConstStrings) Intern(val string) types.StringId {
	if id, ok := cs.byVal[val]; ok {
		return id
	}
	id := types.StringId(len(cs.vals))
	cs.vals = append(cs.vals, val)
	cs.byVal[val] = id
	return id
}

// Lookup returns the value for an id.
func (cs *ConstStrings) Lookup(id types.StringId) (string, bool) {
	if int(id) >= len(cs.vals) || id == 0 {
		return "", false
	}
	return cs.vals[id], true
}

// All returns (id, value) pairs in id order, skipping the reserved id.
func (cs *ConstStrings) All() []struct {
	Id  types.StringId
	Val string
} {
	out := make([]struct {
		Id  types.StringId
		Val string
	}, 0, len(cs.vals)-1)
	for i := 1; i < len(cs.vals); i++ {
		out = append(out, struct {
			Id  types.StringId
			Val string
		}{types.StringId(i), cs.vals[i]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}
