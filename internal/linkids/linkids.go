// Package linkids pins the ids of the well-known standard-library entities
// the code generator and the emitted runtime agree on. It runs once after
// the hierarchy build and is read-only afterwards.
package linkids

import (
	"fmt"

	"joosc/internal/diag"
	"joosc/internal/names"
	"joosc/internal/source"
	"joosc/internal/types"
)

// LinkIds carries every pinned id.
type LinkIds struct {
	ObjectTid     types.TypeId
	StringTid     types.TypeId
	TypeInfoTid   types.TypeId
	ArrayTid      types.TypeId
	StackFrameTid types.TypeId

	// __joos_internal__.TypeInfo members.
	TypeInfoCtor       types.MethodId
	TypeInfoInstanceOf types.MethodId
	TypeInfoNumTypes   types.FieldId

	// __joos_internal__.StackFrame members.
	StackFramePrint          types.MethodId
	StackFramePrintException types.MethodId

	// java.lang.String members used by concat lowering.
	StringConcat      types.MethodId
	StringValueOfObj  types.MethodId
	StringValueOfInt  types.MethodId
	StringValueOfChar types.MethodId
	StringValueOfBool types.MethodId

	// The program entry point: the static int test() of the first user
	// type, in file order, that declares one.
	EntryTid types.TypeId
	EntryMid types.MethodId
}

// Resolve looks up every pinned entity. Missing entities are internal
// errors: the bundled stdlib always declares them.
func Resolve(set *names.TypeSet, tmap *types.TypeInfoMap, userTypes []types.TypeId, r diag.Reporter) (*LinkIds, bool) {
	ids := &LinkIds{}
	ok := true

	lookupType := func(fqn string) types.TypeId {
		tid, found := set.Get(fqn)
		if !found {
			diag.ReportError(r, diag.InternalError, source.Span{},
				fmt.Sprintf("standard library type %s is missing", fqn)).Emit()
			ok = false
			return types.ErrorType
		}
		return tid
	}

	ids.ObjectTid = lookupType("java.lang.Object")
	ids.StringTid = lookupType("java.lang.String")
	ids.TypeInfoTid = lookupType("__joos_internal__.TypeInfo")
	ids.ArrayTid = lookupType("__joos_internal__.Array")
	ids.StackFrameTid = lookupType("__joos_internal__.StackFrame")
	if !ok {
		return ids, false
	}

	method := func(tid types.TypeId, name string, params []types.TypeId) types.MethodId {
		ti, found := tmap.Get(tid)
		if !found {
			ok = false
			return types.NoMethodId
		}
		mi, has := ti.Methods.Get(types.MakeSignature(name, params))
		if !has {
			diag.ReportError(r, diag.InternalError, ti.NameSpan,
				fmt.Sprintf("standard library method %s.%s is missing", ti.FQN, name)).Emit()
			ok = false
			return types.NoMethodId
		}
		return mi.Mid
	}
	field := func(tid types.TypeId, name string) types.FieldId {
		ti, found := tmap.Get(tid)
		if !found {
			ok = false
			return types.NoFieldId
		}
		fi, has := ti.Fields.Get(name)
		if !has {
			diag.ReportError(r, diag.InternalError, ti.NameSpan,
				fmt.Sprintf("standard library field %s.%s is missing", ti.FQN, name)).Emit()
			ok = false
			return types.NoFieldId
		}
		return fi.Fid
	}
	ctor := func(tid types.TypeId, name string, params []types.TypeId) types.MethodId {
		ti, found := tmap.Get(tid)
		if !found {
			ok = false
			return types.NoMethodId
		}
		want := types.MakeSignature(name, params)
		for _, c := range ti.Ctors {
			if c.Sig == want {
				return c.Mid
			}
		}
		diag.ReportError(r, diag.InternalError, ti.NameSpan,
			fmt.Sprintf("standard library constructor %s is missing", ti.FQN)).Emit()
		ok = false
		return types.NoMethodId
	}

	tiArr := types.TypeId{Base: ids.TypeInfoTid.Base, Ndims: 1}
	ids.TypeInfoCtor = ctor(ids.TypeInfoTid, "TypeInfo", []types.TypeId{types.Int, tiArr})
	ids.TypeInfoInstanceOf = method(ids.TypeInfoTid, "InstanceOf", []types.TypeId{ids.TypeInfoTid, ids.TypeInfoTid})
	ids.TypeInfoNumTypes = field(ids.TypeInfoTid, "num_types")

	ids.StackFramePrint = method(ids.StackFrameTid, "Print", nil)
	ids.StackFramePrintException = method(ids.StackFrameTid, "PrintException", []types.TypeId{types.Int})

	ids.StringConcat = method(ids.StringTid, "concat", []types.TypeId{ids.StringTid})
	ids.StringValueOfObj = method(ids.StringTid, "valueOf", []types.TypeId{ids.ObjectTid})
	ids.StringValueOfInt = method(ids.StringTid, "valueOf", []types.TypeId{types.Int})
	ids.StringValueOfChar = method(ids.StringTid, "valueOf", []types.TypeId{types.Char})
	ids.StringValueOfBool = method(ids.StringTid, "valueOf", []types.TypeId{types.Bool})

	// Entry point: the first user type declaring static int test().
	testSig := types.MakeSignature("test", nil)
	for _, tid := range userTypes {
		ti, found := tmap.Get(tid)
		if !found {
			continue
		}
		if mi, has := ti.Methods.Get(testSig); has &&
			mi.IsStatic() && mi.RetTid == types.Int && mi.Owner == tid {
			ids.EntryTid = tid
			ids.EntryMid = mi.Mid
			break
		}
	}
	if !ids.EntryTid.IsValid() {
		diag.ReportError(r, diag.InternalError, source.Span{},
			"no entry point: expected a static int test() in a user class").Emit()
		ok = false
	}
	return ids, ok
}

// ValueOfFor picks the String.valueOf overload for an operand type.
func (ids *LinkIds) ValueOfFor(tid types.TypeId) types.MethodId {
	if tid.IsReference() || tid.Base == types.NullBase {
		return ids.StringValueOfObj
	}
	switch tid.Base {
	case types.CharBase:
		return ids.StringValueOfChar
	case types.BoolBase:
		return ids.StringValueOfBool
	default:
		return ids.StringValueOfInt
	}
}
