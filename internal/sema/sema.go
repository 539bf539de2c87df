// Package sema is the type checker. It rewrites method bodies bottom-up,
// decorating every expression with a resolved TypeId, resolving names into
// variable, field, and static references, folding constants, and running
// the reachability and definite-assignment analyses.
package sema

import (
	"fmt"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/linkids"
	"joosc/internal/names"
	"joosc/internal/source"
	"joosc/internal/symbols"
	"joosc/internal/types"
)

// Result is the checked world handed to the IR generator.
type Result struct {
	Strings *ConstStrings
}

// Check runs the type checker over every declared type.
func Check(syms *symbols.Result, tmap *types.TypeInfoMap, ids *linkids.LinkIds, r diag.Reporter) *Result {
	res := &Result{Strings: NewConstStrings()}
	for _, ti := range tmap.Topo() {
		d, ok := syms.Decls[ti.Tid.Base]
		if !ok {
			continue
		}
		c := &checker{
			syms:    syms,
			tmap:    tmap,
			ids:     ids,
			r:       r,
			strings: res.Strings,
			curType: ti,
			scope:   syms.Scopes[ti.FileID],
		}
		c.checkType(d, ti)
	}
	return res
}

type localVar struct {
	vid  types.LocalVarId
	tid  types.TypeId
	name string
	// declaring marks a variable whose initializer is being checked; a use
	// at that point is a self-reference.
	declaring bool
	// assigned tracks definite assignment along the current path.
	assigned bool
}

type checker struct {
	syms    *symbols.Result
	tmap    *types.TypeInfoMap
	ids     *linkids.LinkIds
	r       diag.Reporter
	strings *ConstStrings
	curType *types.TypeInfo
	scope   *names.Scope

	inStatic bool
	curRet   types.TypeId

	scopes []map[string]*localVar
}

func (c *checker) pushScope() {
	c.scopes = append(c.scopes, make(map[string]*localVar))
}

func (c *checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *checker) declare(name string, vid types.LocalVarId, tid types.TypeId, sp source.Span) *localVar {
	for _, s := range c.scopes {
		if prev, ok := s[name]; ok {
			diag.ReportError(c.r, diag.ChkDuplicateVarDecl, sp,
				fmt.Sprintf("variable %s already declared in an enclosing scope", name)).Emit()
			_ = prev
			break
		}
	}
	// Parameters start assigned; LocalDecl overrides this per its
	// initializer.
	v := &localVar{vid: vid, tid: tid, name: name, assigned: true}
	c.scopes[len(c.scopes)-1][name] = v
	return v
}

func (c *checker) lookupVar(name string) (*localVar, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// snapshotAssigned captures the definite-assignment state of every visible
// variable, so branches can be analyzed independently and merged.
func (c *checker) snapshotAssigned() map[*localVar]bool {
	snap := make(map[*localVar]bool)
	for _, s := range c.scopes {
		for _, v := range s {
			snap[v] = v.assigned
		}
	}
	return snap
}

// restoreAssigned rewinds the assignment state to a snapshot. Variables
// declared after the snapshot are left untouched; their scopes end on
// their own.
func (c *checker) restoreAssigned(snap map[*localVar]bool) {
	for v, a := range snap {
		v.assigned = a
	}
}

// mergeBranches joins the states after the two arms of a conditional: a
// variable is definitely assigned afterwards when every arm that can
// complete normally assigned it. A non-completing arm constrains nothing.
func (c *checker) mergeBranches(pre, thenState, elseState map[*localVar]bool, thenCompletes, elseCompletes bool) {
	for v := range pre {
		afterThen := !thenCompletes || thenState[v]
		afterElse := !elseCompletes || elseState[v]
		v.assigned = afterThen && afterElse
	}
}

func (c *checker) checkType(d *ast.TypeDecl, ti *types.TypeInfo) {
	// The superclass of every instantiable class needs a no-arg
	// constructor for the implicit super() call.
	if ti.Kind == types.ClassKind && len(ti.Extends) > 0 {
		if sup, ok := c.tmap.Get(ti.Extends[0]); ok {
			if !hasNoArgCtor(sup) {
				diag.ReportError(c.r, diag.ChkNoMatchingConstructor, ti.NameSpan,
					fmt.Sprintf("superclass %s has no zero-argument constructor", sup.FQN)).Emit()
			}
		}
	}

	for _, fd := range d.Fields {
		c.checkFieldInit(fd)
	}
	for _, md := range d.Methods {
		c.checkMethod(md)
	}
}

func (c *checker) checkFieldInit(fd *ast.FieldDecl) {
	if fd.Init == nil {
		return
	}
	c.inStatic = fd.Mods.Has(types.ModStatic)
	c.curRet = types.Unassigned
	c.scopes = nil
	c.pushScope()

	// The field being initialized may not appear in its own initializer.
	self := &localVar{name: fd.Name, declaring: true, tid: fd.Type.Tid}
	c.scopes[0][fd.Name] = self

	init, tid := c.checkExpr(fd.Init)
	fd.Init = init
	if !c.assignable(fd.Type.Tid, tid, init) {
		c.mismatch(init.Span(), fd.Type.Tid, tid)
	}
	fd.Init = c.coerce(fd.Init, fd.Type.Tid)
	c.popScope()
}

func (c *checker) checkMethod(md *ast.MethodDecl) {
	if md.Body == nil {
		return
	}
	c.inStatic = md.Mods.Has(types.ModStatic)
	c.curRet = types.Void
	if md.RetType != nil {
		c.curRet = md.RetType.Tid
	}
	c.scopes = nil
	c.pushScope()
	for _, p := range md.Params {
		p.Vid = c.syms.Alloc.Var()
		c.declare(p.Name, p.Vid, p.Type.Tid, p.NameSpan)
	}

	completes := c.checkBlock(md.Body)
	c.popScope()

	if completes && !md.IsConstructor() && c.curRet != types.Void && !c.curRet.IsError() {
		diag.ReportError(c.r, diag.ChkMissingReturn, md.NameSpan,
			fmt.Sprintf("method %s must return a value on every path", md.Name)).Emit()
	}
}

func hasNoArgCtor(ti *types.TypeInfo) bool {
	for _, ctor := range ti.Ctors {
		if len(ctor.Params) == 0 {
			return true
		}
	}
	return false
}

func (c *checker) mismatch(sp source.Span, want, got types.TypeId) {
	if want.IsError() || got.IsError() {
		return // already diagnosed
	}
	diag.ReportError(c.r, diag.ChkTypeMismatch, sp,
		fmt.Sprintf("cannot use %s where %s is required", got, want)).Emit()
}
