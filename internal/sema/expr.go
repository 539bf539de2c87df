package sema

import (
	"fmt"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/token"
	"joosc/internal/types"
)

// errorExpr poisons a subtree after a diagnostic.
func errorExpr(sp source.Span) ast.Expr {
	return &ast.NullLit{ExprBase: ast.ExprBase{Sp: sp, Tid: types.ErrorType}}
}

// checkExpr rewrites one expression bottom-up and returns the node (or a
// replacement) with its resolved type.
func (c *checker) checkExpr(e ast.Expr) (ast.Expr, types.TypeId) {
	switch e := e.(type) {
	case *ast.IntLit:
		e.SetTypeId(types.Int)
		return e, types.Int
	case *ast.BoolLit:
		e.SetTypeId(types.Bool)
		return e, types.Bool
	case *ast.CharLit:
		e.SetTypeId(types.Char)
		return e, types.Char
	case *ast.StringLit:
		e.SetTypeId(c.ids.StringTid)
		e.Sid = c.strings.Intern(e.Val)
		return e, c.ids.StringTid
	case *ast.NullLit:
		if !e.TypeId().IsValid() {
			e.SetTypeId(types.Null)
		}
		return e, e.TypeId()
	case *ast.ThisExpr:
		if c.inStatic {
			diag.ReportError(c.r, diag.ChkThisInStaticContext, e.Span(),
				"this cannot be used in a static context").Emit()
			return errorExpr(e.Span()), types.ErrorType
		}
		e.SetTypeId(c.curType.Tid)
		return e, c.curType.Tid
	case *ast.NameExpr:
		out := c.resolveName(e, false)
		return out, out.TypeId()
	case *ast.FieldAccess:
		base, _ := c.checkExpr(e.Base)
		e.Base = base
		out := c.checkFieldOn(base, e.Name, e.NameSpan, e.Span())
		return out, out.TypeId()
	case *ast.ArrayIndex:
		return c.checkArrayIndex(e)
	case *ast.CallExpr:
		return c.checkCall(e)
	case *ast.NewObject:
		return c.checkNewObject(e)
	case *ast.NewArray:
		return c.checkNewArray(e)
	case *ast.CastExpr:
		return c.checkCast(e)
	case *ast.InstanceOfExpr:
		return c.checkInstanceOf(e)
	case *ast.UnaryExpr:
		return c.checkUnary(e)
	case *ast.BinExpr:
		return c.checkBinary(e)
	case *ast.AssignExpr:
		return c.checkAssign(e)
	case *ast.VarExpr, *ast.StaticRef:
		return e, e.TypeId()
	default:
		return errorExpr(e.Span()), types.ErrorType
	}
}

// resolveName rewrites an ambiguous dotted name. With allowType, a name
// that resolves entirely to a type yields a StaticRef (legal only as a
// call or field base).
func (c *checker) resolveName(e *ast.NameExpr, allowType bool) ast.Expr {
	parts, spans := e.Parts, e.PartSpans
	var cur ast.Expr
	consumed := 0

	if v, ok := c.lookupVar(parts[0]); ok {
		if v.declaring {
			diag.ReportError(c.r, diag.ChkVarInitSelfReference, spans[0],
				fmt.Sprintf("%s cannot appear in its own initializer", v.name)).Emit()
			return errorExpr(e.Span())
		}
		if !v.assigned {
			diag.ReportError(c.r, diag.ChkNotDefinitelyAssigned, spans[0],
				fmt.Sprintf("%s may not have been assigned", v.name)).Emit()
			return errorExpr(e.Span())
		}
		cur = &ast.VarExpr{
			ExprBase: ast.ExprBase{Sp: spans[0], Tid: v.tid},
			Name:     v.name,
			Vid:      v.vid,
		}
		consumed = 1
	} else if fi, ok := c.curType.Fields.Get(parts[0]); ok {
		cur = c.implicitFieldAccess(fi, spans[0])
		if cur.TypeId().IsError() {
			return cur
		}
		consumed = 1
	} else {
		tid, n := c.scope.ResolvePrefix(parts)
		if n == 0 {
			diag.ReportError(c.r, diag.ChkUndefinedReference, e.Span(),
				fmt.Sprintf("undefined reference %s", parts[0])).Emit()
			return errorExpr(e.Span())
		}
		ref := &ast.StaticRef{
			ExprBase: ast.ExprBase{Sp: spans[0].Cover(spans[n-1]), Tid: tid},
			RefTid:   tid,
		}
		if n == len(parts) {
			if !allowType {
				diag.ReportError(c.r, diag.ChkUndefinedReference, e.Span(),
					fmt.Sprintf("%s names a type, not a value", e.Parts[len(parts)-1])).Emit()
				return errorExpr(e.Span())
			}
			return ref
		}
		cur = ref
		consumed = n
	}

	for i := consumed; i < len(parts); i++ {
		cur = c.checkFieldOn(cur, parts[i], spans[i], e.Span().Cover(spans[i]))
		if cur.TypeId().IsError() {
			return cur
		}
	}
	return cur
}

// implicitFieldAccess builds the access for an unqualified field name in
// the current type.
func (c *checker) implicitFieldAccess(fi *types.FieldInfo, sp source.Span) ast.Expr {
	if !fi.IsStatic() && c.inStatic {
		diag.ReportError(c.r, diag.ChkInstanceAccess, sp,
			fmt.Sprintf("instance field %s referenced from a static context", fi.Name)).Emit()
		return errorExpr(sp)
	}
	fa := &ast.FieldAccess{
		ExprBase: ast.ExprBase{Sp: sp, Tid: fi.Tid},
		Name:     fi.Name,
		NameSpan: sp,
		Fid:      fi.Fid,
	}
	if fi.IsStatic() {
		fa.Base = &ast.StaticRef{
			ExprBase: ast.ExprBase{Sp: sp, Tid: types.TypeId{Base: fi.Owner.Base}},
			RefTid:   types.TypeId{Base: fi.Owner.Base},
		}
	} else {
		fa.Base = &ast.ThisExpr{ExprBase: ast.ExprBase{Sp: sp, Tid: c.curType.Tid}}
	}
	return fa
}

// checkFieldOn resolves one field selection against an already-checked
// base expression.
func (c *checker) checkFieldOn(base ast.Expr, name string, nameSp, whole source.Span) ast.Expr {
	if ref, ok := base.(*ast.StaticRef); ok {
		ti, found := c.tmap.Get(ref.RefTid)
		if !found {
			return errorExpr(whole)
		}
		fi, has := ti.Fields.Get(name)
		if !has || !fi.IsStatic() {
			diag.ReportError(c.r, diag.ChkUndefinedReference, nameSp,
				fmt.Sprintf("%s has no static field %s", ti.FQN, name)).Emit()
			return errorExpr(whole)
		}
		c.checkProtected(fi.Mods, fi.Owner, nameSp, "field "+name)
		return &ast.FieldAccess{
			ExprBase: ast.ExprBase{Sp: whole, Tid: fi.Tid},
			Base:     ref,
			Name:     name,
			NameSpan: nameSp,
			Fid:      fi.Fid,
		}
	}

	bt := base.TypeId()
	if bt.IsError() {
		return errorExpr(whole)
	}
	if bt.IsArray() {
		if name == "length" {
			return &ast.FieldAccess{
				ExprBase: ast.ExprBase{Sp: whole, Tid: types.Int},
				Base:     base,
				Name:     name,
				NameSpan: nameSp,
				IsLength: true,
			}
		}
		diag.ReportError(c.r, diag.ChkUndefinedReference, nameSp,
			fmt.Sprintf("arrays have no field %s", name)).Emit()
		return errorExpr(whole)
	}
	if !bt.IsUserType() {
		diag.ReportError(c.r, diag.ChkTypeMismatch, base.Span(),
			fmt.Sprintf("%s has no fields", bt)).Emit()
		return errorExpr(whole)
	}
	ti := c.tmap.MustGet(bt)
	fi, has := ti.Fields.Get(name)
	if !has {
		diag.ReportError(c.r, diag.ChkUndefinedReference, nameSp,
			fmt.Sprintf("%s has no field %s", ti.FQN, name)).Emit()
		return errorExpr(whole)
	}
	if fi.IsStatic() {
		diag.ReportError(c.r, diag.ChkStaticAccess, nameSp,
			fmt.Sprintf("static field %s accessed through an instance", name)).Emit()
		return errorExpr(whole)
	}
	c.checkProtected(fi.Mods, fi.Owner, nameSp, "field "+name)
	return &ast.FieldAccess{
		ExprBase: ast.ExprBase{Sp: whole, Tid: fi.Tid},
		Base:     base,
		Name:     name,
		NameSpan: nameSp,
		Fid:      fi.Fid,
	}
}

// checkProtected enforces the Joos protected rule: same package, or the
// current type is a subtype of the member's owner.
func (c *checker) checkProtected(mods types.Modifiers, owner types.TypeId, sp source.Span, what string) {
	if !mods.Has(types.ModProtected) {
		return
	}
	oti, ok := c.tmap.Get(owner)
	if !ok {
		return
	}
	if oti.Package == c.curType.Package {
		return
	}
	if c.tmap.IsAncestor(owner, c.curType.Tid) {
		return
	}
	diag.ReportError(c.r, diag.ChkProtectedAccess, sp,
		fmt.Sprintf("protected %s is not accessible from %s", what, c.curType.FQN)).Emit()
}

func (c *checker) checkArrayIndex(e *ast.ArrayIndex) (ast.Expr, types.TypeId) {
	arr, at := c.checkExpr(e.Arr)
	idx, it := c.checkExpr(e.Idx)
	e.Arr, e.Idx = arr, idx

	if at.IsError() || it.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if !at.IsArray() {
		diag.ReportError(c.r, diag.ChkIndexNonArray, arr.Span(),
			fmt.Sprintf("cannot index a value of type %s", at)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if !it.IsNumeric() {
		c.mismatch(idx.Span(), types.Int, it)
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	e.Idx = c.coerce(e.Idx, types.Int)
	elem := at.Elem()
	e.SetTypeId(elem)
	return e, elem
}

func (c *checker) checkCall(e *ast.CallExpr) (ast.Expr, types.TypeId) {
	argTids := make([]types.TypeId, len(e.Args))
	for i := range e.Args {
		arg, at := c.checkExpr(e.Args[i])
		e.Args[i] = arg
		argTids[i] = at
	}

	var recvTid types.TypeId
	static := false
	if e.Base == nil {
		recvTid = c.curType.Tid
	} else {
		if ne, ok := e.Base.(*ast.NameExpr); ok {
			e.Base = c.resolveName(ne, true)
		} else {
			e.Base, _ = c.checkExpr(e.Base)
		}
		if ref, ok := e.Base.(*ast.StaticRef); ok {
			recvTid = ref.RefTid
			static = true
		} else {
			recvTid = e.Base.TypeId()
		}
	}
	if recvTid.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if recvTid.IsArray() {
		// Array receivers dispatch through java.lang.Object.
		recvTid = c.ids.ObjectTid
	}
	if !recvTid.IsUserType() {
		diag.ReportError(c.r, diag.ChkTypeMismatch, e.Span(),
			fmt.Sprintf("%s has no methods", recvTid)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}

	ti := c.tmap.MustGet(recvTid)
	mi := c.pickMethod(ti, e.Name, argTids, e.NameSpan)
	if mi == nil {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	c.checkProtected(mi.Mods, mi.Owner, e.NameSpan, "method "+e.Name)

	switch {
	case static && !mi.IsStatic():
		diag.ReportError(c.r, diag.ChkInstanceAccess, e.NameSpan,
			fmt.Sprintf("instance method %s called without a receiver", e.Name)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	case !static && e.Base != nil && mi.IsStatic():
		diag.ReportError(c.r, diag.ChkStaticAccess, e.NameSpan,
			fmt.Sprintf("static method %s called through an instance", e.Name)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	case e.Base == nil && !mi.IsStatic() && c.inStatic:
		diag.ReportError(c.r, diag.ChkThisInStaticContext, e.NameSpan,
			fmt.Sprintf("instance method %s called from a static context", e.Name)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}

	if e.Base == nil && !mi.IsStatic() {
		e.Base = &ast.ThisExpr{ExprBase: ast.ExprBase{Sp: e.NameSpan, Tid: c.curType.Tid}}
	}
	if e.Base == nil && mi.IsStatic() {
		e.Base = &ast.StaticRef{
			ExprBase: ast.ExprBase{Sp: e.NameSpan, Tid: types.TypeId{Base: mi.Owner.Base}},
			RefTid:   types.TypeId{Base: mi.Owner.Base},
		}
	}

	for i := range e.Args {
		e.Args[i] = c.coerce(e.Args[i], mi.Params[i])
	}
	e.Mid = mi.Mid
	e.OwnerTid = mi.Owner
	e.IsStatic = mi.IsStatic()
	e.SetTypeId(mi.RetTid)
	return e, mi.RetTid
}

// pickMethod resolves an invocation: an exact signature match wins;
// otherwise there must be exactly one applicable method.
func (c *checker) pickMethod(ti *types.TypeInfo, name string, argTids []types.TypeId, sp source.Span) *types.MethodInfo {
	for _, at := range argTids {
		if at.IsError() {
			return nil
		}
	}
	table := ti.Methods
	if mi, ok := table.Get(types.MakeSignature(name, argTids)); ok {
		return mi
	}
	candidates := table.ByName(name)
	if ti.Kind == types.InterfaceKind {
		// Interface receivers also expose java.lang.Object's methods.
		if oti, ok := c.tmap.Get(c.ids.ObjectTid); ok {
			if mi, has := oti.Methods.Get(types.MakeSignature(name, argTids)); has {
				return mi
			}
			candidates = append(candidates, oti.Methods.ByName(name)...)
		}
	}

	var applicable []*types.MethodInfo
	for _, mi := range candidates {
		if len(mi.Params) != len(argTids) {
			continue
		}
		fits := true
		for i, pt := range mi.Params {
			if !c.assignable(pt, argTids[i], nil) {
				fits = false
				break
			}
		}
		if fits {
			applicable = append(applicable, mi)
		}
	}
	switch len(applicable) {
	case 0:
		diag.ReportError(c.r, diag.ChkNoMatchingMethod, sp,
			fmt.Sprintf("no method %s in %s matches the argument types", name, ti.FQN)).Emit()
		return nil
	case 1:
		return applicable[0]
	default:
		diag.ReportError(c.r, diag.ChkAmbiguousMethod, sp,
			fmt.Sprintf("call to %s in %s is ambiguous", name, ti.FQN)).Emit()
		return nil
	}
}

func (c *checker) checkNewObject(e *ast.NewObject) (ast.Expr, types.TypeId) {
	tid := e.Type.Tid
	if !tid.IsValid() {
		// Resolve now; the declaration resolver only visits member types.
		if len(e.Type.Parts) > 0 {
			tid = c.scope.Resolve(e.Type.Parts, e.Type.Sp, c.r)
		} else {
			tid = types.ErrorType
		}
		e.Type.Tid = tid
	}
	if tid.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	ti, ok := c.tmap.Get(tid)
	if !ok || tid.IsArray() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if ti.IsAbstract() {
		diag.ReportError(c.r, diag.ChkAbstractNew, e.Span(),
			fmt.Sprintf("cannot instantiate abstract %s %s", ti.Kind, ti.FQN)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}

	argTids := make([]types.TypeId, len(e.Args))
	for i := range e.Args {
		arg, at := c.checkExpr(e.Args[i])
		e.Args[i] = arg
		argTids[i] = at
	}

	ctor := c.pickCtor(ti, argTids, e.Span())
	if ctor == nil {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	for i := range e.Args {
		e.Args[i] = c.coerce(e.Args[i], ctor.Params[i])
	}
	e.CtorMid = ctor.Mid
	e.SetTypeId(tid)
	return e, tid
}

func (c *checker) pickCtor(ti *types.TypeInfo, argTids []types.TypeId, sp source.Span) *types.MethodInfo {
	for _, at := range argTids {
		if at.IsError() {
			return nil
		}
	}
	var applicable []*types.MethodInfo
	for _, ctor := range ti.Ctors {
		if len(ctor.Params) != len(argTids) {
			continue
		}
		exact := true
		fits := true
		for i, pt := range ctor.Params {
			if pt != argTids[i] {
				exact = false
			}
			if !c.assignable(pt, argTids[i], nil) {
				fits = false
				break
			}
		}
		if exact && fits {
			return ctor
		}
		if fits {
			applicable = append(applicable, ctor)
		}
	}
	switch len(applicable) {
	case 0:
		diag.ReportError(c.r, diag.ChkNoMatchingConstructor, sp,
			fmt.Sprintf("no constructor of %s matches the argument types", ti.FQN)).Emit()
		return nil
	case 1:
		return applicable[0]
	default:
		diag.ReportError(c.r, diag.ChkAmbiguousMethod, sp,
			fmt.Sprintf("constructor call for %s is ambiguous", ti.FQN)).Emit()
		return nil
	}
}

func (c *checker) checkNewArray(e *ast.NewArray) (ast.Expr, types.TypeId) {
	elem := e.Elem.Tid
	if !elem.IsValid() {
		if e.Elem.Prim != 0 || len(e.Elem.Parts) > 0 {
			ref := e.Elem
			resolveRefInScope(c, &ref)
			e.Elem = ref
			elem = ref.Tid
		} else {
			elem = types.ErrorType
		}
	}
	length, lt := c.checkExpr(e.Len)
	e.Len = length
	if !lt.IsError() && !lt.IsNumeric() {
		c.mismatch(length.Span(), types.Int, lt)
	} else {
		e.Len = c.coerce(e.Len, types.Int)
	}
	if elem.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	tid := elem.ArrayOf()
	e.SetTypeId(tid)
	return e, tid
}

func (c *checker) checkCast(e *ast.CastExpr) (ast.Expr, types.TypeId) {
	inner, it := c.checkExpr(e.E)
	e.E = inner

	target := e.Target.Tid
	if !target.IsValid() {
		ref := e.Target
		resolveRefInScope(c, &ref)
		e.Target = ref
		target = ref.Tid
	}
	if target.IsError() || it.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if !c.castable(target, it) {
		diag.ReportError(c.r, diag.ChkIllegalCast, e.Span(),
			fmt.Sprintf("cannot cast %s to %s", it, target)).Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	e.SetTypeId(target)
	return c.foldCast(e), target
}

func (c *checker) checkInstanceOf(e *ast.InstanceOfExpr) (ast.Expr, types.TypeId) {
	inner, it := c.checkExpr(e.E)
	e.E = inner

	target := e.Target.Tid
	if !target.IsValid() {
		ref := e.Target
		resolveRefInScope(c, &ref)
		e.Target = ref
		target = ref.Tid
	}
	if target.IsError() || it.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if !target.IsReference() {
		diag.ReportError(c.r, diag.ChkTypeMismatch, e.Target.Span(),
			"instanceof requires a reference type").Emit()
	}
	if !it.IsReference() && it.Base != types.NullBase {
		diag.ReportError(c.r, diag.ChkTypeMismatch, inner.Span(),
			"instanceof requires a reference operand").Emit()
	}
	e.SetTypeId(types.Bool)
	return e, types.Bool
}

// resolveRefInScope resolves a type reference that the declaration
// resolver never visited (casts, instanceof, new inside bodies).
func resolveRefInScope(c *checker, ref *ast.TypeRef) {
	var base types.TypeId
	switch {
	case ref.Prim != 0:
		base = primBaseTid(ref.Prim)
	case len(ref.Parts) > 0:
		base = c.scope.Resolve(ref.Parts, ref.Sp, c.r)
	default:
		base = types.ErrorType
	}
	if base.IsError() {
		ref.Tid = types.ErrorType
		return
	}
	base.Ndims += uint32(ref.Dims)
	ref.Tid = base
}

func primBaseTid(k token.Kind) types.TypeId {
	switch k {
	case token.KwBoolean:
		return types.Bool
	case token.KwByte:
		return types.Byte
	case token.KwChar:
		return types.Char
	case token.KwShort:
		return types.Short
	case token.KwInt:
		return types.Int
	case token.KwVoid:
		return types.Void
	}
	return types.ErrorType
}

func (c *checker) checkUnary(e *ast.UnaryExpr) (ast.Expr, types.TypeId) {
	inner, it := c.checkExpr(e.E)
	e.E = inner
	if it.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	switch e.Op {
	case token.Minus:
		if !it.IsNumeric() {
			c.mismatch(inner.Span(), types.Int, it)
			e.SetTypeId(types.ErrorType)
			return e, types.ErrorType
		}
		e.E = c.coerce(e.E, types.Int)
		e.SetTypeId(types.Int)
		return c.foldUnary(e), types.Int
	case token.Bang:
		if it != types.Bool {
			c.mismatch(inner.Span(), types.Bool, it)
			e.SetTypeId(types.ErrorType)
			return e, types.ErrorType
		}
		e.SetTypeId(types.Bool)
		return c.foldUnary(e), types.Bool
	}
	e.SetTypeId(types.ErrorType)
	return e, types.ErrorType
}

func (c *checker) checkAssign(e *ast.AssignExpr) (ast.Expr, types.TypeId) {
	// An assignment to a plain local is a write, not a read: resolve the
	// target directly so definite assignment is not demanded of it.
	var target *localVar
	if ne, ok := e.L.(*ast.NameExpr); ok && len(ne.Parts) == 1 {
		if v, hit := c.lookupVar(ne.Parts[0]); hit && !v.declaring {
			target = v
			e.L = &ast.VarExpr{
				ExprBase: ast.ExprBase{Sp: ne.PartSpans[0], Tid: v.tid},
				Name:     v.name,
				Vid:      v.vid,
			}
		}
	}

	lhs, lt := c.checkExpr(e.L)
	e.L = lhs
	rhs, rt := c.checkExpr(e.R)
	e.R = rhs
	if target != nil {
		target.assigned = true
	}

	if lt.IsError() || rt.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if fa, ok := lhs.(*ast.FieldAccess); ok && fa.IsLength {
		diag.ReportError(c.r, diag.ChkAssignToFinal, lhs.Span(),
			"array length cannot be assigned").Emit()
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	if !c.assignable(lt, rt, rhs) {
		c.mismatch(rhs.Span(), lt, rt)
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}
	e.R = c.coerce(e.R, lt)
	e.SetTypeId(lt)
	return e, lt
}
