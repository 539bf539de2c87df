package ir

import (
	"fmt"

	"joosc/internal/ast"
	"joosc/internal/token"
	"joosc/internal/types"
)

// lowerExpr evaluates e into a fresh temp the caller releases. Every
// subexpression temp is released here, so the returned slot is always the
// top of the allocation stack.
func (m *methodGen) lowerExpr(e ast.Expr) Mem {
	switch e := e.(type) {
	case *ast.IntLit:
		dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
		m.b.ConstInt32(dst, e.Val)
		return dst

	case *ast.BoolLit:
		dst := m.b.AllocTemp(SizeBool)
		m.b.ConstBool(dst, e.Val)
		return dst

	case *ast.CharLit:
		dst := m.b.AllocTemp(SizeChar)
		m.b.ConstInt32(dst, int32(uint16(e.Val)))
		return dst

	case *ast.StringLit:
		dst := m.b.AllocTemp(SizePtr)
		m.b.ConstStr(dst, e.Sid)
		return dst

	case *ast.NullLit:
		dst := m.b.AllocTemp(SizePtr)
		m.b.ConstNull(dst)
		return dst

	case *ast.ThisExpr:
		dst := m.b.AllocTemp(SizePtr)
		m.b.Mov(dst, m.this)
		return dst

	case *ast.VarExpr:
		local, ok := m.vars[e.Vid]
		if !ok {
			panic(fmt.Sprintf("ir: unallocated variable %d", e.Vid))
		}
		dst := m.b.AllocTemp(local.Size)
		m.b.Mov(dst, local)
		return dst

	case *ast.FieldAccess:
		return m.lowerFieldAccess(e)

	case *ast.ArrayIndex:
		dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
		arr := m.lowerExpr(e.Arr)
		idx := m.lowerExpr(e.Idx)
		m.b.ArrayDeref(dst, arr, idx, SizeClassOf(e.TypeId()), m.site(e.Span()))
		m.b.DeallocMem(idx)
		m.b.DeallocMem(arr)
		return dst

	case *ast.CallExpr:
		return m.lowerCall(e)

	case *ast.NewObject:
		return m.lowerNewObject(e)

	case *ast.NewArray:
		dst := m.b.AllocTemp(SizePtr)
		n := m.lowerExpr(e.Len)
		m.b.AllocArray(dst, e.Elem.Tid, n, m.site(e.Span()))
		m.b.DeallocMem(n)
		return dst

	case *ast.CastExpr:
		return m.lowerCast(e)

	case *ast.InstanceOfExpr:
		dst := m.b.AllocTemp(SizeBool)
		v := m.lowerExpr(e.E)
		m.b.InstanceOf(dst, v, e.Target.Tid)
		m.b.DeallocMem(v)
		return dst

	case *ast.UnaryExpr:
		dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
		v := m.lowerExpr(e.E)
		if e.Op == token.Minus {
			m.b.Neg(dst, v)
		} else {
			m.b.Not(dst, v)
		}
		m.b.DeallocMem(v)
		return dst

	case *ast.BinExpr:
		return m.lowerBinary(e)

	case *ast.AssignExpr:
		return m.lowerAssign(e)

	default:
		panic(fmt.Sprintf("ir: cannot lower %T", e))
	}
}

func (m *methodGen) lowerFieldAccess(e *ast.FieldAccess) Mem {
	dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
	site := m.site(e.Span())

	if e.IsLength {
		arr := m.lowerExpr(e.Base)
		m.b.FieldDeref(dst, arr, types.ArrayLengthFid, site)
		m.b.DeallocMem(arr)
		return dst
	}
	if _, static := e.Base.(*ast.StaticRef); static {
		m.b.FieldDeref(dst, Mem{}, e.Fid, site)
		return dst
	}
	base := m.lowerExpr(e.Base)
	m.b.FieldDeref(dst, base, e.Fid, site)
	m.b.DeallocMem(base)
	return dst
}

func (m *methodGen) lowerCall(e *ast.CallExpr) Mem {
	retSize := SizeClassOf(e.TypeId())
	if e.TypeId() == types.Void {
		retSize = SizeInt // dummy destination
	}
	dst := m.b.AllocTemp(retSize)
	site := m.site(e.Span())

	if e.IsStatic {
		args := make([]Mem, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, m.lowerExpr(a))
		}
		m.b.StaticCall(dst, e.OwnerTid.Base, e.Mid, args, site)
		for i := len(args) - 1; i >= 0; i-- {
			m.b.DeallocMem(args[i])
		}
		return dst
	}

	recv := m.lowerExpr(e.Base)
	args := make([]Mem, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, m.lowerExpr(a))
	}
	m.b.DynamicCall(dst, recv, e.Mid, args, site)
	for i := len(args) - 1; i >= 0; i-- {
		m.b.DeallocMem(args[i])
	}
	m.b.DeallocMem(recv)
	return dst
}

// lowerNewObject allocates, runs the instance initializer, then the
// selected constructor.
func (m *methodGen) lowerNewObject(e *ast.NewObject) Mem {
	site := m.site(e.Span())
	base := e.TypeId().Base

	dst := m.b.AllocTemp(SizePtr)
	m.b.AllocHeap(dst, base)

	dummy := m.b.AllocDummy()
	m.b.StaticCall(dummy, base, types.MethodIdInstanceInit, []Mem{dst}, site)

	args := make([]Mem, 0, len(e.Args)+1)
	args = append(args, dst)
	for _, a := range e.Args {
		args = append(args, m.lowerExpr(a))
	}
	m.b.StaticCall(dummy, base, e.CtorMid, args, site)
	for i := len(args) - 1; i >= 1; i-- {
		m.b.DeallocMem(args[i])
	}
	m.b.DeallocMem(dummy)
	return dst
}

// lowerCast emits width changes for primitive casts and an instanceof
// guard for narrowing reference casts.
func (m *methodGen) lowerCast(e *ast.CastExpr) Mem {
	target := e.Target.Tid
	dst := m.b.AllocTemp(SizeClassOf(target))
	v := m.lowerExpr(e.E)
	srcTid := e.E.TypeId()

	switch {
	case target.IsNumeric() && srcTid.IsNumeric():
		srcW := SizeClassOf(srcTid).ByteWidth()
		dstW := SizeClassOf(target).ByteWidth()
		switch {
		case srcW < dstW:
			m.b.Extend(dst, v)
		case srcW > dstW || SizeClassOf(srcTid) != SizeClassOf(target):
			m.b.Truncate(dst, v)
		default:
			m.b.Mov(dst, v)
		}
		m.b.DeallocMem(v)
		return dst

	case target.IsReference() && m.needsCastCheck(srcTid, target):
		cond := m.b.AllocTemp(SizeBool)
		m.b.InstanceOf(cond, v, target)
		// null always passes a reference cast.
		nullm := m.b.AllocTemp(SizePtr)
		m.b.ConstNull(nullm)
		isNull := m.b.AllocTemp(SizeBool)
		m.b.Eq(isNull, v, nullm)
		m.b.Or(cond, cond, isNull)
		m.b.CastExceptionIfFalse(cond, m.site(e.Span()))
		m.b.DeallocMem(isNull)
		m.b.DeallocMem(nullm)
		m.b.DeallocMem(cond)
		m.b.Mov(dst, v)
		m.b.DeallocMem(v)
		return dst

	default:
		m.b.Mov(dst, v)
		m.b.DeallocMem(v)
		return dst
	}
}

// needsCastCheck reports whether the cast can fail at runtime: widening
// conversions never do.
func (m *methodGen) needsCastCheck(src, dst types.TypeId) bool {
	if src.Base == types.NullBase || src == dst {
		return false
	}
	if dst == m.g.ids.ObjectTid {
		return false
	}
	if src.Ndims > 0 && dst.Ndims > 0 && src.Elem() == dst.Elem() {
		return false
	}
	if src.IsUserType() && dst.IsUserType() && m.g.tmap.IsAncestor(dst, src) {
		return false
	}
	return true
}

func (m *methodGen) lowerBinary(e *ast.BinExpr) Mem {
	// String concatenation lowers through String.valueOf and concat.
	if e.TypeId() == m.g.ids.StringTid && e.Op == token.Plus {
		return m.lowerConcat(e)
	}

	switch e.Op {
	case token.AmpAmp, token.PipePipe:
		return m.lowerShortCircuit(e)
	}

	dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
	l := m.lowerExpr(e.L)
	r := m.lowerExpr(e.R)
	site := m.site(e.Span())

	switch e.Op {
	case token.Plus:
		m.b.Add(dst, l, r)
	case token.Minus:
		m.b.Sub(dst, l, r)
	case token.Star:
		m.b.Mul(dst, l, r)
	case token.Slash:
		m.b.Div(dst, l, r, site)
	case token.Percent:
		m.b.Mod(dst, l, r, site)
	case token.Lt:
		m.b.Lt(dst, l, r)
	case token.Gt:
		m.b.Lt(dst, r, l)
	case token.LtEq:
		m.b.Leq(dst, l, r)
	case token.GtEq:
		m.b.Leq(dst, r, l)
	case token.EqEq:
		m.b.Eq(dst, l, r)
	case token.BangEq:
		m.b.Eq(dst, l, r)
		m.b.Not(dst, dst)
	case token.Amp:
		m.b.And(dst, l, r)
	case token.Pipe:
		m.b.Or(dst, l, r)
	case token.Caret:
		m.b.Xor(dst, l, r)
	default:
		panic(fmt.Sprintf("ir: cannot lower operator %s", e.Op))
	}
	m.b.DeallocMem(r)
	m.b.DeallocMem(l)
	return dst
}

// lowerShortCircuit evaluates && and || with a forward label; the right
// operand's allocations stay balanced inside the skipped region.
func (m *methodGen) lowerShortCircuit(e *ast.BinExpr) Mem {
	dst := m.b.AllocTemp(SizeBool)
	skip := m.b.AllocTemp(SizeBool)
	lEnd := m.b.AllocLabel()

	m.lowerExprTo(dst, e.L)
	if e.Op == token.AmpAmp {
		m.b.Not(skip, dst)
	} else {
		m.b.Mov(skip, dst)
	}
	m.b.JmpIf(lEnd, skip)
	m.lowerExprTo(dst, e.R)
	m.b.EmitLabel(lEnd)

	m.b.DeallocMem(skip)
	return dst
}

func (m *methodGen) lowerConcat(e *ast.BinExpr) Mem {
	site := m.site(e.Span())
	strBase := m.g.ids.StringTid.Base

	dst := m.b.AllocTemp(SizePtr)

	l := m.lowerExpr(e.L)
	ls := m.b.AllocTemp(SizePtr)
	m.b.StaticCall(ls, strBase, m.g.ids.ValueOfFor(e.L.TypeId()), []Mem{l}, site)

	r := m.lowerExpr(e.R)
	rs := m.b.AllocTemp(SizePtr)
	m.b.StaticCall(rs, strBase, m.g.ids.ValueOfFor(e.R.TypeId()), []Mem{r}, site)

	m.b.DynamicCall(dst, ls, m.g.ids.StringConcat, []Mem{rs}, site)

	m.b.DeallocMem(rs)
	m.b.DeallocMem(r)
	m.b.DeallocMem(ls)
	m.b.DeallocMem(l)
	return dst
}

// lowerAssign evaluates the left side in lvalue mode, then the right side,
// then stores. Array stores defer the null and bounds checks to the store
// so the evaluation order matches the language.
func (m *methodGen) lowerAssign(e *ast.AssignExpr) Mem {
	site := m.site(e.Span())

	if ai, ok := e.L.(*ast.ArrayIndex); ok {
		dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
		arr := m.lowerExpr(ai.Arr)
		idx := m.lowerExpr(ai.Idx)
		val := m.lowerExpr(e.R)
		addr := m.b.AllocTemp(SizePtr)
		m.b.ArrayAddr(addr, arr, idx, SizeClassOf(e.TypeId()), site)
		if elem := ai.Arr.TypeId().Elem(); elem.IsReference() {
			m.b.CheckArrayStore(arr, val, site)
		}
		m.b.MovToAddr(addr, val, site)
		m.b.Mov(dst, val)
		m.b.DeallocMem(addr)
		m.b.DeallocMem(val)
		m.b.DeallocMem(idx)
		m.b.DeallocMem(arr)
		return dst
	}

	dst := m.b.AllocTemp(SizeClassOf(e.TypeId()))
	addr := m.lowerLValue(e.L)
	val := m.lowerExpr(e.R)
	m.b.MovToAddr(addr, val, site)
	m.b.Mov(dst, val)
	m.b.DeallocMem(val)
	m.b.DeallocMem(addr)
	return dst
}

// lowerLValue produces a pointer to the storage of a variable or field.
func (m *methodGen) lowerLValue(e ast.Expr) Mem {
	switch e := e.(type) {
	case *ast.VarExpr:
		addr := m.b.AllocTemp(SizePtr)
		m.b.MovAddr(addr, m.vars[e.Vid])
		return addr
	case *ast.FieldAccess:
		addr := m.b.AllocTemp(SizePtr)
		site := m.site(e.Span())
		if _, static := e.Base.(*ast.StaticRef); static {
			m.b.FieldAddr(addr, Mem{}, e.Fid, site)
			return addr
		}
		base := m.lowerExpr(e.Base)
		m.b.FieldAddr(addr, base, e.Fid, site)
		m.b.DeallocMem(base)
		return addr
	default:
		panic(fmt.Sprintf("ir: not an lvalue: %T", e))
	}
}
