package sema

import (
	"joosc/internal/ast"
	"joosc/internal/types"
)

// assignable implements the Joos T ← U rule: identity, numeric widening,
// reference widening, or null into a reference. The expression is passed
// so that it can be consulted for error poisoning.
func (c *checker) assignable(dst, src types.TypeId, e ast.Expr) bool {
	_ = e
	if dst.IsError() || src.IsError() {
		return true
	}
	if dst == src {
		return true
	}
	if src.Base == types.NullBase && src.Ndims == 0 {
		return dst.IsReference()
	}
	if dst.IsNumeric() && src.IsNumeric() {
		return numericWidens(src, dst)
	}
	return c.refWidens(src, dst)
}

// numericWidens reports whether src widens into dst without a cast:
// byte → short → int, and char → int.
func numericWidens(src, dst types.TypeId) bool {
	switch src.Base {
	case types.ByteBase:
		return dst.Base == types.ShortBase || dst.Base == types.IntBase
	case types.ShortBase:
		return dst.Base == types.IntBase
	case types.CharBase:
		return dst.Base == types.IntBase
	}
	return false
}

// refWidens reports whether a reference conversion src → dst needs no
// cast: subtype to supertype, any reference to Object, and covariant
// reference arrays.
func (c *checker) refWidens(src, dst types.TypeId) bool {
	if !src.IsReference() || !dst.IsReference() {
		return false
	}
	// Anything widens to Object.
	if dst == c.ids.ObjectTid {
		return true
	}
	if src.Ndims > 0 && dst.Ndims > 0 {
		se, de := src.Elem(), dst.Elem()
		if se == de {
			return true
		}
		// Covariance applies to reference element types only.
		if se.IsReference() && de.IsReference() {
			return c.refWidens(se, de)
		}
		return false
	}
	if src.Ndims != dst.Ndims {
		return false
	}
	return c.tmap.IsAncestor(dst, src)
}

// castable implements the Joos cast legality rule: widening either
// direction, numeric cross-casts, interface casts against non-final
// classes, and element-wise array casts.
func (c *checker) castable(dst, src types.TypeId) bool {
	if dst.IsError() || src.IsError() {
		return true
	}
	if dst == src {
		return true
	}
	if dst.IsNumeric() && src.IsNumeric() {
		return true
	}
	if src.Base == types.NullBase && src.Ndims == 0 {
		return dst.IsReference()
	}
	if c.refWidens(src, dst) || c.refWidens(dst, src) {
		return true
	}
	if src.Ndims > 0 && dst.Ndims > 0 {
		return c.castable(dst.Elem(), src.Elem())
	}
	// Interface casts: an interface can be cast to and from any
	// non-final class and any interface.
	if src.IsUserType() && dst.IsUserType() {
		sti, sok := c.tmap.Get(src)
		dti, dok := c.tmap.Get(dst)
		if sok && dok {
			if sti.Kind == types.InterfaceKind && dti.Kind == types.InterfaceKind {
				return true
			}
			if sti.Kind == types.InterfaceKind && !dti.IsFinal() {
				return true
			}
			if dti.Kind == types.InterfaceKind && !sti.IsFinal() {
				return true
			}
		}
	}
	return false
}

// coerce wraps e in a synthetic widening cast when the checked type and
// the required type differ numerically, so the IR generator sees every
// width change explicitly.
func (c *checker) coerce(e ast.Expr, want types.TypeId) ast.Expr {
	got := e.TypeId()
	if got == want || !got.IsNumeric() || !want.IsNumeric() {
		return e
	}
	cast := &ast.CastExpr{
		ExprBase: ast.ExprBase{Sp: e.Span(), Tid: want},
		Target:   ast.TypeRef{Sp: e.Span(), Tid: want},
		E:        e,
	}
	return cast
}
