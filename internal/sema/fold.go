package sema

import (
	"strconv"

	"joosc/internal/ast"
	"joosc/internal/token"
	"joosc/internal/types"
)

func (c *checker) checkBinary(e *ast.BinExpr) (ast.Expr, types.TypeId) {
	lhs, lt := c.checkExpr(e.L)
	e.L = lhs
	rhs, rt := c.checkExpr(e.R)
	e.R = rhs

	if lt.IsError() || rt.IsError() {
		e.SetTypeId(types.ErrorType)
		return e, types.ErrorType
	}

	switch e.Op {
	case token.Plus:
		// String concatenation wins when either side is a String.
		if lt == c.ids.StringTid || rt == c.ids.StringTid {
			if lt == types.Void || rt == types.Void {
				c.mismatch(e.Span(), c.ids.StringTid, types.Void)
				e.SetTypeId(types.ErrorType)
				return e, types.ErrorType
			}
			e.SetTypeId(c.ids.StringTid)
			return c.foldConcat(e), c.ids.StringTid
		}
		fallthrough
	case token.Minus, token.Star, token.Slash, token.Percent:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			c.mismatch(e.Span(), types.Int, pickNonNumeric(lt, rt))
			e.SetTypeId(types.ErrorType)
			return e, types.ErrorType
		}
		e.L = c.coerce(e.L, types.Int)
		e.R = c.coerce(e.R, types.Int)
		e.SetTypeId(types.Int)
		return c.foldArith(e), types.Int

	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			c.mismatch(e.Span(), types.Int, pickNonNumeric(lt, rt))
			e.SetTypeId(types.ErrorType)
			return e, types.ErrorType
		}
		e.L = c.coerce(e.L, types.Int)
		e.R = c.coerce(e.R, types.Int)
		e.SetTypeId(types.Bool)
		return c.foldCompare(e), types.Bool

	case token.EqEq, token.BangEq:
		ok := false
		switch {
		case lt.IsNumeric() && rt.IsNumeric():
			e.L = c.coerce(e.L, types.Int)
			e.R = c.coerce(e.R, types.Int)
			ok = true
		case lt == types.Bool && rt == types.Bool:
			ok = true
		case (lt.IsReference() || lt.Base == types.NullBase) &&
			(rt.IsReference() || rt.Base == types.NullBase):
			ok = c.castable(lt, rt) || c.castable(rt, lt)
		}
		if !ok {
			c.mismatch(e.Span(), lt, rt)
			e.SetTypeId(types.ErrorType)
			return e, types.ErrorType
		}
		e.SetTypeId(types.Bool)
		return c.foldCompare(e), types.Bool

	case token.AmpAmp, token.PipePipe, token.Amp, token.Pipe, token.Caret:
		if lt != types.Bool || rt != types.Bool {
			c.mismatch(e.Span(), types.Bool, pickNonBool(lt, rt))
			e.SetTypeId(types.ErrorType)
			return e, types.ErrorType
		}
		e.SetTypeId(types.Bool)
		return c.foldLogic(e), types.Bool
	}
	e.SetTypeId(types.ErrorType)
	return e, types.ErrorType
}

func pickNonNumeric(lt, rt types.TypeId) types.TypeId {
	if !lt.IsNumeric() {
		return lt
	}
	return rt
}

func pickNonBool(lt, rt types.TypeId) types.TypeId {
	if lt != types.Bool {
		return lt
	}
	return rt
}

// foldArith folds integer arithmetic on literal operands with 32-bit
// wraparound. Division and modulo by a zero literal stay unfolded so the
// runtime check fires.
func (c *checker) foldArith(e *ast.BinExpr) ast.Expr {
	l, lok := e.L.(*ast.IntLit)
	r, rok := e.R.(*ast.IntLit)
	if !lok || !rok {
		return e
	}
	var v int32
	switch e.Op {
	case token.Plus:
		v = l.Val + r.Val
	case token.Minus:
		v = l.Val - r.Val
	case token.Star:
		v = l.Val * r.Val
	case token.Slash:
		if r.Val == 0 || (l.Val == -2147483648 && r.Val == -1) {
			return e
		}
		v = l.Val / r.Val
	case token.Percent:
		if r.Val == 0 {
			return e
		}
		v = l.Val % r.Val
	default:
		return e
	}
	return &ast.IntLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Int}, Val: v}
}

func (c *checker) foldCompare(e *ast.BinExpr) ast.Expr {
	if l, ok := e.L.(*ast.IntLit); ok {
		if r, ok := e.R.(*ast.IntLit); ok {
			var v bool
			switch e.Op {
			case token.Lt:
				v = l.Val < r.Val
			case token.Gt:
				v = l.Val > r.Val
			case token.LtEq:
				v = l.Val <= r.Val
			case token.GtEq:
				v = l.Val >= r.Val
			case token.EqEq:
				v = l.Val == r.Val
			case token.BangEq:
				v = l.Val != r.Val
			default:
				return e
			}
			return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: v}
		}
	}
	if l, ok := e.L.(*ast.BoolLit); ok {
		if r, ok := e.R.(*ast.BoolLit); ok {
			switch e.Op {
			case token.EqEq:
				return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: l.Val == r.Val}
			case token.BangEq:
				return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: l.Val != r.Val}
			}
		}
	}
	return e
}

func (c *checker) foldLogic(e *ast.BinExpr) ast.Expr {
	l, lok := e.L.(*ast.BoolLit)
	r, rok := e.R.(*ast.BoolLit)
	if !lok || !rok {
		// Short-circuit constants: true && x → x, false && x → false, etc.
		if lok {
			switch e.Op {
			case token.AmpAmp:
				if !l.Val {
					return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: false}
				}
				return e.R
			case token.PipePipe:
				if l.Val {
					return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: true}
				}
				return e.R
			}
		}
		return e
	}
	var v bool
	switch e.Op {
	case token.AmpAmp, token.Amp:
		v = l.Val && r.Val
	case token.PipePipe, token.Pipe:
		v = l.Val || r.Val
	case token.Caret:
		v = l.Val != r.Val
	default:
		return e
	}
	return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: v}
}

// foldConcat folds "a" + "b" and string + primitive-constant into one
// interned literal, so equal folds share a StringId.
func (c *checker) foldConcat(e *ast.BinExpr) ast.Expr {
	ls, lok := constString(e.L)
	rs, rok := constString(e.R)
	if !lok || !rok {
		return e
	}
	val := ls + rs
	return &ast.StringLit{
		ExprBase: ast.ExprBase{Sp: e.Span(), Tid: c.ids.StringTid},
		Val:      val,
		Sid:      c.strings.Intern(val),
	}
}

// constString renders a compile-time constant as its string form.
func constString(e ast.Expr) (string, bool) {
	switch e := e.(type) {
	case *ast.StringLit:
		return e.Val, true
	case *ast.IntLit:
		return strconv.FormatInt(int64(e.Val), 10), true
	case *ast.CharLit:
		return string(e.Val), true
	case *ast.BoolLit:
		if e.Val {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

func (c *checker) foldUnary(e *ast.UnaryExpr) ast.Expr {
	switch e.Op {
	case token.Minus:
		if l, ok := e.E.(*ast.IntLit); ok {
			return &ast.IntLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Int}, Val: -l.Val}
		}
	case token.Bang:
		if l, ok := e.E.(*ast.BoolLit); ok {
			return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: types.Bool}, Val: !l.Val}
		}
	}
	return e
}

// foldCast narrows integer literals through primitive casts so constant
// expressions survive as constants.
func (c *checker) foldCast(e *ast.CastExpr) ast.Expr {
	l, ok := e.E.(*ast.IntLit)
	if !ok || !e.Target.Tid.IsNumeric() {
		return e
	}
	v := l.Val
	switch e.Target.Tid.Base {
	case types.ByteBase:
		v = int32(int8(v))
	case types.ShortBase:
		v = int32(int16(v))
	case types.CharBase:
		v = int32(uint16(v))
	}
	if e.Target.Tid.Base == types.IntBase {
		return l
	}
	lit := &ast.IntLit{ExprBase: ast.ExprBase{Sp: e.Span(), Tid: e.Target.Tid}, Val: v}
	return lit
}
