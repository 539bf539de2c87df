package sema

import (
	"fmt"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/types"
)

// checkBlock checks a block in a fresh scope and reports whether it can
// complete normally.
func (c *checker) checkBlock(b *ast.BlockStmt) bool {
	c.pushScope()
	completes := true
	for _, s := range b.Stmts {
		if !completes {
			diag.ReportError(c.r, diag.ChkUnreachable, s.Span(),
				"unreachable statement").Emit()
			// Keep checking for further diagnostics, but report once.
			completes = true
		}
		completes = c.checkStmt(s)
	}
	c.popScope()
	return completes
}

// checkStmt checks one statement and reports whether control can flow past
// it. Boolean literal conditions participate in the reachability analysis.
func (c *checker) checkStmt(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return c.checkBlock(s)

	case *ast.EmptyStmt:
		return true

	case *ast.LocalDecl:
		if !s.Type.Tid.IsValid() {
			ref := s.Type
			resolveRefInScope(c, &ref)
			s.Type = ref
		}
		s.Vid = c.syms.Alloc.Var()
		v := c.declare(s.Name, s.Vid, s.Type.Tid, s.NameSpan)
		if s.Init != nil {
			v.declaring = true
			init, it := c.checkExpr(s.Init)
			s.Init = init
			v.declaring = false
			if !c.assignable(s.Type.Tid, it, init) {
				c.mismatch(init.Span(), s.Type.Tid, it)
			} else {
				s.Init = c.coerce(s.Init, s.Type.Tid)
			}
		}
		v.assigned = s.Init != nil
		return true

	case *ast.ExprStmt:
		e, _ := c.checkExpr(s.E)
		s.E = e
		return true

	case *ast.ReturnStmt:
		c.checkReturn(s)
		return false

	case *ast.IfStmt:
		cond, ct := c.checkExpr(s.Cond)
		s.Cond = cond
		if !ct.IsError() && ct != types.Bool {
			c.mismatch(cond.Span(), types.Bool, ct)
		}
		if lit, ok := cond.(*ast.BoolLit); ok {
			// A constant condition makes one branch unreachable.
			if !lit.Val {
				diag.ReportError(c.r, diag.ChkUnreachable, s.Then.Span(),
					"unreachable branch: condition is always false").Emit()
			} else if s.Else != nil {
				diag.ReportError(c.r, diag.ChkUnreachable, s.Else.Span(),
					"unreachable branch: condition is always true").Emit()
			}
		}
		pre := c.snapshotAssigned()
		thenCompletes := c.checkStmt(s.Then)
		thenState := c.snapshotAssigned()
		c.restoreAssigned(pre)

		elseCompletes := true
		elseState := pre
		if s.Else != nil {
			elseCompletes = c.checkStmt(s.Else)
			elseState = c.snapshotAssigned()
			c.restoreAssigned(pre)
		}
		c.mergeBranches(pre, thenState, elseState, thenCompletes, elseCompletes)

		if s.Else == nil {
			return true
		}
		return thenCompletes || elseCompletes

	case *ast.WhileStmt:
		cond, ct := c.checkExpr(s.Cond)
		s.Cond = cond
		if !ct.IsError() && ct != types.Bool {
			c.mismatch(cond.Span(), types.Bool, ct)
		}
		// The loop body may run zero times, so its assignments never
		// survive past the loop.
		pre := c.snapshotAssigned()
		if lit, ok := cond.(*ast.BoolLit); ok {
			if !lit.Val {
				diag.ReportError(c.r, diag.ChkUnreachable, s.Body.Span(),
					"unreachable loop body: condition is always false").Emit()
				c.checkStmt(s.Body)
				c.restoreAssigned(pre)
				return true
			}
			// while(true): the loop never completes normally.
			c.checkStmt(s.Body)
			c.restoreAssigned(pre)
			return false
		}
		c.checkStmt(s.Body)
		c.restoreAssigned(pre)
		return true

	case *ast.ForStmt:
		c.pushScope()
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		constTrue := s.Cond == nil
		if s.Cond != nil {
			cond, ct := c.checkExpr(s.Cond)
			s.Cond = cond
			if !ct.IsError() && ct != types.Bool {
				c.mismatch(cond.Span(), types.Bool, ct)
			}
			if lit, ok := cond.(*ast.BoolLit); ok {
				if !lit.Val {
					diag.ReportError(c.r, diag.ChkUnreachable, s.Body.Span(),
						"unreachable loop body: condition is always false").Emit()
				} else {
					constTrue = true
				}
			}
		}
		pre := c.snapshotAssigned()
		c.checkStmt(s.Body)
		if s.Update != nil {
			u, _ := c.checkExpr(s.Update)
			s.Update = u
		}
		c.restoreAssigned(pre)
		c.popScope()
		return !constTrue
	}
	return true
}

func (c *checker) checkReturn(s *ast.ReturnStmt) {
	if s.E == nil {
		if c.curRet != types.Void && !c.curRet.IsError() {
			diag.ReportError(c.r, diag.ChkTypeMismatch, s.Span(),
				fmt.Sprintf("return without a value in a method returning %s", c.curRet)).Emit()
		}
		return
	}
	e, et := c.checkExpr(s.E)
	s.E = e
	if c.curRet == types.Void {
		diag.ReportError(c.r, diag.ChkVoidValue, e.Span(),
			"void method cannot return a value").Emit()
		return
	}
	if !c.assignable(c.curRet, et, e) {
		c.mismatch(e.Span(), c.curRet, et)
		return
	}
	s.E = c.coerce(s.E, c.curRet)
}
