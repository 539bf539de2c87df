package ir

import (
	"joosc/internal/ast"
)

// lowerBlock lowers a block, releasing its locals on exit.
func (m *methodGen) lowerBlock(b *ast.BlockStmt) {
	var locals []Mem
	for _, s := range b.Stmts {
		locals = m.lowerStmt(s, locals)
	}
	for i := len(locals) - 1; i >= 0; i-- {
		m.b.DeallocMem(locals[i])
	}
}

// lowerStmt lowers one statement; declarations append to the enclosing
// block's local list.
func (m *methodGen) lowerStmt(s ast.Stmt, locals []Mem) []Mem {
	switch s := s.(type) {
	case *ast.BlockStmt:
		m.lowerBlock(s)

	case *ast.EmptyStmt:

	case *ast.LocalDecl:
		local := m.b.AllocLocal(SizeClassOf(s.Type.Tid))
		m.vars[s.Vid] = local
		// Uninitialized declarations rely on the checker's definite
		// assignment guarantee: a store reaches the slot before any read.
		if s.Init != nil {
			m.lowerExprTo(local, s.Init)
		}
		return append(locals, local)

	case *ast.ExprStmt:
		v := m.lowerExpr(s.E)
		m.b.DeallocMem(v)

	case *ast.ReturnStmt:
		if s.E == nil {
			m.b.Ret()
		} else {
			v := m.lowerExpr(s.E)
			m.b.RetValue(v)
			m.b.DeallocMem(v)
		}

	case *ast.IfStmt:
		m.lowerIf(s)

	case *ast.WhileStmt:
		m.lowerWhile(s)

	case *ast.ForStmt:
		m.lowerFor(s)
	}
	return locals
}

// lowerScopedStmt lowers a statement that forms its own scope (a loop or
// branch body); a bare declaration's slot is released immediately after.
func (m *methodGen) lowerScopedStmt(s ast.Stmt) {
	scoped := m.lowerStmt(s, nil)
	for i := len(scoped) - 1; i >= 0; i-- {
		m.b.DeallocMem(scoped[i])
	}
}

// lowerExprTo evaluates e into an existing slot, leaving the allocation
// stack as it found it. Loop conditions rely on this.
func (m *methodGen) lowerExprTo(dst Mem, e ast.Expr) {
	v := m.lowerExpr(e)
	m.b.Mov(dst, v)
	m.b.DeallocMem(v)
}

// lowerIf emits: cond; NOT; JMP_IF Lfalse; then; JMP Lend; Lfalse: else;
// Lend:. The condition slots outlive both arms so every path reaches the
// join with the same allocation stack.
func (m *methodGen) lowerIf(s *ast.IfStmt) {
	cond := m.b.AllocTemp(SizeBool)
	notm := m.b.AllocTemp(SizeBool)
	m.lowerExprTo(cond, s.Cond)
	m.b.Not(notm, cond)

	lFalse := m.b.AllocLabel()
	lEnd := m.b.AllocLabel()
	m.b.JmpIf(lFalse, notm)
	m.lowerScopedStmt(s.Then)
	m.b.Jmp(lEnd)
	m.b.EmitLabel(lFalse)
	if s.Else != nil {
		m.lowerScopedStmt(s.Else)
	}
	m.b.EmitLabel(lEnd)

	m.b.DeallocMem(notm)
	m.b.DeallocMem(cond)
}

// lowerWhile emits: Lbegin: cond; NOT; JMP_IF Lend; body; JMP Lbegin;
// Lend:.
func (m *methodGen) lowerWhile(s *ast.WhileStmt) {
	cond := m.b.AllocTemp(SizeBool)
	notm := m.b.AllocTemp(SizeBool)
	lBegin := m.b.AllocLabel()
	lEnd := m.b.AllocLabel()

	m.b.EmitLabel(lBegin)
	m.lowerExprTo(cond, s.Cond)
	m.b.Not(notm, cond)
	m.b.JmpIf(lEnd, notm)
	m.lowerScopedStmt(s.Body)
	m.b.Jmp(lBegin)
	m.b.EmitLabel(lEnd)

	m.b.DeallocMem(notm)
	m.b.DeallocMem(cond)
}

// lowerFor treats the init declaration as a scope of its own and runs the
// update before the back-edge.
func (m *methodGen) lowerFor(s *ast.ForStmt) {
	var scoped []Mem
	if s.Init != nil {
		scoped = m.lowerStmt(s.Init, nil)
	}

	var cond, notm Mem
	if s.Cond != nil {
		cond = m.b.AllocTemp(SizeBool)
		notm = m.b.AllocTemp(SizeBool)
	}
	lBegin := m.b.AllocLabel()
	lEnd := m.b.AllocLabel()

	m.b.EmitLabel(lBegin)
	if s.Cond != nil {
		m.lowerExprTo(cond, s.Cond)
		m.b.Not(notm, cond)
		m.b.JmpIf(lEnd, notm)
	}
	m.lowerScopedStmt(s.Body)
	if s.Update != nil {
		v := m.lowerExpr(s.Update)
		m.b.DeallocMem(v)
	}
	m.b.Jmp(lBegin)
	m.b.EmitLabel(lEnd)

	if s.Cond != nil {
		m.b.DeallocMem(notm)
		m.b.DeallocMem(cond)
	}

	for i := len(scoped) - 1; i >= 0; i-- {
		m.b.DeallocMem(scoped[i])
	}
}
