package parser

import (
	"joosc/internal/ast"
	"joosc/internal/token"
)

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.expect(token.LBrace)
	b := &ast.BlockStmt{StmtBase: ast.StmtBase{Sp: start.Span}}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	end := p.expect(token.RBrace)
	b.Sp = start.Span.Cover(end.Span)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		tok := p.advance()
		return &ast.EmptyStmt{StmtBase: ast.StmtBase{Sp: tok.Span}}
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		return p.parseReturn()
	default:
		if p.atLocalDecl() {
			return p.parseLocalDecl()
		}
		return p.parseExprStmt()
	}
}

// atLocalDecl decides between a declaration and an expression statement:
// a primitive keyword, or a qualified name with array brackets or followed
// by another identifier.
func (p *Parser) atLocalDecl() bool {
	if p.cur().Kind.IsPrimitive() {
		return true
	}
	if !p.at(token.Ident) {
		return false
	}
	i := 0
	for p.peek(i).Kind == token.Ident && p.peek(i+1).Kind == token.Dot {
		i += 2
	}
	if p.peek(i).Kind != token.Ident {
		return false
	}
	i++
	if p.peek(i).Kind == token.LBracket && p.peek(i+1).Kind == token.RBracket {
		return true
	}
	return p.peek(i).Kind == token.Ident
}

func (p *Parser) parseLocalDecl() ast.Stmt {
	start := p.cur().Span
	typ := p.parseTypeRef()
	name := p.expect(token.Ident)
	s := &ast.LocalDecl{
		StmtBase: ast.StmtBase{Sp: start},
		Type:     typ,
		Name:     name.Text,
		NameSpan: name.Span,
	}
	// The initializer is optional; the checker enforces definite
	// assignment before any read.
	if p.at(token.Assign) {
		p.advance()
		s.Init = p.parseExpr()
	}
	end := p.expect(token.Semicolon)
	s.Sp = start.Cover(end.Span)
	return s
}

func (p *Parser) parseExprStmt() ast.Stmt {
	e := p.parseExpr()
	end := p.expect(token.Semicolon)
	return &ast.ExprStmt{StmtBase: ast.StmtBase{Sp: e.Span().Cover(end.Span)}, E: e}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.expect(token.KwIf)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseStmt()
	s := &ast.IfStmt{
		StmtBase: ast.StmtBase{Sp: start.Span.Cover(then.Span())},
		Cond:     cond,
		Then:     then,
	}
	if p.at(token.KwElse) {
		p.advance()
		s.Else = p.parseStmt()
		s.Sp = s.Sp.Cover(s.Else.Span())
	}
	return s
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStmt()
	return &ast.WhileStmt{
		StmtBase: ast.StmtBase{Sp: start.Span.Cover(body.Span())},
		Cond:     cond,
		Body:     body,
	}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.expect(token.KwFor)
	p.expect(token.LParen)
	s := &ast.ForStmt{StmtBase: ast.StmtBase{Sp: start.Span}}

	if !p.at(token.Semicolon) {
		if p.atLocalDecl() {
			s.Init = p.parseLocalDecl() // consumes the ';'
		} else {
			e := p.parseExpr()
			s.Init = &ast.ExprStmt{StmtBase: ast.StmtBase{Sp: e.Span()}, E: e}
			p.expect(token.Semicolon)
		}
	} else {
		p.advance()
	}

	if !p.at(token.Semicolon) {
		s.Cond = p.parseExpr()
	}
	p.expect(token.Semicolon)

	if !p.at(token.RParen) {
		s.Update = p.parseExpr()
	}
	p.expect(token.RParen)
	s.Body = p.parseStmt()
	s.Sp = start.Span.Cover(s.Body.Span())
	return s
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.expect(token.KwReturn)
	s := &ast.ReturnStmt{StmtBase: ast.StmtBase{Sp: start.Span}}
	if !p.at(token.Semicolon) {
		s.E = p.parseExpr()
	}
	end := p.expect(token.Semicolon)
	s.Sp = start.Span.Cover(end.Span)
	return s
}
