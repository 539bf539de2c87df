package parser

import (
	"joosc/internal/ast"
	"joosc/internal/token"
	"joosc/internal/types"
)

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	start := p.cur().Span
	mods := p.parseModifiers()

	d := &ast.TypeDecl{Mods: mods, Sp: start}
	switch {
	case p.at(token.KwClass):
		p.advance()
		d.Kind = types.ClassKind
	case p.at(token.KwInterface):
		p.advance()
		d.Kind = types.InterfaceKind
	default:
		p.unexpected("expected class or interface")
		p.sync(token.EOF)
		return d
	}

	name := p.expect(token.Ident)
	d.Name = name.Text
	d.NameSpan = name.Span

	if p.at(token.KwExtends) {
		p.advance()
		d.Extends = append(d.Extends, p.parseTypeRef())
		// Interfaces may extend a list.
		for p.at(token.Comma) {
			p.advance()
			d.Extends = append(d.Extends, p.parseTypeRef())
		}
	}
	if p.at(token.KwImplements) {
		p.advance()
		d.Implements = append(d.Implements, p.parseTypeRef())
		for p.at(token.Comma) {
			p.advance()
			d.Implements = append(d.Implements, p.parseTypeRef())
		}
	}

	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.at(token.Semicolon) {
			p.advance()
			continue
		}
		p.parseMember(d)
	}
	end := p.expect(token.RBrace)
	d.Sp = start.Cover(end.Span)
	return d
}

// parseMember parses one field, method, or constructor declaration.
func (p *Parser) parseMember(d *ast.TypeDecl) {
	start := p.cur().Span
	mods := p.parseModifiers()

	// Constructor: the declared class name followed by '('.
	if p.at(token.Ident) && p.cur().Text == d.Name && p.peek(1).Kind == token.LParen {
		name := p.advance()
		m := &ast.MethodDecl{
			Mods:     mods,
			RetType:  nil,
			Name:     name.Text,
			NameSpan: name.Span,
			Sp:       start,
		}
		p.parseMethodRest(m)
		d.Methods = append(d.Methods, m)
		return
	}

	typ := p.parseTypeRefOrVoid()
	name := p.expect(token.Ident)

	if p.at(token.LParen) {
		m := &ast.MethodDecl{
			Mods:     mods,
			RetType:  &typ,
			Name:     name.Text,
			NameSpan: name.Span,
			Sp:       start,
		}
		p.parseMethodRest(m)
		d.Methods = append(d.Methods, m)
		return
	}

	f := &ast.FieldDecl{
		Mods:     mods,
		Type:     typ,
		Name:     name.Text,
		NameSpan: name.Span,
	}
	if p.at(token.Assign) {
		p.advance()
		f.Init = p.parseExpr()
	}
	p.expect(token.Semicolon)
	d.Fields = append(d.Fields, f)
}

func (p *Parser) parseMethodRest(m *ast.MethodDecl) {
	p.expect(token.LParen)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if len(m.Params) > 0 {
			p.expect(token.Comma)
		}
		typ := p.parseTypeRef()
		name := p.expect(token.Ident)
		m.Params = append(m.Params, &ast.Param{
			Type:     typ,
			Name:     name.Text,
			NameSpan: name.Span,
		})
	}
	p.expect(token.RParen)

	switch {
	case p.at(token.LBrace):
		m.Body = p.parseBlock()
		m.Sp = m.Sp.Cover(m.Body.Span())
	case p.at(token.Semicolon):
		end := p.advance()
		m.Sp = m.Sp.Cover(end.Span)
	default:
		p.unexpected("expected method body or ;")
		p.sync(token.RBrace, token.Semicolon, token.LBrace)
	}
}

// parseTypeRef parses a primitive or named type with array dimensions.
func (p *Parser) parseTypeRef() ast.TypeRef {
	t := p.parseTypeRefBase()
	for p.at(token.LBracket) && p.peek(1).Kind == token.RBracket {
		p.advance()
		end := p.advance()
		t.Dims++
		t.Sp = t.Sp.Cover(end.Span)
	}
	return t
}

func (p *Parser) parseTypeRefOrVoid() ast.TypeRef {
	if p.at(token.KwVoid) {
		tok := p.advance()
		return ast.TypeRef{Prim: token.KwVoid, Sp: tok.Span}
	}
	return p.parseTypeRef()
}

func (p *Parser) parseTypeRefBase() ast.TypeRef {
	tok := p.cur()
	// void parses as a type so the weeder can reject it with a precise
	// diagnostic instead of a generic syntax error.
	if tok.Kind.IsPrimitive() || tok.Kind == token.KwVoid {
		p.advance()
		return ast.TypeRef{Prim: tok.Kind, Sp: tok.Span}
	}
	if tok.Kind == token.Ident {
		parts, spans := p.parseQualifiedName()
		sp := spans[0].Cover(spans[len(spans)-1])
		return ast.TypeRef{Parts: parts, Sp: sp}
	}
	p.unexpected("expected type")
	p.advance()
	return ast.TypeRef{Sp: tok.Span}
}
