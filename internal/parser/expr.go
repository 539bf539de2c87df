package parser

import (
	"strconv"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/token"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment parses right-associative assignment. The weeder rejects
// illegal left-hand sides.
func (p *Parser) parseAssignment() ast.Expr {
	lhs := p.parseOr()
	if p.at(token.Assign) {
		p.advance()
		rhs := p.parseAssignment()
		return &ast.AssignExpr{
			ExprBase: ast.ExprBase{Sp: lhs.Span().Cover(rhs.Span())},
			L:        lhs,
			R:        rhs,
		}
	}
	return lhs
}

func (p *Parser) binary(l, r ast.Expr, op token.Kind) ast.Expr {
	return &ast.BinExpr{
		ExprBase: ast.ExprBase{Sp: l.Span().Cover(r.Span())},
		Op:       op,
		L:        l,
		R:        r,
	}
}

func (p *Parser) parseOr() ast.Expr {
	e := p.parseAnd()
	for p.at(token.PipePipe) {
		op := p.advance().Kind
		e = p.binary(e, p.parseAnd(), op)
	}
	return e
}

func (p *Parser) parseAnd() ast.Expr {
	e := p.parseBitOr()
	for p.at(token.AmpAmp) {
		op := p.advance().Kind
		e = p.binary(e, p.parseBitOr(), op)
	}
	return e
}

func (p *Parser) parseBitOr() ast.Expr {
	e := p.parseBitXor()
	for p.at(token.Pipe) {
		op := p.advance().Kind
		e = p.binary(e, p.parseBitXor(), op)
	}
	return e
}

func (p *Parser) parseBitXor() ast.Expr {
	e := p.parseBitAnd()
	for p.at(token.Caret) {
		op := p.advance().Kind
		e = p.binary(e, p.parseBitAnd(), op)
	}
	return e
}

func (p *Parser) parseBitAnd() ast.Expr {
	e := p.parseEquality()
	for p.at(token.Amp) {
		op := p.advance().Kind
		e = p.binary(e, p.parseEquality(), op)
	}
	return e
}

func (p *Parser) parseEquality() ast.Expr {
	e := p.parseRelational()
	for p.at(token.EqEq) || p.at(token.BangEq) {
		op := p.advance().Kind
		e = p.binary(e, p.parseRelational(), op)
	}
	return e
}

func (p *Parser) parseRelational() ast.Expr {
	e := p.parseAdditive()
	for {
		switch p.cur().Kind {
		case token.Lt, token.Gt, token.LtEq, token.GtEq:
			op := p.advance().Kind
			e = p.binary(e, p.parseAdditive(), op)
		case token.KwInstanceof:
			p.advance()
			target := p.parseTypeRef()
			e = &ast.InstanceOfExpr{
				ExprBase: ast.ExprBase{Sp: e.Span().Cover(target.Span())},
				E:        e,
				Target:   target,
			}
		default:
			return e
		}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	e := p.parseMultiplicative()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.advance().Kind
		e = p.binary(e, p.parseMultiplicative(), op)
	}
	return e
}

func (p *Parser) parseMultiplicative() ast.Expr {
	e := p.parseUnary()
	for p.at(token.Star) || p.at(token.Slash) || p.at(token.Percent) {
		op := p.advance().Kind
		e = p.binary(e, p.parseUnary(), op)
	}
	return e
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.Minus:
		minus := p.advance()
		// Fold the sign into an immediately following integer literal so
		// -2147483648 stays in range.
		if p.at(token.IntLit) {
			lit := p.advance()
			return p.intLit(lit, minus.Span, true)
		}
		e := p.parseUnary()
		return &ast.UnaryExpr{
			ExprBase: ast.ExprBase{Sp: minus.Span.Cover(e.Span())},
			Op:       token.Minus,
			E:        e,
		}
	case token.Bang:
		bang := p.advance()
		e := p.parseUnary()
		return &ast.UnaryExpr{
			ExprBase: ast.ExprBase{Sp: bang.Span.Cover(e.Span())},
			Op:       token.Bang,
			E:        e,
		}
	case token.LParen:
		if p.atCast() {
			return p.parseCast()
		}
		return p.parsePostfix()
	default:
		return p.parsePostfix()
	}
}

// atCast looks ahead over '(' Type ')' and decides whether it starts a cast.
// A primitive type in parentheses is always a cast; a parenthesized name is
// a cast only when followed by a token that can begin a unary expression
// other than '-' (which would be subtraction).
func (p *Parser) atCast() bool {
	if p.peek(1).Kind.IsPrimitive() {
		return true
	}
	if p.peek(1).Kind != token.Ident {
		return false
	}
	i := 1
	for p.peek(i).Kind == token.Ident {
		if p.peek(i+1).Kind != token.Dot {
			i++
			break
		}
		i += 2
	}
	for p.peek(i).Kind == token.LBracket && p.peek(i+1).Kind == token.RBracket {
		i += 2
	}
	if p.peek(i).Kind != token.RParen {
		return false
	}
	switch p.peek(i + 1).Kind {
	case token.Ident, token.IntLit, token.CharLit, token.StringLit,
		token.KwTrue, token.KwFalse, token.KwNull, token.KwThis,
		token.KwNew, token.LParen, token.Bang:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCast() ast.Expr {
	start := p.expect(token.LParen)
	target := p.parseTypeRef()
	p.expect(token.RParen)
	e := p.parseUnary()
	return &ast.CastExpr{
		ExprBase: ast.ExprBase{Sp: start.Span.Cover(e.Span())},
		Target:   target,
		E:        e,
	}
}

// parsePostfix parses a primary expression followed by field accesses,
// array indexing, and calls.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.Dot:
			p.advance()
			name := p.expect(token.Ident)
			if p.at(token.LParen) {
				args, end := p.parseArgs()
				e = &ast.CallExpr{
					ExprBase: ast.ExprBase{Sp: e.Span().Cover(end)},
					Base:     e,
					Name:     name.Text,
					NameSpan: name.Span,
					Args:     args,
				}
			} else {
				e = &ast.FieldAccess{
					ExprBase: ast.ExprBase{Sp: e.Span().Cover(name.Span)},
					Base:     e,
					Name:     name.Text,
					NameSpan: name.Span,
				}
			}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket)
			e = &ast.ArrayIndex{
				ExprBase: ast.ExprBase{Sp: e.Span().Cover(end.Span)},
				Arr:      e,
				Idx:      idx,
			}
		case token.LParen:
			// A call directly after a name: foo(…) or a.b.foo(…).
			ne, ok := e.(*ast.NameExpr)
			if !ok {
				return e
			}
			args, end := p.parseArgs()
			call := &ast.CallExpr{
				ExprBase: ast.ExprBase{Sp: e.Span().Cover(end)},
				Name:     ne.Parts[len(ne.Parts)-1],
				NameSpan: ne.PartSpans[len(ne.Parts)-1],
				Args:     args,
			}
			if len(ne.Parts) > 1 {
				call.Base = &ast.NameExpr{
					ExprBase:  ast.ExprBase{Sp: ne.PartSpans[0].Cover(ne.PartSpans[len(ne.Parts)-2])},
					Parts:     ne.Parts[:len(ne.Parts)-1],
					PartSpans: ne.PartSpans[:len(ne.Parts)-1],
				}
			}
			e = call
		default:
			return e
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, source.Span) {
	p.expect(token.LParen)
	var args []ast.Expr
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if len(args) > 0 {
			p.expect(token.Comma)
		}
		args = append(args, p.parseExpr())
	}
	end := p.expect(token.RParen)
	return args, end.Span
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return p.intLit(tok, tok.Span, false)
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.BoolLit{ExprBase: ast.ExprBase{Sp: tok.Span}, Val: tok.Kind == token.KwTrue}
	case token.KwNull:
		p.advance()
		return &ast.NullLit{ExprBase: ast.ExprBase{Sp: tok.Span}}
	case token.CharLit:
		p.advance()
		return &ast.CharLit{ExprBase: ast.ExprBase{Sp: tok.Span}, Val: decodeCharLit(tok.Text)}
	case token.StringLit:
		p.advance()
		return &ast.StringLit{ExprBase: ast.ExprBase{Sp: tok.Span}, Val: decodeStringLit(tok.Text)}
	case token.KwThis:
		p.advance()
		return &ast.ThisExpr{ExprBase: ast.ExprBase{Sp: tok.Span}}
	case token.KwNew:
		return p.parseNew()
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.Ident:
		parts, spans := p.parseQualifiedName()
		return &ast.NameExpr{
			ExprBase:  ast.ExprBase{Sp: spans[0].Cover(spans[len(spans)-1])},
			Parts:     parts,
			PartSpans: spans,
		}
	default:
		p.unexpected("expected expression")
		p.advance()
		return &ast.NullLit{ExprBase: ast.ExprBase{Sp: tok.Span}}
	}
}

func (p *Parser) parseNew() ast.Expr {
	start := p.expect(token.KwNew)
	base := p.parseTypeRefBase()

	if p.at(token.LBracket) {
		p.advance()
		length := p.parseExpr()
		end := p.expect(token.RBracket)
		// Trailing empty bracket pairs raise the element dimensionality.
		for p.at(token.LBracket) && p.peek(1).Kind == token.RBracket {
			p.advance()
			e := p.advance()
			base.Dims++
			end = e
		}
		return &ast.NewArray{
			ExprBase: ast.ExprBase{Sp: start.Span.Cover(end.Span)},
			Elem:     base,
			Len:      length,
		}
	}

	args, end := p.parseArgs()
	return &ast.NewObject{
		ExprBase: ast.ExprBase{Sp: start.Span.Cover(end)},
		Type:     base,
		Args:     args,
	}
}

// intLit parses a decimal literal, folding an immediately preceding unary
// minus so the boundary value stays representable.
func (p *Parser) intLit(tok token.Token, start source.Span, neg bool) ast.Expr {
	sp := start.Cover(tok.Span)
	v, err := strconv.ParseUint(tok.Text, 10, 64)
	limit := uint64(1 << 31)
	if !neg {
		limit = 1<<31 - 1
	}
	if err != nil || v > limit {
		diag.ReportError(p.reporter, diag.WeedIntegerOutOfRange, sp,
			"integer literal does not fit in 32 bits").Emit()
		return &ast.IntLit{ExprBase: ast.ExprBase{Sp: sp}, Val: 0}
	}
	val := int32(int64(v))
	if neg {
		val = int32(-int64(v))
	}
	return &ast.IntLit{ExprBase: ast.ExprBase{Sp: sp}, Val: val}
}
