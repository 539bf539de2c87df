// Package parser builds the Joos AST from a token stream.
package parser

import (
	"fmt"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/token"
	"joosc/internal/types"
)

// Parser consumes one file's token stream.
type Parser struct {
	toks     []token.Token
	pos      int
	fileID   source.FileID
	reporter diag.Reporter
}

// ParseFile parses one compilation unit. The token stream must end with EOF.
func ParseFile(fileID source.FileID, toks []token.Token, r diag.Reporter) *ast.File {
	p := &Parser{toks: toks, fileID: fileID, reporter: r}
	return p.parseCompUnit()
}

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peek(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.unexpected(fmt.Sprintf("expected %s", k))
	return token.Token{Kind: k, Span: p.cur().Span}
}

func (p *Parser) unexpected(msg string) {
	tok := p.cur()
	code := diag.SynUnexpectedToken
	if tok.Kind == token.EOF {
		code = diag.SynUnexpectedEOF
	}
	diag.ReportError(p.reporter, code, tok.Span,
		fmt.Sprintf("%s, found %s", msg, tok.Kind)).Emit()
}

// sync skips ahead to a token kind, for error recovery.
func (p *Parser) sync(kinds ...token.Kind) {
	for !p.at(token.EOF) {
		for _, k := range kinds {
			if p.at(k) {
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseCompUnit() *ast.File {
	f := &ast.File{FileID: p.fileID}

	if p.at(token.KwPackage) {
		start := p.advance().Span
		parts, _ := p.parseQualifiedName()
		p.expect(token.Semicolon)
		f.Package = parts
		f.PkgSpan = start
	}

	for p.at(token.KwImport) {
		impStart := p.advance().Span
		imp := ast.Import{Sp: impStart}
		parts := []string{p.expect(token.Ident).Text}
		for p.at(token.Dot) {
			p.advance()
			if p.at(token.Star) {
				star := p.advance()
				imp.Wildcard = true
				imp.Sp = impStart.Cover(star.Span)
				break
			}
			id := p.expect(token.Ident)
			parts = append(parts, id.Text)
			imp.Sp = impStart.Cover(id.Span)
		}
		imp.Parts = parts
		p.expect(token.Semicolon)
		f.Imports = append(f.Imports, imp)
	}

	if !p.at(token.EOF) {
		f.Decl = p.parseTypeDecl()
	}
	if !p.at(token.EOF) {
		diag.ReportError(p.reporter, diag.SynTrailingTokens, p.cur().Span,
			"only one type declaration per file").Emit()
	}
	return f
}

func (p *Parser) parseQualifiedName() ([]string, []source.Span) {
	parts := []string{}
	spans := []source.Span{}
	id := p.expect(token.Ident)
	parts = append(parts, id.Text)
	spans = append(spans, id.Span)
	for p.at(token.Dot) && p.peek(1).Kind == token.Ident {
		p.advance()
		id = p.advance()
		parts = append(parts, id.Text)
		spans = append(spans, id.Span)
	}
	return parts, spans
}

func modifierBit(k token.Kind) types.Modifiers {
	switch k {
	case token.KwPublic:
		return types.ModPublic
	case token.KwProtected:
		return types.ModProtected
	case token.KwAbstract:
		return types.ModAbstract
	case token.KwFinal:
		return types.ModFinal
	case token.KwStatic:
		return types.ModStatic
	case token.KwNative:
		return types.ModNative
	}
	return 0
}

func (p *Parser) parseModifiers() types.Modifiers {
	var mods types.Modifiers
	for p.cur().Kind.IsModifier() {
		tok := p.advance()
		bit := modifierBit(tok.Kind)
		if mods.Has(bit) {
			diag.ReportError(p.reporter, diag.SynUnexpectedToken, tok.Span,
				fmt.Sprintf("duplicate modifier %s", tok.Kind)).Emit()
		}
		mods |= bit
	}
	return mods
}
