package mdhtml

import (
	"fmt"
	"strings"
)

// Renderer method names, usable as keys of Extension.Renderer.
const (
	renderSpace      = "space"
	renderCode       = "code"
	renderBlockquote = "blockquote"
	renderHTML       = "html"
	renderDef        = "def"
	renderHeading    = "heading"
	renderHr         = "hr"
	renderList       = "list"
	renderListItem   = "listitem"
	renderCheckbox   = "checkbox"
	renderParagraph  = "paragraph"
	renderTable      = "table"
	renderTableRow   = "tablerow"
	renderTableCell  = "tablecell"
	renderStrong     = "strong"
	renderEm         = "em"
	renderCodespan   = "codespan"
	renderBr         = "br"
	renderDel        = "del"
	renderLink       = "link"
	renderImage      = "image"
	renderText       = "text"
)

var rendererNames = map[string]bool{
	renderSpace: true, renderCode: true, renderBlockquote: true, renderHTML: true,
	renderDef: true, renderHeading: true, renderHr: true, renderList: true,
	renderListItem: true, renderCheckbox: true, renderParagraph: true,
	renderTable: true, renderTableRow: true, renderTableCell: true,
	renderStrong: true, renderEm: true, renderCodespan: true, renderBr: true,
	renderDel: true, renderLink: true, renderImage: true, renderText: true,
}

// Token types an extension renderer may decline, handing them back to the
// built-in renderer.
var (
	blockFallback = map[TokenType]bool{
		TypeSpace: true, TypeHr: true, TypeHeading: true, TypeCode: true,
		TypeTable: true, TypeBlockquote: true, TypeList: true, TypeHTML: true,
		TypeDef: true, TypeParagraph: true, TypeText: true,
	}
	inlineFallback = map[TokenType]bool{
		TypeEscape: true, TypeHTML: true, TypeLink: true, TypeImage: true,
		TypeStrong: true, TypeEm: true, TypeCodespan: true, TypeBr: true,
		TypeDel: true, TypeText: true,
	}
)

// RenderFunc renders one token. Extension rules and renderer overrides both
// use it; returning ok=false hands the token to the previous implementation.
type RenderFunc func(p *Parser, tok Token) (html string, ok bool)

// Parser walks a token tree and renders it. A Parser serves one call and is
// not safe for concurrent use.
type Parser struct {
	cfg    *config
	err    error
	faults []error
}

func newParser(cfg *config) *Parser {
	return &Parser{cfg: cfg}
}

// Options returns the options the parser runs with.
func (p *Parser) Options() Options { return p.cfg.opts }

// Parse renders block level tokens.
func (p *Parser) Parse(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		if out, done := p.extension(tok, blockFallback); done {
			b.WriteString(out)
			continue
		}
		switch t := tok.(type) {
		case *Space:
			b.WriteString(p.render(renderSpace, t))
		case *Hr:
			b.WriteString(p.render(renderHr, t))
		case *Heading:
			b.WriteString(p.render(renderHeading, t))
		case *Code:
			b.WriteString(p.render(renderCode, t))
		case *Table:
			b.WriteString(p.render(renderTable, t))
		case *Blockquote:
			b.WriteString(p.render(renderBlockquote, t))
		case *List:
			b.WriteString(p.render(renderList, t))
		case *Checkbox:
			b.WriteString(p.render(renderCheckbox, t))
		case *HTML:
			b.WriteString(p.render(renderHTML, t))
		case *Def:
			b.WriteString(p.render(renderDef, t))
		case *Paragraph:
			b.WriteString(p.render(renderParagraph, t))
		case *Text:
			b.WriteString(p.render(renderText, t))
		default:
			p.unknown(tok)
			return ""
		}
	}
	return b.String()
}

// ParseInline renders inline tokens with the HTML renderer.
func (p *Parser) ParseInline(tokens []Token) string {
	return p.parseInline(tokens, false)
}

// PlainText renders inline tokens with all markup stripped, the way image
// alt text is produced. Unlike the package level PlainText, extension
// renderers still get a say.
func (p *Parser) PlainText(tokens []Token) string {
	return p.parseInline(tokens, true)
}

func (p *Parser) parseInline(tokens []Token, plain bool) string {
	var b strings.Builder
	for _, tok := range tokens {
		if out, done := p.extension(tok, inlineFallback); done {
			b.WriteString(out)
			continue
		}
		var name string
		switch tok.(type) {
		case *Escape, *Text:
			name = renderText
		case *HTML:
			name = renderHTML
		case *Link:
			name = renderLink
		case *Image:
			name = renderImage
		case *Checkbox:
			name = renderCheckbox
		case *Strong:
			name = renderStrong
		case *Em:
			name = renderEm
		case *Codespan:
			name = renderCodespan
		case *Br:
			name = renderBr
		case *Del:
			name = renderDel
		default:
			p.unknown(tok)
			return ""
		}
		if plain {
			b.WriteString(plainText(tok))
		} else {
			b.WriteString(p.render(name, tok))
		}
	}
	return b.String()
}

// Builtin runs the built-in HTML renderer on tok, bypassing overrides.
func (p *Parser) Builtin(tok Token) string {
	return p.builtin(tok)
}

// extension offers tok to the renderer registered for its type. done is
// false when no renderer exists or the renderer declined a built-in type.
func (p *Parser) extension(tok Token, fallback map[TokenType]bool) (string, bool) {
	chain := p.cfg.reg.extRenderers[string(tok.Type())]
	if len(chain) == 0 {
		return "", false
	}
	for _, fn := range chain {
		if out, ok := fn(p, tok); ok {
			return out, true
		}
	}
	if fallback[tok.Type()] {
		return "", false
	}
	return "", true
}

func (p *Parser) render(name string, tok Token) string {
	for _, fn := range p.cfg.reg.renderers[name] {
		if out, ok := fn(p, tok); ok {
			return out
		}
	}
	return p.builtin(tok)
}

func (p *Parser) unknown(tok Token) {
	err := fmt.Errorf("%w: token with %q type was not found", ErrUnknownToken, tok.Type())
	if p.cfg.opts.Silent {
		p.cfg.logger().WithError(err).WithField("type", tok.Type()).Error("cannot render token")
		p.faults = append(p.faults, err)
		return
	}
	if p.err == nil {
		p.err = err
	}
}
