package mdhtml

import (
	"unicode/utf8"

	"pkt.systems/mdhtml/internal/rules"
)

// Built-in tokenizer rule names, usable as keys of Extension.Tokenizer.
const (
	ruleSpace      = "space"
	ruleCode       = "code"
	ruleFences     = "fences"
	ruleHeading    = "heading"
	ruleHr         = "hr"
	ruleBlockquote = "blockquote"
	ruleList       = "list"
	ruleHTML       = "html"
	ruleDef        = "def"
	ruleTable      = "table"
	ruleLheading   = "lheading"
	ruleParagraph  = "paragraph"
	ruleText       = "text"
	ruleEscape     = "escape"
	ruleTag        = "tag"
	ruleLink       = "link"
	ruleRefLink    = "reflink"
	ruleEmStrong   = "emStrong"
	ruleCodespan   = "codespan"
	ruleBr         = "br"
	ruleDel        = "del"
	ruleAutolink   = "autolink"
	ruleURL        = "url"
	ruleInlineText = "inlineText"
)

var tokenizerRules = map[string]bool{
	ruleSpace: true, ruleCode: true, ruleFences: true, ruleHeading: true,
	ruleHr: true, ruleBlockquote: true, ruleList: true, ruleHTML: true,
	ruleDef: true, ruleTable: true, ruleLheading: true, ruleParagraph: true,
	ruleText: true, ruleEscape: true, ruleTag: true, ruleLink: true,
	ruleRefLink: true, ruleEmStrong: true, ruleCodespan: true, ruleBr: true,
	ruleDel: true, ruleAutolink: true, ruleURL: true, ruleInlineText: true,
}

// TokenizerFunc overrides one built-in tokenizer rule. Returning ok=false
// hands src to the previously registered implementation; returning a nil
// token with ok=true reports that nothing matched.
type TokenizerFunc func(tz *Tokenizer, src string) (tok Token, ok bool)

// Tokenizer holds one method per grammar rule. Each method matches at the
// start of src and returns a token, or nil when the rule does not apply.
type Tokenizer struct {
	lx        *Lexer
	rules     rules.Set
	opts      *Options
	overrides map[string][]TokenizerFunc

	masked   string
	prevChar string
	runes    rules.Text
}

func (tz *Tokenizer) exec(p *rules.Pattern, src string) *rules.Match {
	return p.ExecIn(&tz.runes, src)
}

func (tz *Tokenizer) execFrom(p *rules.Pattern, src string, from int) *rules.Match {
	return p.ExecFromIn(&tz.runes, src, from)
}

func (tz *Tokenizer) test(p *rules.Pattern, src string) bool {
	return p.TestIn(&tz.runes, src)
}

// Lexer returns the lexer driving this tokenizer.
func (tz *Tokenizer) Lexer() *Lexer { return tz.lx }

// MaskedSource returns the masked copy of the inline source the emphasis
// rules scan. It is only meaningful inside emStrong and del overrides.
func (tz *Tokenizer) MaskedSource() string { return tz.masked }

// PrevChar returns the character before the current inline position, or ""
// at the start of a run.
func (tz *Tokenizer) PrevChar() string { return tz.prevChar }

// Builtin runs the built-in implementation of rule name on src.
func (tz *Tokenizer) Builtin(name, src string) Token {
	return tz.builtin(name, src)
}

func (tz *Tokenizer) apply(name, src string) Token {
	for _, fn := range tz.overrides[name] {
		if tok, ok := fn(tz, src); ok {
			return tok
		}
	}
	return tz.builtin(name, src)
}

func (tz *Tokenizer) builtin(name, src string) Token {
	switch name {
	case ruleSpace:
		return tz.space(src)
	case ruleCode:
		return tz.code(src)
	case ruleFences:
		return tz.fences(src)
	case ruleHeading:
		return tz.heading(src)
	case ruleHr:
		return tz.hr(src)
	case ruleBlockquote:
		return tz.blockquote(src)
	case ruleList:
		return tz.list(src)
	case ruleHTML:
		return tz.html(src)
	case ruleDef:
		return tz.def(src)
	case ruleTable:
		return tz.table(src)
	case ruleLheading:
		return tz.lheading(src)
	case ruleParagraph:
		return tz.paragraph(src)
	case ruleText:
		return tz.text(src)
	case ruleEscape:
		return tz.escape(src)
	case ruleTag:
		return tz.tag(src)
	case ruleLink:
		return tz.link(src)
	case ruleRefLink:
		return tz.reflink(src)
	case ruleEmStrong:
		return tz.emStrong(src, tz.masked, tz.prevChar)
	case ruleCodespan:
		return tz.codespan(src)
	case ruleBr:
		return tz.br(src)
	case ruleDel:
		return tz.del(src, tz.masked, tz.prevChar)
	case ruleAutolink:
		return tz.autolink(src)
	case ruleURL:
		return tz.url(src)
	case ruleInlineText:
		return tz.inlineText(src)
	}
	return nil
}

// sliceFrom returns s from byte n onwards, snapping forward to a rune start.
func sliceFrom(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	for n < len(s) && !utf8.RuneStart(s[n]) {
		n++
	}
	return s[n:]
}

// firstLine returns s up to, not including, its first newline.
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
