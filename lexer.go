package mdhtml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"pkt.systems/mdhtml/internal/rules"
)

// LexerState is the mutable state shared by the tokenizers of one lex pass.
type LexerState struct {
	// InLink is set while tokenizing the text of an anchor.
	InLink bool
	// InRawBlock is set inside inline HTML whose content is verbatim.
	InRawBlock bool
	// Top is set while tokenizing top level blocks, where paragraphs apply.
	Top bool
}

type inlineJob struct {
	src string
	dst *[]Token
}

// Lexer turns Markdown source into a token tree. A Lexer serves one call and
// is not safe for concurrent use.
type Lexer struct {
	cfg     *config
	rules   rules.Set
	tz      *Tokenizer
	links   map[string]LinkRef
	queue   []inlineJob
	state   LexerState
	err     error
	faults  []error
	stopped bool
}

func newLexer(cfg *config) *Lexer {
	lx := &Lexer{
		cfg:   cfg,
		rules: rules.Select(cfg.opts.GFM, cfg.opts.Breaks, cfg.opts.Pedantic),
		links: map[string]LinkRef{},
		state: LexerState{Top: true},
	}
	lx.tz = &Tokenizer{lx: lx, rules: lx.rules, opts: &cfg.opts, overrides: cfg.reg.tokenizers}
	return lx
}

// Links returns the link reference definitions recorded so far.
func (lx *Lexer) Links() map[string]LinkRef { return lx.links }

// State returns the lexer state for extension tokenizers to inspect.
func (lx *Lexer) State() *LexerState { return &lx.state }

// Options returns the options the lexer runs with.
func (lx *Lexer) Options() Options { return lx.cfg.opts }

func (lx *Lexer) lex(src string) (*Document, error) {
	src = rules.CarriageReturn.ReplaceAll(src, "\n")
	tokens := lx.BlockTokens(src, nil)
	// A stalled pass only ends itself; queued inline work still runs.
	for i := 0; i < len(lx.queue); i++ {
		lx.stopped = false
		job := lx.queue[i]
		*job.dst = lx.InlineTokens(job.src, *job.dst)
	}
	lx.queue = nil
	doc := &Document{Tokens: tokens, Links: lx.links}
	if lx.err != nil {
		return doc, lx.err
	}
	return doc, nil
}

func (lx *Lexer) lexInline(src string) ([]Token, error) {
	tokens := lx.InlineTokens(src, nil)
	return tokens, lx.err
}

// Inline queues src for inline tokenization once block lexing is done. The
// result is appended to *dst.
func (lx *Lexer) Inline(src string, dst *[]Token) {
	lx.queue = append(lx.queue, inlineJob{src: src, dst: dst})
}

func (lx *Lexer) lastJob() *inlineJob {
	if len(lx.queue) == 0 {
		return nil
	}
	return &lx.queue[len(lx.queue)-1]
}

func (lx *Lexer) popJob() {
	if len(lx.queue) > 0 {
		lx.queue = lx.queue[:len(lx.queue)-1]
	}
}

func (lx *Lexer) retarget(from, to *[]Token) {
	for i := range lx.queue {
		if lx.queue[i].dst == from {
			lx.queue[i].dst = to
		}
	}
}

// stall records a pass that consumed nothing and stops lexing. Silent lexers
// log the fault and keep what they have; otherwise the lex fails.
func (lx *Lexer) stall(src string) {
	r, _ := utf8.DecodeRuneInString(src)
	err := fmt.Errorf("%w on byte: %d", ErrInfiniteLoop, r)
	lx.stopped = true
	if lx.cfg.opts.Silent {
		lx.cfg.logger().WithError(err).Error("markdown tokenizer made no progress")
		lx.faults = append(lx.faults, err)
		return
	}
	lx.err = err
}

func lastToken(tokens []Token) Token {
	if len(tokens) == 0 {
		return nil
	}
	return tokens[len(tokens)-1]
}

func joinRaw(prev, next string) string {
	if strings.HasSuffix(prev, "\n") {
		return prev + next
	}
	return prev + "\n" + next
}

// BlockTokens tokenizes src as block content and appends the result to
// tokens.
func (lx *Lexer) BlockTokens(src string, tokens []Token) []Token {
	return lx.blockTokens(src, tokens, false)
}

func (lx *Lexer) blockTokens(src string, tokens []Token, lastParagraphClipped bool) []Token {
	if lx.cfg.opts.Pedantic {
		src = strings.ReplaceAll(src, "\t", "    ")
		src = rules.SpaceLine.ReplaceAll(src, "")
	}
	tz := lx.tz
	for src != "" && !lx.stopped {
		if tok, ok := lx.runExtensions(lx.cfg.reg.block, src, tokens); ok {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		if tok := tz.apply(ruleSpace, src); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			if prev := lastToken(tokens); len(tok.Source()) == 1 && prev != nil {
				prev.span().Raw += "\n"
			} else {
				tokens = append(tokens, tok)
			}
			continue
		}

		if tok := tz.apply(ruleCode, src); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			if merged := lx.mergeIntoText(tokens, tok.Source(), tokenText(tok)); !merged {
				tokens = append(tokens, tok)
			}
			continue
		}

		if tok := lx.firstOf(src, ruleFences, ruleHeading, ruleHr, ruleBlockquote, ruleList, ruleHTML); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		if tok := tz.apply(ruleDef, src); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			if lx.mergeIntoText(tokens, tok.Source(), tok.Source()) {
				continue
			}
			if def, ok := tok.(*Def); ok {
				if _, seen := lx.links[def.Tag]; seen {
					continue
				}
				lx.links[def.Tag] = LinkRef{Href: def.Href, Title: def.Title}
			}
			tokens = append(tokens, tok)
			continue
		}

		if tok := lx.firstOf(src, ruleTable, ruleLheading); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		cut := lx.clip(src, lx.cfg.reg.startBlock)
		if lx.state.Top {
			if tok := tz.apply(ruleParagraph, cut); tok != nil {
				prev, _ := lastToken(tokens).(*Paragraph)
				if lastParagraphClipped && prev != nil {
					prev.Raw = joinRaw(prev.Raw, tok.Source())
					prev.Text += "\n" + tokenText(tok)
					lx.popJob()
					if job := lx.lastJob(); job != nil {
						job.src = prev.Text
					}
				} else {
					tokens = append(tokens, tok)
				}
				lastParagraphClipped = len(cut) != len(src)
				src = sliceFrom(src, len(tok.Source()))
				continue
			}
		}

		if tok := tz.apply(ruleText, src); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			if prev, ok := lastToken(tokens).(*Text); ok {
				prev.Raw = joinRaw(prev.Raw, tok.Source())
				prev.Text += "\n" + tokenText(tok)
				lx.popJob()
				if job := lx.lastJob(); job != nil {
					job.src = prev.Text
				}
			} else {
				tokens = append(tokens, tok)
			}
			continue
		}

		lx.stall(src)
		break
	}
	lx.state.Top = true
	return tokens
}

// firstOf returns the first token produced by the named tokenizers in order.
func (lx *Lexer) firstOf(src string, names ...string) Token {
	for _, name := range names {
		if tok := lx.tz.apply(name, src); tok != nil {
			return tok
		}
	}
	return nil
}

// mergeIntoText appends raw and text to a preceding paragraph or text token
// and keeps its queued inline source in step.
func (lx *Lexer) mergeIntoText(tokens []Token, raw, text string) bool {
	switch prev := lastToken(tokens).(type) {
	case *Paragraph:
		prev.Raw = joinRaw(prev.Raw, raw)
		prev.Text += "\n" + text
		if job := lx.lastJob(); job != nil {
			job.src = prev.Text
		}
		return true
	case *Text:
		prev.Raw = joinRaw(prev.Raw, raw)
		prev.Text += "\n" + text
		if job := lx.lastJob(); job != nil {
			job.src = prev.Text
		}
		return true
	}
	return false
}

// runExtensions offers src to the extension tokenizers, newest first. An
// extension token that consumes nothing trips the progress guard.
func (lx *Lexer) runExtensions(exts []TokenizeFunc, src string, tokens []Token) (Token, bool) {
	for _, fn := range exts {
		tok := fn(lx, src, tokens)
		if tok == nil {
			continue
		}
		if tok.Source() == "" {
			lx.stall(src)
			return nil, false
		}
		return tok, true
	}
	return nil, false
}

// clip shortens src to the earliest point where an extension may start, so
// paragraph and text scanning never swallow extension syntax.
func (lx *Lexer) clip(src string, starts []StartFunc) string {
	if len(starts) == 0 || src == "" {
		return src
	}
	n := firstRuneLen(src)
	rest := src[n:]
	best := -1
	for _, start := range starts {
		idx := start(rest)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	if best < 0 || best > len(rest) {
		return src
	}
	return src[:n+best]
}

// InlineTokens tokenizes src as inline content and appends the result to
// tokens.
func (lx *Lexer) InlineTokens(src string, tokens []Token) []Token {
	masked := lx.mask(src)
	tz := lx.tz
	keepPrev := false
	prevChar := ""
	for src != "" && !lx.stopped {
		if !keepPrev {
			prevChar = ""
		}
		keepPrev = false

		if tok, ok := lx.runExtensions(lx.cfg.reg.inline, src, tokens); ok {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		if tok := lx.firstOf(src, ruleEscape, ruleTag, ruleLink); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		if tok := tz.apply(ruleRefLink, src); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			text, isText := tok.(*Text)
			if prev, ok := lastToken(tokens).(*Text); isText && ok {
				prev.Raw += text.Raw
				prev.Text += text.Text
			} else {
				tokens = append(tokens, tok)
			}
			continue
		}

		tz.masked, tz.prevChar = masked, prevChar
		if tok := tz.apply(ruleEmStrong, src); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		if tok := lx.firstOf(src, ruleCodespan, ruleBr); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		tz.masked, tz.prevChar = masked, prevChar
		if tok := lx.firstOf(src, ruleDel, ruleAutolink); tok != nil {
			src = sliceFrom(src, len(tok.Source()))
			tokens = append(tokens, tok)
			continue
		}

		if !lx.state.InLink {
			if tok := tz.apply(ruleURL, src); tok != nil {
				src = sliceFrom(src, len(tok.Source()))
				tokens = append(tokens, tok)
				continue
			}
		}

		cut := lx.clip(src, lx.cfg.reg.startInline)
		if tok := tz.apply(ruleInlineText, cut); tok != nil {
			raw := tok.Source()
			src = sliceFrom(src, len(raw))
			if !strings.HasSuffix(raw, "_") {
				prevChar = lastRune(raw)
			}
			keepPrev = true
			text, isText := tok.(*Text)
			if prev, ok := lastToken(tokens).(*Text); isText && ok {
				prev.Raw += text.Raw
				prev.Text += text.Text
			} else {
				tokens = append(tokens, tok)
			}
			continue
		}

		lx.stall(src)
		break
	}
	return tokens
}

// mask hides spans the emphasis scanner must not look into: known reference
// links, escaped punctuation, links, code spans and tags. Every mask keeps
// the byte length of the text it replaces so offsets stay aligned.
func (lx *Lexer) mask(src string) string {
	in := lx.rules.Inline
	masked := src
	if len(lx.links) > 0 {
		masked = maskAll(masked, in.RefLinkSearch, func(m *rules.Match) (string, bool) {
			text := m.Text()
			label := text[strings.LastIndexByte(text, '[')+1 : len(text)-1]
			if _, ok := lx.links[label]; !ok {
				return "", false
			}
			return bracketMask(len(text)), true
		})
	}
	masked = maskAll(masked, in.AnyPunctuation, func(m *rules.Match) (string, bool) {
		return strings.Repeat("+", len(m.Text())), true
	})
	masked = maskAll(masked, in.BlockSkip, func(m *rules.Match) (string, bool) {
		return bracketMask(len(m.Text())), true
	})
	if hook := lx.cfg.reg.hooks.emStrongMask; hook != nil {
		masked = hook(masked)
	}
	return masked
}

func bracketMask(n int) string {
	if n < 2 {
		return strings.Repeat("a", n)
	}
	return "[" + strings.Repeat("a", n-2) + "]"
}

func maskAll(s string, p *rules.Pattern, repl func(*rules.Match) (string, bool)) string {
	from := 0
	for from <= len(s) {
		m := p.ExecFrom(s, from)
		if m == nil {
			break
		}
		end := m.End()
		if r, ok := repl(m); ok {
			s = s[:m.Index] + r + s[end:]
		}
		if end == m.Index {
			if end >= len(s) {
				break
			}
			end += firstRuneLen(s[end:])
		}
		from = end
	}
	return s
}
