// Package highlight colors fenced code blocks with chroma.
//
// The extension highlights during the walk stage, so highlighting runs
// concurrently across code blocks when the engine uses the asynchronous
// contract. Highlighted blocks are marked pre-escaped and rendered inside a
// <pre class="chroma"> wrapper.
package highlight

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"pkt.systems/mdhtml"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

type config struct {
	style   string
	classes bool
	guess   bool
	async   bool
}

// Option configures the highlighter.
type Option func(*config)

// WithStyle selects a chroma style by name. Unknown names fall back to
// chroma's default style.
func WithStyle(name string) Option {
	return func(c *config) {
		c.style = name
	}
}

// WithClasses emits CSS classes instead of inline styles; pair it with CSS.
func WithClasses(enabled bool) Option {
	return func(c *config) {
		c.classes = enabled
	}
}

// WithGuess highlights blocks without a language by guessing it from the
// content.
func WithGuess(enabled bool) Option {
	return func(c *config) {
		c.guess = enabled
	}
}

// WithAsync registers the extension as asynchronous.
func WithAsync(enabled bool) Option {
	return func(c *config) {
		c.async = enabled
	}
}

// Highlighter turns code into highlighted HTML spans.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
	guess     bool
	async     bool
}

// New returns a highlighter.
func New(opts ...Option) *Highlighter {
	cfg := config{style: DefaultStyle}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Highlighter{
		style:     styles.Get(cfg.style),
		formatter: html.New(html.WithClasses(cfg.classes), html.PreventSurroundingPre(true)),
		guess:     cfg.guess,
		async:     cfg.async,
	}
}

// Styles lists the available style names.
func Styles() []string {
	return styles.Names()
}

// CSS writes the stylesheet for class based output.
func (h *Highlighter) CSS(w io.Writer) error {
	if err := h.formatter.WriteCSS(w, h.style); err != nil {
		return fmt.Errorf("highlight: css: %w", err)
	}
	return nil
}

// lexer resolves the chroma lexer for an info string.
func (h *Highlighter) lexer(info, code string) chroma.Lexer {
	lang := strings.Fields(info)
	var lexer chroma.Lexer
	if len(lang) > 0 {
		lexer = lexers.Get(lang[0])
	} else if h.guess {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// Highlight returns code as highlighted HTML. ok is false when no lexer
// matches.
func (h *Highlighter) Highlight(info, code string) (string, bool, error) {
	lexer := h.lexer(info, code)
	if lexer == nil {
		return "", false, nil
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false, fmt.Errorf("highlight: tokenise %s: %w", info, err)
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, iterator); err != nil {
		return "", false, fmt.Errorf("highlight: format %s: %w", info, err)
	}
	return b.String(), true, nil
}

// Extension returns the mdhtml extension for h.
func (h *Highlighter) Extension() mdhtml.Extension {
	return mdhtml.Extension{
		Async: h.async,
		WalkTokens: func(_ context.Context, tok mdhtml.Token) error {
			code, ok := tok.(*mdhtml.Code)
			if !ok || code.Escaped || code.Indented {
				return nil
			}
			out, ok, err := h.Highlight(code.Lang, code.Text)
			if err != nil || !ok {
				return err
			}
			code.Text = out
			code.Escaped = true
			return nil
		},
		Renderer: map[string]mdhtml.RenderFunc{
			"code": func(p *mdhtml.Parser, tok mdhtml.Token) (string, bool) {
				code, ok := tok.(*mdhtml.Code)
				if !ok || !code.Escaped || code.Indented || h.lexer(code.Lang, "") == nil {
					return "", false
				}
				return strings.Replace(p.Builtin(code), "<pre>", `<pre class="chroma">`, 1), true
			},
		},
	}
}

// Extension is shorthand for New(opts...).Extension().
func Extension(opts ...Option) mdhtml.Extension {
	return New(opts...).Extension()
}
