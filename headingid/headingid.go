// Package headingid gives headings stable anchor ids and can build a table
// of contents from them.
package headingid

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pkt.systems/mdhtml"
)

const (
	headingKind = "heading_id"
	tocKind     = "toc"
)

// Entry is one heading in the table of contents.
type Entry struct {
	Depth int    `json:"depth"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Slugger derives unique GitHub style ids. The zero value is ready to use;
// a Slugger remembers the ids it handed out.
type Slugger struct {
	seen  map[string]int
	lower cases.Caser
}

// Slug returns the id for text, suffixed with -1, -2, ... on repeats.
func (s *Slugger) Slug(text string) string {
	if s.seen == nil {
		s.seen = map[string]int{}
		s.lower = cases.Lower(language.Und)
	}
	var b strings.Builder
	for _, r := range s.lower.String(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}
	base := b.String()
	slug := base
	for {
		if _, taken := s.seen[slug]; !taken {
			break
		}
		s.seen[base]++
		slug = base + "-" + strconv.Itoa(s.seen[base])
	}
	s.seen[slug] = 0
	return slug
}

type config struct {
	marker   string
	minDepth int
	maxDepth int
	onTOC    func(context.Context, []Entry) error
}

// Option configures Extension.
type Option func(*config)

// WithTOCMarker replaces every paragraph consisting of marker, such as
// "[[toc]]", with a rendered table of contents.
func WithTOCMarker(marker string) Option {
	return func(c *config) {
		c.marker = marker
	}
}

// WithDepth limits which heading levels get ids and TOC entries.
func WithDepth(minDepth, maxDepth int) Option {
	return func(c *config) {
		c.minDepth, c.maxDepth = minDepth, maxDepth
	}
}

// WithTOCHandler receives the table of contents of every parsed document.
func WithTOCHandler(fn func(context.Context, []Entry) error) Option {
	return func(c *config) {
		c.onTOC = fn
	}
}

// Extension returns an extension that renders headings with id attributes.
func Extension(opts ...Option) mdhtml.Extension {
	cfg := config{minDepth: 1, maxDepth: 6}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return mdhtml.Extension{
		Rules: []mdhtml.Rule{
			{Name: headingKind, Render: renderHeading},
			{Name: tocKind, Render: renderTOC},
		},
		Hooks: &mdhtml.Hooks{
			ProcessAllTokens: func(ctx context.Context, doc *mdhtml.Document) (*mdhtml.Document, error) {
				var (
					slugger Slugger
					entries []Entry
				)
				doc.Tokens = cfg.anchor(doc.Tokens, &slugger, &entries)
				if cfg.marker != "" {
					doc.Tokens = cfg.placeTOC(doc.Tokens, entries)
				}
				if cfg.onTOC != nil {
					if err := cfg.onTOC(ctx, entries); err != nil {
						return nil, err
					}
				}
				return doc, nil
			},
		},
	}
}

// anchor replaces top level and nested block headings with anchored ones.
func (c *config) anchor(tokens []mdhtml.Token, s *Slugger, entries *[]Entry) []mdhtml.Token {
	for i, tok := range tokens {
		switch t := tok.(type) {
		case *mdhtml.Heading:
			if t.Depth < c.minDepth || t.Depth > c.maxDepth {
				continue
			}
			text := PlainText(t.Tokens)
			id := s.Slug(text)
			*entries = append(*entries, Entry{Depth: t.Depth, Text: text, ID: id})
			tokens[i] = &mdhtml.Custom{
				Span:   t.Span,
				Kind:   headingKind,
				Text:   t.Text,
				Tokens: t.Tokens,
				Data:   map[string]any{"depth": t.Depth, "id": id},
			}
		case *mdhtml.Blockquote:
			t.Tokens = c.anchor(t.Tokens, s, entries)
		case *mdhtml.List:
			for _, item := range t.Items {
				item.Tokens = c.anchor(item.Tokens, s, entries)
			}
		}
	}
	return tokens
}

func (c *config) placeTOC(tokens []mdhtml.Token, entries []Entry) []mdhtml.Token {
	for i, tok := range tokens {
		p, ok := tok.(*mdhtml.Paragraph)
		if !ok || strings.TrimSpace(p.Text) != c.marker {
			continue
		}
		tokens[i] = &mdhtml.Custom{
			Span: p.Span,
			Kind: tocKind,
			Data: map[string]any{"entries": entries},
		}
	}
	return tokens
}

// PlainText flattens inline tokens to text with entities decoded.
func PlainText(tokens []mdhtml.Token) string {
	return html.UnescapeString(mdhtml.PlainText(tokens))
}

func renderHeading(p *mdhtml.Parser, tok mdhtml.Token) (string, bool) {
	c := tok.(*mdhtml.Custom)
	depth := strconv.Itoa(c.Data["depth"].(int))
	id := mdhtml.EscapeHTML(c.Data["id"].(string), false)
	return "<h" + depth + ` id="` + id + `">` + p.ParseInline(c.Tokens) + "</h" + depth + ">\n", true
}

func renderTOC(_ *mdhtml.Parser, tok mdhtml.Token) (string, bool) {
	entries, _ := tok.(*mdhtml.Custom).Data["entries"].([]Entry)
	var b strings.Builder
	b.WriteString("<nav class=\"toc\">\n<ul>\n")
	for _, e := range entries {
		b.WriteString(`<li class="toc-h` + strconv.Itoa(e.Depth) + `"><a href="#` + mdhtml.EscapeHTML(e.ID, false) + `">`)
		b.WriteString(mdhtml.EscapeHTML(e.Text, true))
		b.WriteString("</a></li>\n")
	}
	b.WriteString("</ul>\n</nav>\n")
	return b.String(), true
}
