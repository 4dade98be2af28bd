package mdhtml

import (
	"strconv"
	"strings"

	"pkt.systems/mdhtml/internal/rules"
)

// builtin renders tok with the default HTML renderer.
func (p *Parser) builtin(tok Token) string {
	switch t := tok.(type) {
	case *Space, *Def:
		return ""
	case *Code:
		return renderCodeBlock(t)
	case *Blockquote:
		return "<blockquote>\n" + p.Parse(t.Tokens) + "</blockquote>\n"
	case *HTML:
		return t.Text
	case *Heading:
		depth := strconv.Itoa(t.Depth)
		return "<h" + depth + ">" + p.ParseInline(t.Tokens) + "</h" + depth + ">\n"
	case *Hr:
		return "<hr>\n"
	case *List:
		return p.list(t)
	case *ListItem:
		return "<li>" + p.Parse(t.Tokens) + "</li>\n"
	case *Checkbox:
		if t.Checked {
			return `<input checked="" disabled="" type="checkbox"> `
		}
		return `<input disabled="" type="checkbox"> `
	case *Paragraph:
		return "<p>" + p.ParseInline(t.Tokens) + "</p>\n"
	case *Table:
		return p.table(t)
	case *TableRow:
		return "<tr>\n" + t.Text + "</tr>\n"
	case *TableCell:
		tag := "td"
		if t.Header {
			tag = "th"
		}
		open := "<" + tag + ">"
		if t.Align != AlignNone {
			open = "<" + tag + ` align="` + string(t.Align) + `">`
		}
		return open + p.ParseInline(t.Tokens) + "</" + tag + ">\n"
	case *Strong:
		return "<strong>" + p.ParseInline(t.Tokens) + "</strong>"
	case *Em:
		return "<em>" + p.ParseInline(t.Tokens) + "</em>"
	case *Codespan:
		return "<code>" + EscapeHTML(t.Text, true) + "</code>"
	case *Br:
		return "<br>"
	case *Del:
		return "<del>" + p.ParseInline(t.Tokens) + "</del>"
	case *Link:
		return p.link(t)
	case *Image:
		return p.image(t)
	case *Escape:
		return EscapeHTML(t.Text, false)
	case *Text:
		switch {
		case t.Tokens != nil:
			return p.ParseInline(t.Tokens)
		case t.Escaped:
			return t.Text
		}
		return EscapeHTML(t.Text, false)
	}
	return ""
}

func renderCodeBlock(t *Code) string {
	lang := ""
	if m := rules.NotSpaceStart.Exec(t.Lang); m != nil {
		lang = m.Text()
	}
	code := strings.TrimSuffix(t.Text, "\n") + "\n"
	if !t.Escaped {
		code = EscapeHTML(code, true)
	}
	if lang == "" {
		return "<pre><code>" + code + "</code></pre>\n"
	}
	return `<pre><code class="language-` + EscapeHTML(lang, false) + `">` + code + "</code></pre>\n"
}

func (p *Parser) list(t *List) string {
	var items strings.Builder
	for _, item := range t.Items {
		items.WriteString(p.render(renderListItem, item))
	}
	tag := "ul"
	if t.Ordered {
		tag = "ol"
	}
	start := ""
	if t.Ordered && t.Start != 1 {
		start = ` start="` + strconv.Itoa(t.Start) + `"`
	}
	return "<" + tag + start + ">\n" + items.String() + "</" + tag + ">\n"
}

func (p *Parser) table(t *Table) string {
	var cells strings.Builder
	for _, cell := range t.Header {
		cells.WriteString(p.render(renderTableCell, cell))
	}
	header := p.render(renderTableRow, &TableRow{Text: cells.String()})

	var body strings.Builder
	for _, row := range t.Rows {
		cells.Reset()
		for _, cell := range row {
			cells.WriteString(p.render(renderTableCell, cell))
		}
		body.WriteString(p.render(renderTableRow, &TableRow{Text: cells.String()}))
	}
	out := "<table>\n<thead>\n" + header + "</thead>\n"
	if body.Len() > 0 {
		out += "<tbody>" + body.String() + "</tbody>"
	}
	return out + "</table>\n"
}

// link renders an anchor, or just its text when the destination cannot be
// encoded.
func (p *Parser) link(t *Link) string {
	text := p.ParseInline(t.Tokens)
	href, ok := encodeURI(t.Href)
	if !ok {
		return text
	}
	out := `<a href="` + href + `"`
	if t.Title != "" {
		out += ` title="` + EscapeHTML(t.Title, false) + `"`
	}
	return out + ">" + text + "</a>"
}

func (p *Parser) image(t *Image) string {
	alt := t.Text
	if t.Tokens != nil {
		alt = p.PlainText(t.Tokens)
	}
	href, ok := encodeURI(t.Href)
	if !ok {
		return EscapeHTML(alt, false)
	}
	out := `<img src="` + href + `" alt="` + EscapeHTML(alt, false) + `"`
	if t.Title != "" {
		out += ` title="` + EscapeHTML(t.Title, false) + `"`
	}
	return out + ">"
}
