package main

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"

	"pkt.systems/mdhtml"
	"pkt.systems/mdhtml/headingid"
)

const minTextWidth = 20

// plainText renders block tokens as wrapped plain text.
func plainText(tokens []mdhtml.Token, width int) string {
	width = max(width, minTextWidth)
	var blocks []string
	for _, tok := range tokens {
		if block := textBlock(tok, width); block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func textBlock(tok mdhtml.Token, width int) string {
	switch t := tok.(type) {
	case *mdhtml.Heading:
		text := wordwrap.String(headingid.PlainText(t.Tokens), width)
		switch t.Depth {
		case 1:
			return text + "\n" + underline(text, '=')
		case 2:
			return text + "\n" + underline(text, '-')
		}
		return strings.Repeat("#", t.Depth) + " " + text
	case *mdhtml.Paragraph:
		return wordwrap.String(headingid.PlainText(t.Tokens), width)
	case *mdhtml.Text:
		return wordwrap.String(headingid.PlainText([]mdhtml.Token{t}), width)
	case *mdhtml.Code:
		return indent.String(strings.TrimSuffix(t.Text, "\n"), 4)
	case *mdhtml.Blockquote:
		return prefixLines(plainText(t.Tokens, width-2), "> ")
	case *mdhtml.List:
		return textList(t, width)
	case *mdhtml.Table:
		return textTable(t)
	case *mdhtml.Hr:
		return strings.Repeat("-", min(width, 40))
	case *mdhtml.Custom:
		if len(t.Tokens) > 0 {
			return strings.TrimSuffix(plainText(t.Tokens, width), "\n")
		}
		return t.Text
	}
	return ""
}

func textList(l *mdhtml.List, width int) string {
	items := make([]string, 0, len(l.Items))
	for i, item := range l.Items {
		marker := "- "
		if l.Ordered {
			marker = strconv.Itoa(l.Start+i) + ". "
		}
		if item.Task {
			if item.Checked {
				marker += "[x] "
			} else {
				marker += "[ ] "
			}
		}
		var body []mdhtml.Token
		for _, tok := range item.Tokens {
			if _, ok := tok.(*mdhtml.Checkbox); !ok {
				body = append(body, tok)
			}
		}
		text := strings.TrimSuffix(plainText(body, width-len(marker)), "\n")
		text = indent.String(text, uint(len(marker)))
		items = append(items, marker+strings.TrimPrefix(text, strings.Repeat(" ", len(marker))))
	}
	sep := "\n"
	if l.Loose {
		sep = "\n\n"
	}
	return strings.Join(items, sep)
}

func textTable(t *mdhtml.Table) string {
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, cellTexts(t.Header))
	for _, row := range t.Rows {
		rows = append(rows, cellTexts(row))
	}
	widths := make([]int, len(t.Header))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], ansi.PrintableRuneWidth(cell))
			}
		}
	}
	lines := make([]string, 0, len(rows)+1)
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = padding.String(cell, uint(widths[i]))
		}
		lines = append(lines, strings.TrimRight(strings.Join(cells, " | "), " "))
		if r == 0 {
			rules := make([]string, len(widths))
			for i, w := range widths {
				rules[i] = strings.Repeat("-", max(w, 1))
			}
			lines = append(lines, strings.Join(rules, "-|-"))
		}
	}
	return strings.Join(lines, "\n")
}

func cellTexts(cells []*mdhtml.TableCell) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = headingid.PlainText(cell.Tokens)
	}
	return out
}

func underline(text string, c byte) string {
	longest := 0
	for _, line := range strings.Split(text, "\n") {
		longest = max(longest, ansi.PrintableRuneWidth(line))
	}
	return strings.Repeat(string(c), longest)
}

func prefixLines(text, prefix string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(prefix+line, " ")
	}
	return strings.Join(lines, "\n")
}
