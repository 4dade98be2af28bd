package mdhtml

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pkt.systems/mdhtml/internal/rules"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces HTML special characters with entities. When encode is
// false, ampersands that already start an entity are kept.
func EscapeHTML(s string, encode bool) string {
	if encode {
		if !strings.ContainsAny(s, `&<>"'`) {
			return s
		}
		return htmlEscaper.Replace(s)
	}
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		case '&':
			if entityAt(s[i+1:]) {
				b.WriteByte('&')
			} else {
				b.WriteString("&amp;")
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// entityAt reports whether s begins with the body of a character reference:
// #digits; #xhex; or name;
func entityAt(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '#' {
		s = s[1:]
		if s != "" && (s[0] == 'x' || s[0] == 'X') {
			s = s[1:]
			n := 0
			for n < len(s) && n < 6 && isHex(s[n]) {
				n++
			}
			return n > 0 && n < len(s) && s[n] == ';'
		}
		n := 0
		for n < len(s) && n < 7 && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		return n > 0 && n < len(s) && s[n] == ';'
	}
	n := 0
	for n < len(s) && isWordByte(s[n]) {
		n++
	}
	return n > 0 && n < len(s) && s[n] == ';'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

const uriReserved = ";,/?:@&=+$-_.!~*'()#"

// encodeURI percent-encodes s the way browsers encode a full URI, then
// restores %25 so existing escapes survive. It fails on invalid UTF-8.
func encodeURI(s string) (string, bool) {
	if !utf8.ValidString(s) {
		return "", false
	}
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c < utf8.RuneSelf && (isAlnum(c) || strings.IndexByte(uriReserved, c) >= 0):
			b.WriteByte(c)
		case c == '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String(), true
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// rtrim removes trailing runs of c.
func rtrim(s string, c byte) string {
	n := len(s)
	for n > 0 && s[n-1] == c {
		n--
	}
	return s[:n]
}

// trimEnd removes trailing Unicode whitespace.
func trimEnd(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// normalizeLabel lowercases a link label and collapses whitespace runs.
func normalizeLabel(label string) string {
	return cases.Lower(language.Und).String(rules.MultipleSpace.ReplaceAll(label, " "))
}

// findClosingBracket returns the index of the bracket closing the group
// opened before s, -1 when there is none, or -2 when s is unbalanced.
func findClosingBracket(s string, open, close byte) int {
	if strings.IndexByte(s, close) < 0 {
		return -1
	}
	level := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case open:
			level++
		case close:
			level--
			if level < 0 {
				return i
			}
		}
	}
	if level > 0 {
		return -2
	}
	return -1
}

// expandTabs replaces tabs with spaces up to the next multiple of four
// columns, counting from column.
func expandTabs(s string, column int) string {
	if strings.IndexByte(s, '\t') < 0 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == '\t' {
			n := 4 - column%4
			b.WriteString(strings.Repeat(" ", n))
			column += n
			continue
		}
		b.WriteRune(r)
		column++
	}
	return b.String()
}

// splitCells splits a table row on unescaped pipes. A positive count pads
// or truncates the result to exactly count cells.
func splitCells(row string, count int) []string {
	var b strings.Builder
	for i := 0; i < len(row); i++ {
		if row[i] != '|' {
			b.WriteByte(row[i])
			continue
		}
		escaped := false
		for j := i - 1; j >= 0 && row[j] == '\\'; j-- {
			escaped = !escaped
		}
		if escaped {
			b.WriteByte('|')
		} else {
			b.WriteString(" |")
		}
	}
	cells := strings.Split(b.String(), " |")
	if strings.TrimSpace(cells[0]) == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	if count > 0 {
		if len(cells) > count {
			cells = cells[:count]
		}
		for len(cells) < count {
			cells = append(cells, "")
		}
	}
	for i := range cells {
		cells[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), `\|`, "|")
	}
	return cells
}

// compensateFenceIndent strips the fence's own indentation from every line
// of its content.
func compensateFenceIndent(raw, text string) string {
	m := rules.IndentCodeCompensation.Exec(raw)
	if m == nil {
		return text
	}
	indent := len(m.Group(1))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lead := rules.BeginningSpace.Exec(line)
		if lead == nil {
			continue
		}
		if len(lead.Text()) >= indent {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}

// indexNonSpace returns the byte offset of the first character that is not
// a space, or -1.
func indexNonSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			return i
		}
	}
	return -1
}

// firstRuneLen returns the byte length of the first rune of s.
func firstRuneLen(s string) int {
	_, n := utf8.DecodeRuneInString(s)
	return n
}

// lastRune returns the final rune of s as a string.
func lastRune(s string) string {
	_, n := utf8.DecodeLastRuneInString(s)
	return s[len(s)-n:]
}
