// Package rules holds the compiled Markdown grammar: one immutable rule set
// per mode, built once at package initialization.
package rules

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Flag selects pattern compile options.
type Flag int

const (
	// Insensitive compiles the pattern case-insensitively.
	Insensitive Flag = 1 << iota
	// Multiline lets ^ and $ match at line boundaries.
	Multiline
)

// Pattern is a compiled grammar rule. The zero value never matches.
type Pattern struct {
	re  *regexp2.Regexp
	src string
}

// Match is one successful match of a Pattern against a string.
type Match struct {
	// Index is the byte offset of the match within the searched string.
	Index  int
	groups []string
}

// Group returns capture group i, or "" when the group did not participate.
func (m *Match) Group(i int) string {
	if i < 0 || i >= len(m.groups) {
		return ""
	}
	return m.groups[i]
}

// Text returns the whole match.
func (m *Match) Text() string { return m.groups[0] }

// End returns the byte offset just past the match.
func (m *Match) End() int { return m.Index + len(m.groups[0]) }

var never = &Pattern{}

// Never returns a pattern that never matches.
func Never() *Pattern { return never }

// Compile builds a pattern from JavaScript-flavoured regular expression
// source. It panics on malformed source; rule tables are package constants.
func Compile(src string, flags ...Flag) *Pattern {
	var f Flag
	for _, fl := range flags {
		f |= fl
	}
	opts := regexp2.None
	if f&Insensitive != 0 {
		opts |= regexp2.IgnoreCase
	}
	if f&Multiline != 0 {
		opts |= regexp2.Multiline
	}
	return &Pattern{
		re:  regexp2.MustCompile(translate(src, f&Multiline != 0), opts),
		src: src,
	}
}

// Source returns the pattern source as written in the rule table.
func (p *Pattern) Source() string { return p.src }

// Exec returns the leftmost match in s, or nil.
func (p *Pattern) Exec(s string) *Match {
	return p.ExecFrom(s, 0)
}

// ExecFrom returns the leftmost match in s starting at byte offset from.
// Lookbehind assertions still see the text before from.
func (p *Pattern) ExecFrom(s string, from int) *Match {
	if p.re == nil || from > len(s) {
		return nil
	}
	m, err := p.re.FindStringMatchStartingAt(s, from)
	if err != nil || m == nil {
		return nil
	}
	return convert(s, m)
}

// Test reports whether s contains a match.
func (p *Pattern) Test(s string) bool {
	if p.re == nil {
		return false
	}
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

// Search returns the byte offset of the first match in s, or -1.
func (p *Pattern) Search(s string) int {
	m := p.Exec(s)
	if m == nil {
		return -1
	}
	return m.Index
}

// ReplaceAll substitutes every match in s. repl may reference groups as $1.
func (p *Pattern) ReplaceAll(s, repl string) string {
	return p.replace(s, repl, -1)
}

// ReplaceFirst substitutes the first match in s.
func (p *Pattern) ReplaceFirst(s, repl string) string {
	return p.replace(s, repl, 1)
}

func (p *Pattern) replace(s, repl string, count int) string {
	if p.re == nil {
		return s
	}
	out, err := p.re.Replace(s, repl, -1, count)
	if err != nil {
		return s
	}
	return out
}

func convert(s string, m *regexp2.Match) *Match {
	out := groupsOf(m)
	out.Index = byteOffset(s, m.Index)
	return out
}

func groupsOf(m *regexp2.Match) *Match {
	groups := m.Groups()
	out := &Match{groups: make([]string, len(groups))}
	for i := range groups {
		if len(groups[i].Captures) == 0 {
			continue
		}
		out.groups[i] = groups[i].String()
	}
	return out
}

func byteOffset(s string, runeIdx int) int {
	if runeIdx <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeIdx {
			return i
		}
		n++
	}
	return len(s)
}

// RuneLen reports the number of runes in s.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

const wordChars = `a-zA-Z0-9_`

const asciiBoundary = `(?:(?<=[` + wordChars + `])(?![` + wordChars + `])|(?<![` + wordChars + `])(?=[` + wordChars + `]))`

// translate rewrites JavaScript regular expression source into the dialect
// regexp2 speaks: $ anchors only at the very end, and \d, \w and \b are ASCII.
func translate(src string, multiline bool) string {
	var b strings.Builder
	b.Grow(len(src) + 16)
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			i++
			switch n := src[i]; n {
			case 'd':
				if inClass {
					b.WriteString("0-9")
				} else {
					b.WriteString("[0-9]")
				}
			case 'w':
				if inClass {
					b.WriteString(wordChars)
				} else {
					b.WriteString("[" + wordChars + "]")
				}
			case 'b':
				if inClass {
					b.WriteString(`\b`)
				} else {
					b.WriteString(asciiBoundary)
				}
			default:
				b.WriteByte('\\')
				b.WriteByte(n)
			}
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		case c == '$' && !inClass && !multiline:
			b.WriteString(`\z`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var caret = regexp2.MustCompile(`(^|[^\[])\^`, regexp2.None)

// Editor splices named sub-patterns into a template before compiling it.
type Editor struct {
	src string
}

// Edit starts a template.
func Edit(src string) *Editor {
	return &Editor{src: src}
}

// Replace substitutes the first occurrence of name with val. Anchors in val
// are dropped so the sub-pattern can match mid-template.
func (e *Editor) Replace(name, val string) *Editor {
	e.src = strings.Replace(e.src, name, stripCaret(val), 1)
	return e
}

// ReplaceAll substitutes every occurrence of name with val.
func (e *Editor) ReplaceAll(name, val string) *Editor {
	e.src = strings.ReplaceAll(e.src, name, stripCaret(val))
	return e
}

// Source returns the template as edited so far.
func (e *Editor) Source() string { return e.src }

// Compile compiles the edited template.
func (e *Editor) Compile(flags ...Flag) *Pattern {
	return Compile(e.src, flags...)
}

func stripCaret(val string) string {
	out, err := caret.Replace(val, "$1", -1, -1)
	if err != nil {
		return val
	}
	return out
}
