package rules

import "unicode/utf8"

// minCached is the length below which converting a string to runes on every
// match is cheaper than looking it up.
const minCached = 256

// Text remembers the rune form of the strings a lexer pass matches against.
// Any suffix of a remembered string reuses its runes, so consuming input
// front to back converts it once instead of once per rule. A Text is owned by
// one goroutine; the zero value is ready to use.
type Text struct {
	entries [4]textEntry
	next    int
}

type textEntry struct {
	s     string
	runes []rune
	// b and r pair a byte offset in s with the index of the rune starting there.
	b, r  int
}

// lookup returns the entry holding s, or s as a suffix, and the byte offset
// of s within that entry.
func (t *Text) lookup(s string) (*textEntry, int) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.runes == nil || len(s) > len(e.s) {
			continue
		}
		off := len(e.s) - len(s)
		if e.s[off:] == s {
			return e, off
		}
	}
	e := &t.entries[t.next]
	t.next = (t.next + 1) % len(t.entries)
	*e = textEntry{s: s, runes: []rune(s)}
	return e, 0
}

// runeAt returns the rune index of byte offset b.
func (e *textEntry) runeAt(b int) int {
	for e.b < b {
		_, n := utf8.DecodeRuneInString(e.s[e.b:])
		e.b += n
		e.r++
	}
	for e.b > b {
		_, n := utf8.DecodeLastRuneInString(e.s[:e.b])
		e.b -= n
		e.r--
	}
	return e.r
}

// byteAt returns the byte offset of rune index r.
func (e *textEntry) byteAt(r int) int {
	for e.r < r && e.b < len(e.s) {
		_, n := utf8.DecodeRuneInString(e.s[e.b:])
		e.b += n
		e.r++
	}
	for e.r > r && e.b > 0 {
		_, n := utf8.DecodeLastRuneInString(e.s[:e.b])
		e.b -= n
		e.r--
	}
	return e.b
}

// ExecIn is Exec with the rune form of s taken from t. A nil t behaves like
// Exec.
func (p *Pattern) ExecIn(t *Text, s string) *Match {
	return p.ExecFromIn(t, s, 0)
}

// ExecFromIn is ExecFrom with the rune form of s taken from t.
func (p *Pattern) ExecFromIn(t *Text, s string, from int) *Match {
	if p.re == nil || from > len(s) {
		return nil
	}
	if t == nil || len(s) < minCached {
		return p.ExecFrom(s, from)
	}
	e, off := t.lookup(s)
	base := e.runeAt(off)
	start := e.runeAt(off+from) - base
	m, err := p.re.FindRunesMatchStartingAt(e.runes[base:], start)
	if err != nil || m == nil {
		return nil
	}
	out := groupsOf(m)
	out.Index = e.byteAt(base+m.Index) - off
	return out
}

// TestIn is Test with the rune form of s taken from t.
func (p *Pattern) TestIn(t *Text, s string) bool {
	if p.re == nil {
		return false
	}
	if t == nil || len(s) < minCached {
		return p.Test(s)
	}
	e, off := t.lookup(s)
	ok, err := p.re.MatchRunes(e.runes[e.runeAt(off):])
	return err == nil && ok
}
