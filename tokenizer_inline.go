package mdhtml

import (
	"strings"

	"pkt.systems/mdhtml/internal/rules"
)

func (tz *Tokenizer) escape(src string) Token {
	m := tz.exec(tz.rules.Inline.Escape, src)
	if m == nil {
		return nil
	}
	return &Escape{Span: Span{Raw: m.Text()}, Text: m.Group(1)}
}

func (tz *Tokenizer) tag(src string) Token {
	m := tz.exec(tz.rules.Inline.Tag, src)
	if m == nil {
		return nil
	}
	raw := m.Text()
	st := &tz.lx.state
	if !st.InLink && rules.StartATag.Test(raw) {
		st.InLink = true
	} else if st.InLink && rules.EndATag.Test(raw) {
		st.InLink = false
	}
	if !st.InRawBlock && rules.StartPreScriptTag.Test(raw) {
		st.InRawBlock = true
	} else if st.InRawBlock && rules.EndPreScriptTag.Test(raw) {
		st.InRawBlock = false
	}
	return &HTML{
		Span:       Span{Raw: raw},
		Text:       raw,
		InLink:     st.InLink,
		InRawBlock: st.InRawBlock,
	}
}

func (tz *Tokenizer) link(src string) Token {
	m := tz.exec(tz.rules.Inline.Link, src)
	if m == nil {
		return nil
	}
	raw, label, dest, title := m.Text(), m.Group(1), m.Group(2), m.Group(3)
	trimmedURL := strings.TrimSpace(dest)
	if !tz.opts.Pedantic && strings.HasPrefix(trimmedURL, "<") {
		// <destination> must close with an unescaped >.
		if !strings.HasSuffix(trimmedURL, ">") {
			return nil
		}
		body := rtrim(trimmedURL[:len(trimmedURL)-1], '\\')
		if (len(trimmedURL)-len(body))%2 == 0 {
			return nil
		}
	} else {
		lastParen := findClosingBracket(dest, '(', ')')
		if lastParen == -2 {
			return nil
		}
		if lastParen > -1 {
			start := 4
			if strings.HasPrefix(raw, "!") {
				start = 5
			}
			linkLen := min(start+len(label)+lastParen, len(raw))
			dest = dest[:lastParen]
			raw = strings.TrimSpace(raw[:linkLen])
			title = ""
		}
	}

	href := dest
	if tz.opts.Pedantic {
		if pm := rules.PedanticHrefTitle.Exec(href); pm != nil {
			href, title = pm.Group(1), pm.Group(3)
		} else {
			title = ""
		}
	} else if len(title) >= 2 {
		title = title[1 : len(title)-1]
	}
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "<") {
		if tz.opts.Pedantic && !strings.HasSuffix(trimmedURL, ">") {
			href = href[1:]
		} else if len(href) >= 2 {
			href = href[1 : len(href)-1]
		} else {
			href = ""
		}
	}
	return tz.outputLink(label, LinkRef{Href: tz.unescape(href), Title: tz.unescape(title)}, raw)
}

func (tz *Tokenizer) outputLink(label string, ref LinkRef, raw string) Token {
	text := rules.OutputLinkReplace.ReplaceAll(label, "$1")
	tz.lx.state.InLink = true
	tokens := tz.lx.InlineTokens(text, nil)
	tz.lx.state.InLink = false
	if strings.HasPrefix(raw, "!") {
		return &Image{Span: Span{Raw: raw}, Href: ref.Href, Title: ref.Title, Text: text, Tokens: tokens}
	}
	return &Link{Span: Span{Raw: raw}, Href: ref.Href, Title: ref.Title, Text: text, Tokens: tokens}
}

func (tz *Tokenizer) reflink(src string) Token {
	in := tz.rules.Inline
	m := tz.exec(in.RefLink, src)
	if m == nil {
		m = tz.exec(in.NoLink, src)
	}
	if m == nil {
		return nil
	}
	label := m.Group(2)
	if label == "" {
		label = m.Group(1)
	}
	ref, ok := tz.lx.links[normalizeLabel(label)]
	if !ok {
		first := m.Text()[:1]
		return &Text{Span: Span{Raw: first}, Text: first}
	}
	return tz.outputLink(m.Group(1), ref, m.Text())
}

// emStrong matches a delimiter run against its closing run. masked is the
// masked copy of the whole inline source and prevChar the character before
// src.
func (tz *Tokenizer) emStrong(src, masked, prevChar string) Token {
	in := tz.rules.Inline
	m := tz.exec(in.EmStrongLDelim, src)
	if m == nil {
		return nil
	}
	// Underscore runs may not open inside a word.
	if m.Group(3) != "" && rules.UnicodeAlphaNumeric.Test(prevChar) {
		return nil
	}
	if (m.Group(1) != "" || m.Group(2) != "") && prevChar != "" && !in.Punctuation.Test(prevChar) {
		return nil
	}

	lLength := rules.RuneLen(m.Text()) - 1
	delimTotal, midDelimTotal := lLength, 0
	endRe := in.EmStrongRDelimAst
	if src[0] == '_' {
		endRe = in.EmStrongRDelimUnd
	}
	masked = tailFrom(masked, len(src)-lLength)

	for from := 0; from <= len(masked); {
		rm := tz.execFrom(endRe, masked, from)
		if rm == nil {
			break
		}
		from = nextFrom(masked, rm)

		rDelim := firstGroup(rm, 6)
		if rDelim == "" {
			continue
		}
		rLength := len(rDelim)
		if rm.Group(3) != "" || rm.Group(4) != "" {
			delimTotal += rLength
			continue
		} else if (rm.Group(5) != "" || rm.Group(6) != "") && lLength%3 != 0 && (lLength+rLength)%3 == 0 {
			midDelimTotal += rLength
			continue
		}

		delimTotal -= rLength
		if delimTotal > 0 {
			continue
		}
		// Trim the closing run when it is longer than the opening one.
		rLength = min(rLength, rLength+delimTotal+midDelimTotal)

		end := lLength + rm.Index + firstRuneLen(rm.Text()) + rLength
		if end > len(src) {
			return nil
		}
		raw := src[:end]
		if min(lLength, rLength)%2 == 1 {
			text := raw[1 : len(raw)-1]
			return &Em{Span: Span{Raw: raw}, Text: text, Tokens: tz.lx.InlineTokens(text, nil)}
		}
		text := raw[2 : len(raw)-2]
		return &Strong{Span: Span{Raw: raw}, Text: text, Tokens: tz.lx.InlineTokens(text, nil)}
	}
	return nil
}

func (tz *Tokenizer) codespan(src string) Token {
	m := tz.exec(tz.rules.Inline.Code, src)
	if m == nil {
		return nil
	}
	text := strings.ReplaceAll(m.Group(2), "\n", " ")
	hasNonSpace := strings.Trim(text, " ") != ""
	if hasNonSpace && strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") {
		text = text[1 : len(text)-1]
	}
	return &Codespan{Span: Span{Raw: m.Text()}, Text: text}
}

func (tz *Tokenizer) br(src string) Token {
	m := tz.exec(tz.rules.Inline.Br, src)
	if m == nil {
		return nil
	}
	return &Br{Span{Raw: m.Text()}}
}

// del matches gfm strikethrough. Opening and closing runs must have the same
// length.
func (tz *Tokenizer) del(src, masked, prevChar string) Token {
	in := tz.rules.Inline
	m := tz.exec(in.DelLDelim, src)
	if m == nil {
		return nil
	}
	if m.Group(1) != "" && prevChar != "" && !in.Punctuation.Test(prevChar) {
		return nil
	}

	lLength := rules.RuneLen(m.Text()) - 1
	delimTotal := lLength
	masked = tailFrom(masked, len(src)-lLength)

	for from := 0; from <= len(masked); {
		rm := tz.execFrom(in.DelRDelim, masked, from)
		if rm == nil {
			break
		}
		from = nextFrom(masked, rm)

		rDelim := firstGroup(rm, 6)
		if rDelim == "" || len(rDelim) != lLength {
			continue
		}
		rLength := len(rDelim)
		if rm.Group(3) != "" || rm.Group(4) != "" {
			delimTotal += rLength
			continue
		}
		delimTotal -= rLength
		if delimTotal > 0 {
			continue
		}
		rLength = min(rLength, rLength+delimTotal)

		end := lLength + rm.Index + firstRuneLen(rm.Text()) + rLength
		if end > len(src) {
			return nil
		}
		raw := src[:end]
		text := raw[lLength : len(raw)-lLength]
		return &Del{Span: Span{Raw: raw}, Text: text, Tokens: tz.lx.InlineTokens(text, nil)}
	}
	return nil
}

func (tz *Tokenizer) autolink(src string) Token {
	m := tz.exec(tz.rules.Inline.Autolink, src)
	if m == nil {
		return nil
	}
	text := m.Group(1)
	href := text
	if m.Group(2) == "@" {
		href = "mailto:" + text
	}
	return &Link{
		Span:   Span{Raw: m.Text()},
		Text:   text,
		Href:   href,
		Tokens: []Token{&Text{Span: Span{Raw: text}, Text: text}},
	}
}

func (tz *Tokenizer) url(src string) Token {
	in := tz.rules.Inline
	m := tz.exec(in.URL, src)
	if m == nil {
		return nil
	}
	raw := m.Text()
	var href string
	if m.Group(2) == "@" {
		href = "mailto:" + raw
	} else {
		// Drop trailing punctuation that is unlikely to belong to the URL.
		for {
			prev := raw
			if bm := in.Backpedal.Exec(raw); bm != nil {
				raw = bm.Text()
			} else {
				raw = ""
			}
			if raw == prev {
				break
			}
		}
		href = raw
		if m.Group(1) == "www." {
			href = "http://" + raw
		}
	}
	if raw == "" {
		return nil
	}
	return &Link{
		Span:   Span{Raw: raw},
		Text:   raw,
		Href:   href,
		Tokens: []Token{&Text{Span: Span{Raw: raw}, Text: raw}},
	}
}

func (tz *Tokenizer) inlineText(src string) Token {
	m := tz.exec(tz.rules.Inline.Text, src)
	if m == nil {
		return nil
	}
	return &Text{Span: Span{Raw: m.Text()}, Text: m.Text(), Escaped: tz.lx.state.InRawBlock}
}

// firstGroup returns the first non-empty capture among groups 1..n.
func firstGroup(m *rules.Match, n int) string {
	for i := 1; i <= n; i++ {
		if g := m.Group(i); g != "" {
			return g
		}
	}
	return ""
}

// tailFrom returns the last n bytes of s.
func tailFrom(s string, n int) string {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return ""
	}
	return s[len(s)-n:]
}

// nextFrom returns the offset to resume a global scan after m.
func nextFrom(s string, m *rules.Match) int {
	end := m.End()
	if end == m.Index {
		if end >= len(s) {
			return len(s) + 1
		}
		end += firstRuneLen(s[end:])
	}
	return end
}
