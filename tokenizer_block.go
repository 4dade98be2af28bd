package mdhtml

import (
	"strconv"
	"strings"
	"unicode"

	"pkt.systems/mdhtml/internal/rules"
)

func (tz *Tokenizer) space(src string) Token {
	m := tz.exec(tz.rules.Block.Newline, src)
	if m == nil || m.Text() == "" {
		return nil
	}
	return &Space{Span{Raw: m.Text()}}
}

func (tz *Tokenizer) code(src string) Token {
	m := tz.exec(tz.rules.Block.Code, src)
	if m == nil {
		return nil
	}
	text := rules.CodeRemoveIndent.ReplaceAll(m.Text(), "")
	if !tz.opts.Pedantic {
		text = rtrim(text, '\n')
	}
	return &Code{Span: Span{Raw: m.Text()}, Text: text, Indented: true}
}

func (tz *Tokenizer) fences(src string) Token {
	m := tz.exec(tz.rules.Block.Fences, src)
	if m == nil {
		return nil
	}
	raw := m.Text()
	lang := m.Group(2)
	if lang != "" {
		lang = tz.unescape(strings.TrimSpace(lang))
	}
	return &Code{
		Span: Span{Raw: raw},
		Lang: lang,
		Text: compensateFenceIndent(raw, m.Group(3)),
	}
}

func (tz *Tokenizer) heading(src string) Token {
	m := tz.exec(tz.rules.Block.Heading, src)
	if m == nil {
		return nil
	}
	text := strings.TrimSpace(m.Group(2))
	if strings.HasSuffix(text, "#") {
		trimmed := rtrim(text, '#')
		if tz.opts.Pedantic || trimmed == "" || strings.HasSuffix(trimmed, " ") {
			text = strings.TrimSpace(trimmed)
		}
	}
	h := &Heading{Span: Span{Raw: m.Text()}, Depth: len(m.Group(1)), Text: text}
	tz.lx.Inline(text, &h.Tokens)
	return h
}

func (tz *Tokenizer) hr(src string) Token {
	m := tz.exec(tz.rules.Block.Hr, src)
	if m == nil {
		return nil
	}
	return &Hr{Span{Raw: rtrim(m.Text(), '\n')}}
}

func (tz *Tokenizer) blockquote(src string) Token {
	m := tz.exec(tz.rules.Block.Blockquote, src)
	if m == nil {
		return nil
	}
	lines := strings.Split(rtrim(m.Text(), '\n'), "\n")
	var raw, text string
	var tokens []Token
	// resumed marks lines that continue a re-parsed list; they start with the
	// newline that followed it, so they join raw without another separator.
	resumed := false
	for len(lines) > 0 {
		inQuote := false
		var chunk []string
		i := 0
		for ; i < len(lines); i++ {
			if rules.BlockquoteStart.Test(lines[i]) {
				chunk = append(chunk, lines[i])
				inQuote = true
			} else if !inQuote {
				chunk = append(chunk, lines[i])
			} else {
				break
			}
		}
		lines = lines[i:]

		chunkRaw := strings.Join(chunk, "\n")
		chunkText := rules.BlockquoteSetextReplace.ReplaceAll(chunkRaw, "\n    $1")
		chunkText = rules.BlockquoteQuoteMarker.ReplaceAll(chunkText, "")
		if resumed {
			raw += chunkRaw
		} else {
			raw = joinNonEmpty(raw, chunkRaw)
		}
		text = joinNonEmpty(text, chunkText)
		resumed = false

		top := tz.lx.state.Top
		tz.lx.state.Top = true
		tokens = tz.lx.blockTokens(chunkText, tokens, true)
		tz.lx.state.Top = top

		if len(lines) == 0 {
			break
		}
		switch last := lastToken(tokens).(type) {
		case *Code:
			lines = nil
		case *Blockquote:
			rest := last.Raw + "\n" + strings.Join(lines, "\n")
			again, _ := tz.blockquote(rest).(*Blockquote)
			if again == nil {
				lines = nil
				break
			}
			tokens[len(tokens)-1] = again
			raw = dropTail(raw, len(last.Raw)) + again.Raw
			text = dropTail(text, len(last.Text)) + again.Text
			lines = nil
		case *List:
			rest := last.Raw + "\n" + strings.Join(lines, "\n")
			again, _ := tz.list(rest).(*List)
			if again == nil {
				lines = nil
				break
			}
			tokens[len(tokens)-1] = again
			raw = dropTail(raw, len(last.Raw)) + again.Raw
			text = dropTail(text, len(last.Raw)) + again.Raw
			tail := sliceFrom(rest, len(again.Raw))
			if tail == "" {
				lines = nil
				break
			}
			lines = strings.Split(tail, "\n")
			resumed = true
		}
	}
	return &Blockquote{Span: Span{Raw: raw}, Text: text, Tokens: tokens}
}

// unescape drops the backslash from escaped punctuation.
func (tz *Tokenizer) unescape(s string) string {
	return tz.rules.Inline.AnyPunctuation.ReplaceAll(s, "$1")
}

// dropTail removes the last n bytes of s.
func dropTail(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	return s[:len(s)-n]
}

func joinNonEmpty(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + "\n" + next
}

func (tz *Tokenizer) list(src string) Token {
	m := tz.exec(tz.rules.Block.List, src)
	if m == nil {
		return nil
	}
	bull := strings.TrimSpace(m.Group(1))
	list := &List{Ordered: len(bull) > 1}
	if list.Ordered {
		list.Start, _ = strconv.Atoi(bull[:len(bull)-1])
		bull = `\d{1,9}\` + bull[len(bull)-1:]
	} else {
		bull = `\` + bull
	}
	if tz.opts.Pedantic && !list.Ordered {
		bull = `[*+-]`
	}
	itemRe := rules.ListItem(bull)
	hr := tz.rules.Block.Hr

	var listRaw strings.Builder
	endsWithBlankLine := false
	for src != "" {
		m = tz.exec(itemRe, src)
		if m == nil || tz.test(hr, src) {
			break
		}
		itemRaw := m.Text()
		src = src[len(itemRaw):]

		marker := m.Group(1)
		line := expandTabs(firstLine(m.Group(2)), len(marker))
		nextLine := firstLine(src)
		blankLine := strings.TrimSpace(line) == ""

		indent := 0
		itemContents := ""
		switch {
		case tz.opts.Pedantic:
			indent = 2
			itemContents = strings.TrimLeftFunc(line, unicode.IsSpace)
		case blankLine:
			indent = len(marker) + 1
		default:
			indent = indexNonSpace(line)
			if indent > 4 {
				indent = 1
			}
			itemContents = line[indent:]
			indent += len(marker)
		}

		endEarly := false
		if blankLine && rules.BlankLine.Test(nextLine) {
			itemRaw += nextLine + "\n"
			src = sliceFrom(src, len(nextLine)+1)
			endEarly = true
		}

		if !endEarly {
			cont := rules.ForIndent(indent)
			for src != "" {
				rawLine := firstLine(src)
				nextLine = rawLine
				var noTabs string
				if tz.opts.Pedantic {
					nextLine = rules.ListReplaceNesting.ReplaceAll(nextLine, "  ")
					noTabs = nextLine
				} else {
					noTabs = strings.ReplaceAll(nextLine, "\t", "    ")
				}

				if cont.FencesBegin.Test(nextLine) || cont.HeadingBegin.Test(nextLine) ||
					cont.HTMLBegin.Test(nextLine) || cont.Blockquote.Test(nextLine) ||
					cont.NextBullet.Test(nextLine) || cont.Hr.Test(nextLine) {
					break
				}

				if indexNonSpace(noTabs) >= indent || strings.TrimSpace(nextLine) == "" {
					itemContents += "\n" + sliceFrom(noTabs, indent)
				} else {
					// Lazy continuation only follows paragraph text.
					if blankLine ||
						indexNonSpace(strings.ReplaceAll(line, "\t", "    ")) >= 4 ||
						cont.FencesBegin.Test(line) || cont.HeadingBegin.Test(line) || cont.Hr.Test(line) {
						break
					}
					itemContents += "\n" + nextLine
				}

				blankLine = strings.TrimSpace(nextLine) == ""
				itemRaw += rawLine + "\n"
				src = sliceFrom(src, len(rawLine)+1)
				line = sliceFrom(noTabs, indent)
			}
		}

		if !list.Loose {
			if endsWithBlankLine {
				list.Loose = true
			} else if rules.DoubleBlankLine.Test(itemRaw) {
				endsWithBlankLine = true
			}
		}

		list.Items = append(list.Items, &ListItem{
			Span: Span{Raw: itemRaw},
			Task: tz.opts.GFM && rules.ListIsTask.Test(itemContents),
			Text: itemContents,
		})
		listRaw.WriteString(itemRaw)
	}
	if len(list.Items) == 0 {
		return nil
	}
	last := list.Items[len(list.Items)-1]
	last.Raw = trimEnd(last.Raw)
	last.Text = trimEnd(last.Text)
	list.Raw = trimEnd(listRaw.String())

	for _, item := range list.Items {
		tz.lx.state.Top = false
		item.Tokens = tz.lx.blockTokens(item.Text, []Token{}, false)
		if item.Task {
			tz.stripTask(list, item)
		}
		if !list.Loose {
			for _, tok := range item.Tokens {
				if sp, ok := tok.(*Space); ok && rules.AnyLine.Test(sp.Raw) {
					list.Loose = true
					break
				}
			}
		}
	}

	if list.Loose {
		for _, item := range list.Items {
			item.Loose = true
			for i, tok := range item.Tokens {
				t, ok := tok.(*Text)
				if !ok {
					continue
				}
				p := &Paragraph{Span: t.Span, Text: t.Text, Tokens: t.Tokens}
				tz.lx.retarget(&t.Tokens, &p.Tokens)
				item.Tokens[i] = p
			}
		}
	}
	return list
}

// stripTask removes the task marker from a task item's text and first block
// and prefixes the item with a checkbox token.
func (tz *Tokenizer) stripTask(list *List, item *ListItem) {
	item.Text = rules.ListReplaceTask.ReplaceFirst(item.Text, "")
	var firstTokens *[]Token
	var firstRaw, firstText *string
	if len(item.Tokens) > 0 {
		switch first := item.Tokens[0].(type) {
		case *Text:
			firstTokens, firstRaw, firstText = &first.Tokens, &first.Raw, &first.Text
		case *Paragraph:
			firstTokens, firstRaw, firstText = &first.Tokens, &first.Raw, &first.Text
		}
	}
	if firstTokens != nil {
		*firstRaw = rules.ListReplaceTask.ReplaceFirst(*firstRaw, "")
		*firstText = rules.ListReplaceTask.ReplaceFirst(*firstText, "")
		queue := tz.lx.queue
		for i := len(queue) - 1; i >= 0; i-- {
			if rules.ListIsTask.Test(queue[i].src) {
				queue[i].src = rules.ListReplaceTask.ReplaceFirst(queue[i].src, "")
				break
			}
		}
	}

	m := rules.ListTaskCheckbox.Exec(item.Raw)
	if m == nil {
		return
	}
	box := &Checkbox{Span: Span{Raw: m.Text() + " "}, Checked: m.Text() != "[ ]"}
	item.Checked = box.Checked
	switch {
	case !list.Loose:
		item.Tokens = append([]Token{box}, item.Tokens...)
	case firstTokens != nil:
		*firstRaw = box.Raw + *firstRaw
		*firstText = box.Raw + *firstText
		*firstTokens = append([]Token{box}, *firstTokens...)
	default:
		p := &Paragraph{Span: Span{Raw: box.Raw}, Text: box.Raw, Tokens: []Token{box}}
		item.Tokens = append([]Token{p}, item.Tokens...)
	}
}

func (tz *Tokenizer) html(src string) Token {
	m := tz.exec(tz.rules.Block.HTML, src)
	if m == nil {
		return nil
	}
	tag := m.Group(1)
	return &HTML{
		Span:  Span{Raw: m.Text()},
		Block: true,
		Pre:   tag == "pre" || tag == "script" || tag == "style",
		Text:  m.Text(),
	}
}

func (tz *Tokenizer) def(src string) Token {
	m := tz.exec(tz.rules.Block.Def, src)
	if m == nil {
		return nil
	}
	href := m.Group(2)
	if href != "" {
		href = tz.unescape(rules.HrefBrackets.ReplaceAll(href, "$1"))
	}
	title := m.Group(3)
	if len(title) >= 2 {
		title = tz.unescape(title[1 : len(title)-1])
	}
	return &Def{
		Span:  Span{Raw: m.Text()},
		Tag:   normalizeLabel(m.Group(1)),
		Href:  href,
		Title: title,
	}
}

func (tz *Tokenizer) table(src string) Token {
	m := tz.exec(tz.rules.Block.Table, src)
	if m == nil || !rules.TableDelimiter.Test(m.Group(2)) {
		return nil
	}
	headers := splitCells(m.Group(1), 0)
	aligns := strings.Split(rules.TableAlignChars.ReplaceAll(m.Group(2), ""), "|")
	var rows []string
	if strings.TrimSpace(m.Group(3)) != "" {
		rows = strings.Split(rules.TableRowBlankLine.ReplaceFirst(m.Group(3), ""), "\n")
	}
	if len(headers) != len(aligns) {
		return nil
	}

	table := &Table{Span: Span{Raw: m.Text()}}
	for _, a := range aligns {
		switch {
		case rules.TableAlignRight.Test(a):
			table.Align = append(table.Align, AlignRight)
		case rules.TableAlignCenter.Test(a):
			table.Align = append(table.Align, AlignCenter)
		case rules.TableAlignLeft.Test(a):
			table.Align = append(table.Align, AlignLeft)
		default:
			table.Align = append(table.Align, AlignNone)
		}
	}
	for i, h := range headers {
		cell := &TableCell{Span: Span{Raw: h}, Text: h, Header: true, Align: table.Align[i]}
		tz.lx.Inline(h, &cell.Tokens)
		table.Header = append(table.Header, cell)
	}
	for _, row := range rows {
		cells := splitCells(row, len(table.Header))
		out := make([]*TableCell, 0, len(cells))
		for i, c := range cells {
			cell := &TableCell{Span: Span{Raw: c}, Text: c, Align: table.Align[i]}
			tz.lx.Inline(c, &cell.Tokens)
			out = append(out, cell)
		}
		table.Rows = append(table.Rows, out)
	}
	return table
}

func (tz *Tokenizer) lheading(src string) Token {
	m := tz.exec(tz.rules.Block.Lheading, src)
	if m == nil {
		return nil
	}
	depth := 2
	if strings.HasPrefix(m.Group(2), "=") {
		depth = 1
	}
	h := &Heading{Span: Span{Raw: m.Text()}, Depth: depth, Text: m.Group(1)}
	tz.lx.Inline(h.Text, &h.Tokens)
	return h
}

func (tz *Tokenizer) paragraph(src string) Token {
	m := tz.exec(tz.rules.Block.Paragraph, src)
	if m == nil {
		return nil
	}
	text := strings.TrimSuffix(m.Group(1), "\n")
	p := &Paragraph{Span: Span{Raw: m.Text()}, Text: text}
	tz.lx.Inline(text, &p.Tokens)
	return p
}

func (tz *Tokenizer) text(src string) Token {
	m := tz.exec(tz.rules.Block.Text, src)
	if m == nil {
		return nil
	}
	t := &Text{Span: Span{Raw: m.Text()}, Text: m.Text(), Tokens: []Token{}}
	tz.lx.Inline(t.Text, &t.Tokens)
	return t
}
