package rules

// Block is the block-level grammar of one mode.
type Block struct {
	Newline    *Pattern
	Code       *Pattern
	Fences     *Pattern
	Hr         *Pattern
	Heading    *Pattern
	Blockquote *Pattern
	List       *Pattern
	HTML       *Pattern
	Def        *Pattern
	Table      *Pattern
	Lheading   *Pattern
	Paragraph  *Pattern
	Text       *Pattern
}

const (
	newlineSrc = `^(?:[ \t]*(?:\n|$))+`
	codeSrc    = `^((?: {4}| {0,3}\t)[^\n]+(?:\n(?:[ \t]*(?:\n|$))*)?)+`
	fencesSrc  = "^ {0,3}(`{3,}(?=[^`\\n]*(?:\\n|$))|~{3,})([^\\n]*)(?:\\n|$)(?:|([\\s\\S]*?)(?:\\n|$))(?: {0,3}\\1[~`]* *(?=\\n|$)|$)"
	hrSrc      = `^ {0,3}((?:-[\t ]*){3,}|(?:_[ \t]*){3,}|(?:\*[ \t]*){3,})(?:\n+|$)`
	headingSrc = `^ {0,3}(#{1,6})(?=\s|$)(.*)(?:\n+|$)`
	bulletSrc  = ` {0,3}(?:[*+-]|\d{1,9}[.)])`
	blockText  = `^[^\n]+`

	lheadingTmpl = `^(?!bull |blockCode|fences|blockquote|heading|html|table)((?:.|\n(?!\s*?\n|bull |blockCode|fences|blockquote|heading|html|table))+?)\n {0,3}(=+|-+) *(?:\n+|$)`

	paragraphTmpl = `^([^\n]+(?:\n(?!hr|heading|lheading|blockquote|fences|list|html|table| +\n)[^\n]+)*)`

	labelSrc = `(?!\s*\])(?:\\[\s\S]|[^\[\]\\])+`

	blockTagNames = `address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|h[1-6]|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|meta|nav|noframes|ol|optgroup|option|p|param|search|section|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul`

	htmlCommentSrc = `<!--(?:-?>|[\s\S]*?(?:-->|$))`

	htmlBlockTmpl = `^ {0,3}(?:` +
		`<(script|pre|style|textarea)[\s>][\s\S]*?(?:</\1>[^\n]*\n+|$)` +
		`|comment[^\n]*(\n+|$)` +
		`|<\?[\s\S]*?(?:\?>\n*|$)` +
		`|<![A-Z][\s\S]*?(?:>\n*|$)` +
		`|<!\[CDATA\[[\s\S]*?(?:\]\]>\n*|$)` +
		`|</?(tag)(?: +|\n|/?>)[\s\S]*?(?:(?:\n[ \t]*)+\n|$)` +
		`|<(?!script|pre|style|textarea)([a-z][\w-]*)(?:attribute)*? */?>(?=[ \t]*(?:\n|$))[\s\S]*?(?:(?:\n[ \t]*)+\n|$)` +
		`|</(?!script|pre|style|textarea)[a-z][\w-]*\s*>(?=[ \t]*(?:\n|$))[\s\S]*?(?:(?:\n[ \t]*)+\n|$))`

	htmlAttributeSrc = ` +[a-zA-Z:_][\w.:-]*(?: *= *"[^"\n]*"| *= *'[^'\n]*'| *= *[^\s"'=<>` + "`" + `]+)?`

	paragraphHeading = ` {0,3}#{1,6}(?:\s|$)`
	paragraphFences  = " {0,3}(?:`{3,}(?=[^`\\n]*\\n)|~{3,})[^\\n]*\\n"
	paragraphList    = ` {0,3}(?:[*+-]|1[.)])[ \t]`
	paragraphHTML    = `</?(?:tag)(?: +|\n|/?>)|<(?:script|pre|style|textarea|!--)`

	gfmTableTmpl = `^ *([^\n ].*)\n {0,3}((?:\| *)?:?-+:? *(?:\| *:?-+:? *)*(?:\| *)?)(?:\n((?:(?! *\n|hr|heading|blockquote|code|fences|list|html).*(?:\n|$))*)\n*|$)`

	pedanticTag = `(?!(?:a|em|strong|small|s|cite|q|dfn|abbr|data|time|code|var|samp|kbd|sub|sup|i|b|u|mark|ruby|rt|rp|bdi|bdo|span|br|wbr|ins|del|img)\b)\w+(?!:|[^\w\s@]*@)\b`
)

func lheadingEditor() *Editor {
	return Edit(lheadingTmpl).
		ReplaceAll("bull", bulletSrc).
		ReplaceAll("blockCode", `(?: {4}| {0,3}\t)`).
		ReplaceAll("fences", " {0,3}(?:`{3,}|~{3,})").
		ReplaceAll("blockquote", ` {0,3}>`).
		ReplaceAll("heading", ` {0,3}#{1,6}`).
		ReplaceAll("html", ` {0,3}<[^\n>]+>\n`)
}

func normalParagraph() string {
	return Edit(paragraphTmpl).
		Replace("hr", hrSrc).
		Replace("heading", paragraphHeading).
		Replace("|lheading", "").
		Replace("|table", "").
		Replace("blockquote", ` {0,3}>`).
		Replace("fences", paragraphFences).
		Replace("list", paragraphList).
		Replace("html", paragraphHTML).
		Replace("tag", blockTagNames).
		Source()
}

func gfmTable() string {
	return Edit(gfmTableTmpl).
		Replace("hr", hrSrc).
		Replace("heading", paragraphHeading).
		Replace("blockquote", ` {0,3}>`).
		Replace("code", `(?: {4}| {0,3}\t)[^\n]`).
		Replace("fences", paragraphFences).
		Replace("list", paragraphList).
		Replace("html", paragraphHTML).
		Replace("tag", blockTagNames).
		Source()
}

func newNormalBlock() *Block {
	paragraph := normalParagraph()
	return &Block{
		Newline: Compile(newlineSrc),
		Code:    Compile(codeSrc),
		Fences:  Compile(fencesSrc),
		Hr:      Compile(hrSrc),
		Heading: Compile(headingSrc),
		Blockquote: Edit(`^( {0,3}> ?(paragraph|[^\n]*)(?:\n|$))+`).
			Replace("paragraph", paragraph).
			Compile(),
		List: Edit(`^(bull)([ \t][^\n]+?)?(?:\n|$)`).
			ReplaceAll("bull", bulletSrc).
			Compile(),
		HTML: Edit(htmlBlockTmpl).
			Replace("comment", htmlCommentSrc).
			Replace("tag", blockTagNames).
			Replace("attribute", htmlAttributeSrc).
			Compile(Insensitive),
		Def: Edit(`^ {0,3}\[(label)\]: *(?:\n[ \t]*)?([^<\s][^\s]*|<.*?>)(?:(?: +(?:\n[ \t]*)?| *\n[ \t]*)(title))? *(?:\n+|$)`).
			Replace("label", labelSrc).
			Replace("title", `(?:"(?:\\"?|[^"\\])*"|'[^'\n]*(?:\n[^'\n]+)*\n?'|\([^()]*\))`).
			Compile(),
		Table:     Never(),
		Lheading:  lheadingEditor().ReplaceAll("|table", "").Compile(),
		Paragraph: Compile(paragraph),
		Text:      Compile(blockText),
	}
}

func newGFMBlock(normal *Block) *Block {
	b := *normal
	table := gfmTable()
	b.Table = Compile(table)
	b.Lheading = lheadingEditor().
		ReplaceAll("table", ` {0,3}\|?(?:[:\- ]*\|)+[\:\- ]*\n`).
		Compile()
	b.Paragraph = Edit(paragraphTmpl).
		Replace("hr", hrSrc).
		Replace("heading", paragraphHeading).
		Replace("|lheading", "").
		Replace("table", table).
		Replace("blockquote", ` {0,3}>`).
		Replace("fences", paragraphFences).
		Replace("list", paragraphList).
		Replace("html", paragraphHTML).
		Replace("tag", blockTagNames).
		Compile()
	return &b
}

func newPedanticBlock(normal *Block) *Block {
	b := *normal
	b.HTML = Edit(`^ *(?:comment *(?:\n|\s*$)|<(tag)[\s\S]+?</\1> *(?:\n{2,}|\s*$)|<tag(?:"[^"]*"|'[^']*'|\s[^'"/>\s]*)*?/?> *(?:\n{2,}|\s*$))`).
		Replace("comment", htmlCommentSrc).
		ReplaceAll("tag", pedanticTag).
		Compile()
	b.Def = Compile(`^ *\[([^\]]+)\]: *<?([^\s>]+)>?(?: +(["(][^\n]+[")]))? *(?:\n+|$)`)
	b.Heading = Compile(`^(#{1,6})(.*)(?:\n+|$)`)
	b.Fences = Never()
	b.Lheading = Compile(`^(.+?)\n {0,3}(=+|-+) *(?:\n+|$)`)
	b.Paragraph = Edit(paragraphTmpl).
		Replace("hr", hrSrc).
		Replace("heading", ` *#{1,6} *[^\n]`).
		Replace("lheading", lheadingEditor().ReplaceAll("|table", "").Source()).
		Replace("|table", "").
		Replace("blockquote", ` {0,3}>`).
		Replace("|fences", "").
		Replace("|list", "").
		Replace("|html", "").
		Replace("|tag", "").
		Compile()
	return &b
}
