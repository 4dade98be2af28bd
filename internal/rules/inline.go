package rules

// Inline is the inline-level grammar of one mode.
type Inline struct {
	Escape            *Pattern
	Tag               *Pattern
	Link              *Pattern
	RefLink           *Pattern
	NoLink            *Pattern
	RefLinkSearch     *Pattern
	EmStrongLDelim    *Pattern
	EmStrongRDelimAst *Pattern
	EmStrongRDelimUnd *Pattern
	DelLDelim         *Pattern
	DelRDelim         *Pattern
	Code              *Pattern
	Br                *Pattern
	Autolink          *Pattern
	URL               *Pattern
	Backpedal         *Pattern
	Text              *Pattern
	Punctuation       *Pattern
	BlockSkip         *Pattern
	AnyPunctuation    *Pattern
}

const bt = "`"

const (
	punct          = `[\p{P}\p{S}]`
	punctSpace     = `[\s\p{P}\p{S}]`
	notPunctSpace  = `[^\s\p{P}\p{S}]`
	gfmPunct       = `(?!~)[\p{P}\p{S}]`
	gfmPunctSpace  = `(?!~)[\s\p{P}\p{S}]`
	gfmNotPunct    = `(?:[^\s\p{P}\p{S}]|~)`
	delPunct       = `(?![*_])[\p{P}\p{S}]`
	delPunctSpace  = `(?![*_])[\s\p{P}\p{S}]`
	delNotPunct    = `(?:[^\s\p{P}\p{S}]|[*_])`
	inlineEscape   = `^\\([!"#$%&'()*+,\-./:;<=>?@\[\]\\^_` + bt + `{|}~])`
	inlineCode     = `^(` + bt + `+)([^` + bt + `]|[^` + bt + `][\s\S]*?[^` + bt + `])\1(?!` + bt + `)`
	inlineBr       = `^( {2,}|\\)\n(?!\s*$)`
	inlineText     = `^(` + bt + `+|[^` + bt + `])(?:(?= {2,}\n)|[\s\S]*?(?:(?=[\\<!\[` + bt + `*_]|\b_|$)|[^ ](?= {2,}\n)))`
	emStrongLDelim = `^(?:\*+(?:((?!\*)punct)|[^\s*]))|^_+(?:((?!_)punct)|([^\s_]))`

	emStrongRDelimAstTmpl = `^[^_*]*?__[^_*]*?\*[^_*]*?(?=__)|[^*]+(?=[^*])|(?!\*)punct(\*+)(?=[\s]|$)|notPunctSpace(\*+)(?!\*)(?=punctSpace|$)|(?!\*)punctSpace(\*+)(?=notPunctSpace)|[\s](\*+)(?!\*)(?=punct)|(?!\*)punct(\*+)(?!\*)(?=punct)|notPunctSpace(\*+)(?=notPunctSpace)`
	emStrongRDelimUndTmpl = `^[^_*]*?\*\*[^_*]*?_[^_*]*?(?=\*\*)|[^_]+(?=[^_])|(?!_)punct(_+)(?=[\s]|$)|notPunctSpace(_+)(?!_)(?=punctSpace|$)|(?!_)punctSpace(_+)(?=notPunctSpace)|[\s](_+)(?!_)(?=punct)|(?!_)punct(_+)(?!_)(?=punct)`
	delRDelimTmpl         = `^[^~]+(?=[^~])|(?!~)punct(~~?)(?=[\s]|$)|notPunctSpace(~~?)(?!~)(?=punctSpace|$)|(?!~)punctSpace(~~?)(?=notPunctSpace)|[\s](~~?)(?!~)(?=punct)|(?!~)punct(~~?)(?!~)(?=punct)|notPunctSpace(~~?)(?=notPunctSpace)`

	linkLabel = `(?:\[(?:\\[\s\S]|[^\[\]\\])*\]|\\[\s\S]|` + bt + `+[^` + bt + `]*?` + bt + `+(?!` + bt + `)|[^\[\]\\` + bt + `])*?`
	linkHref  = `<(?:\\.|[^\n<>\\])+>|[^ \t\n\x00-\x1f]*`
	linkTitle = `"(?:\\"?|[^"\\])*"|'(?:\\'?|[^'\\])*'|\((?:\\\)?|[^)\\])*\)`

	inlineCommentSrc = `<!--(?:-?>|[\s\S]*?-->)`
	inlineAttribute  = `\s+[a-zA-Z:_][\w.:-]*(?:\s*=\s*"[^"]*"|\s*=\s*'[^']*'|\s*=\s*[^\s"'=<>` + bt + `]+)?`

	autolinkEmail = `[a-zA-Z0-9.!#$%&'*+/=?^_` + bt + `{|}~-]+(@)[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+(?![-_])`
	urlProtocol   = `[hH][tT][tT][pP][sS]?|[fF][tT][pP]`
	urlEmail      = `[A-Za-z0-9._+-]+(@)[a-zA-Z0-9_-]+(?:\.[a-zA-Z0-9_-]*[a-zA-Z0-9])+(?![-_])`
	emailChars    = `[a-zA-Z0-9.!#$%&'*+\/=?_` + bt + `{\|}~-]`

	gfmTextTmpl = `^([` + bt + `~]+|[^` + bt + `~])(?:(?= {2,}\n)|(?=` + emailChars + `+@)|[\s\S]*?(?:(?=[\\<!\[` + bt + `*~_]|\b_|protocol:\/\/|www\.|$)|[^ ](?= {2,}\n)|[^a-zA-Z0-9.!#$%&'*+\/=?_` + bt + `{\|}~-](?=` + emailChars + `+@)))`
)

func delimiter(tmpl, notPS, ps, p string) *Pattern {
	return Edit(tmpl).
		ReplaceAll("notPunctSpace", notPS).
		ReplaceAll("punctSpace", ps).
		ReplaceAll("punct", p).
		Compile()
}

func newNormalInline() *Inline {
	refLink := Edit(`^!?\[(label)\]\[(ref)\]`).
		Replace("label", linkLabel).
		Replace("ref", labelSrc).
		Source()
	noLink := Edit(`^!?\[(ref)\](?:\[\])?`).
		Replace("ref", labelSrc).
		Source()
	return &Inline{
		Escape: Compile(inlineEscape),
		Tag: Edit(`^comment|^</[a-zA-Z][\w:-]*\s*>|^<[a-zA-Z][\w-]*(?:attribute)*?\s*/?>|^<\?[\s\S]*?\?>|^<![a-zA-Z]+\s[\s\S]*?>|^<!\[CDATA\[[\s\S]*?\]\]>`).
			Replace("comment", inlineCommentSrc).
			Replace("attribute", inlineAttribute).
			Compile(),
		Link: Edit(`^!?\[(label)\]\(\s*(href)(?:(?:[ \t]*(?:\n[ \t]*)?)(title))?\s*\)`).
			Replace("label", linkLabel).
			Replace("href", linkHref).
			Replace("title", linkTitle).
			Compile(),
		RefLink: Compile(refLink),
		NoLink:  Compile(noLink),
		RefLinkSearch: Edit(`reflink|nolink(?!\()`).
			Replace("reflink", refLink).
			Replace("nolink", noLink).
			Compile(),
		EmStrongLDelim:    Edit(emStrongLDelim).ReplaceAll("punct", punct).Compile(),
		EmStrongRDelimAst: delimiter(emStrongRDelimAstTmpl, notPunctSpace, punctSpace, punct),
		EmStrongRDelimUnd: delimiter(emStrongRDelimUndTmpl, notPunctSpace, punctSpace, punct),
		DelLDelim:         Never(),
		DelRDelim:         Never(),
		Code:              Compile(inlineCode),
		Br:                Compile(inlineBr),
		Autolink: Edit(`^<(scheme:[^\s\x00-\x1f<>]*|email)>`).
			Replace("scheme", `[a-zA-Z][a-zA-Z0-9+.-]{1,31}`).
			Replace("email", autolinkEmail).
			Compile(),
		URL:         Never(),
		Backpedal:   Never(),
		Text:        Compile(inlineText),
		Punctuation: Edit(`^((?![*_])punctSpace)`).ReplaceAll("punctSpace", punctSpace).Compile(),
		BlockSkip: Edit(`link|precode-code|html`).
			Replace("link", `\[(?:[^\[\]`+bt+`]|(?<a>`+bt+`+)[^`+bt+`]+\k<a>(?!`+bt+`))*?\]\((?:\\[\s\S]|[^\\\(\)]|\((?:\\[\s\S]|[^\\\(\)])*\))*\)`).
			Replace("precode-", `(?<!`+bt+`)`).
			Replace("code", `(?<b>`+bt+`+)[^`+bt+`]+\k<b>(?!`+bt+`)`).
			Replace("html", `<(?! )[^<>]*?>`).
			Compile(),
		AnyPunctuation: Edit(`\\(punct)`).ReplaceAll("punct", punct).Compile(),
	}
}

func newPedanticInline(normal *Inline) *Inline {
	in := *normal
	in.Link = Edit(`^!?\[(label)\]\((.*?)\)`).Replace("label", linkLabel).Compile()
	in.RefLink = Edit(`^!?\[(label)\]\s*\[([^\]]*)\]`).Replace("label", linkLabel).Compile()
	return &in
}

func newGFMInline(normal *Inline) *Inline {
	in := *normal
	in.EmStrongRDelimAst = delimiter(emStrongRDelimAstTmpl, gfmNotPunct, gfmPunctSpace, gfmPunct)
	in.EmStrongLDelim = Edit(emStrongLDelim).ReplaceAll("punct", gfmPunct).Compile()
	in.DelLDelim = Edit(`^~~?(?:((?!~)punct)|[^\s~])`).ReplaceAll("punct", delPunct).Compile()
	in.DelRDelim = delimiter(delRDelimTmpl, delNotPunct, delPunctSpace, delPunct)
	in.URL = Edit(`^((?:protocol):\/\/|www\.)(?:[a-zA-Z0-9\-]+\.?)+[^\s<]*|^email`).
		Replace("protocol", urlProtocol).
		Replace("email", urlEmail).
		Compile()
	in.Backpedal = Compile(`(?:[^?!.,:;*_'"~()&]+|\([^)]*\)|&(?![a-zA-Z0-9]+;$)|[?!.,:;*_'"~)]+(?!$))+`)
	in.Text = Compile(Edit(gfmTextTmpl).Replace("protocol", urlProtocol).Source())
	return &in
}

func newBreaksInline(gfm *Inline) *Inline {
	in := *gfm
	in.Br = Edit(inlineBr).Replace("{2,}", "*").Compile()
	in.Text = Edit(Edit(gfmTextTmpl).Replace("protocol", urlProtocol).Source()).
		Replace(`\b_`, `\b_| {2,}\n`).
		ReplaceAll("{2,}", "*").
		Compile()
	return &in
}
