package mdhtml

// TokenType tags a token variant. Built-in types use the names below; tokens
// produced by extensions carry the extension's name.
type TokenType string

// Built-in token types.
const (
	TypeSpace      TokenType = "space"
	TypeCode       TokenType = "code"
	TypeHeading    TokenType = "heading"
	TypeHr         TokenType = "hr"
	TypeBlockquote TokenType = "blockquote"
	TypeList       TokenType = "list"
	TypeListItem   TokenType = "list_item"
	TypeCheckbox   TokenType = "checkbox"
	TypeHTML       TokenType = "html"
	TypeDef        TokenType = "def"
	TypeTable      TokenType = "table"
	TypeTableRow   TokenType = "tablerow"
	TypeTableCell  TokenType = "tablecell"
	TypeParagraph  TokenType = "paragraph"
	TypeText       TokenType = "text"
	TypeEscape     TokenType = "escape"
	TypeLink       TokenType = "link"
	TypeImage      TokenType = "image"
	TypeStrong     TokenType = "strong"
	TypeEm         TokenType = "em"
	TypeCodespan   TokenType = "codespan"
	TypeBr         TokenType = "br"
	TypeDel        TokenType = "del"
)

// Token is one recognized unit of Markdown structure.
type Token interface {
	// Type returns the variant tag.
	Type() TokenType
	// Source returns the exact source text the token consumed.
	Source() string
	span() *Span
}

// Span carries the raw source consumed by a token.
type Span struct {
	Raw string `json:"raw"`
}

// Source returns the raw source text.
func (s *Span) Source() string { return s.Raw }

func (s *Span) span() *Span { return s }

// Align is the alignment of a table column.
type Align string

// Column alignments. AlignNone renders no align attribute.
const (
	AlignNone   Align = ""
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// LinkRef is a resolved link reference definition.
type LinkRef struct {
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// Document is the result of lexing one source string.
type Document struct {
	Tokens []Token
	// Links maps normalized labels to their first definition.
	Links map[string]LinkRef
}

type (
	// Space is a run of blank lines.
	Space struct{ Span }

	// Hr is a thematic break.
	Hr struct{ Span }

	// Code is an indented or fenced code block.
	Code struct {
		Span
		Text     string `json:"text"`
		Lang     string `json:"lang,omitempty"`
		Indented bool   `json:"indented,omitempty"`
		// Escaped marks Text as ready-to-emit HTML.
		Escaped bool `json:"escaped,omitempty"`
	}

	// Heading is an ATX or setext heading.
	Heading struct {
		Span
		Depth  int     `json:"depth"`
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Blockquote holds the dequoted block content of a quote.
	Blockquote struct {
		Span
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// List is an ordered or bullet list.
	List struct {
		Span
		Ordered bool        `json:"ordered"`
		Start   int         `json:"start,omitempty"`
		Loose   bool        `json:"loose"`
		Items   []*ListItem `json:"items"`
	}

	// ListItem is one entry of a List.
	ListItem struct {
		Span
		Text    string  `json:"text"`
		Task    bool    `json:"task,omitempty"`
		Checked bool    `json:"checked,omitempty"`
		Loose   bool    `json:"loose"`
		Tokens  []Token `json:"tokens"`
	}

	// Checkbox is the task marker of a task list item.
	Checkbox struct {
		Span
		Checked bool `json:"checked"`
	}

	// HTML is a raw HTML block or inline tag.
	HTML struct {
		Span
		Text       string `json:"text"`
		Block      bool   `json:"block"`
		Pre        bool   `json:"pre,omitempty"`
		InLink     bool   `json:"inLink,omitempty"`
		InRawBlock bool   `json:"inRawBlock,omitempty"`
	}

	// Def is a link reference definition.
	Def struct {
		Span
		Tag   string `json:"tag"`
		Href  string `json:"href"`
		Title string `json:"title,omitempty"`
	}

	// Table is a gfm table.
	Table struct {
		Span
		Header []*TableCell   `json:"header"`
		Align  []Align        `json:"align"`
		Rows   [][]*TableCell `json:"rows"`
	}

	// TableCell is one header or body cell.
	TableCell struct {
		Span
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
		Header bool    `json:"header"`
		Align  Align   `json:"align,omitempty"`
	}

	// TableRow carries the rendered cells of one row to the tablerow renderer.
	TableRow struct {
		Span
		Text string `json:"text"`
	}

	// Paragraph is a block of inline content.
	Paragraph struct {
		Span
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Text is literal text. At block level it carries inline children.
	Text struct {
		Span
		Text    string  `json:"text"`
		Tokens  []Token `json:"tokens,omitempty"`
		Escaped bool    `json:"escaped,omitempty"`
	}

	// Escape is a backslash escaped punctuation character.
	Escape struct {
		Span
		Text string `json:"text"`
	}

	// Link is an inline, reference or autolinked anchor.
	Link struct {
		Span
		Href   string  `json:"href"`
		Title  string  `json:"title,omitempty"`
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Image is an inline or reference image.
	Image struct {
		Span
		Href   string  `json:"href"`
		Title  string  `json:"title,omitempty"`
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Strong is strong emphasis.
	Strong struct {
		Span
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Em is emphasis.
	Em struct {
		Span
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Del is gfm strikethrough.
	Del struct {
		Span
		Text   string  `json:"text"`
		Tokens []Token `json:"tokens"`
	}

	// Codespan is inline code.
	Codespan struct {
		Span
		Text string `json:"text"`
	}

	// Br is a hard line break.
	Br struct{ Span }

	// Custom is a token produced by an extension rule.
	Custom struct {
		Span
		Kind   string  `json:"type"`
		Text   string  `json:"text,omitempty"`
		Tokens []Token `json:"tokens,omitempty"`
		// Children holds additional named token lists, walked when the
		// extension lists them in Rule.ChildTokens.
		Children map[string][]Token `json:"children,omitempty"`
		// Data holds extension specific values.
		Data map[string]any `json:"data,omitempty"`
	}
)

func (*Space) Type() TokenType      { return TypeSpace }
func (*Hr) Type() TokenType         { return TypeHr }
func (*Code) Type() TokenType       { return TypeCode }
func (*Heading) Type() TokenType    { return TypeHeading }
func (*Blockquote) Type() TokenType { return TypeBlockquote }
func (*List) Type() TokenType       { return TypeList }
func (*ListItem) Type() TokenType   { return TypeListItem }
func (*Checkbox) Type() TokenType   { return TypeCheckbox }
func (*HTML) Type() TokenType       { return TypeHTML }
func (*Def) Type() TokenType        { return TypeDef }
func (*Table) Type() TokenType      { return TypeTable }
func (*TableCell) Type() TokenType  { return TypeTableCell }
func (*TableRow) Type() TokenType   { return TypeTableRow }
func (*Paragraph) Type() TokenType  { return TypeParagraph }
func (*Text) Type() TokenType       { return TypeText }
func (*Escape) Type() TokenType     { return TypeEscape }
func (*Link) Type() TokenType       { return TypeLink }
func (*Image) Type() TokenType      { return TypeImage }
func (*Strong) Type() TokenType     { return TypeStrong }
func (*Em) Type() TokenType         { return TypeEm }
func (*Del) Type() TokenType        { return TypeDel }
func (*Codespan) Type() TokenType   { return TypeCodespan }
func (*Br) Type() TokenType         { return TypeBr }

// Type returns the extension name the token was created under.
func (c *Custom) Type() TokenType { return TokenType(c.Kind) }

// childTokens returns the inline or block children a token owns, if any.
func childTokens(tok Token) ([]Token, bool) {
	switch t := tok.(type) {
	case *Heading:
		return t.Tokens, true
	case *Blockquote:
		return t.Tokens, true
	case *ListItem:
		return t.Tokens, true
	case *TableCell:
		return t.Tokens, true
	case *Paragraph:
		return t.Tokens, true
	case *Text:
		return t.Tokens, t.Tokens != nil
	case *Link:
		return t.Tokens, true
	case *Image:
		return t.Tokens, true
	case *Strong:
		return t.Tokens, true
	case *Em:
		return t.Tokens, true
	case *Del:
		return t.Tokens, true
	case *Custom:
		return t.Tokens, t.Tokens != nil
	}
	return nil, false
}

// tokenText returns the Text field of tokens that carry one.
func tokenText(tok Token) string {
	switch t := tok.(type) {
	case *Code:
		return t.Text
	case *Heading:
		return t.Text
	case *Blockquote:
		return t.Text
	case *ListItem:
		return t.Text
	case *HTML:
		return t.Text
	case *TableCell:
		return t.Text
	case *TableRow:
		return t.Text
	case *Paragraph:
		return t.Text
	case *Text:
		return t.Text
	case *Escape:
		return t.Text
	case *Link:
		return t.Text
	case *Image:
		return t.Text
	case *Strong:
		return t.Text
	case *Em:
		return t.Text
	case *Del:
		return t.Text
	case *Codespan:
		return t.Text
	case *Custom:
		return t.Text
	}
	return ""
}
