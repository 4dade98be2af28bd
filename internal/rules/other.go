package rules

import (
	"fmt"
	"sync"
)

// Helper patterns shared by every mode.
var (
	CodeRemoveIndent        = Compile(`^(?: {1,4}| {0,3}\t)`, Multiline)
	OutputLinkReplace       = Compile(`\\([\[\]])`)
	IndentCodeCompensation  = Compile("^(\\s+)(?:```)")
	BlankLine               = Compile(`^[ \t]*$`)
	DoubleBlankLine         = Compile(`\n[ \t]*\n[ \t]*$`)
	BlockquoteStart         = Compile(`^ {0,3}>`)
	BlockquoteSetextReplace = Compile(`\n {0,3}((?:=+|-+) *)(?=\n|$)`)
	BlockquoteQuoteMarker   = Compile(`^ {0,3}>[ \t]?`, Multiline)
	ListReplaceNesting      = Compile(`^ {1,4}(?=( {4})*[^ ])`)
	ListIsTask              = Compile(`^\[[ xX]\] +\S`)
	ListReplaceTask         = Compile(`^\[[ xX]\] +`)
	ListTaskCheckbox        = Compile(`\[[ xX]\]`)
	AnyLine                 = Compile(`\n.*\n`)
	HrefBrackets            = Compile(`^<(.*)>$`)
	TableDelimiter          = Compile(`[:|]`)
	TableAlignChars         = Compile(`^\||\| *$`)
	TableRowBlankLine       = Compile(`\n[ \t]*$`)
	TableAlignRight         = Compile(`^ *-+: *$`)
	TableAlignCenter        = Compile(`^ *:-+: *$`)
	TableAlignLeft          = Compile(`^ *:-+ *$`)
	StartATag               = Compile(`^<a `, Insensitive)
	EndATag                 = Compile(`^</a>`, Insensitive)
	StartPreScriptTag       = Compile(`^<(pre|code|kbd|script)(\s|>)`, Insensitive)
	EndPreScriptTag         = Compile(`^</(pre|code|kbd|script)(\s|>)`, Insensitive)
	PedanticHrefTitle       = Compile(`^([^'"]*[^\s])\s+(['"])(.*)\2`)
	UnicodeAlphaNumeric     = Compile(`[\p{L}\p{N}]`)
	MultipleSpace           = Compile(`\s+`)
	SpaceLine               = Compile(`^ +$`, Multiline)
	NotSpaceStart           = Compile(`^\S*`)
	CarriageReturn          = Compile(`\r\n|\r`)
	BeginningSpace          = Compile(`^\s+`)
)

// Set is the grammar selected for one combination of mode flags.
type Set struct {
	Block  *Block
	Inline *Inline
}

var (
	blockNormal    = newNormalBlock()
	blockGFM       = newGFMBlock(blockNormal)
	blockPedantic  = newPedanticBlock(blockNormal)
	inlineNormal   = newNormalInline()
	inlineGFM      = newGFMInline(inlineNormal)
	inlineBreaks   = newBreaksInline(inlineGFM)
	inlinePedantic = newPedanticInline(inlineNormal)
)

// Select returns the grammar for the given mode flags. Pedantic wins over
// gfm, and breaks only applies on top of gfm.
func Select(gfm, breaks, pedantic bool) Set {
	switch {
	case pedantic:
		return Set{Block: blockPedantic, Inline: inlinePedantic}
	case gfm && breaks:
		return Set{Block: blockGFM, Inline: inlineBreaks}
	case gfm:
		return Set{Block: blockGFM, Inline: inlineGFM}
	default:
		return Set{Block: blockNormal, Inline: inlineNormal}
	}
}

// Indented holds the list continuation checks for one content indent.
type Indented struct {
	NextBullet   *Pattern
	Hr           *Pattern
	FencesBegin  *Pattern
	HeadingBegin *Pattern
	HTMLBegin    *Pattern
	Blockquote   *Pattern
}

var indented [4]*Indented

func init() {
	for n := range indented {
		lead := fmt.Sprintf("^ {0,%d}", n)
		indented[n] = &Indented{
			NextBullet:   Compile(lead + `(?:[*+-]|\d{1,9}[.)])((?:[ \t][^\n]*)?(?:\n|$))`),
			Hr:           Compile(lead + `((?:- *){3,}|(?:_ *){3,}|(?:\* *){3,})(?:\n+|$)`),
			FencesBegin:  Compile(lead + "(?:```|~~~)"),
			HeadingBegin: Compile(lead + `#`),
			HTMLBegin:    Compile(lead+`<(?:[a-z].*>|!--)`, Insensitive),
			Blockquote:   Compile(lead + `>`),
		}
	}
}

// ForIndent returns the continuation checks for a list item whose content
// starts at column indent.
func ForIndent(indent int) *Indented {
	n := min(3, indent-1)
	if n < 0 {
		n = 0
	}
	return indented[n]
}

var listItems sync.Map

// ListItem returns the pattern matching one list item introduced by the
// given bullet expression.
func ListItem(bullet string) *Pattern {
	if p, ok := listItems.Load(bullet); ok {
		return p.(*Pattern)
	}
	p := Compile(`^( {0,3}` + bullet + `)((?:[\t ][^\n]*)?(?:\n|$))`)
	actual, _ := listItems.LoadOrStore(bullet, p)
	return actual.(*Pattern)
}
