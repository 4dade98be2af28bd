package mdhtml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexLooseListPromotesParagraphs(t *testing.T) {
	doc, err := Lex("- one\n\n- two\n")
	require.NoError(t, err)
	require.Len(t, doc.Tokens, 1)
	list, ok := doc.Tokens[0].(*List)
	require.True(t, ok)
	assert.True(t, list.Loose)
	require.Len(t, list.Items, 2)
	for _, item := range list.Items {
		assert.True(t, item.Loose)
		require.NotEmpty(t, item.Tokens)
		assert.IsType(t, &Paragraph{}, item.Tokens[0])
	}
}

func TestLexTightListKeepsText(t *testing.T) {
	doc, err := Lex("1. one\n2. two\n")
	require.NoError(t, err)
	list := doc.Tokens[0].(*List)
	assert.False(t, list.Loose)
	assert.True(t, list.Ordered)
	assert.Equal(t, 1, list.Start)
	assert.IsType(t, &Text{}, list.Items[0].Tokens[0])
}

func TestLexRecordsFirstDefinition(t *testing.T) {
	doc, err := Lex("[Foo  Bar]: /first \"T\"\n[foo bar]: /second\n\n[x][FOO BAR]\n")
	require.NoError(t, err)
	assert.Equal(t, LinkRef{Href: "/first", Title: "T"}, doc.Links["foo bar"])

	var link *Link
	require.NoError(t, Walk(t.Context(), doc.Tokens, func(_ context.Context, tok Token) error {
		if l, ok := tok.(*Link); ok {
			link = l
		}
		return nil
	}))
	require.NotNil(t, link)
	assert.Equal(t, "/first", link.Href)
	assert.Equal(t, "x", link.Text)
}

func TestLexRawCoversSource(t *testing.T) {
	src := "# h\n\npara one\nline two\n\n```\ncode\n```\n\n> q\n"
	doc, err := Lex(src)
	require.NoError(t, err)
	var raw string
	for _, tok := range doc.Tokens {
		raw += tok.Source()
	}
	assert.Equal(t, src, raw)
}

func TestLexCarriageReturns(t *testing.T) {
	doc, err := Lex("a\r\nb\r\n")
	require.NoError(t, err)
	p := doc.Tokens[0].(*Paragraph)
	assert.Equal(t, "a\nb", p.Text)
}

func TestLexCodespanTrimsOneSpace(t *testing.T) {
	tokens, err := LexInline("`` `a` ``")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "`a`", tokens[0].(*Codespan).Text)
}

func TestLexFenceInfo(t *testing.T) {
	doc, err := Lex("~~~ js extra\nx\n~~~\n")
	require.NoError(t, err)
	code := doc.Tokens[0].(*Code)
	assert.Equal(t, "js extra", code.Lang)
	assert.Equal(t, "x", code.Text)
	assert.False(t, code.Indented)
}

func TestLexTableShape(t *testing.T) {
	doc, err := Lex("| a | b |\n|---|:-:|\n| 1 |\n")
	require.NoError(t, err)
	table := doc.Tokens[0].(*Table)
	assert.Equal(t, []Align{AlignNone, AlignCenter}, table.Align)
	require.Len(t, table.Rows, 1)
	require.Len(t, table.Rows[0], 2)
	assert.Equal(t, "", table.Rows[0][1].Text)
	assert.True(t, table.Header[0].Header)
}

func TestLexHeadingTrimsClosingHashes(t *testing.T) {
	doc, err := Lex("## Title ##\n")
	require.NoError(t, err)
	h := doc.Tokens[0].(*Heading)
	assert.Equal(t, 2, h.Depth)
	assert.Equal(t, "Title", h.Text)
}

func TestLexInlineState(t *testing.T) {
	tokens, err := LexInline(`<a href="x">https://example.com</a>`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	open := tokens[0].(*HTML)
	assert.True(t, open.InLink)
	assert.IsType(t, &Text{}, tokens[1], "urls inside anchors stay text")
}

func TestLexPedanticExpandsTabs(t *testing.T) {
	doc, err := Lex("\tcode\n", WithPedantic(true))
	require.NoError(t, err)
	code := doc.Tokens[0].(*Code)
	assert.Equal(t, "    code\n", code.Raw)
	assert.Equal(t, "code\n", code.Text, "pedantic code keeps trailing newlines")
}

func TestBlockquoteLazyContinuationAfterList(t *testing.T) {
	tests := []struct {
		name string
		src  string
		item string
	}{
		{name: "list swallows the tail", src: "> - a\nb", item: "<li>a\nb</li>"},
		{name: "list after quoted paragraph", src: "> a\n> - b\nc\nd", item: "<li>b\nc\nd</li>"},
		{name: "trailing newline", src: "> - a\nb\n", item: "<li>a\nb</li>"},
		{name: "lines after the list", src: "> - a\nb\n> c\n", item: "<li>a\nb"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Lex(tc.src)
			require.NoError(t, err)
			require.NotEmpty(t, doc.Tokens)
			quote, ok := doc.Tokens[0].(*Blockquote)
			require.True(t, ok)
			assert.LessOrEqual(t, len(quote.Raw), len(tc.src))
			assert.Equal(t, tc.src[:len(quote.Raw)], quote.Raw)

			out, err := Parse(context.Background(), tc.src)
			require.NoError(t, err)
			assert.Contains(t, out, tc.item)
			assert.Equal(t, 1, countElements(t, out)["blockquote"])
		})
	}
}

func TestBlockquoteNestedLazyContinuation(t *testing.T) {
	for _, src := range []string{"> > a\nb", "> > - a\nb\n", "> a\n> > b\nc", "> - *~[(> \n`"} {
		assert.NotPanics(t, func() {
			_, err := Parse(context.Background(), src)
			assert.NoError(t, err, "%q", src)
		}, "%q", src)
	}
}

func TestLongDocumentRendersLikeItsSections(t *testing.T) {
	section := "# Rubrik ä ✓\n\nSå *här* och **där** ~~ü~~ `kod`.\n\n" +
		"- första\n- andra ö\n\n> citat é\n\n```\nblock ß\n```\n\n" +
		"| a | b |\n| - | - |\n| ü | ✓ |\n\n"
	one, err := Parse(context.Background(), section)
	require.NoError(t, err)
	const n = 64
	all, err := Parse(context.Background(), strings.Repeat(section, n))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(one, n), all)
}
