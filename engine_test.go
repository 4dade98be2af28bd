package mdhtml

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, exts ...Extension) *Engine {
	t.Helper()
	e, err := New(exts...)
	require.NoError(t, err)
	return e
}

func TestParseScenarios(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"heading", "# Hello", "<h1>Hello</h1>\n"},
		{"strong", "a **b** c", "<p>a <strong>b</strong> c</p>\n"},
		{"mismatched runs", "***a**", "<p>*<strong>a</strong></p>\n"},
		{"fence escapes", "```go\n<a>&\n```", "<pre><code class=\"language-go\">&lt;a&gt;&amp;\n</code></pre>\n"},
		{"unterminated fence", "```\ncode", "<pre><code>code\n</code></pre>\n"},
		{"tight list", "- a\n- b", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
		{"loose list", "- a\n\n- b", "<ul>\n<li><p>a</p>\n</li>\n<li><p>b</p>\n</li>\n</ul>\n"},
		{"unresolved reference", "[foo][bar]", "<p>[foo][bar]</p>\n"},
		{
			"extra table cell",
			"A|B\n-|-\n1|2|3",
			"<table>\n<thead>\n<tr>\n<th>A</th>\n<th>B</th>\n</tr>\n</thead>\n<tbody><tr>\n<td>1</td>\n<td>2</td>\n</tr>\n</tbody></table>\n",
		},
		{"task item", "- [x] done", "<ul>\n<li><input checked=\"\" disabled=\"\" type=\"checkbox\"> done</li>\n</ul>\n"},
		{"strikethrough", "~~gone~~", "<p><del>gone</del></p>\n"},
		{"ordered start", "3. three\n4. four", "<ol start=\"3\">\n<li>three</li>\n<li>four</li>\n</ol>\n"},
		{"hr", "***", "<hr>\n"},
		{"blockquote", "> quote", "<blockquote>\n<p>quote</p>\n</blockquote>\n"},
		{"escaped text", "a < b & c", "<p>a &lt; b &amp; c</p>\n"},
	}
	e := newEngine(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.Parse(context.Background(), tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderedOutputIsStable(t *testing.T) {
	e := newEngine(t)
	first, err := e.Parse(context.Background(), "a < b & c")
	require.NoError(t, err)
	second, err := e.Parse(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, second, "&lt;")
	assert.NotContains(t, second, "&amp;lt;")
}

func TestParseTokensIsDeterministic(t *testing.T) {
	e := newEngine(t)
	doc, err := e.Lex("# T\n\n- [ ] a\n- b *c*\n\n| x | y |\n|:-|-:|\n| 1 | 2 |\n")
	require.NoError(t, err)
	first, err := e.ParseTokens(doc.Tokens)
	require.NoError(t, err)
	second, err := e.ParseTokens(doc.Tokens)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first, `<th align="left">x</th>`)
	assert.Contains(t, first, `<td align="right">2</td>`)
}

func TestParseInline(t *testing.T) {
	got, err := newEngine(t).ParseInline(context.Background(), "*a* `b`")
	require.NoError(t, err)
	assert.Equal(t, "<em>a</em> <code>b</code>", got)
}

func TestSyncParseAfterAsyncExtension(t *testing.T) {
	e := newEngine(t, Extension{Async: true})
	assert.True(t, e.Defaults().Async)

	_, err := e.Parse(context.Background(), "x")
	require.ErrorIs(t, err, ErrAsyncConflict)

	_, err = e.Parse(context.Background(), "x", WithSilent(true))
	require.ErrorIs(t, err, ErrAsyncConflict)

	_, err = e.ParseAsync(context.Background(), "x", WithAsync(false)).Wait()
	require.ErrorIs(t, err, ErrAsyncConflict)

	got, err := e.ParseAsync(context.Background(), "**x**").Wait()
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>x</strong></p>\n", got)
}

func TestAsyncLatchSurvivesLaterExtensions(t *testing.T) {
	e := newEngine(t, Extension{Async: true})
	require.NoError(t, e.Use(Extension{Options: []Option{WithAsync(false)}}))
	assert.True(t, e.Defaults().Async)
}

func TestParseAsyncOnSyncEngine(t *testing.T) {
	p := newEngine(t).ParseAsync(context.Background(), "# a")
	<-p.Done()
	got, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, "<h1>a</h1>\n", got)
}

func TestUseRejectsBadExtensions(t *testing.T) {
	cases := []struct {
		name string
		ext  Extension
		want error
	}{
		{"unnamed rule", Extension{Rules: []Rule{{Level: LevelInline}}}, ErrExtensionName},
		{"bad level", Extension{Rules: []Rule{{Name: "x", Level: "middle", Tokenize: func(*Lexer, string, []Token) Token { return nil }}}}, ErrExtensionLevel},
		{"unknown renderer", Extension{Renderer: map[string]RenderFunc{"marquee": func(*Parser, Token) (string, bool) { return "", false }}}, ErrUnknownRenderer},
		{"unknown tokenizer", Extension{Tokenizer: map[string]TokenizerFunc{"marquee": func(*Tokenizer, string) (Token, bool) { return nil, false }}}, ErrUnknownTokenizer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t)
			err := e.Use(Extension{Async: true}, tc.ext)
			require.ErrorIs(t, err, tc.want)
			assert.False(t, e.Defaults().Async, "failed Use must not change the engine")
		})
	}
}

func TestRenderOnlyRuleNeedsNoLevel(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.Use(Extension{Rules: []Rule{{
		Name:   "paragraph",
		Render: func(*Parser, Token) (string, bool) { return "", false },
	}}}))
	got, err := e.Parse(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "<p>p</p>\n", got)
}

func varRule() Rule {
	return Rule{
		Name:  "var",
		Level: LevelInline,
		Start: func(src string) int { return strings.Index(src, "{{") },
		Tokenize: func(_ *Lexer, src string, _ []Token) Token {
			if !strings.HasPrefix(src, "{{") {
				return nil
			}
			end := strings.Index(src, "}}")
			if end < 0 {
				return nil
			}
			return &Custom{Span: Span{Raw: src[:end+2]}, Kind: "var", Text: src[2:end]}
		},
		Render: func(_ *Parser, tok Token) (string, bool) {
			return "<var>" + EscapeHTML(tok.(*Custom).Text, false) + "</var>", true
		},
	}
}

func TestInlineExtensionRule(t *testing.T) {
	e := newEngine(t, Extension{Rules: []Rule{varRule()}})
	got, err := e.Parse(context.Background(), "Hello {{who}}!")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello <var>who</var>!</p>\n", got)
}

func TestBlockExtensionRule(t *testing.T) {
	note := Rule{
		Name:  "note",
		Level: LevelBlock,
		Start: func(src string) int { return strings.Index(src, "\n!!") },
		Tokenize: func(lx *Lexer, src string, _ []Token) Token {
			if !strings.HasPrefix(src, "!! ") {
				return nil
			}
			line := firstLine(src)
			raw := line
			if len(src) > len(line) {
				raw += "\n"
			}
			tok := &Custom{Span: Span{Raw: raw}, Kind: "note", Text: line[3:]}
			lx.Inline(tok.Text, &tok.Tokens)
			return tok
		},
		Render: func(p *Parser, tok Token) (string, bool) {
			return "<aside>" + p.ParseInline(tok.(*Custom).Tokens) + "</aside>\n", true
		},
	}
	e := newEngine(t, Extension{Rules: []Rule{note}})
	got, err := e.Parse(context.Background(), "para\n!! *careful*\n")
	require.NoError(t, err)
	assert.Equal(t, "<p>para</p>\n<aside><em>careful</em></aside>\n", got)
}

func TestRendererOverrideFallsBack(t *testing.T) {
	e := newEngine(t, Extension{Renderer: map[string]RenderFunc{
		"heading": func(p *Parser, tok Token) (string, bool) {
			h := tok.(*Heading)
			if h.Depth != 1 {
				return "", false
			}
			return `<h1 class="title">` + p.ParseInline(h.Tokens) + "</h1>\n", true
		},
	}})
	got, err := e.Parse(context.Background(), "# A\n\n## B")
	require.NoError(t, err)
	assert.Equal(t, "<h1 class=\"title\">A</h1>\n<h2>B</h2>\n", got)
}

func TestRendererOverridesChainNewestFirst(t *testing.T) {
	wrap := func(tag string) Extension {
		return Extension{Renderer: map[string]RenderFunc{
			"codespan": func(p *Parser, tok Token) (string, bool) {
				if tag == "samp" && tok.(*Codespan).Text != "x" {
					return "", false
				}
				return "<" + tag + ">" + tok.(*Codespan).Text + "</" + tag + ">", true
			},
		}}
	}
	e := newEngine(t, wrap("kbd"), wrap("samp"))
	got, err := e.ParseInline(context.Background(), "`x` `y`")
	require.NoError(t, err)
	assert.Equal(t, "<samp>x</samp> <kbd>y</kbd>", got)
}

func TestTokenizerOverride(t *testing.T) {
	e := newEngine(t, Extension{Tokenizer: map[string]TokenizerFunc{
		"heading": func(*Tokenizer, string) (Token, bool) { return nil, true },
	}})
	got, err := e.Parse(context.Background(), "# A")
	require.NoError(t, err)
	assert.Equal(t, "<p># A</p>\n", got)
}

func TestTokenizerOverrideDelegates(t *testing.T) {
	calls := 0
	e := newEngine(t, Extension{Tokenizer: map[string]TokenizerFunc{
		"codespan": func(tz *Tokenizer, src string) (Token, bool) {
			calls++
			return nil, false
		},
	}})
	got, err := e.ParseInline(context.Background(), "`a`")
	require.NoError(t, err)
	assert.Equal(t, "<code>a</code>", got)
	assert.Positive(t, calls)
}

func TestStringHooksCompose(t *testing.T) {
	suffix := func(s string) Extension {
		return Extension{Hooks: &Hooks{
			Preprocess: func(_ context.Context, src string) (string, error) { return src + s, nil },
			Postprocess: func(_ context.Context, html string) (string, error) {
				return html + "|" + s, nil
			},
		}}
	}
	e := newEngine(t, suffix("1"), suffix("2"))
	got, err := e.ParseInline(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x21|2|1", got)
}

func TestProcessAllTokensHook(t *testing.T) {
	e := newEngine(t, Extension{Hooks: &Hooks{
		ProcessAllTokens: func(_ context.Context, doc *Document) (*Document, error) {
			doc.Tokens = append(doc.Tokens, &Hr{Span{Raw: "---"}})
			return doc, nil
		},
	}})
	got, err := e.Parse(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>\n<hr>\n", got)
}

func TestEmStrongMaskHook(t *testing.T) {
	e := newEngine(t, Extension{Hooks: &Hooks{
		EmStrongMask: func(masked string) string { return strings.ReplaceAll(masked, "*", "+") },
	}})
	got, err := e.ParseInline(context.Background(), "*a*")
	require.NoError(t, err)
	assert.Equal(t, "*a*", got)
}

func TestProvideParserWraps(t *testing.T) {
	e := newEngine(t, Extension{Hooks: &Hooks{
		ProvideParser: func(block bool, next ParseFunc) ParseFunc {
			if !block {
				return nil
			}
			return func(ctx context.Context, doc *Document) (string, error) {
				out, err := next(ctx, doc)
				return strings.ToUpper(out), err
			}
		},
	}})
	got, err := e.Parse(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "<P>HI</P>\n", got)

	got, err = e.ParseInline(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestProvideLexerReplaces(t *testing.T) {
	e := newEngine(t, Extension{Hooks: &Hooks{
		ProvideLexer: func(bool, LexFunc) LexFunc {
			return func(context.Context, string) (*Document, error) {
				return &Document{Tokens: []Token{&Hr{}}}, nil
			}
		},
	}})
	got, err := e.Parse(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "<hr>\n", got)
}

func TestWalkTokensRewrites(t *testing.T) {
	var order []string
	record := func(tag string) WalkFunc {
		return func(_ context.Context, tok Token) error {
			if tok.Type() == TypeHeading {
				order = append(order, tag)
			}
			return nil
		}
	}
	upper := func(_ context.Context, tok Token) error {
		if text, ok := tok.(*Text); ok {
			text.Text = strings.ToUpper(text.Text)
		}
		return nil
	}
	e := newEngine(t,
		Extension{WalkTokens: record("old")},
		Extension{WalkTokens: upper},
		Extension{WalkTokens: record("new")},
	)
	got, err := e.Parse(context.Background(), "# a\n\nb *c*")
	require.NoError(t, err)
	assert.Equal(t, "<h1>A</h1>\n<p>B <em>C</em></p>\n", got)
	assert.Equal(t, []string{"new", "old"}, order)
}

func TestAsyncWalkTokens(t *testing.T) {
	e := newEngine(t, Extension{Async: true, WalkTokens: func(_ context.Context, tok Token) error {
		if code, ok := tok.(*Code); ok {
			code.Text = "<b>" + code.Text + "</b>"
			code.Escaped = true
		}
		return nil
	}})
	got, err := e.ParseAsync(context.Background(), "    x\n").Wait()
	require.NoError(t, err)
	assert.Equal(t, "<pre><code><b>x</b>\n</code></pre>\n", got)
}

func stallRule() Rule {
	return Rule{
		Name:  "stall",
		Level: LevelBlock,
		Tokenize: func(_ *Lexer, src string, _ []Token) Token {
			if strings.HasPrefix(src, "!!") {
				return &Custom{Kind: "stall"}
			}
			return nil
		},
	}
}

func TestInfiniteLoopGuard(t *testing.T) {
	e := newEngine(t, Extension{Rules: []Rule{stallRule()}})
	src := "para\n\n!!\n"

	_, err := e.Parse(context.Background(), src)
	require.ErrorIs(t, err, ErrInfiniteLoop)

	logger, hook := logtest.NewNullLogger()
	got, err := e.Parse(context.Background(), src, WithSilent(true), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "<p>para</p>\n", got)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	got, err = e.Parse(context.Background(), src, WithSilent(true), WithLogger(logger), WithFaultPolicy(DiscardPartial))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "<p>An error occurred:</p><pre>"), got)
	assert.Contains(t, got, "infinite loop")
}

func TestUnknownToken(t *testing.T) {
	e := newEngine(t)
	tokens := []Token{&Paragraph{Text: "a", Tokens: []Token{&Text{Text: "a"}}}, &Custom{Kind: "mystery"}}

	_, err := e.ParseTokens(tokens)
	require.ErrorIs(t, err, ErrUnknownToken)
	assert.Contains(t, err.Error(), `"mystery"`)

	logger, hook := logtest.NewNullLogger()
	got, err := e.ParseTokens(tokens, WithSilent(true), WithLogger(logger))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestInvalidInput(t *testing.T) {
	e := newEngine(t)
	_, err := e.Parse(context.Background(), "bad \xff")
	require.ErrorIs(t, err, ErrInvalidUTF8)

	logger, _ := logtest.NewNullLogger()
	got, err := e.Parse(context.Background(), "nul \x00", WithSilent(true), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "<p>An error occurred:</p><pre>mdhtml: binary input detected</pre>", got)
}

func TestHookErrorsAreWrapped(t *testing.T) {
	boom := assert.AnError
	e := newEngine(t, Extension{Hooks: &Hooks{
		Postprocess: func(context.Context, string) (string, error) { return "", boom },
	}})
	_, err := e.Parse(context.Background(), "a")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "postprocess")
}

func TestSetOptionsAndReset(t *testing.T) {
	e := newEngine(t, Extension{Rules: []Rule{varRule()}})
	e.SetOptions(WithBreaks(true))
	got, err := e.Parse(context.Background(), "a\nb {{c}}")
	require.NoError(t, err)
	assert.Equal(t, "<p>a<br>b <var>c</var></p>\n", got)

	e.ResetDefaults()
	assert.Equal(t, DefaultOptions(), e.Defaults())
	got, err = e.Parse(context.Background(), "a\nb {{c}}")
	require.NoError(t, err)
	assert.Equal(t, "<p>a\nb {{c}}</p>\n", got)
}

func TestPerCallOptionsDoNotLeak(t *testing.T) {
	e := newEngine(t)
	got, err := e.Parse(context.Background(), "~~a~~", WithGFM(false))
	require.NoError(t, err)
	assert.Equal(t, "<p>~~a~~</p>\n", got)
	assert.True(t, e.Defaults().GFM)
}

func TestPackageLevelEngine(t *testing.T) {
	t.Cleanup(ResetDefaults)
	require.NoError(t, Use(Extension{Rules: []Rule{varRule()}}))
	got, err := Parse(context.Background(), "{{x}}")
	require.NoError(t, err)
	assert.Equal(t, "<p><var>x</var></p>\n", got)
	assert.Same(t, Default(), defaultEngine)
}

func TestInlineEntryPoints(t *testing.T) {
	t.Parallel()
	tokens, err := newEngine(t).LexInline("a *b*")
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	assert.IsType(t, &Em{}, tokens[len(tokens)-1])

	e := newEngine(t, Extension{Async: true})
	got, err := e.ParseInlineAsync(context.Background(), "a *b*").Wait()
	require.NoError(t, err)
	assert.Equal(t, "a <em>b</em>", got)
}
