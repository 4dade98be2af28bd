package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecInMatchesExecOnSuffixes(t *testing.T) {
	t.Parallel()
	src := strings.Repeat("ä line ✓\n\n# héading ü\n", 40)
	heading := Compile(`^ {0,3}(#{1,6})(?=\s|$)(.*)(?:\n+|$)`)
	word := Compile(`h\S+`)
	var text Text
	for off := 0; off < len(src); {
		s := src[off:]
		for _, p := range []*Pattern{heading, word} {
			want := p.Exec(s)
			got := p.ExecIn(&text, s)
			if want == nil {
				assert.Nil(t, got, "offset %d", off)
				continue
			}
			require.NotNil(t, got, "offset %d", off)
			assert.Equal(t, want.Index, got.Index, "offset %d", off)
			assert.Equal(t, want.Text(), got.Text(), "offset %d", off)
			assert.Equal(t, want.Group(2), got.Group(2), "offset %d", off)
			assert.Equal(t, p.Test(s), p.TestIn(&text, s))
		}
		off += strings.IndexByte(s, '\n') + 1
	}
}

func TestExecFromInWalksForward(t *testing.T) {
	t.Parallel()
	src := strings.Repeat("ö", 200) + "*a* ü *b* ✓ *c*"
	p := Compile(`\*(\w)\*`)
	var text Text
	var got, want []string
	var gotIdx, wantIdx []int
	for from := 0; from <= len(src); {
		m := p.ExecFromIn(&text, src, from)
		if m == nil {
			break
		}
		got = append(got, m.Group(1))
		gotIdx = append(gotIdx, m.Index)
		from = m.End()
	}
	for from := 0; from <= len(src); {
		m := p.ExecFrom(src, from)
		if m == nil {
			break
		}
		want = append(want, m.Group(1))
		wantIdx = append(wantIdx, m.Index)
		from = m.End()
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, want, got)
	assert.Equal(t, wantIdx, gotIdx)
}

func TestExecInAnchorsAtSuffixStart(t *testing.T) {
	t.Parallel()
	src := strings.Repeat("x", 300) + "abc"
	p := Compile(`^abc`)
	var text Text
	assert.Nil(t, p.ExecIn(&text, src))
	m := p.ExecIn(&text, src[300:])
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Index)
	assert.True(t, p.TestIn(&text, src[300:]))
	assert.Nil(t, p.ExecIn(nil, src))
}

func TestTextKeepsSeveralSources(t *testing.T) {
	t.Parallel()
	var text Text
	outer := strings.Repeat("outer ", 100)
	inner := strings.Repeat("inner ", 100)
	p := Compile(`\w+`)
	require.NotNil(t, p.ExecIn(&text, outer))
	require.NotNil(t, p.ExecIn(&text, inner))
	e, off := text.lookup(outer[12:])
	assert.Equal(t, outer, e.s)
	assert.Equal(t, 12, off)
}

func benchmarkExecSuffixes(b *testing.B, cached bool) {
	src := strings.Repeat("some words here\n", 4096)
	p := Compile(`^[^\n]+\n`)
	for b.Loop() {
		var text Text
		for s := src; s != ""; {
			var m *Match
			if cached {
				m = p.ExecIn(&text, s)
			} else {
				m = p.Exec(s)
			}
			if m == nil {
				break
			}
			s = s[m.End():]
		}
	}
}

func BenchmarkExecSuffixes(b *testing.B) { benchmarkExecSuffixes(b, false) }

func BenchmarkExecInSuffixes(b *testing.B) { benchmarkExecSuffixes(b, true) }
