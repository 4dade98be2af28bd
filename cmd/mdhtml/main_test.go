package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStdinToHTML(t *testing.T) {
	out, _, err := runCLI(t, "# Hi\n\n*there*\n")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>\n<p><em>there</em></p>\n", out)
}

func TestFilesRenderInOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.md", "one\n")
	second := writeFile(t, dir, "b.md", "two\n")
	out, _, err := runCLI(t, "", "--jobs", "2", first, "file://"+second)
	require.NoError(t, err)
	assert.Equal(t, "<p>one</p>\n<p>two</p>\n", out)
}

func TestURLInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("**remote**\n"))
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>remote</strong></p>\n", out)

	out, _, err = runCLI(t, "", "--format", "text", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "remote\n", out)
}

func TestFailuresAreAggregated(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.md", "fine\n")
	bad := writeFile(t, dir, "bad.md", "bad \xff byte\n")
	missing := filepath.Join(dir, "missing.md")

	out, _, err := runCLI(t, "", good, bad, missing)
	require.Error(t, err)
	assert.Equal(t, "<p>fine</p>\n", out)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
}

func TestSanitizeFlag(t *testing.T) {
	out, _, err := runCLI(t, "a\x00b\n", "--sanitize")
	require.NoError(t, err)
	assert.Equal(t, "<p>ab</p>\n", out)
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--format", "pdf"},
		{"--jobs", "0"},
		{"--no-such-flag"},
	} {
		_, _, err := runCLI(t, "", args...)
		var exit *exitError
		require.True(t, errors.As(err, &exit), "%v", args)
		assert.Equal(t, 2, exit.code)
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "mdhtml.yaml", "gfm: false\nheading_ids: true\n")

	out, _, err := runCLI(t, "# A Title\n\nwww.example.com\n", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "<h1 id=\"a-title\">A Title</h1>\n<p>www.example.com</p>\n", out)

	out, _, err = runCLI(t, "www.example.com\n", "--config", cfg, "--gfm")
	require.NoError(t, err)
	assert.Equal(t, "<p><a href=\"http://www.example.com\">www.example.com</a></p>\n", out)

	bad := writeFile(t, dir, "bad.yaml", "nope: 1\n")
	_, _, err = runCLI(t, "", "--config", bad)
	require.Error(t, err)
}

func TestStandaloneUsesFrontMatterTitle(t *testing.T) {
	src := "---\ntitle: Release <notes>\n---\n# Heading\n"
	out, _, err := runCLI(t, src, "--standalone", "--front-matter", "--heading-ids")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>\n"))
	assert.Contains(t, out, "<title>Release &lt;notes&gt;</title>")
	assert.Contains(t, out, "<h1 id=\"heading\">Heading</h1>\n</body>")
}

func TestStandaloneFallsBackToFirstHeading(t *testing.T) {
	out, _, err := runCLI(t, "## Intro\n", "--standalone", "--toc")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Intro</title>")
}

func TestHighlightStandaloneEmbedsCSS(t *testing.T) {
	out, _, err := runCLI(t, "```go\nfunc x() {}\n```\n", "--standalone", "--highlight")
	require.NoError(t, err)
	assert.Contains(t, out, "<style>\n")
	assert.Contains(t, out, `<pre class="chroma">`)
}

func TestTextFormat(t *testing.T) {
	src := "# Title\n\nsome words that should wrap nicely at a narrow width\n\n- one\n- [x] two\n\n| a | b |\n|---|---|\n| 1 | 22 |\n"
	out, _, err := runCLI(t, src, "--format", "text", "--width", "24")
	require.NoError(t, err)
	want := "Title\n=====\n\n" +
		"some words that should\nwrap nicely at a narrow\nwidth\n\n" +
		"- one\n- [x] two\n\n" +
		"a | b\n--|---\n1 | 22\n"
	assert.Equal(t, want, out)
}

func TestTokensFormat(t *testing.T) {
	out, _, err := runCLI(t, "# Hi\n", "--format", "tokens")
	require.NoError(t, err)
	var tree []map[string]any
	require.NoError(t, json.UnmarshalFromString(out, &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "heading", tree[0]["type"])
	assert.Equal(t, float64(1), tree[0]["depth"])
	children := tree[0]["tokens"].([]any)
	assert.Equal(t, "text", children[0].(map[string]any)["type"])
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "pkt.systems/mdhtml")
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")
	out, _, err := runCLI(t, "x\n", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>\n", string(data))
}
