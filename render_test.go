package mdhtml

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRequiresEnds(t *testing.T) {
	require.Error(t, Render(context.Background(), RenderRequest{Writer: io.Discard}))
	require.Error(t, Render(context.Background(), RenderRequest{Reader: strings.NewReader("")}))
}

func TestRenderSplitRunes(t *testing.T) {
	var out bytes.Buffer
	reader := iotest.OneByteReader(strings.NewReader("# Grüße\n\n*漢字*\n"))
	require.NoError(t, Render(context.Background(), RenderRequest{Reader: reader, Writer: &out}))
	assert.Equal(t, "<h1>Grüße</h1>\n<p><em>漢字</em></p>\n", out.String())
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	err := Render(context.Background(), RenderRequest{
		Reader: strings.NewReader("ok\xff"),
		Writer: io.Discard,
	})
	require.ErrorIs(t, err, ErrInvalidUTF8)

	err = Render(context.Background(), RenderRequest{
		Reader: strings.NewReader("truncated \xe2\x82"),
		Writer: io.Discard,
	})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestRenderSanitize(t *testing.T) {
	var out bytes.Buffer
	err := Render(context.Background(), RenderRequest{
		Reader:   strings.NewReader("a\x00b\xff\x07c"),
		Writer:   &out,
		Sanitize: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>abc</p>\n", out.String())
}

func TestRenderInlineWithEngine(t *testing.T) {
	e := newEngine(t, Extension{Rules: []Rule{varRule()}})
	var out bytes.Buffer
	err := Render(context.Background(), RenderRequest{
		Reader: strings.NewReader("{{x}} *y*"),
		Writer: &out,
		Engine: e,
		Inline: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "<var>x</var> <em>y</em>", out.String())
}

func TestRenderAsyncEngine(t *testing.T) {
	e := newEngine(t, Extension{Async: true})
	var out bytes.Buffer
	require.NoError(t, Render(context.Background(), RenderRequest{
		Reader: strings.NewReader("x"),
		Writer: &out,
		Engine: e,
	}))
	assert.Equal(t, "<p>x</p>\n", out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriteError(t *testing.T) {
	err := Render(context.Background(), RenderRequest{Reader: strings.NewReader("x"), Writer: failingWriter{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render: write")
}

func TestHTTPRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.md":
			w.Header().Set("Content-Type", "text/markdown")
			_, _ = io.WriteString(w, "# Remote\n")
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = io.WriteString(w, "png")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, HTTPRender(context.Background(), HTTPRenderRequest{
		URL:    srv.URL + "/doc.md",
		Client: srv.Client(),
		Writer: &out,
	}))
	assert.Equal(t, "<h1>Remote</h1>\n", out.String())

	err := HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/missing", Writer: io.Discard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/logo.png", Writer: io.Discard})
	require.ErrorIs(t, err, ErrBinaryInput)

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: "ftp://example.com/x.md", Writer: io.Discard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestHTTPRenderMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "abcdef")
	}))
	defer srv.Close()
	var out bytes.Buffer
	require.NoError(t, HTTPRender(context.Background(), HTTPRenderRequest{
		URL:      srv.URL,
		Writer:   &out,
		MaxBytes: 3,
	}))
	assert.Equal(t, "<p>abc</p>\n", out.String())
}
