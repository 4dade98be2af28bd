package mdhtml

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goldenPairs returns the Markdown fixtures under testdata with their
// expected HTML paths.
func goldenPairs(t testing.TB) map[string]string {
	t.Helper()
	pairs := map[string]string{}
	err := filepath.WalkDir("testdata", func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			pairs[path] = strings.TrimSuffix(path, ".md") + ".html"
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, pairs, "no markdown files found under testdata")
	return pairs
}

func TestGoldenFiles(t *testing.T) {
	for mdPath, htmlPath := range goldenPairs(t) {
		t.Run(mdPath, func(t *testing.T) {
			t.Parallel()
			src, err := os.ReadFile(mdPath)
			require.NoError(t, err)
			want, err := os.ReadFile(htmlPath)
			require.NoError(t, err, "run go run ./cmd/gen-golden to create %s", htmlPath)

			var out bytes.Buffer
			require.NoError(t, Render(context.Background(), RenderRequest{
				Reader: bytes.NewReader(src),
				Writer: &out,
				Engine: newEngine(t),
			}))
			assert.Equal(t, string(want), out.String())

			again, err := newEngine(t).Parse(context.Background(), string(src))
			require.NoError(t, err)
			assert.Equal(t, out.String(), again, "rendering is not deterministic")
		})
	}
}

func TestGoldenFilesAsync(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.Use(Extension{Async: true}))
	for mdPath, htmlPath := range goldenPairs(t) {
		src, err := os.ReadFile(mdPath)
		require.NoError(t, err)
		want, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		got, err := e.ParseAsync(context.Background(), string(src)).Wait()
		require.NoError(t, err, mdPath)
		assert.Equal(t, string(want), got, mdPath)
	}
}
