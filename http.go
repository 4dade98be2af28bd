package mdhtml

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPRenderRequest configures HTTPRender.
type HTTPRenderRequest struct {
	URL    string
	Client *http.Client
	Writer io.Writer
	Engine *Engine
	// MaxBytes limits the response body. Zero means no limit.
	MaxBytes int64
	Sanitize bool
	Options  []Option
}

// HTTPRender fetches Markdown over HTTP(S) and writes the rendered HTML.
func HTTPRender(ctx context.Context, req HTTPRenderRequest) error {
	if req.URL == "" {
		return fmt.Errorf("render http: URL is required")
	}
	if req.Writer == nil {
		return fmt.Errorf("render http: Writer is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("render http: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return fmt.Errorf("render http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	httpReq.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("render http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("render http: status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") {
		return fmt.Errorf("render http: %w: content type %q", ErrBinaryInput, ct)
	}
	var body io.Reader = resp.Body
	if req.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, req.MaxBytes)
	}
	return Render(ctx, RenderRequest{
		Reader:   body,
		Writer:   req.Writer,
		Engine:   req.Engine,
		Sanitize: req.Sanitize,
		Options:  req.Options,
	})
}
