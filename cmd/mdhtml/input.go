package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// input is one document named on the command line.
type input struct {
	name string
	// url is set for http and https inputs.
	url  string
	path string
	// stdin is read when no inputs are named.
	stdin io.Reader
}

func (in input) remote() bool { return in.url != "" }

func parseInputs(args []string, stdin io.Reader) ([]input, error) {
	if len(args) == 0 {
		return []input{{name: "stdin", stdin: stdin}}, nil
	}
	inputs := make([]input, 0, len(args))
	for _, raw := range args {
		in, err := parseInput(raw)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func parseInput(raw string) (input, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return input{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return input{name: "stdin", stdin: os.Stdin}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return input{name: raw, url: raw}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return input{name: raw, path: normalizePath(path)}, nil
		}
	}
	return input{name: raw, path: normalizePath(raw)}, nil
}

// open returns the document body. Remote inputs are fetched with client.
func (in input) open(ctx context.Context, client *http.Client, maxBytes int64) (io.ReadCloser, error) {
	switch {
	case in.stdin != nil:
		return io.NopCloser(in.stdin), nil
	case in.remote():
		return openURL(ctx, client, in.url, maxBytes)
	default:
		return os.Open(in.path)
	}
}

func openURL(ctx context.Context, client *http.Client, raw string, maxBytes int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	if maxBytes <= 0 {
		return resp.Body, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxBytes), resp.Body}, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
