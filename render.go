package mdhtml

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

const readChunk = 4096

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, readChunk)
	},
}

var sourcePool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// RenderRequest configures Render.
type RenderRequest struct {
	Reader io.Reader
	Writer io.Writer
	// Engine defaults to the package engine.
	Engine *Engine
	// Inline renders the source as inline content.
	Inline bool
	// Sanitize drops invalid UTF-8 and control characters instead of
	// rejecting the input.
	Sanitize bool
	Options  []Option
}

// Render reads Markdown from req.Reader and writes the HTML to req.Writer.
// Input is validated while it is read.
func Render(ctx context.Context, req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: writer is nil")
	}
	engine := req.Engine
	if engine == nil {
		engine = defaultEngine
	}

	src := sourcePool.Get().(*bytes.Buffer)
	src.Reset()
	defer sourcePool.Put(src)
	if err := readSource(src, req.Reader, req.Sanitize); err != nil {
		return err
	}

	cfg, err := engine.prepare(req.Options)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	var html string
	switch {
	case cfg.opts.Async:
		html, err = engine.async(ctx, !req.Inline, src.String(), req.Options).Wait()
	case req.Inline:
		html, err = engine.ParseInline(ctx, src.String(), req.Options...)
	default:
		html, err = engine.Parse(ctx, src.String(), req.Options...)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := io.WriteString(req.Writer, html); err != nil {
		return fmt.Errorf("render: write: %w", err)
	}
	return nil
}

// readSource copies r into dst chunk by chunk, carrying runes split across
// reads into the next chunk.
func readSource(dst *bytes.Buffer, r io.Reader, sanitize bool) error {
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(r)
	defer func() {
		reader.Reset(nil)
		readerPool.Put(reader)
	}()

	var (
		v     validator
		buf   [readChunk + utf8.UTFMax]byte
		clean [readChunk + utf8.UTFMax]byte
		tail  int
	)
	v.reset()
	for {
		n, err := reader.Read(buf[tail : tail+readChunk])
		if n > 0 {
			chunk := buf[:tail+n]
			var rest []byte
			if sanitize {
				var kept []byte
				kept, rest = sanitizeBytes(clean[:len(chunk)], chunk)
				dst.Write(kept)
			} else {
				var verr error
				if rest, verr = v.addBytes(chunk); verr != nil {
					return fmt.Errorf("render: %w", verr)
				}
				dst.Write(chunk[:len(chunk)-len(rest)])
			}
			tail = copy(buf[:], rest)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("render: read: %w", err)
		}
	}
	if tail > 0 && !sanitize {
		return fmt.Errorf("render: %w", ErrInvalidUTF8)
	}
	return nil
}
