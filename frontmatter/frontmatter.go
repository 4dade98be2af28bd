// Package frontmatter strips a leading metadata block from Markdown source.
//
// Three delimiters are recognized on the first line: "---" for YAML, "+++"
// for TOML and ";;;" for JSON. The block is only treated as front matter
// when its first line looks like metadata and a closing delimiter exists;
// anything else is left to the Markdown parser (a leading "---" is also a
// thematic break).
package frontmatter

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"pkt.systems/mdhtml"
)

// Format is the encoding of a front matter block.
type Format string

// Supported formats.
const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

var delimiters = map[string]Format{
	"---": YAML,
	"+++": TOML,
	";;;": JSON,
}

// Block is a front matter block split off a document.
type Block struct {
	Format Format
	// Body is the text between the delimiter lines.
	Body string
}

// Decode unmarshals the block body into v.
func (b Block) Decode(v any) error {
	var err error
	switch b.Format {
	case YAML:
		err = yaml.Unmarshal([]byte(b.Body), v)
	case TOML:
		_, err = toml.Decode(b.Body, v)
	case JSON:
		err = jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(b.Body, v)
	default:
		err = fmt.Errorf("unknown format %q", b.Format)
	}
	if err != nil {
		return fmt.Errorf("frontmatter: decode %s: %w", b.Format, err)
	}
	return nil
}

// Map decodes the block into a generic map.
func (b Block) Map() (map[string]any, error) {
	out := map[string]any{}
	if err := b.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Split separates a leading front matter block from src. ok is false when
// src does not start with one, in which case rest is src.
func Split(src string) (block Block, rest string, ok bool) {
	openLine, next, found := nextLine(src, 0)
	if !found {
		return Block{}, src, false
	}
	delim := strings.TrimSpace(strings.TrimPrefix(openLine, "\uFEFF"))
	format, isDelim := delimiters[delim]
	if !isDelim {
		return Block{}, src, false
	}
	second, _, found := nextLine(src, next)
	if !found || !metadataLikely(second) {
		return Block{}, src, false
	}
	for idx := next; idx < len(src); {
		line, after, _ := nextLine(src, idx)
		if strings.TrimSpace(line) == delim {
			return Block{Format: format, Body: src[next:idx]}, src[after:], true
		}
		idx = after
	}
	return Block{}, src, false
}

// nextLine returns the line starting at start without its terminator, and
// the offset of the following line.
func nextLine(src string, start int) (string, int, bool) {
	if start >= len(src) {
		return "", start, false
	}
	i := strings.IndexByte(src[start:], '\n')
	if i < 0 {
		return strings.TrimSuffix(src[start:], "\r"), len(src), true
	}
	return strings.TrimSuffix(src[start:start+i], "\r"), start + i + 1, true
}

func metadataLikely(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.ContainsAny(trimmed, ":=")
}

// Handler receives the front matter of a document before it is parsed.
type Handler func(ctx context.Context, block Block) error

type config struct {
	handler Handler
	strict  bool
}

// Option configures Extension.
type Option func(*config)

// WithHandler passes every stripped block to h. An error from h fails the
// parse call.
func WithHandler(h Handler) Option {
	return func(c *config) {
		c.handler = h
	}
}

// WithStrict makes blocks that fail to decode an error instead of being
// stripped silently.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// Extension returns an extension whose preprocess hook removes front matter.
func Extension(opts ...Option) mdhtml.Extension {
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return mdhtml.Extension{Hooks: &mdhtml.Hooks{
		Preprocess: func(ctx context.Context, src string) (string, error) {
			block, rest, ok := Split(src)
			if !ok {
				return src, nil
			}
			if cfg.strict {
				if _, err := block.Map(); err != nil {
					return "", err
				}
			}
			if cfg.handler != nil {
				if err := cfg.handler(ctx, block); err != nil {
					return "", err
				}
			}
			return rest, nil
		},
	}}
}
