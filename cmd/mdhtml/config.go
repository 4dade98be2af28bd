package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	formatHTML   = "html"
	formatText   = "text"
	formatTokens = "tokens"
)

// settings is the merged result of the config file and the command line.
type settings struct {
	Format         string `yaml:"format"`
	GFM            bool   `yaml:"gfm"`
	Breaks         bool   `yaml:"breaks"`
	Pedantic       bool   `yaml:"pedantic"`
	Silent         bool   `yaml:"silent"`
	DiscardPartial bool   `yaml:"discard_partial"`
	Sanitize       bool   `yaml:"sanitize"`
	Highlight      bool   `yaml:"highlight"`
	HighlightStyle string `yaml:"highlight_style"`
	HeadingIDs     bool   `yaml:"heading_ids"`
	TOC            bool   `yaml:"toc"`
	TOCMarker      string `yaml:"toc_marker"`
	FrontMatter    bool   `yaml:"front_matter"`
	Standalone     bool   `yaml:"standalone"`
	Width          int    `yaml:"width"`
	Jobs           int    `yaml:"jobs"`
	MaxBytes       int64  `yaml:"max_bytes"`
}

func defaultSettings() settings {
	return settings{
		Format:         formatHTML,
		GFM:            true,
		HighlightStyle: "github",
		TOCMarker:      "[[toc]]",
		Jobs:           4,
	}
}

// bind registers one flag per setting on flags, using s for defaults and
// destinations.
func (s *settings) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&s.Format, "format", "f", s.Format, "Output format: html|text|tokens")
	flags.BoolVar(&s.GFM, "gfm", s.GFM, "GitHub flavored Markdown")
	flags.BoolVar(&s.Breaks, "breaks", s.Breaks, "Render single newlines as <br> (gfm only)")
	flags.BoolVar(&s.Pedantic, "pedantic", s.Pedantic, "Follow original markdown.pl behaviour")
	flags.BoolVar(&s.Silent, "silent", s.Silent, "Render errors into the output instead of failing")
	flags.BoolVar(&s.DiscardPartial, "discard-partial", s.DiscardPartial, "In silent mode, drop partial output after a fault")
	flags.BoolVar(&s.Sanitize, "sanitize", s.Sanitize, "Drop invalid UTF-8 and control characters instead of rejecting input")
	flags.BoolVar(&s.Highlight, "highlight", s.Highlight, "Syntax highlight fenced code")
	flags.StringVar(&s.HighlightStyle, "highlight-style", s.HighlightStyle, "Highlight style name")
	flags.BoolVar(&s.HeadingIDs, "heading-ids", s.HeadingIDs, "Add id attributes to headings")
	flags.BoolVar(&s.TOC, "toc", s.TOC, "Replace the TOC marker paragraph with a table of contents")
	flags.StringVar(&s.TOCMarker, "toc-marker", s.TOCMarker, "Paragraph text replaced by --toc")
	flags.BoolVar(&s.FrontMatter, "front-matter", s.FrontMatter, "Strip YAML/TOML/JSON front matter")
	flags.BoolVar(&s.Standalone, "standalone", s.Standalone, "Wrap HTML output in a complete document")
	flags.IntVarP(&s.Width, "width", "w", s.Width, "Text output width (0 uses terminal width if available)")
	flags.IntVarP(&s.Jobs, "jobs", "j", s.Jobs, "Inputs rendered concurrently")
	flags.Int64Var(&s.MaxBytes, "max-bytes", s.MaxBytes, "Limit on bytes read from URL inputs (0 is unlimited)")
}

func (s settings) validate() error {
	switch s.Format {
	case formatHTML, formatText, formatTokens:
	default:
		return fmt.Errorf("invalid --format %q: expected html|text|tokens", s.Format)
	}
	if s.Jobs < 1 {
		return errors.New("--jobs must be at least 1")
	}
	if s.TOC && strings.TrimSpace(s.TOCMarker) == "" {
		return errors.New("--toc-marker must not be empty")
	}
	return nil
}

// loadConfig decodes a YAML config file over base. Unknown keys are an error.
func loadConfig(path string, base settings) (settings, error) {
	f, err := os.Open(normalizePath(path))
	if err != nil {
		return base, fmt.Errorf("config: %w", err)
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("config %s: %w", path, err)
	}
	return base, nil
}

// merge copies every flag set on the command line from cli onto s.
func merge(s settings, cli settings, flags *pflag.FlagSet) settings {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "format":
			s.Format = cli.Format
		case "gfm":
			s.GFM = cli.GFM
		case "breaks":
			s.Breaks = cli.Breaks
		case "pedantic":
			s.Pedantic = cli.Pedantic
		case "silent":
			s.Silent = cli.Silent
		case "discard-partial":
			s.DiscardPartial = cli.DiscardPartial
		case "sanitize":
			s.Sanitize = cli.Sanitize
		case "highlight":
			s.Highlight = cli.Highlight
		case "highlight-style":
			s.HighlightStyle = cli.HighlightStyle
		case "heading-ids":
			s.HeadingIDs = cli.HeadingIDs
		case "toc":
			s.TOC = cli.TOC
		case "toc-marker":
			s.TOCMarker = cli.TOCMarker
		case "front-matter":
			s.FrontMatter = cli.FrontMatter
		case "standalone":
			s.Standalone = cli.Standalone
		case "width":
			s.Width = cli.Width
		case "jobs":
			s.Jobs = cli.Jobs
		case "max-bytes":
			s.MaxBytes = cli.MaxBytes
		}
	})
	return s
}
