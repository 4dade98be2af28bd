package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"pkt.systems/mdhtml"
	"pkt.systems/mdhtml/frontmatter"
	"pkt.systems/mdhtml/headingid"
	"pkt.systems/mdhtml/highlight"
	"pkt.systems/version"
)

const (
	defaultWidth   = 80
	requestTimeout = 30 * time.Second
)

func init() {
	version.SetDefaultModule("pkt.systems/mdhtml")
}

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		code := 1
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		}
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
		} else {
			code = 0
		}
		os.Exit(code)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath  string
		outPath     string
		showVersion bool
		listStyles  bool
		debug       bool
	)
	cli := defaultSettings()
	flags := pflag.NewFlagSet("mdhtml", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	cli.bind(flags)
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file; flags override its values")
	flags.StringVarP(&outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&showVersion, "version", false, "Print version and exit")
	flags.BoolVar(&listStyles, "list-styles", false, "List highlight styles")
	flags.BoolVar(&debug, "debug", false, "Log diagnostics to stderr")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: mdhtml [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nInputs are files, file:// or http(s):// URLs. Without inputs Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return &exitError{code: 2, err: err}
	}

	if showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return nil
	}
	if listStyles {
		for _, name := range highlight.Styles() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := defaultSettings()
	if configPath != "" {
		var err error
		if cfg, err = loadConfig(configPath, cfg); err != nil {
			return usageError("%w", err)
		}
	}
	cfg = merge(cfg, cli, flags)
	if err := cfg.validate(); err != nil {
		return usageError("%w", err)
	}
	if cfg.Width <= 0 {
		cfg.Width = terminalWidth(defaultWidth)
	}

	inputs, err := parseInputs(flags.Args(), stdin)
	if err != nil {
		return usageError("%w", err)
	}

	r, err := newRenderer(cfg, log)
	if err != nil {
		return err
	}

	writer, closer, err := resolveOutput(outPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	if outPath == "" {
		writer = stdout
	}
	return r.renderAll(ctx, inputs, writer)
}

// renderer turns inputs into the configured output format.
type renderer struct {
	cfg     settings
	log     logrus.FieldLogger
	engine  *mdhtml.Engine
	hl      *highlight.Highlighter
	client  *http.Client
	options []mdhtml.Option
}

// docMeta collects per document details for standalone output.
type docMeta struct {
	mu    sync.Mutex
	title string
}

func (m *docMeta) setTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.title == "" {
		m.title = title
	}
}

type metaKey struct{}

func metaFrom(ctx context.Context) *docMeta {
	if m, ok := ctx.Value(metaKey{}).(*docMeta); ok {
		return m
	}
	return &docMeta{}
}

func newRenderer(cfg settings, log logrus.FieldLogger) (*renderer, error) {
	policy := mdhtml.KeepPartial
	if cfg.DiscardPartial {
		policy = mdhtml.DiscardPartial
	}
	r := &renderer{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: requestTimeout},
		options: []mdhtml.Option{
			mdhtml.WithGFM(cfg.GFM),
			mdhtml.WithBreaks(cfg.Breaks),
			mdhtml.WithPedantic(cfg.Pedantic),
			mdhtml.WithSilent(cfg.Silent),
			mdhtml.WithFaultPolicy(policy),
			mdhtml.WithLogger(log),
		},
	}

	exts := []mdhtml.Extension{{Options: r.options}}
	if cfg.FrontMatter {
		exts = append(exts, frontmatter.Extension(frontmatter.WithHandler(func(ctx context.Context, block frontmatter.Block) error {
			values, err := block.Map()
			if err != nil {
				log.WithError(err).Debug("ignoring undecodable front matter")
				return nil
			}
			if title, ok := values["title"].(string); ok {
				metaFrom(ctx).setTitle(title)
			}
			return nil
		})))
	}
	if cfg.HeadingIDs || cfg.TOC {
		opts := []headingid.Option{headingid.WithTOCHandler(func(ctx context.Context, entries []headingid.Entry) error {
			if len(entries) > 0 {
				metaFrom(ctx).setTitle(entries[0].Text)
			}
			return nil
		})}
		if cfg.TOC {
			opts = append(opts, headingid.WithTOCMarker(cfg.TOCMarker))
		}
		exts = append(exts, headingid.Extension(opts...))
	}
	if cfg.Highlight {
		r.hl = highlight.New(highlight.WithStyle(cfg.HighlightStyle), highlight.WithClasses(true))
		exts = append(exts, r.hl.Extension())
	}
	engine, err := mdhtml.New(exts...)
	if err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}
	r.engine = engine
	log.WithField("format", cfg.Format).Debug("engine ready")
	return r, nil
}

// renderAll renders inputs concurrently and writes the results in input
// order. Failed inputs are skipped and reported together.
func (r *renderer) renderAll(ctx context.Context, inputs []input, w io.Writer) error {
	outputs := make([][]byte, len(inputs))
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Jobs)
	for i, in := range inputs {
		g.Go(func() error {
			out, err := r.renderOne(gctx, in)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", in.name, err))
				mu.Unlock()
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, out := range outputs {
		if out == nil {
			continue
		}
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	return errs.ErrorOrNil()
}

func (r *renderer) renderOne(ctx context.Context, in input) ([]byte, error) {
	meta := &docMeta{}
	ctx = context.WithValue(ctx, metaKey{}, meta)
	r.log.WithField("input", in.name).Debug("rendering")

	var buf bytes.Buffer
	switch r.cfg.Format {
	case formatHTML:
		if err := r.renderHTML(ctx, in, &buf); err != nil {
			return nil, err
		}
		if r.cfg.Standalone {
			return r.standalone(meta, in.name, buf.String())
		}
	default:
		doc, err := r.lex(ctx, in)
		if err != nil {
			return nil, err
		}
		if r.cfg.Format == formatText {
			buf.WriteString(plainText(doc.Tokens, r.cfg.Width))
			break
		}
		tree, err := tokenTree(doc.Tokens)
		if err != nil {
			return nil, fmt.Errorf("encode tokens: %w", err)
		}
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("encode tokens: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (r *renderer) renderHTML(ctx context.Context, in input, w io.Writer) error {
	if in.remote() {
		return mdhtml.HTTPRender(ctx, mdhtml.HTTPRenderRequest{
			URL:      in.url,
			Client:   r.client,
			Writer:   w,
			Engine:   r.engine,
			MaxBytes: r.cfg.MaxBytes,
			Sanitize: r.cfg.Sanitize,
		})
	}
	body, err := in.open(ctx, r.client, r.cfg.MaxBytes)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()
	return mdhtml.Render(ctx, mdhtml.RenderRequest{
		Reader:   body,
		Writer:   w,
		Engine:   r.engine,
		Sanitize: r.cfg.Sanitize,
	})
}

// lex tokenizes an input for the text and tokens formats. Front matter is
// stripped here because Lex runs no hooks.
func (r *renderer) lex(ctx context.Context, in input) (*mdhtml.Document, error) {
	body, err := in.open(ctx, r.client, r.cfg.MaxBytes)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if r.cfg.Sanitize {
		raw = mdhtml.SanitizeInput(raw)
	}
	src := string(raw)
	if r.cfg.FrontMatter {
		if _, rest, ok := frontmatter.Split(src); ok {
			src = rest
		}
	}
	return r.engine.Lex(src)
}

func (r *renderer) standalone(meta *docMeta, name, body string) ([]byte, error) {
	title := meta.title
	if title == "" {
		title = name
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	if r.hl != nil {
		b.WriteString("<style>\n")
		if err := r.hl.CSS(&b); err != nil {
			return nil, err
		}
		b.WriteString("</style>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}
