package mdhtml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAsyncConflict reports a synchronous call on an engine an extension
	// switched to the asynchronous contract.
	ErrAsyncConflict = errors.New("mdhtml: async option was set by an extension, use ParseAsync")
	// ErrUnknownRenderer reports a renderer override for a method that does
	// not exist.
	ErrUnknownRenderer = errors.New("mdhtml: renderer does not exist")
	// ErrUnknownTokenizer reports a tokenizer override for a rule that does
	// not exist.
	ErrUnknownTokenizer = errors.New("mdhtml: tokenizer does not exist")
	// ErrExtensionName reports an extension rule without a name.
	ErrExtensionName = errors.New("mdhtml: extension name required")
	// ErrExtensionLevel reports an extension tokenizer with a level other
	// than block or inline.
	ErrExtensionLevel = errors.New("mdhtml: extension level must be 'block' or 'inline'")
	// ErrInfiniteLoop reports a tokenizer pass that consumed nothing.
	ErrInfiniteLoop = errors.New("mdhtml: infinite loop")
	// ErrUnknownToken reports a token the parser has no renderer for.
	ErrUnknownToken = errors.New("mdhtml: unknown token")
)

// config is an immutable snapshot of engine state. Calls work on their own
// copy of opts and share reg read-only.
type config struct {
	opts Options
	reg  *registry
}

func defaultConfig() *config {
	return &config{opts: DefaultOptions(), reg: newRegistry()}
}

func (c *config) logger() logrus.FieldLogger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return logrus.StandardLogger()
}

// Engine is a configurable Markdown compiler. Configuration changes swap in a
// new snapshot, so an Engine may be used from several goroutines; calls in
// flight keep the snapshot they started with.
type Engine struct {
	mu  sync.Mutex
	cfg atomic.Pointer[config]
}

// New returns an engine with the default options and exts registered.
func New(exts ...Extension) (*Engine, error) {
	e := &Engine{}
	e.cfg.Store(defaultConfig())
	if err := e.Use(exts...); err != nil {
		return nil, err
	}
	return e, nil
}

// Use registers extensions. Registration is all or nothing: on error the
// engine is left unchanged.
func (e *Engine) Use(exts ...Extension) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.cfg.Load()
	next := &config{opts: cur.opts, reg: cur.reg.clone()}
	for i := range exts {
		ext := &exts[i]
		if err := validate(ext); err != nil {
			return err
		}
		next.reg.add(ext)
		latched := next.opts.Async || ext.Async
		next.opts = next.opts.with(ext.Options)
		next.opts.Async = next.opts.Async || latched
	}
	e.cfg.Store(next)
	return nil
}

// SetOptions merges opts into the engine defaults.
func (e *Engine) SetOptions(opts ...Option) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.cfg.Load()
	e.cfg.Store(&config{opts: cur.opts.with(opts), reg: cur.reg})
}

// Defaults returns the engine's current default options.
func (e *Engine) Defaults() Options {
	return e.cfg.Load().opts
}

// ResetDefaults drops all extensions and restores the built-in options.
func (e *Engine) ResetDefaults() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Store(defaultConfig())
}

// Parse renders Markdown block content to HTML.
func (e *Engine) Parse(ctx context.Context, src string, opts ...Option) (string, error) {
	return e.sync(ctx, true, src, opts)
}

// ParseInline renders src as inline content, without paragraph wrapping.
func (e *Engine) ParseInline(ctx context.Context, src string, opts ...Option) (string, error) {
	return e.sync(ctx, false, src, opts)
}

// ParseAsync starts rendering src in the background. It works on engines of
// either contract.
func (e *Engine) ParseAsync(ctx context.Context, src string, opts ...Option) *Pending {
	return e.async(ctx, true, src, opts)
}

// ParseInlineAsync is the asynchronous form of ParseInline.
func (e *Engine) ParseInlineAsync(ctx context.Context, src string, opts ...Option) *Pending {
	return e.async(ctx, false, src, opts)
}

// Lex tokenizes src without running hooks, walkers or the parser.
func (e *Engine) Lex(src string, opts ...Option) (*Document, error) {
	cfg, err := e.prepare(opts)
	if err != nil {
		return nil, err
	}
	if err := validateString(src); err != nil {
		return nil, err
	}
	return newLexer(cfg).lex(src)
}

// LexInline tokenizes src as inline content.
func (e *Engine) LexInline(src string, opts ...Option) ([]Token, error) {
	cfg, err := e.prepare(opts)
	if err != nil {
		return nil, err
	}
	if err := validateString(src); err != nil {
		return nil, err
	}
	return newLexer(cfg).lexInline(src)
}

// ParseTokens renders block tokens produced by Lex.
func (e *Engine) ParseTokens(tokens []Token, opts ...Option) (string, error) {
	cfg, err := e.prepare(opts)
	if err != nil {
		return "", err
	}
	p := newParser(cfg)
	out := p.Parse(tokens)
	return out, p.err
}

// Walk calls fn for every token in the tree, parents before children,
// descending into table cells, list items and the child lists registered by
// extension rules.
func (e *Engine) Walk(ctx context.Context, tokens []Token, fn WalkFunc) error {
	return e.cfg.Load().walk(ctx, tokens, fn)
}

func (e *Engine) prepare(opts []Option) (*config, error) {
	base := e.cfg.Load()
	cfg := &config{opts: base.opts.with(opts), reg: base.reg}
	if base.opts.Async && !cfg.opts.Async {
		return nil, ErrAsyncConflict
	}
	return cfg, nil
}

func (e *Engine) sync(ctx context.Context, block bool, src string, opts []Option) (string, error) {
	cfg, err := e.prepare(opts)
	if err != nil {
		return "", err
	}
	if cfg.opts.Async {
		return "", ErrAsyncConflict
	}
	r := &run{cfg: cfg, block: block}
	return r.execute(ctx, src)
}

func (e *Engine) async(ctx context.Context, block bool, src string, opts []Option) *Pending {
	p := &Pending{done: make(chan struct{})}
	cfg, err := e.prepare(opts)
	if err != nil {
		p.resolve("", err)
		return p
	}
	r := &run{cfg: cfg, block: block, async: true}
	go func() {
		p.resolve(r.execute(ctx, src))
	}()
	return p
}

// Pending is the result of an asynchronous parse.
type Pending struct {
	done chan struct{}
	html string
	err  error
}

func (p *Pending) resolve(html string, err error) {
	p.html, p.err = html, err
	close(p.done)
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the parse finishes.
func (p *Pending) Wait() (string, error) {
	<-p.done
	return p.html, p.err
}

// run is one pass through the pipeline: preprocess, lex, processAllTokens,
// walk, parse, postprocess.
type run struct {
	cfg    *config
	block  bool
	async  bool
	faults []error
}

func (r *run) execute(ctx context.Context, src string) (string, error) {
	if err := validateString(src); err != nil {
		return r.fail(err)
	}
	h := &r.cfg.reg.hooks

	var err error
	if h.preprocess != nil {
		if src, err = h.preprocess(ctx, src); err != nil {
			return r.fail(fmt.Errorf("mdhtml: preprocess: %w", err))
		}
	}

	lex := LexFunc(r.lex)
	if h.provideLexer != nil {
		lex = h.provideLexer(r.block, lex)
	}
	doc, err := lex(ctx, src)
	if err != nil {
		return r.fail(err)
	}

	if h.processAllTokens != nil {
		if doc, err = h.processAllTokens(ctx, doc); err != nil {
			return r.fail(fmt.Errorf("mdhtml: process tokens: %w", err))
		}
	}

	if len(r.cfg.reg.walkers) > 0 {
		if r.async {
			err = r.cfg.walkAsync(ctx, doc.Tokens)
		} else {
			err = r.cfg.walk(ctx, doc.Tokens, r.cfg.visit)
		}
		if err != nil {
			return r.fail(fmt.Errorf("mdhtml: walk tokens: %w", err))
		}
	}

	parse := ParseFunc(r.parse)
	if h.provideParser != nil {
		parse = h.provideParser(r.block, parse)
	}
	out, err := parse(ctx, doc)
	if err != nil {
		return r.fail(err)
	}

	if h.postprocess != nil {
		if out, err = h.postprocess(ctx, out); err != nil {
			return r.fail(fmt.Errorf("mdhtml: postprocess: %w", err))
		}
	}

	if len(r.faults) > 0 && r.cfg.opts.FaultPolicy == DiscardPartial {
		return errorFragment(multierror.Append(nil, r.faults...)), nil
	}
	return out, nil
}

func (r *run) lex(_ context.Context, src string) (*Document, error) {
	lx := newLexer(r.cfg)
	defer func() { r.faults = append(r.faults, lx.faults...) }()
	if r.block {
		return lx.lex(src)
	}
	tokens, err := lx.lexInline(src)
	return &Document{Tokens: tokens, Links: lx.links}, err
}

func (r *run) parse(_ context.Context, doc *Document) (string, error) {
	p := newParser(r.cfg)
	defer func() { r.faults = append(r.faults, p.faults...) }()
	if r.block {
		return p.Parse(doc.Tokens), p.err
	}
	return p.ParseInline(doc.Tokens), p.err
}

// fail returns err, or in silent mode logs it and renders it as HTML.
func (r *run) fail(err error) (string, error) {
	if !r.cfg.opts.Silent {
		return "", err
	}
	r.cfg.logger().WithError(err).Error("markdown render failed")
	return errorFragment(err), nil
}

func errorFragment(err error) string {
	return "<p>An error occurred:</p><pre>" + EscapeHTML(err.Error(), true) + "</pre>"
}
