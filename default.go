package mdhtml

import "context"

var defaultEngine = func() *Engine {
	e := &Engine{}
	e.cfg.Store(defaultConfig())
	return e
}()

// Default returns the process-wide engine behind the package-level functions.
func Default() *Engine { return defaultEngine }

// Parse renders src with the default engine.
func Parse(ctx context.Context, src string, opts ...Option) (string, error) {
	return defaultEngine.Parse(ctx, src, opts...)
}

// ParseInline renders inline src with the default engine.
func ParseInline(ctx context.Context, src string, opts ...Option) (string, error) {
	return defaultEngine.ParseInline(ctx, src, opts...)
}

// ParseAsync renders src with the default engine in the background.
func ParseAsync(ctx context.Context, src string, opts ...Option) *Pending {
	return defaultEngine.ParseAsync(ctx, src, opts...)
}

// ParseInlineAsync renders inline src with the default engine in the
// background.
func ParseInlineAsync(ctx context.Context, src string, opts ...Option) *Pending {
	return defaultEngine.ParseInlineAsync(ctx, src, opts...)
}

// Lex tokenizes src with the default engine.
func Lex(src string, opts ...Option) (*Document, error) {
	return defaultEngine.Lex(src, opts...)
}

// LexInline tokenizes inline src with the default engine.
func LexInline(src string, opts ...Option) ([]Token, error) {
	return defaultEngine.LexInline(src, opts...)
}

// ParseTokens renders tokens with the default engine.
func ParseTokens(tokens []Token, opts ...Option) (string, error) {
	return defaultEngine.ParseTokens(tokens, opts...)
}

// Walk walks tokens with the default engine's child token registry.
func Walk(ctx context.Context, tokens []Token, fn WalkFunc) error {
	return defaultEngine.Walk(ctx, tokens, fn)
}

// Use registers extensions on the default engine.
func Use(exts ...Extension) error {
	return defaultEngine.Use(exts...)
}

// SetOptions changes the default engine's options.
func SetOptions(opts ...Option) {
	defaultEngine.SetOptions(opts...)
}

// Defaults returns the default engine's options.
func Defaults() Options {
	return defaultEngine.Defaults()
}

// ResetDefaults restores the default engine to its initial state.
func ResetDefaults() {
	defaultEngine.ResetDefaults()
}
