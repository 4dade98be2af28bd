package mdhtml

import "context"

// LexFunc turns source into a document.
type LexFunc func(ctx context.Context, src string) (*Document, error)

// ParseFunc renders a document.
type ParseFunc func(ctx context.Context, doc *Document) (string, error)

// Hooks intercept the stages of a parse call. Nil fields are skipped.
//
// Preprocess, Postprocess, ProcessAllTokens and EmStrongMask compose: the
// hook of a later extension runs first and its result feeds the earlier one.
// ProvideLexer and ProvideParser receive the implementation they replace and
// may wrap it; returning nil keeps it.
type Hooks struct {
	Preprocess       func(ctx context.Context, src string) (string, error)
	Postprocess      func(ctx context.Context, html string) (string, error)
	ProcessAllTokens func(ctx context.Context, doc *Document) (*Document, error)
	EmStrongMask     func(masked string) string
	ProvideLexer     func(block bool, next LexFunc) LexFunc
	ProvideParser    func(block bool, next ParseFunc) ParseFunc
}

type hookSet struct {
	preprocess       func(context.Context, string) (string, error)
	postprocess      func(context.Context, string) (string, error)
	processAllTokens func(context.Context, *Document) (*Document, error)
	emStrongMask     func(string) string
	provideLexer     func(bool, LexFunc) LexFunc
	provideParser    func(bool, ParseFunc) ParseFunc
}

func (h *hookSet) add(n *Hooks) {
	h.preprocess = chainString(n.Preprocess, h.preprocess)
	h.postprocess = chainString(n.Postprocess, h.postprocess)
	if fn, prev := n.ProcessAllTokens, h.processAllTokens; fn != nil {
		if prev == nil {
			h.processAllTokens = fn
		} else {
			h.processAllTokens = func(ctx context.Context, doc *Document) (*Document, error) {
				doc, err := fn(ctx, doc)
				if err != nil {
					return nil, err
				}
				return prev(ctx, doc)
			}
		}
	}
	if fn, prev := n.EmStrongMask, h.emStrongMask; fn != nil {
		if prev == nil {
			h.emStrongMask = fn
		} else {
			h.emStrongMask = func(s string) string { return prev(fn(s)) }
		}
	}
	if fn, prev := n.ProvideLexer, h.provideLexer; fn != nil {
		h.provideLexer = func(block bool, next LexFunc) LexFunc {
			if prev != nil {
				next = prev(block, next)
			}
			if lex := fn(block, next); lex != nil {
				return lex
			}
			return next
		}
	}
	if fn, prev := n.ProvideParser, h.provideParser; fn != nil {
		h.provideParser = func(block bool, next ParseFunc) ParseFunc {
			if prev != nil {
				next = prev(block, next)
			}
			if parse := fn(block, next); parse != nil {
				return parse
			}
			return next
		}
	}
}

func chainString(fn, prev func(context.Context, string) (string, error)) func(context.Context, string) (string, error) {
	if fn == nil {
		return prev
	}
	if prev == nil {
		return fn
	}
	return func(ctx context.Context, s string) (string, error) {
		s, err := fn(ctx, s)
		if err != nil {
			return "", err
		}
		return prev(ctx, s)
	}
}
