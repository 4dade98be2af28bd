package mdhtml

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Level says which tokenizer pass an extension rule joins.
type Level string

// Rule levels.
const (
	LevelBlock  Level = "block"
	LevelInline Level = "inline"
)

// TokenizeFunc tries to match a custom token at the start of src. tokens is
// the list built so far at the current level. It returns nil when nothing
// matched; a returned token must consume at least one byte.
type TokenizeFunc func(lx *Lexer, src string, tokens []Token) Token

// StartFunc returns the byte offset of the first place in src where a rule
// might match, or -1.
type StartFunc func(src string) int

// WalkFunc is called once per token by Walk and by the walk stage of a parse
// call.
type WalkFunc func(ctx context.Context, tok Token) error

// Rule is a custom grammar rule with an optional renderer.
type Rule struct {
	// Name is the token type the rule produces. Required.
	Name string
	// Level is required when Tokenize is set.
	Level    Level
	Start    StartFunc
	Tokenize TokenizeFunc
	Render   RenderFunc
	// ChildTokens names the Custom.Children lists Walk descends into, with
	// "tokens" meaning Custom.Tokens.
	ChildTokens []string
}

// Extension bundles everything Use can register.
type Extension struct {
	// Async switches the engine to the asynchronous contract for good.
	Async bool
	// Options are applied to the engine defaults.
	Options []Option
	Rules   []Rule
	// Renderer overrides built-in renderer methods by name.
	Renderer map[string]RenderFunc
	// Tokenizer overrides built-in tokenizer rules by name.
	Tokenizer  map[string]TokenizerFunc
	Hooks      *Hooks
	WalkTokens WalkFunc
}

type registry struct {
	block, inline           []TokenizeFunc
	startBlock, startInline []StartFunc
	extRenderers            map[string][]RenderFunc
	childTokens             map[string][]string
	renderers               map[string][]RenderFunc
	tokenizers              map[string][]TokenizerFunc
	hooks                   hookSet
	walkers                 []WalkFunc
}

func newRegistry() *registry {
	return &registry{
		extRenderers: map[string][]RenderFunc{},
		childTokens:  map[string][]string{},
		renderers:    map[string][]RenderFunc{},
		tokenizers:   map[string][]TokenizerFunc{},
	}
}

// clone returns a copy that can be extended without touching r. Slices are
// clipped so appends never write into shared arrays.
func (r *registry) clone() *registry {
	return &registry{
		block:        slices.Clip(r.block),
		inline:       slices.Clip(r.inline),
		startBlock:   slices.Clip(r.startBlock),
		startInline:  slices.Clip(r.startInline),
		extRenderers: maps.Clone(r.extRenderers),
		childTokens:  maps.Clone(r.childTokens),
		renderers:    maps.Clone(r.renderers),
		tokenizers:   maps.Clone(r.tokenizers),
		hooks:        r.hooks,
		walkers:      slices.Clip(r.walkers),
	}
}

func validate(ext *Extension) error {
	for _, rule := range ext.Rules {
		if rule.Name == "" {
			return ErrExtensionName
		}
		if rule.Tokenize != nil && rule.Level != LevelBlock && rule.Level != LevelInline {
			return fmt.Errorf("%w: rule %q has level %q", ErrExtensionLevel, rule.Name, rule.Level)
		}
	}
	for name := range ext.Renderer {
		if !rendererNames[name] {
			return fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
		}
	}
	for name := range ext.Tokenizer {
		if !tokenizerRules[name] {
			return fmt.Errorf("%w: %q", ErrUnknownTokenizer, name)
		}
	}
	return nil
}

// add registers ext. Newer registrations take precedence: tokenizers,
// renderers and walkers are prepended, start functions appended.
func (r *registry) add(ext *Extension) {
	for _, rule := range ext.Rules {
		if rule.Render != nil {
			r.extRenderers[rule.Name] = prepend(rule.Render, r.extRenderers[rule.Name])
		}
		if rule.Tokenize != nil {
			switch rule.Level {
			case LevelBlock:
				r.block = prepend(rule.Tokenize, r.block)
				if rule.Start != nil {
					r.startBlock = append(r.startBlock, rule.Start)
				}
			case LevelInline:
				r.inline = prepend(rule.Tokenize, r.inline)
				if rule.Start != nil {
					r.startInline = append(r.startInline, rule.Start)
				}
			}
		}
		if len(rule.ChildTokens) > 0 {
			r.childTokens[rule.Name] = slices.Clone(rule.ChildTokens)
		}
	}
	for name, fn := range ext.Renderer {
		r.renderers[name] = prepend(fn, r.renderers[name])
	}
	for name, fn := range ext.Tokenizer {
		r.tokenizers[name] = prepend(fn, r.tokenizers[name])
	}
	if ext.Hooks != nil {
		r.hooks.add(ext.Hooks)
	}
	if ext.WalkTokens != nil {
		r.walkers = prepend(ext.WalkTokens, r.walkers)
	}
}

func prepend[T any](v T, list []T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	return append(out, list...)
}
