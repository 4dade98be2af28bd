package mdhtml

import "github.com/sirupsen/logrus"

// FaultPolicy decides what a silent call returns after a recoverable fault.
type FaultPolicy int

const (
	// KeepPartial renders whatever was tokenized before the fault.
	KeepPartial FaultPolicy = iota
	// DiscardPartial replaces the output with the error fragment.
	DiscardPartial
)

// Options is the effective configuration of one call.
type Options struct {
	// Async runs the pipeline through ParseAsync. Once set by an extension it
	// cannot be switched off per call.
	Async bool
	// Breaks turns single newlines into <br> (gfm only).
	Breaks bool
	// GFM enables tables, strikethrough, autolinked URLs and task lists.
	GFM bool
	// Pedantic follows the original markdown.pl behavior where it differs.
	Pedantic bool
	// Silent renders failures as an HTML error fragment instead of returning
	// them.
	Silent bool
	// FaultPolicy applies to silent calls only.
	FaultPolicy FaultPolicy
	// Logger receives diagnostics in silent mode. Nil means the logrus
	// standard logger.
	Logger logrus.FieldLogger
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the built-in defaults: gfm on, everything else off.
func DefaultOptions() Options {
	return Options{GFM: true}
}

// WithAsync enables or disables the asynchronous contract.
func WithAsync(enabled bool) Option {
	return func(o *Options) {
		o.Async = enabled
	}
}

// WithBreaks enables or disables gfm line breaks.
func WithBreaks(enabled bool) Option {
	return func(o *Options) {
		o.Breaks = enabled
	}
}

// WithGFM enables or disables GitHub flavored Markdown.
func WithGFM(enabled bool) Option {
	return func(o *Options) {
		o.GFM = enabled
	}
}

// WithPedantic enables or disables pedantic mode.
func WithPedantic(enabled bool) Option {
	return func(o *Options) {
		o.Pedantic = enabled
	}
}

// WithSilent enables or disables silent mode.
func WithSilent(enabled bool) Option {
	return func(o *Options) {
		o.Silent = enabled
	}
}

// WithFaultPolicy sets the silent mode fault policy.
func WithFaultPolicy(p FaultPolicy) Option {
	return func(o *Options) {
		o.FaultPolicy = p
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func (o Options) with(opts []Option) Options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
