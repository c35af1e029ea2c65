// Package config carries the compile-time knobs for internal/compile:
// lexer tab width, lexer tracing, whether to run the emitter at all, and
// the emitter's banner text, built with the functional-options pattern,
// plus a YAML loader for driving the same options from a config file.
package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

const defaultBanner = "// Generated by the fangless-go compiler. Do not edit by hand."

// Options holds the resolved configuration for one Compile call.
type Options struct {
	TabWidth int
	Trace    bool
	Emit     bool
	Banner   string
}

// Option mutates an Options in place.
type Option func(*Options)

// WithTabWidth sets the lexer's tab-stop width (forwarded to
// lexer.WithTabWidth). Values <= 0 are ignored, leaving the default.
func WithTabWidth(width int) Option {
	return func(o *Options) {
		if width > 0 {
			o.TabWidth = width
		}
	}
}

// WithTracing enables verbose lexer tracing (forwarded to
// lexer.WithTracing).
func WithTracing(trace bool) Option {
	return func(o *Options) { o.Trace = trace }
}

// WithEmit controls whether Compile also runs internal/emitter over the
// parsed AST and populates Result.EmittedSource.
func WithEmit(emit bool) Option {
	return func(o *Options) { o.Emit = emit }
}

// WithBanner overrides the header comment line the emitter prepends to
// generated output.
func WithBanner(banner string) Option {
	return func(o *Options) { o.Banner = banner }
}

// Resolve applies opts over the defaults and returns the result. Compile
// calls this itself; exported so callers building a config file loader of
// their own can inspect the effective settings.
func Resolve(opts ...Option) *Options {
	o := &Options{TabWidth: 8, Banner: defaultBanner}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// fileConfig is the YAML shape FromYAML understands. Any field left at its
// zero value is simply not turned into an Option, so FromYAML's output is
// additive: merge it with explicit options (FromYAML's slice first, then
// caller overrides) rather than treating it as the sole source of truth.
type fileConfig struct {
	TabWidth int    `yaml:"tab_width"`
	Trace    bool   `yaml:"trace"`
	Emit     bool   `yaml:"emit"`
	Banner   string `yaml:"banner"`
}

// FromYAML parses YAML bytes into a slice of Options suitable for passing
// to Compile. It is a pure loader — the caller supplies the bytes (from a
// file, an embedded default, wherever); FromYAML does no file I/O itself.
func FromYAML(data []byte) ([]Option, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}

	var opts []Option
	if fc.Trace {
		opts = append(opts, WithTracing(true))
	}
	if fc.Emit {
		opts = append(opts, WithEmit(true))
	}
	if fc.TabWidth > 0 {
		opts = append(opts, WithTabWidth(fc.TabWidth))
	}
	if fc.Banner != "" {
		opts = append(opts, WithBanner(fc.Banner))
	}
	return opts, nil
}
