package decomp

import (
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/decompiler"
	"github.com/rs/zerolog"
)

// Option configures a decompilation.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	indent    int
	pretty    bool
	parens    bool
	maxDepth  int
	maxOutput int
	fn        *bytecode.Function
}

func collectOptions(opts ...Option) *options {
	o := &options{
		logger:   zerolog.Nop(),
		pretty:   true,
		maxDepth: decompiler.DefaultMaxDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) config(logger zerolog.Logger) decompiler.Config {
	return decompiler.Config{
		Indent:       o.indent,
		Pretty:       o.pretty,
		Parenthesize: o.parens,
		MaxDepth:     o.maxDepth,
		MaxOutput:    o.maxOutput,
		Logger:       logger,
	}
}

// WithLogger sets the logger that receives diagnostics. By default nothing
// is logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIndent sets the initial indentation in spaces.
func WithIndent(n int) Option {
	return func(o *options) {
		o.indent = n
	}
}

// WithPretty turns newlines and indentation on or off. Output is pretty
// printed by default.
func WithPretty(pretty bool) Option {
	return func(o *options) {
		o.pretty = pretty
	}
}

// WithParens wraps a decompiled function expression in parentheses so that
// it can stand alone as a statement.
func WithParens(parens bool) Option {
	return func(o *options) {
		o.parens = parens
	}
}

// WithMaxDepth bounds the nesting of constructs that are rendered
// recursively. Deeper input fails with an out of memory error.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithMaxOutput bounds the size in bytes of every text buffer used while
// rendering.
func WithMaxOutput(n int) Option {
	return func(o *options) {
		o.maxOutput = n
	}
}

// WithFunction supplies the function whose script DecompileValueAt
// inspects, so that its arguments and local variables render by name.
func WithFunction(fn *bytecode.Function) Option {
	return func(o *options) {
		o.fn = fn
	}
}
