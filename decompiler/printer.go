// Package decompiler renders bytecode scripts and functions back into
// source text.
//
// Rendering is driven by a linear walk over the instructions of a range.
// Expression instructions push their source text onto an operand stack that
// mirrors the interpreter's; statement instructions, usually recognized by an
// attached source note, write indented text to a printer. Nested constructs
// recurse over their sub-ranges.
package decompiler

import (
	"strings"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/sprinter"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth is the recursion limit used when none is configured.
const DefaultMaxDepth = 256

// Config controls how source text is rendered.
type Config struct {
	// Indent is the initial indentation, in spaces.
	Indent int
	// Pretty enables newlines and indentation. Without it statements are
	// written back to back.
	Pretty bool
	// Parenthesize wraps a function expression in parentheses so that it
	// can stand alone as a statement.
	Parenthesize bool
	// MaxDepth bounds the nesting of recursive rendering calls.
	MaxDepth int
	// MaxOutput bounds the size of every text buffer, in bytes.
	MaxOutput int
	// Logger receives diagnostics.
	Logger zerolog.Logger
}

// session carries the limits and diagnostics shared by every printer and
// stack created while serving one request.
type session struct {
	maxDepth  int
	maxOutput int
	depth     int
	log       zerolog.Logger

	// exprs holds the producers rendered for ValueAt, by script and pc.
	exprs map[exprKey]*exprResult

	// step, when set, is called with the operand stack depth before each
	// instruction is rendered.
	step func(script *bytecode.Script, pc, depth int)
}

func newSession(cfg Config) *session {
	s := &session{
		maxDepth:  cfg.MaxDepth,
		maxOutput: cfg.MaxOutput,
		log:       cfg.Logger,
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}
	if s.maxOutput <= 0 {
		s.maxOutput = sprinter.DefaultMaxSize
	}
	return s
}

func (s *session) enter(pc int, code op.Code) error {
	if s.depth >= s.maxDepth {
		return errz.NewStructuredErrorf(errz.ErrOutOfMemory, pc, code, "too much recursion")
	}
	s.depth++
	return nil
}

func (s *session) leave() {
	s.depth--
}

// printer accumulates the statement text of one script or function.
type printer struct {
	sess    *session
	out     *sprinter.Sprinter
	indent  int
	pretty  bool
	grouped bool
	strict  bool
	script  *bytecode.Script
	fun     *bytecode.Function

	// fence is the end of the instruction range being rendered on behalf
	// of an error message, or -1. The instruction ending at the fence is
	// shown as the value it reads rather than the update it performs.
	fence   int
	faultPC int
	// pcstack holds the producers of the stack slots live at the start of
	// an expression range. Slots not rendered within the range are
	// rendered from their producers on demand.
	pcstack []int
}

func newPrinter(sess *session, fun *bytecode.Function, indent int, pretty, grouped, strict bool) *printer {
	return &printer{
		sess:    sess,
		out:     sprinter.New(0, sess.maxOutput),
		indent:  indent,
		pretty:  pretty,
		grouped: grouped,
		strict:  strict,
		fun:     fun,
		fence:   -1,
		faultPC: -1,
	}
}

// printf writes formatted text. A leading tab is replaced by the current
// indentation when pretty printing and dropped otherwise. A trailing newline
// is dropped when not pretty printing.
func (p *printer) printf(format string, args ...any) {
	if format == "" {
		return
	}
	if format[0] == '\t' {
		format = format[1:]
		if p.pretty && p.indent > 0 {
			p.out.Put(strings.Repeat(" ", p.indent))
		}
	}
	if !p.pretty && strings.HasSuffix(format, "\n") {
		format = format[:len(format)-1]
	}
	if len(args) == 0 {
		p.out.Put(format)
		return
	}
	p.out.Printf(format, args...)
}

// puts writes text as is.
func (p *printer) puts(text string) {
	p.out.Put(text)
}

func (p *printer) text() string {
	return p.out.Text(0)
}
