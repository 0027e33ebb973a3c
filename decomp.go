// Package decomp reconstructs source text from compiled bytecode scripts.
//
// DecompileScript and DecompileFunction render whole programs. DecompileValueAt
// renders the expression that produced one operand stack slot, for use in
// runtime error messages such as "obj.prop is undefined":
//
//	text, ok := decomp.DecompileValueAt(script, pc, decomp.Slot(-1))
//	if !ok {
//		text = fallback(value)
//	}
//
// All functions are safe for concurrent use on independent or shared
// scripts; every call allocates its own rendering state.
package decomp

import (
	"errors"

	"github.com/gofrs/uuid"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/decompiler"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/rs/zerolog"
)

// Selector picks the operand stack slot rendered by DecompileValueAt.
type Selector = decompiler.Selector

// Slot selects a stack slot relative to the top: -1 is the top of stack.
func Slot(i int) Selector {
	return decompiler.Slot(i)
}

// Search selects the topmost slot of the runtime stack, given bottom first,
// that holds v.
func Search(stack []bytecode.Value, v bytecode.Value) Selector {
	return decompiler.Search(stack, v)
}

// DecompileScript renders the statements of a top-level script.
func DecompileScript(script *bytecode.Script, opts ...Option) (string, error) {
	o := collectOptions(opts...)
	logger := runLogger(o.logger, "script")
	text, err := decompiler.Script(script, o.config(logger))
	if err != nil {
		logFailure(logger, err)
		return "", err
	}
	return text, nil
}

// DecompileFunction renders fn as a function declaration, or as a function
// expression when fn is a lambda.
func DecompileFunction(fn *bytecode.Function, opts ...Option) (string, error) {
	o := collectOptions(opts...)
	logger := runLogger(o.logger, "function")
	text, err := decompiler.Function(fn, o.config(logger))
	if err != nil {
		logFailure(logger, err)
		return "", err
	}
	return text, nil
}

// DecompileValueAt renders the expression that produced the selected stack
// slot, as the stack stands before the instruction at pc executes. It
// reports false on any failure, in which case the caller should render the
// runtime value itself.
func DecompileValueAt(script *bytecode.Script, pc int, sel Selector, opts ...Option) (string, bool) {
	o := collectOptions(opts...)
	o.pretty = false
	logger := runLogger(o.logger, "value_at")
	text, err := decompiler.ValueAt(script, o.fn, pc, sel, o.config(logger))
	if err != nil {
		logFailure(logger.With().Int("at", pc).Logger(), err)
		return "", false
	}
	return text, true
}

func runLogger(logger zerolog.Logger, op string) zerolog.Logger {
	return logger.With().
		Str("run_id", uuid.Must(uuid.NewV4()).String()).
		Str("op", op).
		Logger()
}

// logFailure logs resource exhaustion as a warning and everything else,
// which callers recover from, at debug level.
func logFailure(logger zerolog.Logger, err error) {
	event := logger.Debug()
	if errors.Is(err, errz.OutOfMemory) {
		event = logger.Warn()
	}
	var se *errz.StructuredError
	if errors.As(err, &se) {
		event = event.Str("kind", se.Kind.String())
		if se.PC >= 0 {
			event = event.Int("pc", se.PC).Str("opcode", se.Op.String())
		}
	}
	event.Err(err).Msg("decompilation failed")
}
