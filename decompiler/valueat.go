package decompiler

import (
	"errors"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/pcstack"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Selector picks the operand stack slot whose producer ValueAt renders.
type Selector struct {
	slot   int
	search bool
	stack  []bytecode.Value
	value  bytecode.Value
}

// Slot selects a slot relative to the top of the stack: -1 is the top.
func Slot(i int) Selector {
	return Selector{slot: i}
}

// Search selects the topmost slot of the runtime stack holding v. The stack
// is given bottom first. A match above the statically known depth is taken
// to be the value the instruction at pc is producing.
func Search(stack []bytecode.Value, v bytecode.Value) Selector {
	return Selector{search: true, stack: stack, value: v}
}

// IsSearch reports whether the selector scans the stack for a value.
func (s Selector) IsSearch() bool {
	return s.search
}

// Index returns the relative slot index of a slot selector.
func (s Selector) Index() int {
	return s.slot
}

// ValueAt renders the expression that produced the selected operand stack
// slot as the stack stands before the instruction at pc executes. It is
// meant for error messages: callers fall back to a generic rendering of the
// value when it fails.
func ValueAt(script *bytecode.Script, fn *bytecode.Function, pc int, sel Selector, cfg Config) (string, error) {
	pcs, err := pcstack.Reconstruct(script, pc)
	if err != nil {
		return "", err
	}
	depth := len(pcs)

	var producer int
	if sel.search {
		idx := -1
		for i := len(sel.stack) - 1; i >= 0; i-- {
			if sel.stack[i].Equal(sel.value) {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			return "", errz.Inconsistentf(pc, script.OpAt(pc), "value %s is not on the stack", sel.value)
		case idx < depth:
			producer = pcs[idx]
		default:
			producer = pc
		}
	} else {
		i := depth + sel.slot
		if sel.slot >= 0 || i < 0 {
			return "", errz.Inconsistentf(pc, script.OpAt(pc), "slot %d outside a stack of depth %d", sel.slot, depth)
		}
		producer = pcs[i]
	}

	if m, ok := script.MacroAt(producer); ok {
		return "", errz.Unsupportedf(producer, script.OpAt(producer),
			"value produced inside the inline macro at [%d, %d)", m.Start, m.End)
	}
	text, err := decompileExpression(newSession(cfg), script, fn, producer, pc)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errz.Inconsistentf(producer, script.OpAt(producer), "expression rendered as empty text")
	}
	return text, nil
}

// errSelfDependent marks an expression extent that needs the value it is
// meant to produce. Only malformed notes describe such an extent.
var errSelfDependent = errors.New("expression depends on its own value")

type exprKey struct {
	script *bytecode.Script
	pc     int
}

type exprResult struct {
	text    string
	err     error
	pending bool
}

// decompileExpression renders the expression whose value the instruction at
// pc produces. Results are kept for the rest of the session, so a producer
// shared by several live slots is rendered once, and a producer whose
// extent needs its own value is reported instead of recursing forever.
func decompileExpression(sess *session, script *bytecode.Script, fun *bytecode.Function, pc, faultPC int) (string, error) {
	key := exprKey{script: script, pc: pc}
	if r, ok := sess.exprs[key]; ok {
		if r.pending {
			return "", errz.Inconsistentf(pc, script.OpAt(pc), "cyclic expression extent").WithCause(errSelfDependent)
		}
		return r.text, r.err
	}
	if sess.exprs == nil {
		sess.exprs = make(map[exprKey]*exprResult)
	}
	r := &exprResult{pending: true}
	sess.exprs[key] = r
	r.text, r.err = renderExpression(sess, script, fun, pc, faultPC)
	r.pending = false
	return r.text, r.err
}

// renderExpression renders one producer. The expression's extent comes from
// a pcbase or pcdelta note unless the instruction stands alone.
func renderExpression(sess *session, script *bytecode.Script, fun *bytecode.Function, pc, faultPC int) (string, error) {
	code := script.OpAt(pc)
	switch code {
	case op.Case, op.Dup, op.Dup2, op.BindName:
		return "", errz.Inconsistentf(pc, code, "value of %s cannot be rendered", code)
	case op.Push:
		return "undefined", nil
	case op.This:
		return "this", nil
	}
	if err := sess.enter(pc, code); err != nil {
		return "", err
	}
	defer sess.leave()

	oplen := script.OpLength(pc)
	if oplen == 0 {
		return "", errz.Inconsistentf(pc, code, "undecodable instruction")
	}
	begin, end := pc, pc+oplen
	switch op.Lookup(code).Mode {
	case op.ModeNone, op.ModeProp, op.ModeElem:
		note := script.NoteAt(pc)
		switch {
		case note.Is(srcnote.PCBase):
			begin -= note.Arg(0)
		case note.Is(srcnote.PCDelta):
			end = begin + note.Arg(0)
			begin += oplen
		default:
			return "", errz.Inconsistentf(pc, code, "expression has no extent")
		}
	}
	if end <= begin || begin < script.Main() || end > script.Len() {
		return "", errz.Inconsistentf(pc, code, "expression range [%d, %d) out of bounds", begin, end)
	}

	pcs, err := pcstack.Reconstruct(script, begin)
	if err != nil {
		return "", err
	}
	for _, producer := range pcs {
		if producer == pc {
			return "", errz.Inconsistentf(pc, code, "expression range [%d, %d) is malformed", begin, end).WithCause(errSelfDependent)
		}
	}
	p := newPrinter(sess, fun, 0, false, false, false)
	p.fence = end
	p.faultPC = faultPC
	p.pcstack = pcs
	if err := decompileCode(p, script, begin, end-begin, len(pcs)); err != nil {
		sess.log.Debug().
			Int("pc", pc).
			Str("opcode", code.String()).
			Err(err).
			Msg("expression not rendered")
		return "", err
	}
	return p.text(), nil
}
