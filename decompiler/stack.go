package decompiler

import (
	"errors"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/sprinter"
)

// parenSlop is the gap reserved after every pushed string. popPrec writes
// the parentheses of a lower precedence operand into the gaps around it.
const parenSlop = 3

// stack holds the source text of the values on the modeled operand stack.
// Each entry is an offset into the stack's sprinter together with the
// opcode that produced it; the opcode's precedence decides whether the text
// must be parenthesized where it is consumed.
//
// Offsets of -2 and below stand for slots that were live before the rendered
// range began; they are resolved through the printer's pcstack on first use.
// An offset of -1 marks a slot whose producer could not be rendered.
//
// Errors are sticky: the first failure is kept and reported by the render
// loop once the current instruction completes.
type stack struct {
	p       *printer
	script  *bytecode.Script
	sp      *sprinter.Sprinter
	offsets []int
	opcodes []op.Code
	top     int
	err     error

	// inGenExp is set while rendering the body of a generator expression;
	// genExpDone once its yield has been reached.
	inGenExp   bool
	genExpDone bool
}

func newStack(p *printer, script *bytecode.Script) *stack {
	// one extra slot holds the target of a for-in loop head
	depth := script.MaxDepth() + 1
	return &stack{
		p:       p,
		script:  script,
		sp:      sprinter.New(parenSlop, p.sess.maxOutput),
		offsets: make([]int, depth),
		opcodes: make([]op.Code, depth),
	}
}

func (ss *stack) fail(err error) {
	if ss.err == nil && err != nil {
		ss.err = err
	}
}

func (ss *stack) failed() bool {
	if ss.err == nil {
		if err := ss.sp.Err(); err != nil {
			ss.err = err
		} else if err := ss.p.out.Err(); err != nil {
			ss.err = err
		}
	}
	return ss.err != nil
}

// push records the text at off as the new top of stack.
func (ss *stack) push(off int, code op.Code) {
	if ss.top >= len(ss.offsets) {
		ss.fail(errz.Inconsistentf(errz.NoPC, code, "operand stack overflow at depth %d", ss.top))
		return
	}
	ss.offsets[ss.top] = off
	ss.opcodes[ss.top] = code
	ss.top++
	ss.sp.Reserve(parenSlop)
}

func (ss *stack) pushText(text string, code op.Code) {
	ss.push(ss.sp.Put(text), code)
}

// getOff returns the offset of the text in slot i, rendering the slot's
// producer first if the slot predates the current range.
func (ss *stack) getOff(i int) int {
	if ss.failed() {
		return 0
	}
	if i < 0 || i >= ss.top {
		ss.fail(errz.Inconsistentf(errz.NoPC, op.Nop, "operand stack slot %d out of range [0, %d)", i, ss.top))
		return 0
	}
	off := ss.offsets[i]
	if off >= 0 {
		return off
	}
	if off <= -2 && ss.p.pcstack != nil {
		idx := -2 - off
		if idx >= len(ss.p.pcstack) {
			ss.fail(errz.Inconsistentf(errz.NoPC, op.Nop, "no producer for operand stack slot %d", idx))
			return 0
		}
		text, err := decompileExpression(ss.p.sess, ss.p.script, ss.p.fun, ss.p.pcstack[idx], ss.p.faultPC)
		if err == nil {
			off = ss.sp.Put(text)
			ss.sp.Reserve(parenSlop)
			ss.offsets[i] = off
			return off
		}
		if kind, ok := errz.KindOf(err); ok && kind == errz.ErrInconsistency && !errors.Is(err, errSelfDependent) {
			ss.offsets[i] = -1
		} else {
			ss.fail(err)
		}
	}
	return 0
}

// getStr returns the text in slot i without popping it.
func (ss *stack) getStr(i int) string {
	return ss.sp.String(ss.getOff(i))
}

// peek returns the text of the top slot, or the empty string if the stack
// is empty.
func (ss *stack) peek() string {
	if ss.top == 0 {
		return ""
	}
	return ss.getStr(ss.top - 1)
}

// opAt returns the producer of slot i, or Nop if the slot does not exist.
func (ss *stack) opAt(i int) op.Code {
	if i < 0 || i >= ss.top {
		return op.Nop
	}
	return ss.opcodes[i]
}

// popPrec pops the top slot, parenthesizing its text if its producer binds
// less tightly than prec.
func (ss *stack) popPrec(prec int) string {
	if ss.top == 0 {
		ss.fail(errz.Inconsistentf(errz.NoPC, op.Nop, "operand stack underflow"))
		return ""
	}
	off := ss.getOff(ss.top - 1)
	ss.top--
	text := ss.sp.String(off)
	if p := op.Lookup(ss.opcodes[ss.top]).Prec; p != 0 && p < prec {
		text = ss.parenthesize(off, text)
	}
	ss.retract(off)
	return text
}

// parenthesize returns text, stored at off, wrapped in parentheses. The
// parentheses go in the zero bytes on either side of the text and are
// cleared once the result is read.
func (ss *stack) parenthesize(off int, text string) string {
	sp := ss.sp
	end := off + len(text)
	if off < 1 || end+2 > sp.Offset() || sp.ByteAt(off-1) != 0 || sp.ByteAt(end) != 0 || sp.ByteAt(end+1) != 0 {
		return "(" + text + ")"
	}
	sp.SetByteAt(off-1, '(')
	sp.SetByteAt(end, ')')
	wrapped := sp.String(off - 1)
	sp.SetByteAt(off-1, 0)
	sp.SetByteAt(end, 0)
	return wrapped
}

// popStr pops the top slot for use as an operand of code.
func (ss *stack) popStr(code op.Code) string {
	return ss.popPrec(op.Lookup(code).Prec)
}

// retract releases the buffer space from off onward unless a live slot
// still refers to it.
func (ss *stack) retract(off int) {
	if off < parenSlop {
		return
	}
	for i := 0; i < ss.top; i++ {
		if ss.offsets[i] >= off {
			return
		}
	}
	ss.sp.Retract(off)
}

// put writes text to the stack's buffer and returns its offset, for use as
// the value an instruction pushes.
func (ss *stack) put(text string) int {
	return ss.sp.Put(text)
}
