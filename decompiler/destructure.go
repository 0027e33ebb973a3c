package decompiler

import (
	"strings"

	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// destructure renders the pattern that starts with the dup at pc and
// leaves its text on top of the stack, above the destructured value. It
// returns the pc of the instruction following the pattern.
//
// Each element reads one index or property of the value and stores it:
//
//	dup; <index or key>; getelem|getprop; <target>; pop
//
// and later elements are introduced by a dup with a continue note.
func (f *frame) destructure(pc, end int) int {
	ss := f.ss
	if !f.expect(pc, op.Dup) {
		return end
	}
	pc++

	head := ss.top
	ss.pushText("", op.Nop)
	var b strings.Builder
	object := false
	lasti := -1
	closed := false

	finish := func() {
		if head >= ss.top {
			f.inconsistent("destructuring pattern lost its slot")
			return
		}
		open, closer := "[", "]"
		if object {
			open, closer = "{", "}"
		}
		text := open + b.String()
		if closed {
			text += closer
		}
		ss.offsets[head] = ss.put(text)
		ss.sp.Reserve(parenSlop)
	}

	for pc < end {
		code := f.script.OpAt(pc)
		oplen := f.script.OpLength(pc)
		if code == op.Pop {
			pc += oplen
			break
		}

		key := ""
		keyStart := b.Len()
		switch code {
		case op.Zero, op.One, op.Int8, op.Uint16, op.Int32, op.Double:
			d, ok := f.numberAt(pc)
			if !ok {
				return end
			}
			note := f.script.NoteAt(pc)
			pc += oplen
			if pc == end {
				finish()
				return pc
			}
			if !f.expect(pc, op.GetElem) {
				return end
			}
			if note.Is(srcnote.InitProp) {
				object = true
				b.WriteString(formatNumber(d) + ": ")
			} else {
				i := int(d)
				if float64(i) != d || i < 0 {
					f.ss.fail(f.errAt(pc, "bad destructuring index %v", d))
					return end
				}
				for lasti++; lasti < i; lasti++ {
					b.WriteString(", ")
				}
			}
		case op.Length, op.GetProp, op.CallProp:
			object = true
			key = "length"
			if code != op.Length {
				key = f.atom(pc)
			}
			b.WriteString(propertyKey(key) + ": ")
		default:
			f.ss.fail(f.errAt(pc, "unexpected %s in destructuring pattern", code))
			return end
		}
		pc += f.script.OpLength(pc)
		if pc == end {
			finish()
			return pc
		}

		var (
			target string
			hole   bool
		)
		pc, target, hole = f.destructureTarget(pc, end)
		if ss.failed() {
			return end
		}
		if key != "" && target == key && isIdentifier(key) {
			// {x: x} is written {x}
			s := b.String()[:keyStart]
			b.Reset()
			b.WriteString(s)
		}
		b.WriteString(target)
		if pc == end {
			finish()
			return pc
		}

		if f.script.OpAt(pc) != op.Dup || !f.script.NoteAt(pc).Is(srcnote.Continue) {
			break
		}
		if !hole {
			b.WriteString(", ")
		}
		pc++
	}
	closed = true
	finish()
	return pc
}

// destructureTarget renders the store of one pattern element. It returns
// the pc after the store, the target text, and whether the element is a
// hole.
func (f *frame) destructureTarget(pc, end int) (int, string, bool) {
	ss := f.ss
	code := f.script.OpAt(pc)
	oplen := f.script.OpLength(pc)
	switch code {
	case op.Pop:
		return pc + oplen, ", ", true

	case op.Dup:
		pc = f.destructure(pc, end)
		if ss.failed() || pc == end {
			return pc, "", false
		}
		text := ss.popStr(op.Nop)
		if f.script.OpAt(pc) == op.PopN {
			return pc, text, false
		}
		if !f.expect(pc, op.Pop) {
			return end, "", false
		}
		return pc + f.script.OpLength(pc), text, false

	case op.SetArg, op.SetGVar, op.SetLocal, op.SetLocalPop:
		var text string
		switch code {
		case op.SetArg:
			i := f.script.Index(pc)
			if text = f.argName(i); text == "" {
				ss.fail(f.errAt(pc, "argument %d has no name", i))
				return end, "", false
			}
		case op.SetGVar:
			text = f.atom(pc)
		default:
			text = f.local(f.script.Index(pc))
		}
		if code == op.SetLocalPop {
			return pc + oplen, text, false
		}
		pc += oplen
		if pc == end || f.script.OpAt(pc) == op.PopN {
			return pc, text, false
		}
		if !f.expect(pc, op.Pop) {
			return end, "", false
		}
		return pc + f.script.OpLength(pc), text, false

	default:
		// Any other target is an expression ending in enumelem, which
		// stores the element into the object and index below it.
		pc = decompile(ss, pc, -ss.top)
		if ss.failed() || pc == end {
			return pc, "", false
		}
		if !f.expect(pc, op.EnumElem) {
			return end, "", false
		}
		keyOp := ss.opAt(ss.top - 1)
		xval := ss.popStr(op.Nop)
		lval := ss.popStr(op.GetProp)
		var text string
		switch {
		case lval == "":
			text = xval
		case xval == "":
			text = lval
		default:
			text = elemTarget(lval, xval, keyOp)
		}
		return pc + f.script.OpLength(pc), text, false
	}
}

// groupAssign renders [a, b] = [c, d], whose right-hand values are already
// on the stack. The push or getlocal at f.pc starts the targets, which are
// stored in turn and dropped by a popn.
func (f *frame) groupAssign() {
	ss := f.ss
	note := f.note()
	end := f.end
	ss.pushText("", op.Nop)

	var b strings.Builder
	b.WriteString(varPrefix(note) + "[")
	pc := f.pc
	for {
		pc += f.script.OpLength(pc)
		if pc >= end {
			f.inconsistent("group assignment runs past its range")
			return
		}
		var (
			target string
			hole   bool
		)
		pc, target, hole = f.destructureTarget(pc, end)
		if ss.failed() {
			return
		}
		b.WriteString(target)
		if pc >= end {
			f.inconsistent("group assignment runs past its range")
			return
		}
		if c := f.script.OpAt(pc); c != op.Push && c != op.GetLocal {
			break
		}
		if !hole {
			b.WriteString(", ")
		}
	}
	if !f.expect(pc, op.PopN) {
		return
	}
	b.WriteString("] = [")

	// The slot pushed above holds the targets' text; the values lie
	// beneath it.
	last := ss.top - 1
	first := last - f.script.Uint16At(pc+1)
	if first < 0 {
		f.inconsistent("group assignment has more values than the stack")
		return
	}
	for i := first; i < last; i++ {
		rval := ss.getStr(i)
		if i > first {
			b.WriteString(", ")
		}
		if i == last-1 && rval == "" {
			rval = ", "
		}
		b.WriteString(rval)
	}
	b.WriteString("]")

	f.truncate(first)
	f.pc = pc
	f.oplen = f.script.OpLength(pc)
	f.advance = f.oplen
	f.finishGroupAssign(b.String())
}

// numberAt returns the value of the numeric literal at pc.
func (f *frame) numberAt(pc int) (float64, bool) {
	s := f.script
	switch s.OpAt(pc) {
	case op.Zero:
		return 0, true
	case op.One:
		return 1, true
	case op.Int8:
		return float64(s.Int8At(pc + 1)), true
	case op.Uint16:
		return float64(s.Uint16At(pc + 1)), true
	case op.Int32:
		return float64(s.Int32At(pc + 1)), true
	case op.Double:
		if v, ok := s.Const(s.Index(pc)); ok {
			return v.Num, true
		}
	}
	f.ss.fail(f.errAt(pc, "expected a number"))
	return 0, false
}
