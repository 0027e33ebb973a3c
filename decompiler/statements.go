package decompiler

import (
	"strings"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// nop handles the structural markers the compiler leaves as no-ops.
func (f *frame) nop() {
	note := f.note()
	p := f.p
	switch {
	case note == nil:
	case note.Is(srcnote.While):
		f.doWhile(note)
	case note.Is(srcnote.For):
		f.forLoop(note, "")
	case note.Is(srcnote.Label):
		p.indent -= 4
		p.printf("\t%s:\n", f.label(note))
		p.indent += 4
	case note.Is(srcnote.LabelBrace):
		p.printf("\t%s: {\n", f.label(note))
		p.indent += 4
	case note.Is(srcnote.EndBrace):
		p.indent -= 4
		p.printf("\t}\n")
	case note.Is(srcnote.FuncDef):
		f.defun(note.Arg(0))
	case note.Is(srcnote.Brace):
		n := note.Arg(0)
		p.printf("\t{\n")
		p.indent += 4
		f.sub(f.pc+f.oplen, n-f.oplen)
		p.indent -= 4
		p.printf("\t}\n")
		f.advance = n
	}
}

func (f *frame) label(note *srcnote.Note) string {
	s, ok := f.script.Atom(note.Arg(0))
	if !ok {
		f.inconsistent("label atom %d out of range", note.Arg(0))
	}
	return s
}

// popCond pops a loop or branch condition, parenthesizing assignments.
func (f *frame) popCond() string {
	if op.Lookup(f.ss.opAt(f.ss.top - 1)).Has(op.FlagSet) {
		return f.ss.popStr(op.IfEq)
	}
	return f.ss.popStr(op.Nop)
}

// doWhile renders a do-while loop. The marker is followed by the body,
// which ends in the condition and the ifne jumping back to its start.
func (f *frame) doWhile(note *srcnote.Note) {
	body := f.pc + f.oplen
	tail := note.Arg(0) - f.oplen
	if !f.expect(body+tail, op.IfNe) {
		return
	}
	f.p.printf("\tdo {\n")
	f.p.indent += 4
	f.sub(body, tail)
	f.p.indent -= 4
	f.p.printf("\t} while (%s);\n", f.popCond())
	f.advance = f.oplen + tail + f.script.OpLength(body+tail)
}

// forLoop renders a for(;;) loop whose head is marked at f.pc. Note offsets
// are relative to the instruction after the marker.
func (f *frame) forLoop(note *srcnote.Note, init string) {
	ss, p := f.ss, f.p
	base := f.pc + f.script.OpLength(f.pc)
	cond, next, tail := note.Arg(0), note.Arg(1), note.Arg(2)

	body := base
	if cond != tail {
		if !f.expect(base, op.Goto) {
			return
		}
		body += f.script.OpLength(base)
	}
	if !f.expect(base+tail, op.IfNe) {
		return
	}

	p.printf("\tfor (%s;", init)
	if cond != tail {
		f.sub(base+cond, tail-cond)
		p.printf(" %s", ss.popStr(op.Nop))
	}
	p.puts(";")
	if next != cond {
		// The update ends in a pop that is not rendered.
		saveTop := ss.top
		f.sub(base+next, cond-next-1)
		update := ""
		switch ss.top - saveTop {
		case 0:
		case 1:
			update = ss.popStr(op.Nop)
		default:
			f.inconsistent("for loop update left %d values", ss.top-saveTop)
			return
		}
		p.printf(" %s", update)
	}
	p.printf(") {\n")
	p.indent += 4
	f.sub(body, next-(body-base))
	p.indent -= 4
	p.printf("\t}\n")
	f.advance = base + tail + f.script.OpLength(base+tail) - f.pc
}

// jump renders a goto according to its note.
func (f *frame) jump() {
	note := f.note()
	p := f.p
	switch {
	case note.Is(srcnote.ForIn):
		f.forIn(note)
	case note.Is(srcnote.While):
		f.whileLoop(note)
	case note.Is(srcnote.Cont2Label):
		p.printf("\tcontinue %s;\n", f.label(note))
	case note.Is(srcnote.Continue):
		p.printf("\tcontinue;\n")
	case note.Is(srcnote.Break2Label):
		p.printf("\tbreak %s;\n", f.label(note))
	case note.Is(srcnote.Hidden):
	default:
		p.printf("\tbreak;\n")
	}
}

// whileLoop renders a while loop entered by a goto to its condition.
func (f *frame) whileLoop(note *srcnote.Note) {
	cond := f.script.JumpOffset(f.pc)
	tail := note.Arg(0)
	if !f.expect(f.pc+tail, op.IfNe) {
		return
	}
	f.sub(f.pc+cond, tail-cond)
	f.p.printf("\twhile (%s) {\n", f.popCond())
	f.p.indent += 4
	f.sub(f.pc+f.oplen, cond-f.oplen)
	f.p.indent -= 4
	f.p.printf("\t}\n")
	f.advance = tail + f.script.OpLength(f.pc+tail)
}

// forIn renders a for-in loop, or one head of a generator expression. The
// goto jumps to the moreiter test; the target assignment follows the goto
// and the body follows the target.
func (f *frame) forIn(note *srcnote.Note) {
	ss, p := f.ss, f.p
	cond := f.script.JumpOffset(f.pc)
	next, tail := note.Arg(0), note.Arg(1)

	f.sub(f.pc+f.oplen, next-f.oplen)
	lval := ss.popStr(op.Nop)

	if ss.inGenExp {
		// The iterated object is replaced by the head text, which the
		// yield appends to its operand.
		rval := ss.popStr(op.Nop)
		head := " for (" + lval + " in " + rval + ")"
		if ss.opAt(ss.top-1) == op.ForLocal {
			head = ss.popStr(op.Nop) + head
		}
		ss.pushText(head, op.ForLocal)
		f.sub(f.pc+next, cond-next)
		f.advance = tail
		return
	}

	rval := ss.getStr(ss.top - 1)
	if !f.expect(f.pc+tail, op.IfNe) {
		return
	}
	p.printf("\tfor (%s in %s) {\n", lval, rval)
	p.indent += 4
	f.sub(f.pc+next, cond-next)
	p.indent -= 4
	p.printf("\t}\n")
	f.advance = tail + f.script.OpLength(f.pc+tail)
}

// ifeq renders if statements, else-if chains, generator expression filters
// and conditional expressions.
func (f *frame) ifeq() {
	ss, p := f.ss, f.p
	elseif := false
	for {
		jmp := f.script.JumpOffset(f.pc)
		note := f.note()
		switch {
		case note.Is(srcnote.If) || note.Is(srcnote.IfElse):
			rval := f.popCond()
			if ss.inGenExp {
				if !note.Is(srcnote.If) {
					f.inconsistent("else in generator expression")
					return
				}
				if ss.opAt(ss.top-1) != op.ForLocal {
					f.inconsistent("generator expression filter without a loop head")
					return
				}
				head := ss.popStr(op.Nop)
				ss.pushText(head+" if ("+rval+")", op.ForLocal)
			} else if elseif {
				p.printf(" if (%s) {\n", rval)
				p.indent += 4
			} else {
				p.printf("\tif (%s) {\n", rval)
				p.indent += 4
			}

			if note.Is(srcnote.If) {
				f.sub(f.pc+f.oplen, jmp-f.oplen)
				f.advance = jmp
			} else {
				tail := note.Arg(0)
				f.sub(f.pc+f.oplen, tail-f.oplen)
				p.indent -= 4
				f.pc += tail
				if !f.expect(f.pc, op.Goto) {
					return
				}
				f.oplen = f.script.OpLength(f.pc)
				jmp = f.script.JumpOffset(f.pc)
				p.printf("\t} else")

				if cond := note.Arg(1); cond != 0 {
					// The else branch is a single if statement; render its
					// condition and start over.
					cond -= tail
					f.sub(f.pc+f.oplen, cond-f.oplen)
					f.pc += cond
					f.oplen = f.script.OpLength(f.pc)
					if !f.expect(f.pc, op.IfEq) {
						return
					}
					elseif = true
					continue
				}
				p.printf(" {\n")
				p.indent += 4
				f.sub(f.pc+f.oplen, jmp-f.oplen)
				f.advance = jmp
			}
			if !ss.inGenExp {
				p.indent -= 4
				p.printf("\t}\n")
			}

		case note.Is(srcnote.Cond):
			xval := ss.popStr(op.IfEq)
			n := note.Arg(0)
			f.sub(f.pc+f.oplen, n-f.oplen)
			lval := ss.popStr(op.IfEq)
			f.pc += n
			if !f.expect(f.pc, op.Goto) {
				return
			}
			f.oplen = f.script.OpLength(f.pc)
			jmp = f.script.JumpOffset(f.pc)
			f.sub(f.pc+f.oplen, jmp-f.oplen)
			rval := ss.popStr(op.IfEq)
			f.push(xval + " ? " + lval + " : " + rval)
			f.advance = jmp

		default:
			ss.popStr(op.Nop)
		}
		return
	}
}

// logical renders || and &&. The right operand spans the instructions up
// to the jump target.
func (f *frame) logical() {
	ss, p := f.ss, f.p
	tok := "||"
	if f.op == op.And {
		tok = "&&"
	}
	lval := ss.popStr(f.op)
	done := f.pc + f.script.JumpOffset(f.pc)
	start := f.pc + f.oplen
	f.sub(start, done-start)
	rval := ss.popStr(f.op)
	f.advance = done - f.pc

	if p.pretty && p.indent+4+len(lval)+4+len(rval) > 75 {
		f.push(lval + " " + tok + "\n" + strings.Repeat(" ", p.indent+4) + rval)
		return
	}
	f.push(lval + " " + tok + " " + rval)
}

func (f *frame) ret() {
	ss := f.ss
	if f.fun == nil {
		f.inconsistent("return outside a function")
		return
	}
	if f.op == op.Return && f.fun.Has(bytecode.ExprClosure) {
		rval := ss.popStr(op.SetName)
		if strings.HasPrefix(rval, "{") {
			rval = "(" + rval + ")"
		}
		if !f.fun.Has(bytecode.Lambda) && f.fun.Name() != "" {
			rval += ";"
		}
		f.p.printf("%s", rval)
		return
	}
	if rval := ss.popStr(f.op); rval != "" {
		f.p.printf("\treturn %s;\n", rval)
	} else {
		f.p.printf("\treturn;\n")
	}
}

func (f *frame) throw() {
	if f.note().Is(srcnote.Hidden) {
		return
	}
	f.p.printf("\tthrow %s;\n", f.ss.popStr(f.op))
}

// pop ends an expression statement, or marks a for loop head, a comma
// operator or a hidden stack adjustment.
func (f *frame) pop() {
	ss := f.ss
	note := f.note()
	switch {
	case note.Is(srcnote.For):
		if ss.opAt(ss.top-1) == op.In {
			f.op = op.Lsh
		}
		init := ss.popStr(f.op)
		f.forLoop(note, init)

	case note.Is(srcnote.PCDelta):
		// The note's offset spans the right operand of the comma.
		lval := ss.popStr(op.Pop)
		done := f.pc + f.oplen
		end := f.pc + note.Arg(0)
		f.sub(done, end-done)
		rval := ss.popStr(op.Pop)
		f.push(lval + ", " + rval)
		f.advance = end - f.pc

	case note.Is(srcnote.Hidden):

	default:
		if ss.opAt(ss.top-1) == op.Yield {
			f.op = op.Nop
		}
		rval := ss.popStr(f.op)
		if rval == "" || strings.HasPrefix(rval, "/*") {
			return
		}
		if strings.HasPrefix(rval, "{") || strings.HasPrefix(rval, "function ") {
			f.p.printf("\t(%s);\n", rval)
		} else {
			f.p.printf("\t%s;\n", rval)
		}
	}
}

// popn drops several values, rendering a group assignment when the values
// are its right-hand side.
func (f *frame) popn() {
	ss := f.ss
	note := f.note()
	oldtop := ss.top
	newtop := oldtop - f.script.Uint16At(f.pc+1)
	if newtop < 0 {
		f.inconsistent("popn below the bottom of the stack")
		return
	}
	if note.Is(srcnote.Hidden) {
		return
	}
	if note.Is(srcnote.GroupAssign) {
		var b strings.Builder
		b.WriteString(varPrefix(note))
		b.WriteString("[] = [")
		for i := newtop; i < oldtop; i++ {
			rval := ss.getStr(i)
			if i > newtop {
				b.WriteString(", ")
			}
			if i == oldtop-1 && rval == "" {
				rval = ", "
			}
			b.WriteString(rval)
		}
		b.WriteString("]")
		f.truncate(newtop)
		f.finishGroupAssign(b.String())
		return
	}
	f.truncate(newtop)
}

// truncate drops every slot from top down to n.
func (f *frame) truncate(n int) {
	ss := f.ss
	if n < 0 {
		f.inconsistent("operand stack truncated to depth %d", n)
		return
	}
	if n >= ss.top {
		return
	}
	off := ss.offsets[n]
	ss.top = n
	if off >= 0 {
		ss.retract(off)
	}
}

// finishGroupAssign places the text of a group assignment ending with the
// popn at f.pc: as a for loop's init or update part, or as a statement.
func (f *frame) finishGroupAssign(text string) {
	next := f.pc + f.script.OpLength(f.pc)
	if f.script.OpAt(next) == op.Nop {
		note := f.script.NoteAt(next)
		if note.Is(srcnote.For) {
			f.pc = next
			f.op = op.Nop
			f.forLoop(note, text)
			return
		}
		if note == nil {
			f.push(text)
			return
		}
	}
	f.p.printf("\t%s;\n", text)
}

func (f *frame) finally() {
	p := f.p
	p.indent -= 4
	p.printf("\t} finally {\n")
	p.indent += 4
	// finally pushes the pending exception and the return address.
	f.ss.pushText(exceptionCookie, op.Finally)
	f.push(retsubCookie)
}

// enterCatch renders the head of a catch clause. The exception is bound by
// a setlocalpop, or destructured by a pattern that ends in a pop.
func (f *frame) enterCatch() {
	ss, p := f.ss, f.p
	note := f.note()
	if !note.Is(srcnote.Catch) {
		f.inconsistent("catch clause without a note")
		return
	}
	if note.Arg(0) != 0 {
		f.unsupported("guarded catch clauses are not supported")
		return
	}
	p.indent -= 4
	p.printf("\t} catch (")

	pc := f.pc + f.oplen
	if !f.expect(pc, op.Exception) {
		return
	}
	pc += f.script.OpLength(pc)
	ss.pushText(exceptionCookie, op.Exception)

	if f.script.OpAt(pc) == op.Dup {
		if !f.script.NoteAt(pc).Is(srcnote.Destruct) {
			f.unsupported("guarded catch clauses are not supported")
			return
		}
		pc = f.destructure(pc, f.end)
		if ss.failed() || !f.expect(pc, op.Pop) {
			return
		}
		pc += f.script.OpLength(pc)
		p.puts(ss.popStr(op.Nop))
	} else {
		if !f.expect(pc, op.SetLocalPop) {
			return
		}
		name, ok := f.varName(f.script.Index(pc))
		if !ok {
			f.inconsistent("catch variable in stack slot %d", f.script.Index(pc))
			return
		}
		pc += f.script.OpLength(pc)
		p.puts(name)
	}

	if rval := ss.popStr(op.Nop); rval != exceptionCookie {
		f.inconsistent("catch clause lost the exception")
		return
	}
	p.printf(") {\n")
	p.indent += 4
	f.advance = pc - f.pc
}

// leaveCatch ends a catch clause. The note records the stack depth the
// clause must return to.
func (f *frame) leaveCatch() {
	note := f.note()
	if note == nil || note.Is(srcnote.Hidden) {
		return
	}
	if !note.Is(srcnote.Catch) {
		f.inconsistent("unexpected %s note", note.Type)
		return
	}
	depth := note.Arg(0)
	if depth < 0 {
		f.inconsistent("catch clause leaves a stack of depth %d", depth)
		return
	}
	if f.ss.top > depth {
		f.truncate(depth)
	}
}

// yield renders a yield expression, or completes a generator expression.
func (f *frame) yield() {
	ss := f.ss
	if ss.inGenExp && f.note() != nil {
		if !f.note().Is(srcnote.Hidden) {
			f.inconsistent("unexpected %s note", f.note().Type)
			return
		}
		rval := ss.popStr(op.SetName)
		if ss.opAt(ss.top-1) != op.ForLocal {
			f.inconsistent("generator expression without a loop head")
			return
		}
		head := ss.popStr(op.Nop)
		ss.top = 0
		ss.sp.Retract(parenSlop)
		ss.pushText(rval+head, op.Pop)
		ss.genExpDone = true
		return
	}

	rval := ss.popStr(op.SetName)
	switch {
	case rval == "":
		f.push("yield")
	case rval == "yield" || strings.HasPrefix(rval, "yield "):
		f.push("yield (" + rval + ")")
	default:
		f.push("yield " + rval)
	}
}

// defun renders the function declaration with the given index.
func (f *frame) defun(index int) {
	fn, ok := f.script.Function(index)
	if !ok {
		f.inconsistent("function index %d out of range", index)
		return
	}
	p := f.p
	p.puts("\n")
	np := newPrinter(p.sess, fn, p.indent, p.pretty, p.grouped, p.strict)
	if err := decompileFunction(np, fn); err != nil {
		f.ss.fail(err)
		return
	}
	p.puts(np.text())
	p.printf("\n\n")
}
