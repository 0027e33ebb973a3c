package decompiler

import (
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// noPush marks an instruction that leaves nothing for the loop to push.
const noPush = -2

// frame is the decoding state of one call to decompile.
type frame struct {
	ss     *stack
	p      *printer
	script *bytecode.Script
	fun    *bytecode.Function

	start int
	end   int
	pc    int
	oplen int
	// advance is added to pc once the instruction is handled. Handlers
	// that consume a whole construct set it to the construct's length.
	advance int

	// op drives automatic parenthesization while operands are popped and
	// may be changed by a handler for that purpose. saveop is recorded as
	// the producer of the pushed text. lastop is the saveop of the previous
	// instruction.
	op     op.Code
	saveop op.Code
	lastop op.Code
	todo   int
}

// decompile renders instructions starting at pc. When nb >= 0 the nb bytes
// following pc are rendered. When nb < 0 rendering stops before the first
// instruction that would leave -(nb+1) values on the stack. It returns the
// pc at which rendering stopped; failures are recorded on ss.
func decompile(ss *stack, pc, nb int) int {
	if ss.failed() {
		return pc
	}
	if err := ss.p.sess.enter(pc, ss.script.OpAt(pc)); err != nil {
		ss.fail(err)
		return pc
	}
	defer ss.p.sess.leave()

	f := &frame{
		ss:     ss,
		p:      ss.p,
		script: ss.script,
		fun:    ss.p.fun,
		start:  pc,
		end:    ss.script.Len(),
		pc:     pc,
		saveop: op.Nop,
	}
	if nb >= 0 {
		f.end = pc + nb
	}
	return f.run(nb)
}

func (f *frame) run(nb int) int {
	ss := f.ss
	for nb < 0 || f.pc < f.end {
		if f.pc >= f.script.Len() {
			f.inconsistent("rendering ran past the end of the script")
			return f.pc
		}
		f.lastop = f.saveop
		code := f.script.OpAt(f.pc)
		f.oplen = f.script.OpLength(f.pc)
		if f.oplen == 0 {
			ss.fail(errz.Inconsistentf(f.pc, code, "undecodable instruction"))
			return f.pc
		}
		info := op.Lookup(code)
		nuses := f.script.Uses(f.pc)
		if nb < 0 {
			if ss.top < nuses {
				ss.fail(errz.Inconsistentf(f.pc, code, "operand stack underflow"))
				return f.pc
			}
			if -(nb + 1) == ss.top-nuses+info.Defs {
				return f.pc
			}
		}

		if step := f.p.sess.step; step != nil {
			step(f.script, f.pc, ss.top)
		}

		f.op, f.saveop = code, code
		f.advance = f.oplen
		f.todo = noPush
		if f.p.fence >= 0 && f.pc+f.oplen == f.p.fence {
			f.narrow(info, nuses)
		}

		if info.Token != "" && f.op == code {
			f.token(info, nuses)
		} else {
			f.dispatch()
		}
		if ss.failed() {
			return f.pc
		}

		if f.todo != noPush {
			ss.push(f.todo, f.saveop)
			if info.Has(op.FlagCallOp) {
				ss.pushText("", f.saveop)
			}
		}
		if ss.genExpDone {
			return f.pc
		}
		f.pc += f.advance
	}
	return f.pc
}

// narrow rewrites the update instruction at the fault location into a read
// of its target so that only the faulting expression is rendered.
func (f *frame) narrow(info op.Info, nuses int) {
	f.p.fence = -1
	if f.pc != f.p.faultPC && (f.pc != f.start || nuses == 0) {
		return
	}
	if info.Flags&(op.FlagSet|op.FlagDel|op.FlagInc|op.FlagDec|op.FlagFor) == 0 {
		return
	}
	switch info.Mode {
	case op.ModeName:
		code := op.Name
		switch info.Operand {
		case op.OperandArg:
			code = op.GetArg
		case op.OperandLocal:
			code = op.GetLocal
		}
		for i := nuses - op.Lookup(code).Uses; i > 0; i-- {
			f.ss.popStr(op.Nop)
		}
		f.op = code
	case op.ModeProp:
		if info.Has(op.FlagSet) {
			f.ss.popStr(op.Nop)
		}
		f.op = op.GetProp
	case op.ModeElem:
		if info.Has(op.FlagSet) {
			f.ss.popStr(op.Nop)
		}
		f.op = op.GetElem
	default:
		if f.op != op.EnumElem {
			f.inconsistent("cannot narrow %s to a read", f.op)
			return
		}
		f.op = op.GetElem
	}
	f.saveop = f.op
}

// token renders instructions whose source form is a fixed operator or
// keyword applied to their operands.
func (f *frame) token(info op.Info, nuses int) {
	ss := f.ss
	switch nuses {
	case 2:
		if f.note().Is(srcnote.AssignOp) {
			// x op= y keeps only y; the store that follows prints the rest.
			prec := op.Lookup(f.script.OpAt(f.pc + f.oplen)).Prec
			rval := ss.popPrec(prec)
			ss.popPrec(prec)
			f.push(rval)
			return
		}
		left := 0
		if info.Has(op.FlagLeftAssoc) {
			left = 1
		}
		rval := ss.popPrec(info.Prec + left)
		lval := ss.popPrec(info.Prec + 1 - left)
		f.push(lval + " " + info.Token + " " + rval)
	case 1:
		f.push(info.Token + ss.popStr(f.op))
	case 0:
		f.push(info.Token)
	default:
		f.inconsistent("operator %s with %d operands", f.op, nuses)
	}
}

func (f *frame) dispatch() {
	switch f.op {
	case op.Nop:
		f.nop()
	case op.Stop, op.RetRval, op.Gosub, op.Getter, op.Setter, op.Generator,
		op.Iter, op.Default, op.DefVar, op.DefConst:
	case op.Goto:
		f.jump()
	case op.IfEq:
		f.ifeq()
	case op.IfNe, op.MoreIter:
		f.inconsistent("%s outside a loop", f.op)
	case op.Or, op.And:
		f.logical()
	case op.Retsub:
		f.ss.popStr(op.Nop)
		f.ss.popStr(op.Nop)
	case op.Return, op.SetRval:
		f.ret()
	case op.Throw:
		f.throw()
	case op.Debugger:
		f.p.printf("\tdebugger;\n")

	case op.Try:
		f.p.printf("\ttry {\n")
		f.p.indent += 4
	case op.Finally:
		f.finally()
	case op.Exception:
		f.inconsistent("exception outside a catch clause")
	case op.EnterCatch:
		f.enterCatch()
	case op.LeaveCatch:
		f.leaveCatch()

	case op.Push:
		if f.note().Is(srcnote.GroupAssign) {
			f.groupAssign()
			return
		}
		f.push("")
	case op.BindName, op.Hole:
		f.push("")
	case op.Pop, op.PopV:
		f.pop()
	case op.PopN:
		f.popn()
	case op.Dup:
		f.dup()
	case op.Dup2:
		f.dup2()
	case op.Swap:
		f.swap()

	case op.Name, op.GetGVar, op.CallName, op.CallGVar:
		f.push(varPrefix(f.note()) + f.atom(f.pc))
	case op.GetArg, op.CallArg:
		f.getArg()
	case op.GetLocal, op.CallLocal:
		f.getLocal()
	case op.SetName, op.SetGVar, op.SetConst, op.SetArg, op.SetLocal, op.SetLocalPop:
		f.set()
	case op.DelName, op.DelProp, op.DelElem:
		f.del()
	case op.IncName, op.DecName, op.IncGVar, op.DecGVar, op.IncArg, op.DecArg,
		op.IncLocal, op.DecLocal, op.NameInc, op.NameDec, op.GVarInc, op.GVarDec,
		op.ArgInc, op.ArgDec, op.LocalInc, op.LocalDec:
		f.incName()
	case op.IncProp, op.DecProp, op.PropInc, op.PropDec:
		f.incProp()
	case op.IncElem, op.DecElem, op.ElemInc, op.ElemDec:
		f.incElem()
	case op.ForName, op.ForArg, op.ForLocal, op.ForProp, op.ForElem:
		f.forTarget()
	case op.EnumElem:
		f.enumElem()

	case op.GetProp, op.CallProp, op.Length:
		f.getProp()
	case op.SetProp:
		f.setProp()
	case op.GetElem, op.CallElem:
		f.getElem()
	case op.SetElem:
		f.setElem()

	case op.Call, op.New, op.Eval:
		f.call()
	case op.TypeOf:
		f.push("typeof " + f.ss.popStr(f.op))
	case op.Void:
		f.push("void " + f.ss.popStr(f.op))

	case op.Int8, op.Uint16, op.Int32, op.Double, op.String, op.RegExp, op.Callee:
		f.literal()
	case op.Lambda:
		f.lambda()
	case op.DefFun:
		f.defun(f.script.Index(f.pc))

	case op.NewInit:
		f.newInit()
	case op.EndInit:
		f.endInit()
	case op.InitProp:
		f.initProp()
	case op.InitElem:
		f.initElem()
	case op.NewArray:
		f.newArray()

	case op.TableSwitch:
		f.tableSwitch()
	case op.LookupSwitch:
		f.lookupSwitch()
	case op.CondSwitch:
		f.condSwitch()
	case op.Case:
		f.p.printf("\tcase %s:\n", f.ss.popStr(op.Nop))

	case op.EndIter:
		if !f.note().Is(srcnote.Hidden) {
			f.ss.popStr(op.Nop)
		}
	case op.Yield:
		f.yield()
	case op.EnterWith:
		f.p.printf("\twith (%s) {\n", f.ss.popStr(op.Nop))
		f.p.indent += 4
		f.push(withCookie)
	case op.LeaveWith:
		if f.note().Is(srcnote.Hidden) {
			return
		}
		f.ss.popStr(op.Nop)
		f.p.indent -= 4
		f.p.printf("\t}\n")

	case op.ArrayPush:
		f.unsupported("array comprehensions are not supported")
	case op.DefSharp, op.UseSharp:
		f.unsupported("sharp variables are not supported")
	default:
		f.inconsistent("unexpected %s", f.op)
	}
}

func (f *frame) note() *srcnote.Note {
	return f.script.NoteAt(f.pc)
}

func (f *frame) push(text string) {
	f.todo = f.ss.put(text)
}

// sub renders the n bytes at pc on the same stack.
func (f *frame) sub(pc, n int) {
	decompile(f.ss, pc, n)
}

func (f *frame) inconsistent(format string, args ...any) {
	f.ss.fail(errz.Inconsistentf(f.pc, f.op, format, args...))
}

func (f *frame) unsupported(format string, args ...any) {
	f.ss.fail(errz.Unsupportedf(f.pc, f.op, format, args...))
}

// expect reports whether the instruction at pc is code, failing otherwise.
func (f *frame) expect(pc int, code op.Code) bool {
	if got := f.script.OpAt(pc); got != code {
		f.ss.fail(errz.Inconsistentf(pc, got, "expected %s", code))
		return false
	}
	return true
}

// atom returns the atom named by the operand of the instruction at pc.
func (f *frame) atom(pc int) string {
	s, ok := f.script.Atom(f.script.Index(pc))
	if !ok {
		f.ss.fail(errz.Inconsistentf(pc, f.script.OpAt(pc), "atom index %d out of range", f.script.Index(pc)))
	}
	return s
}

// argName returns the name of argument i, or "" when it has none.
func (f *frame) argName(i int) string {
	if f.fun == nil {
		return ""
	}
	return f.fun.Arg(i)
}

// local returns the text of local slot: the variable's name for fixed
// slots, or the text on the stack for slots above them.
func (f *frame) local(slot int) string {
	if name, ok := f.varName(slot); ok {
		return name
	}
	return f.ss.getStr(slot - f.script.NFixed())
}

// varName returns the name of a fixed local slot. ok is false when the slot
// lies on the operand stack.
func (f *frame) varName(slot int) (string, bool) {
	if slot >= f.script.NFixed() {
		return "", false
	}
	var name string
	if f.fun != nil {
		name = f.fun.Var(slot)
	}
	if name == "" {
		f.inconsistent("local slot %d has no name", slot)
	}
	return name, true
}

func (f *frame) errAt(pc int, format string, args ...any) error {
	return errz.Inconsistentf(pc, f.script.OpAt(pc), format, args...)
}
