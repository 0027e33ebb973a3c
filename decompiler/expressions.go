package decompiler

import (
	"strconv"
	"strings"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/sprinter"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

func (f *frame) getArg() {
	i := f.script.Index(f.pc)
	name := f.argName(i)
	if name == "" {
		f.push("arguments[" + strconv.Itoa(i) + "]")
		return
	}
	f.push(varPrefix(f.note()) + name)
}

func (f *frame) getLocal() {
	slot := f.script.Index(f.pc)
	if name, ok := f.varName(slot); ok {
		f.push(varPrefix(f.note()) + name)
		return
	}
	if f.note().Is(srcnote.GroupAssign) {
		f.groupAssign()
		return
	}
	f.push(varPrefix(f.note()) + f.ss.getStr(slot-f.script.NFixed()))
}

// assignToken returns the operator of a compound assignment whose store is
// at f.pc, or "" for a plain assignment.
func (f *frame) assignToken() string {
	if !f.script.NoteAt(f.pc - 1).Is(srcnote.AssignOp) {
		return ""
	}
	switch f.lastop {
	case op.Getter:
		return "getter"
	case op.Setter:
		return "setter"
	}
	return op.Lookup(f.lastop).Token
}

// assign pushes the assignment of rval to lval.
func (f *frame) assign(lval, rval string) {
	if tok := f.assignToken(); tok != "" {
		f.push(lval + " " + tok + "= " + rval)
		return
	}
	f.push(varPrefix(f.note()) + lval + " = " + rval)
}

// set renders stores to names, arguments and locals.
func (f *frame) set() {
	ss := f.ss
	var lval string
	switch f.op {
	case op.SetArg:
		i := f.script.Index(f.pc)
		if lval = f.argName(i); lval == "" {
			f.inconsistent("argument %d has no name", i)
			return
		}
	case op.SetLocal, op.SetLocalPop:
		lval = f.local(f.script.Index(f.pc))
	default:
		lval = f.atom(f.pc)
	}
	rval := ss.popStr(f.op)
	if f.op == op.SetName {
		ss.popStr(op.Nop)
	}
	f.assign(lval, rval)

	if f.op == op.SetLocalPop {
		text := ss.sp.String(f.todo)
		f.todo = noPush
		f.p.printf("\t%s;\n", text)
	}
}

func (f *frame) del() {
	ss := f.ss
	switch f.op {
	case op.DelName:
		f.push("delete " + f.atom(f.pc))
	case op.DelProp:
		name := f.atom(f.pc)
		lval := ss.popStr(op.GetProp)
		f.push("delete " + member(lval, name))
	case op.DelElem:
		xval := ss.popStr(op.Nop)
		lval := ss.popStr(op.GetProp)
		if xval == "" {
			f.push("delete " + lval)
			return
		}
		f.push("delete " + lval + "[" + xval + "]")
	}
}

// incDec pushes target with the instruction's ++ or -- attached.
func (f *frame) incDec(target string) {
	info := op.Lookup(f.op)
	if info.Has(op.FlagPost) {
		f.push(target + info.IncDecToken())
		return
	}
	f.push(info.IncDecToken() + target)
}

func (f *frame) incName() {
	var name string
	switch op.Lookup(f.op).Operand {
	case op.OperandArg:
		i := f.script.Index(f.pc)
		if name = f.argName(i); name == "" {
			f.inconsistent("argument %d has no name", i)
			return
		}
	case op.OperandLocal:
		name = f.local(f.script.Index(f.pc))
	default:
		name = f.atom(f.pc)
	}
	f.incDec(name)
}

func (f *frame) incProp() {
	name := f.atom(f.pc)
	lval := f.ss.popStr(op.GetProp)
	f.incDec(member(lval, name))
}

func (f *frame) incElem() {
	xval := f.ss.popStr(op.Nop)
	lval := f.ss.popStr(op.GetElem)
	if xval == "" {
		f.incDec(lval)
		return
	}
	f.incDec(lval + "[" + xval + "]")
}

// forTarget pushes the text of the variable a for-in loop assigns.
func (f *frame) forTarget() {
	switch f.op {
	case op.ForArg:
		i := f.script.Index(f.pc)
		name := f.argName(i)
		if name == "" {
			f.inconsistent("argument %d has no name", i)
			return
		}
		f.push(name)
	case op.ForLocal:
		f.push(varPrefix(f.note()) + f.local(f.script.Index(f.pc)))
	case op.ForName:
		f.push(varPrefix(f.note()) + f.atom(f.pc))
	case op.ForProp:
		name := f.atom(f.pc)
		lval := f.ss.popStr(f.op)
		f.push(member(lval, name))
	case op.ForElem:
		f.push(forElemCookie)
	}
}

// enumElem renders an element target of a for-in loop.
func (f *frame) enumElem() {
	ss := f.ss
	xval := ss.popStr(op.Nop)
	lval := ss.popStr(op.GetElem)
	ss.popStr(op.Nop)
	if xval == "" {
		f.push(lval)
		return
	}
	f.push(lval + "[" + xval + "]")
}

// propagateCall marks member access on a call result so that a new
// expression around it keeps the call parenthesized.
func (f *frame) propagateCall() {
	switch f.ss.opAt(f.ss.top - 1) {
	case op.Call, op.Eval:
		f.saveop = op.Call
	}
}

func (f *frame) getProp() {
	name := "length"
	if f.op != op.Length {
		name = f.atom(f.pc)
	}
	f.propagateCall()
	lval := f.ss.popStr(f.op)
	f.push(member(lval, name))
}

func (f *frame) setProp() {
	ss := f.ss
	name := f.atom(f.pc)
	rval := ss.popStr(f.op)
	lval := ss.popStr(op.GetProp)
	f.push(member(lval, name) + " " + f.assignToken() + "= " + rval)
}

func (f *frame) getElem() {
	ss := f.ss
	xval := ss.popStr(op.Nop)
	f.propagateCall()
	lval := ss.popStr(f.op)
	if xval == "" {
		f.push(lval)
		return
	}
	f.push(lval + "[" + xval + "]")
}

func (f *frame) setElem() {
	ss := f.ss
	rval := ss.popStr(f.op)
	xval := ss.popStr(op.Nop)
	lval := ss.popStr(op.GetElem)
	if xval == "" {
		f.assign(lval, rval)
		return
	}
	f.push(lval + "[" + xval + "] " + f.assignToken() + "= " + rval)
}

// call renders call, new and eval. The callee sits below the this value,
// which in turn sits below the arguments.
func (f *frame) call() {
	ss := f.ss
	argc := f.script.Uint16At(f.pc + 1)
	args := make([]string, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = ss.popStr(op.SetName)
	}
	ss.popStr(op.Nop)

	prec := op.Lookup(f.op).Prec
	if f.op == op.New {
		// new (f())() must keep the call inside the parentheses.
		c := ss.opAt(ss.top - 1)
		if c == op.Call || c == op.Eval || op.Lookup(c).Has(op.FlagCallOp) {
			prec = op.Lookup(op.Name).Prec
		}
	}
	callee := ss.popPrec(prec)

	list := strings.Join(args, ", ")
	switch {
	case f.op != op.New:
		f.push(callee + "(" + list + ")")
	case argc == 0:
		f.push("new " + callee)
	default:
		f.push("new " + callee + "(" + list + ")")
	}
}

func (f *frame) literal() {
	s := f.script
	switch f.op {
	case op.Int8:
		f.push(strconv.Itoa(s.Int8At(f.pc + 1)))
	case op.Uint16:
		f.push(strconv.Itoa(s.Uint16At(f.pc + 1)))
	case op.Int32:
		f.push(strconv.Itoa(s.Int32At(f.pc + 1)))
	case op.Double:
		v, ok := s.Const(s.Index(f.pc))
		if !ok || v.Kind != bytecode.Number {
			f.inconsistent("constant %d is not a number", s.Index(f.pc))
			return
		}
		text, code := numberText(v.Num, f.saveop)
		f.saveop = code
		f.push(text)
	case op.String:
		f.push(sprinter.Quote(f.atom(f.pc), '"'))
	case op.RegExp:
		re, ok := s.RegExp(s.Index(f.pc))
		if !ok {
			f.inconsistent("regexp %d out of range", s.Index(f.pc))
			return
		}
		f.push(re)
	case op.Callee:
		if f.fun == nil || f.fun.Name() == "" {
			f.inconsistent("callee of an anonymous function")
			return
		}
		f.push(f.fun.Name())
	}
}

// lambda renders a function expression, or a generator expression when the
// lambda carries a genexp note.
func (f *frame) lambda() {
	fn, ok := f.script.Function(f.script.Index(f.pc))
	if !ok {
		f.inconsistent("function index %d out of range", f.script.Index(f.pc))
		return
	}
	if f.note().Is(srcnote.GenExp) {
		f.genExp(fn)
		return
	}
	np := newPrinter(f.p.sess, fn, 0, false, !fn.Has(bytecode.ExprClosure), f.script.Strict())
	if err := decompileFunction(np, fn); err != nil {
		f.ss.fail(err)
		return
	}
	f.push(np.text())
}

// genExp renders the generator function fn, which is called immediately
// with no arguments, as a generator expression.
func (f *frame) genExp(fn *bytecode.Function) {
	inner := fn.Script()
	np := newPrinter(f.p.sess, fn, 0, false, false, f.p.strict)
	gs := newStack(np, inner)
	gs.inGenExp = true
	decompile(gs, inner.Main(), inner.Len()-inner.Main())
	if gs.failed() {
		f.ss.fail(gs.err)
		return
	}
	if !gs.genExpDone || gs.top != 1 {
		f.inconsistent("generator expression does not yield")
		return
	}
	text := gs.getStr(0)

	pc := f.pc + f.oplen
	if c := f.script.OpAt(pc); c != op.Null && c != op.Push {
		f.inconsistent("generator expression without a this value")
		return
	}
	pc += f.script.OpLength(pc)
	if !f.expect(pc, op.Call) {
		return
	}
	if argc := f.script.Uint16At(pc + 1); argc != 0 {
		f.inconsistent("generator expression called with %d arguments", argc)
		return
	}
	pc += f.script.OpLength(pc)
	f.advance = pc - f.pc

	// The parentheses are part of the syntax unless the expression is a
	// parenthesized head or the sole argument of a call.
	next := op.Lookup(f.script.OpAt(pc))
	if next.Has(op.FlagParenHead) || (next.Has(op.FlagInvoke) && f.script.Uint16At(pc+1) == 1) {
		f.push(text)
	} else {
		f.push("(" + text + ")")
	}
	f.saveop = op.Name
}

func (f *frame) newInit() {
	switch f.script.Int8At(f.pc + 1) {
	case 0:
		f.push("[")
	case 1:
		f.push("{")
	default:
		f.inconsistent("unknown initializer kind %d", f.script.Int8At(f.pc+1))
	}
}

func (f *frame) endInit() {
	rval := f.ss.popStr(op.Nop)
	if f.note().Is(srcnote.Continue) {
		rval += ", "
	}
	if strings.HasPrefix(rval, "[") {
		f.push(rval + "]")
		return
	}
	f.push(rval + "}")
}

func (f *frame) initProp() {
	ss := f.ss
	key := propertyKey(f.atom(f.pc))
	first := ss.opAt(ss.top-2) == op.NewInit
	rval := ss.popStr(f.op)
	lval := ss.popStr(op.Nop)
	f.initEntry(lval, key, rval, first)
}

func (f *frame) initElem() {
	ss := f.ss
	first := ss.opAt(ss.top-3) == op.NewInit
	rval := ss.popStr(op.SetName)
	xval := ss.popStr(op.Nop)
	lval := ss.popStr(op.Nop)
	if f.note().Is(srcnote.InitProp) {
		f.initEntry(lval, xval, rval, first)
		return
	}
	if !first {
		lval += ", "
	}
	f.push(lval + rval)
}

// initEntry appends a property to the object literal text lval. A value
// defined through a preceding getter or setter instruction is written in
// accessor form.
func (f *frame) initEntry(lval, key, rval string, first bool) {
	if !first {
		lval += ", "
	}
	if f.lastop != op.Getter && f.lastop != op.Setter {
		f.push(lval + key + ": " + rval)
		return
	}
	kw := "get"
	if f.lastop == op.Setter {
		kw = "set"
	}
	body := rval
	if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
		body = body[1 : len(body)-1]
	}
	body = strings.TrimPrefix(body, kw+" ")
	body, ok := strings.CutPrefix(body, "function ")
	if !ok {
		f.inconsistent("accessor %s is not a function", key)
		return
	}
	if !strings.HasPrefix(body, "(") {
		body = " " + body
	}
	f.push(lval + kw + " " + key + body)
}

func (f *frame) newArray() {
	n := f.script.Uint16At(f.pc + 1)
	elems := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		elems[i] = f.ss.popStr(op.SetName)
	}
	text := "[" + strings.Join(elems, ", ")
	if f.note().Is(srcnote.Continue) {
		text += ", "
	}
	f.push(text + "]")
}

// dup copies the top of stack, or starts a destructuring pattern.
func (f *frame) dup() {
	ss := f.ss
	note := f.note()
	if note == nil {
		f.saveop = ss.opAt(ss.top - 1)
		f.push(ss.getStr(ss.top - 1))
		return
	}
	if !note.Is(srcnote.Destruct) {
		f.inconsistent("unexpected %s note", note.Type)
		return
	}
	end := f.destructure(f.pc, f.end)
	if ss.failed() {
		return
	}
	f.advance = end - f.pc
	lval := ss.popStr(op.Nop)
	f.op, f.saveop = op.EnumElem, op.EnumElem
	rval := ss.popStr(op.EnumElem)
	if rval == forElemCookie {
		f.push(lval)
		// The for-in driver pops the target itself.
		if f.script.OpAt(end) == op.Pop {
			f.advance++
		}
		return
	}
	f.push(lval + " = " + rval)
}

func (f *frame) dup2() {
	ss := f.ss
	if ss.top < 2 {
		f.inconsistent("operand stack underflow")
		return
	}
	ss.pushText(ss.getStr(ss.top-2), ss.opAt(ss.top-2))
	f.saveop = ss.opAt(ss.top - 2)
	f.push(ss.getStr(ss.top - 2))
}

func (f *frame) swap() {
	ss := f.ss
	if ss.top < 2 {
		f.inconsistent("operand stack underflow")
		return
	}
	a, b := ss.top-1, ss.top-2
	ss.getOff(a)
	ss.getOff(b)
	ss.offsets[a], ss.offsets[b] = ss.offsets[b], ss.offsets[a]
	ss.opcodes[a], ss.opcodes[b] = ss.opcodes[b], ss.opcodes[a]
}
