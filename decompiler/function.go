package decompiler

import (
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
)

// Script renders the statements of a top-level script.
func Script(script *bytecode.Script, cfg Config) (string, error) {
	sess := newSession(cfg)
	p := newPrinter(sess, nil, cfg.Indent, cfg.Pretty, false, false)
	main := script.Main()
	if err := decompileCode(p, script, main, script.Len()-main, 0); err != nil {
		return "", err
	}
	return p.text(), nil
}

// Function renders fn as a function declaration or expression.
func Function(fn *bytecode.Function, cfg Config) (string, error) {
	sess := newSession(cfg)
	p := newPrinter(sess, fn, cfg.Indent, cfg.Pretty, !cfg.Parenthesize, false)
	if err := decompileFunction(p, fn); err != nil {
		return "", err
	}
	return p.text(), nil
}

// decompileCode renders the n bytes at pc as statements. The first depth
// stack slots are live on entry and are rendered from p.pcstack when used.
// Values left on the stack are written out as a final expression.
func decompileCode(p *printer, script *bytecode.Script, pc, n, depth int) error {
	saved := p.script
	p.script = script
	defer func() { p.script = saved }()

	ss := newStack(p, script)
	if depth > len(ss.offsets) || depth > len(p.pcstack) {
		return errz.Inconsistentf(pc, script.OpAt(pc), "%d live stack slots on entry", depth)
	}
	for i := 0; i < depth; i++ {
		ss.offsets[i] = -2 - i
		ss.opcodes[i] = script.OpAt(p.pcstack[i])
	}
	ss.top = depth

	decompile(ss, pc, n)
	if ss.failed() {
		return ss.err
	}
	// The final value may have consumed slots that were live on entry, so it
	// can sit at or below depth.
	if ss.top > 0 {
		last := ss.popStr(op.Pop)
		for ss.top > depth {
			last = ss.popStr(op.Pop)
		}
		p.printf("%s", last)
	}
	if ss.failed() {
		return ss.err
	}
	return p.out.Err()
}

// decompileFunction writes the header, parameters and body of fn.
func decompileFunction(p *printer, fn *bytecode.Function) error {
	lambda := fn.Has(bytecode.Lambda)
	if p.pretty {
		p.printf("\t")
	} else if !p.grouped && lambda {
		p.puts("(")
	}
	switch {
	case fn.Has(bytecode.Getter):
		p.puts("get ")
	case fn.Has(bytecode.Setter):
		p.puts("set ")
	}
	p.puts("function ")
	p.puts(fn.Name())
	p.puts("(")

	script := fn.Script()
	if script == nil {
		p.printf(") {\n")
		p.indent += 4
		p.printf("\t[native code]\n")
		p.indent -= 4
		p.printf("\t}")
		if !p.pretty && !p.grouped && lambda {
			p.puts(")")
		}
		return p.out.Err()
	}

	saved := p.script
	p.script = script
	defer func() { p.script = saved }()

	pc := script.Main()
	var ss *stack
	for i := 0; i < fn.ArgCount(); i++ {
		if i > 0 {
			p.puts(", ")
		}
		if name := fn.Arg(i); name != "" {
			p.puts(name)
			continue
		}

		// A destructuring parameter is unpacked by the prologue:
		// getarg; dup ... pop
		if ss == nil {
			ss = newStack(p, script)
		}
		if code := script.OpAt(pc); code != op.GetArg {
			return errz.Inconsistentf(pc, code, "expected getarg for destructuring parameter %d", i)
		}
		pc += script.OpLength(pc)
		f := &frame{
			ss:     ss,
			p:      p,
			script: script,
			fun:    fn,
			start:  pc,
			end:    script.Len(),
			pc:     pc,
			op:     op.Dup,
			saveop: op.Nop,
		}
		pc = f.destructure(pc, f.end)
		if ss.failed() {
			return ss.err
		}
		if code := script.OpAt(pc); code != op.Pop {
			return errz.Inconsistentf(pc, code, "expected pop after destructuring parameter %d", i)
		}
		pc += script.OpLength(pc)
		p.puts(ss.popStr(op.Nop))
		if ss.failed() {
			return ss.err
		}
	}

	closure := fn.Has(bytecode.ExprClosure)
	if closure {
		p.puts(") ")
		if script.Strict() && !p.strict {
			p.puts("/* use strict */ ")
			p.strict = true
		}
	} else {
		p.printf(") {\n")
		p.indent += 4
		if script.Strict() && !p.strict {
			p.printf("\t'use strict';\n")
			p.strict = true
		}
	}

	if err := decompileCode(p, script, pc, script.Len()-pc, 0); err != nil {
		return err
	}

	if !closure {
		p.indent -= 4
		p.printf("\t}")
	}
	if !p.pretty && !p.grouped && lambda {
		p.puts(")")
	}
	return p.out.Err()
}
