package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Validate checks the structural integrity of the script: every instruction
// decodes, operand indexes are in range, jumps land on instruction
// boundaries, and source notes attach to instructions and carry no negative
// arguments. It reports every problem found, not only the first.
func (s *Script) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if s.maxDepth < 0 {
		add("negative max depth %d", s.maxDepth)
	}
	if s.nfixed < 0 {
		add("negative fixed slot count %d", s.nfixed)
	}

	starts := make(map[int]bool)
	// switch case labels attach to jump table entries
	entries := make(map[int]bool)
	var instrs []Instruction
	iter := NewInstructionIter(s)
	for {
		instr, ok := iter.Next()
		if !ok {
			break
		}
		starts[instr.PC] = true
		instrs = append(instrs, instr)
	}
	if iter.Err() {
		pc := 0
		if n := len(instrs); n > 0 {
			pc = instrs[n-1].PC + instrs[n-1].Length
		}
		add("pc %d: undecodable instruction (byte %d)", pc, s.ByteAt(pc))
	}
	if s.main < 0 || s.main > len(s.code) || (s.main < len(s.code) && !starts[s.main]) {
		add("main offset %d is not an instruction boundary", s.main)
	}

	target := func(pc, off int) {
		t := pc + off
		if t != len(s.code) && !starts[t] {
			add("pc %d: jump target %d is not an instruction boundary", pc, t)
		}
	}
	for _, instr := range instrs {
		pc := instr.PC
		info := op.Lookup(instr.Op)
		switch info.Operand {
		case op.OperandJump:
			target(pc, s.JumpOffset(pc))
		case op.OperandAtom:
			if _, ok := s.Atom(s.Index(pc)); !ok {
				add("pc %d: %s atom index %d out of range", pc, instr.Op, s.Index(pc))
			}
		case op.OperandConst:
			if _, ok := s.Const(s.Index(pc)); !ok {
				add("pc %d: %s constant index %d out of range", pc, instr.Op, s.Index(pc))
			}
		case op.OperandFunction:
			if _, ok := s.Function(s.Index(pc)); !ok {
				add("pc %d: %s function index %d out of range", pc, instr.Op, s.Index(pc))
			}
		case op.OperandRegExp:
			if _, ok := s.RegExp(s.Index(pc)); !ok {
				add("pc %d: %s regexp index %d out of range", pc, instr.Op, s.Index(pc))
			}
		case op.OperandTableSwitch:
			def, _, _, jumps := s.TableSwitch(pc)
			target(pc, def)
			for i, j := range jumps {
				entries[pc+7+2*i] = true
				if j != 0 {
					target(pc, j)
				}
			}
		case op.OperandLookupSwitch:
			def, cases := s.LookupSwitch(pc)
			target(pc, def)
			for i, c := range cases {
				entries[pc+5+4*i] = true
				if _, ok := s.Const(c.Const); !ok {
					add("pc %d: lookupswitch constant index %d out of range", pc, c.Const)
				}
				target(pc, c.Jump)
			}
		}
	}

	for _, n := range s.notes.All() {
		if !starts[n.Offset] && !(n.Type == srcnote.Label && entries[n.Offset]) {
			add("source note %s does not attach to an instruction", &n)
		}
		if len(n.Args) != n.Type.Arity() {
			add("source note %s has %d arguments, want %d", &n, len(n.Args), n.Type.Arity())
		}
		for _, arg := range n.Args {
			if arg < 0 {
				add("source note %s has negative argument %d", &n, arg)
				break
			}
		}
	}

	for _, m := range s.macros {
		if m.Start < 0 || m.End > len(s.code) || m.Start >= m.End {
			add("macro region [%d, %d) out of range", m.Start, m.End)
			continue
		}
		if !starts[m.Start] || !starts[m.CallSite] {
			add("macro region [%d, %d) is not aligned to instructions", m.Start, m.End)
		}
	}

	for i, fn := range s.functions {
		if fn == nil || fn.Script() == nil {
			add("function %d has no script", i)
			continue
		}
		if err := fn.Script().Validate(); err != nil {
			add("function %d (%s): %v", i, fn.Name(), err)
		}
	}
	return result.ErrorOrNil()
}
