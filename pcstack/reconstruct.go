package pcstack

import (
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Reconstruct returns the producer of every live stack slot at target, bottom
// first. The result's length is the stack depth at target.
//
// The main path is walked linearly from the script's entry point. Macro
// regions are skipped, since their call site already accounts for their net
// effect. When target lies inside a macro region, the state at the call site
// is reconstructed first and the region's control flow is then searched for a
// path reaching target.
func Reconstruct(script *bytecode.Script, target int) ([]int, error) {
	pcs := make([]int, script.MaxDepth())
	depth, err := reconstruct(script, target, pcs)
	if err != nil {
		return nil, err
	}
	return pcs[:depth], nil
}

// Depth returns the stack depth at target without recording producers.
func Depth(script *bytecode.Script, target int) (int, error) {
	return reconstruct(script, target, nil)
}

func reconstruct(script *bytecode.Script, target int, pcs []int) (int, error) {
	if m, ok := script.MacroAt(target); ok {
		if m.Contains(m.CallSite) {
			return 0, errz.Inconsistentf(target, script.OpAt(target), "macro region [%d, %d) calls itself", m.Start, m.End)
		}
		depth, err := reconstruct(script, m.CallSite, pcs)
		if err != nil {
			return 0, err
		}
		return simulateRegion(script, depth, m.Start, target, pcs)
	}
	return walkMain(script, target, pcs)
}

func walkMain(script *bytecode.Script, target int, pcs []int) (int, error) {
	if target < script.Main() || target >= script.Len() {
		return 0, errz.Inconsistentf(target, script.OpAt(target), "pc %d outside [%d, %d)", target, script.Main(), script.Len())
	}

	pc, depth := script.Main(), 0
	for pc < target {
		if m, ok := script.MacroAt(pc); ok {
			pc = m.End
			continue
		}
		oplen := script.OpLength(pc)
		if oplen == 0 {
			return 0, errz.Inconsistentf(pc, script.OpAt(pc), "undecodable instruction")
		}

		note := script.NoteAt(pc)
		if note.Is(srcnote.Cond) {
			// Skip the branch of a conditional expression that does not
			// contain target, undoing the push of the branch that was
			// walked when target lies past both.
			if jmp := note.Arg(0); pc+jmp < target {
				pc += jmp
				if code := script.OpAt(pc); code != op.Goto {
					return 0, errz.Inconsistentf(pc, code, "conditional expression does not end in goto")
				}
				oplen = script.OpLength(pc)
				if jmp := script.JumpOffset(pc); pc+jmp < target {
					pc += jmp
					continue
				}
				if depth == 0 {
					return 0, errz.Inconsistentf(pc, op.Goto, "stack underflow across conditional expression")
				}
				depth--
			}
		}

		if note.Is(srcnote.Hidden) {
			pc += oplen
			continue
		}

		var err error
		if depth, err = Simulate(script, pc, pcs, depth); err != nil {
			return 0, err
		}
		pc += oplen
	}
	if pc != target {
		return 0, errz.Inconsistentf(pc, script.OpAt(pc), "walk overshot pc %d", target)
	}
	return depth, nil
}

// simulateRegion searches the acyclic control flow starting at pc for a path
// to target. Forward jumps are followed depth first; a path that falls off
// the end or overshoots target is abandoned.
func simulateRegion(script *bytecode.Script, depth, pc, target int, pcs []int) (int, error) {
	var tmp []int
	if pcs != nil {
		tmp = make([]int, len(pcs))
		copy(tmp, pcs)
	}

	for pc < target {
		code := script.OpAt(pc)
		oplen := script.OpLength(pc)
		if oplen == 0 {
			return 0, errz.Inconsistentf(pc, code, "undecodable instruction in macro region")
		}

		var err error
		if depth, err = Simulate(script, pc, tmp, depth); err != nil {
			return 0, err
		}

		if op.Lookup(code).Operand == op.OperandJump {
			jmp := script.JumpOffset(pc)
			if jmp <= 0 {
				return 0, errz.Inconsistentf(pc, code, "backward jump in macro region")
			}
			if d, err := simulateRegion(script, depth, pc+jmp, target, tmp); err == nil {
				if pcs != nil {
					copy(pcs, tmp)
				}
				return d, nil
			}
			if code == op.Goto {
				return 0, errz.Inconsistentf(pc, code, "no path to pc %d", target)
			}
		}
		pc += oplen
	}
	if pc > target {
		return 0, errz.Inconsistentf(pc, script.OpAt(pc), "macro walk overshot pc %d", target)
	}
	if pcs != nil {
		copy(pcs, tmp)
	}
	return depth, nil
}
