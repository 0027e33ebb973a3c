// Package pcstack reconstructs, for a point in a script, which instruction
// produced each value on the operand stack.
package pcstack

import (
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
)

// Simulate applies the stack effect of the instruction at pc to a model
// stack of the given depth and returns the new depth.
//
// When pcs is non-nil it must have room for the script's maximum depth. Each
// pushed slot is stamped with pc, except that case keeps its switch value,
// dup and dup2 copy the producers of the values they duplicate, and swap
// exchanges the top two producers.
func Simulate(script *bytecode.Script, pc int, pcs []int, depth int) (int, error) {
	code := script.OpAt(pc)
	nuses := script.Uses(pc)
	ndefs := script.Defs(pc)

	if depth < nuses {
		return 0, errz.Inconsistentf(pc, code, "stack underflow: depth %d, %s uses %d", depth, code, nuses)
	}
	depth -= nuses
	if depth+ndefs > script.MaxDepth() {
		return 0, errz.Inconsistentf(pc, code, "stack overflow: depth %d exceeds %d", depth+ndefs, script.MaxDepth())
	}
	if pcs == nil {
		return depth + ndefs, nil
	}
	if len(pcs) < depth+ndefs {
		return 0, errz.Inconsistentf(pc, code, "model stack holds %d slots, need %d", len(pcs), depth+ndefs)
	}

	switch code {
	case op.Case:
		// the switch value stays where it was
	case op.Dup:
		pcs[depth+1] = pcs[depth]
	case op.Dup2:
		pcs[depth+2] = pcs[depth]
		pcs[depth+3] = pcs[depth+1]
	case op.Swap:
		pcs[depth], pcs[depth+1] = pcs[depth+1], pcs[depth]
	default:
		for i := 0; i < ndefs; i++ {
			pcs[depth+i] = pc
		}
	}
	return depth + ndefs, nil
}
