// Package bytecode provides immutable representations of compiled scripts
// and the functions nested in them.
//
// # Key Types
//
//   - [Script]: A compiled instruction stream with its atom, constant,
//     function and regular expression tables and its source notes
//   - [Function]: A function whose body is a Script, with its argument and
//     variable names
//   - [Value]: A constant from a script's constant table
//   - [MacroRegion]: A range of instructions inlined at a call site
//
// # Encoding
//
// Instructions are one opcode byte followed by big-endian operands. Jump
// operands are signed 16-bit offsets relative to the jumping instruction.
// Operand layouts per opcode are defined by [github.com/neonux/mozilla-all-sub004/op].
//
// # Immutability Guarantees
//
// Constructors copy their input slices and no mutation methods exist, so a
// Script may be shared by concurrent decompilations.
//
//	script := bytecode.NewScript(bytecode.ScriptParams{
//	    Code:     code,
//	    Atoms:    []string{"x"},
//	    MaxDepth: 2,
//	})
//	if err := script.Validate(); err != nil {
//	    return err
//	}
package bytecode
