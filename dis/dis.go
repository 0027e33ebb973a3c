// Package dis supports analysis of bytecode by disassembling it into a
// table of instructions with their decoded operands and source notes.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/internal/table"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset   int
	Name     string
	Opcode   op.Code
	Operands []string
	// Note is the source note attached to the instruction, if any.
	Note       string
	Annotation string
	Constant   any
}

// Disassemble returns a parsed representation of the given script.
func Disassemble(script *bytecode.Script) ([]Instruction, error) {
	return disassemble(script, nil)
}

// DisassembleFunction disassembles the script of fn, naming its arguments
// and local variables.
func DisassembleFunction(fn *bytecode.Function) ([]Instruction, error) {
	if fn.Script() == nil {
		return nil, fmt.Errorf("function %q has no script", fn.Name())
	}
	return disassemble(fn.Script(), fn)
}

func disassemble(script *bytecode.Script, fn *bytecode.Function) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(script)
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		instr, err := decode(script, fn, val)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, instr)
	}
	if iter.Err() {
		pc := 0
		if n := len(instructions); n > 0 {
			last := instructions[n-1]
			pc = last.Offset + script.OpLength(last.Offset)
		}
		return nil, errz.Inconsistentf(pc, script.OpAt(pc), "undecodable instruction (byte %d)", script.ByteAt(pc))
	}
	return instructions, nil
}

func decode(script *bytecode.Script, fn *bytecode.Function, val bytecode.Instruction) (Instruction, error) {
	pc := val.PC
	info := op.Lookup(val.Op)
	instr := Instruction{Offset: pc, Name: info.Name, Opcode: val.Op}
	if note := script.NoteAt(pc); note != nil {
		instr.Note = noteText(note)
	}

	index := func() string { return strconv.Itoa(script.Index(pc)) }
	switch info.Operand {
	case op.OperandJump:
		off := script.JumpOffset(pc)
		instr.Operands = []string{strconv.Itoa(off)}
		instr.Annotation = fmt.Sprintf("to %d", pc+off)
	case op.OperandAtom:
		atom, ok := script.Atom(script.Index(pc))
		if !ok {
			return instr, fmt.Errorf("atom index out of range: %d", script.Index(pc))
		}
		instr.Operands = []string{index()}
		instr.Constant = atom
	case op.OperandConst:
		v, ok := script.Const(script.Index(pc))
		if !ok {
			return instr, fmt.Errorf("constant index out of range: %d", script.Index(pc))
		}
		instr.Operands = []string{index()}
		instr.Constant = v
	case op.OperandFunction:
		f, ok := script.Function(script.Index(pc))
		if !ok {
			return instr, fmt.Errorf("function index out of range: %d", script.Index(pc))
		}
		instr.Operands = []string{index()}
		instr.Constant = f
	case op.OperandRegExp:
		re, ok := script.RegExp(script.Index(pc))
		if !ok {
			return instr, fmt.Errorf("regexp index out of range: %d", script.Index(pc))
		}
		instr.Operands = []string{index()}
		instr.Annotation = re
	case op.OperandArg:
		instr.Operands = []string{index()}
		if fn != nil {
			instr.Annotation = fn.Arg(script.Index(pc))
		}
	case op.OperandLocal:
		slot := script.Index(pc)
		instr.Operands = []string{index()}
		switch {
		case slot >= script.NFixed():
			instr.Annotation = fmt.Sprintf("stack_%d", slot-script.NFixed())
		case fn != nil && fn.Var(slot) != "":
			instr.Annotation = fn.Var(slot)
		default:
			instr.Annotation = fmt.Sprintf("local_%d", slot)
		}
	case op.OperandUint16, op.OperandArgc:
		instr.Operands = []string{strconv.Itoa(script.Uint16At(pc + 1))}
	case op.OperandInt8:
		instr.Operands = []string{strconv.Itoa(script.Int8At(pc + 1))}
	case op.OperandInt32:
		instr.Operands = []string{strconv.Itoa(script.Int32At(pc + 1))}
	case op.OperandTableSwitch:
		def, low, high, jumps := script.TableSwitch(pc)
		instr.Operands = []string{strconv.Itoa(def), strconv.Itoa(low), strconv.Itoa(high)}
		targets := []string{fmt.Sprintf("default: %d", pc+def)}
		for i, j := range jumps {
			if j != 0 {
				targets = append(targets, fmt.Sprintf("%d: %d", low+i, pc+j))
			}
		}
		instr.Annotation = strings.Join(targets, ", ")
	case op.OperandLookupSwitch:
		def, cases := script.LookupSwitch(pc)
		instr.Operands = []string{strconv.Itoa(def), strconv.Itoa(len(cases))}
		targets := []string{fmt.Sprintf("default: %d", pc+def)}
		for _, c := range cases {
			v, ok := script.Const(c.Const)
			if !ok {
				return instr, fmt.Errorf("constant index out of range: %d", c.Const)
			}
			targets = append(targets, fmt.Sprintf("%s: %d", v, pc+c.Jump))
		}
		instr.Annotation = strings.Join(targets, ", ")
	}
	return instr, nil
}

// noteText formats a note the way the assembler reads it.
func noteText(n *srcnote.Note) string {
	if len(n.Args) == 0 {
		return n.Type.String()
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = strconv.Itoa(a)
	}
	return n.Type.String() + "(" + strings.Join(args, ", ") + ")"
}

// italic applies italic formatting if colors are enabled.
func italic(s string) string {
	return color.New(color.Italic).Sprint(s)
}

func bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) error {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, strconv.Itoa(instr.Offset))
		values = append(values, bold(instr.Name))
		values = append(values, strings.Join(instr.Operands, ", "))
		values = append(values, instr.Note)
		if instr.Constant != nil {
			switch c := instr.Constant.(type) {
			case bytecode.Value:
				if c.Kind == bytecode.StringKind {
					values = append(values, color.GreenString("%s", c))
				} else {
					values = append(values, color.YellowString("%s", c))
				}
			case string:
				if len(c) > 80 {
					c = c[:77] + "..."
				}
				values = append(values, color.GreenString("%q", c))
			case *bytecode.Function:
				name := c.Name()
				if name == "" {
					name = italic("<anonymous>")
				}
				values = append(values, color.MagentaString("func:%s", name))
			default:
				values = append(values, bold(fmt.Sprintf("%v", c)))
			}
		} else if instr.Annotation != "" {
			values = append(values, color.HiCyanString("%s", instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	return table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "NOTE", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}
