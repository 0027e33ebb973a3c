package bytecode

import "github.com/neonux/mozilla-all-sub004/op"

// Instruction is one decoded instruction of a Script.
type Instruction struct {
	PC     int
	Op     op.Code
	Length int
}

// InstructionIter iterates over the instructions of a Script.
type InstructionIter struct {
	script *Script
	pos    int
	end    int
	err    bool
}

// Next returns the next instruction. Returns false when there are no more
// instructions or an undecodable instruction was reached; Err tells the two
// apart.
func (i *InstructionIter) Next() (Instruction, bool) {
	if i.err || i.pos >= i.end {
		return Instruction{}, false
	}
	n := i.script.OpLength(i.pos)
	if n <= 0 {
		i.err = true
		return Instruction{}, false
	}
	instr := Instruction{PC: i.pos, Op: i.script.OpAt(i.pos), Length: n}
	i.pos += n
	return instr, true
}

// Err reports whether iteration stopped at an undecodable instruction.
func (i *InstructionIter) Err() bool {
	return i.err
}

// All returns all instructions as a newly allocated slice.
// This is a convenience method that collects all results from Next().
func (i *InstructionIter) All() []Instruction {
	var results []Instruction
	for {
		instr, ok := i.Next()
		if !ok {
			break
		}
		results = append(results, instr)
	}
	return results
}

// NewInstructionIter creates a new instruction iterator over the whole
// script, prologue included.
func NewInstructionIter(script *Script) *InstructionIter {
	return &InstructionIter{script: script, end: script.Len()}
}

// NewRangeIter creates an iterator over the instructions in [start, end).
func NewRangeIter(script *Script, start, end int) *InstructionIter {
	if end > script.Len() {
		end = script.Len()
	}
	return &InstructionIter{script: script, pos: start, end: end}
}
