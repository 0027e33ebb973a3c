package decompiler

import (
	"sort"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/sprinter"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// switchCase is one case of a switch statement. Offsets are relative to the
// switch instruction.
type switchCase struct {
	value bytecode.Value
	// label names the constant a case value was folded from.
	label string
	// casePC locates the case or default instruction of a condswitch.
	casePC int
	offset int
}

// sortCases orders cases by the position of their bodies. Cases sharing a
// body keep their source order.
func sortCases(table []switchCase) {
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].offset < table[j].offset
	})
}

func (f *frame) switchLength() (int, bool) {
	note := f.note()
	if !note.Is(srcnote.Switch) {
		f.inconsistent("switch without a note")
		return 0, false
	}
	return note.Arg(0), true
}

func (f *frame) tableSwitch() {
	length, ok := f.switchLength()
	if !ok {
		return
	}
	def, low, _, jumps := f.script.TableSwitch(f.pc)
	var table []switchCase
	for i, jmp := range jumps {
		if jmp == 0 {
			continue
		}
		c := switchCase{value: bytecode.NumberValue(float64(low + i)), offset: jmp}
		if note := f.script.NoteAt(f.pc + 7 + 2*i); note.Is(srcnote.Label) {
			c.label = f.label(note)
		}
		table = append(table, c)
	}
	sortCases(table)
	f.renderSwitch(table, length, def, false)
}

func (f *frame) lookupSwitch() {
	length, ok := f.switchLength()
	if !ok {
		return
	}
	def, cases := f.script.LookupSwitch(f.pc)
	table := make([]switchCase, 0, len(cases))
	for i, lc := range cases {
		v, ok := f.script.Const(lc.Const)
		if !ok {
			f.inconsistent("case constant %d out of range", lc.Const)
			return
		}
		c := switchCase{value: v, offset: lc.Jump}
		if note := f.script.NoteAt(f.pc + 5 + 4*i); note.Is(srcnote.Label) {
			c.label = f.label(note)
		}
		table = append(table, c)
	}
	sortCases(table)
	f.renderSwitch(table, length, def, false)
}

// condSwitch renders a switch whose cases are arbitrary expressions. The
// case instructions are chained by pcdelta notes, starting from the offset
// in the switch note, and the chain ends with the default instruction.
func (f *frame) condSwitch() {
	length, ok := f.switchLength()
	if !ok {
		return
	}
	var table []switchCase
	pc := f.pc
	for off := f.note().Arg(1); off != 0; {
		if off < 0 {
			f.inconsistent("case chain runs backwards")
			return
		}
		pc += off
		switch code := f.script.OpAt(pc); code {
		case op.Default:
			off = 0
		case op.Case:
			note := f.script.NoteAt(pc)
			if !note.Is(srcnote.PCDelta) {
				f.inconsistent("case at %d without a pcdelta note", pc)
				return
			}
			off = note.Arg(0)
		default:
			f.inconsistent("expected case or default at %d, found %s", pc, code)
			return
		}
		rel := pc - f.pc
		table = append(table, switchCase{casePC: rel, offset: rel + f.script.JumpOffset(pc)})
	}
	if len(table) == 0 {
		f.inconsistent("condswitch without a default")
		return
	}
	f.renderSwitch(table, length, table[len(table)-1].offset, true)
}

// renderSwitch writes the switch statement whose cases are in table. The
// discriminant is on the stack; a condswitch keeps it there while its case
// expressions are evaluated.
func (f *frame) renderSwitch(table []switchCase, length, def int, cond bool) {
	ss, p := f.ss, f.p
	var disc string
	if cond {
		disc = ss.peek()
	} else {
		disc = ss.popStr(op.Nop)
	}
	p.printf("\tswitch (%s) {\n", disc)

	if len(table) > 0 {
		if diff := table[0].offset - def; diff > 0 {
			p.indent += 2
			p.printf("\tdefault:\n")
			p.indent += 2
			f.sub(f.pc+def, diff)
			p.indent -= 4
		}

		exprOff := 0
		if cond {
			exprOff = f.oplen
		}
		for i, c := range table {
			off := c.offset
			off2 := length
			if i+1 < len(table) {
				off2 = table[i+1].offset
			}

			p.indent += 2
			if cond {
				next := c.casePC + f.script.OpLength(f.pc+c.casePC)
				f.sub(f.pc+exprOff, next-exprOff)
				exprOff = next
				if ss.top == 0 {
					f.inconsistent("switch lost its discriminant")
					return
				}
				// The body runs as if the case matched, which pops the
				// discriminant.
				ss.top--
			} else {
				p.printf("\tcase %s:\n", f.caseLabel(c))
			}

			p.indent += 2
			if off <= def && def < off2 {
				if def != off {
					f.sub(f.pc+off, def-off)
					off = def
				}
				p.indent -= 2
				p.printf("\tdefault:\n")
				p.indent += 2
			}
			f.sub(f.pc+off, off2-off)
			p.indent -= 4

			if cond {
				ss.top++
			}
		}
	}

	// A default jump to the end of the switch is the absence of a default
	// clause; an empty trailing default has the same code.
	p.printf("\t}\n")
	if cond && ss.top > 0 {
		f.truncate(ss.top - 1)
	}
	f.advance = length
}

func (f *frame) caseLabel(c switchCase) string {
	if c.label != "" {
		return c.label
	}
	switch c.value.Kind {
	case bytecode.Number:
		text, _ := numberText(c.value.Num, op.Double)
		return text
	case bytecode.StringKind:
		return sprinter.Quote(c.value.Str, '"')
	}
	return c.value.String()
}
