package bytecode

import (
	"encoding/binary"

	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// MacroRegion is a range of instructions that the compiler inlined at a call
// site. The region [Start, End) is entered only by falling through from
// CallSite and contains no backward jumps.
type MacroRegion struct {
	Start    int `json:"start"`
	End      int `json:"end"`
	CallSite int `json:"call_site"`
}

// Contains reports whether pc lies inside the region.
func (m MacroRegion) Contains(pc int) bool {
	return pc >= m.Start && pc < m.End
}

// Script represents a compiled instruction stream along with the tables its
// operands index into. It is immutable after creation and safe for
// concurrent use.
type Script struct {
	name      string
	code      []byte
	main      int
	atoms     []string
	consts    []Value
	functions []*Function
	regexps   []string
	notes     *srcnote.Stream
	maxDepth  int
	nfixed    int
	strict    bool
	macros    []MacroRegion
}

// ScriptParams contains parameters for creating a new Script.
type ScriptParams struct {
	Name      string
	Code      []byte
	Main      int
	Atoms     []string
	Consts    []Value
	Functions []*Function
	RegExps   []string
	Notes     []srcnote.Note
	MaxDepth  int
	NFixed    int
	Strict    bool
	Macros    []MacroRegion
}

// NewScript creates a new immutable Script from the given parameters.
// Input slices are copied to ensure immutability.
func NewScript(params ScriptParams) *Script {
	var functions []*Function
	if len(params.Functions) > 0 {
		functions = make([]*Function, len(params.Functions))
		copy(functions, params.Functions)
	}
	return &Script{
		name:      params.Name,
		code:      copyBytes(params.Code),
		main:      params.Main,
		atoms:     copyStrings(params.Atoms),
		consts:    copyValues(params.Consts),
		functions: functions,
		regexps:   copyStrings(params.RegExps),
		notes:     srcnote.NewStream(params.Notes),
		maxDepth:  params.MaxDepth,
		nfixed:    params.NFixed,
		strict:    params.Strict,
		macros:    copyMacros(params.Macros),
	}
}

// Name returns the name of the script, typically its file name.
func (s *Script) Name() string {
	return s.name
}

// Len returns the length of the instruction stream in bytes.
func (s *Script) Len() int {
	return len(s.code)
}

// Main returns the offset of the first instruction of the script body.
// Instructions before it are the prologue.
func (s *Script) Main() int {
	return s.main
}

// MaxDepth returns the declared maximum operand stack depth.
func (s *Script) MaxDepth() int {
	return s.maxDepth
}

// NFixed returns the number of local slots bound to declared variables.
// Local slots at or above it address the operand stack.
func (s *Script) NFixed() int {
	return s.nfixed
}

// Strict reports whether the script was compiled in strict mode.
func (s *Script) Strict() bool {
	return s.strict
}

// Notes returns the script's source notes.
func (s *Script) Notes() *srcnote.Stream {
	return s.notes
}

// NoteAt returns the source note attached to the instruction at pc, or nil.
func (s *Script) NoteAt(pc int) *srcnote.Note {
	return s.notes.At(pc)
}

// OpAt returns the opcode at pc. Out of range offsets read as op.Stop.
func (s *Script) OpAt(pc int) op.Code {
	if pc < 0 || pc >= len(s.code) {
		return op.Stop
	}
	return op.Code(s.code[pc])
}

// ByteAt returns the raw byte at pc, or 0 when out of range.
func (s *Script) ByteAt(pc int) byte {
	if pc < 0 || pc >= len(s.code) {
		return 0
	}
	return s.code[pc]
}

// Uint16At decodes a big-endian unsigned 16-bit operand at pc.
func (s *Script) Uint16At(pc int) int {
	if pc < 0 || pc+2 > len(s.code) {
		return 0
	}
	return int(binary.BigEndian.Uint16(s.code[pc:]))
}

// Int16At decodes a big-endian signed 16-bit operand at pc.
func (s *Script) Int16At(pc int) int {
	return int(int16(s.Uint16At(pc)))
}

// Int8At decodes a signed 8-bit operand at pc.
func (s *Script) Int8At(pc int) int {
	return int(int8(s.ByteAt(pc)))
}

// Int32At decodes a big-endian signed 32-bit operand at pc.
func (s *Script) Int32At(pc int) int {
	if pc < 0 || pc+4 > len(s.code) {
		return 0
	}
	return int(int32(binary.BigEndian.Uint32(s.code[pc:])))
}

// JumpOffset returns the jump operand of the instruction at pc.
func (s *Script) JumpOffset(pc int) int {
	return s.Int16At(pc + 1)
}

// Index returns the 16-bit table index operand of the instruction at pc.
func (s *Script) Index(pc int) int {
	return s.Uint16At(pc + 1)
}

// Atom returns the atom at the given index.
func (s *Script) Atom(index int) (string, bool) {
	if index < 0 || index >= len(s.atoms) {
		return "", false
	}
	return s.atoms[index], true
}

// AtomCount returns the number of atoms.
func (s *Script) AtomCount() int {
	return len(s.atoms)
}

// Const returns the constant at the given index.
func (s *Script) Const(index int) (Value, bool) {
	if index < 0 || index >= len(s.consts) {
		return Value{}, false
	}
	return s.consts[index], true
}

// ConstCount returns the number of constants.
func (s *Script) ConstCount() int {
	return len(s.consts)
}

// Function returns the nested function at the given index.
func (s *Script) Function(index int) (*Function, bool) {
	if index < 0 || index >= len(s.functions) || s.functions[index] == nil {
		return nil, false
	}
	return s.functions[index], true
}

// FunctionCount returns the number of nested functions.
func (s *Script) FunctionCount() int {
	return len(s.functions)
}

// RegExp returns the source of the regular expression at the given index.
func (s *Script) RegExp(index int) (string, bool) {
	if index < 0 || index >= len(s.regexps) {
		return "", false
	}
	return s.regexps[index], true
}

// RegExpCount returns the number of regular expressions.
func (s *Script) RegExpCount() int {
	return len(s.regexps)
}

// MacroAt returns the macro region containing pc.
func (s *Script) MacroAt(pc int) (MacroRegion, bool) {
	for _, m := range s.macros {
		if m.Contains(pc) {
			return m, true
		}
	}
	return MacroRegion{}, false
}

// MacroCount returns the number of macro regions.
func (s *Script) MacroCount() int {
	return len(s.macros)
}

// MacroAtIndex returns the i'th macro region.
func (s *Script) MacroAtIndex(i int) MacroRegion {
	return s.macros[i]
}

// OpLength returns the byte length of the instruction at pc, decoding switch
// tables as needed. It returns 0 when the instruction is invalid or runs
// past the end of the code.
func (s *Script) OpLength(pc int) int {
	if pc < 0 || pc >= len(s.code) {
		return 0
	}
	c := op.Code(s.code[pc])
	if !op.Valid(c) {
		return 0
	}
	n := op.Lookup(c).Length
	switch c {
	case op.TableSwitch:
		low, high := s.Int16At(pc+3), s.Int16At(pc+5)
		if high < low {
			return 0
		}
		n = 7 + (high-low+1)*2
	case op.LookupSwitch:
		n = 5 + s.Uint16At(pc+3)*4
	}
	if pc+n > len(s.code) {
		return 0
	}
	return n
}

// Uses returns the number of stack operands the instruction at pc pops.
func (s *Script) Uses(pc int) int {
	c := s.OpAt(pc)
	info := op.Lookup(c)
	if info.Uses != op.Variable {
		return info.Uses
	}
	switch info.Operand {
	case op.OperandArgc:
		return 2 + s.Uint16At(pc+1)
	default:
		return s.Uint16At(pc + 1)
	}
}

// Defs returns the number of stack operands the instruction at pc pushes.
func (s *Script) Defs(pc int) int {
	return op.Lookup(s.OpAt(pc)).Defs
}

// TableSwitch decodes the dense switch at pc. Jumps holds one relative
// offset per case value in [low, high]; a zero jump marks a missing case.
func (s *Script) TableSwitch(pc int) (def, low, high int, jumps []int) {
	def = s.Int16At(pc + 1)
	low = s.Int16At(pc + 3)
	high = s.Int16At(pc + 5)
	for i := 0; i <= high-low; i++ {
		jumps = append(jumps, s.Int16At(pc+7+i*2))
	}
	return def, low, high, jumps
}

// LookupCase is one entry of a sparse switch.
type LookupCase struct {
	Const int
	Jump  int
}

// LookupSwitch decodes the sparse switch at pc.
func (s *Script) LookupSwitch(pc int) (def int, cases []LookupCase) {
	def = s.Int16At(pc + 1)
	n := s.Uint16At(pc + 3)
	for i := 0; i < n; i++ {
		at := pc + 5 + i*4
		cases = append(cases, LookupCase{Const: s.Uint16At(at), Jump: s.Int16At(at + 2)})
	}
	return def, cases
}
