// Package asm assembles a line-oriented text form of bytecode into scripts.
//
// Each line holds an optional label, an instruction with its operands, and
// an optional source note:
//
//	top:	name x
//		getprop y	@pcbase(3)
//		ifeq done	@while(top)
//
// Operands are separated by spaces or commas. Jump operands and note
// arguments may name a label, which is replaced by its offset from the
// instruction. Atom operands and quoted note arguments are interned into
// the atom table; numeric operands of double and lookupswitch into the
// constant table.
//
// Directives start with a dot:
//
//	.name <name>                script name
//	.main <label|pc>            entry point, 0 by default
//	.depth <n>                  maximum stack depth, computed when omitted
//	.nfixed <n>                 number of fixed local slots
//	.strict                     strict mode code
//	.macro <start> <end> <call> inline macro region and its call site
//
// Comments run from ';' to the end of the line.
package asm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Option configures the assembler.
type Option func(*config)

type config struct {
	name      string
	functions []*bytecode.Function
}

// WithName sets the script name unless the source has a .name directive.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithFunctions sets the function table that lambda and deffun operands
// index into.
func WithFunctions(fns ...*bytecode.Function) Option {
	return func(c *config) {
		c.functions = fns
	}
}

// Assemble translates src into a script. All errors found are reported
// together.
func Assemble(src string, opts ...Option) (*bytecode.Script, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	a := &assembler{
		name:      cfg.name,
		functions: cfg.functions,
		labels:    map[string]int{},
		atomIndex: map[string]int{},
		depth:     -1,
	}
	a.parse(src)
	if a.errs != nil {
		return nil, a.errs.ErrorOrNil()
	}
	code := a.encode()
	if a.errs != nil {
		return nil, a.errs.ErrorOrNil()
	}
	params := bytecode.ScriptParams{
		Name:      a.name,
		Code:      code,
		Main:      a.mainPC(),
		Atoms:     a.atoms,
		Consts:    a.consts,
		Functions: a.functions,
		RegExps:   a.regexps,
		Notes:     a.notes,
		MaxDepth:  a.depth,
		NFixed:    a.nfixed,
		Strict:    a.strict,
		Macros:    a.macroRegions(),
	}
	if a.errs != nil {
		return nil, a.errs.ErrorOrNil()
	}
	if params.MaxDepth < 0 {
		params.MaxDepth = linearDepth(bytecode.NewScript(params))
	}
	return bytecode.NewScript(params), nil
}

// MustAssemble is like Assemble but panics on error.
func MustAssemble(src string, opts ...Option) *bytecode.Script {
	script, err := Assemble(src, opts...)
	if err != nil {
		panic(err)
	}
	return script
}

type token struct {
	text   string
	quoted bool
}

type noteRef struct {
	typ  srcnote.Type
	args []token
}

type instruction struct {
	line int
	pc   int
	code op.Code
	args []token
	note *noteRef
}

type assembler struct {
	name      string
	functions []*bytecode.Function
	instrs    []*instruction
	labels    map[string]int
	atoms     []string
	atomIndex map[string]int
	consts    []bytecode.Value
	regexps   []string
	notes     []srcnote.Note
	macros    [][]token
	main      *token
	depth     int
	nfixed    int
	strict    bool
	errs      *multierror.Error
}

func (a *assembler) errorf(line int, format string, args ...any) {
	a.errs = multierror.Append(a.errs, fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...)))
}

// parse reads every line, recording labels at the pc of the instruction
// that follows them.
func (a *assembler) parse(src string) {
	pc := 0
	for i, text := range strings.Split(src, "\n") {
		num := i + 1
		toks, note, err := scanLine(text)
		if err != nil {
			a.errorf(num, "%v", err)
			continue
		}
		for len(toks) > 0 && !toks[0].quoted && strings.HasSuffix(toks[0].text, ":") {
			label := strings.TrimSuffix(toks[0].text, ":")
			if _, dup := a.labels[label]; dup {
				a.errorf(num, "label %q redefined", label)
			}
			a.labels[label] = pc
			toks = toks[1:]
		}
		if len(toks) == 0 {
			if note != nil {
				a.errorf(num, "source note without an instruction")
			}
			continue
		}
		if !toks[0].quoted && strings.HasPrefix(toks[0].text, ".") {
			a.directive(num, toks)
			continue
		}

		code, ok := op.ByName(toks[0].text)
		if !ok {
			a.errorf(num, "unknown instruction %q", toks[0].text)
			continue
		}
		in := &instruction{line: num, pc: pc, code: code, args: toks[1:]}
		if note != nil {
			t, ok := srcnote.TypeByName(note.name)
			if !ok {
				a.errorf(num, "unknown source note %q", note.name)
				continue
			}
			if len(note.args) != t.Arity() {
				a.errorf(num, "source note %s takes %d arguments, got %d", t, t.Arity(), len(note.args))
				continue
			}
			in.note = &noteRef{typ: t, args: note.args}
		}
		n, ok := a.length(in)
		if !ok {
			continue
		}
		a.instrs = append(a.instrs, in)
		pc += n
	}
}

func (a *assembler) directive(line int, toks []token) {
	args := toks[1:]
	want := func(n int) bool {
		if len(args) != n {
			a.errorf(line, "%s takes %d arguments, got %d", toks[0].text, n, len(args))
			return false
		}
		return true
	}
	switch toks[0].text {
	case ".name":
		if want(1) {
			a.name = args[0].text
		}
	case ".main":
		if want(1) {
			a.main = &args[0]
		}
	case ".depth":
		if want(1) {
			a.depth = a.integer(line, args[0], 0, math.MaxUint16)
		}
	case ".nfixed":
		if want(1) {
			a.nfixed = a.integer(line, args[0], 0, math.MaxUint16)
		}
	case ".strict":
		if want(0) {
			a.strict = true
		}
	case ".macro":
		if want(3) {
			a.macros = append(a.macros, args)
		}
	default:
		a.errorf(line, "unknown directive %s", toks[0].text)
	}
}

// length returns the encoded size of in, checking its operand count.
func (a *assembler) length(in *instruction) (int, bool) {
	info := op.Lookup(in.code)
	nargs := len(in.args)
	switch info.Operand {
	case op.OperandNone:
		if nargs != 0 {
			a.errorf(in.line, "%s takes no operands", in.code)
			return 0, false
		}
		return info.Length, true
	case op.OperandTableSwitch:
		// default, low, then one target per case
		if nargs < 2 {
			a.errorf(in.line, "tableswitch needs a default and a low value")
			return 0, false
		}
		return 7 + 2*(nargs-2), true
	case op.OperandLookupSwitch:
		// default, then value and target pairs
		if nargs < 1 || (nargs-1)%2 != 0 {
			a.errorf(in.line, "lookupswitch needs a default and value, target pairs")
			return 0, false
		}
		return 5 + 4*((nargs-1)/2), true
	default:
		if nargs != 1 {
			a.errorf(in.line, "%s takes one operand, got %d", in.code, nargs)
			return 0, false
		}
		return info.Length, true
	}
}

func (a *assembler) encode() []byte {
	var code []byte
	for _, in := range a.instrs {
		info := op.Lookup(in.code)
		buf := []byte{byte(in.code)}
		switch info.Operand {
		case op.OperandNone:
		case op.OperandJump:
			buf = put16(buf, a.jump(in, in.args[0]))
		case op.OperandAtom:
			buf = put16(buf, a.atom(in.args[0].text))
		case op.OperandUint16, op.OperandArg, op.OperandLocal, op.OperandArgc, op.OperandFunction:
			buf = put16(buf, a.integer(in.line, in.args[0], 0, math.MaxUint16))
		case op.OperandInt8:
			buf = append(buf, byte(int8(a.integer(in.line, in.args[0], math.MinInt8, math.MaxInt8))))
		case op.OperandInt32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(int32(a.integer(in.line, in.args[0], math.MinInt32, math.MaxInt32))))
		case op.OperandConst:
			buf = put16(buf, a.constant(in.line, in.args[0]))
		case op.OperandRegExp:
			buf = put16(buf, a.regexp(in.args[0].text))
		case op.OperandTableSwitch:
			low := a.integer(in.line, in.args[1], math.MinInt16, math.MaxInt16)
			high := low + len(in.args) - 3
			if high > math.MaxInt16 {
				a.errorf(in.line, "tableswitch range [%d, %d] overflows", low, high)
			}
			buf = put16(buf, a.jump(in, in.args[0]))
			buf = put16(buf, low)
			buf = put16(buf, high)
			for _, t := range in.args[2:] {
				buf = put16(buf, a.jump(in, t))
			}
		case op.OperandLookupSwitch:
			pairs := in.args[1:]
			buf = put16(buf, a.jump(in, in.args[0]))
			buf = put16(buf, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				buf = put16(buf, a.constant(in.line, pairs[i]))
				buf = put16(buf, a.jump(in, pairs[i+1]))
			}
		}
		if in.note != nil {
			n := srcnote.Note{Offset: in.pc, Type: in.note.typ}
			for _, t := range in.note.args {
				n.Args = append(n.Args, a.noteArg(in, t))
			}
			a.notes = append(a.notes, n)
		}
		code = append(code, buf...)
	}
	return code
}

func put16(buf []byte, v int) []byte {
	return binary.BigEndian.AppendUint16(buf, uint16(v))
}

// jump resolves a label or a literal offset relative to in.
func (a *assembler) jump(in *instruction, t token) int {
	if pc, ok := a.labels[t.text]; ok && !t.quoted {
		off := pc - in.pc
		if off < math.MinInt16 || off > math.MaxInt16 {
			a.errorf(in.line, "jump to %s out of range", t.text)
		}
		return off
	}
	return a.integer(in.line, t, math.MinInt16, math.MaxInt16)
}

func (a *assembler) noteArg(in *instruction, t token) int {
	if t.quoted {
		return a.atom(t.text)
	}
	if pc, ok := a.labels[t.text]; ok {
		return pc - in.pc
	}
	return a.integer(in.line, t, math.MinInt32, math.MaxInt32)
}

func (a *assembler) integer(line int, t token, lo, hi int) int {
	v, err := strconv.ParseInt(t.text, 0, 64)
	if err != nil || t.quoted {
		a.errorf(line, "invalid integer %q", t.text)
		return 0
	}
	if int(v) < lo || int(v) > hi {
		a.errorf(line, "%d out of range [%d, %d]", v, lo, hi)
		return 0
	}
	return int(v)
}

func (a *assembler) atom(s string) int {
	if i, ok := a.atomIndex[s]; ok {
		return i
	}
	a.atoms = append(a.atoms, s)
	a.atomIndex[s] = len(a.atoms) - 1
	return len(a.atoms) - 1
}

func (a *assembler) regexp(s string) int {
	for i, r := range a.regexps {
		if r == s {
			return i
		}
	}
	a.regexps = append(a.regexps, s)
	return len(a.regexps) - 1
}

// constant interns a numeric, string, boolean or null literal.
func (a *assembler) constant(line int, t token) int {
	var v bytecode.Value
	switch {
	case t.quoted:
		v = bytecode.StringValue(t.text)
	case t.text == "true" || t.text == "false":
		v = bytecode.BoolValue(t.text == "true")
	case t.text == "null":
		v = bytecode.NullValue()
	default:
		f, err := parseNumber(t.text)
		if err != nil {
			a.errorf(line, "invalid constant %q", t.text)
			return 0
		}
		v = bytecode.NumberValue(f)
	}
	for i, c := range a.consts {
		if c.Equal(v) {
			return i
		}
	}
	a.consts = append(a.consts, v)
	return len(a.consts) - 1
}

func parseNumber(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func (a *assembler) mainPC() int {
	if a.main == nil {
		return 0
	}
	if pc, ok := a.labels[a.main.text]; ok {
		return pc
	}
	return a.integer(0, *a.main, 0, math.MaxInt32)
}

func (a *assembler) macroRegions() []bytecode.MacroRegion {
	var regions []bytecode.MacroRegion
	for _, args := range a.macros {
		var pcs [3]int
		for i, t := range args {
			pc, ok := a.labels[t.text]
			if !ok {
				pc = a.integer(0, t, 0, math.MaxInt32)
			}
			pcs[i] = pc
		}
		regions = append(regions, bytecode.MacroRegion{Start: pcs[0], End: pcs[1], CallSite: pcs[2]})
	}
	return regions
}

// linearDepth bounds the stack depth by walking the instructions in order.
// Both arms of a branch are counted, which can only overestimate.
func linearDepth(script *bytecode.Script) int {
	depth, max := 0, 0
	iter := bytecode.NewInstructionIter(script)
	for {
		in, ok := iter.Next()
		if !ok {
			break
		}
		depth -= script.Uses(in.PC)
		if depth < 0 {
			depth = 0
		}
		depth += script.Defs(in.PC)
		if depth > max {
			max = depth
		}
	}
	return max
}
