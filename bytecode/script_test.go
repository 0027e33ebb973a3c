package bytecode

import (
	"testing"

	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
	"github.com/stretchr/testify/require"
)

// obj.prop;
func propScript() *Script {
	return NewScript(ScriptParams{
		Name: "prop.js",
		Code: []byte{
			byte(op.Name), 0, 0, // 0
			byte(op.GetProp), 0, 1, // 3
			byte(op.Pop), // 6
			byte(op.Stop), // 7
		},
		Atoms:    []string{"obj", "prop"},
		Notes:    []srcnote.Note{{Offset: 3, Type: srcnote.PCBase, Args: []int{3}}},
		MaxDepth: 1,
	})
}

func TestNewScriptImmutability(t *testing.T) {
	code := []byte{byte(op.Zero), byte(op.Pop), byte(op.Stop)}
	atoms := []string{"a"}
	consts := []Value{NumberValue(1.5)}
	macros := []MacroRegion{{Start: 0, End: 1, CallSite: 0}}

	s := NewScript(ScriptParams{Code: code, Atoms: atoms, Consts: consts, Macros: macros})

	code[0] = byte(op.One)
	atoms[0] = "modified"
	consts[0] = NumberValue(99)
	macros[0].End = 3

	require.Equal(t, op.Zero, s.OpAt(0))
	atom, ok := s.Atom(0)
	require.True(t, ok)
	require.Equal(t, "a", atom)
	c, ok := s.Const(0)
	require.True(t, ok)
	require.Equal(t, 1.5, c.Num)
	require.Equal(t, 1, s.MacroAtIndex(0).End)
}

func TestScriptAccessors(t *testing.T) {
	s := propScript()
	require.Equal(t, "prop.js", s.Name())
	require.Equal(t, 8, s.Len())
	require.Equal(t, 0, s.Main())
	require.Equal(t, 1, s.MaxDepth())
	require.Equal(t, op.GetProp, s.OpAt(3))
	require.Equal(t, op.Stop, s.OpAt(100))
	require.Equal(t, 1, s.Index(3))
	require.True(t, s.NoteAt(3).Is(srcnote.PCBase))
	require.Nil(t, s.NoteAt(0))

	_, ok := s.Atom(2)
	require.False(t, ok)
	_, ok = s.Const(0)
	require.False(t, ok)
	_, ok = s.Function(0)
	require.False(t, ok)
	_, ok = s.RegExp(-1)
	require.False(t, ok)
}

func TestOperandDecoding(t *testing.T) {
	s := NewScript(ScriptParams{Code: []byte{
		byte(op.Int8), 0xfe, // 0
		byte(op.Int32), 0xff, 0xff, 0xff, 0x9c, // 2
		byte(op.Goto), 0xff, 0xf9, // 7
		byte(op.Uint16), 0x01, 0x00, // 10
	}})
	require.Equal(t, -2, s.Int8At(1))
	require.Equal(t, -100, s.Int32At(3))
	require.Equal(t, -7, s.JumpOffset(7))
	require.Equal(t, 256, s.Uint16At(11))
	require.Equal(t, 0, s.Uint16At(12))
	require.Equal(t, 0, s.Int32At(11))
}

func TestOpLength(t *testing.T) {
	s := NewScript(ScriptParams{Code: []byte{
		byte(op.TableSwitch), 0, 13, 0, 1, 0, 3, 0, 13, 0, 13, 0, 13, // 0: low 1, high 3
		byte(op.LookupSwitch), 0, 14, 0, 2, 0, 0, 0, 14, 0, 1, 0, 14, // 13: 2 pairs
		byte(op.Call), 0, 2, // 26
		byte(op.PopN), 0, 3, // 29
		byte(op.Int32), 0, // 32: truncated
	}})
	require.Equal(t, 13, s.OpLength(0))
	require.Equal(t, 13, s.OpLength(13))
	require.Equal(t, 3, s.OpLength(26))
	require.Equal(t, 4, s.Uses(26))
	require.Equal(t, 1, s.Defs(26))
	require.Equal(t, 3, s.Uses(29))
	require.Equal(t, 0, s.OpLength(32))
	require.Equal(t, 0, s.OpLength(-1))

	def, low, high, jumps := s.TableSwitch(0)
	require.Equal(t, 13, def)
	require.Equal(t, 1, low)
	require.Equal(t, 3, high)
	require.Equal(t, []int{13, 13, 13}, jumps)

	def, cases := s.LookupSwitch(13)
	require.Equal(t, 14, def)
	require.Equal(t, []LookupCase{{Const: 0, Jump: 14}, {Const: 1, Jump: 14}}, cases)
}

func TestInstructionIter(t *testing.T) {
	instrs := NewInstructionIter(propScript()).All()
	require.Equal(t, []Instruction{
		{PC: 0, Op: op.Name, Length: 3},
		{PC: 3, Op: op.GetProp, Length: 3},
		{PC: 6, Op: op.Pop, Length: 1},
		{PC: 7, Op: op.Stop, Length: 1},
	}, instrs)

	iter := NewRangeIter(propScript(), 3, 7)
	require.Len(t, iter.All(), 2)
	require.False(t, iter.Err())

	bad := NewInstructionIter(NewScript(ScriptParams{Code: []byte{byte(op.Zero), 250}}))
	require.Len(t, bad.All(), 1)
	require.True(t, bad.Err())
}

func TestMacroAt(t *testing.T) {
	s := NewScript(ScriptParams{
		Code:   []byte{byte(op.Nop), byte(op.Zero), byte(op.Pop), byte(op.Stop)},
		Macros: []MacroRegion{{Start: 1, End: 3, CallSite: 0}},
	})
	m, ok := s.MacroAt(2)
	require.True(t, ok)
	require.Equal(t, 0, m.CallSite)
	_, ok = s.MacroAt(3)
	require.False(t, ok)
	require.Equal(t, 1, s.MacroCount())
}

func TestFunction(t *testing.T) {
	args := []string{"a", ""}
	fn := NewFunction(FunctionParams{
		Name:   "f",
		Args:   args,
		Vars:   []string{"x"},
		Flags:  Lambda | ExprClosure,
		Script: propScript(),
	})
	args[0] = "changed"

	require.Equal(t, "f", fn.Name())
	require.Equal(t, 2, fn.ArgCount())
	require.Equal(t, "a", fn.Arg(0))
	require.Equal(t, "", fn.Arg(5))
	require.Equal(t, "x", fn.Var(0))
	require.Equal(t, "", fn.Var(1))
	require.True(t, fn.Has(ExprClosure))
	require.False(t, fn.Has(Getter))
	require.True(t, fn.HasDestructuringArgs())
	require.Equal(t, "lambda|expr_closure", fn.Flags().String())
}

func TestParseFunctionFlags(t *testing.T) {
	f, ok := ParseFunctionFlags("getter|lambda")
	require.True(t, ok)
	require.Equal(t, Getter|Lambda, f)

	f, ok = ParseFunctionFlags("")
	require.True(t, ok)
	require.Equal(t, FunctionFlag(0), f)

	_, ok = ParseFunctionFlags("lambda|bogus")
	require.False(t, ok)
}
