package asm

import (
	"testing"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
	"github.com/stretchr/testify/require"
)

func TestAssembleBasic(t *testing.T) {
	script, err := Assemble(`
		.name basic
		name obj            ; push obj
		getprop prop  @pcbase(3)
		popv
		stop
	`)
	require.NoError(t, err)
	require.Equal(t, "basic", script.Name())
	require.Equal(t, 8, script.Len())
	require.Equal(t, op.Name, script.OpAt(0))
	require.Equal(t, op.GetProp, script.OpAt(3))
	require.Equal(t, op.PopV, script.OpAt(6))

	name, ok := script.Atom(script.Index(0))
	require.True(t, ok)
	require.Equal(t, "obj", name)
	prop, ok := script.Atom(script.Index(3))
	require.True(t, ok)
	require.Equal(t, "prop", prop)

	note := script.NoteAt(3)
	require.True(t, note.Is(srcnote.PCBase))
	require.Equal(t, 3, note.Arg(0))
	require.Equal(t, 1, script.MaxDepth())
	require.NoError(t, script.Validate())
}

func TestAssembleLabels(t *testing.T) {
	script, err := Assemble(`
	top:
		name x
		ifeq done  @while(done)
		goto top
	done:
		stop
	`)
	require.NoError(t, err)
	require.Equal(t, 6, script.JumpOffset(3))
	require.Equal(t, -6, script.JumpOffset(6))
	require.Equal(t, 6, script.NoteAt(3).Arg(0))
	require.NoError(t, script.Validate())
}

func TestAssembleLiterals(t *testing.T) {
	script, err := Assemble(`
		int8 -5
		uint16 1000
		int32 -100000
		double 2.5
		double 2.5
		string "a\tb"
		regexp "/x+/g"
		stop
	`)
	require.NoError(t, err)
	require.Equal(t, -5, script.Int8At(1))
	require.Equal(t, 1000, script.Uint16At(3))
	require.Equal(t, -100000, script.Int32At(6))
	require.Equal(t, 1, script.ConstCount())
	v, ok := script.Const(0)
	require.True(t, ok)
	require.Equal(t, bytecode.NumberValue(2.5), v)
	s, ok := script.Atom(script.Index(16))
	require.True(t, ok)
	require.Equal(t, "a\tb", s)
	re, ok := script.RegExp(0)
	require.True(t, ok)
	require.Equal(t, "/x+/g", re)
}

func TestAssembleSwitches(t *testing.T) {
	script, err := Assemble(`
		name x
		tableswitch end 1 a b
	a:
		nop
	b:
		nop
	end:
		name y
		lookupswitch out "s" in 3 in
	in:
		nop
	out:
		stop
	`)
	require.NoError(t, err)

	def, low, high, jumps := script.TableSwitch(3)
	require.Equal(t, 1, low)
	require.Equal(t, 2, high)
	require.Equal(t, []int{11, 12}, jumps)
	require.Equal(t, 13, def)

	def, cases := script.LookupSwitch(19)
	require.Len(t, cases, 2)
	require.Equal(t, 13, cases[0].Jump)
	require.Equal(t, 14, def)
	c0, _ := script.Const(cases[0].Const)
	c1, _ := script.Const(cases[1].Const)
	require.Equal(t, bytecode.StringValue("s"), c0)
	require.Equal(t, bytecode.NumberValue(3), c1)
	require.NoError(t, script.Validate())
}

func TestAssembleDirectives(t *testing.T) {
	script, err := Assemble(`
		.depth 7
		.nfixed 2
		.strict
		.main start
		nop
	start:
		stop
	`)
	require.NoError(t, err)
	require.Equal(t, 7, script.MaxDepth())
	require.Equal(t, 2, script.NFixed())
	require.True(t, script.Strict())
	require.Equal(t, 1, script.Main())
}

func TestAssembleMacro(t *testing.T) {
	script, err := Assemble(`
	call:
		goto after
	body:
		zero
		pop
	end:
	after:
		stop
		.macro body end call
	`)
	require.NoError(t, err)
	m, ok := script.MacroAt(3)
	require.True(t, ok)
	require.Equal(t, bytecode.MacroRegion{Start: 3, End: 5, CallSite: 0}, m)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown op", "frobnicate", `unknown instruction "frobnicate"`},
		{"operand count", "pop 1", "pop takes no operands"},
		{"missing label", "goto nowhere", `invalid integer "nowhere"`},
		{"int8 range", "int8 300", "300 out of range"},
		{"note name", "nop @bogus", `unknown source note "bogus"`},
		{"note arity", "nop @while", "takes 1 arguments"},
		{"directive", ".frob", "unknown directive .frob"},
		{"unterminated", `string "abc`, "unterminated string"},
		{"duplicate label", "a:\nnop\na:\nnop", `label "a" redefined`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.src)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssembleReportsAllErrors(t *testing.T) {
	_, err := Assemble("bogus1\nbogus2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
	require.Contains(t, err.Error(), "line 2")
}

func TestUnmarshalTOML(t *testing.T) {
	script, err := UnmarshalTOML([]byte(`
name = "main"
code = """
	lambda 0
	popv
	stop
"""

[[functions]]
name = "f"
args = ["a"]
flags = "lambda"
code = """
	getarg 0
	return
	stop
"""
`))
	require.NoError(t, err)
	require.Equal(t, "main", script.Name())
	fn, ok := script.Function(0)
	require.True(t, ok)
	require.Equal(t, "f", fn.Name())
	require.Equal(t, "a", fn.Arg(0))
	require.True(t, fn.Has(bytecode.Lambda))
	require.Equal(t, op.GetArg, fn.Script().OpAt(0))
	require.NoError(t, script.Validate())
}

func TestUnmarshalTOMLUnknownKey(t *testing.T) {
	_, err := UnmarshalTOML([]byte("name = \"x\"\ncolour = 1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "colour")
}
