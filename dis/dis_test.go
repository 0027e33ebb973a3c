package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/neonux/mozilla-all-sub004/asm"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/stretchr/testify/require"
)

func noColor(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })
}

func TestPrint(t *testing.T) {
	noColor(t)
	script, err := asm.Assemble(`
		name obj
		getprop prop  @pcbase(3)
		popv
		stop
	`)
	require.NoError(t, err)
	instructions, err := Disassemble(script)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(instructions, &buf))

	expected := strings.TrimSpace(`
+--------+---------+----------+-----------+--------+
| OFFSET | OPCODE  | OPERANDS |   NOTE    |  INFO  |
+--------+---------+----------+-----------+--------+
|      0 | name    |        0 |           | "obj"  |
|      3 | getprop |        1 | pcbase(3) | "prop" |
|      6 | popv    |          |           |        |
|      7 | stop    |          |           |        |
+--------+---------+----------+-----------+--------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestDisassembleOperands(t *testing.T) {
	script, err := asm.Assemble(`
		name x
		tableswitch end 1 a 0
	a:
		double 2.5
		pop
		goto end
	end:
		regexp "/a/"
		pop
		stop
	`)
	require.NoError(t, err)
	instructions, err := Disassemble(script)
	require.NoError(t, err)

	byName := map[string]Instruction{}
	for _, instr := range instructions {
		byName[instr.Name] = instr
	}
	require.Equal(t, op.TableSwitch, byName["tableswitch"].Opcode)
	require.Equal(t, "default: 21, 1: 14", byName["tableswitch"].Annotation)
	require.Equal(t, bytecode.NumberValue(2.5), byName["double"].Constant)
	require.Equal(t, "to 21", byName["goto"].Annotation)
	require.Equal(t, []string{"3"}, byName["goto"].Operands)
	require.Equal(t, "/a/", byName["regexp"].Annotation)
}

func TestDisassembleFunction(t *testing.T) {
	script, err := asm.Assemble(`
		.nfixed 1
		getarg 0
		setlocal 0
		pop
		getlocal 1
		return
		stop
	`)
	require.NoError(t, err)
	fn := bytecode.NewFunction(bytecode.FunctionParams{
		Name:   "f",
		Args:   []string{"a"},
		Vars:   []string{"v"},
		Script: script,
	})
	instructions, err := DisassembleFunction(fn)
	require.NoError(t, err)
	require.Equal(t, "a", instructions[0].Annotation)
	require.Equal(t, "v", instructions[1].Annotation)
	require.Equal(t, "stack_0", instructions[3].Annotation)

	_, err = DisassembleFunction(bytecode.NewFunction(bytecode.FunctionParams{Name: "native"}))
	require.Error(t, err)
}

func TestDisassembleUndecodable(t *testing.T) {
	script := bytecode.NewScript(bytecode.ScriptParams{Code: []byte{byte(op.Nop), 250}})
	_, err := Disassemble(script)
	require.ErrorIs(t, err, errz.Inconsistency)
}
