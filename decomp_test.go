package decomp

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/neonux/mozilla-all-sub004/asm"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func mustAssemble(t *testing.T, src string, fns ...*bytecode.Function) *bytecode.Script {
	t.Helper()
	script, err := asm.Assemble(src, asm.WithFunctions(fns...))
	require.NoError(t, err)
	return script
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestDecompileScript(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", "one\nint8 2\nint8 3\nmul\nadd\npopv\nstop", "1 + 2 * 3;\n"},
		{"grouping", "one\nint8 2\nadd\nint8 3\nmul\npopv\nstop", "(1 + 2) * 3;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecompileScript(mustAssemble(t, tt.src))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecompileScriptOptions(t *testing.T) {
	script := mustAssemble(t, "name a\npopv\nname b\npopv\nstop")

	got, err := DecompileScript(script, WithPretty(false))
	require.NoError(t, err)
	require.Equal(t, "a;b;", got)

	got, err = DecompileScript(script, WithIndent(2))
	require.NoError(t, err)
	require.Equal(t, "  a;\n  b;\n", got)
}

func TestDecompileFunction(t *testing.T) {
	fn := bytecode.NewFunction(bytecode.FunctionParams{
		Args:   []string{"x"},
		Flags:  bytecode.Lambda,
		Script: mustAssemble(t, "getarg 0\nreturn\nstop"),
	})
	got, err := DecompileFunction(fn, WithPretty(false), WithParens(true))
	require.NoError(t, err)
	require.Equal(t, "(function (x) {return x;})", got)

	got, err = DecompileFunction(fn, WithPretty(false))
	require.NoError(t, err)
	require.Equal(t, "function (x) {return x;}", got)
}

func TestDecompileValueAt(t *testing.T) {
	script := mustAssemble(t, `
		name obj
		getprop prop  @pcbase(3)
		popv
		stop
	`)
	got, ok := DecompileValueAt(script, 6, Slot(-1))
	require.True(t, ok)
	require.Equal(t, "obj.prop", got)

	got, ok = DecompileValueAt(script, 6, Search([]bytecode.Value{bytecode.NumberValue(5)}, bytecode.NumberValue(5)))
	require.True(t, ok)
	require.Equal(t, "obj.prop", got)
}

func TestDecompileValueAtFallback(t *testing.T) {
	// A call has side effects, so the compiler emits no extent for the
	// property read and the caller must fall back.
	script := mustAssemble(t, `
		callname f
		call 0
		getprop prop
		popv
		stop
	`)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	got, ok := DecompileValueAt(script, 9, Slot(-1), WithLogger(logger))
	require.False(t, ok)
	require.Empty(t, got)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "debug", lines[0]["level"])
	require.Equal(t, "value_at", lines[0]["op"])
	require.Equal(t, errz.ErrInconsistency.String(), lines[0]["kind"])
	require.NotEmpty(t, lines[0]["run_id"])
}

func TestDecompileValueAtNamesLocals(t *testing.T) {
	script := mustAssemble(t, `
		.nfixed 1
		getlocal 0
		getprop p  @pcbase(3)
		pop
		stop
	`)
	fn := bytecode.NewFunction(bytecode.FunctionParams{Name: "f", Vars: []string{"v"}, Script: script})
	got, ok := DecompileValueAt(script, 6, Slot(-1), WithFunction(fn))
	require.True(t, ok)
	require.Equal(t, "v.p", got)
}

func TestRecursionLimitIsLoggedAsWarning(t *testing.T) {
	script := mustAssemble(t, `
		name x
		ifeq end  @if
		name y
		popv
	end:
		stop
	`)
	var buf bytes.Buffer
	_, err := DecompileScript(script, WithMaxDepth(1), WithLogger(zerolog.New(&buf)))
	require.ErrorIs(t, err, errz.OutOfMemory)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "warn", lines[0]["level"])
	require.Equal(t, "script", lines[0]["op"])
}

func TestOutputLimit(t *testing.T) {
	script := mustAssemble(t, "string \"this literal does not fit\"\npopv\nstop")
	_, err := DecompileScript(script, WithMaxOutput(8))
	require.ErrorIs(t, err, errz.OutOfMemory)
}

func TestRunIDsDiffer(t *testing.T) {
	script := mustAssemble(t, "arraypush 0\nstop")
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := DecompileScript(script, WithLogger(logger))
	require.ErrorIs(t, err, errz.Unsupported)
	_, err = DecompileScript(script, WithLogger(logger))
	require.ErrorIs(t, err, errz.Unsupported)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	require.NotEqual(t, lines[0]["run_id"], lines[1]["run_id"])
}

func TestConcurrentUse(t *testing.T) {
	script := mustAssemble(t, `
		name x
		ifeq else  @if-else(jump, 0)
		callname y
		call 0
		pop
	jump:
		goto end
	else:
		callname z
		call 0
		pop
	end:
		stop
	`)
	want, err := DecompileScript(script)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = DecompileScript(script)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.Equal(t, want, got)
	}
}
