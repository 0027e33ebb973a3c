package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/stretchr/testify/require"
)

const fixtureTOML = `
name = "fixture"
code = "stop"

[[functions]]
name = "add"
args = ["a", "b"]
code = """
getarg 0
getarg 1
add
return
stop
"""
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	path := writeFile(t, "prog.asm", "name a\npopv\nname b\npopv\nstop\n")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"file", []string{path}, "a;\nb;\n"},
		{"run subcommand", []string{"run", path}, "a;\nb;\n"},
		{"code", []string{"-c", "one\nint8 2\nadd\npopv\nstop"}, "1 + 2;\n"},
		{"not pretty", []string{path, "--pretty=false"}, "a;b;\n"},
		{"indent", []string{path, "--indent", "2"}, "  a;\n  b;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, "", tt.args...)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRunStdin(t *testing.T) {
	got, err := execute(t, "name x\npopv\nstop\n", "--stdin")
	require.NoError(t, err)
	require.Equal(t, "x;\n", got)
}

func TestInputSources(t *testing.T) {
	path := writeFile(t, "prog.asm", "stop\n")

	_, err := execute(t, "")
	require.EqualError(t, err, "no input provided")

	_, err = execute(t, "", path, "-c", "stop")
	require.EqualError(t, err, "multiple input sources specified")

	_, err = execute(t, "stop", "--stdin", "-c", "stop")
	require.EqualError(t, err, "multiple input sources specified")

	_, err = execute(t, "", filepath.Join(t.TempDir(), "missing.asm"))
	require.Error(t, err)
}

func TestRunInvalidInput(t *testing.T) {
	_, err := execute(t, "", "-c", "frobnicate\nstop")
	require.Error(t, err)
	require.Contains(t, err.Error(), "<code>")
}

func TestRunFunction(t *testing.T) {
	path := writeFile(t, "fixture.toml", fixtureTOML)

	got, err := execute(t, "", path, "--func", "add")
	require.NoError(t, err)
	require.Equal(t, "function add(a, b) {\n    return a + b;\n}\n", got)

	_, err = execute(t, "", path, "--func", "sub")
	require.EqualError(t, err, `function "sub" not found`)
}

func TestRunJSON(t *testing.T) {
	got, err := execute(t, "", "-c", "name a\npopv\nstop", "--format", "json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &result))
	require.Equal(t, "a;\n", result["source"])
	require.Equal(t, "<code>", result["name"])

	_, err = execute(t, "", "-c", "stop", "--format", "yaml")
	require.EqualError(t, err, "unknown output format: yaml")
}

func TestAsmRoundTrip(t *testing.T) {
	src := writeFile(t, "prog.asm", "name obj\ngetprop prop\npopv\nstop\n")
	for _, ext := range []string{".json", ".cbor"} {
		t.Run(ext, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "prog"+ext)
			_, err := execute(t, "", "asm", src, "-o", out)
			require.NoError(t, err)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			if ext == ".json" {
				script, err := bytecode.Unmarshal(data)
				require.NoError(t, err)
				require.Equal(t, 8, script.Len())
			}

			got, err := execute(t, "", out)
			require.NoError(t, err)
			require.Equal(t, "obj.prop;\n", got)
		})
	}
}

func TestAsmRejectsUnknownOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "prog.bin")
	_, err := execute(t, "", "asm", "-c", "stop", "-o", out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "want .json or .cbor")
	require.NoFileExists(t, out)
}

func TestDis(t *testing.T) {
	got, err := execute(t, "", "dis", "-c", "name obj\ngetprop prop\npopv\nstop")
	require.NoError(t, err)
	require.Contains(t, got, "OFFSET")
	require.Contains(t, got, "getprop")
	require.Contains(t, got, `"prop"`)

	got, err = execute(t, "", "dis", "-c", "name obj\npopv\nstop", "--format", "json")
	require.NoError(t, err)
	var instrs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &instrs))
	require.Len(t, instrs, 3)
	require.Equal(t, "name", instrs[0]["opcode"])
	require.Equal(t, float64(3), instrs[1]["offset"])
}

func TestDisFunction(t *testing.T) {
	path := writeFile(t, "fixture.toml", fixtureTOML)
	got, err := execute(t, "", "dis", path, "--func", "add")
	require.NoError(t, err)
	require.Contains(t, got, "getarg")
	require.Contains(t, got, "return")
}

func TestExpr(t *testing.T) {
	code := "name obj\ngetprop prop  @pcbase(3)\npopv\nstop"

	got, err := execute(t, "", "expr", "-c", code, "--pc", "6")
	require.NoError(t, err)
	require.Equal(t, "obj.prop\n", got)

	got, err = execute(t, "", "expr", "-c", code, "--pc", "6", "--format", "json")
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &result))
	require.Equal(t, "obj.prop", result["source"])
	require.Equal(t, float64(6), result["pc"])

	_, err = execute(t, "", "expr", "-c", code, "--pc", "6", "--slot", "-2")
	require.EqualError(t, err, "no expression for slot -2 at pc 6")

	_, err = execute(t, "", "expr", "-c", code)
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	got, err := execute(t, "", "version")
	require.NoError(t, err)
	require.Equal(t, "decomp dev (commit unknown, built unknown)\n", got)
}

func TestConfigFile(t *testing.T) {
	config := writeFile(t, "decomp.toml", "indent = 2\n")
	got, err := execute(t, "", "-c", "name a\npopv\nstop", "--config", config)
	require.NoError(t, err)
	require.Equal(t, "  a;\n", got)

	// Flags take precedence over the config file.
	got, err = execute(t, "", "-c", "name a\npopv\nstop", "--config", config, "--indent", "0")
	require.NoError(t, err)
	require.Equal(t, "a;\n", got)

	_, err = execute(t, "", "-c", "stop", "--config", filepath.Join(t.TempDir(), "none.toml"))
	require.Error(t, err)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("DECOMP_PRETTY", "false")
	got, err := execute(t, "", "-c", "name a\npopv\nname b\npopv\nstop")
	require.NoError(t, err)
	require.Equal(t, "a;b;\n", got)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "", "-c", "stop", "--log-level", "loud")
	require.EqualError(t, err, `invalid log level "loud"`)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "INFO")
	require.NoError(t, err)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"message":"shown"`)
}
