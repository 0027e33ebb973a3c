package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/neonux/mozilla-all-sub004/asm"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/spf13/cobra"
)

type input struct {
	name string
	data []byte
}

// readInput returns the single input selected by the file argument, the
// --code flag or the --stdin flag.
func (a *app) readInput(cmd *cobra.Command, args []string) (input, error) {
	var count int
	if len(args) > 0 {
		count++
	}
	if a.v.GetString("code") != "" {
		count++
	}
	if a.v.GetBool("stdin") {
		count++
	}
	if count > 1 {
		return input{}, errors.New("multiple input sources specified")
	}
	if count == 0 {
		return input{}, errors.New("no input provided")
	}

	switch {
	case a.v.GetBool("stdin"):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return input{}, err
		}
		return input{name: "<stdin>", data: data}, nil
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return input{}, err
		}
		return input{name: args[0], data: data}, nil
	default:
		return input{name: "<code>", data: []byte(a.v.GetString("code"))}, nil
	}
}

// load reads and validates the selected script.
func (a *app) load(cmd *cobra.Command, args []string) (*bytecode.Script, error) {
	in, err := a.readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	script, err := loadScript(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.name, err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", in.name, err)
	}
	a.log.Debug().
		Str("input", in.name).
		Int("length", script.Len()).
		Int("functions", script.FunctionCount()).
		Msg("loaded script")
	return script, nil
}

// loadScript decodes the input according to its file extension. Anything
// without a known extension is assembler text.
func loadScript(in input) (*bytecode.Script, error) {
	switch strings.ToLower(filepath.Ext(in.name)) {
	case ".json":
		return bytecode.Unmarshal(in.data)
	case ".cbor":
		return bytecode.UnmarshalCBOR(in.data)
	case ".toml":
		return asm.UnmarshalTOML(in.data)
	default:
		return asm.Assemble(string(in.data), asm.WithName(in.name))
	}
}

// findFunction searches the script and its nested functions for a function
// with the given name.
func findFunction(script *bytecode.Script, name string) (*bytecode.Function, error) {
	if fn := searchFunctions(script, name); fn != nil {
		return fn, nil
	}
	return nil, fmt.Errorf("function %q not found", name)
}

func searchFunctions(script *bytecode.Script, name string) *bytecode.Function {
	if script == nil {
		return nil
	}
	for i := 0; i < script.FunctionCount(); i++ {
		fn, _ := script.Function(i)
		if fn.Name() == name {
			return fn
		}
		if found := searchFunctions(fn.Script(), name); found != nil {
			return found
		}
	}
	return nil
}
