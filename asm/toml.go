package asm

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/neonux/mozilla-all-sub004/bytecode"
)

// File is the TOML form of a script fixture. Functions are assembled in
// order; each may refer to the functions listed before it, and the main
// script may refer to all of them.
//
//	name = "example"
//	code = """
//	    lambda 0
//	    popv
//	    stop
//	"""
//
//	[[functions]]
//	name = "f"
//	args = ["a"]
//	flags = "lambda"
//	code = "getarg 0\nreturn\nstop"
type File struct {
	Name      string         `toml:"name"`
	Code      string         `toml:"code"`
	Functions []FunctionFile `toml:"functions"`
}

// FunctionFile describes one function of a File.
type FunctionFile struct {
	Name  string   `toml:"name"`
	Args  []string `toml:"args"`
	Vars  []string `toml:"vars"`
	Flags string   `toml:"flags"`
	Code  string   `toml:"code"`
}

// UnmarshalTOML decodes a TOML fixture and assembles it.
func UnmarshalTOML(data []byte) (*bytecode.Script, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return f.Assemble()
}

// Assemble assembles the file's functions and main script.
func (f *File) Assemble() (*bytecode.Script, error) {
	var fns []*bytecode.Function
	for i, ff := range f.Functions {
		flags, ok := bytecode.ParseFunctionFlags(ff.Flags)
		if !ok {
			return nil, fmt.Errorf("function %d: invalid flags %q", i, ff.Flags)
		}
		script, err := Assemble(ff.Code, WithName(ff.Name), WithFunctions(fns...))
		if err != nil {
			return nil, fmt.Errorf("function %d (%s): %w", i, ff.Name, err)
		}
		fns = append(fns, bytecode.NewFunction(bytecode.FunctionParams{
			Name:   ff.Name,
			Args:   ff.Args,
			Vars:   ff.Vars,
			Flags:  flags,
			Script: script,
		}))
	}
	return Assemble(f.Code, WithName(f.Name), WithFunctions(fns...))
}
