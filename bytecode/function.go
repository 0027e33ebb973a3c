package bytecode

import "strings"

// FunctionFlag describes how a function was written.
type FunctionFlag uint8

const (
	// Lambda marks a function expression, as opposed to a statement.
	Lambda FunctionFlag = 1 << iota
	// ExprClosure marks a function whose body is a single expression.
	ExprClosure
	// Getter marks a property getter.
	Getter
	// Setter marks a property setter.
	Setter
	// Generator marks a function containing yield.
	Generator
)

var flagNames = []struct {
	flag FunctionFlag
	name string
}{
	{Lambda, "lambda"},
	{ExprClosure, "expr_closure"},
	{Getter, "getter"},
	{Setter, "setter"},
	{Generator, "generator"},
}

// String returns the set flags joined by "|".
func (f FunctionFlag) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFunctionFlags parses the output of FunctionFlag.String.
func ParseFunctionFlags(s string) (FunctionFlag, bool) {
	var f FunctionFlag
	if s == "" {
		return 0, true
	}
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, fn := range flagNames {
			if fn.name == strings.TrimSpace(part) {
				f |= fn.flag
				found = true
			}
		}
		if !found {
			return 0, false
		}
	}
	return f, true
}

// Function represents a compiled function. It is immutable after creation.
type Function struct {
	name   string
	args   []string
	vars   []string
	flags  FunctionFlag
	script *Script
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	Name string
	// Args names the formal parameters in order. An empty entry marks a
	// destructuring parameter whose pattern is rebuilt from the prologue.
	Args []string
	// Vars names the fixed local slots in order. Empty entries are legal.
	Vars   []string
	Flags  FunctionFlag
	Script *Script
}

// NewFunction creates a new immutable Function from the given parameters.
// Input slices are copied to ensure immutability.
func NewFunction(params FunctionParams) *Function {
	return &Function{
		name:   params.Name,
		args:   copyStrings(params.Args),
		vars:   copyStrings(params.Vars),
		flags:  params.Flags,
		script: params.Script,
	}
}

// Name returns the function name, or empty string for anonymous functions.
func (f *Function) Name() string {
	return f.name
}

// Script returns the compiled body of the function.
func (f *Function) Script() *Script {
	return f.script
}

// Flags returns the function's flags.
func (f *Function) Flags() FunctionFlag {
	return f.flags
}

// Has reports whether the given flag is set.
func (f *Function) Has(flag FunctionFlag) bool {
	return f.flags&flag != 0
}

// ArgCount returns the number of formal parameters.
func (f *Function) ArgCount() int {
	return len(f.args)
}

// Arg returns the name of the parameter at the given index, or an empty
// string when the slot is unnamed or out of range.
func (f *Function) Arg(index int) string {
	if index < 0 || index >= len(f.args) {
		return ""
	}
	return f.args[index]
}

// VarCount returns the number of named local variable slots.
func (f *Function) VarCount() int {
	return len(f.vars)
}

// Var returns the name of the local variable at the given slot, or an empty
// string when the slot is unnamed or out of range.
func (f *Function) Var(slot int) string {
	if slot < 0 || slot >= len(f.vars) {
		return ""
	}
	return f.vars[slot]
}

// HasDestructuringArgs reports whether any parameter is a pattern.
func (f *Function) HasDestructuringArgs() bool {
	for _, a := range f.args {
		if a == "" {
			return true
		}
	}
	return false
}
