package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Marshal converts a Script, including its nested functions, into a JSON
// representation.
func Marshal(script *Script) ([]byte, error) {
	return json.Marshal(stateFromScript(script))
}

// Unmarshal converts a JSON representation into a Script.
func Unmarshal(data []byte) (*Script, error) {
	var state scriptState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return scriptFromState(&state)
}

// Serialization types, shared by the JSON and CBOR encodings.

type functionDef struct {
	Name        string   `json:"name,omitempty" cbor:"1,keyasint,omitempty"`
	Args        []string `json:"args,omitempty" cbor:"2,keyasint,omitempty"`
	Vars        []string `json:"vars,omitempty" cbor:"3,keyasint,omitempty"`
	Flags       string   `json:"flags,omitempty" cbor:"4,keyasint,omitempty"`
	ScriptIndex int      `json:"script_index" cbor:"5,keyasint"` // Index into scripts array
}

type noteDef struct {
	Offset int    `json:"offset" cbor:"1,keyasint"`
	Type   string `json:"type" cbor:"2,keyasint"`
	Args   []int  `json:"args,omitempty" cbor:"3,keyasint,omitempty"`
}

type scriptDef struct {
	Name      string        `json:"name,omitempty" cbor:"1,keyasint,omitempty"`
	Code      []byte        `json:"code" cbor:"2,keyasint"`
	Main      int           `json:"main,omitempty" cbor:"3,keyasint,omitempty"`
	Atoms     []string      `json:"atoms,omitempty" cbor:"4,keyasint,omitempty"`
	Consts    []Value       `json:"consts,omitempty" cbor:"5,keyasint,omitempty"`
	Functions []functionDef `json:"functions,omitempty" cbor:"6,keyasint,omitempty"`
	RegExps   []string      `json:"regexps,omitempty" cbor:"7,keyasint,omitempty"`
	Notes     []noteDef     `json:"notes,omitempty" cbor:"8,keyasint,omitempty"`
	MaxDepth  int           `json:"max_depth" cbor:"9,keyasint"`
	NFixed    int           `json:"nfixed,omitempty" cbor:"10,keyasint,omitempty"`
	Strict    bool          `json:"strict,omitempty" cbor:"11,keyasint,omitempty"`
	Macros    []MacroRegion `json:"macros,omitempty" cbor:"12,keyasint,omitempty"`
}

type scriptState struct {
	Scripts []*scriptDef `json:"scripts" cbor:"1,keyasint"`
}

// flatten lists the script and every script nested in it, parents first.
func flatten(script *Script) []*Script {
	all := []*Script{script}
	for i := 0; i < len(all); i++ {
		for _, fn := range all[i].functions {
			if fn != nil && fn.script != nil {
				all = append(all, fn.script)
			}
		}
	}
	return all
}

func stateFromScript(script *Script) *scriptState {
	all := flatten(script)
	index := make(map[*Script]int, len(all))
	for i, s := range all {
		index[s] = i
	}

	state := &scriptState{Scripts: make([]*scriptDef, len(all))}
	for i, s := range all {
		functions := make([]functionDef, len(s.functions))
		for j, fn := range s.functions {
			if fn == nil {
				functions[j] = functionDef{ScriptIndex: -1}
				continue
			}
			scriptIndex := -1
			if idx, ok := index[fn.script]; ok {
				scriptIndex = idx
			}
			functions[j] = functionDef{
				Name:        fn.name,
				Args:        fn.args,
				Vars:        fn.vars,
				Flags:       fn.flags.String(),
				ScriptIndex: scriptIndex,
			}
		}

		var notes []noteDef
		for _, n := range s.notes.All() {
			notes = append(notes, noteDef{Offset: n.Offset, Type: n.Type.String(), Args: n.Args})
		}

		state.Scripts[i] = &scriptDef{
			Name:      s.name,
			Code:      s.code,
			Main:      s.main,
			Atoms:     s.atoms,
			Consts:    s.consts,
			Functions: functions,
			RegExps:   s.regexps,
			Notes:     notes,
			MaxDepth:  s.maxDepth,
			NFixed:    s.nfixed,
			Strict:    s.strict,
			Macros:    s.macros,
		}
	}
	return state
}

func scriptFromState(state *scriptState) (*Script, error) {
	if len(state.Scripts) == 0 {
		return nil, fmt.Errorf("no scripts in input")
	}
	// Nested scripts always come after their parent, so building in reverse
	// order sees every referenced script already built.
	scripts := make([]*Script, len(state.Scripts))
	for i := len(state.Scripts) - 1; i >= 0; i-- {
		def := state.Scripts[i]
		if def == nil {
			return nil, fmt.Errorf("script %d: missing definition", i)
		}

		functions := make([]*Function, len(def.Functions))
		for j, fd := range def.Functions {
			if fd.ScriptIndex <= i || fd.ScriptIndex >= len(scripts) {
				return nil, fmt.Errorf("script %d: function %d has invalid script index %d", i, j, fd.ScriptIndex)
			}
			flags, ok := ParseFunctionFlags(fd.Flags)
			if !ok {
				return nil, fmt.Errorf("script %d: function %d has invalid flags %q", i, j, fd.Flags)
			}
			functions[j] = NewFunction(FunctionParams{
				Name:   fd.Name,
				Args:   fd.Args,
				Vars:   fd.Vars,
				Flags:  flags,
				Script: scripts[fd.ScriptIndex],
			})
		}

		notes := make([]srcnote.Note, len(def.Notes))
		for j, nd := range def.Notes {
			t, ok := srcnote.TypeByName(nd.Type)
			if !ok {
				return nil, fmt.Errorf("script %d: unknown source note type %q", i, nd.Type)
			}
			notes[j] = srcnote.Note{Offset: nd.Offset, Type: t, Args: nd.Args}
		}

		scripts[i] = NewScript(ScriptParams{
			Name:      def.Name,
			Code:      def.Code,
			Main:      def.Main,
			Atoms:     def.Atoms,
			Consts:    def.Consts,
			Functions: functions,
			RegExps:   def.RegExps,
			Notes:     notes,
			MaxDepth:  def.MaxDepth,
			NFixed:    def.NFixed,
			Strict:    def.Strict,
			Macros:    def.Macros,
		})
	}
	return scripts[0], nil
}
