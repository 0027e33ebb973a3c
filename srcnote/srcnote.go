// Package srcnote provides the source notes that annotate compiled bytecode
// with the structure of the program it was compiled from.
package srcnote

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Type identifies the kind of a source note.
type Type uint8

const (
	Null        Type = iota // terminator, never attached to an instruction
	If                      // ifeq of an if statement without else
	IfElse                  // ifeq of if-else; args: tail offset, else-if offset
	Cond                    // ifeq of a ?: expression; args: offset to the goto
	For                     // for loop head; args: cond, update, tail offsets
	While                   // while or do-while loop; args: tail offset
	ForIn                   // for-in loop goto; args: offset to next, tail offset
	Continue                // goto is a continue; on initialisers, a trailing comma
	Decl                    // declaration; args: var, const or let
	PCDelta                 // args: distance to a related instruction
	AssignOp                // compound assignment such as +=
	Brace                   // block open; args: offset of the closing brace
	Hidden                  // instruction is not rendered
	PCBase                  // args: distance back to the start of the expression
	Label                   // labeled statement; args: atom index of the label
	LabelBrace              // labeled block; args: atom index of the label
	EndBrace                // end of a labeled block
	Break2Label             // goto breaks to a label; args: atom index
	Cont2Label              // goto continues at a label; args: atom index
	Switch                  // switch head; args: length, offset to first case
	FuncDef                 // function statement; args: function index
	Catch                   // catch clause; args: guard length on entercatch, stack depth on leavecatch
	Destruct                // destructuring assignment
	GroupAssign             // group assignment; args: declaration kind
	InitProp                // numeric key of a destructuring pattern
	GenExp                  // generator expression
	typeCount
)

// Declaration kinds carried by Decl and GroupAssign notes.
const (
	DeclVar   = 0
	DeclConst = 1
	DeclLet   = 2
)

var typeInfo = [typeCount]struct {
	name  string
	arity int
}{
	Null:        {"null", 0},
	If:          {"if", 0},
	IfElse:      {"if-else", 2},
	Cond:        {"cond", 1},
	For:         {"for", 3},
	While:       {"while", 1},
	ForIn:       {"for-in", 2},
	Continue:    {"continue", 0},
	Decl:        {"decl", 1},
	PCDelta:     {"pcdelta", 1},
	AssignOp:    {"assignop", 0},
	Brace:       {"brace", 1},
	Hidden:      {"hidden", 0},
	PCBase:      {"pcbase", 1},
	Label:       {"label", 1},
	LabelBrace:  {"labelbrace", 1},
	EndBrace:    {"endbrace", 0},
	Break2Label: {"break2label", 1},
	Cont2Label:  {"cont2label", 1},
	Switch:      {"switch", 2},
	FuncDef:     {"funcdef", 1},
	Catch:       {"catch", 1},
	Destruct:    {"destruct", 0},
	GroupAssign: {"groupassign", 1},
	InitProp:    {"initprop", 0},
	GenExp:      {"genexp", 0},
}

// String returns the name of the note type.
func (t Type) String() string {
	if t >= typeCount {
		return fmt.Sprintf("note(%d)", uint8(t))
	}
	return typeInfo[t].name
}

// Arity returns the number of arguments carried by the note type.
func (t Type) Arity() int {
	if t >= typeCount {
		return 0
	}
	return typeInfo[t].arity
}

// TypeByName returns the note type with the given name.
func TypeByName(name string) (Type, bool) {
	for t := Type(0); t < typeCount; t++ {
		if typeInfo[t].name == name {
			return t, true
		}
	}
	return Null, false
}

// Note annotates the instruction at Offset.
type Note struct {
	Offset int   `json:"offset"`
	Type   Type  `json:"type"`
	Args   []int `json:"args,omitempty"`
}

// Arg returns the i'th argument, or 0 if the note has fewer arguments.
func (n *Note) Arg(i int) int {
	if n == nil || i < 0 || i >= len(n.Args) {
		return 0
	}
	return n.Args[i]
}

// Is reports whether the note is non-nil and of type t.
func (n *Note) Is(t Type) bool {
	return n != nil && n.Type == t
}

func (n *Note) String() string {
	if n == nil {
		return "<none>"
	}
	if len(n.Args) == 0 {
		return fmt.Sprintf("%d:%s", n.Offset, n.Type)
	}
	return fmt.Sprintf("%d:%s%v", n.Offset, n.Type, n.Args)
}

// Stream is an immutable, offset-ordered set of source notes.
type Stream struct {
	notes []Note
}

// NewStream returns a stream holding a copy of the given notes, ordered by
// offset. At most one note may be attached to each offset; when duplicates
// are given the first one wins.
func NewStream(notes []Note) *Stream {
	sorted := make([]Note, 0, len(notes))
	for _, n := range notes {
		args := make([]int, len(n.Args))
		copy(args, n.Args)
		sorted = append(sorted, Note{Offset: n.Offset, Type: n.Type, Args: args})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	out := sorted[:0]
	for i, n := range sorted {
		if i > 0 && n.Offset == out[len(out)-1].Offset {
			continue
		}
		out = append(out, n)
	}
	return &Stream{notes: out}
}

// At returns the note attached to the instruction at pc, or nil.
func (s *Stream) At(pc int) *Note {
	if s == nil {
		return nil
	}
	i := sort.Search(len(s.notes), func(i int) bool {
		return s.notes[i].Offset >= pc
	})
	if i < len(s.notes) && s.notes[i].Offset == pc {
		return &s.notes[i]
	}
	return nil
}

// Len returns the number of notes in the stream.
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.notes)
}

// All returns a copy of the notes in offset order.
func (s *Stream) All() []Note {
	if s == nil {
		return nil
	}
	out := make([]Note, len(s.notes))
	for i, n := range s.notes {
		args := make([]int, len(n.Args))
		copy(args, n.Args)
		out[i] = Note{Offset: n.Offset, Type: n.Type, Args: args}
	}
	return out
}

// Encode serializes the stream in its compact binary form. Each note is a
// type byte followed by the offset delta from the previous note and the
// note's arguments as varints. A Null byte terminates the stream.
func (s *Stream) Encode() []byte {
	var buf []byte
	prev := 0
	for _, n := range s.All() {
		buf = append(buf, byte(n.Type))
		buf = binary.AppendUvarint(buf, uint64(n.Offset-prev))
		for i := 0; i < n.Type.Arity(); i++ {
			buf = binary.AppendVarint(buf, int64(n.Arg(i)))
		}
		prev = n.Offset
	}
	return append(buf, byte(Null))
}

// Decode parses a stream produced by Encode.
func Decode(data []byte) (*Stream, error) {
	var notes []Note
	prev := 0
	for pos := 0; ; {
		if pos >= len(data) {
			return nil, fmt.Errorf("source notes: missing terminator")
		}
		t := Type(data[pos])
		pos++
		if t == Null {
			break
		}
		if t >= typeCount {
			return nil, fmt.Errorf("source notes: unknown type %d at byte %d", uint8(t), pos-1)
		}
		delta, n := binary.Uvarint(data[pos:])
		if n <= 0 {
			return nil, fmt.Errorf("source notes: bad offset delta at byte %d", pos)
		}
		pos += n
		note := Note{Offset: prev + int(delta), Type: t}
		for i := 0; i < t.Arity(); i++ {
			arg, n := binary.Varint(data[pos:])
			if n <= 0 {
				return nil, fmt.Errorf("source notes: bad %s argument at byte %d", t, pos)
			}
			pos += n
			note.Args = append(note.Args, int(arg))
		}
		notes = append(notes, note)
		prev = note.Offset
	}
	return NewStream(notes), nil
}
