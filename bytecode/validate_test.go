package bytecode

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
	"github.com/stretchr/testify/require"
)

func TestValidateOK(t *testing.T) {
	require.NoError(t, propScript().Validate())
	require.NoError(t, nestedScript().Validate())
}

func TestValidateReportsAllProblems(t *testing.T) {
	s := NewScript(ScriptParams{
		Code: []byte{
			byte(op.Name), 0, 5, // atom out of range
			byte(op.Goto), 0, 2, // lands mid-instruction
			byte(op.Double), 0, 0, // no constants
			byte(op.Stop),
		},
		Notes: []srcnote.Note{
			{Offset: 1, Type: srcnote.Hidden},
			{Offset: 3, Type: srcnote.PCBase},
		},
		MaxDepth: -1,
		Main:     2,
	})
	err := s.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 7)
	require.Contains(t, err.Error(), "atom index 5 out of range")
	require.Contains(t, err.Error(), "jump target 5")
	require.Contains(t, err.Error(), "constant index 0 out of range")
	require.Contains(t, err.Error(), "main offset 2")
	require.Contains(t, err.Error(), "negative max depth")
	require.Contains(t, err.Error(), "has 0 arguments, want 1")
	require.Contains(t, err.Error(), "does not attach to an instruction")
}

func TestValidateUndecodable(t *testing.T) {
	s := NewScript(ScriptParams{Code: []byte{byte(op.Zero), 0xfa}})
	err := s.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "pc 1: undecodable instruction")
}

func TestValidateNestedFunction(t *testing.T) {
	inner := NewScript(ScriptParams{Code: []byte{byte(op.GetProp), 0, 0}})
	outer := NewScript(ScriptParams{
		Code:      []byte{byte(op.Lambda), 0, 0, byte(op.Pop)},
		Functions: []*Function{NewFunction(FunctionParams{Name: "g", Script: inner})},
		MaxDepth:  1,
	})
	err := outer.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "function 0 (g)")
}

func TestValidateNegativeNoteArgument(t *testing.T) {
	s := NewScript(ScriptParams{
		Code: []byte{byte(op.Zero), byte(op.LeaveCatch), byte(op.Stop)},
		Notes: []srcnote.Note{
			{Offset: 1, Type: srcnote.Catch, Args: []int{-2}},
		},
		MaxDepth: 1,
	})
	err := s.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "negative argument -2")
}
