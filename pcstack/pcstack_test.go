package pcstack

import (
	"errors"
	"testing"

	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/errz"
	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/srcnote"
	"github.com/stretchr/testify/require"
)

func script(code []byte, depth int, notes []srcnote.Note, macros []bytecode.MacroRegion) *bytecode.Script {
	return bytecode.NewScript(bytecode.ScriptParams{
		Code:     code,
		Atoms:    []string{"a", "b", "c"},
		MaxDepth: depth,
		Notes:    notes,
		Macros:   macros,
	})
}

func TestReconstructLinear(t *testing.T) {
	s := script([]byte{
		byte(op.Name), 0, 0, // 0
		byte(op.Name), 0, 1, // 3
		byte(op.Swap), // 6
		byte(op.Add),  // 7
		byte(op.Dup),  // 8
		byte(op.Pop),  // 9
		byte(op.Pop),  // 10
		byte(op.Stop), // 11
	}, 2, nil, nil)

	tests := []struct {
		pc   int
		want []int
	}{
		{0, []int{}},
		{3, []int{0}},
		{6, []int{0, 3}},
		{7, []int{3, 0}},
		{8, []int{7}},
		{9, []int{7, 7}},
		{10, []int{7}},
		{11, []int{}},
	}
	for _, tt := range tests {
		got, err := Reconstruct(s, tt.pc)
		require.NoError(t, err, "pc %d", tt.pc)
		require.Equal(t, tt.want, got, "pc %d", tt.pc)

		depth, err := Depth(s, tt.pc)
		require.NoError(t, err)
		require.Equal(t, len(tt.want), depth)
	}
}

func TestReconstructConditional(t *testing.T) {
	// c ? 1 : 0;
	s := script([]byte{
		byte(op.Name), 0, 2, // 0
		byte(op.IfEq), 0, 7, // 3
		byte(op.One),        // 6
		byte(op.Goto), 0, 4, // 7
		byte(op.Zero), // 10
		byte(op.Pop),  // 11
		byte(op.Stop), // 12
	}, 1, []srcnote.Note{{Offset: 3, Type: srcnote.Cond, Args: []int{4}}}, nil)

	tests := []struct {
		pc   int
		want []int
	}{
		{6, []int{}},
		{7, []int{6}},
		{10, []int{}},
		{11, []int{10}},
		{12, []int{}},
	}
	for _, tt := range tests {
		got, err := Reconstruct(s, tt.pc)
		require.NoError(t, err, "pc %d", tt.pc)
		require.Equal(t, tt.want, got, "pc %d", tt.pc)
	}
}

func TestReconstructSkipsHidden(t *testing.T) {
	s := script([]byte{
		byte(op.Name), 0, 0,
		byte(op.Pop),
		byte(op.Stop),
	}, 1, []srcnote.Note{{Offset: 3, Type: srcnote.Hidden}}, nil)

	got, err := Reconstruct(s, 4)
	require.NoError(t, err)
	require.Equal(t, []int{0}, got)
}

func TestReconstructMacro(t *testing.T) {
	s := script([]byte{
		byte(op.Name), 0, 0, // 0
		byte(op.Nop),  // 3: call site
		byte(op.Pop),  // 4
		byte(op.Stop), // 5
		// macro region [6, 13)
		byte(op.Dup),        // 6
		byte(op.IfEq), 0, 4, // 7
		byte(op.One),  // 10
		byte(op.Pop),  // 11
		byte(op.Stop), // 12
		byte(op.Stop), // 13
	}, 2, nil, []bytecode.MacroRegion{{Start: 6, End: 13, CallSite: 3}})

	got, err := Reconstruct(s, 4)
	require.NoError(t, err)
	require.Equal(t, []int{0}, got)

	got, err = Reconstruct(s, 7)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0}, got)

	// reached by taking the branch
	got, err = Reconstruct(s, 11)
	require.NoError(t, err)
	require.Equal(t, []int{0}, got)

	// reached by falling through
	got, err = Reconstruct(s, 10)
	require.NoError(t, err)
	require.Equal(t, []int{0}, got)
}

func TestReconstructErrors(t *testing.T) {
	tests := []struct {
		name   string
		script *bytecode.Script
		pc     int
	}{
		{"underflow", script([]byte{byte(op.Pop), byte(op.Stop)}, 1, nil, nil), 1},
		{"overflow", script([]byte{byte(op.One), byte(op.One), byte(op.Stop)}, 1, nil, nil), 2},
		{"past end", script([]byte{byte(op.Stop)}, 0, nil, nil), 5},
		{"mid instruction", script([]byte{byte(op.Name), 0, 0, byte(op.Stop)}, 1, nil, nil), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(tt.script, tt.pc)
			require.Error(t, err)
			require.True(t, errors.Is(err, errz.Inconsistency))
		})
	}
}

func TestSimulateCaseKeepsSwitchValue(t *testing.T) {
	s := script([]byte{
		byte(op.Name), 0, 0, // 0
		byte(op.One),        // 3
		byte(op.Case), 0, 3, // 4
		byte(op.Stop), // 7
	}, 2, nil, nil)

	got, err := Reconstruct(s, 7)
	require.NoError(t, err)
	require.Equal(t, []int{0}, got)
}
