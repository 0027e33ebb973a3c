package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	info := Lookup(GetProp)
	require.Equal(t, "getprop", info.Name)
	require.Equal(t, 3, info.Length)
	require.Equal(t, 1, info.Uses)
	require.Equal(t, 1, info.Defs)
	require.Equal(t, ModeProp, info.Mode)
	require.Equal(t, GetProp, info.Code)
}

func TestLookupAllOpcodes(t *testing.T) {
	tests := []struct {
		code   Code
		name   string
		length int
		uses   int
		defs   int
		prec   int
	}{
		{Nop, "nop", 1, 0, 0, PrecNone},
		{Goto, "goto", 3, 0, 0, PrecNone},
		{IfEq, "ifeq", 3, 1, 0, PrecCond},
		{Or, "or", 3, 1, 0, PrecOr},
		{And, "and", 3, 1, 0, PrecAnd},
		{Pop, "pop", 1, 1, 0, PrecComma},
		{PopN, "popn", 3, Variable, 0, PrecNone},
		{Dup, "dup", 1, 1, 2, PrecNone},
		{Dup2, "dup2", 1, 2, 4, PrecNone},
		{Swap, "swap", 1, 2, 2, PrecNone},
		{Name, "name", 3, 0, 1, PrecPrimary},
		{SetName, "setname", 3, 2, 1, PrecAssign},
		{CallName, "callname", 3, 0, 2, PrecPrimary},
		{GetElem, "getelem", 1, 2, 1, PrecMember},
		{SetElem, "setelem", 1, 3, 1, PrecAssign},
		{EnumElem, "enumelem", 1, 3, 0, PrecAssign},
		{Call, "call", 3, Variable, 1, PrecMember},
		{New, "new", 3, Variable, 1, PrecNew},
		{Int32, "int32", 5, 0, 1, PrecPostfix},
		{Add, "add", 1, 2, 1, PrecAdditive},
		{Mul, "mul", 1, 2, 1, PrecMultiplicative},
		{Neg, "neg", 1, 1, 1, PrecUnary},
		{TableSwitch, "tableswitch", Variable, 1, 0, PrecNone},
		{Case, "case", 3, 2, 1, PrecNone},
		{MoreIter, "moreiter", 1, 1, 2, PrecNone},
		{Yield, "yield", 1, 1, 1, PrecYield},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Lookup(tt.code)
			require.True(t, Valid(tt.code))
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.length, info.Length)
			require.Equal(t, tt.uses, info.Uses)
			require.Equal(t, tt.defs, info.Defs)
			require.Equal(t, tt.prec, info.Prec)
			require.Equal(t, tt.name, tt.code.String())
		})
	}
}

func TestBinaryOperatorsAreLeftAssociative(t *testing.T) {
	for c := BitOr; c <= Mod; c++ {
		info := Lookup(c)
		require.True(t, info.Has(FlagLeftAssoc), c.String())
		require.NotEmpty(t, info.Token, c.String())
		require.Equal(t, 2, info.Uses, c.String())
	}
}

func TestInvalidOpcode(t *testing.T) {
	require.False(t, Valid(Code(255)))
	require.Equal(t, "invalid", Code(255).String())
	require.Equal(t, Info{}, Lookup(Code(255)))
}

func TestByName(t *testing.T) {
	c, ok := ByName("getlocal")
	require.True(t, ok)
	require.Equal(t, GetLocal, c)

	_, ok = ByName("bogus")
	require.False(t, ok)
}

func TestIncDec(t *testing.T) {
	require.True(t, Lookup(NameInc).IsIncDec())
	require.Equal(t, "++", Lookup(NameInc).IncDecToken())
	require.Equal(t, "--", Lookup(DecProp).IncDecToken())
	require.True(t, Lookup(ElemDec).Has(FlagPost))
	require.False(t, Lookup(DecElem).Has(FlagPost))
	require.False(t, Lookup(GetProp).IsIncDec())
}

func TestNamesUnique(t *testing.T) {
	seen := map[string]Code{}
	for i := 0; i < 256; i++ {
		c := Code(i)
		if !Valid(c) {
			continue
		}
		prev, dup := seen[c.String()]
		require.False(t, dup, "%s used by %d and %d", c, prev, c)
		seen[c.String()] = c
	}
}
