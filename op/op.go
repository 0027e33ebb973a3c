// Package op defines the instruction set of the stack virtual machine whose
// bytecode is decompiled by this module, along with the static per-opcode
// metadata the decompiler relies on.
package op

// Code is a one-byte opcode that indicates an operation to execute.
type Code uint8

const (
	// Control
	Nop      Code = 0
	Stop     Code = 1
	Goto     Code = 2
	IfEq     Code = 3
	IfNe     Code = 4
	Or       Code = 5
	And      Code = 6
	Gosub    Code = 7
	Retsub   Code = 8
	Return   Code = 9
	SetRval  Code = 10
	RetRval  Code = 11
	Throw    Code = 12
	Debugger Code = 13

	// Exception handling
	Try        Code = 14
	Finally    Code = 15
	Exception  Code = 16
	EnterCatch Code = 17
	LeaveCatch Code = 18

	// Stack
	Push Code = 20
	Pop  Code = 21
	PopV Code = 22
	PopN Code = 23
	Dup  Code = 24
	Dup2 Code = 25
	Swap Code = 26

	// Names
	Name     Code = 30
	BindName Code = 31
	SetName  Code = 32
	DelName  Code = 33
	IncName  Code = 34
	DecName  Code = 35
	NameInc  Code = 36
	NameDec  Code = 37
	CallName Code = 38
	ForName  Code = 39
	DefVar   Code = 40
	DefConst Code = 41
	SetConst Code = 42

	// Global variables
	GetGVar  Code = 45
	SetGVar  Code = 46
	CallGVar Code = 47
	IncGVar  Code = 48
	DecGVar  Code = 49
	GVarInc  Code = 50
	GVarDec  Code = 51

	// Arguments
	GetArg  Code = 55
	SetArg  Code = 56
	CallArg Code = 57
	IncArg  Code = 58
	DecArg  Code = 59
	ArgInc  Code = 60
	ArgDec  Code = 61
	ForArg  Code = 62

	// Locals
	GetLocal    Code = 65
	SetLocal    Code = 66
	SetLocalPop Code = 67
	CallLocal   Code = 68
	IncLocal    Code = 69
	DecLocal    Code = 70
	LocalInc    Code = 71
	LocalDec    Code = 72
	ForLocal    Code = 73

	// Properties
	GetProp  Code = 75
	SetProp  Code = 76
	DelProp  Code = 77
	IncProp  Code = 78
	DecProp  Code = 79
	PropInc  Code = 80
	PropDec  Code = 81
	CallProp Code = 82
	Length   Code = 83
	ForProp  Code = 84

	// Elements
	GetElem  Code = 85
	SetElem  Code = 86
	DelElem  Code = 87
	IncElem  Code = 88
	DecElem  Code = 89
	ElemInc  Code = 90
	ElemDec  Code = 91
	CallElem Code = 92
	ForElem  Code = 93
	EnumElem Code = 94

	// Invocation
	Call Code = 95
	New  Code = 96
	Eval Code = 97

	// Literals
	Zero      Code = 100
	One       Code = 101
	Int8      Code = 102
	Uint16    Code = 103
	Int32     Code = 104
	Double    Code = 105
	String    Code = 106
	Null      Code = 107
	True      Code = 108
	False     Code = 109
	This      Code = 110
	RegExp    Code = 111
	Hole      Code = 112
	Lambda    Code = 113
	DefFun    Code = 114
	Callee    Code = 115
	Arguments Code = 116

	// Initialisers
	NewInit  Code = 120
	EndInit  Code = 121
	InitProp Code = 122
	InitElem Code = 123
	NewArray Code = 124
	Getter   Code = 125
	Setter   Code = 126

	// Binary operators
	BitOr      Code = 130
	BitXor     Code = 131
	BitAnd     Code = 132
	Eq         Code = 133
	Ne         Code = 134
	StrictEq   Code = 135
	StrictNe   Code = 136
	Lt         Code = 137
	Le         Code = 138
	Gt         Code = 139
	Ge         Code = 140
	In         Code = 141
	InstanceOf Code = 142
	Lsh        Code = 143
	Rsh        Code = 144
	Ursh       Code = 145
	Add        Code = 146
	Sub        Code = 147
	Mul        Code = 148
	Div        Code = 149
	Mod        Code = 150

	// Unary operators
	Not    Code = 155
	BitNot Code = 156
	Neg    Code = 157
	Pos    Code = 158
	TypeOf Code = 159
	Void   Code = 160

	// Switch dispatch
	TableSwitch  Code = 165
	LookupSwitch Code = 166
	CondSwitch   Code = 167
	Case         Code = 168
	Default      Code = 169

	// Iteration
	Iter     Code = 170
	MoreIter Code = 171
	EndIter  Code = 172

	// Generators
	Generator Code = 175
	Yield     Code = 176

	// With blocks
	EnterWith Code = 180
	LeaveWith Code = 181

	// Legacy forms
	ArrayPush Code = 185
	DefSharp  Code = 186
	UseSharp  Code = 187
)

// Operand describes the encoding of an instruction's immediate operand.
type Operand uint8

const (
	OperandNone         Operand = iota
	OperandJump                 // signed 16-bit offset relative to the instruction
	OperandAtom                 // unsigned 16-bit atom index
	OperandUint16               // unsigned 16-bit literal
	OperandTableSwitch          // default, low, high, then high-low+1 jumps
	OperandLookupSwitch         // default, npairs, then (const index, jump) pairs
	OperandArg                  // unsigned 16-bit argument slot
	OperandLocal                // unsigned 16-bit local slot
	OperandInt8                 // signed 8-bit literal
	OperandInt32                // signed 32-bit literal
	OperandConst                // unsigned 16-bit constant index
	OperandFunction             // unsigned 16-bit function index
	OperandRegExp               // unsigned 16-bit regexp index
	OperandArgc                 // unsigned 16-bit argument count
)

// Mode classifies what a name, property or element instruction addresses.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeName
	ModeProp
	ModeElem
)

// Flag is a set of instruction traits used by the decompiler.
type Flag uint32

const (
	FlagSet Flag = 1 << iota
	FlagDel
	FlagInc
	FlagDec
	FlagPost
	FlagFor
	FlagDetecting
	FlagLeftAssoc
	FlagDeclaring
	FlagCallOp
	FlagParenHead
	FlagInvoke
)

// Operator precedence levels, lowest first.
const (
	PrecNone = iota
	PrecYield
	PrecComma
	PrecAssign
	PrecCond
	PrecOr
	PrecAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecRelational
	PrecShift
	PrecAdditive
	PrecMultiplicative
	PrecUnary
	PrecPostfix
	PrecNew
	PrecMember
	PrecPrimary
)

// Variable marks a length or stack count that must be decoded from the
// instruction's operands.
const Variable = -1

// Info contains the static metadata of an opcode.
type Info struct {
	Code    Code
	Name    string
	Token   string
	Length  int
	Uses    int
	Defs    int
	Prec    int
	Operand Operand
	Mode    Mode
	Flags   Flag
}

// Has reports whether all of the given flags are set.
func (i Info) Has(f Flag) bool {
	return i.Flags&f == f
}

// IsIncDec reports whether the opcode increments or decrements its target.
func (i Info) IsIncDec() bool {
	return i.Flags&(FlagInc|FlagDec) != 0
}

// IncDecToken returns "++" or "--" for increment and decrement opcodes.
func (i Info) IncDecToken() string {
	if i.Flags&FlagInc != 0 {
		return "++"
	}
	return "--"
}

var (
	infos   [256]Info
	defined [256]bool
)

func init() {
	type opInfo struct {
		op      Code
		name    string
		token   string
		length  int
		uses    int
		defs    int
		prec    int
		operand Operand
		mode    Mode
		flags   Flag
	}
	const v = Variable
	ops := []opInfo{
		{Nop, "nop", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{Stop, "stop", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{Goto, "goto", "", 3, 0, 0, PrecNone, OperandJump, ModeNone, 0},
		{IfEq, "ifeq", "", 3, 1, 0, PrecCond, OperandJump, ModeNone, FlagDetecting},
		{IfNe, "ifne", "", 3, 1, 0, PrecNone, OperandJump, ModeNone, FlagParenHead},
		{Or, "or", "", 3, 1, 0, PrecOr, OperandJump, ModeNone, FlagDetecting | FlagLeftAssoc},
		{And, "and", "", 3, 1, 0, PrecAnd, OperandJump, ModeNone, FlagDetecting | FlagLeftAssoc},
		{Gosub, "gosub", "", 3, 0, 0, PrecNone, OperandJump, ModeNone, 0},
		{Retsub, "retsub", "", 1, 2, 0, PrecNone, OperandNone, ModeNone, 0},
		{Return, "return", "", 1, 1, 0, PrecComma, OperandNone, ModeNone, 0},
		{SetRval, "setrval", "", 1, 1, 0, PrecComma, OperandNone, ModeNone, 0},
		{RetRval, "retrval", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{Throw, "throw", "", 1, 1, 0, PrecNone, OperandNone, ModeNone, 0},
		{Debugger, "debugger", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},

		{Try, "try", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{Finally, "finally", "", 1, 0, 2, PrecNone, OperandNone, ModeNone, 0},
		{Exception, "exception", "", 1, 0, 1, PrecNone, OperandNone, ModeNone, 0},
		{EnterCatch, "entercatch", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{LeaveCatch, "leavecatch", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},

		{Push, "push", "", 1, 0, 1, PrecNone, OperandNone, ModeNone, 0},
		{Pop, "pop", "", 1, 1, 0, PrecComma, OperandNone, ModeNone, 0},
		{PopV, "popv", "", 1, 1, 0, PrecComma, OperandNone, ModeNone, 0},
		{PopN, "popn", "", 3, v, 0, PrecNone, OperandUint16, ModeNone, 0},
		{Dup, "dup", "", 1, 1, 2, PrecNone, OperandNone, ModeNone, 0},
		{Dup2, "dup2", "", 1, 2, 4, PrecNone, OperandNone, ModeNone, 0},
		{Swap, "swap", "", 1, 2, 2, PrecNone, OperandNone, ModeNone, 0},

		{Name, "name", "", 3, 0, 1, PrecPrimary, OperandAtom, ModeName, 0},
		{BindName, "bindname", "", 3, 0, 1, PrecNone, OperandAtom, ModeName, FlagSet},
		{SetName, "setname", "", 3, 2, 1, PrecAssign, OperandAtom, ModeName, FlagSet | FlagDetecting},
		{DelName, "delname", "", 3, 0, 1, PrecUnary, OperandAtom, ModeName, FlagDel},
		{IncName, "incname", "", 3, 0, 1, PrecUnary, OperandAtom, ModeName, FlagInc},
		{DecName, "decname", "", 3, 0, 1, PrecUnary, OperandAtom, ModeName, FlagDec},
		{NameInc, "nameinc", "", 3, 0, 1, PrecPostfix, OperandAtom, ModeName, FlagInc | FlagPost},
		{NameDec, "namedec", "", 3, 0, 1, PrecPostfix, OperandAtom, ModeName, FlagDec | FlagPost},
		{CallName, "callname", "", 3, 0, 2, PrecPrimary, OperandAtom, ModeName, FlagCallOp},
		{ForName, "forname", "", 3, 0, 0, PrecPrimary, OperandAtom, ModeName, FlagFor},
		{DefVar, "defvar", "", 3, 0, 0, PrecNone, OperandAtom, ModeNone, FlagDeclaring},
		{DefConst, "defconst", "", 3, 0, 0, PrecNone, OperandAtom, ModeNone, FlagDeclaring},
		{SetConst, "setconst", "", 3, 1, 1, PrecAssign, OperandAtom, ModeName, FlagSet},

		{GetGVar, "getgvar", "", 3, 0, 1, PrecPrimary, OperandAtom, ModeName, 0},
		{SetGVar, "setgvar", "", 3, 1, 1, PrecAssign, OperandAtom, ModeName, FlagSet | FlagDetecting},
		{CallGVar, "callgvar", "", 3, 0, 2, PrecPrimary, OperandAtom, ModeName, FlagCallOp},
		{IncGVar, "incgvar", "", 3, 0, 1, PrecUnary, OperandAtom, ModeName, FlagInc},
		{DecGVar, "decgvar", "", 3, 0, 1, PrecUnary, OperandAtom, ModeName, FlagDec},
		{GVarInc, "gvarinc", "", 3, 0, 1, PrecPostfix, OperandAtom, ModeName, FlagInc | FlagPost},
		{GVarDec, "gvardec", "", 3, 0, 1, PrecPostfix, OperandAtom, ModeName, FlagDec | FlagPost},

		{GetArg, "getarg", "", 3, 0, 1, PrecPrimary, OperandArg, ModeName, 0},
		{SetArg, "setarg", "", 3, 1, 1, PrecAssign, OperandArg, ModeName, FlagSet | FlagDetecting},
		{CallArg, "callarg", "", 3, 0, 2, PrecPrimary, OperandArg, ModeName, FlagCallOp},
		{IncArg, "incarg", "", 3, 0, 1, PrecUnary, OperandArg, ModeName, FlagInc},
		{DecArg, "decarg", "", 3, 0, 1, PrecUnary, OperandArg, ModeName, FlagDec},
		{ArgInc, "arginc", "", 3, 0, 1, PrecPostfix, OperandArg, ModeName, FlagInc | FlagPost},
		{ArgDec, "argdec", "", 3, 0, 1, PrecPostfix, OperandArg, ModeName, FlagDec | FlagPost},
		{ForArg, "forarg", "", 3, 0, 0, PrecPrimary, OperandArg, ModeName, FlagFor},

		{GetLocal, "getlocal", "", 3, 0, 1, PrecPrimary, OperandLocal, ModeName, 0},
		{SetLocal, "setlocal", "", 3, 1, 1, PrecAssign, OperandLocal, ModeName, FlagSet | FlagDetecting},
		{SetLocalPop, "setlocalpop", "", 3, 1, 0, PrecAssign, OperandLocal, ModeName, FlagSet},
		{CallLocal, "calllocal", "", 3, 0, 2, PrecPrimary, OperandLocal, ModeName, FlagCallOp},
		{IncLocal, "inclocal", "", 3, 0, 1, PrecUnary, OperandLocal, ModeName, FlagInc},
		{DecLocal, "declocal", "", 3, 0, 1, PrecUnary, OperandLocal, ModeName, FlagDec},
		{LocalInc, "localinc", "", 3, 0, 1, PrecPostfix, OperandLocal, ModeName, FlagInc | FlagPost},
		{LocalDec, "localdec", "", 3, 0, 1, PrecPostfix, OperandLocal, ModeName, FlagDec | FlagPost},
		{ForLocal, "forlocal", "", 3, 0, 0, PrecPrimary, OperandLocal, ModeName, FlagFor},

		{GetProp, "getprop", "", 3, 1, 1, PrecMember, OperandAtom, ModeProp, 0},
		{SetProp, "setprop", "", 3, 2, 1, PrecAssign, OperandAtom, ModeProp, FlagSet | FlagDetecting},
		{DelProp, "delprop", "", 3, 1, 1, PrecUnary, OperandAtom, ModeProp, FlagDel},
		{IncProp, "incprop", "", 3, 1, 1, PrecUnary, OperandAtom, ModeProp, FlagInc},
		{DecProp, "decprop", "", 3, 1, 1, PrecUnary, OperandAtom, ModeProp, FlagDec},
		{PropInc, "propinc", "", 3, 1, 1, PrecPostfix, OperandAtom, ModeProp, FlagInc | FlagPost},
		{PropDec, "propdec", "", 3, 1, 1, PrecPostfix, OperandAtom, ModeProp, FlagDec | FlagPost},
		{CallProp, "callprop", "", 3, 1, 2, PrecMember, OperandAtom, ModeProp, FlagCallOp},
		{Length, "length", "", 1, 1, 1, PrecMember, OperandNone, ModeProp, 0},
		{ForProp, "forprop", "", 3, 1, 0, PrecMember, OperandAtom, ModeProp, FlagFor},

		{GetElem, "getelem", "", 1, 2, 1, PrecMember, OperandNone, ModeElem, FlagLeftAssoc},
		{SetElem, "setelem", "", 1, 3, 1, PrecAssign, OperandNone, ModeElem, FlagSet | FlagDetecting},
		{DelElem, "delelem", "", 1, 2, 1, PrecUnary, OperandNone, ModeElem, FlagDel},
		{IncElem, "incelem", "", 1, 2, 1, PrecUnary, OperandNone, ModeElem, FlagInc},
		{DecElem, "decelem", "", 1, 2, 1, PrecUnary, OperandNone, ModeElem, FlagDec},
		{ElemInc, "eleminc", "", 1, 2, 1, PrecPostfix, OperandNone, ModeElem, FlagInc | FlagPost},
		{ElemDec, "elemdec", "", 1, 2, 1, PrecPostfix, OperandNone, ModeElem, FlagDec | FlagPost},
		{CallElem, "callelem", "", 1, 2, 2, PrecMember, OperandNone, ModeElem, FlagLeftAssoc | FlagCallOp},
		{ForElem, "forelem", "", 1, 0, 1, PrecMember, OperandNone, ModeElem, FlagFor},
		{EnumElem, "enumelem", "", 1, 3, 0, PrecAssign, OperandNone, ModeNone, FlagSet},

		{Call, "call", "", 3, v, 1, PrecMember, OperandArgc, ModeNone, FlagInvoke},
		{New, "new", "", 3, v, 1, PrecNew, OperandArgc, ModeNone, FlagInvoke},
		{Eval, "eval", "", 3, v, 1, PrecMember, OperandArgc, ModeNone, FlagInvoke},

		{Zero, "zero", "0", 1, 0, 1, PrecPostfix, OperandNone, ModeNone, 0},
		{One, "one", "1", 1, 0, 1, PrecPostfix, OperandNone, ModeNone, 0},
		{Int8, "int8", "", 2, 0, 1, PrecPostfix, OperandInt8, ModeNone, 0},
		{Uint16, "uint16", "", 3, 0, 1, PrecPostfix, OperandUint16, ModeNone, 0},
		{Int32, "int32", "", 5, 0, 1, PrecPostfix, OperandInt32, ModeNone, 0},
		{Double, "double", "", 3, 0, 1, PrecPostfix, OperandConst, ModeNone, 0},
		{String, "string", "", 3, 0, 1, PrecPrimary, OperandAtom, ModeNone, 0},
		{Null, "null", "null", 1, 0, 1, PrecPrimary, OperandNone, ModeNone, 0},
		{True, "true", "true", 1, 0, 1, PrecPrimary, OperandNone, ModeNone, 0},
		{False, "false", "false", 1, 0, 1, PrecPrimary, OperandNone, ModeNone, 0},
		{This, "this", "this", 1, 0, 1, PrecPrimary, OperandNone, ModeNone, 0},
		{RegExp, "regexp", "", 3, 0, 1, PrecPrimary, OperandRegExp, ModeNone, 0},
		{Hole, "hole", "", 1, 0, 1, PrecNone, OperandNone, ModeNone, 0},
		{Lambda, "lambda", "", 3, 0, 1, PrecPrimary, OperandFunction, ModeNone, 0},
		{DefFun, "deffun", "", 3, 0, 0, PrecNone, OperandFunction, ModeNone, FlagDeclaring},
		{Callee, "callee", "", 1, 0, 1, PrecPrimary, OperandNone, ModeNone, 0},
		{Arguments, "arguments", "arguments", 1, 0, 1, PrecMember, OperandNone, ModeNone, 0},

		{NewInit, "newinit", "", 2, 0, 1, PrecPrimary, OperandInt8, ModeNone, 0},
		{EndInit, "endinit", "", 1, 0, 0, PrecPrimary, OperandNone, ModeNone, 0},
		{InitProp, "initprop", "", 3, 1, 0, PrecAssign, OperandAtom, ModeProp, FlagSet | FlagDetecting},
		{InitElem, "initelem", "", 1, 2, 0, PrecAssign, OperandNone, ModeElem, FlagSet | FlagDetecting},
		{NewArray, "newarray", "", 3, v, 1, PrecPrimary, OperandUint16, ModeNone, 0},
		{Getter, "getter", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{Setter, "setter", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},

		{BitOr, "bitor", "|", 1, 2, 1, PrecBitOr, OperandNone, ModeNone, FlagLeftAssoc},
		{BitXor, "bitxor", "^", 1, 2, 1, PrecBitXor, OperandNone, ModeNone, FlagLeftAssoc},
		{BitAnd, "bitand", "&", 1, 2, 1, PrecBitAnd, OperandNone, ModeNone, FlagLeftAssoc},
		{Eq, "eq", "==", 1, 2, 1, PrecEquality, OperandNone, ModeNone, FlagLeftAssoc | FlagDetecting},
		{Ne, "ne", "!=", 1, 2, 1, PrecEquality, OperandNone, ModeNone, FlagLeftAssoc | FlagDetecting},
		{StrictEq, "stricteq", "===", 1, 2, 1, PrecEquality, OperandNone, ModeNone, FlagLeftAssoc | FlagDetecting},
		{StrictNe, "strictne", "!==", 1, 2, 1, PrecEquality, OperandNone, ModeNone, FlagLeftAssoc | FlagDetecting},
		{Lt, "lt", "<", 1, 2, 1, PrecRelational, OperandNone, ModeNone, FlagLeftAssoc},
		{Le, "le", "<=", 1, 2, 1, PrecRelational, OperandNone, ModeNone, FlagLeftAssoc},
		{Gt, "gt", ">", 1, 2, 1, PrecRelational, OperandNone, ModeNone, FlagLeftAssoc},
		{Ge, "ge", ">=", 1, 2, 1, PrecRelational, OperandNone, ModeNone, FlagLeftAssoc},
		{In, "in", "in", 1, 2, 1, PrecRelational, OperandNone, ModeNone, FlagLeftAssoc},
		{InstanceOf, "instanceof", "instanceof", 1, 2, 1, PrecRelational, OperandNone, ModeNone, FlagLeftAssoc},
		{Lsh, "lsh", "<<", 1, 2, 1, PrecShift, OperandNone, ModeNone, FlagLeftAssoc},
		{Rsh, "rsh", ">>", 1, 2, 1, PrecShift, OperandNone, ModeNone, FlagLeftAssoc},
		{Ursh, "ursh", ">>>", 1, 2, 1, PrecShift, OperandNone, ModeNone, FlagLeftAssoc},
		{Add, "add", "+", 1, 2, 1, PrecAdditive, OperandNone, ModeNone, FlagLeftAssoc},
		{Sub, "sub", "-", 1, 2, 1, PrecAdditive, OperandNone, ModeNone, FlagLeftAssoc},
		{Mul, "mul", "*", 1, 2, 1, PrecMultiplicative, OperandNone, ModeNone, FlagLeftAssoc},
		{Div, "div", "/", 1, 2, 1, PrecMultiplicative, OperandNone, ModeNone, FlagLeftAssoc},
		{Mod, "mod", "%", 1, 2, 1, PrecMultiplicative, OperandNone, ModeNone, FlagLeftAssoc},

		{Not, "not", "!", 1, 1, 1, PrecUnary, OperandNone, ModeNone, FlagDetecting},
		{BitNot, "bitnot", "~", 1, 1, 1, PrecUnary, OperandNone, ModeNone, 0},
		{Neg, "neg", "- ", 1, 1, 1, PrecUnary, OperandNone, ModeNone, 0},
		{Pos, "pos", "+ ", 1, 1, 1, PrecUnary, OperandNone, ModeNone, 0},
		{TypeOf, "typeof", "", 1, 1, 1, PrecUnary, OperandNone, ModeNone, FlagDetecting},
		{Void, "void", "", 1, 1, 1, PrecUnary, OperandNone, ModeNone, 0},

		{TableSwitch, "tableswitch", "", v, 1, 0, PrecNone, OperandTableSwitch, ModeNone, FlagDetecting | FlagParenHead},
		{LookupSwitch, "lookupswitch", "", v, 1, 0, PrecNone, OperandLookupSwitch, ModeNone, FlagDetecting | FlagParenHead},
		{CondSwitch, "condswitch", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, FlagParenHead},
		{Case, "case", "", 3, 2, 1, PrecNone, OperandJump, ModeNone, 0},
		{Default, "default", "", 3, 1, 0, PrecNone, OperandJump, ModeNone, 0},

		{Iter, "iter", "", 2, 1, 1, PrecNone, OperandInt8, ModeNone, 0},
		{MoreIter, "moreiter", "", 1, 1, 2, PrecNone, OperandNone, ModeNone, 0},
		{EndIter, "enditer", "", 1, 1, 0, PrecNone, OperandNone, ModeNone, 0},

		{Generator, "generator", "", 1, 0, 0, PrecNone, OperandNone, ModeNone, 0},
		{Yield, "yield", "", 1, 1, 1, PrecYield, OperandNone, ModeNone, 0},

		{EnterWith, "enterwith", "", 1, 1, 1, PrecNone, OperandNone, ModeNone, FlagParenHead},
		{LeaveWith, "leavewith", "", 1, 1, 0, PrecNone, OperandNone, ModeNone, 0},

		{ArrayPush, "arraypush", "", 3, 1, 0, PrecAssign, OperandLocal, ModeNone, 0},
		{DefSharp, "defsharp", "", 3, 0, 0, PrecNone, OperandUint16, ModeNone, 0},
		{UseSharp, "usesharp", "", 3, 0, 1, PrecNone, OperandUint16, ModeNone, 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:    o.op,
			Name:    o.name,
			Token:   o.token,
			Length:  o.length,
			Uses:    o.uses,
			Defs:    o.defs,
			Prec:    o.prec,
			Operand: o.operand,
			Mode:    o.mode,
			Flags:   o.flags,
		}
		defined[o.op] = true
	}
}

// Lookup returns the metadata of the given opcode. Undefined opcodes yield
// a zero Info; use Valid to tell them apart.
func Lookup(c Code) Info {
	return infos[c]
}

// Valid reports whether c is a defined opcode.
func Valid(c Code) bool {
	return defined[c]
}

// ByName returns the opcode with the given mnemonic.
func ByName(name string) (Code, bool) {
	for i := range infos {
		if defined[i] && infos[i].Name == name {
			return Code(i), true
		}
	}
	return 0, false
}

// String returns the mnemonic of the opcode.
func (c Code) String() string {
	if !defined[c] {
		return "invalid"
	}
	return infos[c].Name
}
