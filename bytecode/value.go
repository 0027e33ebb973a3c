package bytecode

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the type of a constant Value.
type Kind uint8

const (
	Undefined Kind = iota
	NullKind
	Boolean
	Number
	StringKind
)

var kindNames = map[Kind]string{
	Undefined:  "undefined",
	NullKind:   "null",
	Boolean:    "boolean",
	Number:     "number",
	StringKind: "string",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an entry of a script's constant table, or a runtime value that a
// caller asks the decompiler to locate on the operand stack.
type Value struct {
	Kind Kind    `cbor:"1,keyasint"`
	Num  float64 `cbor:"2,keyasint,omitempty"`
	Str  string  `cbor:"3,keyasint,omitempty"`
	Bool bool    `cbor:"4,keyasint,omitempty"`
}

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value {
	return Value{Kind: Number, Num: f}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{Kind: StringKind, Str: s}
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{Kind: Boolean, Bool: b}
}

// NullValue returns the null Value.
func NullValue() Value {
	return Value{Kind: NullKind}
}

// Equal reports whether two values are identical. Numbers compare by bit
// pattern so that NaN matches itself and -0 differs from +0.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Number:
		return math.Float64bits(v.Num) == math.Float64bits(other.Num)
	case StringKind:
		return v.Str == other.Str
	case Boolean:
		return v.Bool == other.Bool
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case StringKind:
		return strconv.Quote(v.Str)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Kind.String()
	}
}

type valueDef struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// MarshalJSON encodes the value with an explicit type tag. Non-finite
// numbers are written as strings since JSON cannot represent them.
func (v Value) MarshalJSON() ([]byte, error) {
	def := valueDef{Type: v.Kind.String()}
	switch v.Kind {
	case Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) || (v.Num == 0 && math.Signbit(v.Num)) {
			def.Value = strconv.FormatFloat(v.Num, 'g', -1, 64)
		} else {
			def.Value = v.Num
		}
	case StringKind:
		def.Value = v.Str
	case Boolean:
		def.Value = v.Bool
	}
	return json.Marshal(def)
}

// UnmarshalJSON decodes a value written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "undefined":
		*v = Value{}
	case "null":
		*v = NullValue()
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("boolean constant: %w", err)
		}
		*v = BoolValue(b)
	case "string":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("string constant: %w", err)
		}
		*v = StringValue(s)
	case "number":
		f, err := parseNumber(raw.Value)
		if err != nil {
			return err
		}
		*v = NumberValue(f)
	default:
		return fmt.Errorf("unknown constant type: %q", raw.Type)
	}
	return nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("number constant: %w", err)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("number constant: %w", err)
	}
	return f, nil
}
