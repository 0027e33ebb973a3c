package decompiler

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/neonux/mozilla-all-sub004/op"
	"github.com/neonux/mozilla-all-sub004/sprinter"
	"github.com/neonux/mozilla-all-sub004/srcnote"
)

// Text pushed for values the interpreter keeps on the stack while a
// statement runs. Cookies never reach the output.
const (
	exceptionCookie = "/*EXCEPTION*/"
	retsubCookie    = "/*RETSUB_PC*/"
	forElemCookie   = "/*FORELEM*/"
	withCookie      = "/*WITH*/"
)

var declKeywords = [...]string{
	srcnote.DeclVar:   "var ",
	srcnote.DeclConst: "const ",
	srcnote.DeclLet:   "let ",
}

// varPrefix returns the declaration keyword a note introduces, if any.
func varPrefix(note *srcnote.Note) string {
	if note.Is(srcnote.Decl) || note.Is(srcnote.GroupAssign) {
		if kind := note.Arg(0); kind >= 0 && kind < len(declKeywords) {
			return declKeywords[kind]
		}
	}
	return ""
}

// isIdentifier reports whether s can be written as a bare name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '$' || c == '_' || unicode.IsLetter(c) {
			continue
		}
		if i > 0 && unicode.IsDigit(c) {
			continue
		}
		return false
	}
	return true
}

// propertyKey returns the text of a property name used as an object
// literal or pattern key: bare when it is an identifier, quoted otherwise.
func propertyKey(name string) string {
	if isIdentifier(name) {
		return sprinter.Quote(name, 0)
	}
	return sprinter.Quote(name, '\'')
}

// member renders access of property name on the object text obj.
func member(obj, name string) string {
	if !isIdentifier(name) {
		return obj + "[" + sprinter.Quote(name, '\'') + "]"
	}
	if obj == "" {
		return name
	}
	return obj + "." + name
}

// elemTarget renders obj[key]. A string literal key that is an identifier
// is written with a dot, as member does for property names.
func elemTarget(obj, key string, keyOp op.Code) string {
	if keyOp == op.String && len(key) >= 2 && key[0] == '"' && key[len(key)-1] == '"' {
		if name := key[1 : len(key)-1]; isIdentifier(name) {
			return member(obj, name)
		}
	}
	return obj + "[" + key + "]"
}

// numberText renders a number literal. Values that have no literal form
// are written as the division that produces them, in which case the
// division opcode is returned so the text is parenthesized like one.
func numberText(d float64, code op.Code) (string, op.Code) {
	switch {
	case d == 0 && math.Signbit(d):
		return "-0", op.Neg
	case math.IsNaN(d):
		return "0 / 0", op.Div
	case math.IsInf(d, 1):
		return "1 / 0", op.Div
	case math.IsInf(d, -1):
		return "1 / -0", op.Div
	}
	return formatNumber(d), code
}

// formatNumber returns the shortest text that reads back as d, switching to
// exponent notation outside [1e-6, 1e21).
func formatNumber(d float64) string {
	if d == 0 {
		return "0"
	}
	if abs := math.Abs(d); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(d, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}
