package sprinter

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// DontEscape may be or'ed into a quote character to write characters from
// the escape table raw. Other unprintable characters are still escaped.
const DontEscape = 0x100

var escapes = map[rune]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	'\v': 'v',
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
	0:    '0',
}

func isPrint(c rune) bool {
	return c >= 0x20 && c < 0x7f
}

// Quote returns s surrounded by the quote character, escaping the quote
// character, backslashes and unprintable characters. A quote of zero writes
// no surrounding quotes. Characters outside the Basic Multilingual Plane are
// escaped as UTF-16 surrogate pairs.
func Quote(s string, quote int) string {
	dontEscape := quote&DontEscape != 0
	qc := rune(quote &^ DontEscape)

	var b strings.Builder
	if qc != 0 {
		b.WriteRune(qc)
	}
	for _, c := range s {
		if isPrint(c) && c != qc && c != '\\' {
			b.WriteRune(c)
			continue
		}
		if e, ok := escapes[c]; ok {
			if dontEscape {
				b.WriteRune(c)
			} else {
				b.WriteByte('\\')
				b.WriteByte(e)
			}
			continue
		}
		switch {
		case c < 0x100:
			fmt.Fprintf(&b, "\\x%02X", c)
		case c < 0x10000:
			fmt.Fprintf(&b, "\\u%04X", c)
		default:
			r1, r2 := utf16.EncodeRune(c)
			fmt.Fprintf(&b, "\\u%04X\\u%04X", r1, r2)
		}
	}
	if qc != 0 {
		b.WriteRune(qc)
	}
	return b.String()
}

// PutQuoted writes Quote(text, quote) and returns the offset it was
// written at.
func (s *Sprinter) PutQuoted(text string, quote int) int {
	return s.Put(Quote(text, quote))
}
