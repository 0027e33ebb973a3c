package asm

import (
	"errors"
	"strconv"
	"strings"
)

type rawNote struct {
	name string
	args []token
}

// scanLine splits one line into tokens and an optional trailing note.
func scanLine(line string) ([]token, *rawNote, error) {
	var (
		toks []token
		note *rawNote
	)
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ';':
			return toks, note, nil
		case c == ' ' || c == '\t' || c == ',' || c == '\r':
			i++
		case c == '"':
			s, n, err := scanQuoted(line[i:])
			if err != nil {
				return nil, nil, err
			}
			toks = append(toks, token{text: s, quoted: true})
			i += n
		case c == '@':
			if note != nil {
				return nil, nil, errors.New("more than one source note")
			}
			n, length, err := scanNote(line[i+1:])
			if err != nil {
				return nil, nil, err
			}
			note = n
			i += 1 + length
		default:
			j := i
			for j < len(line) && !strings.ContainsRune(" \t,;\"@\r", rune(line[j])) {
				j++
			}
			toks = append(toks, token{text: line[i:j]})
			i = j
		}
	}
	return toks, note, nil
}

// scanQuoted reads a double-quoted Go string literal at the start of s and
// returns its value and length.
func scanQuoted(s string) (string, int, error) {
	for j := 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			v, err := strconv.Unquote(s[:j+1])
			if err != nil {
				return "", 0, err
			}
			return v, j + 1, nil
		}
	}
	return "", 0, errors.New("unterminated string")
}

// scanNote reads name(args) following an '@'.
func scanNote(s string) (*rawNote, int, error) {
	j := 0
	for j < len(s) && s[j] != '(' && s[j] != ' ' && s[j] != '\t' && s[j] != ';' {
		j++
	}
	n := &rawNote{name: s[:j]}
	if n.name == "" {
		return nil, 0, errors.New("source note without a name")
	}
	if j == len(s) || s[j] != '(' {
		return n, j, nil
	}
	start := j + 1
	for k := start; k < len(s); k++ {
		switch s[k] {
		case '"':
			_, length, err := scanQuoted(s[k:])
			if err != nil {
				return nil, 0, err
			}
			k += length - 1
		case ')':
			args, _, err := scanLine(s[start:k])
			if err != nil {
				return nil, 0, err
			}
			n.args = args
			return n, k + 1, nil
		}
	}
	return nil, 0, errors.New("unterminated source note")
}
