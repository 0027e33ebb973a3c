// Package sprinter implements the growable text buffer that decompiled
// source is assembled in.
//
// Text is addressed by byte offset, never by pointer, so offsets stay valid
// when the buffer grows. Every string written is followed by a NUL byte;
// String reads from an offset up to the next NUL.
package sprinter

import (
	"bytes"
	"fmt"

	"github.com/neonux/mozilla-all-sub004/errz"
)

// DefaultMaxSize is the buffer limit used when none is given.
const DefaultMaxSize = 16 << 20

// Sprinter is an append-mostly text buffer. Writes past the configured size
// limit fail with an out of memory error, which is sticky: once set, all
// further writes are ignored and Err reports it.
type Sprinter struct {
	buf     []byte
	off     int
	maxSize int
	err     error
}

// New returns an empty Sprinter whose first write lands at offset start.
// The bytes before start are zero. A maxSize of zero or less selects
// DefaultMaxSize.
func New(start, maxSize int) *Sprinter {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	s := &Sprinter{maxSize: maxSize}
	s.Reserve(start)
	return s
}

// Err returns the first error encountered while writing.
func (s *Sprinter) Err() error {
	return s.err
}

// Offset returns the offset the next write will land at.
func (s *Sprinter) Offset() int {
	return s.off
}

// Retract moves the write offset back to off, discarding anything written
// after it. The text at off is terminated so String(off) reads empty.
func (s *Sprinter) Retract(off int) {
	if off < 0 || off > s.off {
		return
	}
	s.off = off
	if off < len(s.buf) {
		s.buf[off] = 0
	}
}

func (s *Sprinter) ensure(n int) bool {
	if s.err != nil {
		return false
	}
	need := s.off + n + 1
	if need > s.maxSize {
		s.err = errz.OutOfMemoryf("output exceeds %d bytes", s.maxSize)
		return false
	}
	if need > len(s.buf) {
		size := 2 * len(s.buf)
		if size < need {
			size = need
		}
		if size < 64 {
			size = 64
		}
		grown := make([]byte, size)
		copy(grown, s.buf)
		s.buf = grown
	}
	return true
}

// Reserve writes n zero bytes and returns the offset of the first.
func (s *Sprinter) Reserve(n int) int {
	off := s.off
	if !s.ensure(n) {
		return off
	}
	for i := 0; i < n; i++ {
		s.buf[s.off+i] = 0
	}
	s.off += n
	s.buf[s.off] = 0
	return off
}

// Put writes text at the current offset and returns that offset.
func (s *Sprinter) Put(text string) int {
	off := s.off
	if !s.ensure(len(text)) {
		return off
	}
	copy(s.buf[s.off:], text)
	s.off += len(text)
	s.buf[s.off] = 0
	return off
}

// Printf formats according to a format specifier, writes the result and
// returns the offset it was written at.
func (s *Sprinter) Printf(format string, args ...any) int {
	return s.Put(fmt.Sprintf(format, args...))
}

// String returns the text starting at off, up to the next NUL byte.
func (s *Sprinter) String(off int) string {
	if off < 0 || off >= len(s.buf) {
		return ""
	}
	end := bytes.IndexByte(s.buf[off:], 0)
	if end < 0 {
		return string(s.buf[off:])
	}
	return string(s.buf[off : off+end])
}

// ByteAt returns the byte at off, or zero when off is out of range.
func (s *Sprinter) ByteAt(off int) byte {
	if off < 0 || off >= len(s.buf) {
		return 0
	}
	return s.buf[off]
}

// SetByteAt overwrites the byte at off. It is used to patch a single
// character of text already written, such as turning a pattern's "[" into
// "{" once its kind is known.
func (s *Sprinter) SetByteAt(off int, b byte) {
	if off >= 0 && off < len(s.buf) {
		s.buf[off] = b
	}
}

// Text returns everything written from offset start to the current offset,
// with any embedded NUL separators removed.
func (s *Sprinter) Text(start int) string {
	if start < 0 || start >= s.off {
		return ""
	}
	return string(bytes.ReplaceAll(s.buf[start:s.off], []byte{0}, nil))
}
