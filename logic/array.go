package logic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLevel is wrapped by pack/unpack errors when a code point falls
// outside the alphabet.
var ErrInvalidLevel = errors.New("invalid logic level")

// BytesFor returns the packed byte length of width levels of the given kind,
// including the zero-padded final byte.
func BytesFor(kind Kind, width int) int {
	per := kind.PerByte()
	return (width + per - 1) / per
}

// Array is a fixed-width sequence of logic levels packed at the kind's
// sub-byte width. Index 0 is the least significant level.
type Array struct {
	kind  Kind
	width int
	data  []byte
}

// NewArray creates an array of the given width filled with the kind's
// default level.
func NewArray(kind Kind, width int) Array {
	a := Array{kind: kind, width: width, data: make([]byte, BytesFor(kind, width))}
	if fill := kind.DefaultLevel(); fill != 0 {
		for i := 0; i < width; i++ {
			a.Set(i, fill)
		}
	}
	return a
}

// FromLevels packs a level sequence into an Array, validating every code.
func FromLevels(kind Kind, levels []Level) (Array, error) {
	a := Array{kind: kind, width: len(levels), data: make([]byte, BytesFor(kind, len(levels)))}
	for i, l := range levels {
		if !kind.ValidLevel(l) {
			return Array{}, fmt.Errorf("%w: code %d at index %d for %s", ErrInvalidLevel, l, i, kind)
		}
		a.Set(i, l)
	}
	return a, nil
}

// Unpack decodes count levels from packed bytes. data must hold at least
// BytesFor(kind, count) bytes; extra bytes are ignored. Every decoded code is
// validated against the alphabet.
func Unpack(kind Kind, data []byte, count int) (Array, error) {
	need := BytesFor(kind, count)
	if len(data) < need {
		return Array{}, fmt.Errorf("packed data too short: have %d bytes, need %d", len(data), need)
	}
	a := Array{kind: kind, width: count, data: append([]byte(nil), data[:need]...)}
	for i := 0; i < count; i++ {
		if l := a.Get(i); !kind.ValidLevel(l) {
			return Array{}, fmt.Errorf("%w: code %d at index %d for %s", ErrInvalidLevel, l, i, kind)
		}
	}
	return a, nil
}

// Kind returns the alphabet the levels are drawn from.
func (a Array) Kind() Kind { return a.kind }

// Width returns the number of levels.
func (a Array) Width() int { return a.width }

// Bytes returns the packed representation, final byte zero-padded.
func (a Array) Bytes() []byte { return a.data }

// Get returns the level at offset i. Panics if i is out of range.
func (a Array) Get(i int) Level {
	if i < 0 || i >= a.width {
		panic(fmt.Sprintf("logic: get offset %d out of range (width %d)", i, a.width))
	}
	bits := a.kind.Bits()
	per := a.kind.PerByte()
	shift := uint(i%per) * bits
	mask := byte(1<<bits - 1)
	return Level(a.data[i/per] >> shift & mask)
}

// Set stores the level at offset i. Panics if i is out of range.
func (a *Array) Set(i int, l Level) {
	if i < 0 || i >= a.width {
		panic(fmt.Sprintf("logic: set offset %d out of range (width %d)", i, a.width))
	}
	bits := a.kind.Bits()
	per := a.kind.PerByte()
	shift := uint(i%per) * bits
	mask := byte(1<<bits-1) << shift
	a.data[i/per] = a.data[i/per]&^mask | byte(l)<<shift
}

// Levels returns the unpacked level sequence, index 0 first.
func (a Array) Levels() []Level {
	out := make([]Level, a.width)
	for i := range out {
		out[i] = a.Get(i)
	}
	return out
}

// Equal reports whether two arrays have the same kind, width, and levels.
func (a Array) Equal(b Array) bool {
	if a.kind != b.kind || a.width != b.width {
		return false
	}
	for i := 0; i < a.width; i++ {
		if a.Get(i) != b.Get(i) {
			return false
		}
	}
	return true
}

// String renders the array as a prefixed numeral, most significant level
// first, e.g. "0b1010" or "0nXW10".
func (a Array) String() string {
	var b strings.Builder
	b.WriteString(a.kind.FormatPrefix())
	for i := a.width - 1; i >= 0; i-- {
		b.WriteByte(a.kind.Symbol(a.Get(i)))
	}
	return b.String()
}
