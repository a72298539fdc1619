// Package logic implements the multi-valued signal alphabets used by SVCB
// traces and their packed sub-byte encodings.
//
// A storage's raw state is a sequence of logic levels drawn from one of three
// closed alphabets:
//   - two-valued: {0, 1} at 1 bit per level
//   - four-valued: {0, 1, unknown, high-impedance} at 2 bits per level
//   - nine-valued: strength-annotated levels at 4 bits per level
//
// Levels are packed least-significant-first within each byte (8, 4, or 2 per
// byte); the final byte of a sequence is zero-padded. Packed sequences carry
// no terminator, so unpacking always requires the level count up front.
package logic

import "fmt"

// Kind selects the alphabet a storage's raw values are drawn from.
type Kind uint8

const (
	Two  Kind = 0 // two-valued, 1 bit per level
	Four Kind = 1 // four-valued, 2 bits per level
	Nine Kind = 2 // nine-valued, 4 bits per level
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Two:
		return "two-valued"
	case Four:
		return "four-valued"
	case Nine:
		return "nine-valued"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the three defined kinds.
func (k Kind) Valid() bool {
	return k <= Nine
}

// Bits returns the packed width of one level in bits.
func (k Kind) Bits() uint {
	switch k {
	case Two:
		return 1
	case Four:
		return 2
	default:
		return 4
	}
}

// PerByte returns how many levels fit in one byte.
func (k Kind) PerByte() int {
	return 8 / int(k.Bits())
}

// MaxCode returns the largest valid level code for the alphabet.
func (k Kind) MaxCode() Level {
	switch k {
	case Two:
		return One
	case Four:
		return HighZ
	default:
		return NineHighZ
	}
}

// Level is a single logic value. Which codes are valid depends on the Kind;
// the code points below are fixed by the wire format.
type Level uint8

// Codes shared by every alphabet.
const (
	Zero Level = 0
	One  Level = 1
)

// Four-valued codes.
const (
	Unknown Level = 2
	HighZ   Level = 3
)

// Nine-valued codes. Strength-annotated: strong and weak drives of 0/1,
// unknowns, a driven-but-unknown-strength 0/1 pair, and high impedance.
const (
	Strong0       Level = 0
	Strong1       Level = 1
	Weak0         Level = 2
	Weak1         Level = 3
	StrongUnknown Level = 4
	WeakUnknown   Level = 5
	UnknownDrive0 Level = 6
	UnknownDrive1 Level = 7
	NineHighZ     Level = 8
)

// ValidLevel reports whether l is a defined code point in k's alphabet.
func (k Kind) ValidLevel(l Level) bool {
	return l <= k.MaxCode()
}

// DefaultLevel is the value a storage holds before its first change.
func (k Kind) DefaultLevel() Level {
	if k == Nine {
		return WeakUnknown
	}
	return Zero
}

// ToBit coerces a level to a plain bit. ok is false when the level has no
// two-valued meaning (unknowns, high impedance).
func (k Kind) ToBit(l Level) (bit bool, ok bool) {
	switch k {
	case Two:
		return l == One, true
	case Four:
		switch l {
		case Zero:
			return false, true
		case One:
			return true, true
		}
	case Nine:
		switch l {
		case Strong0, Weak0:
			return false, true
		case Strong1, Weak1:
			return true, true
		}
	}
	return false, false
}

// Symbol returns the single-character display form of a level in k's
// alphabet, or '?' for an invalid code.
func (k Kind) Symbol(l Level) byte {
	if !k.ValidLevel(l) {
		return '?'
	}
	if k == Two || k == Four {
		return [...]byte{'0', '1', 'x', 'z'}[l]
	}
	return [...]byte{'0', '1', 'L', 'H', 'X', 'W', 'd', 'D', 'z'}[l]
}

// FormatPrefix returns the numeral prefix used when rendering arrays of this
// kind ("0b", "0q", "0n").
func (k Kind) FormatPrefix() string {
	switch k {
	case Two:
		return "0b"
	case Four:
		return "0q"
	default:
		return "0n"
	}
}
