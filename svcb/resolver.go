package svcb

import (
	"unicode/utf8"

	"github.com/Neumenon/svcb/logic"
)

// Resolved is the typed outcome of resolving a variable against current
// storage values. The variant set is closed: ResolvedRaw, ResolvedInt,
// ResolvedEnum, ResolvedText.
type Resolved interface {
	resolved()
}

// ResolvedRaw is the untouched storage value of a None-interpretation
// variable.
type ResolvedRaw struct {
	Values logic.Array
}

// ResolvedInt is a numeric reading. When Indeterminate is set the storage
// held unknown or high-impedance bits inside the integer's span and the
// numeric fields are meaningless — they are never silently coerced to zero.
type ResolvedInt struct {
	Uint          uint64
	Int           int64
	Signed        bool
	Indeterminate bool
}

// ResolvedEnum is an enum-specification match. Matched is false when no
// specification's bit pattern equals the current value; that is a display
// concern, not an error.
type ResolvedEnum struct {
	Name    string
	Matched bool
}

// ResolvedText is decoded UTF-8 text.
type ResolvedText struct {
	Text string
}

func (ResolvedRaw) resolved()  {}
func (ResolvedInt) resolved()  {}
func (ResolvedEnum) resolved() {}
func (ResolvedText) resolved() {}

// Resolve computes a variable's typed value from the current raw values of
// its storages. values is typically the reader's ValueTable; any source
// covering the referenced storages works.
//
// Integer variables concatenate their storages listed-first-most-significant
// into one vector whose index 0 is bit lsb; the value is the low msb-lsb+1
// bits, read as two's complement when signed. A bit without a two-valued
// meaning anywhere in that span yields Indeterminate.
func (r *Registry) Resolve(id VariableID, values ValueSource) (Resolved, error) {
	v, err := r.LookupVariable(id)
	if err != nil {
		return nil, err
	}

	switch v.Interp {
	case InterpNone:
		arr, err := r.currentValue(v.Storage, values)
		if err != nil {
			return nil, err
		}
		return ResolvedRaw{Values: arr}, nil

	case InterpEnum:
		arr, err := r.currentValue(v.Storage, values)
		if err != nil {
			return nil, err
		}
		for _, spec := range v.Enums {
			if spec.Value.Equal(arr) {
				return ResolvedEnum{Name: spec.Name, Matched: true}, nil
			}
		}
		return ResolvedEnum{}, nil

	case InterpUTF8:
		arr, err := r.currentValue(v.Storage, values)
		if err != nil {
			return nil, err
		}
		// Width is byte-aligned by declaration, so the packed form is the
		// byte string itself.
		raw := arr.Bytes()
		if !utf8.Valid(raw) {
			return nil, errf(CodeInvalidUTF8, "variable %q holds invalid UTF-8", v.Name)
		}
		return ResolvedText{Text: string(raw)}, nil

	default:
		return r.resolveInteger(v, values)
	}
}

func (r *Registry) resolveInteger(v *Variable, values ValueSource) (Resolved, error) {
	n := uint64(v.MSB) - uint64(v.LSB) + 1
	if n > 64 {
		return nil, errf(CodeIntegerOverflow, "variable %q spans %d bits", v.Name, n)
	}

	// Walk storages least significant first (reverse of listed order),
	// coercing levels to bits until the span is filled.
	var (
		value         uint64
		pos           uint64
		indeterminate bool
	)
	for i := len(v.Storages) - 1; i >= 0 && pos < n; i-- {
		arr, err := r.currentValue(v.Storages[i], values)
		if err != nil {
			return nil, err
		}
		for j := 0; j < arr.Width() && pos < n; j++ {
			bit, ok := arr.Kind().ToBit(arr.Get(j))
			if !ok {
				indeterminate = true
			} else if bit {
				value |= 1 << pos
			}
			pos++
		}
	}

	out := ResolvedInt{Signed: v.Signedness == SignedTwosComplement}
	if indeterminate {
		out.Indeterminate = true
		return out, nil
	}
	out.Uint = value
	if out.Signed && n < 64 && value&(1<<(n-1)) != 0 {
		out.Int = int64(value - 1<<n) // wraps to the negative reading
	} else {
		out.Int = int64(value)
	}
	return out, nil
}

func (r *Registry) currentValue(id StorageID, values ValueSource) (logic.Array, error) {
	s, err := r.LookupStorage(id)
	if err != nil {
		return logic.Array{}, err
	}
	arr, ok := values.StorageValue(id)
	if !ok {
		return logic.Array{}, errf(CodeUnknownReference, "no current value for storage %d", id)
	}
	if arr.Kind() != s.Kind || arr.Width() != int(s.Width) {
		return logic.Array{}, errf(CodeWidthMismatch,
			"current value for storage %d is %s width %d, declared %s width %d",
			id, arr.Kind(), arr.Width(), s.Kind, s.Width)
	}
	return arr, nil
}
