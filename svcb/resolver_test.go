package svcb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/svcb/logic"
)

// mapSource is a bare ValueSource for resolver tests.
type mapSource map[StorageID]logic.Array

func (m mapSource) StorageValue(id StorageID) (logic.Array, bool) {
	v, ok := m[id]
	return v, ok
}

func mustUnpack(t *testing.T, kind logic.Kind, data []byte, count int) logic.Array {
	t.Helper()
	a, err := logic.Unpack(kind, data, count)
	require.NoError(t, err)
	return a
}

func TestResolveRaw(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Four, Width: 2}))
	id, err := r.DeclareVariable(Variable{Scope: RootScope, Name: "w", Interp: InterpNone, Storage: 1})
	require.NoError(t, err)

	val := mustLevels(t, logic.Four, logic.HighZ, logic.One)
	res, err := r.Resolve(id, mapSource{1: val})
	require.NoError(t, err)
	raw, ok := res.(ResolvedRaw)
	require.True(t, ok)
	assert.True(t, raw.Values.Equal(val))
}

func TestResolveIntegerConcat(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 4}))
	require.NoError(t, r.DeclareStorage(Storage{ID: 2, Kind: logic.Two, Width: 4}))

	// Listed order is most significant first: 0b1111 ++ 0b1010 = 0b11111010.
	values := mapSource{
		1: mustUnpack(t, logic.Two, []byte{0x0f}, 4),
		2: mustUnpack(t, logic.Two, []byte{0x0a}, 4),
	}

	unsigned, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "u", Interp: InterpInteger,
		Storages: []StorageID{1, 2}, MSB: 7, LSB: 0, Signedness: Unsigned,
	})
	require.NoError(t, err)
	signed, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "s", Interp: InterpInteger,
		Storages: []StorageID{1, 2}, MSB: 7, LSB: 0, Signedness: SignedTwosComplement,
	})
	require.NoError(t, err)

	res, err := r.Resolve(unsigned, values)
	require.NoError(t, err)
	assert.Equal(t, ResolvedInt{Uint: 250, Int: 250}, res)

	res, err = r.Resolve(signed, values)
	require.NoError(t, err)
	assert.Equal(t, ResolvedInt{Uint: 250, Int: -6, Signed: true}, res)
}

func TestResolveIntegerNarrowSpan(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 8}))

	// Only the low three bits of 0b11111010 are read.
	id, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "lo", Interp: InterpInteger,
		Storages: []StorageID{1}, MSB: 2, LSB: 0, Signedness: Unsigned,
	})
	require.NoError(t, err)

	res, err := r.Resolve(id, mapSource{1: mustUnpack(t, logic.Two, []byte{0xfa}, 8)})
	require.NoError(t, err)
	assert.Equal(t, ResolvedInt{Uint: 2, Int: 2}, res)
}

func TestResolveIntegerFullWidth(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 64}))

	all := mustUnpack(t, logic.Two,
		[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 64)

	id, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "s64", Interp: InterpInteger,
		Storages: []StorageID{1}, MSB: 63, LSB: 0, Signedness: SignedTwosComplement,
	})
	require.NoError(t, err)

	res, err := r.Resolve(id, mapSource{1: all})
	require.NoError(t, err)
	assert.Equal(t, ResolvedInt{Uint: math.MaxUint64, Int: -1, Signed: true}, res)
}

func TestResolveIntegerIndeterminate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Four, Width: 4}))

	id, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "n", Interp: InterpInteger,
		Storages: []StorageID{1}, MSB: 3, LSB: 0, Signedness: Unsigned,
	})
	require.NoError(t, err)

	// One unknown bit inside the span poisons the whole reading.
	val := mustLevels(t, logic.Four, logic.One, logic.Unknown, logic.Zero, logic.One)
	res, err := r.Resolve(id, mapSource{1: val})
	require.NoError(t, err)
	assert.Equal(t, ResolvedInt{Indeterminate: true}, res)
}

func TestResolveIntegerSpanTooWide(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 65}))

	id, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "huge", Interp: InterpInteger,
		Storages: []StorageID{1}, MSB: 64, LSB: 0, Signedness: Unsigned,
	})
	require.NoError(t, err)

	_, err = r.Resolve(id, mapSource{1: logic.NewArray(logic.Two, 65)})
	requireCode(t, err, CodeIntegerOverflow)
}

func TestResolveEnum(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 2}))

	idle := mustLevels(t, logic.Two, logic.Zero, logic.Zero)
	busy := mustLevels(t, logic.Two, logic.One, logic.Zero)
	id, err := r.DeclareVariable(Variable{
		Scope: RootScope, Name: "state", Interp: InterpEnum, Storage: 1,
		Enums: []EnumSpec{{Name: "IDLE", Value: idle}, {Name: "BUSY", Value: busy}},
	})
	require.NoError(t, err)

	res, err := r.Resolve(id, mapSource{1: busy})
	require.NoError(t, err)
	assert.Equal(t, ResolvedEnum{Name: "BUSY", Matched: true}, res)

	// A pattern no specification names is unmatched, not an error.
	other := mustLevels(t, logic.Two, logic.One, logic.One)
	res, err = r.Resolve(id, mapSource{1: other})
	require.NoError(t, err)
	assert.Equal(t, ResolvedEnum{}, res)
}

func TestResolveText(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 16}))
	id, err := r.DeclareVariable(Variable{Scope: RootScope, Name: "msg", Interp: InterpUTF8, Storage: 1})
	require.NoError(t, err)

	res, err := r.Resolve(id, mapSource{1: mustUnpack(t, logic.Two, []byte("hi"), 16)})
	require.NoError(t, err)
	assert.Equal(t, ResolvedText{Text: "hi"}, res)

	_, err = r.Resolve(id, mapSource{1: mustUnpack(t, logic.Two, []byte{0xff, 0xfe}, 16)})
	requireCode(t, err, CodeInvalidUTF8)
}

func TestResolveMissingValue(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.DeclareStorage(Storage{ID: 1, Kind: logic.Two, Width: 1}))
	id, err := r.DeclareVariable(Variable{Scope: RootScope, Name: "a", Interp: InterpNone, Storage: 1})
	require.NoError(t, err)

	_, err = r.Resolve(id, mapSource{})
	requireCode(t, err, CodeUnknownReference)

	// A stored value disagreeing with the declaration is a width fault.
	wrong := mapSource{1: logic.NewArray(logic.Four, 1)}
	_, err = r.Resolve(id, wrong)
	requireCode(t, err, CodeWidthMismatch)

	_, err = r.Resolve(99, mapSource{})
	requireCode(t, err, CodeUnknownReference)
}
