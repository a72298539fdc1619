package svcb

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/svcb/logic"
)

// buildTrace writes a small but complete container: one scope, two storages,
// a variable, and two instants at times 0 and 5.
func buildTrace(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader(U128(1000000))) // 1 ns per timestep
	require.NoError(t, w.WriteScope(RootScope, 1, "top"))
	require.NoError(t, w.WriteStorage(Storage{ID: 1, Kind: logic.Two, Width: 1}))
	require.NoError(t, w.WriteStorage(Storage{ID: 2, Kind: logic.Four, Width: 4}))
	_, err := w.WriteVariable(Variable{Scope: 1, Name: "clk", Interp: InterpNone, Storage: 1})
	require.NoError(t, err)

	clk, err := Levels(1, logic.Two, logic.One)
	require.NoError(t, err)
	data, err := Levels(2, logic.Four, logic.Zero, logic.One, logic.Zero, logic.One)
	require.NoError(t, err)
	require.NoError(t, w.WriteValueChange(clk, data))
	require.NoError(t, w.WriteTimestep(5))
	clk2, err := Levels(1, logic.Two, logic.Zero)
	require.NoError(t, err)
	require.NoError(t, w.WriteValueChange(clk2))
	return buf.Bytes()
}

func drainContainer(t *testing.T, c *Container) int {
	t.Helper()
	n := 0
	for {
		_, err := c.Next()
		if err == io.EOF {
			return n
		}
		require.NoError(t, err)
		n++
	}
}

func TestOpenPlainContainer(t *testing.T) {
	c, err := Open(bytes.NewReader(buildTrace(t)), WithValueTracking())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, U128(1000000), c.Timescale())
	assert.Equal(t, 7, drainContainer(t, c))
	assert.Equal(t, uint64(5), c.Now())

	v, ok := c.Values().StorageValue(1)
	require.True(t, ok)
	assert.Equal(t, []logic.Level{logic.Zero}, v.Levels())

	v, ok = c.Values().StorageValue(2)
	require.True(t, ok)
	assert.Equal(t, "0q1010", v.String())
}

func TestOpenCompressedContainer(t *testing.T) {
	plain := buildTrace(t)

	var packed bytes.Buffer
	enc, err := zstd.NewWriter(&packed)
	require.NoError(t, err)
	_, err = enc.Write(plain)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	c, err := Open(&packed)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, U128(1000000), c.Timescale())
	assert.Equal(t, 7, drainContainer(t, c))
	assert.Equal(t, uint64(5), c.Now())

	// Offsets count uncompressed bytes.
	assert.Equal(t, int64(len(plain)), c.Offset())
}

func TestOpenBadMagic(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("vcd\x00rest")))
	requireCode(t, err, CodeBadMagic)
}

func TestOpenUnsupportedVersion(t *testing.T) {
	b := append([]byte("svcb"), appendU32(nil, 2)...)
	b = appendU128(b, U128(1))
	_, err := Open(bytes.NewReader(b))
	requireCode(t, err, CodeUnsupportedVersion)
}

func TestOpenTruncatedHeader(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("sv")))
	requireCode(t, err, CodeTruncatedStream)

	b := append([]byte("svcb"), appendU32(nil, 1)...)
	_, err = Open(bytes.NewReader(append(b, 0x01, 0x02)))
	requireCode(t, err, CodeTruncatedStream)
}

func TestOpenEmptyBlockStream(t *testing.T) {
	b := append([]byte("svcb"), appendU32(nil, 1)...)
	b = appendU128(b, U128(42))

	c, err := Open(bytes.NewReader(b))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, U128(42), c.Timescale())
	_, err = c.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, uint64(0), c.Now())
}
