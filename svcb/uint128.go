package svcb

import (
	"encoding/binary"
	"math/big"
)

// Uint128 is an unsigned 128-bit integer, used for the container timescale
// (femtoseconds per timestep). On the wire it is 16 little-endian bytes.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// U128 builds a Uint128 from a uint64.
func U128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

// Uint64 returns the low 64 bits and whether the value fits in them.
func (u Uint128) Uint64() (uint64, bool) {
	return u.Lo, u.Hi == 0
}

// String renders the value in decimal.
func (u Uint128) String() string {
	if u.Hi == 0 {
		return new(big.Int).SetUint64(u.Lo).String()
	}
	x := new(big.Int).SetUint64(u.Hi)
	x.Lsh(x, 64)
	x.Or(x, new(big.Int).SetUint64(u.Lo))
	return x.String()
}

func appendU128(b []byte, u Uint128) []byte {
	b = binary.LittleEndian.AppendUint64(b, u.Lo)
	return binary.LittleEndian.AppendUint64(b, u.Hi)
}

func u128FromLE(b []byte) Uint128 {
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}
