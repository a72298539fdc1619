// Package svcb implements SVCB (Streamed Value Change Blocks), a compact
// binary format for digital-circuit value-change traces.
//
// A trace is a single container:
//
//	magic "svcb" | version u32 | timescale u128 | block stream
//
// followed by tagged blocks, each a one-byte type tag and a payload:
//
//	0 scope        parent u32, id u32, name
//	1 variable     scope u32, name, interpretation + payload
//	2 storage      id u32, logic kind u32, width u32, start u32
//	3 value-change compact-vec of (storage varint, count varint, packed levels)
//	4 timestep     delta varint
//
// Schema blocks (scope, variable, storage) build an append-only, declare-
// before-use Registry; value changes carry the raw logic levels of a storage
// packed at 1, 2, or 4 bits per level (see package logic); timesteps advance
// a running absolute-time counter measured in units of the timescale
// (femtoseconds per step).
//
// # Reading
//
//	c, err := svcb.Open(f, svcb.WithValueTracking())
//	for {
//		b, err := c.Next()
//		if err == io.EOF {
//			break
//		}
//		...
//	}
//
// Decoding is single-pass and lazy: one block per Next call, suspendable at
// any block boundary, with memory bounded by the schema rather than the
// change history. Malformed input stops the stream with a *Error carrying
// the byte offset and block index; there is no recovery path.
//
// # Resolving
//
// Variables give typed meaning to storages: raw bits, two's-complement or
// unsigned integers over a storage concatenation, enum name matching, or
// UTF-8 text. Registry.Resolve turns the latest raw values (a ValueTable or
// any ValueSource) into a Resolved variant.
//
// # Writing
//
// Writer emits the same wire format and shares the Registry validation, so
// generated streams always satisfy the declare-before-use and width rules.
package svcb
