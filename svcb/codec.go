package svcb

import (
	"bufio"
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// Wire primitives (revision 1):
//   - fixed integers are little-endian (8/32/64/128 bits)
//   - varints are LEB128: 7-bit groups, low group first, continuation bit set
//     on every group but the last; emit is always minimal
//   - a string is a u32 byte count followed by UTF-8 bytes
//   - a vec is a u32 element count, a compact-vec a varint element count

// decoder reads primitives from a byte stream while tracking the absolute
// offset for error attribution. End-of-input inside a primitive is always
// TruncatedStream; only the block loop may treat EOF as a clean end.
type decoder struct {
	r   *bufio.Reader
	off int64
}

func newDecoder(r io.Reader) *decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &decoder{r: br}
}

func (d *decoder) errf(code Code, format string, args ...any) *Error {
	e := errf(code, format, args...)
	e.Offset = d.off
	return e
}

func (d *decoder) readFull(p []byte) error {
	n, err := io.ReadFull(d.r, p)
	d.off += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return d.errf(CodeTruncatedStream, "end of input inside a %d-byte field", len(p))
	}
	return err
}

func (d *decoder) u8() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, d.errf(CodeTruncatedStream, "end of input inside a 1-byte field")
		}
		return 0, err
	}
	d.off++
	return b, nil
}

func (d *decoder) u32() (uint32, error) {
	var buf [4]byte
	if err := d.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *decoder) u128() (Uint128, error) {
	var buf [16]byte
	if err := d.readFull(buf[:]); err != nil {
		return Uint128{}, err
	}
	return u128FromLE(buf[:]), nil
}

// uvarint decodes a bounded LEB128 integer. bits is 32 or 64; consuming more
// groups than the bound admits, or a final group with excess high bits, is
// IntegerOverflow.
func (d *decoder) uvarint(bits uint) (uint64, error) {
	maxGroups := int((bits + 6) / 7)
	var x uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := d.u8()
		if err != nil {
			return 0, err
		}
		if i == maxGroups {
			return 0, d.errf(CodeIntegerOverflow, "varint does not fit %d bits", bits)
		}
		group := uint64(b & 0x7f)
		if rem := bits - shift; rem < 7 && group>>rem != 0 {
			return 0, d.errf(CodeIntegerOverflow, "varint does not fit %d bits", bits)
		}
		x |= group << shift
		if b&0x80 == 0 {
			return x, nil
		}
		shift += 7
	}
}

func (d *decoder) uvarint32() (uint32, error) {
	x, err := d.uvarint(32)
	return uint32(x), err
}

// str decodes a u32-length-prefixed UTF-8 string, capped at max bytes.
func (d *decoder) str(max int) (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if int64(n) > int64(max) {
		return "", d.errf(CodeTruncatedStream, "string of %d bytes exceeds the %d-byte limit", n, max)
	}
	buf := make([]byte, n)
	if err := d.readFull(buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", d.errf(CodeInvalidUTF8, "string is not valid UTF-8")
	}
	return string(buf), nil
}

// ============================================================
// Encode helpers
// ============================================================

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// appendUvarint emits the minimal LEB128 encoding.
func appendUvarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendString(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}
