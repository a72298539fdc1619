package svcb

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Magic is the four-byte container signature.
var Magic = [4]byte{'s', 'v', 'c', 'b'}

// Version1 is the only defined format revision.
const Version1 uint32 = 1

// zstd frame magic. Trace dumps are routinely stored compressed; a
// compressed container is a byte-identical revision-1 stream inside one
// zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Container is an opened trace: header already validated, blocks pending.
type Container struct {
	r         *Reader
	timescale Uint128
	zdec      *zstd.Decoder
}

// Open validates the container header and returns a Container positioned at
// the first block. This is the sole version-routing point: a future revision
// adds a branch here, not in the per-block grammars. Zstd-compressed
// containers are detected and decompressed transparently.
func Open(src io.Reader, opts ...ReaderOption) (*Container, error) {
	br := bufio.NewReader(src)

	var zdec *zstd.Decoder
	if peek, err := br.Peek(4); err == nil && bytes.Equal(peek, zstdMagic) {
		zdec, err = zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		br = bufio.NewReader(zdec)
	}

	r := NewReader(br, opts...)
	d := r.d

	var magic [4]byte
	if err := d.readFull(magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, d.errf(CodeBadMagic, "signature %q", magic[:])
	}

	version, err := d.u32()
	if err != nil {
		return nil, err
	}

	c := &Container{r: r, zdec: zdec}
	switch version {
	case Version1:
		ts, err := d.u128()
		if err != nil {
			return nil, err
		}
		c.timescale = ts
	default:
		return nil, d.errf(CodeUnsupportedVersion, "version %d", version)
	}
	return c, nil
}

// Timescale returns the trace's femtoseconds per timestep.
func (c *Container) Timescale() Uint128 {
	return c.timescale
}

// Next returns the next decoded block, io.EOF at the clean end of the
// stream, or a terminal *Error.
func (c *Container) Next() (Block, error) {
	return c.r.Next()
}

// Registry returns the schema built so far. It stays readable after a
// decode error, for diagnostics.
func (c *Container) Registry() *Registry {
	return c.r.Registry()
}

// Values returns the latest-value table when WithValueTracking was given,
// nil otherwise.
func (c *Container) Values() *ValueTable {
	return c.r.Values()
}

// Now returns the running absolute time in timesteps.
func (c *Container) Now() uint64 {
	return c.r.Now()
}

// Offset returns the number of container bytes consumed, counted on the
// uncompressed stream.
func (c *Container) Offset() int64 {
	return c.r.Offset()
}

// Close releases the decompressor, if any. The underlying source is the
// caller's to close.
func (c *Container) Close() error {
	if c.zdec != nil {
		c.zdec.Close()
		c.zdec = nil
	}
	return nil
}
