package svcb

import (
	"errors"
	"io"

	"github.com/Neumenon/svcb/logic"
)

// DefaultMaxNameLen caps declared name and string sizes (the wire carries
// u32 length prefixes, so a hostile stream could otherwise announce 4 GiB).
const DefaultMaxNameLen = 1 << 20

// preallocLimit bounds slice capacities taken from wire-declared element
// counts. A hostile count then costs a failed element read, not a giant
// allocation; honest streams above the limit just regrow through append.
const preallocLimit = 4096

func prealloc(count uint32) int {
	if count > preallocLimit {
		return preallocLimit
	}
	return int(count)
}

type readerState uint8

const (
	stateStreaming readerState = iota
	stateDone
	stateFailed
)

// Reader is the block stream engine: a pull-based sequence of decoded blocks
// over a byte source. Each Next call decodes exactly one block; schema blocks
// update the registry before they are yielded, value-change and timestep
// blocks never touch it. End-of-input at a block boundary ends the stream
// cleanly (io.EOF); end-of-input anywhere else is TruncatedStream. Errors are
// terminal and sticky, but the registry built so far stays readable.
//
// Reader decodes the block stream only. Use Open to consume a whole
// container including its magic, version, and timescale header.
type Reader struct {
	d     *decoder
	reg   *Registry
	state readerState
	err   error

	block   int
	now     uint64
	maxName int
	values  *ValueTable
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxNameLen caps the byte length of declared names
// (default: DefaultMaxNameLen).
func WithMaxNameLen(max int) ReaderOption {
	return func(r *Reader) {
		r.maxName = max
	}
}

// WithValueTracking keeps a latest-value table for every declared storage,
// available through Values.
func WithValueTracking() ReaderOption {
	return func(r *Reader) {
		r.values = NewValueTable()
	}
}

// NewReader creates a block stream reader over src. src must be positioned
// at the first block tag (past the container header).
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		d:       newDecoder(src),
		reg:     NewRegistry(),
		maxName: DefaultMaxNameLen,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the schema built from the blocks decoded so far.
func (r *Reader) Registry() *Registry {
	return r.reg
}

// Values returns the latest-value table, or nil when tracking is off.
func (r *Reader) Values() *ValueTable {
	return r.values
}

// Now returns the running absolute time in timesteps.
func (r *Reader) Now() uint64 {
	return r.now
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.d.off
}

// BlocksRead returns how many blocks have been decoded.
func (r *Reader) BlocksRead() int {
	return r.block
}

// Next decodes and returns the next block. Returns io.EOF when the stream
// ended cleanly at a block boundary. Any other error is terminal; subsequent
// calls return the same error.
func (r *Reader) Next() (Block, error) {
	switch r.state {
	case stateDone:
		return nil, io.EOF
	case stateFailed:
		return nil, r.err
	}

	tag, err := r.d.r.ReadByte()
	if err == io.EOF {
		// Zero bytes pending at a block boundary: the clean end.
		r.state = stateDone
		return nil, io.EOF
	}
	if err != nil {
		return nil, r.fail(err)
	}
	r.d.off++

	var b Block
	switch BlockType(tag) {
	case BlockScope:
		b, err = r.readScope()
	case BlockVariable:
		b, err = r.readVariable()
	case BlockStorage:
		b, err = r.readStorage()
	case BlockValueChange:
		b, err = r.readValueChange()
	case BlockTimestep:
		b, err = r.readTimestep()
	default:
		err = r.d.errf(CodeUnknownBlockType, "block type tag %d", tag)
	}
	if err != nil {
		return nil, r.fail(err)
	}
	r.block++
	return b, nil
}

// fail makes the stream terminal, stamping stream position onto errors that
// came from the registry without one.
func (r *Reader) fail(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Offset < 0 {
		e.Offset = r.d.off
	}
	if e != nil && e.Block < 0 {
		e.Block = r.block
	}
	r.state = stateFailed
	r.err = err
	return err
}

func (r *Reader) readScope() (Block, error) {
	parent, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	id, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	name, err := r.d.str(r.maxName)
	if err != nil {
		return nil, err
	}
	s := Scope{ID: ScopeID(id), Parent: ScopeID(parent), Name: name}
	if err := r.reg.DeclareScope(s); err != nil {
		return nil, err
	}
	return ScopeBlock{Scope: s}, nil
}

func (r *Reader) readStorage() (Block, error) {
	id, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	kind, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	if kind > uint32(logic.Nine) {
		return nil, r.d.errf(CodeInvalidField, "storage logic kind %d", kind)
	}
	width, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	start, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	s := Storage{ID: StorageID(id), Kind: logic.Kind(kind), Width: width, Start: start}
	if err := r.reg.DeclareStorage(s); err != nil {
		return nil, err
	}
	if r.values != nil {
		r.values.Track(s)
	}
	return StorageBlock{Storage: s}, nil
}

func (r *Reader) readVariable() (Block, error) {
	scope, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	name, err := r.d.str(r.maxName)
	if err != nil {
		return nil, err
	}
	interp, err := r.d.u32()
	if err != nil {
		return nil, err
	}

	v := Variable{Scope: ScopeID(scope), Name: name}
	switch Interp(interp) {
	case InterpNone, InterpUTF8:
		sid, err := r.d.u32()
		if err != nil {
			return nil, err
		}
		v.Interp = Interp(interp)
		v.Storage = StorageID(sid)

	case InterpEnum:
		sid, err := r.d.u32()
		if err != nil {
			return nil, err
		}
		// Enum value vectors are sized by the storage's declared width, so
		// the reference must already resolve for the payload to be readable.
		storage, err := r.reg.LookupStorage(StorageID(sid))
		if err != nil {
			return nil, err
		}
		enums, err := r.readEnumSpecs(int(storage.Width))
		if err != nil {
			return nil, err
		}
		v.Interp = InterpEnum
		v.Storage = StorageID(sid)
		v.Enums = enums

	case InterpInteger:
		count, err := r.d.u32()
		if err != nil {
			return nil, err
		}
		ids := make([]StorageID, 0, prealloc(count))
		for i := uint32(0); i < count; i++ {
			sid, err := r.d.u32()
			if err != nil {
				return nil, err
			}
			ids = append(ids, StorageID(sid))
		}
		msb, err := r.d.u32()
		if err != nil {
			return nil, err
		}
		lsb, err := r.d.u32()
		if err != nil {
			return nil, err
		}
		sign, err := r.d.u32()
		if err != nil {
			return nil, err
		}
		if sign > uint32(Unsigned) {
			return nil, r.d.errf(CodeInvalidField, "signedness value %d", sign)
		}
		v.Interp = InterpInteger
		v.Storages = ids
		v.MSB = msb
		v.LSB = lsb
		v.Signedness = Signedness(sign)

	default:
		return nil, r.d.errf(CodeInvalidField, "variable interpretation %d", interp)
	}

	id, err := r.reg.DeclareVariable(v)
	if err != nil {
		return nil, err
	}
	v.ID = id
	return VariableBlock{Variable: v}, nil
}

func (r *Reader) readEnumSpecs(width int) ([]EnumSpec, error) {
	count, err := r.d.u32()
	if err != nil {
		return nil, err
	}
	specs := make([]EnumSpec, 0, prealloc(count))
	packed := make([]byte, logic.BytesFor(logic.Two, width))
	for i := uint32(0); i < count; i++ {
		name, err := r.d.str(r.maxName)
		if err != nil {
			return nil, err
		}
		if err := r.d.readFull(packed); err != nil {
			return nil, err
		}
		value, err := logic.Unpack(logic.Two, packed, width)
		if err != nil {
			return nil, r.d.errf(CodeInvalidLogicValue, "enum value %q: %v", name, err)
		}
		specs = append(specs, EnumSpec{Name: name, Value: value})
	}
	return specs, nil
}

func (r *Reader) readValueChange() (Block, error) {
	count, err := r.d.uvarint32()
	if err != nil {
		return nil, err
	}
	b := ValueChangeBlock{Changes: make([]ValueChangeEntry, 0, prealloc(count))}
	for i := uint32(0); i < count; i++ {
		sid, err := r.d.uvarint32()
		if err != nil {
			return nil, err
		}
		storage, err := r.reg.LookupStorage(StorageID(sid))
		if err != nil {
			return nil, err
		}
		n, err := r.d.uvarint32()
		if err != nil {
			return nil, err
		}
		if n != storage.Width {
			return nil, r.d.errf(CodeWidthMismatch,
				"value change carries %d values, storage %d is %d wide", n, sid, storage.Width)
		}
		packed := make([]byte, logic.BytesFor(storage.Kind, int(n)))
		if err := r.d.readFull(packed); err != nil {
			return nil, err
		}
		values, err := logic.Unpack(storage.Kind, packed, int(n))
		if err != nil {
			return nil, r.d.errf(CodeInvalidLogicValue, "storage %d: %v", sid, err)
		}
		b.Changes = append(b.Changes, ValueChangeEntry{Storage: StorageID(sid), Values: values})
	}
	if r.values != nil {
		r.values.Apply(b)
	}
	return b, nil
}

func (r *Reader) readTimestep() (Block, error) {
	delta, err := r.d.uvarint(64)
	if err != nil {
		return nil, err
	}
	r.now += delta
	return TimestepBlock{Delta: delta, Now: r.now}, nil
}
