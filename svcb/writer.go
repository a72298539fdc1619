package svcb

import (
	"fmt"
	"io"

	"github.com/Neumenon/svcb/logic"
)

// Writer emits a revision-1 container. It validates every block against its
// own registry before writing, so a stream produced through Writer is always
// well-formed: declare-before-use holds, widths agree, and varints are
// minimal. Call WriteHeader first, then the per-block methods in stream
// order.
type Writer struct {
	w   io.Writer
	reg *Registry
	buf []byte

	headerDone bool
}

// NewWriter creates a container writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, reg: NewRegistry()}
}

// Registry returns the schema declared through this writer so far.
func (w *Writer) Registry() *Registry {
	return w.reg
}

// WriteHeader writes the magic, version 1, and timescale (femtoseconds per
// timestep).
func (w *Writer) WriteHeader(timescale Uint128) error {
	if w.headerDone {
		return fmt.Errorf("svcb: header already written")
	}
	w.buf = append(w.buf[:0], Magic[:]...)
	w.buf = appendU32(w.buf, Version1)
	w.buf = appendU128(w.buf, timescale)
	if err := w.flush(); err != nil {
		return err
	}
	w.headerDone = true
	return nil
}

// WriteScope declares a scope. Parent must already be declared (or be the
// implicit root) and the id unused.
func (w *Writer) WriteScope(parent, id ScopeID, name string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.reg.DeclareScope(Scope{ID: id, Parent: parent, Name: name}); err != nil {
		return err
	}
	w.buf = append(w.buf[:0], byte(BlockScope))
	w.buf = appendU32(w.buf, uint32(parent))
	w.buf = appendU32(w.buf, uint32(id))
	w.buf = appendString(w.buf, name)
	return w.flush()
}

// WriteStorage declares a storage.
func (w *Writer) WriteStorage(s Storage) error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.reg.DeclareStorage(s); err != nil {
		return err
	}
	w.buf = append(w.buf[:0], byte(BlockStorage))
	w.buf = appendU32(w.buf, uint32(s.ID))
	w.buf = appendU32(w.buf, uint32(s.Kind))
	w.buf = appendU32(w.buf, s.Width)
	w.buf = appendU32(w.buf, s.Start)
	return w.flush()
}

// WriteVariable declares a variable and returns its assigned id. The ID
// field of v is ignored on input.
func (w *Writer) WriteVariable(v Variable) (VariableID, error) {
	if err := w.ready(); err != nil {
		return 0, err
	}
	id, err := w.reg.DeclareVariable(v)
	if err != nil {
		return 0, err
	}

	w.buf = append(w.buf[:0], byte(BlockVariable))
	w.buf = appendU32(w.buf, uint32(v.Scope))
	w.buf = appendString(w.buf, v.Name)
	w.buf = appendU32(w.buf, uint32(v.Interp))
	switch v.Interp {
	case InterpNone, InterpUTF8:
		w.buf = appendU32(w.buf, uint32(v.Storage))
	case InterpEnum:
		w.buf = appendU32(w.buf, uint32(v.Storage))
		w.buf = appendU32(w.buf, uint32(len(v.Enums)))
		for _, spec := range v.Enums {
			w.buf = appendString(w.buf, spec.Name)
			w.buf = append(w.buf, spec.Value.Bytes()...)
		}
	case InterpInteger:
		w.buf = appendU32(w.buf, uint32(len(v.Storages)))
		for _, sid := range v.Storages {
			w.buf = appendU32(w.buf, uint32(sid))
		}
		w.buf = appendU32(w.buf, v.MSB)
		w.buf = appendU32(w.buf, v.LSB)
		w.buf = appendU32(w.buf, uint32(v.Signedness))
	}
	return id, w.flush()
}

// WriteValueChange writes one value-change block covering the given entries.
// Every entry must reference a declared storage and match its declared kind
// and width.
func (w *Writer) WriteValueChange(entries ...ValueChangeEntry) error {
	if err := w.ready(); err != nil {
		return err
	}
	for _, e := range entries {
		s, err := w.reg.LookupStorage(e.Storage)
		if err != nil {
			return err
		}
		if e.Values.Kind() != s.Kind || e.Values.Width() != int(s.Width) {
			return errf(CodeWidthMismatch,
				"entry for storage %d is %s width %d, declared %s width %d",
				e.Storage, e.Values.Kind(), e.Values.Width(), s.Kind, s.Width)
		}
	}
	w.buf = append(w.buf[:0], byte(BlockValueChange))
	w.buf = appendUvarint(w.buf, uint64(len(entries)))
	for _, e := range entries {
		w.buf = appendUvarint(w.buf, uint64(e.Storage))
		w.buf = appendUvarint(w.buf, uint64(e.Values.Width()))
		w.buf = append(w.buf, e.Values.Bytes()...)
	}
	return w.flush()
}

// WriteTimestep advances the trace time by delta timesteps. Zero is valid
// and splits simultaneous changes across blocks.
func (w *Writer) WriteTimestep(delta uint64) error {
	if err := w.ready(); err != nil {
		return err
	}
	w.buf = append(w.buf[:0], byte(BlockTimestep))
	w.buf = appendUvarint(w.buf, delta)
	return w.flush()
}

// Levels is a convenience for building a change entry from unpacked levels.
func Levels(storage StorageID, kind logic.Kind, levels ...logic.Level) (ValueChangeEntry, error) {
	a, err := logic.FromLevels(kind, levels)
	if err != nil {
		return ValueChangeEntry{}, errf(CodeInvalidLogicValue, "%v", err)
	}
	return ValueChangeEntry{Storage: storage, Values: a}, nil
}

func (w *Writer) ready() error {
	if !w.headerDone {
		return fmt.Errorf("svcb: WriteHeader not called")
	}
	return nil
}

func (w *Writer) flush() error {
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write block: %w", err)
	}
	return nil
}
