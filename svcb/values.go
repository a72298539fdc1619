package svcb

import (
	"github.com/Neumenon/svcb/logic"
)

// ValueSource supplies the current raw value of a storage to the resolver.
// *ValueTable implements it; tests and embedders may substitute their own.
type ValueSource interface {
	StorageValue(id StorageID) (logic.Array, bool)
}

// ValueTable tracks the latest known value per storage. Memory is bounded by
// the number of declared storages, never by the length of the change history.
// Before its first change a storage holds its kind's default fill (zero for
// two- and four-valued, weak-unknown for nine-valued).
type ValueTable struct {
	values map[StorageID]logic.Array
}

// NewValueTable creates an empty table.
func NewValueTable() *ValueTable {
	return &ValueTable{values: make(map[StorageID]logic.Array)}
}

// Track seeds the default value for a newly declared storage.
func (t *ValueTable) Track(s Storage) {
	if _, ok := t.values[s.ID]; !ok {
		t.values[s.ID] = logic.NewArray(s.Kind, int(s.Width))
	}
}

// Apply ingests one value-change block.
func (t *ValueTable) Apply(b ValueChangeBlock) {
	for _, c := range b.Changes {
		t.values[c.Storage] = c.Values
	}
}

// StorageValue returns the latest value of a tracked storage.
func (t *ValueTable) StorageValue(id StorageID) (logic.Array, bool) {
	v, ok := t.values[id]
	return v, ok
}

// Len returns the number of tracked storages.
func (t *ValueTable) Len() int {
	return len(t.values)
}
