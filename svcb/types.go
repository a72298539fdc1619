package svcb

import (
	"fmt"

	"github.com/Neumenon/svcb/logic"
)

// StorageID identifies a bit-cell group within one stream.
type StorageID uint32

// ScopeID identifies a namespace node. Id 0 is the implicit root.
type ScopeID uint32

// RootScope is the implicit root of the scope tree. It is never declared on
// the wire; every stream starts with it present.
const RootScope ScopeID = 0

// VariableID identifies a declared variable. Ids are assigned sequentially
// in declaration order by the registry.
type VariableID uint32

// BlockType is the one-byte tag that introduces every block.
type BlockType uint8

const (
	BlockScope       BlockType = 0
	BlockVariable    BlockType = 1
	BlockStorage     BlockType = 2
	BlockValueChange BlockType = 3
	BlockTimestep    BlockType = 4
)

// String returns the block type name.
func (t BlockType) String() string {
	switch t {
	case BlockScope:
		return "scope"
	case BlockVariable:
		return "variable"
	case BlockStorage:
		return "storage"
	case BlockValueChange:
		return "value-change"
	case BlockTimestep:
		return "timestep"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Storage describes one group of physical bit cells. Immutable once declared.
type Storage struct {
	ID    StorageID
	Kind  logic.Kind
	Width uint32
	Start uint32 // bit offset within a wider physical wire
}

// Scope is a namespace node in the hierarchy rooted at RootScope.
type Scope struct {
	ID     ScopeID
	Parent ScopeID
	Name   string
}

// Signedness selects the numeric reading of an integer variable.
type Signedness uint8

const (
	SignedTwosComplement Signedness = 0
	Unsigned             Signedness = 1
)

// String returns the signedness name.
func (s Signedness) String() string {
	if s == Unsigned {
		return "unsigned"
	}
	return "signed"
}

// Interp is a variable's interpretation kind.
type Interp uint8

const (
	InterpNone    Interp = 0
	InterpInteger Interp = 1
	InterpEnum    Interp = 2
	InterpUTF8    Interp = 3
)

// String returns the interpretation name.
func (i Interp) String() string {
	switch i {
	case InterpNone:
		return "none"
	case InterpInteger:
		return "integer"
	case InterpEnum:
		return "enum"
	case InterpUTF8:
		return "utf-8"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(i))
	}
}

// EnumSpec names one bit pattern of an enum variable. Value is always
// two-valued and exactly as wide as the variable's storage.
type EnumSpec struct {
	Name  string
	Value logic.Array
}

// Variable is a named, scoped view over one or more storages. Which fields
// are meaningful depends on Interp:
//
//	None, UTF8:  Storage
//	Enum:        Storage, Enums
//	Integer:     Storages, MSB, LSB, Signedness
//
// Variables are immutable once declared.
type Variable struct {
	ID     VariableID
	Scope  ScopeID
	Name   string
	Interp Interp

	Storage    StorageID
	Storages   []StorageID
	MSB        uint32
	LSB        uint32
	Signedness Signedness
	Enums      []EnumSpec
}

// Block is one decoded record of the stream. The variant set is closed:
// exactly ScopeBlock, VariableBlock, StorageBlock, ValueChangeBlock, and
// TimestepBlock implement it.
type Block interface {
	Type() BlockType
	block()
}

// ScopeBlock declares a scope. The registry has already been updated when
// the block is yielded.
type ScopeBlock struct {
	Scope Scope
}

// VariableBlock declares a variable, with its registry-assigned ID filled in.
type VariableBlock struct {
	Variable Variable
}

// StorageBlock declares a storage.
type StorageBlock struct {
	Storage Storage
}

// ValueChangeEntry is one storage's new raw value at the current time.
type ValueChangeEntry struct {
	Storage StorageID
	Values  logic.Array
}

// ValueChangeBlock carries the value changes of one instant. Ephemeral:
// the registry does not retain these.
type ValueChangeBlock struct {
	Changes []ValueChangeEntry
}

// TimestepBlock advances the running time counter. Now is the absolute time
// in timesteps after applying Delta. Zero deltas are valid and leave Now
// unchanged.
type TimestepBlock struct {
	Delta uint64
	Now   uint64
}

func (ScopeBlock) Type() BlockType       { return BlockScope }
func (VariableBlock) Type() BlockType    { return BlockVariable }
func (StorageBlock) Type() BlockType     { return BlockStorage }
func (ValueChangeBlock) Type() BlockType { return BlockValueChange }
func (TimestepBlock) Type() BlockType    { return BlockTimestep }

func (ScopeBlock) block()       {}
func (VariableBlock) block()    {}
func (StorageBlock) block()     {}
func (ValueChangeBlock) block() {}
func (TimestepBlock) block()    {}
