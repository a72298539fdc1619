package svcb

import (
	"github.com/Neumenon/svcb/logic"
)

// Registry is the append-only schema table of one decode session: storages,
// scopes, and variables keyed by their ids. Entries are never removed or
// mutated after declaration; the scope tree is rooted at the implicit
// RootScope. Registry is not safe for concurrent mutation — one writer (the
// stream reader) owns it for the session.
type Registry struct {
	storages     map[StorageID]*Storage
	storageOrder []StorageID

	scopes     map[ScopeID]*scopeNode
	scopeOrder []ScopeID

	variables []*Variable
}

type scopeNode struct {
	scope     Scope
	children  []ScopeID
	variables []VariableID
}

// NewRegistry creates an empty registry holding only the implicit root scope.
func NewRegistry() *Registry {
	return &Registry{
		storages: make(map[StorageID]*Storage),
		scopes: map[ScopeID]*scopeNode{
			RootScope: {scope: Scope{ID: RootScope}},
		},
	}
}

// DeclareStorage inserts a storage. Fails with DuplicateId when the id was
// already used and InvalidField when the logic kind is not one of the three
// defined alphabets.
func (r *Registry) DeclareStorage(s Storage) error {
	if !s.Kind.Valid() {
		return errf(CodeInvalidField, "storage %d has invalid logic kind %d", s.ID, uint8(s.Kind))
	}
	if _, ok := r.storages[s.ID]; ok {
		return errf(CodeDuplicateID, "storage id %d already declared", s.ID)
	}
	cp := s
	r.storages[s.ID] = &cp
	r.storageOrder = append(r.storageOrder, s.ID)
	return nil
}

// DeclareScope inserts a scope under an already-declared parent (or the
// implicit root). Scope id 0 is reserved for the root and cannot be declared.
func (r *Registry) DeclareScope(s Scope) error {
	if s.ID == RootScope {
		return errf(CodeDuplicateID, "scope id 0 is the implicit root")
	}
	if _, ok := r.scopes[s.ID]; ok {
		return errf(CodeDuplicateID, "scope id %d already declared", s.ID)
	}
	parent, ok := r.scopes[s.Parent]
	if !ok {
		return errf(CodeUnknownReference, "scope %d references undeclared parent scope %d", s.ID, s.Parent)
	}
	r.scopes[s.ID] = &scopeNode{scope: s}
	parent.children = append(parent.children, s.ID)
	r.scopeOrder = append(r.scopeOrder, s.ID)
	return nil
}

// DeclareVariable validates a variable against the schema declared so far,
// assigns it the next VariableID, and inserts it. The id is returned and also
// written into the stored record.
func (r *Registry) DeclareVariable(v Variable) (VariableID, error) {
	owner, ok := r.scopes[v.Scope]
	if !ok {
		return 0, errf(CodeUnknownReference, "variable %q references undeclared scope %d", v.Name, v.Scope)
	}

	switch v.Interp {
	case InterpNone:
		if _, err := r.LookupStorage(v.Storage); err != nil {
			return 0, err
		}

	case InterpUTF8:
		s, err := r.LookupStorage(v.Storage)
		if err != nil {
			return 0, err
		}
		if s.Kind != logic.Two || s.Width%8 != 0 {
			return 0, errf(CodeInvalidField,
				"utf-8 variable %q needs a two-valued storage with byte-aligned width, storage %d is %s width %d",
				v.Name, s.ID, s.Kind, s.Width)
		}

	case InterpEnum:
		s, err := r.LookupStorage(v.Storage)
		if err != nil {
			return 0, err
		}
		if s.Kind != logic.Two {
			return 0, errf(CodeInvalidField,
				"enum variable %q needs a two-valued storage, storage %d is %s", v.Name, s.ID, s.Kind)
		}
		for _, spec := range v.Enums {
			if spec.Value.Kind() != logic.Two || spec.Value.Width() != int(s.Width) {
				return 0, errf(CodeWidthMismatch,
					"enum value %q is %d bits, storage %d is %d wide", spec.Name, spec.Value.Width(), s.ID, s.Width)
			}
		}

	case InterpInteger:
		if v.MSB < v.LSB {
			return 0, errf(CodeWidthMismatch, "variable %q has msb %d below lsb %d", v.Name, v.MSB, v.LSB)
		}
		if v.Signedness != SignedTwosComplement && v.Signedness != Unsigned {
			return 0, errf(CodeInvalidField, "variable %q has invalid signedness %d", v.Name, uint8(v.Signedness))
		}
		var total uint64
		for _, id := range v.Storages {
			s, err := r.LookupStorage(id)
			if err != nil {
				return 0, err
			}
			total += uint64(s.Width)
		}
		if need := uint64(v.MSB) - uint64(v.LSB) + 1; total < need {
			return 0, errf(CodeWidthMismatch,
				"variable %q concatenates %d bits but spans [%d, %d] (%d bits)", v.Name, total, v.LSB, v.MSB, need)
		}

	default:
		return 0, errf(CodeInvalidField, "variable %q has invalid interpretation %d", v.Name, uint8(v.Interp))
	}

	id := VariableID(len(r.variables))
	cp := v
	cp.ID = id
	r.variables = append(r.variables, &cp)
	owner.variables = append(owner.variables, id)
	return id, nil
}

// LookupStorage returns a declared storage or UnknownReference.
func (r *Registry) LookupStorage(id StorageID) (*Storage, error) {
	s, ok := r.storages[id]
	if !ok {
		return nil, errf(CodeUnknownReference, "storage id %d not declared", id)
	}
	return s, nil
}

// LookupScope returns a declared scope (or the implicit root) or
// UnknownReference.
func (r *Registry) LookupScope(id ScopeID) (*Scope, error) {
	n, ok := r.scopes[id]
	if !ok {
		return nil, errf(CodeUnknownReference, "scope id %d not declared", id)
	}
	return &n.scope, nil
}

// LookupVariable returns a declared variable or UnknownReference.
func (r *Registry) LookupVariable(id VariableID) (*Variable, error) {
	if int(id) >= len(r.variables) {
		return nil, errf(CodeUnknownReference, "variable id %d not declared", id)
	}
	return r.variables[id], nil
}

// Children returns the child scope ids of a scope in declaration order.
func (r *Registry) Children(id ScopeID) []ScopeID {
	if n, ok := r.scopes[id]; ok {
		return n.children
	}
	return nil
}

// ScopeVariables returns the variable ids owned by a scope in declaration
// order.
func (r *Registry) ScopeVariables(id ScopeID) []VariableID {
	if n, ok := r.scopes[id]; ok {
		return n.variables
	}
	return nil
}

// Storages returns all declared storage ids in declaration order.
func (r *Registry) Storages() []StorageID {
	return r.storageOrder
}

// Scopes returns all declared scope ids in declaration order, excluding the
// implicit root.
func (r *Registry) Scopes() []ScopeID {
	return r.scopeOrder
}

// NumVariables returns how many variables have been declared.
func (r *Registry) NumVariables() int {
	return len(r.variables)
}
