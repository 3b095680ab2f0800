package resource

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrUnknownType   = errors.New("unknown resource type")
	ErrDuplicateType = errors.New("resource type already registered")
)

// Builtin type IDs. Every registry starts with these, in this order.
const (
	TypeNone TypeID = iota + 1
	TypeBool
	TypeInt
	TypeFloat
	TypeStr
	TypeList
)

var builtinTypes = []string{"none", "bool", "int", "float", "str", "list"}

// IsBuiltin reports whether id is one of the builtin types.
func IsBuiltin(id TypeID) bool {
	return id >= TypeNone && id <= TypeList
}

// IsBuiltinName reports whether name is a builtin type name.
func IsBuiltinName(name string) bool {
	return slices.Contains(builtinTypes, name)
}

// Registry maps host type names to type IDs.
type Registry struct {
	byName map[string]TypeID
	names  []string
	mu     sync.RWMutex
}

// NewRegistry creates a registry holding the builtin types.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]TypeID, len(builtinTypes)),
	}
	for _, name := range builtinTypes {
		r.names = append(r.names, name)
		r.byName[name] = TypeID(len(r.names))
	}
	return r
}

// Register adds a named type and returns its ID.
func (r *Registry) Register(name string) (TypeID, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnknownType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}
	r.names = append(r.names, name)
	id := TypeID(len(r.names))
	r.byName[name] = id
	return id, nil
}

// Lookup returns the ID registered for name.
func (r *Registry) Lookup(name string) (TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the name registered for id.
func (r *Registry) Name(id TypeID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == 0 || int(id) > len(r.names) {
		return "", false
	}
	return r.names[id-1], true
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
