package resource

import (
	"fmt"
	"sync"
)

// Heap is the host object table: typed, reference-counted objects addressed
// by handles, a registry of type names, an immortal none singleton and a
// pending-error slot used as the guest-facing exception channel.
type Heap struct {
	backend   Backend
	registry  *Registry
	pending   error
	observers []Observer
	none      Handle
	obsMu     sync.RWMutex
	errMu     sync.Mutex
}

// Option configures a Heap.
type Option func(*heapOptions)

type heapOptions struct {
	backend  Backend
	capacity int
}

// WithCapacity bounds the number of live objects. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(o *heapOptions) { o.capacity = n }
}

// WithBackend stores objects in b instead of a new LocalBackend. The
// capacity option is ignored; b enforces its own limits.
func WithBackend(b Backend) Option {
	return func(o *heapOptions) { o.backend = b }
}

// NewHeap creates an empty heap holding only the none singleton.
func NewHeap(opts ...Option) *Heap {
	var o heapOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = NewLocalBackend(o.capacity)
	}

	h := &Heap{
		backend:  o.backend,
		registry: NewRegistry(),
	}
	// A fresh backend cannot refuse an immortal entry.
	h.none, _ = h.backend.CreateImmortal(TypeNone, nil)
	return h
}

// Registry returns the heap's type registry.
func (h *Heap) Registry() *Registry {
	return h.registry
}

// None returns the immortal none singleton.
func (h *Heap) None() Handle {
	return h.none
}

// IsNone reports whether handle is the none singleton.
func (h *Heap) IsNone(handle Handle) bool {
	return handle != 0 && handle == h.none
}

// Closed reports whether the heap has been closed.
func (h *Heap) Closed() bool {
	return h.backend.Closed()
}

// Insert adds a value of a registered type and returns an owned handle.
func (h *Heap) Insert(typeID TypeID, value any) (Handle, error) {
	if _, ok := h.registry.Name(typeID); !ok {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownType, typeID)
	}

	handle, err := h.backend.Create(typeID, value)
	if err != nil {
		return 0, err
	}

	h.notify(Event{
		Type:     EventCreated,
		Handle:   handle,
		TypeID:   typeID,
		Value:    value,
		RefCount: 1,
	})
	return handle, nil
}

// Get retrieves a value by handle.
func (h *Heap) Get(handle Handle) (any, bool) {
	return h.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (h *Heap) GetTyped(handle Handle, typeID TypeID) (any, bool) {
	actual, ok := h.backend.TypeID(handle)
	if !ok || actual != typeID {
		return nil, false
	}
	return h.backend.Get(handle)
}

// TypeID returns the type of a live handle.
func (h *Heap) TypeID(handle Handle) (TypeID, bool) {
	return h.backend.TypeID(handle)
}

// TypeName returns the registered type name of a live handle.
func (h *Heap) TypeName(handle Handle) (string, bool) {
	id, ok := h.backend.TypeID(handle)
	if !ok {
		return "", false
	}
	return h.registry.Name(id)
}

// RefCount returns the number of owned references to a handle.
func (h *Heap) RefCount(handle Handle) (uint32, bool) {
	return h.backend.RefCount(handle)
}

// Retain adds an owned reference to a live handle.
func (h *Heap) Retain(handle Handle) error {
	refs, err := h.backend.Retain(handle)
	if err != nil {
		return err
	}
	typeID, _ := h.backend.TypeID(handle)
	h.notify(Event{
		Type:     EventRetained,
		Handle:   handle,
		TypeID:   typeID,
		RefCount: refs,
	})
	return nil
}

// Release drops an owned reference. The object is destroyed, and its
// Dropper run, when the last reference goes away.
func (h *Heap) Release(handle Handle) error {
	typeID, _ := h.backend.TypeID(handle)
	value, refs, dropped, err := h.backend.Release(handle)
	if err != nil {
		return err
	}

	if !dropped {
		h.notify(Event{
			Type:     EventReleased,
			Handle:   handle,
			TypeID:   typeID,
			Value:    value,
			RefCount: refs,
		})
		return nil
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	h.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return nil
}

// Borrow marks a handle as lent for the duration of a call. The last owned
// reference cannot be released until ReturnBorrow is called.
func (h *Heap) Borrow(handle Handle) bool {
	if !h.backend.Borrow(handle) {
		return false
	}
	typeID, _ := h.backend.TypeID(handle)
	h.notify(Event{Type: EventBorrowed, Handle: handle, TypeID: typeID})
	return true
}

// ReturnBorrow ends a borrow started with Borrow.
func (h *Heap) ReturnBorrow(handle Handle) bool {
	if !h.backend.ReturnBorrow(handle) {
		return false
	}
	typeID, _ := h.backend.TypeID(handle)
	h.notify(Event{Type: EventBorrowReturned, Handle: handle, TypeID: typeID})
	return true
}

// SetError records a pending error, replacing any previous one.
func (h *Heap) SetError(err error) {
	h.errMu.Lock()
	h.pending = err
	h.errMu.Unlock()
}

// Err returns the pending error without clearing it.
func (h *Heap) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.pending
}

// TakeError returns and clears the pending error.
func (h *Heap) TakeError() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	err := h.pending
	h.pending = nil
	return err
}

// Subscribe adds an observer for lifecycle events.
func (h *Heap) Subscribe(o Observer) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	h.observers = append(h.observers, o)
}

// Unsubscribe removes an observer.
func (h *Heap) Unsubscribe(o Observer) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	for i, obs := range h.observers {
		if obs == o {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live objects, excluding the none singleton.
func (h *Heap) Len() int {
	n := h.backend.Len()
	if n > 0 && !h.Closed() {
		n--
	}
	return n
}

// Each iterates over all live objects. fn must not call back into the heap.
func (h *Heap) Each(fn func(Handle, TypeID, any) bool) {
	h.backend.Each(fn)
}

// Close destroys every object and stops accepting operations.
func (h *Heap) Close() error {
	values, err := h.backend.Close()
	if err != nil {
		return err
	}
	for _, v := range values {
		if d, ok := v.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (h *Heap) notify(e Event) {
	h.obsMu.RLock()
	defer h.obsMu.RUnlock()
	for _, o := range h.observers {
		o.OnResourceEvent(e)
	}
}
