package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("resource heap closed")
	ErrExhausted         = errors.New("resource heap exhausted")
	ErrInvalidHandle     = errors.New("invalid resource handle")
	ErrOutstandingBorrow = errors.New("cannot drop resource with outstanding borrows")
)

var _ Backend = (*LocalBackend)(nil)

// LocalBackend is an in-memory backend with reference and borrow counting.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	capacity int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       any
	typeID      TypeID
	refCount    uint32
	borrowCount uint32
	valid       bool
	immortal    bool
}

// NewLocalBackend creates a new in-memory backend. A capacity of zero means
// unbounded.
func NewLocalBackend(capacity int) *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
		capacity: capacity,
	}
}

// Create stores a value and returns a handle with refcount 1.
func (b *LocalBackend) Create(typeID TypeID, value any) (Handle, error) {
	return b.create(typeID, value, false)
}

// CreateImmortal stores a value that Retain and Release never free.
// Immortal entries do not count towards capacity.
func (b *LocalBackend) CreateImmortal(typeID TypeID, value any) (Handle, error) {
	return b.create(typeID, value, true)
}

func (b *LocalBackend) create(typeID TypeID, value any, immortal bool) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if !immortal && b.capacity > 0 && b.live >= b.capacity {
		return 0, ErrExhausted
	}

	e := entry{
		typeID:   typeID,
		value:    value,
		refCount: 1,
		valid:    true,
		immortal: immortal,
	}
	if !immortal {
		b.live++
	}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// lookup returns the live entry for handle. Callers must hold b.mu.
func (b *LocalBackend) lookup(handle Handle) *entry {
	if handle == 0 || int(handle) > len(b.entries) {
		return nil
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend) TypeID(handle Handle) (TypeID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// RefCount returns the number of owned references to a handle.
func (b *LocalBackend) RefCount(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.refCount, true
}

// Retain increments the reference count for a handle.
func (b *LocalBackend) Retain(handle Handle) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	e := b.lookup(handle)
	if e == nil {
		return 0, ErrInvalidHandle
	}
	if !e.immortal {
		e.refCount++
	}
	return e.refCount, nil
}

// Release decrements the reference count and frees the entry at zero.
// The last reference cannot be released while borrows are outstanding.
func (b *LocalBackend) Release(handle Handle) (any, uint32, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, 0, false, ErrClosed
	}
	e := b.lookup(handle)
	if e == nil {
		return nil, 0, false, ErrInvalidHandle
	}
	if e.immortal {
		return e.value, e.refCount, false, nil
	}
	if e.refCount == 1 && e.borrowCount > 0 {
		return nil, e.refCount, false, ErrOutstandingBorrow
	}

	e.refCount--
	if e.refCount > 0 {
		return e.value, e.refCount, false, nil
	}

	value := e.value
	*e = entry{}
	b.live--
	b.freeList = append(b.freeList, handle)
	return value, 0, true, nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend) Borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Close invalidates every entry and returns the values that were live so the
// caller can run destructors without holding the backend lock.
func (b *LocalBackend) Close() ([]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil
	}
	b.closed = true

	var values []any
	for i := range b.entries {
		if b.entries[i].valid {
			values = append(values, b.entries[i].value)
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return values, nil
}

// Closed reports whether Close has been called.
func (b *LocalBackend) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Len returns the number of live objects, immortal ones included.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live objects.
func (b *LocalBackend) Each(fn func(Handle, TypeID, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.typeID, e.value) {
				break
			}
		}
	}
}
