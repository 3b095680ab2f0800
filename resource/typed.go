package resource

// Typed is a view of a heap restricted to one registered type. It
// implements TypedTable[T].
type Typed[T any] struct {
	heap   *Heap
	typeID TypeID
}

var _ TypedTable[any] = (*Typed[any])(nil)

// NewTyped creates a typed view over heap for typeID.
func NewTyped[T any](heap *Heap, typeID TypeID) *Typed[T] {
	return &Typed[T]{heap: heap, typeID: typeID}
}

// TypeID returns the type this view is restricted to.
func (t *Typed[T]) TypeID() TypeID {
	return t.typeID
}

// Heap returns the underlying heap.
func (t *Typed[T]) Heap() *Heap {
	return t.heap
}

// Insert adds a value and returns an owned handle.
func (t *Typed[T]) Insert(value T) (Handle, error) {
	return t.heap.Insert(t.typeID, value)
}

// Get retrieves a value if handle is live and of this type.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	value, ok := t.heap.GetTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	v, ok := value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Has reports whether handle is live and of this type.
func (t *Typed[T]) Has(handle Handle) bool {
	id, ok := t.heap.TypeID(handle)
	return ok && id == t.typeID
}

// Remove releases one reference to handle and returns its value.
func (t *Typed[T]) Remove(handle Handle) (T, bool) {
	v, ok := t.Get(handle)
	if !ok {
		return v, false
	}
	if err := t.heap.Release(handle); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// Len returns the number of live objects of this type.
func (t *Typed[T]) Len() int {
	count := 0
	t.heap.Each(func(_ Handle, id TypeID, _ any) bool {
		if id == t.typeID {
			count++
		}
		return true
	})
	return count
}

// Each iterates over all live objects of this type.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	type item struct {
		handle Handle
		value  T
	}
	var items []item
	t.heap.Each(func(h Handle, id TypeID, value any) bool {
		if id != t.typeID {
			return true
		}
		if v, ok := value.(T); ok {
			items = append(items, item{h, v})
		}
		return true
	})
	for _, it := range items {
		if !fn(it.handle, it.value) {
			return
		}
	}
}
