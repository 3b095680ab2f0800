package native

import "github.com/wippyai/wasm-tensor/resource"

// Borrowed is a heap handle lent by the caller for the duration of one call.
// Holding a Borrowed never changes the object's reference count.
type Borrowed struct {
	h resource.Handle
}

// Borrow tags a raw handle as borrowed.
func Borrow(h resource.Handle) Borrowed {
	return Borrowed{h: h}
}

// Handle returns the raw handle.
func (b Borrowed) Handle() resource.Handle {
	return b.h
}

// Owned is a heap handle carrying one owned reference. The holder must give
// it back with Release or pass it on.
type Owned struct {
	h resource.Handle
}

// Adopt tags a raw handle that already carries an owned reference.
func Adopt(h resource.Handle) Owned {
	return Owned{h: h}
}

// Handle returns the raw handle. The reference is not transferred.
func (o Owned) Handle() resource.Handle {
	return o.h
}

// IsZero reports whether o holds no handle.
func (o Owned) IsZero() bool {
	return o.h == 0
}

// Borrow lends the handle without giving up the reference.
func (o Owned) Borrow() Borrowed {
	return Borrowed{h: o.h}
}

// Release gives the reference back to heap.
func (o Owned) Release(heap *resource.Heap) error {
	if o.h == 0 {
		return nil
	}
	return heap.Release(o.h)
}
