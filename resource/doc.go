// Package resource provides the host object heap that guests and host code
// address through integer handles.
//
// Objects are typed, reference-counted Go values in the style of Component
// Model resources. This package implements the handle table the tensor
// bridge reconciles native tensors against.
//
// # Object Lifecycle
//
//	own     - an owned reference; Insert returns one with refcount 1
//	retain  - add an owned reference to a live handle
//	release - drop an owned reference; the last one destroys the object
//	borrow  - temporary access; the last reference cannot be released
//	          while borrows are outstanding
//
// # Heap
//
//	heap := resource.NewHeap(resource.WithCapacity(1024))
//
//	// Builtin value objects
//	n, _ := heap.NewInt(42)
//	l, _ := heap.NewList(n)
//
//	// Registered types
//	tensorType, _ := heap.Registry().Register("tensor")
//	h, _ := heap.Insert(tensorType, value)
//
//	// Type inspection
//	name, _ := heap.TypeName(h) // "tensor"
//
//	heap.Release(h)
//
// # Type Safety
//
// Each registered type gets a unique TypeID. The builtin types none, bool,
// int, float, str and list are registered by every Registry in that order.
// Typed narrows a heap to one type:
//
//	ints := resource.NewTyped[int64](heap, resource.TypeInt)
//	v, ok := ints.Get(n)
//
// # None
//
// Every heap owns an immortal none singleton (Heap.None). Retain and Release
// on it succeed without effect.
//
// # Pending Errors
//
// Guests cannot receive Go errors. Host functions record a failure with
// SetError and return a sentinel; the guest or the embedder retrieves it
// with TakeError.
//
// # Memory Management
//
// Objects are not garbage collected. Whoever holds an owned handle must
// Release it. Values implementing Dropper are dropped when their last
// reference goes away, or when the heap is closed.
package resource
