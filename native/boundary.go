package native

import (
	"errors"
	"fmt"

	bridgeerrors "github.com/wippyai/wasm-tensor/errors"
	"github.com/wippyai/wasm-tensor/resource"
	"github.com/wippyai/wasm-tensor/tensor"
)

var (
	ErrNotRegistered = errors.New("native: tensor type not registered")
	ErrNotTensor     = errors.New("native: object is not a tensor")
)

// Primitives is the raw bridging surface between native tensors and heap
// objects. Check and Unpack require a live handle; Unpack further requires
// that Check reported true.
type Primitives interface {
	// Check reports whether h is a tensor object.
	Check(h Borrowed) (bool, error)

	// Wrap creates a tensor object sharing t's storage. t stays valid.
	Wrap(t *tensor.Tensor) (Owned, error)

	// Unpack returns a new tensor handle sharing the object's storage.
	Unpack(h Borrowed) (*tensor.Tensor, error)
}

// object is the heap value behind a tensor handle. It owns one storage
// reference, given back when the heap drops the object.
type object struct {
	t *tensor.Tensor
}

func (o *object) Drop() {
	o.t.Release()
}

func (o *object) String() string {
	return o.t.String()
}

// HeapPrimitives implements Primitives over a resource heap.
type HeapPrimitives struct {
	heap    *resource.Heap
	tensors *resource.Typed[*object]
}

var _ Primitives = (*HeapPrimitives)(nil)

// New binds the primitives to heap objects of typeID.
func New(heap *resource.Heap, typeID resource.TypeID) *HeapPrimitives {
	return &HeapPrimitives{
		heap:    heap,
		tensors: resource.NewTyped[*object](heap, typeID),
	}
}

// Heap returns the heap the primitives operate on.
func (p *HeapPrimitives) Heap() *resource.Heap {
	return p.heap
}

// TypeID returns the tensor type ID.
func (p *HeapPrimitives) TypeID() resource.TypeID {
	return p.tensors.TypeID()
}

func (p *HeapPrimitives) ready(op string) error {
	if p.heap == nil || p.heap.Closed() {
		return bridgeerrors.NotInitialized(bridgeerrors.PhaseNative, "heap for "+op, resource.ErrClosed)
	}
	if _, ok := p.heap.Registry().Name(p.tensors.TypeID()); !ok {
		return fmt.Errorf("native: %s: %w (id %d)", op, ErrNotRegistered, p.tensors.TypeID())
	}
	return nil
}

// Check reports whether h is a tensor object. It never touches reference
// counts.
func (p *HeapPrimitives) Check(h Borrowed) (bool, error) {
	if err := p.ready("check"); err != nil {
		return false, err
	}
	typeID, ok := p.heap.TypeID(h.Handle())
	if !ok {
		return false, fmt.Errorf("native: check handle %d: %w", h.Handle(), resource.ErrInvalidHandle)
	}
	return typeID == p.tensors.TypeID(), nil
}

// Wrap creates a tensor object holding its own reference to t's storage.
// On failure that reference is given back and no handle escapes.
func (p *HeapPrimitives) Wrap(t *tensor.Tensor) (Owned, error) {
	if err := p.ready("wrap"); err != nil {
		return Owned{}, err
	}
	shared, err := t.Clone()
	if err != nil {
		return Owned{}, fmt.Errorf("native: wrap: %w", err)
	}

	h, err := p.tensors.Insert(&object{t: shared})
	if err != nil {
		shared.Release()
		if errors.Is(err, resource.ErrExhausted) {
			return Owned{}, bridgeerrors.AllocationFailed(bridgeerrors.PhaseNative, "tensor object", err)
		}
		return Owned{}, fmt.Errorf("native: wrap: %w", err)
	}
	return Adopt(h), nil
}

// Unpack returns a new tensor handle sharing the object's storage. The
// object's own reference count is left untouched.
func (p *HeapPrimitives) Unpack(h Borrowed) (*tensor.Tensor, error) {
	if err := p.ready("unpack"); err != nil {
		return nil, err
	}
	obj, ok := p.tensors.Get(h.Handle())
	if !ok {
		return nil, fmt.Errorf("native: unpack handle %d: %w", h.Handle(), ErrNotTensor)
	}
	t, err := obj.t.Clone()
	if err != nil {
		return nil, fmt.Errorf("native: unpack handle %d: %w", h.Handle(), err)
	}
	return t, nil
}
