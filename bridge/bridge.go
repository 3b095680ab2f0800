package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-tensor/errors"
	"github.com/wippyai/wasm-tensor/native"
	"github.com/wippyai/wasm-tensor/resource"
	"github.com/wippyai/wasm-tensor/tensor"
)

// DefaultTypeName is the host type name tensors are registered under.
const DefaultTypeName = "tensor"

// Bridge converts between native tensors and host objects of one heap.
type Bridge struct {
	heap     *resource.Heap
	prims    native.Primitives
	logger   *zap.Logger
	typeName string
	typeID   resource.TypeID
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTypeName registers tensors under name instead of DefaultTypeName.
func WithTypeName(name string) Option {
	return func(b *Bridge) { b.typeName = name }
}

// WithLogger sets the bridge logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithPrimitives replaces the heap-backed primitives. The replacement must
// agree with the registered type ID.
func WithPrimitives(p native.Primitives) Option {
	return func(b *Bridge) { b.prims = p }
}

// New creates a bridge over heap, registering the tensor type if the heap's
// registry does not hold it yet. Builtin type names are refused.
func New(heap *resource.Heap, opts ...Option) (*Bridge, error) {
	if heap == nil {
		return nil, errors.NilPointer(errors.PhaseRuntime, "*resource.Heap")
	}

	b := &Bridge{
		heap:     heap,
		typeName: DefaultTypeName,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = Logger()
	}

	typeID, ok := heap.Registry().Lookup(b.typeName)
	if ok && resource.IsBuiltin(typeID) {
		return nil, errors.Registration(errors.PhaseRuntime, "tensor type", b.typeName,
			fmt.Errorf("%w: %q is a builtin type", resource.ErrDuplicateType, b.typeName))
	}
	if !ok {
		var err error
		typeID, err = heap.Registry().Register(b.typeName)
		if err != nil {
			return nil, errors.Registration(errors.PhaseRuntime, "tensor type", b.typeName, err)
		}
	}
	b.typeID = typeID

	if b.prims == nil {
		b.prims = native.New(heap, typeID)
	}
	return b, nil
}

// Heap returns the heap the bridge converts against.
func (b *Bridge) Heap() *resource.Heap {
	return b.heap
}

// TypeID returns the registered tensor type ID.
func (b *Bridge) TypeID() resource.TypeID {
	return b.typeID
}

// TypeName returns the registered tensor type name.
func (b *Bridge) TypeName() string {
	return b.typeName
}

// IsTensor reports whether h is a wrapped tensor. It does not change any
// reference count. An error means the native check itself faulted.
func (b *Bridge) IsTensor(h native.Borrowed) (bool, error) {
	return b.prims.Check(h)
}

// Wrap creates a new host object sharing t's storage. t remains valid and
// owned by the caller; the returned handle carries one reference.
func (b *Bridge) Wrap(t *tensor.Tensor) (native.Owned, error) {
	return b.prims.Wrap(t)
}

// Unpack recovers the tensor wrapped by h. It returns (nil, nil) when h is
// not a tensor, without calling into the native unpack. A returned tensor
// shares the object's storage and must be released by the caller.
func (b *Bridge) Unpack(h native.Borrowed) (*tensor.Tensor, error) {
	ok, err := b.prims.Check(h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return b.prims.Unpack(h)
}

// Translate converts a native failure into a host value error carrying its
// diagnostic text. The native error stays reachable through Unwrap.
func Translate(err error) *errors.Error {
	if err == nil {
		return nil
	}
	return errors.ValueError(errors.PhaseNative, err.Error(), err)
}
