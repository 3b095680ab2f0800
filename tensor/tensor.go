package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	born "github.com/born-ml/born/tensor"
)

// Metadata types come from the Born tensor package.
type (
	Shape    = born.Shape
	DataType = born.DataType
	Device   = born.Device
)

// Data type constants.
const (
	Float32 = born.Float32
	Float64 = born.Float64
	Int32   = born.Int32
	Int64   = born.Int64
	Uint8   = born.Uint8
	Bool    = born.Bool
)

// Device constants.
const (
	CPU    = born.CPU
	CUDA   = born.CUDA
	Vulkan = born.Vulkan
	Metal  = born.Metal
	WebGPU = born.WebGPU
)

var (
	ErrReleased     = errors.New("tensor: handle already released")
	ErrInvalidShape = errors.New("tensor: invalid shape")
	ErrInvalidDType = errors.New("tensor: unsupported data type")
)

// storage is the reference-counted buffer shared by every Tensor cloned from
// the same origin.
type storage struct {
	data  []byte
	owner *born.RawTensor
	refs  atomic.Int32
	mu    sync.Mutex
}

func newStorage(data []byte, owner *born.RawTensor) *storage {
	st := &storage{data: data, owner: owner}
	st.refs.Store(1)
	return st
}

func (st *storage) release() {
	if st.refs.Add(-1) != 0 {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.data = nil
	if st.owner != nil {
		st.owner.Release()
		st.owner = nil
	}
}

// Tensor is a native tensor handle: shape, dtype and device metadata over
// shared storage. Each Tensor value owns exactly one storage reference,
// given back by Release.
type Tensor struct {
	st       *storage
	shape    Shape
	dtype    DataType
	device   Device
	released atomic.Bool
}

func validDType(dt DataType) bool {
	return dt.String() != "unknown"
}

// New allocates zeroed storage. Zero-sized dimensions are allowed.
func New(shape Shape, dtype DataType, device Device) (*Tensor, error) {
	for i, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("%w: dimension %d is %d", ErrInvalidShape, i, dim)
		}
	}
	if !validDType(dtype) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDType, int(dtype))
	}

	size := shape.NumElements() * dtype.Size()
	return &Tensor{
		st:     newStorage(make([]byte, size), nil),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}, nil
}

// FromFloat32 creates a CPU float32 tensor holding a copy of data.
func FromFloat32(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: %v holds %d elements, got %d", ErrInvalidShape, shape, shape.NumElements(), len(data))
	}
	t, err := New(shape, Float32, CPU)
	if err != nil {
		return nil, err
	}
	for i, v := range data {
		binary.LittleEndian.PutUint32(t.st.data[i*4:], math.Float32bits(v))
	}
	return t, nil
}

// FromRaw adopts a Born raw tensor without copying. The returned handle
// keeps a Born clone alive until its storage is freed; raw itself stays
// owned by the caller.
func FromRaw(raw *born.RawTensor) (*Tensor, error) {
	if raw == nil {
		return nil, fmt.Errorf("tensor: nil raw tensor")
	}
	owner := raw.Clone()
	data := owner.Data()
	if n := owner.ByteSize(); len(data) > n {
		data = data[:n]
	}
	return &Tensor{
		st:     newStorage(data, owner),
		shape:  owner.Shape().Clone(),
		dtype:  owner.DType(),
		device: owner.Device(),
	}, nil
}

// Clone returns a new handle sharing this tensor's storage.
func (t *Tensor) Clone() (*Tensor, error) {
	if t == nil || t.released.Load() {
		return nil, ErrReleased
	}
	t.st.refs.Add(1)
	return &Tensor{
		st:     t.st,
		shape:  t.shape.Clone(),
		dtype:  t.dtype,
		device: t.device,
	}, nil
}

// Release gives back this handle's storage reference. Releasing twice is a
// no-op.
func (t *Tensor) Release() {
	if t == nil || t.released.Swap(true) {
		return
	}
	t.st.release()
}

// Released reports whether Release has been called on this handle.
func (t *Tensor) Released() bool {
	return t == nil || t.released.Load()
}

// Shape returns the tensor's dimensions, or nil for a nil tensor.
func (t *Tensor) Shape() Shape {
	if t == nil {
		return nil
	}
	return t.shape
}

// DType returns the element type.
func (t *Tensor) DType() DataType { return t.dtype }

// Device returns the device the storage lives on.
func (t *Tensor) Device() Device { return t.device }

// NumElements returns the number of elements. A scalar has one; a nil
// tensor has none.
func (t *Tensor) NumElements() int {
	if t == nil {
		return 0
	}
	return t.shape.NumElements()
}

// Data returns the shared storage bytes, or nil once released.
func (t *Tensor) Data() []byte {
	if t.Released() {
		return nil
	}
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.st.data
}

// Refs returns the number of handles sharing this tensor's storage.
func (t *Tensor) Refs() int {
	if t == nil {
		return 0
	}
	return int(t.st.refs.Load())
}

// SameStorage reports whether t and other share storage.
func (t *Tensor) SameStorage(other *Tensor) bool {
	return t != nil && other != nil && t.st == other.st
}

// Float32s decodes a float32 tensor into a new slice.
func (t *Tensor) Float32s() ([]float32, error) {
	if t.Released() {
		return nil, ErrReleased
	}
	if t.dtype != Float32 {
		return nil, fmt.Errorf("%w: tensor is %s, not float32", ErrInvalidDType, t.dtype)
	}
	data := t.Data()
	out := make([]float32, t.NumElements())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// Raw returns a Born raw tensor for this handle. Storage adopted through
// FromRaw is shared; otherwise the data is copied. Born does not represent
// zero-sized dimensions, so empty tensors cannot be converted.
func (t *Tensor) Raw() (*born.RawTensor, error) {
	if t.Released() {
		return nil, ErrReleased
	}
	t.st.mu.Lock()
	owner := t.st.owner
	t.st.mu.Unlock()
	if owner != nil && owner.Shape().Equal(t.shape) {
		return owner.Clone(), nil
	}

	raw, err := born.NewRaw(t.shape, t.dtype, t.device)
	if err != nil {
		return nil, fmt.Errorf("tensor: convert to raw: %w", err)
	}
	copy(raw.Data(), t.Data())
	return raw, nil
}

// String describes the tensor's metadata.
func (t *Tensor) String() string {
	if t == nil {
		return "tensor(nil)"
	}
	return fmt.Sprintf("tensor(shape=%v, dtype=%s, device=%s)", []int(t.shape), t.dtype, t.device)
}
