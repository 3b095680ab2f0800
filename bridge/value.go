package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tensor/errors"
	"github.com/wippyai/wasm-tensor/native"
	"github.com/wippyai/wasm-tensor/tensor"
)

// Extractor is implemented by values that can be extracted from an
// arbitrary host object.
type Extractor interface {
	FromHost(b *Bridge, h native.Borrowed) error
}

// Injector is implemented by values that can be injected as a host object.
// Injection cannot fail; implementations fall back to the none singleton.
type Injector interface {
	ToHost(b *Bridge) native.Owned
}

// Tensor is the conversion value for tensor arguments and results of host
// functions. It holds exactly one native handle, which its holder releases.
type Tensor struct {
	*tensor.Tensor
}

var (
	_ Extractor = (*Tensor)(nil)
	_ Injector  = Tensor{}
)

// Extract converts the host object h into a Tensor. A non-tensor object
// yields a type error naming the object's type; a native failure yields the
// translated value error.
func Extract(b *Bridge, h native.Borrowed) (Tensor, error) {
	t, err := b.Unpack(h)
	if err != nil {
		return Tensor{}, Translate(err)
	}
	if t == nil {
		got, ok := b.heap.TypeName(h.Handle())
		if !ok {
			got = "unknown"
		}
		return Tensor{}, errors.TypeError(errors.PhaseExtract, nil, b.typeName, got)
	}
	return Tensor{Tensor: t}, nil
}

// FromHost implements Extractor.
func (t *Tensor) FromHost(b *Bridge, h native.Borrowed) error {
	v, err := Extract(b, h)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TryInject wraps the tensor as a new host object, reporting failure.
func (t Tensor) TryInject(b *Bridge) (native.Owned, error) {
	return b.Wrap(t.Tensor)
}

// Inject wraps the tensor as a new host object. On failure it returns the
// heap's none singleton instead of an error; the failure is only logged at
// debug level.
func (t Tensor) Inject(b *Bridge) native.Owned {
	h, err := t.TryInject(b)
	if err != nil {
		b.logger.Debug("tensor injection failed, returning none",
			zap.Error(errors.Wrap(errors.PhaseInject, errors.KindValueError, err, "wrap tensor")),
			zap.Stringer("tensor", t.Tensor),
		)
		return native.Adopt(b.heap.None())
	}
	return h
}

// ToHost implements Injector.
func (t Tensor) ToHost(b *Bridge) native.Owned {
	return t.Inject(b)
}
