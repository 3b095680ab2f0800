package host

import (
	"context"
	stderrors "errors"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tensor/bridge"
	"github.com/wippyai/wasm-tensor/errors"
	"github.com/wippyai/wasm-tensor/native"
	"github.com/wippyai/wasm-tensor/resource"
)

// Error kinds reported by error-kind.
const (
	ErrorKindNone  int32 = 0
	ErrorKindType  int32 = 1
	ErrorKindValue int32 = 2
	ErrorKindOther int32 = 3
)

// KindOf maps a pending error to the code returned by error-kind.
func KindOf(err error) int32 {
	if err == nil {
		return ErrorKindNone
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		switch e.Kind {
		case errors.KindTypeError:
			return ErrorKindType
		case errors.KindValueError:
			return ErrorKindValue
		}
	}
	return ErrorKindOther
}

func (m *Module) define() []Func {
	return []Func{
		{Name: "is-tensor", Params: []wit.Type{wit.U32{}}, Results: []wit.Type{wit.S32{}}, Handler: m.isTensor},
		{Name: "numel", Params: []wit.Type{m.borrow()}, Results: []wit.Type{wit.S64{}}, Handler: m.numel},
		{Name: "rank", Params: []wit.Type{m.borrow()}, Results: []wit.Type{wit.S32{}}, Handler: m.rank},
		{Name: "dim", Params: []wit.Type{m.borrow(), wit.U32{}}, Results: []wit.Type{wit.S64{}}, Handler: m.dim},
		{Name: "share", Params: []wit.Type{m.borrow()}, Results: []wit.Type{m.own()}, Handler: m.share},
		{Name: "same-storage", Params: []wit.Type{m.borrow(), m.borrow()}, Results: []wit.Type{wit.Bool{}}, Handler: m.sameStorage},
		{Name: "drop", Params: []wit.Type{wit.U32{}}, Handler: m.drop},
		{Name: "error-kind", Results: []wit.Type{wit.S32{}}, Handler: m.errorKind},
		{Name: "clear-error", Handler: m.clearError},
	}
}

func (m *Module) heap() *resource.Heap {
	return m.bridge.Heap()
}

// fail records err as the pending error.
func (m *Module) fail(fn string, err error) {
	m.logger.Debug("tensor host call failed", zap.String("func", fn), zap.Error(err))
	m.heap().SetError(err)
}

// lend borrows h for the duration of a call. The returned func ends the
// borrow; it is a no-op when h was not live.
func (m *Module) lend(h resource.Handle) func() {
	if !m.heap().Borrow(h) {
		return func() {}
	}
	return func() { m.heap().ReturnBorrow(h) }
}

// extract lends h and extracts it as a tensor. The caller releases the
// tensor and then calls done.
func (m *Module) extract(fn string, h resource.Handle) (bridge.Tensor, func(), bool) {
	done := m.lend(h)
	t, err := bridge.Extract(m.bridge, native.Borrow(h))
	if err != nil {
		done()
		m.fail(fn, err)
		return bridge.Tensor{}, nil, false
	}
	return t, func() {
		t.Release()
		done()
	}, true
}

func (m *Module) isTensor(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	ok, err := m.bridge.IsTensor(native.Borrow(h))
	switch {
	case err != nil:
		m.fail("is-tensor", bridge.Translate(err))
		stack[0] = api.EncodeI32(-1)
	case ok:
		stack[0] = api.EncodeI32(1)
	default:
		stack[0] = api.EncodeI32(0)
	}
}

func (m *Module) numel(_ context.Context, _ api.Module, stack []uint64) {
	t, done, ok := m.extract("numel", resource.Handle(api.DecodeU32(stack[0])))
	if !ok {
		stack[0] = api.EncodeI64(-1)
		return
	}
	defer done()
	stack[0] = api.EncodeI64(int64(t.NumElements()))
}

func (m *Module) rank(_ context.Context, _ api.Module, stack []uint64) {
	t, done, ok := m.extract("rank", resource.Handle(api.DecodeU32(stack[0])))
	if !ok {
		stack[0] = api.EncodeI32(-1)
		return
	}
	defer done()
	stack[0] = api.EncodeI32(int32(len(t.Shape())))
}

func (m *Module) dim(_ context.Context, _ api.Module, stack []uint64) {
	index := api.DecodeU32(stack[1])
	t, done, ok := m.extract("dim", resource.Handle(api.DecodeU32(stack[0])))
	if !ok {
		stack[0] = api.EncodeI64(-1)
		return
	}
	defer done()

	shape := t.Shape()
	if uint64(index) >= uint64(len(shape)) {
		m.fail("dim", errors.OutOfBounds(errors.PhaseHost, []string{"dim"}, int(index), len(shape)))
		stack[0] = api.EncodeI64(-1)
		return
	}
	stack[0] = api.EncodeI64(int64(shape[index]))
}

// share returns a new object sharing the argument's storage. When wrapping
// fails the guest receives none, as any injected result would.
func (m *Module) share(_ context.Context, _ api.Module, stack []uint64) {
	t, done, ok := m.extract("share", resource.Handle(api.DecodeU32(stack[0])))
	if !ok {
		stack[0] = 0
		return
	}
	defer done()
	stack[0] = api.EncodeU32(uint32(t.ToHost(m.bridge).Handle()))
}

func (m *Module) sameStorage(_ context.Context, _ api.Module, stack []uint64) {
	a, doneA, ok := m.extract("same-storage", resource.Handle(api.DecodeU32(stack[0])))
	if !ok {
		stack[0] = 0
		return
	}
	defer doneA()

	b, doneB, ok := m.extract("same-storage", resource.Handle(api.DecodeU32(stack[1])))
	if !ok {
		stack[0] = 0
		return
	}
	defer doneB()

	if a.SameStorage(b.Tensor) {
		stack[0] = 1
	} else {
		stack[0] = 0
	}
}

func (m *Module) drop(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	err := native.Adopt(h).Release(m.heap())
	switch {
	case err == nil:
	case stderrors.Is(err, resource.ErrInvalidHandle):
		m.fail("drop", errors.InvalidHandle(errors.PhaseHost, uint32(h), err))
	default:
		m.fail("drop", bridge.Translate(err))
	}
}

func (m *Module) errorKind(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(KindOf(m.heap().Err()))
}

func (m *Module) clearError(_ context.Context, _ api.Module, _ []uint64) {
	m.heap().TakeError()
}
