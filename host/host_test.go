package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-tensor/bridge"
	"github.com/wippyai/wasm-tensor/errors"
	"github.com/wippyai/wasm-tensor/resource"
	"github.com/wippyai/wasm-tensor/tensor"
)

type fixture struct {
	ctx    context.Context
	bridge *bridge.Bridge
	host   *Module
	mod    api.Module
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	b, err := bridge.New(resource.NewHeap())
	require.NoError(t, err)
	m, err := New(b)
	require.NoError(t, err)
	mod, err := m.Instantiate(ctx, rt)
	require.NoError(t, err)

	return &fixture{ctx: ctx, bridge: b, host: m, mod: mod}
}

func (f *fixture) call(t *testing.T, name string, params ...uint64) []uint64 {
	t.Helper()
	results, err := f.host.Call(f.ctx, f.mod, name, params...)
	require.NoError(t, err)
	return results
}

func (f *fixture) wrap(t *testing.T, shape tensor.Shape) (resource.Handle, *tensor.Tensor) {
	t.Helper()
	x, err := tensor.New(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	t.Cleanup(x.Release)
	obj, err := f.bridge.Wrap(x)
	require.NoError(t, err)
	return obj.Handle(), x
}

func TestFlattenType(t *testing.T) {
	name := "tensor"
	res := &wit.TypeDef{Name: &name, Kind: &wit.Resource{}}

	tests := []struct {
		typ  wit.Type
		name string
		want []api.ValueType
	}{
		{name: "u32", typ: wit.U32{}, want: []api.ValueType{api.ValueTypeI32}},
		{name: "s64", typ: wit.S64{}, want: []api.ValueType{api.ValueTypeI64}},
		{name: "bool", typ: wit.Bool{}, want: []api.ValueType{api.ValueTypeI32}},
		{name: "f64", typ: wit.F64{}, want: []api.ValueType{api.ValueTypeF64}},
		{name: "string", typ: wit.String{}, want: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}},
		{name: "own", typ: &wit.TypeDef{Kind: &wit.Own{Type: res}}, want: []api.ValueType{api.ValueTypeI32}},
		{name: "borrow", typ: &wit.TypeDef{Kind: &wit.Borrow{Type: res}}, want: []api.ValueType{api.ValueTypeI32}},
		{name: "nil", typ: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenType(tt.typ))
		})
	}
}

func TestDefinitions(t *testing.T) {
	b, err := bridge.New(resource.NewHeap())
	require.NoError(t, err)
	m, err := New(b)
	require.NoError(t, err)

	assert.Equal(t, DefaultModuleName, m.Name())
	assert.Same(t, b, m.Bridge())

	sigs := map[string][2][]api.ValueType{}
	for _, f := range m.Definitions() {
		sigs[f.Name] = [2][]api.ValueType{f.ParamTypes(), f.ResultTypes()}
	}

	i32, i64 := api.ValueTypeI32, api.ValueTypeI64
	assert.Equal(t, [2][]api.ValueType{{i32}, {i32}}, sigs["is-tensor"])
	assert.Equal(t, [2][]api.ValueType{{i32}, {i64}}, sigs["numel"])
	assert.Equal(t, [2][]api.ValueType{{i32, i32}, {i64}}, sigs["dim"])
	assert.Equal(t, [2][]api.ValueType{{i32}, {i32}}, sigs["share"])
	assert.Equal(t, [2][]api.ValueType{{i32, i32}, {i32}}, sigs["same-storage"])
	assert.Equal(t, [2][]api.ValueType{nil, {i32}}, sigs["error-kind"])
	assert.Len(t, sigs, 9)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	b, err := bridge.New(resource.NewHeap())
	require.NoError(t, err)
	_, err = New(b, WithName(""))
	require.Error(t, err)

	m, err := New(b, WithName("example:tensor/ops"))
	require.NoError(t, err)
	assert.Equal(t, "example:tensor/ops", m.Name())
}

func TestIsTensor(t *testing.T) {
	f := setup(t)
	h, _ := f.wrap(t, tensor.Shape{2})
	n, err := f.bridge.Heap().NewInt(3)
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.DecodeI32(f.call(t, "is-tensor", uint64(h))[0]))
	assert.Equal(t, int32(0), api.DecodeI32(f.call(t, "is-tensor", uint64(n))[0]))
	assert.Equal(t, ErrorKindNone, api.DecodeI32(f.call(t, "error-kind")[0]))

	assert.Equal(t, int32(-1), api.DecodeI32(f.call(t, "is-tensor", 4242)[0]))
	assert.Equal(t, ErrorKindValue, api.DecodeI32(f.call(t, "error-kind")[0]))

	f.call(t, "clear-error")
	assert.Equal(t, ErrorKindNone, api.DecodeI32(f.call(t, "error-kind")[0]))
}

func TestShapeQueries(t *testing.T) {
	f := setup(t)
	h, _ := f.wrap(t, tensor.Shape{2, 3, 4})

	assert.Equal(t, int64(24), int64(f.call(t, "numel", uint64(h))[0]))
	assert.Equal(t, int32(3), api.DecodeI32(f.call(t, "rank", uint64(h))[0]))
	assert.Equal(t, int64(3), int64(f.call(t, "dim", uint64(h), 1)[0]))

	assert.Equal(t, int64(-1), int64(f.call(t, "dim", uint64(h), 3)[0]))
	err := f.bridge.Heap().TakeError()
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindOutOfBounds})

	// The borrow taken for each call has been returned
	require.NoError(t, f.bridge.Heap().Release(h))
	_, ok := f.bridge.Heap().Get(h)
	assert.False(t, ok)
}

func TestEmptyTensor(t *testing.T) {
	f := setup(t)
	h, _ := f.wrap(t, tensor.Shape{0})

	assert.Equal(t, int64(0), int64(f.call(t, "numel", uint64(h))[0]))
	assert.Equal(t, int32(1), api.DecodeI32(f.call(t, "rank", uint64(h))[0]))
}

func TestNonTensorArgument(t *testing.T) {
	f := setup(t)
	heap := f.bridge.Heap()
	n, _ := heap.NewInt(1)
	l, _ := heap.NewList(n)

	assert.Equal(t, int64(-1), int64(f.call(t, "numel", uint64(l))[0]))
	assert.Equal(t, ErrorKindType, api.DecodeI32(f.call(t, "error-kind")[0]))

	err := heap.TakeError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list")

	assert.Equal(t, uint64(0), f.call(t, "share", uint64(n))[0])
	assert.Contains(t, heap.TakeError().Error(), "int")
}

func TestShare(t *testing.T) {
	f := setup(t)
	heap := f.bridge.Heap()
	h, x := f.wrap(t, tensor.Shape{5})

	shared := resource.Handle(api.DecodeU32(f.call(t, "share", uint64(h))[0]))
	assert.NotEqual(t, h, shared)
	assert.False(t, heap.IsNone(shared))
	assert.Equal(t, uint64(1), f.call(t, "same-storage", uint64(h), uint64(shared))[0])

	other, _ := f.wrap(t, tensor.Shape{5})
	assert.Equal(t, uint64(0), f.call(t, "same-storage", uint64(h), uint64(other))[0])

	// x plus one reference per object
	assert.Equal(t, 3, x.Refs())

	f.call(t, "drop", uint64(shared))
	_, ok := heap.Get(shared)
	assert.False(t, ok)
	assert.Nil(t, heap.Err())
	assert.Equal(t, 2, x.Refs())
}

func TestShareFallsBackToNone(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	heap := resource.NewHeap(resource.WithCapacity(1))
	b, err := bridge.New(heap)
	require.NoError(t, err)
	m, err := New(b)
	require.NoError(t, err)
	mod, err := m.Instantiate(ctx, rt)
	require.NoError(t, err)

	x, err := tensor.New(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	defer x.Release()
	obj, err := b.Wrap(x)
	require.NoError(t, err)

	results, err := m.Call(ctx, mod, "share", uint64(obj.Handle()))
	require.NoError(t, err)
	assert.True(t, heap.IsNone(resource.Handle(results[0])))
	assert.Nil(t, heap.Err())
}

func TestDropInvalidHandle(t *testing.T) {
	f := setup(t)
	f.call(t, "drop", 777)
	assert.Equal(t, ErrorKindOther, api.DecodeI32(f.call(t, "error-kind")[0]))

	err := f.bridge.Heap().TakeError()
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindInvalidHandle})
	assert.ErrorIs(t, err, resource.ErrInvalidHandle)
}

func TestDimLargeIndex(t *testing.T) {
	f := setup(t)
	h, _ := f.wrap(t, tensor.Shape{2})

	assert.Equal(t, int64(-1), int64(f.call(t, "dim", uint64(h), 0xFFFFFFFF)[0]))
	assert.Equal(t, int64(-1), int64(f.call(t, "dim", uint64(h), 0x80000000)[0]))
	assert.Equal(t, int64(2), int64(f.call(t, "dim", uint64(h), 0)[0]))
}

func TestCallValidation(t *testing.T) {
	f := setup(t)

	_, err := f.host.Call(f.ctx, f.mod, "missing")
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindInvalidInput})

	_, err = f.host.Call(f.ctx, f.mod, "dim", 1)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindInvalidInput})

	results, err := f.host.Call(f.ctx, f.mod, "clear-error")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKindNone, KindOf(nil))
	assert.Equal(t, ErrorKindType, KindOf(errors.TypeError(errors.PhaseExtract, nil, "tensor", "int")))
	assert.Equal(t, ErrorKindValue, KindOf(bridge.Translate(resource.ErrClosed)))
	assert.Equal(t, ErrorKindOther, KindOf(resource.ErrClosed))
	assert.Equal(t, ErrorKindOther, KindOf(errors.OutOfBounds(errors.PhaseHost, nil, 3, 2)))
}
