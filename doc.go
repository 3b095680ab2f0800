// Package wasmtensor converts native tensors to and from the reference
// counted objects of a WebAssembly host heap.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wasmtensor/
//	├── tensor/          Native tensor handles over shared storage (Born metadata)
//	├── resource/        Host object heap: handles, refcounts, none, pending error
//	├── native/          Raw check / wrap / unpack primitives, ownership-tagged handles
//	├── bridge/          Guard, wrap, unpack, error translation, conversion values
//	├── host/            wazero host module exposing the bridge to guests
//	├── config/          JSON configuration, validation and schema
//	├── errors/          Structured error types for debugging
//	└── cmd/tensorctl/   Demo and interactive heap inspector
//
// # Quick Start
//
//	heap := resource.NewHeap()
//	b, _ := bridge.New(heap)
//
//	t, _ := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	defer t.Release()
//
//	obj, _ := b.Wrap(t)           // new host object, same storage
//	defer obj.Release(heap)
//
//	u, _ := b.Unpack(obj.Borrow()) // nil for any non-tensor object
//	defer u.Release()
//
// # Conversion Values
//
// Host functions take and return bridge.Tensor:
//
//	arg, err := bridge.Extract(b, native.Borrow(h)) // type error for non-tensors
//	out := arg.Inject(b)                            // none if wrapping fails
//
// # Guests
//
//	m, _ := host.New(b)
//	mod, _ := m.Instantiate(ctx, rt)
//
// Guests import the functions from "wasm:tensor/ops@0.1.0" and read failures
// through error-kind.
package wasmtensor
