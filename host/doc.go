// Package host exposes a tensor bridge to WebAssembly guests as a wazero
// host module.
//
// Signatures are declared with WIT types and flattened to core value types:
//
//	is-tensor:    func(obj: u32) -> s32
//	numel:        func(t: borrow<tensor>) -> s64
//	rank:         func(t: borrow<tensor>) -> s32
//	dim:          func(t: borrow<tensor>, i: u32) -> s64
//	share:        func(t: borrow<tensor>) -> own<tensor>
//	same-storage: func(a: borrow<tensor>, b: borrow<tensor>) -> bool
//	drop:         func(obj: u32)  releases one owned reference
//	error-kind:   func() -> s32
//	clear-error:  func()
//
// Guests cannot receive Go errors. A failing call returns a sentinel (-1
// for counts, 0 for handles) and leaves the error pending on the heap;
// error-kind reports its kind and clear-error drops it.
//
// Usage:
//
//	b, _ := bridge.New(resource.NewHeap())
//	m, _ := host.New(b)
//	mod, err := m.Instantiate(ctx, rt)
//	if err != nil {
//	    return err
//	}
//
// wazero refuses Go calls to a host module's exports; Call runs a function
// through the same stack a guest import uses:
//
//	res, err := m.Call(ctx, mod, "numel", uint64(h))
package host
