// Package bridge converts between native tensors and host objects.
//
// Three operations form the boundary:
//
//	IsTensor(h)  is h a wrapped tensor? never touches reference counts
//	Wrap(t)      new host object sharing t's storage, owned by the caller
//	Unpack(h)    tensor sharing h's storage, or nil when h is not a tensor
//
// Unpack always runs the type check first; the native unpack is never
// attempted on a non-tensor object.
//
// # Conversion values
//
// Tensor is the value host functions declare for tensor arguments and
// results. Extract (or Tensor.FromHost) applies check and unpack, failing
// with a type error that names the object's actual type:
//
//	arg, err := bridge.Extract(b, native.Borrow(h))
//	// err: [extract] type_error: host type list - expected a tensor, got list
//	defer arg.Release()
//
// Injection has two forms. TryInject reports failures. Inject (and
// Tensor.ToHost) cannot fail: when wrapping fails it returns the heap's
// none singleton, so callers that need a tensor must check for none.
//
// # Errors
//
// Native failures are plain Go errors from package native. Translate turns
// one into a value error for the host side. Type mismatches are not errors
// until extraction.
package bridge
