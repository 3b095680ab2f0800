// Package errors provides structured error types for the tensor bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the argument path, Go and host type names, and a cause chain.
//
// Use convenience constructors for common patterns:
//
//	err := errors.TypeError(errors.PhaseExtract, nil, "tensor", "int")
//	err := errors.ValueError(errors.PhaseNative, "heap closed", cause)
//	err := errors.NotInitialized(errors.PhaseNative, "heap", resource.ErrClosed)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind only, so a bare &Error{Phase, Kind} works as a
// target.
package errors
