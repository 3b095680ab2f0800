// Package native is the unsafe boundary between native tensors and heap
// objects.
//
// It holds the three raw primitives (Check, Wrap, Unpack) and the
// ownership-tagged handle types they trade in. Nothing here validates that
// a caller's handle is still the object it believes it is: a handle that
// was released and reused refers to whatever now occupies the slot. Keep
// calls into this package few and audited; everything else goes through
// package bridge.
//
// Borrowed handles are lent for one call and never change reference
// counts. Owned handles carry one reference that must be released or
// handed on.
package native
