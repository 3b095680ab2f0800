// Package tensor provides the native tensor handle exchanged with the host
// object heap.
//
// A Tensor is metadata (Born Shape, DataType and Device) over a
// reference-counted storage buffer. Clone hands out another handle on the
// same storage; Release gives one back; storage is freed with its last
// handle. No arithmetic lives here: computation belongs to Born, and
// FromRaw adopts a Born RawTensor without copying.
//
//	raw, _ := borntensor.NewRaw(borntensor.Shape{2, 3}, borntensor.Float32, borntensor.CPU)
//	t, _ := tensor.FromRaw(raw)
//	defer t.Release()
//
//	view, _ := t.Clone() // shares storage
//	defer view.Release()
package tensor
