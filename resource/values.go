package resource

// List is the value stored behind a list object. It owns one reference to
// each of its items.
type List struct {
	heap  *Heap
	items []Handle
}

// Items returns the item handles. The slice must not be modified.
func (l *List) Items() []Handle {
	return l.items
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.items)
}

// Drop releases the references held on the items.
func (l *List) Drop() {
	for _, item := range l.items {
		_ = l.heap.Release(item)
	}
	l.items = nil
}

// NewBool creates a bool object.
func (h *Heap) NewBool(v bool) (Handle, error) {
	return h.Insert(TypeBool, v)
}

// NewInt creates an int object.
func (h *Heap) NewInt(v int64) (Handle, error) {
	return h.Insert(TypeInt, v)
}

// NewFloat creates a float object.
func (h *Heap) NewFloat(v float64) (Handle, error) {
	return h.Insert(TypeFloat, v)
}

// NewStr creates a str object.
func (h *Heap) NewStr(v string) (Handle, error) {
	return h.Insert(TypeStr, v)
}

// NewList creates a list object holding a new reference to each item.
// On failure every reference taken so far is given back.
func (h *Heap) NewList(items ...Handle) (Handle, error) {
	held := make([]Handle, 0, len(items))
	for _, item := range items {
		if err := h.Retain(item); err != nil {
			for _, r := range held {
				_ = h.Release(r)
			}
			return 0, err
		}
		held = append(held, item)
	}

	handle, err := h.Insert(TypeList, &List{heap: h, items: held})
	if err != nil {
		for _, r := range held {
			_ = h.Release(r)
		}
		return 0, err
	}
	return handle, nil
}
