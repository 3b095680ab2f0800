package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend(0)

	handle, err := b.Create(TypeStr, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	refs, ok := b.RefCount(handle)
	if !ok || refs != 1 {
		t.Fatalf("Expected refcount 1, got %d", refs)
	}

	val, refs, dropped, err := b.Release(handle)
	if err != nil || !dropped {
		t.Fatalf("Release failed: dropped=%v err=%v", dropped, err)
	}
	if val != "test value" || refs != 0 {
		t.Fatalf("Unexpected release result %v/%d", val, refs)
	}

	if _, ok := b.Get(handle); ok {
		t.Fatal("Expected Get to fail after last Release")
	}
}

func TestLocalBackend_RetainRelease(t *testing.T) {
	b := NewLocalBackend(0)
	h, _ := b.Create(TypeInt, int64(1))

	refs, err := b.Retain(h)
	if err != nil || refs != 2 {
		t.Fatalf("Retain: refs=%d err=%v", refs, err)
	}

	_, refs, dropped, err := b.Release(h)
	if err != nil || dropped || refs != 1 {
		t.Fatalf("first Release: refs=%d dropped=%v err=%v", refs, dropped, err)
	}
	if _, ok := b.Get(h); !ok {
		t.Fatal("object should survive while a reference remains")
	}

	_, _, dropped, err = b.Release(h)
	if err != nil || !dropped {
		t.Fatalf("second Release: dropped=%v err=%v", dropped, err)
	}

	if _, _, _, err := b.Release(h); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Release of dead handle: got %v, want ErrInvalidHandle", err)
	}
	if _, err := b.Retain(h); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Retain of dead handle: got %v, want ErrInvalidHandle", err)
	}
}

func TestLocalBackend_Borrow(t *testing.T) {
	b := NewLocalBackend(0)
	handle, _ := b.Create(TypeInt, int64(100))

	if !b.Borrow(handle) {
		t.Fatal("Borrow failed")
	}

	// Cannot drop the last reference with outstanding borrow
	if _, _, _, err := b.Release(handle); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Release should fail with outstanding borrow, got %v", err)
	}

	// A non-final reference can still go away
	if _, err := b.Retain(handle); err != nil {
		t.Fatal(err)
	}
	if _, _, dropped, err := b.Release(handle); err != nil || dropped {
		t.Fatalf("non-final Release: dropped=%v err=%v", dropped, err)
	}

	if !b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow failed")
	}
	if b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow without borrow should fail")
	}

	if _, _, dropped, err := b.Release(handle); err != nil || !dropped {
		t.Fatalf("Release should succeed after returning borrow: %v", err)
	}
}

func TestLocalBackend_Immortal(t *testing.T) {
	b := NewLocalBackend(1)

	none, err := b.CreateImmortal(TypeNone, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, _, dropped, err := b.Release(none); err != nil || dropped {
			t.Fatalf("immortal Release: dropped=%v err=%v", dropped, err)
		}
	}
	if _, ok := b.Get(none); !ok {
		t.Fatal("immortal entry should stay live")
	}

	// Immortal entries do not count towards capacity
	if _, err := b.Create(TypeInt, int64(1)); err != nil {
		t.Fatalf("Create within capacity failed: %v", err)
	}
}

func TestLocalBackend_Capacity(t *testing.T) {
	b := NewLocalBackend(2)

	h1, _ := b.Create(TypeInt, int64(1))
	if _, err := b.Create(TypeInt, int64(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Create(TypeInt, int64(3)); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	b.Release(h1)
	if _, err := b.Create(TypeInt, int64(3)); err != nil {
		t.Fatalf("Create after release failed: %v", err)
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend(0)

	h1, _ := b.Create(TypeInt, int64(1))
	h2, _ := b.Create(TypeInt, int64(2))
	h3, _ := b.Create(TypeInt, int64(3))

	b.Release(h2)
	b.Release(h1)

	h4, _ := b.Create(TypeInt, int64(4))
	h5, _ := b.Create(TypeInt, int64(5))

	if h4 != h1 && h4 != h2 {
		t.Fatalf("expected freed slot reuse, got %d", h4)
	}

	for _, h := range []Handle{h3, h4, h5} {
		if _, ok := b.Get(h); !ok {
			t.Fatalf("handle %d should be valid", h)
		}
	}
	if v, _ := b.Get(h4); v != int64(4) {
		t.Fatalf("reused slot holds stale value %v", v)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend(0)

	b.Create(TypeInt, int64(1))
	b.Create(TypeInt, int64(2))

	values, err := b.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("Close returned %d values, want 2", len(values))
	}

	if _, err := b.Create(TypeInt, int64(3)); !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Close")
	}
	if !b.Closed() {
		t.Fatal("Closed() should report true")
	}

	values, err = b.Close()
	if err != nil || values != nil {
		t.Fatal("second Close should be a no-op")
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := b.Create(TypeInt, int64(id))
			b.Borrow(h)
			b.Retain(h)
			b.ReturnBorrow(h)
			b.Release(h)
			b.Release(h)
		}(i)
	}

	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected all objects released, %d left", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend(0)

	b.Create(TypeStr, "a")
	b.Create(TypeInt, int64(2))
	b.Create(TypeStr, "c")

	count := 0
	b.Each(func(h Handle, typeID TypeID, value any) bool {
		count++
		return true
	})
	if count != 3 {
		t.Fatalf("Expected to iterate over 3 items, got %d", count)
	}

	count = 0
	b.Each(func(h Handle, typeID TypeID, value any) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Expected to iterate over 1 item (early term), got %d", count)
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend(0)

	if _, ok := b.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, ok := b.TypeID(0); ok {
		t.Fatal("Handle 0 should be invalid for TypeID")
	}
	if b.Borrow(0) {
		t.Fatal("Handle 0 should fail Borrow")
	}
	if b.ReturnBorrow(0) {
		t.Fatal("Handle 0 should fail ReturnBorrow")
	}
	if _, _, _, err := b.Release(0); !errors.Is(err, ErrInvalidHandle) {
		t.Fatal("Handle 0 should fail Release")
	}
	if _, ok := b.Get(999); ok {
		t.Fatal("Non-existent handle should be invalid")
	}
}
