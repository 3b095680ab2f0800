package resource

// Handle is an opaque reference to a host object in a heap.
// Handle 0 is reserved and always invalid.
type Handle uint32

// TypeID identifies a registered host object type.
// TypeID 0 is reserved and always invalid.
type TypeID uint32

// Event types for object lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventRetained
	EventReleased
	EventBorrowed
	EventBorrowReturned
)

// String returns the event name.
func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	default:
		return "unknown"
	}
}

// Event represents an object lifecycle event.
type Event struct {
	Value    any
	Handle   Handle
	TypeID   TypeID
	RefCount uint32
	Type     EventType
}

// Observer receives notifications about object lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface. Function values
// are not comparable, so an ObserverFunc cannot be passed to Unsubscribe.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend provides the underlying storage mechanism for host objects.
type Backend interface {
	// Create stores a value with refcount 1 and returns a handle.
	Create(typeID TypeID, value any) (Handle, error)

	// CreateImmortal stores a value that Retain and Release leave alone.
	CreateImmortal(typeID TypeID, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// TypeID returns the registered type of a handle.
	TypeID(handle Handle) (TypeID, bool)

	// RefCount returns the number of owned references to a handle.
	RefCount(handle Handle) (uint32, bool)

	// Retain adds an owned reference and returns the new count.
	Retain(handle Handle) (uint32, error)

	// Release drops an owned reference. When the count reaches zero the
	// entry is freed and its value returned with dropped=true.
	Release(handle Handle) (value any, refs uint32, dropped bool, err error)

	// Borrow and ReturnBorrow track temporary loans of a live handle.
	Borrow(handle Handle) bool
	ReturnBorrow(handle Handle) bool

	// Len returns the number of live entries, immortal ones included.
	Len() int

	// Each iterates over live entries until fn returns false.
	Each(fn func(Handle, TypeID, any) bool)

	// Close releases all objects held by the backend and returns their values.
	Close() ([]any, error)

	// Closed reports whether Close has been called.
	Closed() bool
}

// TypedTable provides type-safe access to objects of a single type.
type TypedTable[T any] interface {
	// Insert adds a value and returns its handle.
	Insert(value T) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (T, bool)

	// Remove releases the handle and returns (value, true) if it was live.
	Remove(handle Handle) (T, bool)

	// Len returns the number of live objects of this type.
	Len() int

	// Each iterates over all live objects of this type.
	Each(func(Handle, T) bool)
}

// Dropper is optionally implemented by object values that need cleanup.
type Dropper interface {
	Drop()
}
