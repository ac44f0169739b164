package resource

import (
	"sync"
)

// Handle is an opaque reference to a resource in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop()
}

type entry[T any] struct {
	value T
	valid bool
}

// Table maps handles to resource values behind a single mutex. A zero
// capacity means unbounded.
type Table[T any] struct {
	mu       sync.Mutex
	entries  []entry[T]
	freeList []Handle
	capacity int
	closed   bool
}

// NewTable creates a table. capacity limits the number of live resources;
// 0 means unbounded.
func NewTable[T any](capacity int) *Table[T] {
	return &Table[T]{
		entries:  make([]entry[T], 0, 8),
		capacity: capacity,
	}
}

// Insert adds a value and returns its handle. It fails when the table is
// closed or at capacity; the insert-if-absent check and the slot claim are
// one atomic step.
func (t *Table[T]) Insert(value T) (Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, false
	}
	if t.capacity > 0 && t.liveLocked() >= t.capacity {
		return 0, false
	}

	e := entry[T]{value: value, valid: true}
	if len(t.freeList) > 0 {
		h := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = e
		return h, true
	}
	t.entries = append(t.entries, e)
	return Handle(len(t.entries)), true
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	var zero T
	if handle == 0 {
		return zero, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := int(handle) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return zero, false
	}
	return t.entries[idx].value, true
}

// Remove drops a resource and returns (value, true) if it was live. A
// second remove of the same handle fails without touching the value, so
// underlying host resources are never double-freed.
func (t *Table[T]) Remove(handle Handle) (T, bool) {
	var zero T
	if handle == 0 {
		return zero, false
	}

	t.mu.Lock()
	idx := int(handle) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		t.mu.Unlock()
		return zero, false
	}
	value := t.entries[idx].value
	t.entries[idx] = entry[T]{}
	t.freeList = append(t.freeList, handle)
	t.mu.Unlock()

	if d, ok := any(value).(Dropper); ok {
		d.Drop()
	}
	return value, true
}

// Len returns the number of live resources.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.liveLocked()
}

// Each iterates over live resources. The table lock is held for the whole
// iteration; fn must not call back into the table.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].valid {
			if !fn(Handle(i+1), t.entries[i].value) {
				return
			}
		}
	}
}

// Close drops all resources and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	var dropped []T
	for i := range t.entries {
		if t.entries[i].valid {
			dropped = append(dropped, t.entries[i].value)
			t.entries[i] = entry[T]{}
		}
	}
	t.entries = nil
	t.freeList = nil
	t.mu.Unlock()

	for _, v := range dropped {
		if d, ok := any(v).(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (t *Table[T]) liveLocked() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}
