package mem

import (
	"sync"

	"github.com/openvita/hle-runtime/errors"
)

// BumpAllocator hands out guest memory from a mapped region, low to high.
// Free is a no-op except for the most recent allocation; variable-export
// materialization allocates once and never frees, which is all the bridge
// needs from it.
type BumpAllocator struct {
	base Address
	size uint32
	next uint32
	mu   sync.Mutex
}

// NewBumpAllocator creates an allocator over the already-mapped guest range
// [base, base+size).
func NewBumpAllocator(base Address, size uint32) *BumpAllocator {
	return &BumpAllocator{base: base, size: size}
}

// Alloc returns align-aligned guest memory of the given size.
func (a *BumpAllocator) Alloc(size, align uint32) (Address, error) {
	if size == 0 {
		return Null, errors.InvalidInput(errors.PhaseMemory, "zero-size allocation")
	}
	if align == 0 {
		align = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.next
	if rem := (uint32(a.base) + next) % align; rem != 0 {
		next += align - rem
	}
	if uint64(next)+uint64(size) > uint64(a.size) {
		return Null, errors.AllocationFailed(size, align)
	}

	addr := a.base + Address(next)
	a.next = next + size
	return addr, nil
}

// Free releases an allocation if it was the most recent one.
func (a *BumpAllocator) Free(addr Address, size uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if addr+Address(size) == a.base+Address(a.next) {
		a.next = uint32(addr - a.base)
	}
}

var _ Allocator = (*BumpAllocator)(nil)
