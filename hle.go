package hleruntime

// Address is a guest virtual address. Address 0 is the canonical null
// sentinel and is never translated.
type Address uint32

// Null is the guest null address.
const Null Address = 0

// Memory represents the guest virtual address space as seen by the bridge.
// All multi-byte accessors are little-endian.
type Memory interface {
	// Translate returns a host slice aliasing length guest bytes at addr.
	// It fails, without reading, for ranges outside any mapped region or
	// crossing a region boundary.
	Translate(addr Address, length uint32) ([]byte, error)

	Read(addr Address, length uint32) ([]byte, error)
	Write(addr Address, data []byte) error
	ReadU8(addr Address) (uint8, error)
	ReadU16(addr Address) (uint16, error)
	ReadU32(addr Address) (uint32, error)
	ReadU64(addr Address) (uint64, error)
	WriteU8(addr Address, value uint8) error
	WriteU16(addr Address, value uint16) error
	WriteU32(addr Address, value uint32) error
	WriteU64(addr Address, value uint64) error
}

// Allocator allocates guest memory. Used for variable-export
// materialization; the bookkeeping behind it is not the bridge's concern.
type Allocator interface {
	Alloc(size, align uint32) (Address, error)
	Free(addr Address, size uint32)
}
