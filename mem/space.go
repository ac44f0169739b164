package mem

import (
	"encoding/binary"
	"sort"
	"sync"

	hleruntime "github.com/openvita/hle-runtime"
	"github.com/openvita/hle-runtime/errors"
)

// Address is a guest virtual address.
type Address = hleruntime.Address

// Null is the guest null address.
const Null = hleruntime.Null

// Memory is the guest memory contract consumed by the bridge.
type Memory = hleruntime.Memory

// Allocator allocates guest memory.
type Allocator = hleruntime.Allocator

type region struct {
	base Address
	data []byte
}

// Space is a region-mapped guest address space. Regions are mapped during
// session setup; translation and access are safe for concurrent use from
// guest threads afterwards.
type Space struct {
	regions []region
	mu      sync.RWMutex
}

// NewSpace creates an empty guest address space.
func NewSpace() *Space {
	return &Space{}
}

// MapRegion maps size bytes of fresh zeroed memory at base. Overlapping an
// existing region or mapping at the null address is a registration error.
func (s *Space) MapRegion(base Address, size uint32) error {
	if base == Null || size == 0 {
		return errors.InvalidInput(errors.PhaseMemory, "region base and size must be non-zero")
	}
	if uint64(base)+uint64(size) > 1<<32 {
		return errors.InvalidInput(errors.PhaseMemory, "region exceeds the 32-bit address space")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.regions {
		if base < r.base+Address(len(r.data)) && r.base < base+Address(size) {
			return errors.New(errors.PhaseMemory, errors.KindOverlap).
				Detail("region 0x%08X+%d overlaps 0x%08X+%d", base, size, r.base, len(r.data)).
				Build()
		}
	}

	s.regions = append(s.regions, region{base: base, data: make([]byte, size)})
	sort.Slice(s.regions, func(i, j int) bool {
		return s.regions[i].base < s.regions[j].base
	})
	return nil
}

// Translate returns a host slice aliasing length guest bytes at addr.
func (s *Space) Translate(addr Address, length uint32) ([]byte, error) {
	if addr == Null {
		return nil, errors.InvalidAddress(errors.PhaseMemory, 0, length)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Regions are sorted by base; find the last region starting at or
	// below addr.
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].base > addr
	}) - 1
	if i < 0 {
		return nil, errors.InvalidAddress(errors.PhaseMemory, uint32(addr), length)
	}

	r := s.regions[i]
	off := uint64(addr - r.base)
	if off+uint64(length) > uint64(len(r.data)) {
		return nil, errors.OutOfBounds(errors.PhaseMemory, uint32(addr), length, uint32(len(r.data)))
	}
	return r.data[off : off+uint64(length)], nil
}

// Read copies length bytes from guest memory.
func (s *Space) Read(addr Address, length uint32) ([]byte, error) {
	view, err := s.Translate(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

// Write copies data into guest memory.
func (s *Space) Write(addr Address, data []byte) error {
	view, err := s.Translate(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(view, data)
	return nil
}

func (s *Space) ReadU8(addr Address) (uint8, error) {
	view, err := s.Translate(addr, 1)
	if err != nil {
		return 0, err
	}
	return view[0], nil
}

func (s *Space) ReadU16(addr Address) (uint16, error) {
	view, err := s.Translate(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(view), nil
}

func (s *Space) ReadU32(addr Address) (uint32, error) {
	view, err := s.Translate(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(view), nil
}

func (s *Space) ReadU64(addr Address) (uint64, error) {
	view, err := s.Translate(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(view), nil
}

func (s *Space) WriteU8(addr Address, value uint8) error {
	view, err := s.Translate(addr, 1)
	if err != nil {
		return err
	}
	view[0] = value
	return nil
}

func (s *Space) WriteU16(addr Address, value uint16) error {
	view, err := s.Translate(addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(view, value)
	return nil
}

func (s *Space) WriteU32(addr Address, value uint32) error {
	view, err := s.Translate(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(view, value)
	return nil
}

func (s *Space) WriteU64(addr Address, value uint64) error {
	view, err := s.Translate(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(view, value)
	return nil
}

var _ Memory = (*Space)(nil)
