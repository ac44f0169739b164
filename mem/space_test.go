package mem

import (
	"errors"
	"testing"

	bridgeerr "github.com/openvita/hle-runtime/errors"
)

func TestSpace_MapAndTranslate(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x1000); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	view, err := s.Translate(0x8100_0010, 16)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(view) != 16 {
		t.Fatalf("expected 16-byte view, got %d", len(view))
	}

	// Views alias guest memory.
	view[0] = 0xAB
	b, err := s.ReadU8(0x8100_0010)
	if err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if b != 0xAB {
		t.Fatalf("expected aliased write, got 0x%02X", b)
	}
}

func TestSpace_TranslateFailures(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x1000); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	tests := []struct {
		name   string
		addr   Address
		length uint32
	}{
		{"null address", Null, 4},
		{"below all regions", 0x1000, 4},
		{"past region end", 0x8100_1000, 4},
		{"crossing region end", 0x8100_0FFE, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Translate(tt.addr, tt.length); err == nil {
				t.Fatalf("expected translation failure for 0x%08X+%d", tt.addr, tt.length)
			}
		})
	}
}

func TestSpace_MapRegionOverlap(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x1000); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	err := s.MapRegion(0x8100_0800, 0x1000)
	if err == nil {
		t.Fatal("expected overlap to be rejected")
	}
	if !errors.Is(err, &bridgeerr.Error{Phase: bridgeerr.PhaseMemory, Kind: bridgeerr.KindOverlap}) {
		t.Fatalf("expected overlap kind, got %v", err)
	}
}

func TestSpace_Accessors(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x100); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	if err := s.WriteU32(0x8100_0000, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	v32, err := s.ReadU32(0x8100_0000)
	if err != nil || v32 != 0xDEADBEEF {
		t.Fatalf("ReadU32 = 0x%08X, %v", v32, err)
	}

	// Little-endian layout.
	lo, _ := s.ReadU8(0x8100_0000)
	if lo != 0xEF {
		t.Fatalf("expected little-endian low byte 0xEF, got 0x%02X", lo)
	}

	if err := s.WriteU64(0x8100_0010, 0x0102030405060708); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	v64, err := s.ReadU64(0x8100_0010)
	if err != nil || v64 != 0x0102030405060708 {
		t.Fatalf("ReadU64 = 0x%016X, %v", v64, err)
	}

	if err := s.Write(0x8100_0020, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := s.Read(0x8100_0020, 3)
	if err != nil || data[0] != 1 || data[2] != 3 {
		t.Fatalf("Read = %v, %v", data, err)
	}
}

func TestSpace_MultipleRegions(t *testing.T) {
	s := NewSpace()
	// Map out of order; lookup must still find the right region.
	if err := s.MapRegion(0x9000_0000, 0x100); err != nil {
		t.Fatalf("MapRegion high: %v", err)
	}
	if err := s.MapRegion(0x8100_0000, 0x100); err != nil {
		t.Fatalf("MapRegion low: %v", err)
	}

	if err := s.WriteU32(0x9000_0000, 1); err != nil {
		t.Fatalf("WriteU32 high: %v", err)
	}
	if err := s.WriteU32(0x8100_0000, 2); err != nil {
		t.Fatalf("WriteU32 low: %v", err)
	}

	// Gap between regions is unmapped.
	if _, err := s.Translate(0x8100_0100, 4); err == nil {
		t.Fatal("expected gap between regions to be unmapped")
	}
}

func TestBumpAllocator(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8200_0000, 0x1000); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	a := NewBumpAllocator(0x8200_0000, 0x1000)

	p1, err := a.Alloc(16, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p1%8 != 0 {
		t.Fatalf("allocation not aligned: 0x%08X", p1)
	}

	p2, err := a.Alloc(10, 4)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p2 < p1+16 {
		t.Fatalf("allocations overlap: 0x%08X after 0x%08X+16", p2, p1)
	}
	if p2%4 != 0 {
		t.Fatalf("allocation not aligned: 0x%08X", p2)
	}

	// Allocated memory is translatable.
	if _, err := s.Translate(p1, 16); err != nil {
		t.Fatalf("allocated range not mapped: %v", err)
	}

	if _, err := a.Alloc(0x2000, 4); err == nil {
		t.Fatal("expected exhaustion")
	}
}
