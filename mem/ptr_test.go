package mem

import "testing"

func TestPtr_NullIsLegalUntilDereference(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x100); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	p := P[int32](Null)
	if !p.IsNull() {
		t.Fatal("expected null pointer")
	}
	// Carrying a null pointer is fine; only dereference fails.
	if _, err := p.Get(s); err == nil {
		t.Fatal("expected dereference of null to fail")
	}
}

func TestPtr_ScalarRoundTrip(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x100); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	p := P[int32](0x8100_0010)
	if err := p.Set(s, -123456); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := p.Get(s)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != -123456 {
		t.Fatalf("expected -123456, got %d", v)
	}

	// Sign bit lives in the top byte, little-endian.
	raw, _ := s.ReadU32(0x8100_0010)
	if int32(raw) != -123456 {
		t.Fatalf("raw guest word 0x%08X does not reinterpret to -123456", raw)
	}
}

func TestPtr_StructRoundTrip(t *testing.T) {
	type portConfig struct {
		Freq  int32
		Grain int32
		Param uint32
	}

	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x100); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	p := P[portConfig](0x8100_0020)
	want := portConfig{Freq: 16000, Grain: 256, Param: 0}
	if err := p.Set(s, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := p.Get(s)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}
}

func TestPtr_SliceAccess(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x1000); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	p := P[int16](0x8100_0100)
	samples := []int16{0, 1, -1, 32767, -32768}
	if err := p.SetN(s, samples); err != nil {
		t.Fatalf("SetN: %v", err)
	}
	got, err := p.GetN(s, uint32(len(samples)))
	if err != nil {
		t.Fatalf("GetN: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d: %d != %d", i, got[i], samples[i])
		}
	}
}

func TestPtr_OutOfRange(t *testing.T) {
	s := NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x10); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}

	p := P[int64](0x8100_000C) // 8 bytes would cross the region end
	if _, err := p.Get(s); err == nil {
		t.Fatal("expected boundary-crossing dereference to fail")
	}
}
