package abi

import (
	"testing"

	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/mem"
)

func newCallFrame(t *testing.T) (*cpu.State, *mem.Space) {
	t.Helper()
	s := mem.NewSpace()
	if err := s.MapRegion(0x8100_0000, 0x1000); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	th := cpu.NewState(1)
	th.SetSP(0x8100_0800)
	return th, s
}

func TestArgCursor_RegistersThenStack(t *testing.T) {
	th, s := newCallFrame(t)
	for i := 0; i < NumArgRegs; i++ {
		th.SetReg(i, uint32(10+i))
	}
	// Fifth and sixth arguments spill to [SP+0], [SP+4].
	if err := s.WriteU32(mem.Address(th.SP()), 14); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU32(mem.Address(th.SP()+4), 15); err != nil {
		t.Fatal(err)
	}

	c := NewArgCursor(th, s)
	for want := uint32(10); want <= 15; want++ {
		got, err := c.NextWord()
		if err != nil {
			t.Fatalf("NextWord: %v", err)
		}
		if got != want {
			t.Fatalf("argument word %d: got %d", want-10, got)
		}
	}
}

func TestArgCursor_PairAlignment(t *testing.T) {
	th, s := newCallFrame(t)
	th.SetReg(0, 7)
	// r1 is dead: the pair aligns to r2:r3.
	th.SetReg(2, 0xDDCCBBAA)
	th.SetReg(3, 0x11223344)

	c := NewArgCursor(th, s)
	w, err := c.NextWord()
	if err != nil || w != 7 {
		t.Fatalf("NextWord = %d, %v", w, err)
	}
	pair, err := c.NextPair()
	if err != nil {
		t.Fatalf("NextPair: %v", err)
	}
	if pair != 0x11223344DDCCBBAA {
		t.Fatalf("pair = 0x%016X", pair)
	}
}

func TestArgCursor_PairSpillsWhole(t *testing.T) {
	th, s := newCallFrame(t)
	th.SetReg(0, 1)
	th.SetReg(1, 2)
	th.SetReg(2, 3)
	// r3 alone cannot hold a pair; the value moves wholly to the stack at
	// an 8-byte-aligned slot.
	if err := s.WriteU64(mem.Address(th.SP()), 0x0102030405060708); err != nil {
		t.Fatal(err)
	}

	c := NewArgCursor(th, s)
	for i := 0; i < 3; i++ {
		if _, err := c.NextWord(); err != nil {
			t.Fatalf("NextWord: %v", err)
		}
	}
	pair, err := c.NextPair()
	if err != nil {
		t.Fatalf("NextPair: %v", err)
	}
	if pair != 0x0102030405060708 {
		t.Fatalf("pair = 0x%016X", pair)
	}
}

func TestArgCursor_Block(t *testing.T) {
	th, s := newCallFrame(t)
	th.SetReg(0, 0x04030201)
	th.SetReg(1, 0x08070605)

	c := NewArgCursor(th, s)
	b, err := c.Block(2)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	for i := 0; i < 8; i++ {
		if b[i] != byte(i+1) {
			t.Fatalf("block byte %d = 0x%02X", i, b[i])
		}
	}
}

func TestArgCursor_StackReadFailure(t *testing.T) {
	th := cpu.NewState(1)
	th.SetSP(0xDEAD0000) // unmapped
	s := mem.NewSpace()

	c := NewArgCursor(th, s)
	for i := 0; i < NumArgRegs; i++ {
		if _, err := c.NextWord(); err != nil {
			t.Fatalf("register word %d: %v", i, err)
		}
	}
	if _, err := c.NextWord(); err == nil {
		t.Fatal("expected unmapped stack read to fail")
	}
}

func TestWriteRet(t *testing.T) {
	th := cpu.NewState(1)

	WriteRet32(th, 0x80260104)
	if th.Reg(RetReg) != 0x80260104 {
		t.Fatalf("r0 = 0x%08X", th.Reg(RetReg))
	}
	// Top-bit status codes reinterpret as negative on the guest side.
	if int32(th.Reg(RetReg)) >= 0 {
		t.Fatal("expected negative signed reinterpretation")
	}

	WriteRet64(th, 0x11223344AABBCCDD)
	if th.Reg(RetReg) != 0xAABBCCDD || th.Reg(RetRegHigh) != 0x11223344 {
		t.Fatalf("r0:r1 = 0x%08X:0x%08X", th.Reg(RetReg), th.Reg(RetRegHigh))
	}
}
