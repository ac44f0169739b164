// Package abi pins down the guest calling convention the marshaler works
// against: AAPCS as used by the target's userland ABI. Four 32-bit argument
// registers r0-r3, further arguments on the guest stack at [SP+0] ascending,
// 64-bit values in an even-aligned register pair or an 8-byte-aligned stack
// slot, result in r0 (r0:r1 for 64-bit).
package abi

import (
	"encoding/binary"

	hleruntime "github.com/openvita/hle-runtime"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/errors"
)

const (
	// NumArgRegs is the number of argument registers (r0-r3).
	NumArgRegs = 4

	// WordSize is the argument word size in bytes.
	WordSize = 4

	// RetReg receives the result; RetRegHigh the high half of a 64-bit one.
	RetReg     = 0
	RetRegHigh = 1

	// AggregateWordLimit is the register-pass threshold for by-value
	// aggregates, in argument words. Larger aggregates are passed as an
	// address to guest memory.
	AggregateWordLimit = 4
)

// ArgCursor walks a call's argument words in convention order: registers
// first, then the guest stack. A cursor is scoped to a single dispatch.
type ArgCursor struct {
	th    cpu.Thread
	mem   hleruntime.Memory
	reg   int
	stack uint32
}

// NewArgCursor starts a cursor at the first argument register.
func NewArgCursor(th cpu.Thread, mem hleruntime.Memory) *ArgCursor {
	return &ArgCursor{th: th, mem: mem}
}

// NextWord yields the next 32-bit argument word.
func (c *ArgCursor) NextWord() (uint32, error) {
	if c.reg < NumArgRegs {
		v := c.th.Reg(c.reg)
		c.reg++
		return v, nil
	}
	addr := hleruntime.Address(c.th.SP() + c.stack)
	v, err := c.mem.ReadU32(addr)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindInvalidAddress, err, "stack argument read")
	}
	c.stack += WordSize
	return v, nil
}

// NextPair yields the next 64-bit argument from an even-aligned register
// pair or an 8-byte-aligned stack slot. The skipped odd register or stack
// word is dead per the convention.
func (c *ArgCursor) NextPair() (uint64, error) {
	if c.reg < NumArgRegs {
		if c.reg%2 != 0 {
			c.reg++
		}
		if c.reg+1 < NumArgRegs {
			lo := uint64(c.th.Reg(c.reg))
			hi := uint64(c.th.Reg(c.reg + 1))
			c.reg += 2
			return hi<<32 | lo, nil
		}
		// Registers exhausted mid-alignment; the value moves wholly to
		// the stack.
		c.reg = NumArgRegs
	}
	if c.stack%8 != 0 {
		c.stack += WordSize
	}
	addr := hleruntime.Address(c.th.SP() + c.stack)
	v, err := c.mem.ReadU64(addr)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindInvalidAddress, err, "stack argument read")
	}
	c.stack += 8
	return v, nil
}

// Block yields n consecutive argument words as little-endian bytes. Small
// by-value aggregates are reconstructed from this block.
func (c *ArgCursor) Block(n int) ([]byte, error) {
	out := make([]byte, 0, n*WordSize)
	for i := 0; i < n; i++ {
		w, err := c.NextWord()
		if err != nil {
			return nil, err
		}
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out, nil
}

// WriteRet32 places a 32-bit result in the return register.
func WriteRet32(th cpu.Thread, v uint32) {
	th.SetReg(RetReg, v)
}

// WriteRet64 places a 64-bit result in the return register pair.
func WriteRet64(th cpu.Thread, v uint64) {
	th.SetReg(RetReg, uint32(v))
	th.SetReg(RetRegHigh, uint32(v>>32))
}
