package mem

import (
	"bytes"
	"encoding/binary"

	"github.com/openvita/hle-runtime/errors"
)

// Ptr is a typed guest pointer. It carries only the guest address;
// translation is deferred until the pointer is dereferenced, so null
// pointers travel through the call bridge legally.
//
// T must have a fixed binary size (scalars or structs of scalars); guest
// data is little-endian.
type Ptr[T any] struct {
	addr Address
}

// P constructs a typed pointer from a guest address.
func P[T any](addr Address) Ptr[T] {
	return Ptr[T]{addr: addr}
}

// Addr returns the guest address.
func (p Ptr[T]) Addr() Address { return p.addr }

// IsNull reports whether the pointer is the null sentinel.
func (p Ptr[T]) IsNull() bool { return p.addr == Null }

// SetAddr rebinds the pointer. The marshaler uses this to construct
// pointer arguments from a register word.
func (p *Ptr[T]) SetAddr(a Address) { p.addr = a }

// Size returns the pointee's guest size in bytes.
func (p Ptr[T]) Size() (uint32, error) {
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		return 0, errors.New(errors.PhaseMemory, errors.KindUnsupportedType).
			Detail("pointee has no fixed binary size").
			Build()
	}
	return uint32(n), nil
}

// Get reads the pointee from guest memory.
func (p Ptr[T]) Get(m Memory) (T, error) {
	var v T
	size, err := p.Size()
	if err != nil {
		return v, err
	}
	view, err := m.Translate(p.addr, size)
	if err != nil {
		return v, err
	}
	if err := binary.Read(bytes.NewReader(view), binary.LittleEndian, &v); err != nil {
		return v, errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "decode pointee")
	}
	return v, nil
}

// Set writes the pointee into guest memory.
func (p Ptr[T]) Set(m Memory, v T) error {
	size, err := p.Size()
	if err != nil {
		return err
	}
	view, err := m.Translate(p.addr, size)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(int(size))
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "encode pointee")
	}
	copy(view, buf.Bytes())
	return nil
}

// GetN reads n consecutive pointees starting at the pointer.
func (p Ptr[T]) GetN(m Memory, n uint32) ([]T, error) {
	size, err := p.Size()
	if err != nil {
		return nil, err
	}
	view, err := m.Translate(p.addr, size*n)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	if err := binary.Read(bytes.NewReader(view), binary.LittleEndian, out); err != nil {
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "decode pointees")
	}
	return out, nil
}

// SetN writes consecutive pointees starting at the pointer.
func (p Ptr[T]) SetN(m Memory, vs []T) error {
	size, err := p.Size()
	if err != nil {
		return err
	}
	view, err := m.Translate(p.addr, size*uint32(len(vs)))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(len(view))
	if err := binary.Write(&buf, binary.LittleEndian, vs); err != nil {
		return errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "encode pointees")
	}
	copy(view, buf.Bytes())
	return nil
}

// Bytes returns a host view of n raw bytes at the pointer.
func (p Ptr[T]) Bytes(m Memory, n uint32) ([]byte, error) {
	return m.Translate(p.addr, n)
}
