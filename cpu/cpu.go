// Package cpu defines the per-guest-thread register file the bridge reads
// and writes during a call. The execution engine owns thread state; the
// bridge holds a Thread only for the duration of one dispatched call.
package cpu

// ThreadID is a stable guest thread identifier.
type ThreadID int32

// Thread is the register-file view of one guest thread at a call boundary.
type Thread interface {
	ID() ThreadID

	// Reg and SetReg access general-purpose registers r0..r15.
	Reg(n int) uint32
	SetReg(n int, v uint32)

	SP() uint32
	SetSP(v uint32)
	PC() uint32
}

// NumRegs is the size of the general-purpose register file.
const NumRegs = 16

// Register indices with architectural roles.
const (
	RegSP = 13
	RegLR = 14
	RegPC = 15
)

// State is a concrete register file. The execution engine normally supplies
// its own Thread implementation; State backs tests and the call harness.
type State struct {
	regs [NumRegs]uint32
	id   ThreadID
}

// NewState creates a register file for the given thread identifier.
func NewState(id ThreadID) *State {
	return &State{id: id}
}

func (s *State) ID() ThreadID { return s.id }

func (s *State) Reg(n int) uint32 { return s.regs[n] }

func (s *State) SetReg(n int, v uint32) { s.regs[n] = v }

func (s *State) SP() uint32 { return s.regs[RegSP] }

func (s *State) SetSP(v uint32) { s.regs[RegSP] = v }

func (s *State) PC() uint32 { return s.regs[RegPC] }

var _ Thread = (*State)(nil)
