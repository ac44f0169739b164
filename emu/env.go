// Package emu holds the process-wide emulator environment passed into every
// service handler, and the once-only diagnostic reporter for unimplemented
// and stubbed calls.
package emu

import (
	"sync"

	hleruntime "github.com/openvita/hle-runtime"
	"github.com/openvita/hle-runtime/mem"
)

// Env is the shared emulator environment. It is created at session start,
// destroyed at session end, and is the only long-lived mutable state the
// bridge touches. Service modules keep their private state as sub-objects
// of the environment via State; the bridge provides no mutual exclusion
// over it, so each module guards its own.
type Env struct {
	// Mem is the guest address space.
	Mem *mem.Space

	// Heap allocates guest memory for variable-export materialization.
	Heap hleruntime.Allocator

	// Report is the once-only diagnostic facility handlers use for
	// unimplemented and stubbed calls.
	Report *Reporter

	stateMu sync.Mutex
	states  map[string]any
}

// NewEnv creates a session environment.
func NewEnv(space *mem.Space, heap hleruntime.Allocator, report *Reporter) *Env {
	return &Env{
		Mem:    space,
		Heap:   heap,
		Report: report,
		states: make(map[string]any),
	}
}

// State returns the module state registered under key, creating it with
// init on first use. Each module owns exactly one key; the returned pointer
// is stable for the session.
func State[T any](env *Env, key string, init func(*Env) *T) *T {
	env.stateMu.Lock()
	defer env.stateMu.Unlock()

	if v, ok := env.states[key]; ok {
		return v.(*T)
	}
	v := init(env)
	env.states[key] = v
	return v
}
