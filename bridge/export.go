package bridge

import (
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/mem"
)

// VarFactory materializes a guest-visible object for a data-symbol export
// and returns its guest address. Called at most once per session; the
// resolver caches the result.
type VarFactory func(env *emu.Env) (mem.Address, error)

// Export declares one entry of a module's export table: a numeric import
// identifier bound to either a callable handler or a variable factory.
// Export tables are static per-module values; nothing mutates them after
// registration.
type Export struct {
	// Handler is the typed Go function for a function export; nil for
	// variable exports. Its wrapper is compiled by registry construction.
	Handler any

	// Factory materializes a variable export; nil for function exports.
	Factory VarFactory

	// Name is the display name used for tracing and diagnostics.
	Name string

	// NID is the import identifier, unique within the module.
	NID uint32
}

// Func declares a function export.
func Func(nid uint32, name string, handler any) Export {
	return Export{NID: nid, Name: name, Handler: handler}
}

// Var declares a variable export.
func Var(nid uint32, name string, factory VarFactory) Export {
	return Export{NID: nid, Name: name, Factory: factory}
}

// IsVar reports whether the export is a data symbol.
func (e Export) IsVar() bool { return e.Factory != nil }

// Module is a service module's static registration: its name, the firmware
// version it models, and its export table.
type Module struct {
	Name    string
	Version string
	Exports []Export
}
