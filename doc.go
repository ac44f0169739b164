// Package hleruntime is a high-level-emulation call bridge for guest
// binaries. Guest service calls trap into the host, where a module
// registry resolves the numeric import identifier to a natively
// implemented handler and a marshaler moves arguments and results
// between the guest calling convention and typed Go signatures.
//
// The root package holds only the shared guest-memory contracts.
// See mem for the address space, bridge for the export/marshaling
// layer, registry for module aggregation and dispatch for the call
// dispatcher.
package hleruntime
