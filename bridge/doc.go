// Package bridge implements the guest/host call boundary: typed export
// declarations, the argument marshaler that moves values between the guest
// calling convention and native Go signatures, status-code encoding, and
// the debug formatter used by call tracing.
//
// # Export Contract
//
// A function export is an ordinary Go function with a fixed leading
// signature followed by arbitrarily many marshalable parameters:
//
//	func sceAudioInGetAdopt(env *emu.Env, tid cpu.ThreadID, name string,
//		portType PortType) int32 {
//		...
//	}
//
//	var exports = []bridge.Export{
//		bridge.Func(0xA8BB0701, "sceAudioInGetAdopt", sceAudioInGetAdopt),
//	}
//
// The wrapper for each signature is compiled once, at registration time,
// by reflecting over the handler type. A signature the convention cannot
// carry is a registration error, never a runtime one.
//
// Marshalable parameter types: bool, fixed-width integers up to 64 bits
// (including named enumeration types), float32/float64, mem.Address,
// mem.Ptr[T] (lazily translated), and by-value structs up to the
// convention's register-pass threshold (larger ones arrive as an address
// and are copied through translation).
//
// # Variable Exports
//
// A data-symbol export supplies a factory instead of a handler:
//
//	bridge.Var(0x895C4B70, "sceAudioInDefaults", func(env *emu.Env) (mem.Address, error) {
//		return env.Heap.Alloc(16, 4)
//	})
//
// The dispatcher materializes the object lazily and caches the address.
package bridge
