// Package errors provides structured error types for the HLE bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the module name, NID and Go type involved
// so registration failures point straight at the offending export table.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRegister, errors.KindDuplicateNID).
//		Module("SceAudioIn").
//		NID(0x39B50DC1).
//		Detail("export already registered").
//		Build()
//
// Or the convenience constructors for common patterns:
//
//	err := errors.BadSignature(errors.PhaseRegister, "sceAudioInOpenPort", "chan int")
//	err := errors.InvalidAddress(errors.PhaseMemory, addr, 16)
//
// All errors implement the standard error interface and support errors.Is/As.
// Registration-phase errors are fatal at startup; the bridge never surfaces a
// Go error to guest code at dispatch time.
package errors
