package bridge

// RetErr encodes a module-defined status constant for the guest return
// register. Status codes carry the error flag in the top bit; converting
// through int32 guarantees the guest's signed comparison sees every error
// as negative and every success as non-negative.
func RetErr(code uint32) int32 {
	return int32(code)
}

// IsErr reports whether a status word decodes as a failure on the guest
// side.
func IsErr(status uint32) bool {
	return int32(status) < 0
}
