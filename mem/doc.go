// Package mem implements the guest virtual address space consumed by the
// bridge: region-mapped memory with checked translation, a bump allocator
// for guest-visible objects, and lazily translated typed pointers.
//
// # Address Translation
//
// A Space maps guest regions to host byte slices:
//
//	space := mem.NewSpace()
//	space.MapRegion(0x8100_0000, 16*1024*1024)
//
//	view, err := space.Translate(addr, 256) // host slice aliasing guest bytes
//
// Translate fails, without touching memory, for any range outside a mapped
// region or crossing a region boundary. Address 0 is the null sentinel and
// always fails translation.
//
// # Typed Pointers
//
// Ptr[T] carries only a guest address. Translation happens at dereference,
// so a null pointer can be passed through a service call and tested by the
// handler without triggering a translation failure:
//
//	func handler(..., buf mem.Ptr[int16]) int32 {
//		if buf.IsNull() {
//			return bridge.RetErr(errInvalidPointer)
//		}
//		...
//	}
package mem
