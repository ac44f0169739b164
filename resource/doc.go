// Package resource provides the keyed handle table service modules build
// their critical sections on.
//
// The bridge dispatches concurrently into the same module from different
// guest threads and provides no implicit mutual exclusion, so a module's
// shared resources (ports, sockets, open files) live in a Table: a mapping
// from handle to resource state guarded by one mutex, exposing atomic
// find-or-fail and insert-if-absent operations.
//
//	ports := resource.NewTable[*Port](1) // the hardware has one input port
//
//	h, ok := ports.Insert(p)   // fails when the table is full
//	p, ok := ports.Get(h)      // find-or-fail
//	p, ok := ports.Remove(h)   // second remove of the same handle fails
//
// Handle 0 is reserved and always invalid. Values implementing Dropper get
// Drop() called on removal and on Close, so host-side resources are not
// double-freed when a guest releases twice.
package resource
