package bridge

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/openvita/hle-runtime/mem"
)

// Per-type debug formatters, keyed by concrete type. Modules register a
// formatter for each enumeration they introduce; everything else falls
// back to a numeric rendering so tracing never fails on unknown values.
var (
	fmtMu      sync.RWMutex
	formatters = make(map[reflect.Type]func(any) string)
)

// RegisterDebugStr installs the debug formatter for T. A module's
// enumeration formatter should map known enumerants to their symbolic
// names and fall back to the numeric value for anything else.
func RegisterDebugStr[T any](fn func(T) string) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	fmtMu.Lock()
	formatters[t] = func(v any) string { return fn(v.(T)) }
	fmtMu.Unlock()
}

// guestPointer matches mem.Ptr[T] of any T.
type guestPointer interface {
	Addr() mem.Address
	IsNull() bool
}

// DebugStr renders any marshaled value as a display token for tracing.
// Registered enumeration formatters take precedence; the numeric fallback
// is unconditional so forward-compatible values still trace.
func DebugStr(v any) string {
	if v == nil {
		return "null"
	}

	t := reflect.TypeOf(v)
	fmtMu.RLock()
	f := formatters[t]
	fmtMu.RUnlock()
	if f != nil {
		return f(v)
	}

	if p, ok := v.(guestPointer); ok {
		if p.IsNull() {
			return "null"
		}
		return fmt.Sprintf("0x%08X", uint32(p.Addr()))
	}
	if a, ok := v.(mem.Address); ok {
		if a == mem.Null {
			return "null"
		}
		return fmt.Sprintf("0x%08X", uint32(a))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return fmt.Sprintf("%t", rv.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u >= 0x8000_0000 {
			// Status-code territory; hex reads better than a huge decimal.
			return fmt.Sprintf("0x%08X", u)
		}
		return fmt.Sprintf("%d", u)
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", rv.Float())
	case reflect.Struct:
		return fmt.Sprintf("%+v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
