package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // export table compilation
	PhaseResolve  Phase = "resolve"  // registry lookup
	PhaseMarshal  Phase = "marshal"  // guest convention to Go values
	PhaseInvoke   Phase = "invoke"   // handler execution
	PhaseEncode   Phase = "encode"   // Go return value to guest register
	PhaseMemory   Phase = "memory"   // guest address translation
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateNID    Kind = "duplicate_nid"
	KindBadSignature    Kind = "bad_signature"
	KindUnsupportedType Kind = "unsupported_type"
	KindInvalidAddress  Kind = "invalid_address"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindOverlap         Kind = "overlap"
	KindAllocation      Kind = "allocation"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidVersion  Kind = "invalid_version"
	KindRegistration    Kind = "registration"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Module  string
	Export  string
	GoType  string
	Detail  string
	NID     uint32
	HasNID  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" || e.Export != "" || e.HasNID {
		b.WriteString(" at ")
		if e.Module != "" {
			b.WriteString(e.Module)
		}
		if e.Export != "" {
			if e.Module != "" {
				b.WriteByte('.')
			}
			b.WriteString(e.Export)
		}
		if e.HasNID {
			fmt.Fprintf(&b, " (nid 0x%08X)", e.NID)
		}
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when their
// Phase and Kind agree, so callers can test categories with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Module sets the module name
func (b *Builder) Module(name string) *Builder {
	b.err.Module = name
	return b
}

// Export sets the export display name
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
	return b
}

// NID sets the numeric import identifier
func (b *Builder) NID(nid uint32) *Builder {
	b.err.NID = nid
	b.err.HasNID = true
	return b
}

// GoType sets the Go type name involved
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// DuplicateNID creates a duplicate export registration error
func DuplicateNID(module string, nid uint32, existing string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicateNID,
		Module: module,
		NID:    nid,
		HasNID: true,
		Detail: fmt.Sprintf("already registered as %q", existing),
	}
}

// BadSignature creates a malformed handler signature error
func BadSignature(phase Phase, export, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadSignature,
		Export: export,
		Detail: detail,
	}
}

// UnsupportedType creates an unmarshalable parameter type error
func UnsupportedType(export, goType string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindUnsupportedType,
		Export: export,
		GoType: goType,
		Detail: "type cannot cross the guest calling convention",
	}
}

// InvalidAddress creates an address translation failure
func InvalidAddress(phase Phase, addr uint32, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidAddress,
		Detail: fmt.Sprintf("0x%08X+%d maps outside guest memory", addr, length),
		Value:  addr,
	}
}

// OutOfBounds creates an out of bounds access error
func OutOfBounds(phase Phase, addr uint32, length, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("0x%08X+%d crosses region boundary (size %d)", addr, length, size),
		Value:  addr,
	}
}

// AllocationFailed creates a guest allocation failure error
func AllocationFailed(size, align uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// NotFound creates a registry miss error
func NotFound(module string, nid uint32) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		Module: module,
		NID:    nid,
		HasNID: true,
		Detail: "no export registered",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidVersion creates a module version parse error
func InvalidVersion(module, version string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindInvalidVersion,
		Module: module,
		Detail: fmt.Sprintf("cannot parse module version %q", version),
		Cause:  cause,
	}
}

// Registration wraps an export compilation failure with its location
func Registration(module, export string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		Module: module,
		Export: export,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
