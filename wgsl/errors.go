package wgsl

import "fmt"

// ErrorKind categorizes WGSL generation errors.
type ErrorKind uint8

const (
	// ErrInvalidModule indicates the IR module is malformed.
	ErrInvalidModule ErrorKind = iota

	// ErrUnsupportedType indicates a type that cannot be spelled in WGSL.
	ErrUnsupportedType

	// ErrUnsupportedFeature indicates an instruction the writer cannot emit.
	ErrUnsupportedFeature
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidModule:
		return "InvalidModule"
	case ErrUnsupportedType:
		return "UnsupportedType"
	case ErrUnsupportedFeature:
		return "UnsupportedFeature"
	default:
		return "Unknown"
	}
}

// Error is a WGSL generation error.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("wgsl: %s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
