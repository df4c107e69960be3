package spirv

import "fmt"

// ErrorKind categorizes SPIR-V generation errors.
type ErrorKind uint8

const (
	// ErrInvalidModule indicates the IR module is malformed.
	ErrInvalidModule ErrorKind = iota

	// ErrUnsupportedType indicates a type SPIR-V cannot express here.
	ErrUnsupportedType

	// ErrUnsupportedFeature indicates a construct the backend does not emit.
	ErrUnsupportedFeature

	// ErrMissingBinding indicates a resource or entry point IO without a binding.
	ErrMissingBinding
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidModule:
		return "InvalidModule"
	case ErrUnsupportedType:
		return "UnsupportedType"
	case ErrUnsupportedFeature:
		return "UnsupportedFeature"
	case ErrMissingBinding:
		return "MissingBinding"
	}
	return "Unknown"
}

// Error is a SPIR-V generation error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("spirv: %s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
