package playback

import "fmt"

// ErrorKind classifies a media resource failure
type ErrorKind int

const (
	// KindLoad indicates the resource could not be created or prepared:
	// missing or unreadable file, unsupported format, decoder failure
	KindLoad ErrorKind = iota
	// KindPlayback indicates the resource failed after readiness
	KindPlayback
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindLoad:
		return "media_load"
	case KindPlayback:
		return "playback_fault"
	default:
		return "unknown"
	}
}

// MediaError is a classified media resource failure. Every load and playback
// fault is funneled through this one type before the controller transitions
// to Halted.
type MediaError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewMediaError creates a new MediaError with the given kind, message, and cause
func NewMediaError(kind ErrorKind, message string, cause error) *MediaError {
	return &MediaError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface
func (e *MediaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *MediaError) Unwrap() error {
	return e.Cause
}
