package snippet

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled means the user dismissed a prompt; commands abort silently.
	ErrCancelled = errors.New("cancelled")
	// ErrNotFound means a group or snippet reference no longer resolves.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before any side effect happened.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes rejected input for inline display.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError names the reference that failed to resolve.
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.What, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func GroupNotFound(key string) error {
	return &NotFoundError{What: "group", Key: key}
}

func SnippetNotFound(key string) error {
	return &NotFoundError{What: "snippet", Key: key}
}

// IOError wraps a failed write, rename or delete of a group file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err into the taxonomy shown to users and panels.
func ErrorKind(err error) string {
	var ioErr *IOError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &ioErr):
		return "io"
	default:
		return "internal"
	}
}
