// Package apperrors classifies operational failures into the kinds named by
// §7's error taxonomy, so logging and health surfacing can report *why*
// something failed without every caller re-deriving it. A Kind/Hint/Err
// envelope, used for structured logging rather than an HTTP response body.
package apperrors

import "fmt"

// Kind is one of the operational error categories from §7.
type Kind string

const (
	KindConfig     Kind = "config"
	KindTransport  Kind = "transport"
	KindDecode     Kind = "decode"
	KindCache      Kind = "cache"
	KindValidation Kind = "validation"
	KindPublish    Kind = "publish"
	KindShutdown   Kind = "shutdown"
)

// Error wraps an underlying error with its operational Kind and a short
// hint for the log line.
type Error struct {
	Kind Kind
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Hint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with a Kind and optional hint. Returns nil if err is nil so
// callers can write `return apperrors.Wrap(KindCache, "", err)` unconditionally.
func Wrap(kind Kind, hint string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Hint: hint, Err: err}
}
