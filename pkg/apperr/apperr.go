// Package apperr defines the error taxonomy shared by the annotation core:
// user-correctable validation failures, stale-reference lookups, and illegal
// lifecycle transitions. All of them are recoverable; handlers map them to
// HTTP status codes.
package apperr

import "errors"

// Kind classifies an application error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
)

// Error is a typed, recoverable application error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation reports a user-correctable input problem. State is left
// unchanged or safely defaulted by the caller.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound reports a reference to a non-existent entity (stale taxonomy,
// unknown group). Indicates a collaborator bug rather than user error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidState reports an operation attempted in a lifecycle state that
// forbids it (e.g. changing the asset while the session is frozen).
func InvalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

// KindOf returns the Kind of err if it is an *Error, or "" otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
