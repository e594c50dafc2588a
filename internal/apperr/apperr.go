// Package apperr classifies failures of the contact pipeline so callers can
// decide between rejecting a request, retrying later or logging and moving on.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindValidation is a missing or malformed required field. Surfaced to the client.
	KindValidation Kind = "validation"
	// KindPersistence is a store failure.
	KindPersistence Kind = "persistence"
	// KindNotification is an SMTP failure.
	KindNotification Kind = "notification"
	// KindExport is a workbook write failure.
	KindExport Kind = "export"
	// KindMirror is a cloud spreadsheet failure. Never fatal.
	KindMirror Kind = "mirror"
)

// Error carries the failure kind plus the operation and field involved.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Field, e.Err)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a rejected field.
func Validation(field, msg string) error {
	return &Error{Kind: KindValidation, Field: field, Err: errors.New(msg)}
}

// Wrap tags err with kind and op. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// FieldOf returns the offending field of a validation error, or "".
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
