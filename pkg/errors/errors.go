// Package errors gives every okrtree failure a machine-readable [Code].
//
// Codes group into kinds (see [Code.Kind]): caller input, hierarchy
// defects in the records, missing resources, upstream failures and
// internal faults. The CLI prints [UserMessage] with the code; the HTTP
// service turns the kind into a status code.
//
//	if errors.Is(err, errors.ErrCodeCyclicHierarchy) {
//	    // the records reference each other in a loop
//	}
//
// Wrapped causes stay reachable through the standard library's errors.Is
// and errors.As.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a class of failure.
type Code string

const (
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidVizType Code = "INVALID_VIZ_TYPE"
	ErrCodeInvalidFilter  Code = "INVALID_FILTER"
	ErrCodeInvalidSource  Code = "INVALID_SOURCE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// The records do not form a forest.
	ErrCodeCyclicHierarchy Code = "CYCLIC_HIERARCHY"
	ErrCodeUnknownParent   Code = "UNKNOWN_PARENT"
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Kind classifies codes by who has to act on them.
type Kind int

const (
	KindInternal  Kind = iota // bug or unclassified failure
	KindInput                 // malformed request, flag or record
	KindHierarchy             // records that cannot be laid out as a forest
	KindMissing               // a referenced record, file or resource is absent
	KindUpstream              // a source or backend failed
	KindUnsupported
)

func (c Code) Kind() Kind {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidVizType,
		ErrCodeInvalidFilter, ErrCodeInvalidSource, ErrCodeInvalidPath:
		return KindInput
	case ErrCodeCyclicHierarchy, ErrCodeUnknownParent, ErrCodeDuplicateID:
		return KindHierarchy
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return KindMissing
	case ErrCodeNetwork, ErrCodeTimeout:
		return KindUpstream
	case ErrCodeUnsupported:
		return KindUnsupported
	}
	return KindInternal
}

// Error carries a code, a message meant for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets the standard errors.Is match on code alone:
//
//	errors.Is(err, &Error{Code: ErrCodeNotFound})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Cause == nil && t.Code == e.Code
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and a message to cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// KindOf returns the kind of err's code. Errors without a code are
// internal.
func KindOf(err error) Kind {
	return GetCode(err).Kind()
}

// IsInput reports whether the caller can fix err by changing what they
// sent: bad input or records that do not form a forest.
func IsInput(err error) bool {
	k := KindOf(err)
	return k == KindInput || k == KindHierarchy
}
