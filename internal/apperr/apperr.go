// Package apperr defines the server-wide error taxonomy. Use-case code
// returns *Error values; only the transport layer (internal/httpkit) maps
// a Kind to a status code and machine-readable error_code string.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport-layer mapping and logging level.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRateLimited    Kind = "rate_limited"
	KindDatabase       Kind = "database"
	KindKV             Kind = "kv"
	KindCryptographic  Kind = "cryptographic"
	KindConfiguration  Kind = "configuration"
	KindInternal       Kind = "internal"
)

// Error is the single error type returned by use-case code.
type Error struct {
	Kind          Kind
	Message       string
	RetryAfterSec int64 // only meaningful for KindRateLimited
	err           error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// New creates an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error that chains an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, err: cause}
}

// RateLimited creates a rate-limit error with a retry hint in seconds.
func RateLimited(message string, retryAfterSec int64) *Error {
	return &Error{Kind: KindRateLimited, Message: message, RetryAfterSec: retryAfterSec}
}

// As extracts an *Error from err, if one is present in its chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal if err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
