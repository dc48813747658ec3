// Package common defines shared constants, sentinel errors and the typed
// error taxonomy used across the LinkUp server. Callers should use errors.Is
// and errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Kind classifies a failure. The transport layer maps each kind to exactly
// one status class.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindOwnership
	KindUpstream
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindOwnership:
		return "ownership"
	case KindUpstream:
		return "upstream"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to a client;
// Err carries the underlying cause for server-side logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation reports malformed input or a failed one-time code check.
func Validation(msg string) *Error { return newError(KindValidation, msg, nil) }

// NotFound reports a missing resource.
func NotFound(msg string) *Error { return newError(KindNotFound, msg, nil) }

// Conflict reports a uniqueness violation.
func Conflict(msg string) *Error { return newError(KindConflict, msg, nil) }

// Auth reports an authentication failure. Messages stay deliberately vague.
func Auth(msg string) *Error { return newError(KindAuth, msg, nil) }

// Ownership reports a failed wallet ownership proof.
func Ownership(msg string, err error) *Error { return newError(KindOwnership, msg, err) }

// Upstream wraps a ledger or other network collaborator failure.
func Upstream(msg string, err error) *Error { return newError(KindUpstream, msg, err) }

// Integrity wraps a failed decryption of stored secrets.
func Integrity(msg string, err error) *Error { return newError(KindIntegrity, msg, err) }

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error { return newError(KindInternal, msg, err) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err, or a generic one.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Kind != KindIntegrity {
		return e.Message
	}
	return "Internal server error"
}
