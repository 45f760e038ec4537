package service

import (
	"errors"
)

// Kind classifies a service error so transports can map it to a status
type Kind int

// Error kinds
const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinel causes, matchable with errors.Is
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrPetExists          = errors.New("user already has a pet")
	ErrPetNotFound        = errors.New("pet not found")
	ErrUnknownAction      = errors.New("unknown action")
	ErrTooManyConflicts   = errors.New("too many concurrent updates")
	ErrNotRanked          = errors.New("pet not ranked")
)

// Error is returned by every service operation. Message is safe to show to
// clients; Err carries the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a service error, or KindInternal for anything else
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Kind != KindInternal {
		return se.Message
	}
	return "Internal server error"
}

func validationErr(msg string, cause error) error {
	return &Error{Kind: KindValidation, Message: msg, Err: cause}
}

func authErr(msg string, cause error) error {
	return &Error{Kind: KindAuth, Message: msg, Err: cause}
}

func forbiddenErr(msg string, cause error) error {
	return &Error{Kind: KindForbidden, Message: msg, Err: cause}
}

func notFoundErr(msg string, cause error) error {
	return &Error{Kind: KindNotFound, Message: msg, Err: cause}
}

func conflictErr(msg string, cause error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: cause}
}

func internalErr(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}
