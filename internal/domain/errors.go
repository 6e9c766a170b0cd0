package domain

import "fmt"

// ProtocolError signals a malformed or desynchronized event history:
// a missing expected attribute, or a dispatch on an event type the
// Decision Engine does not recognize. It is fatal for the current
// decision tick; the caller logs it and lets the token time out.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(format, args...)}
}

// TransientClass tags the two recoverable service-error shapes named in
// spec.md section 7: Throttling and UnknownResource. Both are absorbed
// by the retry combinator in app/retry.go.
type TransientClass string

const (
	Throttling      TransientClass = "Throttling"
	UnknownResource TransientClass = "UnknownResource"
)

// TransientError wraps a service error the caller should retry rather
// than surface.
type TransientError struct {
	Class TransientClass
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func NewTransientError(class TransientClass, err error) *TransientError {
	return &TransientError{Class: class, Err: err}
}

// AlreadyExistsError is returned by the three Register* Service Client
// Contract calls when the domain/type is already registered. Callers
// must swallow it silently.
type AlreadyExistsError struct {
	Resource string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

func NewAlreadyExistsError(resource string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource}
}
