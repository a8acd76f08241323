package errors

import (
	stderrors "errors"
	"fmt"
)

// GenericUpstreamMessage is reported when an upstream failure carries no usable text.
const GenericUpstreamMessage = "An unexpected error occurred"

// ErrInvalidRequest is returned when caller input is missing or malformed
type ErrInvalidRequest struct {
	Message string
	Field   string
}

func (e *ErrInvalidRequest) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s", e.Field)
	}
	return "invalid request"
}

// ErrUpstream is returned when a call to the commerce backend fails
type ErrUpstream struct {
	Op  string
	Err error
}

func (e *ErrUpstream) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: upstream failure", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// Message returns the underlying error text, or fallback when there is none.
func (e *ErrUpstream) Message(fallback string) string {
	if e.Err != nil && e.Err.Error() != "" {
		return e.Err.Error()
	}
	if fallback != "" {
		return fallback
	}
	return GenericUpstreamMessage
}

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when the backend rejects the caller's credentials
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrPartialSync records one order of a polling batch that could not be refreshed.
type ErrPartialSync struct {
	OrderID string
	Err     error
}

func (e *ErrPartialSync) Error() string {
	return fmt.Sprintf("order %s not refreshed: %v", e.OrderID, e.Err)
}

func (e *ErrPartialSync) Unwrap() error {
	return e.Err
}

// Classify returns err unchanged when it already is one of the typed errors above,
// otherwise wraps it in ErrUpstream for op. A nil err stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		invalid      *ErrInvalidRequest
		upstream     *ErrUpstream
		notFound     *ErrNotFound
		unauthorized *ErrUnauthorized
		partial      *ErrPartialSync
	)
	switch {
	case stderrors.As(err, &invalid),
		stderrors.As(err, &upstream),
		stderrors.As(err, &notFound),
		stderrors.As(err, &unauthorized),
		stderrors.As(err, &partial):
		return err
	}
	return &ErrUpstream{Op: op, Err: err}
}

func IsInvalidRequest(err error) bool {
	var target *ErrInvalidRequest
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return stderrors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *ErrUnauthorized
	return stderrors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *ErrUpstream
	return stderrors.As(err, &target)
}
