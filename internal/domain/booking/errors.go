package booking

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrInvalidInput  = errors.New("invalid input")
	ErrSlotTaken     = errors.New("slot taken")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
	ErrInvalidStatus = errors.New("invalid booking status")
)

type Kind string

const (
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInvalidInput Kind = "INVALID_INPUT"
	KindSlotTaken    Kind = "SLOT_TAKEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindInternal     Kind = "INTERNAL"
)

// GateError is a typed refusal from the booking gate. Everything except
// KindInternal is an expected outcome.
type GateError struct {
	Kind       Kind
	Message    string
	RetryAfter int
	Fields     map[string]string
	Err        error
}

func (e *GateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GateError) Unwrap() error { return e.Err }

func (e *GateError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrSlotTaken:
		return e.Kind == KindSlotTaken
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

func rateLimited(msg string, retryAfter int) *GateError {
	return &GateError{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

func invalidInput(msg string, fields map[string]string) *GateError {
	return &GateError{Kind: KindInvalidInput, Message: msg, Fields: fields}
}

func slotTaken() *GateError {
	return &GateError{Kind: KindSlotTaken, Message: "This time slot is already booked"}
}

func internal(op string, err error) *GateError {
	return &GateError{Kind: KindInternal, Message: "Internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}
