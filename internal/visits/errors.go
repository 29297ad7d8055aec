package visits

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a counter read or write that failed in the backing store.
var ErrUnavailable = errors.New("visits: counter unavailable")

// CounterErrorCode enumerates failure reasons for counter operations.
type CounterErrorCode string

const (
	CounterErrorUnknown      CounterErrorCode = "counter_unknown"
	CounterErrorInvalidInput CounterErrorCode = "counter_invalid_input"
	CounterErrorStorage      CounterErrorCode = "counter_storage"
)

// CounterError carries a machine readable code alongside the cause.
type CounterError struct {
	Op      string
	Code    CounterErrorCode
	Message string
	Err     error
}

func (e *CounterError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *CounterError) Unwrap() error { return e.Err }

// Is lets storage failures match ErrUnavailable.
func (e *CounterError) Is(target error) bool {
	return target == ErrUnavailable && e.Code == CounterErrorStorage
}

// NewCounterError builds a typed counter error.
func NewCounterError(op string, code CounterErrorCode, message string, err error) *CounterError {
	if code == "" {
		code = CounterErrorUnknown
	}
	return &CounterError{Op: op, Code: code, Message: message, Err: err}
}

func storageError(op string, err error) error {
	return NewCounterError(op, CounterErrorStorage, "", err)
}
