// Package fault holds the error taxonomy shared by the session state
// machines and the HTTP layer.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidState is matched by every *InvalidStateError.
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("unavailable")
)

// InvalidStateError reports an operation issued outside the states in
// which it is valid. It indicates a defect in the caller, not a
// condition to recover from.
type InvalidStateError struct {
	Machine string
	Op      string
	State   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s not allowed while %s", e.Machine, e.Op, e.State)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// PreconditionError is an invalid state caused by an argument the
// operation cannot accept. It matches ErrInvalidState and ErrInvalidArgument.
type PreconditionError struct {
	Err error
}

func Precondition(err error) *PreconditionError {
	return &PreconditionError{Err: err}
}

func (e *PreconditionError) Error() string { return e.Err.Error() }

func (e *PreconditionError) Unwrap() error { return e.Err }

func (e *PreconditionError) Is(target error) bool {
	return target == ErrInvalidState || target == ErrInvalidArgument
}

// Status maps an error onto the HTTP status the handlers answer with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
