package command

import (
	"errors"
)

var (
	// ErrPermissionDenied is returned when the sender lacks the verb's capability.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUsage covers unknown verbs and wrong argument counts.
	ErrUsage = errors.New("invalid arguments")
	// ErrMalformedNumber is returned when a numeric argument does not parse.
	ErrMalformedNumber = errors.New("malformed number")
)

// UserError carries the red text shown to the sender. Err is kept for logs
// and errors.Is.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

func userErr(msg string, err error) error { return &UserError{Msg: msg, Err: err} }
