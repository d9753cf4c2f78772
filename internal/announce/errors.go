package announce

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for any 1-based index outside [1, size].
var ErrOutOfRange = errors.New("announcement index out of range")

// ErrInvalidInterval is returned when an interval is not strictly positive.
var ErrInvalidInterval = errors.New("interval must be greater than 0")

// ErrIntervalTooLong is returned for intervals above MaxInterval.
var ErrIntervalTooLong = errors.New("interval too long")

// OutOfRangeError carries the offending index. It matches ErrOutOfRange via errors.Is.
type OutOfRangeError struct {
	Index int
	Size  int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("announcement index %d out of range [1, %d]", e.Index, e.Size)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }
