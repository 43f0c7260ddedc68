package apperrors

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	// ErrNoScans is returned when an operation needs a scan and the project has none.
	// It matches ErrNotFound under errors.Is.
	ErrNoScans = &notFoundError{msg: "project has no scans"}
)

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
