package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorUnauthorized   = errors.New("unauthorized")
)

// DuplicateError is returned when a unique column already holds the value.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Column
}
