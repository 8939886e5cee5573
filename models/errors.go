package models

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateResponse  = errors.New("a response for this checklist item already exists in the audit")
	ErrAuditNotCompleted  = errors.New("cannot generate report for incomplete audit")
	ErrAuditOnHold        = errors.New("audit is on hold")
	ErrChecklistCodeInUse = errors.New("checklist item code cannot change once referenced by responses")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user is disabled")
)

// ValidationError is a field-level rejection of submitted input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AccessDeniedError is returned when the current user may not perform an action.
// Redirect names where the client should be sent.
type AccessDeniedError struct {
	Message  string
	Redirect string
}

func (e *AccessDeniedError) Error() string {
	return e.Message
}

func denied(message, redirect string) error {
	return &AccessDeniedError{Message: message, Redirect: redirect}
}

// TransitionError reports a rejected status change.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

const mysqlDuplicateEntry = 1062

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
