package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRemoteWrite       = errors.New("remote write failed")
	ErrNoRowReturned     = errors.New("remote store returned no row")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrSessionClosed     = errors.New("dashboard session closed")
)

// Validation constants
const (
	MaxNameLength    = 255
	MaxMessageLength = 2000
)

// ValidationError reports malformed input caught before any remote call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is reports ErrInvalidInput so callers can match with errors.Is
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an entity id missing from local state
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is reports ErrNotFound so callers can match with errors.Is
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError for an int32 id
func NewNotFoundError(entity string, id int32) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprintf("%d", id)}
}

// RemoteWriteError wraps a rejected remote call, or one that returned no row
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// Is reports ErrRemoteWrite so callers can match with errors.Is
func (e *RemoteWriteError) Is(target error) bool {
	return target == ErrRemoteWrite
}

// NewRemoteWriteError wraps err for op. A nil err means the store returned no row.
func NewRemoteWriteError(op string, err error) error {
	if err == nil {
		err = ErrNoRowReturned
	}
	return &RemoteWriteError{Op: op, Err: err}
}
