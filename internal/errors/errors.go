package errors

import (
	"errors"
	"fmt"
)

var NotFound = errors.New("Not found")

func IsNotFound(err error) bool {
	return errors.Is(err, NotFound)
}

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// ConfigurationError: a relation config document references an unknown
// relation or is otherwise malformed. Fatal at initialization.
type ConfigurationError struct {
	Relation string
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Relation == "" {
		return fmt.Sprintf("Configuration error: %s", e.Message)
	}
	return fmt.Sprintf("Configuration error in relation %q: %s", e.Relation, e.Message)
}

// RelationTypeMismatchError: the config shape is incompatible with the
// relationship type declared by the owner model. Fatal at initialization.
type RelationTypeMismatchError struct {
	Relation string
	Type     string
	Missing  string
}

func (e *RelationTypeMismatchError) Error() string {
	return fmt.Sprintf("Relation %q of type %s requires %s", e.Relation, e.Type, e.Missing)
}

// StorageError wraps filesystem read/write/delete failures.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("Storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RetrievalError: fetching a remote URL failed (transport error or bad status).
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("Failed to retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// AuthorizationError: attempt to expose a protected resource publicly.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("Not authorized: %s", e.Message)
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}
