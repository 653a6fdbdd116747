package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound signals an unknown id, or an id that exists but is not owned by
// the caller. Handlers map it to 404 either way.
var ErrNotFound = errors.New("not found")

// ErrAuthenticationRequired signals an operation that needs a caller identity
// which was absent from the request.
var ErrAuthenticationRequired = errors.New("authentication required")

// ValidationError carries every offending field of a request in one error, so
// callers can correct a form in a single round trip.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError ready to accumulate
// field-level causes.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a field-level cause. The first cause per field wins.
func (e *ValidationError) Add(field, cause string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = cause
	}
}

// ErrOrNil returns the error if any field failed, nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StorageError wraps a failure of the durable store. Operations are single
// atomic attempts; there are no retries or partial successes above the
// duplicate-key insert retry in the db package.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
