// Package errors provides custom error types for the cart-kit packages
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies the failure for dispatch decisions. Auth failures are
// benign for local-first flows: the local mutation is kept and no
// rollback happens. Everything else rolls back.
type Kind string

const (
	KindAuth       Kind = "AUTH"
	KindNetwork    Kind = "NETWORK"
	KindStorage    Kind = "STORAGE"
	KindValidation Kind = "VALIDATION"
)

// Operation represents the type of store or sync operation
type Operation string

const (
	OpFetch     Operation = "fetch"
	OpPush      Operation = "push"
	OpReconcile Operation = "reconcile"
	OpPersist   Operation = "persist"
	OpLoad      Operation = "load"
	OpDelete    Operation = "delete"
	OpTransport Operation = "transport"
	OpClose     Operation = "close"
)

// SyncError represents an error that occurred while persisting or
// synchronizing client state
type SyncError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "persister", "transport")
	Component string

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Kind of failure for the dispatcher's rollback decision
	Kind Kind

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *SyncError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Kind != "" {
		msg += fmt.Sprintf(" [%s]", e.Kind)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a SyncError for a missing or rejected credential.
// Auth errors are not retryable: anonymous usage is fully supported
// locally, so callers treat them as expected rather than transient.
func NewAuthError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindAuth,
		Op:        op,
		Component: "transport",
		Err:       cause,
		Retryable: false,
	}
}

// NewNetworkError creates a new network-related SyncError
func NewNetworkError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindNetwork,
		Op:        op,
		Component: "transport",
		Err:       cause,
		Retryable: true,
	}
}

// NewStorageError creates a new storage-related SyncError
func NewStorageError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindStorage,
		Op:        op,
		Component: "persister",
		Err:       cause,
		Retryable: true,
	}
}

// NewValidationError creates a new validation-related SyncError
func NewValidationError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindValidation,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// New creates a new SyncError
func New(op Operation, err error) *SyncError {
	return &SyncError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new SyncError with component information
func NewWithComponent(op Operation, component string, err error) *SyncError {
	return &SyncError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// WrapOpComponent wraps err with consistent Op and Component propagation.
// Kind and retryability of an inner SyncError survive the wrap.
// If err is nil, returns nil.
func WrapOpComponent(err error, op Operation, component string) error {
	if err == nil {
		return nil
	}
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return &SyncError{
			Op:        op,
			Component: component,
			Err:       err,
			Retryable: syncErr.Retryable,
			Kind:      syncErr.Kind,
		}
	}
	return NewWithComponent(op, component, err)
}

// IsAuth reports whether err is (or wraps) an authentication SyncError.
// The dispatcher uses this to keep local mutations instead of rolling
// them back.
func IsAuth(err error) bool {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Kind == KindAuth
	}
	return false
}

// IsRetryable checks if an error is a retryable SyncError
func IsRetryable(err error) bool {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Retryable
	}
	return false
}
