package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is.
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError with the failing operation
// 3. Store and domain sentinels stay reachable through the wrapping
var (
	// ErrNotOwned indicates a resource belongs to a different user than the one making the request.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrTransient indicates the operation lost a race repeatedly and may succeed if retried later.
	ErrTransient = errors.New("transient failure, retry later")

	// ErrUnknownItem indicates that a review or exercise refers to an item outside the vocabulary pool.
	ErrUnknownItem = errors.New("vocabulary item is not in the pool")
)

// ServiceError wraps errors from a service operation with the service and
// operation names, so that callers can use errors.As instead of string matching.
type ServiceError struct {
	// Service is the name of the service (e.g., "review", "planning")
	Service string
	// Op is the operation that failed (e.g., "submit_review")
	Op string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) error {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}
