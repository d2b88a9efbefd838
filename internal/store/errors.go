package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrMemoryRecordNotFound, ErrPlanNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second memory record for the same user and item).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConcurrencyConflict is returned when an optimistic update finds that
	// the stored entity changed since it was read, or when the database
	// aborts a transaction because of a serialization failure or deadlock.
	// The caller may re-read and retry.
	ErrConcurrencyConflict = errors.New("concurrent modification")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrMemoryRecordNotFound indicates that no memory record exists for the user and item.
	ErrMemoryRecordNotFound = fmt.Errorf("%w: memory record", ErrNotFound)

	// ErrProfileNotFound indicates that the user has no learning profile.
	ErrProfileNotFound = fmt.Errorf("%w: learning profile", ErrNotFound)

	// ErrPlanNotFound indicates that the user has no active study plan.
	ErrPlanNotFound = fmt.Errorf("%w: study plan", ErrNotFound)

	// ErrTaskNotFound indicates that the requested daily task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: daily task", ErrNotFound)

	// ErrStreakNotFound indicates that the user has no learning streak yet.
	ErrStreakNotFound = fmt.Errorf("%w: learning streak", ErrNotFound)

	// ErrVocabularyItemNotFound indicates that the vocabulary item does not exist.
	ErrVocabularyItemNotFound = fmt.Errorf("%w: vocabulary item", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrMemoryRecordExists indicates a record already exists for the user and item.
	ErrMemoryRecordExists = fmt.Errorf("%w: memory record", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// All entity-specific not found errors wrap ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflictError reports whether err signals a retryable concurrency conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "memory_record", "study_plan")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
