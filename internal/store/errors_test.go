package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("lookup: %w", ErrNotFound), expected: true},
		{name: "ErrMemoryRecordNotFound", err: ErrMemoryRecordNotFound, expected: true},
		{name: "ErrPlanNotFound", err: fmt.Errorf("get plan: %w", ErrPlanNotFound), expected: true},
		{name: "ErrProfileNotFound", err: ErrProfileNotFound, expected: true},
		{name: "ErrTaskNotFound", err: ErrTaskNotFound, expected: true},
		{name: "ErrStreakNotFound", err: ErrStreakNotFound, expected: true},
		{name: "ErrVocabularyItemNotFound", err: ErrVocabularyItemNotFound, expected: true},
		{name: "duplicate is not not-found", err: ErrMemoryRecordExists, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, IsDuplicateError(nil))
	assert.False(t, IsDuplicateError(ErrNotFound))
	assert.True(t, IsDuplicateError(ErrDuplicate))
	assert.True(t, IsDuplicateError(ErrMemoryRecordExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrMemoryRecordExists)))
}

func TestIsConflictError(t *testing.T) {
	assert.False(t, IsConflictError(nil))
	assert.False(t, IsConflictError(ErrDuplicate))
	assert.True(t, IsConflictError(ErrConcurrencyConflict))

	wrapped := NewStoreError("memory_record", "update", "version mismatch", ErrConcurrencyConflict)
	assert.True(t, IsConflictError(wrapped))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("study_plan", "replace_active", "failed to supersede plan", cause)

	assert.Equal(t, "replace_active operation on study_plan failed: failed to supersede plan: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
	assert.Equal(t, "study_plan", storeErr.Entity)

	bare := &StoreError{Entity: "activity", Operation: "append", Message: "validation failed"}
	assert.Equal(t, "append operation on activity failed: validation failed", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestNormalizeDueLimit(t *testing.T) {
	assert.Equal(t, DefaultDueLimit, NormalizeDueLimit(0))
	assert.Equal(t, DefaultDueLimit, NormalizeDueLimit(-5))
	assert.Equal(t, 7, NormalizeDueLimit(7))
	assert.Equal(t, MaxDueLimit, NormalizeDueLimit(10_000))
}
