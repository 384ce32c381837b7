package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	validation := fmt.Errorf("map record: %w", &ValidationError{Fields: []string{"Year"}, Reason: "missing required fields"})
	conflict := &ConflictError{IMDBID: "tt1375666"}
	internal := &InternalError{}

	assert.ErrorIs(t, validation, ErrValidation)
	assert.NotErrorIs(t, validation, ErrConflict)
	assert.ErrorIs(t, conflict, ErrConflict)
	assert.NotErrorIs(t, conflict, ErrInternal)
	assert.ErrorIs(t, internal, ErrInternal)

	assert.Equal(t, "missing required fields: Year", errors.Unwrap(validation).Error())
	assert.Equal(t, "failed to create title", internal.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(&ValidationError{Reason: "title not found"}))
	assert.False(t, IsRetryable(&ConflictError{IMDBID: "tt1375666"}))
	assert.True(t, IsRetryable(&ConflictError{IMDBID: "tt1375666", Retryable: true}))
	assert.True(t, IsRetryable(fmt.Errorf("ingest: %w", &InternalError{})))
	assert.False(t, IsRetryable(nil))
}
