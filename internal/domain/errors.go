package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Categories matched with errors.Is by callers of the ingestion service.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Storage-level signals the ingestion service translates into categories.
var (
	ErrDuplicateTitle = errors.New("title already exists")
	ErrWriteConflict  = errors.New("concurrent write conflict")
)

type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError reports a title that already exists or a write that raced
// another ingestion. Retryable conflicts may succeed when tried again.
type ConflictError struct {
	IMDBID    string
	Retryable bool
}

func (e *ConflictError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("title %s conflicted with a concurrent ingestion", e.IMDBID)
	}
	return fmt.Sprintf("title %s already exists", e.IMDBID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InternalError hides the underlying cause from callers; it is logged where
// the error is classified.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	if e.Message == "" {
		return "failed to create title"
	}
	return e.Message
}

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// IsRetryable reports whether an ingestion error may succeed on a later attempt.
func IsRetryable(err error) bool {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Retryable
	}
	return errors.Is(err, ErrInternal)
}
