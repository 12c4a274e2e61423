package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrForbidden        = errors.New("only the exam creator or an admin can do this")
	ErrInvalidID        = errors.New("invalid id")
	ErrEmailTaken       = errors.New("email already registered")
)

// ValidationError is a client input error. Its message is part of the API
// contract: 400 responses must name the constraint that was violated
// (allowed extensions, size limit, the data: URL rule).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid builds a ValidationError with a formatted message.
func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
