package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, session_lost, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches any ExecutionError with the same code, so copies made by
// WithCause or WithMessage still match the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors (mapped from W3C WebDriver error codes where they exist)
var (
	// Lookup errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "element_not_found",
		Message:  "element not found",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}

	// Connection errors
	ErrSessionLost = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_lost",
		Message:  "automation session lost",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}

	// Command errors
	ErrCommandFailed = &ExecutionError{
		Category: ErrCategoryCommand,
		Code:     "command_failed",
		Message:  "driver command failed",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryNone
}

// IsNotFound reports whether err means "the element is not on screen".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrElementNotFound)
}

// IsSessionFatal reports whether err means the automation session can no
// longer be used. The scheduler stops on these instead of trying the next cycle.
func IsSessionFatal(err error) bool {
	return err != nil && CategoryOf(err) == ErrCategoryConnection
}
