package errors

import (
	"fmt"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Errors that reject construction and should stop startup
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Errors on individual operations that the caller can skip
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryTracking   ErrorCategory = "TRACKING"
)

// EngineError represents a categorized error with context.
//
// Gate disapprovals and untracked-symbol updates are deliberately not
// errors: a rejection is a normal RiskDecision outcome and an unknown
// symbol yields a benign zero result.
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsFatal returns whether this error should stop the engine
func (e *EngineError) IsFatal() bool {
	return e.Category == ErrorCategoryConfiguration
}

// NewEngineError creates a new categorized engine error
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// WrapError wraps an existing error with engine error context
func WrapError(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewConfigurationError reports a malformed option detected at construction
func NewConfigurationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryConfiguration, component, operation, message)
}

// NewValidationError reports invalid input to an otherwise healthy operation
func NewValidationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryValidation, component, operation, message)
}

// NewTrackingError reports a tracker lifecycle misuse, such as initializing
// a symbol twice
func NewTrackingError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryTracking, component, operation, message)
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	e, ok := err.(*EngineError)
	return ok && e.Category == ErrorCategoryConfiguration
}
