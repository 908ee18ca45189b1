// Package errors provides a lightweight structured error type (ClassifierError)
// for category-based failure reporting in the analyzer, the service and the CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a classifier failure. It classifies
// failures of this program, not the messaging API errors being analyzed.
type ErrorCategory string

const (
	// Caller input errors
	CategoryUnsupportedInput ErrorCategory = "unsupported_input"
	CategoryValidation       ErrorCategory = "validation"

	// Configuration and static tables
	CategoryConfig ErrorCategory = "config"

	// External system integration errors
	CategoryTransport ErrorCategory = "transport"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ClassifierError is a structured error with category, retryability, and context
type ClassifierError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ClassifierError
type ContextFields map[string]any

// Error implements the error interface
func (e *ClassifierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ClassifierError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ClassifierError) WithContext(key string, value any) *ClassifierError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ClassifierError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ClassifierError {
	return &ClassifierError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new ClassifierError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ClassifierError {
	return &ClassifierError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable ClassifierError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *ClassifierError {
	return &ClassifierError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// As finds the first ClassifierError in err's chain.
func As(err error) (*ClassifierError, bool) {
	var ce *ClassifierError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ce, ok := As(err); ok {
		return ce.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ce, ok := As(err); ok {
		return ce.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a ClassifierError
func GetCategory(err error) ErrorCategory {
	if ce, ok := As(err); ok {
		return ce.Category
	}
	return CategoryInternal
}
