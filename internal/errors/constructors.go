package errors

import "fmt"

// Convenience functions for common error patterns

// snippetLimit bounds how much of an offending input is copied into error context.
const snippetLimit = 120

// Snippet shortens s for inclusion in error context and logs.
func Snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLimit {
		return s
	}
	return string(r[:snippetLimit]) + "..."
}

// Input errors

// UnsupportedInput reports a value that none of the input adapters recognize.
func UnsupportedInput(value any) *ClassifierError {
	return New(CategoryUnsupportedInput, SeverityError, "unsupported input type").
		WithContext("type", fmt.Sprintf("%T", value))
}

func InvalidField(field, reason string) *ClassifierError {
	return New(CategoryValidation, SeverityError, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Classification errors

// InternalClassification wraps an unexpected fault raised while classifying.
func InternalClassification(input string, cause error) *ClassifierError {
	return Wrap(cause, CategoryInternal, SeverityError, "classification failed").
		WithContext("input", Snippet(input))
}

// Config errors

func ConfigNotFound(path string) *ClassifierError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(source string, cause error) *ClassifierError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("source", source)
}

// CatalogEntryInvalid reports a malformed pattern table entry.
func CatalogEntryInvalid(entry, reason string) *ClassifierError {
	return New(CategoryConfig, SeverityFatal, "invalid catalog entry").
		WithContext("entry", entry).
		WithContext("reason", reason)
}

// Transport errors

func TransportError(target string, cause error) *ClassifierError {
	return WrapRetryable(cause, CategoryTransport, SeverityWarning, "transport operation failed").
		WithContext("target", target)
}
