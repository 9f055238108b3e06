package docmerge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoHeaders is returned when a CSV input is empty.
var ErrNoHeaders = errors.New("csv has no header row")

// InputError reports a CSV input that could not be read with any of the
// probed encodings and delimiters.
type InputError struct {
	Path  string
	Cause error
}

func (e *InputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("unreadable csv '%s': %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("unreadable csv: %v", e.Cause)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// DocumentError represents an error during document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// RowError ties a failure to the 0-based data row that caused it.
type RowError struct {
	Row   int
	Cause error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError represents multiple validation issues
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d validation issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when no issue was recorded.
func (e *ValidationError) err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var contextParts []string
	for _, k := range keys {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}

	if len(contextParts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(contextParts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// IsDocumentError checks if an error is, or wraps, a document error
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}

// IsInputError checks if an error is, or wraps, a CSV input error
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsValidationError checks if an error is, or wraps, a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
