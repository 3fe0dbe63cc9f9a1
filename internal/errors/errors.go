// Package errors provides centralized error handling with category metadata
// so callers can tell terminal outcomes apart without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryCamera        ErrorCategory = "capture-device"
	CategoryModelLoad     ErrorCategory = "model-loading"
	CategoryStream        ErrorCategory = "frame-stream"
	CategoryImageEncode   ErrorCategory = "image-encoding"
	CategoryDatabase      ErrorCategory = "database"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryValidation    ErrorCategory = "validation"
	CategoryCancellation  ErrorCategory = "cancellation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryGeneric       ErrorCategory = "generic"
)

// ComponentUnknown is used when the component was not set by the builder.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with component, category and context metadata.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches other enhanced errors by category, otherwise defers to the
// wrapped error chain.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetContext returns a copy of the context map, nil if no context was set.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.Context))
	maps.Copy(out, ee.Context)
	return out
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err: err,
		// context is lazily initialized when needed
	}
}

// Newf creates a new builder around a formatted error.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	component := eb.component
	if component == "" {
		component = ComponentUnknown
	}
	category := eb.category
	if category == "" {
		category = CategoryGeneric
	}
	return &EnhancedError{
		Err:       eb.err,
		Component: component,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// NewStd returns a plain error without enhancement, for sentinel values.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsCategory checks whether err carries the given category anywhere in its
// chain.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category == category
	}
	return false
}

// IsNotFound reports whether err is an identity lookup miss.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// IsAlreadyExists reports whether err is a duplicate registration.
func IsAlreadyExists(err error) bool {
	return IsCategory(err, CategoryConflict)
}

// IsCancellation reports whether err is an operator or context cancellation.
func IsCancellation(err error) bool {
	return IsCategory(err, CategoryCancellation)
}
