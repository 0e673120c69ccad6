// Package errors provides centralized error handling with categories and
// structured context for logging.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

// CategorizedError is an interface for errors that can specify their own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	CategoryValidation      ErrorCategory = "validation"
	CategoryDatabase        ErrorCategory = "database"
	CategoryNotFound        ErrorCategory = "not-found"
	CategoryNoMatch         ErrorCategory = "no-match"
	CategoryMissingEnvData  ErrorCategory = "missing-environmental-data"
	CategoryAirQualityFetch ErrorCategory = "air-quality-fetch"
	CategoryDelivery        ErrorCategory = "delivery"
	CategoryConfiguration   ErrorCategory = "configuration"
	CategoryNetwork         ErrorCategory = "network"
	CategoryHTTP            ErrorCategory = "http-request"
	CategoryGeneric         ErrorCategory = "generic"
)

// Priority constants for error prioritization
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for better grouping
	Priority  string         // Explicit priority override (optional)
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap returns the original error for errors.Is/As support
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// ErrorCategory implements CategorizedError
func (ee *EnhancedError) ErrorCategory() ErrorCategory {
	return ee.Category
}

// GetContext returns a copy of the context map, safe for the caller to
// mutate.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

// LogAttrs returns the error's metadata as alternating key/value pairs
// suitable for slog.
func (ee *EnhancedError) LogAttrs() []any {
	attrs := []any{
		"error", ee.Err.Error(),
		"component", ee.Component,
		"category", string(ee.Category),
	}
	if ee.Priority != "" {
		attrs = append(attrs, "priority", ee.Priority)
	}
	for k, v := range ee.Context {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	priority  string
	context   map[string]any
}

// New creates a new error builder wrapping err
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err: err,
		// context is lazily initialized when needed
	}
}

// Newf creates a new formatted error builder
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

// Priority sets the explicit priority override for the error
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	default:
		// invalid value, fall back to medium
		if priority != "" {
			eb.priority = PriorityMedium
		}
	}
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

// ProfileContext adds profile-specific context
func (eb *ErrorBuilder) ProfileContext(profileID uint, insee string) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["profile_id"] = profileID
	if insee != "" {
		eb.context["insee"] = insee
	}
	return eb
}

// Timing adds performance timing context
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["operation"] = operation
	eb.context["duration_ms"] = duration.Milliseconds()
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Priority:  eb.priority,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	return ee
}

// --- Standard library passthroughs, so callers only import this package ---

// NewStd creates a plain standard library error without enhancement.
// Use for package level sentinel errors.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join wraps a list of errors into a single error.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// CategoryOf returns the category of err if it carries one, or
// CategoryGeneric otherwise.
func CategoryOf(err error) ErrorCategory {
	var ce CategorizedError
	if stderrors.As(err, &ce) {
		return ce.ErrorCategory()
	}
	return CategoryGeneric
}
