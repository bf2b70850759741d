package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents different types of errors raised by the backtest pipeline
type ErrorCategory string

const (
	// Fatal categories: the caller supplied something unusable
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryStrategy      ErrorCategory = "STRATEGY"

	// Recoverable categories: logged and degraded where possible
	ErrorCategoryData        ErrorCategory = "DATA"
	ErrorCategoryPersistence ErrorCategory = "PERSISTENCE"
	ErrorCategoryValidation  ErrorCategory = "VALIDATION"
)

// BacktestError represents a categorized error with context
type BacktestError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *BacktestError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *BacktestError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error should abort the run rather than degrade it
func (e *BacktestError) IsFatal() bool {
	return e.Category == ErrorCategoryConfiguration || e.Category == ErrorCategoryStrategy
}

// WithContext adds context information to the error
func (e *BacktestError) WithContext(key string, value interface{}) *BacktestError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewBacktestError creates a new categorized error
func NewBacktestError(category ErrorCategory, component, operation, message string) *BacktestError {
	return &BacktestError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with category and component context
func WrapError(err error, category ErrorCategory, component, operation string) *BacktestError {
	if err == nil {
		return nil
	}
	return &BacktestError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// IsCategory reports whether any error in err's chain is a BacktestError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var btErr *BacktestError
	if stderrors.As(err, &btErr) {
		return btErr.Category == category
	}
	return false
}

func NewConfigurationError(component, operation, message string) *BacktestError {
	return NewBacktestError(ErrorCategoryConfiguration, component, operation, message)
}

func NewValidationError(component, operation, message string) *BacktestError {
	return NewBacktestError(ErrorCategoryValidation, component, operation, message)
}

func NewDataError(component, operation string, err error) *BacktestError {
	return WrapError(err, ErrorCategoryData, component, operation)
}

func NewStrategyError(component, operation string, err error) *BacktestError {
	return WrapError(err, ErrorCategoryStrategy, component, operation)
}

func NewPersistenceError(component, operation string, err error) *BacktestError {
	return WrapError(err, ErrorCategoryPersistence, component, operation)
}
