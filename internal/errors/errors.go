package errors

import (
	"errors"
	"fmt"
)

// SkillError is the structured error type for skillsmcp.
// It carries a stable code so front ends can map it to their own error shapes.
type SkillError struct {
	// Code is the unique error code (e.g., "ERR_201_SKILL_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is derived from the code.
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SkillError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SkillError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *SkillError) Is(target error) bool {
	if t, ok := target.(*SkillError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *SkillError) WithDetail(key, value string) *SkillError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SkillError) WithSuggestion(suggestion string) *SkillError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SkillError with the given code and message.
func New(code string, message string, cause error) *SkillError {
	return &SkillError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SkillError from an existing error.
func Wrap(code string, err error) *SkillError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound creates a not-found error for the given code.
func NotFound(code, message string) *SkillError {
	return New(code, message, nil)
}

// InvalidInput creates an input validation error.
func InvalidInput(code, message string) *SkillError {
	return New(code, message, nil)
}

// IOError creates a read/decode error.
func IOError(message string, cause error) *SkillError {
	return New(ErrCodeFileRead, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SkillError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SkillError {
	return New(ErrCodeInternal, message, cause)
}

// GetCode extracts the error code from a SkillError anywhere in the chain.
// Returns empty string if none is found.
func GetCode(err error) string {
	var se *SkillError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SkillError anywhere in the chain.
func GetCategory(err error) Category {
	var se *SkillError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// IsNotFound reports whether err is a not-found SkillError.
func IsNotFound(err error) bool {
	return GetCategory(err) == CategoryNotFound
}

// IsInvalidInput reports whether err was caused by rejected caller input.
func IsInvalidInput(err error) bool {
	return GetCategory(err) == CategoryValidation
}
