// Package errors provides structured error types for the ingestion pipeline.
//
// Errors carry a category, a stable code, and optional context so that
// security failures can be routed to the audit log while ordinary I/O
// failures stay at low severity. Per-file errors are always recoverable;
// setup errors (bad workspace root, invalid configuration) are not.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypePipeline   ErrorType = "pipeline"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// IntakeError is a structured error type with context.
type IntakeError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *IntakeError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *IntakeError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *IntakeError) Is(target error) bool {
	var t *IntakeError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *IntakeError) WithContext(key string, value interface{}) *IntakeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds the offending file path.
func (e *IntakeError) WithFile(filePath string) *IntakeError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *IntakeError) WithComponent(component string) *IntakeError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypeSecurity,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewPipelineError creates a pipeline error.
func NewPipelineError(code, message string, cause error) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypePipeline,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error classification utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ie *IntakeError
	if errors.As(err, &ie) {
		return ie.Recoverable
	}

	return false
}

// IsSecurityError checks if an error is security-related.
func IsSecurityError(err error) bool {
	var ie *IntakeError
	if errors.As(err, &ie) {
		return ie.Type == ErrorTypeSecurity
	}

	return false
}

// IsIOError checks if an error is a plain I/O failure.
func IsIOError(err error) bool {
	var ie *IntakeError
	if errors.As(err, &ie) {
		return ie.Type == ErrorTypeIO
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidPath     = "ERR_INVALID_PATH"
	ErrCodeSymlinkBlocked  = "ERR_SYMLINK_BLOCKED"
	ErrCodeBoundaryEscape  = "ERR_BOUNDARY_ESCAPE"
	ErrCodePathMismatch    = "ERR_PATH_MISMATCH"
	ErrCodeFileRead        = "ERR_FILE_READ"
	ErrCodeWorkspaceRoot   = "ERR_WORKSPACE_ROOT"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInternalError   = "ERR_INTERNAL"
	ErrCodeDiscoveryFailed = "ERR_DISCOVERY_FAILED"
)

// Helper functions for common errors

// ErrFileRead wraps a per-file read failure.
func ErrFileRead(path string, cause error) *IntakeError {
	return NewPipelineError(ErrCodeFileRead, "failed to read file", cause).WithFile(path)
}

// ErrWorkspaceRoot creates a fatal workspace root setup error.
func ErrWorkspaceRoot(root string, cause error) *IntakeError {
	return &IntakeError{
		Type:        ErrorTypeConfig,
		Code:        ErrCodeWorkspaceRoot,
		Message:     "cannot resolve workspace root: " + root,
		Cause:       cause,
		Recoverable: false,
	}
}
