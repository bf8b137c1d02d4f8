// Package errors provides structured error types for botforge.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies specific error conditions
type ErrorCode string

const (
	ErrCodeInvalidConfig         ErrorCode = "INVALID_CONFIG"
	ErrCodeDependencyUnavailable ErrorCode = "DEPENDENCY_UNAVAILABLE"
	ErrCodeModuleEvaluation      ErrorCode = "MODULE_EVALUATION_FAILED"
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeLocked                ErrorCode = "STATE_LOCKED"
	ErrCodeBackend               ErrorCode = "BACKEND_ERROR"
	ErrCodeParse                 ErrorCode = "PARSE_ERROR"
	ErrCodeProvisioner           ErrorCode = "PROVISIONER_ERROR"
)

// Error is the base error type for botforge
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Wrap creates a new error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a single detail to an error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// InvalidConfig creates a configuration validation error. These are
// detected during parameter resolution and abort before any module
// evaluation.
func InvalidConfig(message string, details map[string]interface{}) *Error {
	return &Error{
		Code:    ErrCodeInvalidConfig,
		Message: message,
		Details: details,
	}
}

// DependencyUnavailable creates an error for a module input whose
// producing module never populated the referenced output. This is an
// invariant violation in the fixed topology, not a retryable condition.
func DependencyUnavailable(module, input, producer, output string) *Error {
	return &Error{
		Code:    ErrCodeDependencyUnavailable,
		Message: fmt.Sprintf("module %q input %q references unavailable output %q of module %q", module, input, output, producer),
		Details: map[string]interface{}{
			"module":   module,
			"input":    input,
			"producer": producer,
			"output":   output,
		},
	}
}

// ModuleEvaluationFailed creates an error for a provisioner failure
// while evaluating the named module.
func ModuleEvaluationFailed(module string, cause error) *Error {
	return &Error{
		Code:    ErrCodeModuleEvaluation,
		Message: fmt.Sprintf("evaluation of module %q failed", module),
		Cause:   cause,
		Details: map[string]interface{}{
			"module": module,
		},
	}
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resourceType, name),
		Details: map[string]interface{}{
			"resource_type": resourceType,
			"name":          name,
		},
	}
}

// BackendError creates a backend error
func BackendError(backend string, operation string, err error) *Error {
	return &Error{
		Code:    ErrCodeBackend,
		Message: fmt.Sprintf("backend %s failed during %s", backend, operation),
		Cause:   err,
		Details: map[string]interface{}{
			"backend":   backend,
			"operation": operation,
		},
	}
}

// ParseError creates a parse error
func ParseError(filePath string, err error) *Error {
	return &Error{
		Code:    ErrCodeParse,
		Message: fmt.Sprintf("failed to parse %s", filePath),
		Cause:   err,
		Details: map[string]interface{}{
			"file": filePath,
		},
	}
}

// LockInfo contains metadata about a lock
type LockInfo struct {
	ID        string
	Path      string
	Who       string
	Operation string
	Created   time.Time
}

// StateLocked creates a state locked error
func StateLocked(lockInfo LockInfo) *Error {
	return &Error{
		Code:    ErrCodeLocked,
		Message: "state is locked",
		Details: map[string]interface{}{
			"lock_id":   lockInfo.ID,
			"locked_by": lockInfo.Who,
			"operation": lockInfo.Operation,
			"created":   lockInfo.Created,
		},
	}
}

// Is checks if the error matches the given code
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
