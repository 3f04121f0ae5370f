package shellerr

import (
	"fmt"
	"strings"
)

// ShellError represents an error with additional context for troubleshooting.
type ShellError struct {
	// Code identifies the error type
	Code ErrorCode

	// Message is the primary error message
	Message string

	// Context provides additional details
	Context map[string]interface{}

	// Cause is the underlying error (if any)
	Cause error

	// Suggestion provides actionable guidance for resolving the error
	Suggestion string
}

// ErrorCode identifies categories of errors
type ErrorCode string

const (
	// Backend launch errors (fatal: startup must not proceed to the UI)
	ErrorCodeLaunchFailed        ErrorCode = "LAUNCH_FAILED"
	ErrorCodeExecutableNotFound  ErrorCode = "EXECUTABLE_NOT_FOUND"
	ErrorCodeInterpreterNotFound ErrorCode = "INTERPRETER_NOT_FOUND"

	// Health check errors (recoverable: user-arbitrated continuation)
	ErrorCodeHealthCheckTimeout ErrorCode = "HEALTH_CHECK_TIMEOUT"

	// Asset server errors
	ErrorCodeServerBindFailed ErrorCode = "SERVER_BIND_FAILED"

	// Termination errors (logged only, shutdown proceeds)
	ErrorCodeTerminationFailed ErrorCode = "TERMINATION_FAILED"

	// Instance guard errors
	ErrorCodeInstanceLocked ErrorCode = "INSTANCE_LOCKED"

	// Control surface errors (always recovered locally)
	ErrorCodeControlSurface ErrorCode = "CONTROL_SURFACE_ERROR"

	// Configuration errors
	ErrorCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"

	// Internal errors
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// Error implements the error interface
func (e *ShellError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		var contextParts []string
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *ShellError) Unwrap() error {
	return e.Cause
}

// New creates a new ShellError with the given code and message
func New(code ErrorCode, message string) *ShellError {
	return &ShellError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *ShellError) WithContext(key string, value interface{}) *ShellError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause to the error
func (e *ShellError) WithCause(cause error) *ShellError {
	e.Cause = cause
	return e
}

// WithSuggestion adds an actionable suggestion to the error
func (e *ShellError) WithSuggestion(suggestion string) *ShellError {
	e.Suggestion = suggestion
	return e
}

// Common error constructors with helpful suggestions

// ErrExecutableNotFound creates an error for when no backend executable
// candidate exists on disk
func ErrExecutableNotFound(candidates []string) *ShellError {
	return New(ErrorCodeExecutableNotFound,
		"backend executable not found in any candidate location").
		WithContext("candidates", strings.Join(candidates, ", ")).
		WithSuggestion(
			"Verify the application bundle is intact or reinstall QuantVision")
}

// ErrInterpreterNotFound creates an error for a missing dev-mode source tree
func ErrInterpreterNotFound(sourceDir string, cause error) *ShellError {
	return New(ErrorCodeInterpreterNotFound,
		"backend source directory not found for dev-mode launch").
		WithContext("source_dir", sourceDir).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Check that the backend sources are checked out: ls %s", sourceDir))
}

// ErrLaunchFailed creates an error for spawn failures
func ErrLaunchFailed(command string, cause error) *ShellError {
	return New(ErrorCodeLaunchFailed,
		"failed to start backend process").
		WithContext("command", command).
		WithCause(cause).
		WithSuggestion(
			"Common causes:\n" +
				"  1. Executable not found or not runnable\n" +
				"  2. Missing dependencies (libraries, environment variables)\n" +
				"  3. Insufficient permissions\n" +
				"Check the backend diagnostic log for details")
}

// ErrHealthCheckTimeout creates an error for an exhausted probe budget
func ErrHealthCheckTimeout(healthURL string, attempts int) *ShellError {
	return New(ErrorCodeHealthCheckTimeout,
		"backend never became healthy within the retry budget").
		WithContext("health_url", healthURL).
		WithContext("attempts", attempts).
		WithSuggestion(fmt.Sprintf(
			"Verify the liveness endpoint is responding:\n  curl %s", healthURL))
}

// ErrServerBindFailed creates an error for an unavailable asset server port
func ErrServerBindFailed(addr string, cause error) *ShellError {
	return New(ErrorCodeServerBindFailed,
		"asset server could not bind its listen address").
		WithContext("addr", addr).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Another process may hold the port. Find it with:\n  lsof -i @%s", addr))
}

// ErrTerminationFailed creates an error for process-kill failures
func ErrTerminationFailed(pid int, cause error) *ShellError {
	return New(ErrorCodeTerminationFailed,
		"failed to terminate backend process").
		WithContext("pid", pid).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Force kill manually if the process lingers:\n  kill -9 %d", pid))
}

// ErrInstanceLocked creates an error for a second launch attempt
func ErrInstanceLocked(lockPath string) *ShellError {
	return New(ErrorCodeInstanceLocked,
		"another QuantVision instance is already running").
		WithContext("lock_path", lockPath).
		WithSuggestion(
			"The running instance has been asked to come to the foreground.\n" +
				"If no window appears, remove the stale lock file and retry")
}

// IsErrorCode checks if an error has the specified error code
func IsErrorCode(err error, code ErrorCode) bool {
	if shellErr, ok := err.(*ShellError); ok {
		return shellErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or empty string if not a ShellError
func GetErrorCode(err error) ErrorCode {
	if shellErr, ok := err.(*ShellError); ok {
		return shellErr.Code
	}
	return ""
}

// GetSuggestion returns the suggestion from an error, or empty string if not available
func GetSuggestion(err error) string {
	if shellErr, ok := err.(*ShellError); ok {
		return shellErr.Suggestion
	}
	return ""
}
