package shellerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellError_Error(t *testing.T) {
	err := New(ErrorCodeLaunchFailed, "failed to start backend process").
		WithContext("command", "/opt/quantvision/backend").
		WithCause(errors.New("permission denied")).
		WithSuggestion("Check file permissions")

	msg := err.Error()
	assert.Contains(t, msg, "[LAUNCH_FAILED]")
	assert.Contains(t, msg, "failed to start backend process")
	assert.Contains(t, msg, "command=/opt/quantvision/backend")
	assert.Contains(t, msg, "Cause: permission denied")
	assert.Contains(t, msg, "Suggestion: Check file permissions")
}

func TestShellError_ErrorWithoutOptionalFields(t *testing.T) {
	err := New(ErrorCodeInternalError, "something broke")

	msg := err.Error()
	assert.Equal(t, "[INTERNAL_ERROR] something broke", msg)
}

func TestShellError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrorCodeHealthCheckTimeout, "probe failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("start backend: %w", err)
	var shellErr *ShellError
	require.ErrorAs(t, wrapped, &shellErr)
	assert.Equal(t, ErrorCodeHealthCheckTimeout, shellErr.Code)
}

func TestIsErrorCode(t *testing.T) {
	err := ErrExecutableNotFound([]string{"/opt/a", "/opt/b"})

	assert.True(t, IsErrorCode(err, ErrorCodeExecutableNotFound))
	assert.False(t, IsErrorCode(err, ErrorCodeLaunchFailed))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrorCodeExecutableNotFound))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCodeServerBindFailed,
		GetErrorCode(ErrServerBindFailed("127.0.0.1:8631", errors.New("in use"))))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *ShellError
		code ErrorCode
	}{
		{"executable not found", ErrExecutableNotFound([]string{"/opt/x"}), ErrorCodeExecutableNotFound},
		{"interpreter not found", ErrInterpreterNotFound("backend/src", errors.New("no such dir")), ErrorCodeInterpreterNotFound},
		{"launch failed", ErrLaunchFailed("python3", errors.New("exec format error")), ErrorCodeLaunchFailed},
		{"health check timeout", ErrHealthCheckTimeout("http://127.0.0.1:8630/health/live", 30), ErrorCodeHealthCheckTimeout},
		{"bind failed", ErrServerBindFailed("127.0.0.1:8631", errors.New("in use")), ErrorCodeServerBindFailed},
		{"termination failed", ErrTerminationFailed(4242, errors.New("no such process")), ErrorCodeTerminationFailed},
		{"instance locked", ErrInstanceLocked("/tmp/quantvision.lock"), ErrorCodeInstanceLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Suggestion, "constructors should carry a suggestion")
		})
	}
}

func TestGetSuggestion(t *testing.T) {
	err := ErrHealthCheckTimeout("http://127.0.0.1:8630/health/live", 30)
	assert.Contains(t, GetSuggestion(err), "curl")
	assert.Empty(t, GetSuggestion(errors.New("plain")))
}
