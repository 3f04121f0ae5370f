package supervisor

import (
	"errors"
	"os/exec"
	"syscall"
)

// exitStateFrom converts a Wait error into an ExitState.
func exitStateFrom(err error) ExitState {
	if err == nil {
		return ExitState{Code: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		state := ExitState{Code: exitErr.ExitCode()}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			state.Signal = ws.Signal().String()
		}
		return state
	}

	return ExitState{Code: -1}
}
