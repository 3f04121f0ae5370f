//go:build windows

package supervisor

import (
	"os/exec"
	"strconv"
)

type windowsTerminator struct{}

// NewTerminator returns the platform's process terminator.
func NewTerminator() ProcessTerminator {
	return &windowsTerminator{}
}

// Terminate kills the process tree. Windows has no SIGTERM equivalent for
// console-less children, so taskkill /T /F is the reliable path.
func (t *windowsTerminator) Terminate(pid int) error {
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").Run()
}
