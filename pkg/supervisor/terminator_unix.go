//go:build !windows

package supervisor

import (
	"log"
	"syscall"

	"golang.org/x/sys/unix"
)

type unixTerminator struct{}

// NewTerminator returns the platform's process terminator.
func NewTerminator() ProcessTerminator {
	return &unixTerminator{}
}

// Terminate signals the process group so interpreter children die with the
// parent. Falls back to signalling the single PID when the group kill fails
// (the process may not lead its own group).
func (t *unixTerminator) Terminate(pid int) error {
	if err := unix.Kill(-pid, syscall.SIGTERM); err == nil {
		return nil
	}

	log.Printf("Process group signal failed for pid=%d, signalling process directly", pid)
	return unix.Kill(pid, syscall.SIGTERM)
}
