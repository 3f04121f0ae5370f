//go:build !linux && !windows

package supervisor

import "syscall"

// sysProcAttr places the backend in its own process group so group-wide
// termination reaches interpreter children.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
