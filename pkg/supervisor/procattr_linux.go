//go:build linux

package supervisor

import "syscall"

// sysProcAttr places the backend in its own process group and asks the
// kernel to deliver SIGTERM if the shell dies without cleaning up.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
