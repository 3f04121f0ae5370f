package supervisor

// ProcessTerminator terminates a process (and its descendants where the
// platform supports process groups) by PID.
type ProcessTerminator interface {
	Terminate(pid int) error
}
