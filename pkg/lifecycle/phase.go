package lifecycle

// Phase represents the shell's position in its startup/shutdown sequence
type Phase int

const (
	// PhaseInit - process entry, nothing shown yet
	PhaseInit Phase = iota
	// PhaseShowingSplash - splash surface visible while the backend warms up
	PhaseShowingSplash
	// PhaseStartingBackend - backend spawned, liveness polling in progress
	PhaseStartingBackend
	// PhaseBackendReady - backend answered a liveness probe
	PhaseBackendReady
	// PhaseBackendFailed - launch or polling budget failed; shutting down
	PhaseBackendFailed
	// PhaseStartingAssetServer - binding the UI bundle server (prod only)
	PhaseStartingAssetServer
	// PhaseReady - all services up, main surface being presented
	PhaseReady
	// PhaseRunning - steady state
	PhaseRunning
	// PhaseQuitting - teardown in progress
	PhaseQuitting
)

// String returns the string representation of a Phase
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "Init"
	case PhaseShowingSplash:
		return "ShowingSplash"
	case PhaseStartingBackend:
		return "StartingBackend"
	case PhaseBackendReady:
		return "BackendReady"
	case PhaseBackendFailed:
		return "BackendFailed"
	case PhaseStartingAssetServer:
		return "StartingAssetServer"
	case PhaseReady:
		return "Ready"
	case PhaseRunning:
		return "Running"
	case PhaseQuitting:
		return "Quitting"
	default:
		return "Unknown"
	}
}

// Transition is a phase change notification
type Transition struct {
	From Phase
	To   Phase
}
