package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/nexsan123/quantvision/pkg/shellerr"
)

// LaunchMode selects how the backend is launched
type LaunchMode string

const (
	// ModeDev launches the backend from sources via the interpreter
	ModeDev LaunchMode = "dev"
	// ModeProd launches the first existing packaged executable
	ModeProd LaunchMode = "prod"
)

// FirstExisting returns the first path in the ordered candidate list that
// exists on disk.
func FirstExisting(paths []string) (string, bool) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// resolveCommand builds the launch command for the given mode.
// A missing interpreter/source directory (dev) or exhausted candidate list
// (prod) is a fatal launch failure: the caller must not proceed to show UI.
func (s *Supervisor) resolveCommand(mode LaunchMode) (*exec.Cmd, error) {
	switch mode {
	case ModeDev:
		info, err := os.Stat(s.cfg.SourceDir)
		if err != nil || !info.IsDir() {
			return nil, shellerr.ErrInterpreterNotFound(s.cfg.SourceDir, err)
		}

		interpreter, err := exec.LookPath(s.cfg.Interpreter)
		if err != nil {
			return nil, shellerr.ErrInterpreterNotFound(s.cfg.SourceDir, err).
				WithContext("interpreter", s.cfg.Interpreter)
		}

		// Dev launch contract: interpreter + module, listen port as argument.
		cmd := exec.Command(interpreter,
			"-m", s.cfg.Module,
			"--port", strconv.Itoa(s.cfg.Port),
		)
		cmd.Dir = s.cfg.SourceDir
		return cmd, nil

	case ModeProd:
		executable, ok := FirstExisting(s.cfg.Candidates)
		if !ok {
			return nil, shellerr.ErrExecutableNotFound(s.cfg.Candidates)
		}

		// Prod launch contract: the listen port travels via environment.
		cmd := exec.Command(executable)
		cmd.Env = append(os.Environ(),
			fmt.Sprintf("QUANTVISION_BACKEND_PORT=%d", s.cfg.Port),
		)
		return cmd, nil

	default:
		return nil, shellerr.New(shellerr.ErrorCodeLaunchFailed,
			fmt.Sprintf("unknown launch mode: %s", mode))
	}
}
