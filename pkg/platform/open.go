package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

// OpenExternal opens the URL with the OS default-handler mechanism.
// Fire-and-forget: the handler process is not waited on.
func OpenExternal(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("refusing to open non-http url: %s", url)
	}

	name, args := openCommand(url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open external url: %w", err)
	}

	// Reap the handler process in the background so it never zombies.
	go func() { _ = cmd.Wait() }()

	return nil
}
