// Package platform resolves OS-specific paths and default-handler commands
// for the host shell.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Name returns the platform family string exposed to the UI
// ("darwin", "linux", "windows").
func Name() string {
	return runtime.GOOS
}

// DataDir returns the per-user application data directory for the given app
// name. Falls back to a temporary directory when a platform path cannot be
// resolved.
func DataDir(appName string) string {
	fallback := filepath.Join(os.TempDir(), appName)

	switch runtime.GOOS {
	case "darwin":
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, "Library", "Application Support", appName)
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", appName)
		}
	default: // linux and others
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, ".local", "share", appName)
		}
	}

	return fallback
}

// LogDir returns the per-user log directory for the given app name.
func LogDir(appName string) string {
	switch runtime.GOOS {
	case "darwin":
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, "Library", "Logs", appName)
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName, "logs")
		}
	}
	return filepath.Join(DataDir(appName), "logs")
}

// openCommand returns the OS default-handler command for opening a URL.
func openCommand(url string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// RuntimeDir returns the directory for lock files and activation sockets.
func RuntimeDir(appName string) string {
	if runtime.GOOS != "windows" {
		if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", appName, os.Getuid()))
}
