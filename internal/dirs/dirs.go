// Package dirs resolves the XDG Base Directory locations used by supallama.
package dirs

import (
	"os"
	"path/filepath"
)

const appName = "supallama"

// ConfigDir returns the global configuration directory.
// Resolution order: SUPALLAMA_CONFIG_DIR > XDG_CONFIG_HOME/supallama > ~/.config/supallama.
func ConfigDir() string {
	if dir := os.Getenv("SUPALLAMA_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// LocalDir returns the project-local override directory (.supallama) inside
// workingDir if it exists, or an empty string.
func LocalDir(workingDir string) string {
	candidate := filepath.Join(workingDir, "."+appName)
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return ""
}
