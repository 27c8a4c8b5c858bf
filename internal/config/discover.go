package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"chessmatch/internal/core"
)

// SearchDirs are checked, in order, before falling back to PATH
var SearchDirs = []string{"/usr/games", "/usr/bin", "/usr/local/bin"}

// Discover returns the binary for an engine: the explicit path if given,
// otherwise name in SearchDirs, otherwise name on PATH.
func Discover(name, explicit string) (string, error) {
	if explicit != "" {
		if isExecutable(explicit) {
			return filepath.Abs(explicit)
		}
		return "", fmt.Errorf("%w: %s at %s", core.ErrEngineNotFound, name, explicit)
	}

	for _, dir := range SearchDirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if p, err := exec.LookPath(name); err == nil {
		return filepath.Abs(p)
	}

	return "", fmt.Errorf("%w: %s (searched %v and PATH; try installing it, e.g. apt-get install %s)",
		core.ErrEngineNotFound, name, SearchDirs, name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
