// Package utils holds small filesystem helpers shared by the commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// IsDirectory checks if a path is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ProjectDir returns the absolute, cleaned form of dir. It fails when dir is
// not an existing directory.
func ProjectDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if !IsDirectory(abs) {
		return "", fmt.Errorf("project directory %s does not exist or is not a directory", dir)
	}
	return abs, nil
}
