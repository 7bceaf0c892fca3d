package project

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotDirectory is returned when importing something that is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// New creates the directory at path and, when scaffold is non-empty, runs it
// inside the new directory (for example "cargo init").
func New(path string, scaffold []string) (string, error) {
	path, err := normalize(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}
	if len(scaffold) == 0 {
		return path, nil
	}

	cmd := exec.Command(scaffold[0], scaffold[1:]...)
	cmd.Dir = path
	if out, err := cmd.CombinedOutput(); err != nil {
		return path, fmt.Errorf("%s: %w: %s", strings.Join(scaffold, " "), err, strings.TrimSpace(string(out)))
	}
	return path, nil
}

// Import validates an existing directory for registration.
func Import(path string) (string, error) {
	path, err := normalize(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return path, nil
}

// normalize expands a leading ~ and makes path absolute.
func normalize(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
