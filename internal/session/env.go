package session

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oakshell/oak/internal/config"
)

// PrepareEnv sets the editor runtime and companion tool variables when they
// are not already present in the environment. Existing values are never
// replaced, even when empty. It returns the variables it set.
func PrepareEnv(cfg *config.Config) map[string]string {
	set := make(map[string]string)

	if name := cfg.Editor.RuntimeEnv; name != "" {
		if _, ok := os.LookupEnv(name); !ok && cfg.DataDir != "" {
			os.Setenv(name, cfg.DataDir)
			set[name] = cfg.DataDir
		}
	}

	if name := cfg.Editor.ToolEnv; name != "" {
		if _, ok := os.LookupEnv(name); !ok {
			if path := findTool(cfg.Editor.Tool); path != "" {
				os.Setenv(name, path)
				set[name] = path
			}
		}
	}

	return set
}

// findTool looks for tool on PATH, then next to the running executable.
func findTool(tool string) string {
	if tool == "" {
		return ""
	}
	if path, err := exec.LookPath(tool); err == nil {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(exe), tool)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}
