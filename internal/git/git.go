// Package git looks up the repository a project lives in, for display in the
// status bar.
package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RepoInfo describes the repository containing a project.
type RepoInfo struct {
	Root   string // absolute path to repo root
	Branch string // current branch, or short commit when detached
}

// FindRepoRoot finds the main git repository root from the given path.
// For worktrees, this returns the main repository root, not the worktree path.
func FindRepoRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	out, err := run(absPath, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", absPath)
	}

	gitDir := out
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(absPath, gitDir)
	}
	return filepath.Dir(filepath.Clean(gitDir)), nil
}

// CurrentBranch returns the current branch name for the given path. A
// detached HEAD yields the short commit hash.
func CurrentBranch(path string) (string, error) {
	branch, err := run(path, "branch", "--show-current")
	if err == nil && branch != "" {
		return branch, nil
	}
	commit, err := run(path, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	if commit == "" {
		return "HEAD", nil
	}
	return commit, nil
}

// Lookup returns repository information for path.
func Lookup(path string) (*RepoInfo, error) {
	root, err := FindRepoRoot(path)
	if err != nil {
		return nil, err
	}
	branch, err := CurrentBranch(path)
	if err != nil {
		branch = "unknown"
	}
	return &RepoInfo{Root: root, Branch: branch}, nil
}

// Cache remembers the branch of each project so the status bar does not
// start git on every redraw. It is not safe for concurrent use.
type Cache struct {
	lookup   func(string) (*RepoInfo, error)
	branches map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{lookup: Lookup, branches: make(map[string]string)}
}

// Branch returns the cached branch for project, looking it up on first use.
// Projects outside a repository yield "".
func (c *Cache) Branch(project string) string {
	if project == "" {
		return ""
	}
	if b, ok := c.branches[project]; ok {
		return b
	}
	var branch string
	if info, err := c.lookup(project); err == nil {
		branch = info.Branch
	}
	c.branches[project] = branch
	return branch
}

// Invalidate forgets every cached branch.
func (c *Cache) Invalidate() {
	clear(c.branches)
}

// ShortenPath shortens a path for display by replacing home dir with ~.
func ShortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}
