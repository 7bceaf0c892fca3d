// Package state holds the shared UI state: registered projects, expanded
// tree nodes, the current selection, easy mode and the font size.
//
// State is owned by the event loop goroutine and is not safe for concurrent
// use.
package state

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/oakshell/oak/internal/config"
)

// State holds the application state.
type State struct {
	projects   map[string]bool
	expansions map[string]bool

	// manifests are the file names that mark a project root
	manifests []string

	selection string
	easyMode  bool
	fontSize  int
}

// New creates a State that recognizes project roots by the given manifest
// file names.
func New(manifests []string) *State {
	return &State{
		projects:   make(map[string]bool),
		expansions: make(map[string]bool),
		manifests:  manifests,
		easyMode:   true,
		fontSize:   config.DefaultFontSize,
	}
}

// Projects returns the registered project roots, sorted.
func (s *State) Projects() []string {
	return sortedKeys(s.projects)
}

// HasProject reports whether path is a registered project root.
func (s *State) HasProject(path string) bool {
	return s.projects[path]
}

// AddProject registers path as a project root. It returns false when the
// project was already registered.
func (s *State) AddProject(path string) bool {
	path = filepath.Clean(path)
	if s.projects[path] {
		return false
	}
	s.projects[path] = true
	return true
}

// RemoveProject unregisters a project root together with the expansions
// below it. It returns false when path was not registered.
func (s *State) RemoveProject(path string) bool {
	path = filepath.Clean(path)
	if !s.projects[path] {
		return false
	}
	delete(s.projects, path)
	for exp := range s.expansions {
		if exp == path || IsParentPath(path, exp) {
			delete(s.expansions, exp)
		}
	}
	if s.selection == path || IsParentPath(path, s.selection) {
		s.selection = ""
	}
	return true
}

// Expansions returns the expanded directories, sorted.
func (s *State) Expansions() []string {
	return sortedKeys(s.expansions)
}

// AddExpansion marks a directory as expanded in the tree.
func (s *State) AddExpansion(path string) {
	s.expansions[filepath.Clean(path)] = true
}

// RemoveExpansion marks a directory as collapsed in the tree.
func (s *State) RemoveExpansion(path string) {
	delete(s.expansions, filepath.Clean(path))
}

// IsExpanded reports whether a directory is expanded.
func (s *State) IsExpanded(path string) bool {
	return s.expansions[path]
}

// Selection returns the selected path, or "" when nothing is selected.
func (s *State) Selection() string {
	return s.selection
}

// SetSelection changes the selected path.
func (s *State) SetSelection(path string) {
	s.selection = path
}

// EasyMode reports whether the editor runs in insert-first mode.
func (s *State) EasyMode() bool {
	return s.easyMode
}

// SetEasyMode toggles insert-first mode.
func (s *State) SetEasyMode(on bool) {
	s.easyMode = on
}

// FontSize returns the current font size.
func (s *State) FontSize() int {
	return s.fontSize
}

// SetFontSize changes the font size. Values outside
// [config.MinFontSize, config.MaxFontSize] are rejected.
func (s *State) SetFontSize(n int) bool {
	if n < config.MinFontSize || n > config.MaxFontSize {
		return false
	}
	s.fontSize = n
	return true
}

// ProjectPath walks up from path to the first directory that contains a
// manifest file or is a registered project root.
func (s *State) ProjectPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	dir := filepath.Clean(path)
	for {
		if s.projects[dir] || s.hasManifest(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// SelectedProject returns the project containing the selection.
func (s *State) SelectedProject() (string, bool) {
	return s.ProjectPath(s.selection)
}

func (s *State) hasManifest(dir string) bool {
	for _, name := range s.manifests {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// IsParentPath reports whether child lies below parent. A direct sibling
// that merely shares a name prefix ("/a/proj" and "/a/project") does not
// count.
func IsParentPath(parent, child string) bool {
	if parent == "" || child == "" {
		return false
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
