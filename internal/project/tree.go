// Package project builds the project tree shown in the sidebar and creates
// new projects on disk.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oakshell/oak/internal/state"
)

// Row is one visible line of the project tree.
type Row struct {
	Path      string
	Name      string
	Depth     int
	IsDir     bool
	Expanded  bool
	IsProject bool
}

// Rows returns the visible tree: every registered project root followed by
// the children of its expanded directories. Hidden entries are skipped and
// directories sort before files.
func Rows(s *state.State) []Row {
	var rows []Row
	for _, root := range s.Projects() {
		expanded := s.IsExpanded(root)
		rows = append(rows, Row{
			Path:      root,
			Name:      filepath.Base(root),
			IsDir:     true,
			Expanded:  expanded,
			IsProject: true,
		})
		if expanded {
			rows = appendChildren(rows, s, root, 1)
		}
	}
	return rows
}

func appendChildren(rows []Row, s *state.State, dir string, depth int) []Row {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return rows
	}

	visible := entries[:0]
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			visible = append(visible, e)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return visible[i].Name() < visible[j].Name()
	})

	for _, e := range visible {
		path := filepath.Join(dir, e.Name())
		row := Row{
			Path:  path,
			Name:  e.Name(),
			Depth: depth,
			IsDir: e.IsDir(),
		}
		if row.IsDir {
			row.Expanded = s.IsExpanded(path)
			row.IsProject = s.HasProject(path)
		}
		rows = append(rows, row)
		if row.Expanded {
			rows = appendChildren(rows, s, path, depth+1)
		}
	}
	return rows
}

// IndexOf returns the row index for path, or -1.
func IndexOf(rows []Row, path string) int {
	for i, r := range rows {
		if r.Path == path {
			return i
		}
	}
	return -1
}

// ExpandTo expands every directory between the project containing path and
// path itself, so the row becomes visible.
func ExpandTo(s *state.State, path string) {
	root, ok := s.ProjectPath(path)
	if !ok || !s.HasProject(root) {
		return
	}
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if dir != root && !state.IsParentPath(root, dir) {
			return
		}
		s.AddExpansion(dir)
		if dir == root {
			return
		}
	}
}
