// Package builder tracks the build, test, run and clean processes started
// for each project. A project has at most one builder at a time, and each
// builder owns the terminal surface its process writes to.
package builder

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oakshell/oak/internal/pane"
	"github.com/oakshell/oak/internal/terminal"
)

// Builder is a process started for one project.
type Builder struct {
	ID          string
	ProjectPath string
	Surface     *pane.Surface
	// Process is nil when the command failed to start.
	Process terminal.Process
	Argv    []string
	Started time.Time
}

// Running reports whether the builder's process is still alive.
func (b *Builder) Running() bool {
	if b.Process == nil {
		return false
	}
	select {
	case <-b.Process.Done():
		return false
	default:
		return true
	}
}

// Registry maps project paths to their builders. It is the only owner of
// builder surfaces and processes; the stack only borrows the visible one.
//
// Registry is not safe for concurrent use; all methods run on the event loop
// goroutine.
type Registry struct {
	spawner  terminal.Spawner
	stack    *pane.Stack
	logger   *slog.Logger
	builders map[string]*Builder
	shown    string

	cols, rows int
}

// NewRegistry creates an empty registry that starts processes with spawner
// and shows surfaces in stack.
func NewRegistry(spawner terminal.Spawner, stack *pane.Stack, logger *slog.Logger) *Registry {
	rows, cols := stack.Placeholder().Dimensions()
	return &Registry{
		spawner:  spawner,
		stack:    stack,
		logger:   logger,
		builders: make(map[string]*Builder),
		cols:     cols,
		rows:     rows,
	}
}

// Run starts argv for the project at path, replacing any builder already
// running there. A command that fails to start reports the error on the new
// surface and is still recorded, without a process.
func (r *Registry) Run(path string, argv []string) *Builder {
	r.Stop(path)

	surface := pane.NewSurface(r.rows, r.cols)
	b := &Builder{
		ID:          surface.ID(),
		ProjectPath: path,
		Surface:     surface,
		Argv:        argv,
		Started:     time.Now(),
	}
	fmt.Fprintf(surface, "$ %s\r\n", strings.Join(argv, " "))

	proc, err := r.spawner.Spawn(path, argv, r.cols, r.rows, surface)
	if err != nil {
		fmt.Fprintf(surface, "\x1b[31m%v\x1b[0m\r\n", err)
		r.logger.Warn("builder failed to start", "project", path, "argv", argv, "error", err)
	} else {
		b.Process = proc
		r.logger.Info("builder started", "project", path, "argv", argv, "pid", proc.Pid(), "id", b.ID)
	}

	r.builders[path] = b
	if path == r.shown {
		r.stack.Show(surface)
	}
	return b
}

// Stop kills the builder for path and releases its surface. It is a no-op
// when path has no builder.
func (r *Registry) Stop(path string) {
	b, ok := r.builders[path]
	if !ok {
		return
	}
	delete(r.builders, path)

	if b.Process != nil {
		if err := b.Process.Terminate(); err != nil {
			r.logger.Warn("terminate builder failed", "project", path, "pid", b.Process.Pid(), "error", err)
		}
	}
	if r.stack.Visible() == b.Surface {
		r.stack.ShowPlaceholder()
	}
	b.Surface.Release()
	r.logger.Info("builder stopped", "project", path, "id", b.ID)
}

// StopAll stops every builder.
func (r *Registry) StopAll() {
	for _, path := range r.Paths() {
		r.Stop(path)
	}
}

// Show makes the builder for path visible, or the placeholder when path has
// none. path is remembered so a later Run for it becomes visible at once.
func (r *Registry) Show(path string) {
	r.shown = path
	if b, ok := r.builders[path]; ok {
		r.stack.Show(b.Surface)
		return
	}
	r.stack.ShowPlaceholder()
}

// Shown returns the path passed to the last Show.
func (r *Registry) Shown() string {
	return r.shown
}

// SetFontSize applies n to every live builder surface. Builders started
// later keep the default until it is applied again.
func (r *Registry) SetFontSize(n int) {
	for _, b := range r.builders {
		b.Surface.SetFontSize(n)
	}
}

// Resize resizes every builder surface and its pty. Later builders start at
// this size.
func (r *Registry) Resize(cols, rows int) {
	if cols < 1 || rows < 1 || (cols == r.cols && rows == r.rows) {
		return
	}
	r.cols, r.rows = cols, rows
	r.stack.Resize(rows, cols)
	for path, b := range r.builders {
		b.Surface.Resize(rows, cols)
		if b.Process == nil {
			continue
		}
		if err := b.Process.Resize(cols, rows); err != nil {
			r.logger.Debug("resize builder failed", "project", path, "error", err)
		}
	}
}

// Get returns the builder for path.
func (r *Registry) Get(path string) (*Builder, bool) {
	b, ok := r.builders[path]
	return b, ok
}

// Len returns the number of builders.
func (r *Registry) Len() int {
	return len(r.builders)
}

// Paths returns the project paths that have a builder, sorted.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.builders))
	for p := range r.builders {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
