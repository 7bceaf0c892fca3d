package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oakshell/oak/internal/builder"
	"github.com/oakshell/oak/internal/ipc"
	"github.com/oakshell/oak/internal/pane"
	"github.com/oakshell/oak/internal/project"
	"github.com/oakshell/oak/internal/state"
)

// Channel is the shell end of the editor connection.
type Channel interface {
	Send(text string)
	RegisterListeners()
	TryReceive() (ipc.Message, bool)
	Close() error
}

// View is the part of the UI the loop refreshes after each editor message.
type View interface {
	RefreshTree()
	ShowBuilder(s *pane.Surface)
}

// Executor runs fn on the UI goroutine once the UI has handled its pending
// events. Do returns after fn has run, or without running it once the UI is
// gone.
type Executor interface {
	Do(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

// Do calls f(fn).
func (f ExecutorFunc) Do(fn func()) { f(fn) }

// Loop polls the editor channel and keeps the tree and builder stack in step
// with it. All of its state is touched only from inside Executor.Do.
type Loop struct {
	state    *state.State
	prefs    *state.PrefsStore
	channel  Channel
	registry *builder.Registry
	stack    *pane.Stack
	view     View
	interval time.Duration
	logger   *slog.Logger

	shutdown sync.Once
}

// LoopConfig holds the loop's collaborators.
type LoopConfig struct {
	State    *state.State
	Prefs    *state.PrefsStore // optional
	Channel  Channel
	Registry *builder.Registry
	Stack    *pane.Stack
	View     View
	Interval time.Duration
	Logger   *slog.Logger
}

// NewLoop creates a loop.
func NewLoop(cfg LoopConfig) *Loop {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &Loop{
		state:    cfg.State,
		prefs:    cfg.Prefs,
		channel:  cfg.Channel,
		registry: cfg.Registry,
		stack:    cfg.Stack,
		view:     cfg.View,
		interval: interval,
		logger:   cfg.Logger,
	}
}

// Tick receives at most one editor message and handles it. It reports
// whether the editor has gone away.
func (l *Loop) Tick() bool {
	msg, ok := l.channel.TryReceive()
	if !ok {
		return false
	}

	quit := false
	switch msg.Kind {
	case ipc.KindBufferEntered:
		l.state.SetSelection(msg.Path)
		project.ExpandTo(l.state, msg.Path)
		l.SavePrefs()
	case ipc.KindVimLeave:
		quit = true
	default:
		l.logger.Debug("ignoring notification", "method", msg.Method)
	}

	l.Refresh()
	return quit
}

// Refresh redraws the tree, shows the selected project's builder and applies
// the current font size, in that order.
func (l *Loop) Refresh() {
	l.view.RefreshTree()
	selected, _ := l.state.SelectedProject()
	l.registry.Show(selected)
	l.view.ShowBuilder(l.stack.Visible())
	l.registry.SetFontSize(l.state.FontSize())
}

// SavePrefs persists the state. Failures are logged.
func (l *Loop) SavePrefs() {
	if l.prefs == nil {
		return
	}
	if err := l.prefs.Save(l.state); err != nil {
		l.logger.Warn("saving prefs", "error", err)
	}
}

// Run ticks until the editor leaves or ctx is cancelled, then shuts down.
func (l *Loop) Run(ctx context.Context, exec Executor) error {
	defer exec.Do(l.Shutdown)

	for {
		if ctx.Err() != nil {
			return nil
		}

		quit := false
		exec.Do(func() {
			quit = l.Tick()
		})
		if quit {
			l.logger.Info("editor left")
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.interval):
		}
	}
}

// Shutdown stops every builder and closes the editor channel. Only the
// first call has any effect.
func (l *Loop) Shutdown() {
	l.shutdown.Do(func() {
		l.registry.StopAll()
		if err := l.channel.Close(); err != nil {
			l.logger.Debug("closing channel", "error", err)
		}
	})
}
