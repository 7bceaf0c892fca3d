// Package app wires the editor session, the project tree and the builders
// into the terminal UI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/oakshell/oak/internal/builder"
	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/git"
	"github.com/oakshell/oak/internal/input"
	"github.com/oakshell/oak/internal/pane"
	"github.com/oakshell/oak/internal/project"
	"github.com/oakshell/oak/internal/session"
	"github.com/oakshell/oak/internal/state"
	"github.com/oakshell/oak/internal/terminal"
	"github.com/oakshell/oak/internal/ui"
	"github.com/oakshell/oak/internal/watch"
)

// View names.
const (
	treeView    = "tree"
	editorView  = "editor"
	builderView = "builder"
	statusView  = "status"
	promptView  = "prompt"
)

// editorExitWait bounds how long shutdown waits for the editor process.
const editorExitWait = 2 * time.Second

// Options configure a run.
type Options struct {
	// Files are opened in the editor at startup.
	Files []string
}

// App is the main application.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	gui    *gocui.Gui

	session  *session.Session
	state    *state.State
	stack    *pane.Stack
	registry *builder.Registry
	loop     *Loop
	actions  *Actions
	input    *input.Handler
	watcher  *watch.Watcher
	editor   *pane.Surface
	branches *git.Cache

	// Cached by RefreshTree and ShowBuilder; read by layout.
	rows    []project.Row
	builder *pane.Surface

	shell              pane.ShellLayout
	lastMaxX, lastMaxY int

	guiDone chan struct{}
}

// New creates the UI and starts the editor process. Errors are fatal to the
// caller and carry a stack trace.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	g, err := gocui.NewGui(gocui.NewGuiOpts{
		OutputMode: gocui.OutputTrue,
	})
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	maxX, maxY := g.Size()
	shell := pane.CalculateShellLayout(maxX, maxY)

	sess, err := session.Start(cfg, session.Options{
		Files: opts.Files,
		Cols:  shell.Editor.Width(),
		Rows:  shell.Editor.Height(),
	}, logger.With("component", "session"))
	if err != nil {
		g.Close()
		return nil, err
	}

	st := state.New(cfg.ManifestFiles())
	prefs := state.NewPrefsStore(cfg.PrefsFile())
	if err := prefs.Load(st); err != nil {
		logger.Warn("loading prefs", "path", cfg.PrefsFile(), "error", err)
	}

	stack := pane.NewStack(shell.Builder.Height(), shell.Builder.Width())
	registry := builder.NewRegistry(
		terminal.NewPTYSpawner(logger.With("component", "builder"), func() {
			g.Update(func(*gocui.Gui) error { return nil })
		}),
		stack,
		logger.With("component", "registry"),
	)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		gui:      g,
		session:  sess,
		state:    st,
		stack:    stack,
		registry: registry,
		input:    input.NewHandler(),
		editor:   pane.NewSurface(shell.Editor.Height(), shell.Editor.Width()),
		branches: git.NewCache(),
		builder:  stack.Visible(),
		shell:    shell,
		lastMaxX: maxX,
		lastMaxY: maxY,
		guiDone:  make(chan struct{}),
	}

	a.watcher, err = watch.New(logger.With("component", "watch"), a.redraw)
	if err != nil {
		// The tree still works, it just won't notice outside changes.
		logger.Warn("file watcher unavailable", "error", err)
	}

	a.loop = NewLoop(LoopConfig{
		State:    st,
		Prefs:    prefs,
		Channel:  sess.Channel(),
		Registry: registry,
		Stack:    stack,
		View:     a,
		Interval: time.Duration(cfg.TickInterval) * time.Millisecond,
		Logger:   logger.With("component", "loop"),
	})
	a.actions = NewActions(cfg, a.loop, a.editor)

	return a, nil
}

// RefreshTree rebuilds the visible tree rows and watches what they show.
func (a *App) RefreshTree() {
	a.rows = project.Rows(a.state)
	a.branches.Invalidate()
	if a.watcher == nil {
		return
	}
	dirs := make([]string, 0, len(a.rows))
	for _, r := range a.rows {
		if r.IsDir && r.Expanded {
			dirs = append(dirs, r.Path)
		}
	}
	a.watcher.Sync(dirs)
}

// ShowBuilder makes s the surface drawn in the builder region.
func (a *App) ShowBuilder(s *pane.Surface) {
	a.builder = s
}

// Do runs fn on the gocui goroutine.
func (a *App) Do(fn func()) {
	ran := make(chan struct{})
	a.gui.Update(func(*gocui.Gui) error {
		fn()
		close(ran)
		return nil
	})
	select {
	case <-ran:
	case <-a.guiDone:
	}
}

// Run runs the UI until the editor exits.
func (a *App) Run() error {
	defer a.Close()

	a.gui.SetManagerFunc(a.layout)
	if err := a.setupKeybindings(); err != nil {
		return fmt.Errorf("setting up keybindings: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal asks the editor to quit, a second one gives up on it.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			a.gui.Update(func(*gocui.Gui) error {
				a.actions.Quit()
				return nil
			})
		case <-ctx.Done():
			return
		}
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	go terminal.Pump(a.session.Pty(), a.editor, a.redraw)

	a.gui.Update(func(*gocui.Gui) error {
		a.actions.Startup()
		return nil
	})

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.loop.Run(ctx, a)
		a.gui.Update(func(*gocui.Gui) error {
			return gocui.ErrQuit
		})
	}()

	err := a.gui.MainLoop()
	close(a.guiDone)
	cancel()
	<-loopDone

	if err != nil && !errors.Is(err, gocui.ErrQuit) {
		return fmt.Errorf("main loop: %w", err)
	}
	return nil
}

// Close stops builders, then the editor, then the UI.
func (a *App) Close() {
	a.loop.Shutdown()
	if a.watcher != nil {
		a.watcher.Close()
	}

	a.session.Close()
	if code := a.session.Wait(editorExitWait); code < 0 {
		a.logger.Warn("editor did not exit, killing it", "pid", a.session.Pid())
		a.session.Kill()
	}
	a.gui.Close()
}

// redraw asks gocui to run the layout again. Safe from any goroutine.
func (a *App) redraw() {
	a.gui.Update(func(*gocui.Gui) error { return nil })
}

// layout is the gocui manager function that arranges views.
func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	if maxX != a.lastMaxX || maxY != a.lastMaxY {
		a.resize(maxX, maxY)
	}
	if a.watcher != nil && a.watcher.Changed() {
		a.RefreshTree()
	}
	mode := a.input.Mode()

	if err := a.layoutTree(g, mode); err != nil {
		return err
	}
	if err := a.layoutEditor(g, mode); err != nil {
		return err
	}
	if err := a.layoutBuilder(g, mode); err != nil {
		return err
	}
	if err := a.layoutStatus(g, mode, maxX); err != nil {
		return err
	}
	return a.layoutFocus(g, mode, maxX, maxY)
}

func (a *App) resize(maxX, maxY int) {
	a.shell = pane.CalculateShellLayout(maxX, maxY)
	a.lastMaxX, a.lastMaxY = maxX, maxY

	cols, rows := a.shell.Editor.Width(), a.shell.Editor.Height()
	a.editor.Resize(rows, cols)
	if err := a.session.Resize(cols, rows); err != nil {
		a.logger.Debug("resize editor", "error", err)
	}
	a.registry.Resize(a.shell.Builder.Width(), a.shell.Builder.Height())
}

func setView(g *gocui.Gui, name string, l pane.Layout) (*gocui.View, error) {
	v, err := g.SetView(name, l.X0, l.Y0, l.X1, l.Y1, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return nil, err
	}
	return v, nil
}

func (a *App) layoutTree(g *gocui.Gui, mode input.Mode) error {
	v, err := setView(g, treeView, a.shell.Tree)
	if err != nil {
		return err
	}
	ui.ConfigurePaneView(v, "projects", mode.IsTree(), mode)
	v.Clear()

	sel := project.IndexOf(a.rows, a.state.Selection())
	fmt.Fprint(v, ui.RenderTree(a.rows, sel, a.shell.Tree.Width()))

	// Keep the selection on screen.
	_, oy := v.Origin()
	height := a.shell.Tree.Height()
	switch {
	case sel < 0:
	case sel < oy:
		v.SetOrigin(0, sel)
	case sel >= oy+height:
		v.SetOrigin(0, sel-height+1)
	}
	return nil
}

func (a *App) layoutEditor(g *gocui.Gui, mode input.Mode) error {
	v, err := setView(g, editorView, a.shell.Editor)
	if err != nil {
		return err
	}
	title := a.cfg.Editor.Command
	if sel := a.state.Selection(); sel != "" && !isDir(sel) {
		title = filepath.Base(sel)
	}
	ui.ConfigurePaneView(v, title, mode.IsEditor(), mode)
	v.Editable = true
	v.Editor = gocui.EditorFunc(a.editorInput)
	v.Clear()
	ui.RenderTerminal(v, a.editor)
	return nil
}

func (a *App) layoutBuilder(g *gocui.Gui, mode input.Mode) error {
	v, err := setView(g, builderView, a.shell.Builder)
	if err != nil {
		return err
	}
	ui.ConfigurePaneView(v, a.builderTitle(), false, mode)
	v.Clear()
	ui.RenderTerminal(v, a.builder)
	return nil
}

func (a *App) builderTitle() string {
	shown := a.registry.Shown()
	if shown == "" {
		return "builder"
	}
	b, ok := a.registry.Get(shown)
	if !ok {
		return filepath.Base(shown)
	}
	return fmt.Sprintf("%s: %s", filepath.Base(shown), builderStatus(b))
}

func builderStatus(b *builder.Builder) string {
	switch {
	case b.Process == nil:
		return "failed"
	case b.Running():
		return "running"
	default:
		return "exited"
	}
}

func (a *App) layoutStatus(g *gocui.Gui, mode input.Mode, maxX int) error {
	v, err := setView(g, statusView, a.shell.Status)
	if err != nil {
		return err
	}

	info := ui.StatusInfo{
		Mode:      mode,
		Selection: git.ShortenPath(a.state.Selection()),
		EasyMode:  a.state.EasyMode(),
		FontSize:  a.state.FontSize(),
	}
	if root, ok := a.state.SelectedProject(); ok {
		info.Selection = a.state.Selection()
		info.Project = root
		info.Branch = a.branches.Branch(root)
		if b, ok := a.registry.Get(root); ok {
			info.Builder = builderStatus(b)
		}
	}

	second := ui.HintLine(a.cfg.Keys, maxX)
	if notice := a.actions.Notice(); notice != "" {
		second = ui.Truncate(" "+notice, maxX)
	}
	ui.ConfigureStatusBar(v, ui.StatusLine(info, maxX), second)
	return nil
}

func (a *App) layoutFocus(g *gocui.Gui, mode input.Mode, maxX, maxY int) error {
	if mode.IsPrompt() {
		x0, y0, x1, y1 := ui.ModalDimensions(maxX, maxY, 60, 2)
		v, err := g.SetView(promptView, x0, y0, x1, y1, 0)
		if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		buffer := a.input.Buffer()
		ui.ConfigurePromptModal(v, a.input.Prompt(), buffer)
		v.Editor = gocui.EditorFunc(a.promptInput)
		if _, err := g.SetCurrentView(promptView); err != nil {
			return err
		}
		g.Cursor = true
		v.SetCursor(len([]rune(buffer))+1, 0)
		return nil
	}

	g.DeleteView(promptView)

	if mode.IsTree() {
		if _, err := g.SetCurrentView(treeView); err != nil {
			return err
		}
		g.Cursor = false
		return nil
	}

	v, err := g.SetCurrentView(editorView)
	if err != nil {
		return err
	}
	g.Cursor = a.editor.CursorVisible()
	x, y := a.editor.Cursor()
	v.SetCursor(x, y)
	return nil
}

// editorInput forwards keystrokes to the editor pty.
func (a *App) editorInput(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	if !a.input.Mode().IsEditor() {
		return false
	}
	b := ui.EncodeKey(key, ch, mod)
	if b == nil {
		return false
	}
	if _, err := a.session.Pty().Write(b); err != nil {
		a.logger.Debug("write to editor", "error", err)
	}
	return true
}

// promptInput edits the prompt buffer.
func (a *App) promptInput(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	if !a.input.Mode().IsPrompt() {
		return false
	}
	switch {
	case ch != 0 && mod == gocui.ModNone:
		a.input.Append(ch)
	case key == gocui.KeySpace:
		a.input.Append(' ')
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		a.input.Backspace()
	default:
		return false
	}
	return true
}

func (a *App) submitPrompt() {
	kind, text := a.input.Submit()
	switch kind {
	case input.PromptNewProject:
		a.actions.NewProject(text)
	case input.PromptImport:
		a.actions.ImportProject(text)
	}
}

// promptStart is the initial prompt text: the directory next to the
// selected project.
func (a *App) promptStart() string {
	if root, ok := a.state.SelectedProject(); ok {
		return filepath.Dir(root) + string(filepath.Separator)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd + string(filepath.Separator)
	}
	return ""
}
