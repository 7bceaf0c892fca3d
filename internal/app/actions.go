package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/oakshell/oak/internal/builder"
	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/pane"
	"github.com/oakshell/oak/internal/project"
	"github.com/oakshell/oak/internal/state"
)

// Editor commands sent over the channel.
const (
	cmdSave  = "w"
	cmdUndo  = "undo"
	cmdRedo  = "redo"
	cmdClose = "bd"
	cmdQuit  = "qall!"
)

// Actions are the operations bound to keys. Like the loop they run on the UI
// goroutine only.
type Actions struct {
	cfg      *config.Config
	state    *state.State
	loop     *Loop
	registry *builder.Registry
	channel  Channel
	editor   *pane.Surface
	logger   *slog.Logger

	notice string
}

// NewActions wires the key-bound operations to the loop's collaborators.
func NewActions(cfg *config.Config, loop *Loop, editor *pane.Surface) *Actions {
	return &Actions{
		cfg:      cfg,
		state:    loop.state,
		loop:     loop,
		registry: loop.registry,
		channel:  loop.channel,
		editor:   editor,
		logger:   loop.logger,
	}
}

// Notice returns the last message for the status bar.
func (a *Actions) Notice() string {
	return a.notice
}

func (a *Actions) setNotice(format string, args ...any) {
	a.notice = fmt.Sprintf(format, args...)
}

// Startup brings a fresh editor in line with the restored state: it opens
// the selection, applies easy mode and asks for notifications.
func (a *Actions) Startup() {
	a.editor.SetFontSize(a.state.FontSize())
	a.loop.Refresh()
	if sel := a.state.Selection(); sel != "" {
		a.openFile(sel)
	}
	a.channel.Send(easyModeCommand(a.state.EasyMode()))
	a.channel.RegisterListeners()
}

// NewProject creates a directory at path, scaffolds it and registers it.
func (a *Actions) NewProject(path string) error {
	var scaffold []string
	if len(a.cfg.Manifests) > 0 {
		scaffold = a.cfg.Manifests[0].New
	}
	root, err := project.New(path, scaffold)
	if root != "" {
		// The directory exists even when scaffolding failed.
		a.addProject(root)
	}
	if err != nil {
		a.setNotice("new project: %v", err)
	}
	return err
}

// ImportProject registers an existing directory as a project.
func (a *Actions) ImportProject(path string) error {
	root, err := project.Import(path)
	if err != nil {
		a.setNotice("import: %v", err)
		return err
	}
	a.addProject(root)
	return nil
}

func (a *Actions) addProject(root string) {
	if !a.state.AddProject(root) {
		a.setNotice("%s is already open", root)
	} else {
		a.setNotice("added %s", root)
	}
	a.state.AddExpansion(root)
	a.state.SetSelection(root)
	a.loop.SavePrefs()
	a.loop.Refresh()
}

// RemoveSelected unregisters the selected project root. Files on disk are
// left alone.
func (a *Actions) RemoveSelected() {
	sel := a.state.Selection()
	if sel == "" || !a.state.HasProject(sel) {
		a.setNotice("select a project root to remove it")
		return
	}
	a.registry.Stop(sel)
	a.state.RemoveProject(sel)
	a.setNotice("removed %s", sel)
	a.loop.SavePrefs()
	a.loop.Refresh()
}

// Select makes path the selection. Files are opened in the editor.
func (a *Actions) Select(path string) {
	a.state.SetSelection(path)
	if !isDir(path) {
		a.openFile(path)
	}
	a.loop.SavePrefs()
	a.loop.Refresh()
}

// MoveSelection moves the selection delta rows through the visible tree.
func (a *Actions) MoveSelection(delta int) {
	rows := project.Rows(a.state)
	if len(rows) == 0 {
		return
	}
	i := project.IndexOf(rows, a.state.Selection())
	if i < 0 {
		i = 0
	} else {
		i = min(max(i+delta, 0), len(rows)-1)
	}
	if rows[i].Path == a.state.Selection() {
		return
	}
	a.Select(rows[i].Path)
}

// Toggle expands or collapses the selected directory, or opens the selected
// file.
func (a *Actions) Toggle() {
	sel := a.state.Selection()
	if sel == "" {
		return
	}
	if !isDir(sel) {
		a.openFile(sel)
		return
	}
	if a.state.IsExpanded(sel) {
		a.state.RemoveExpansion(sel)
	} else {
		a.state.AddExpansion(sel)
	}
	a.loop.SavePrefs()
	a.loop.Refresh()
}

// RunCommand starts the selected project's command of the given kind,
// replacing whatever that project was running.
func (a *Actions) RunCommand(kind config.CommandKind) {
	root, ok := a.state.SelectedProject()
	if !ok {
		a.setNotice("no project selected")
		return
	}
	manifest, _ := a.cfg.ManifestFor(root)
	argv := manifest.Command(kind)
	if len(argv) == 0 {
		a.setNotice("no %s command for %s", kind, manifest.File)
		return
	}
	a.registry.Run(root, argv)
	a.setNotice("%s: %s", kind, strings.Join(argv, " "))
	a.loop.Refresh()
}

// Stop kills the selected project's builder.
func (a *Actions) Stop() {
	root, ok := a.state.SelectedProject()
	if !ok {
		return
	}
	a.registry.Stop(root)
	a.loop.Refresh()
}

// Save writes the current editor buffer.
func (a *Actions) Save() { a.channel.Send(cmdSave) }

// Undo undoes the last editor change.
func (a *Actions) Undo() { a.channel.Send(cmdUndo) }

// Redo redoes the last undone change.
func (a *Actions) Redo() { a.channel.Send(cmdRedo) }

// CloseBuffer closes the current editor buffer.
func (a *Actions) CloseBuffer() { a.channel.Send(cmdClose) }

// Quit asks the editor to exit; the loop ends when it does.
func (a *Actions) Quit() { a.channel.Send(cmdQuit) }

// ToggleEasyMode flips easy mode and tells the editor.
func (a *Actions) ToggleEasyMode() {
	on := !a.state.EasyMode()
	a.state.SetEasyMode(on)
	a.loop.SavePrefs()
	a.channel.Send(easyModeCommand(on))
}

// ChangeFontSize adjusts the font size by delta within the allowed range and
// applies it to the editor and every builder.
func (a *Actions) ChangeFontSize(delta int) {
	if !a.state.SetFontSize(a.state.FontSize() + delta) {
		return
	}
	a.loop.SavePrefs()
	a.editor.SetFontSize(a.state.FontSize())
	a.registry.SetFontSize(a.state.FontSize())
}

func (a *Actions) openFile(path string) {
	a.channel.Send(editCommand(path))
}

// editCommand opens path in the editor regardless of special characters.
// The result is always a single line.
func editCommand(path string) string {
	return fmt.Sprintf("execute 'edit ' . fnameescape(%s)", vimString(path))
}

// vimString quotes s as a double-quoted vim string with control characters
// escaped.
func vimString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\' || r == '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func easyModeCommand(on bool) string {
	if on {
		return "call OakEasyMode(1)"
	}
	return "call OakEasyMode(0)"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
