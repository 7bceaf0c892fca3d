package app

import (
	"github.com/jesseduffield/gocui"

	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/input"
)

// shellViews receive the shell shortcuts. View-scoped bindings run before a
// view's editor, so the shortcuts win over keys forwarded to the editor.
var shellViews = []string{treeView, editorView, builderView}

type binding struct {
	key    string
	action func()
}

// setupKeybindings configures all keyboard handlers.
func (a *App) setupKeybindings() error {
	g := a.gui
	keys := a.cfg.Keys

	// === SHELL SHORTCUTS ===

	shortcuts := []binding{
		{keys.NewProject, func() { a.input.OpenPrompt(input.PromptNewProject, a.promptStart()) }},
		{keys.Import, func() { a.input.OpenPrompt(input.PromptImport, a.promptStart()) }},
		{keys.Remove, a.actions.RemoveSelected},
		{keys.Run, func() { a.actions.RunCommand(config.CommandRun) }},
		{keys.Build, func() { a.actions.RunCommand(config.CommandBuild) }},
		{keys.Test, func() { a.actions.RunCommand(config.CommandTest) }},
		{keys.Clean, func() { a.actions.RunCommand(config.CommandClean) }},
		{keys.Stop, a.actions.Stop},
		{keys.EasyMode, a.actions.ToggleEasyMode},
		{keys.FontDec, func() { a.actions.ChangeFontSize(-1) }},
		{keys.FontInc, func() { a.actions.ChangeFontSize(1) }},
		{keys.Save, a.actions.Save},
		{keys.Undo, a.actions.Undo},
		{keys.Redo, a.actions.Redo},
		{keys.Close, a.actions.CloseBuffer},
		{keys.Focus, func() { a.input.ToggleFocus() }},
		{keys.Quit, a.actions.Quit},
	}
	for _, view := range shellViews {
		if err := a.bindAll(view, shortcuts); err != nil {
			return err
		}
	}

	// === TREE NAVIGATION ===

	tree := []binding{
		{keys.NavUp, func() { a.actions.MoveSelection(-1) }},
		{keys.NavDown, func() { a.actions.MoveSelection(1) }},
		{keys.Toggle, a.actions.Toggle},
		{"up", func() { a.actions.MoveSelection(-1) }},
		{"down", func() { a.actions.MoveSelection(1) }},
		{"esc", a.input.FocusEditor},
	}
	if err := a.bindAll(treeView, tree); err != nil {
		return err
	}

	// === PROMPT ===

	if err := g.SetKeybinding(promptView, gocui.KeyEnter, gocui.ModNone, func(g *gocui.Gui, v *gocui.View) error {
		a.submitPrompt()
		return nil
	}); err != nil {
		return err
	}
	if err := g.SetKeybinding(promptView, gocui.KeyEsc, gocui.ModNone, func(g *gocui.Gui, v *gocui.View) error {
		a.input.CancelPrompt()
		return nil
	}); err != nil {
		return err
	}

	return nil
}

// bindAll binds each non-empty key to its action on view. Keys were
// validated when the config was loaded.
func (a *App) bindAll(view string, bindings []binding) error {
	for _, b := range bindings {
		if b.key == "" {
			continue
		}
		k := config.MustParseKey(b.key)
		action := b.action
		if err := a.gui.SetKeybinding(view, k.Value, k.Mod, func(g *gocui.Gui, v *gocui.View) error {
			action()
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
