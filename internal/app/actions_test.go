package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/project"
)

func TestActions_EditorCommands(t *testing.T) {
	f := newFixture(t)

	f.actions.Save()
	f.actions.Undo()
	f.actions.Redo()
	f.actions.CloseBuffer()
	f.actions.Quit()

	want := []string{"w", "undo", "redo", "bd", "qall!"}
	if strings.Join(f.channel.sent, "|") != strings.Join(want, "|") {
		t.Errorf("sent = %q, want %q", f.channel.sent, want)
	}
}

func TestActions_Startup(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "app")
	file := filepath.Join(root, "main.go")
	f.state.AddProject(root)
	f.state.SetSelection(file)
	f.state.SetEasyMode(false)
	f.state.SetFontSize(16)

	f.actions.Startup()

	want := []string{editCommand(file), "call OakEasyMode(0)"}
	if strings.Join(f.channel.sent, "|") != strings.Join(want, "|") {
		t.Errorf("sent = %q, want %q", f.channel.sent, want)
	}
	if f.channel.listeners != 1 {
		t.Errorf("listeners registered %d times, want 1", f.channel.listeners)
	}
	if f.editor.FontSize() != 16 {
		t.Errorf("editor font = %d, want 16", f.editor.FontSize())
	}
	if len(f.view.calls) == 0 || f.view.calls[0] != "refresh" {
		t.Errorf("view calls = %v, want a refresh", f.view.calls)
	}
}

func TestActions_ToggleEasyMode(t *testing.T) {
	f := newFixture(t)

	f.actions.ToggleEasyMode()
	if f.state.EasyMode() {
		t.Error("easy mode should be off after toggle")
	}
	f.actions.ToggleEasyMode()
	if !f.state.EasyMode() {
		t.Error("easy mode should be on after second toggle")
	}

	want := []string{"call OakEasyMode(0)", "call OakEasyMode(1)"}
	if strings.Join(f.channel.sent, "|") != strings.Join(want, "|") {
		t.Errorf("sent = %q, want %q", f.channel.sent, want)
	}
	if _, err := os.Stat(f.cfg.PrefsFile()); err != nil {
		t.Errorf("prefs not saved: %v", err)
	}
}

func TestActions_ChangeFontSize(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "app")
	f.state.AddProject(root)
	b := f.registry.Run(root, []string{"make"})

	f.actions.ChangeFontSize(1)
	if f.state.FontSize() != config.DefaultFontSize+1 {
		t.Errorf("FontSize() = %d", f.state.FontSize())
	}
	if f.editor.FontSize() != f.state.FontSize() || b.Surface.FontSize() != f.state.FontSize() {
		t.Error("font size should reach the editor and every builder")
	}

	f.state.SetFontSize(config.MaxFontSize)
	f.actions.ChangeFontSize(1)
	if f.state.FontSize() != config.MaxFontSize {
		t.Errorf("FontSize() = %d, want clamp at %d", f.state.FontSize(), config.MaxFontSize)
	}

	f.state.SetFontSize(config.MinFontSize)
	f.actions.ChangeFontSize(-1)
	if f.state.FontSize() != config.MinFontSize {
		t.Errorf("FontSize() = %d, want clamp at %d", f.state.FontSize(), config.MinFontSize)
	}
}

func TestActions_ImportProject(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "lib")

	if err := f.actions.ImportProject(root); err != nil {
		t.Fatalf("ImportProject() error = %v", err)
	}
	if !f.state.HasProject(root) || !f.state.IsExpanded(root) {
		t.Error("imported project should be registered and expanded")
	}
	if f.state.Selection() != root {
		t.Errorf("Selection() = %q, want %q", f.state.Selection(), root)
	}

	if err := f.actions.ImportProject(root); err != nil {
		t.Fatalf("re-import error = %v", err)
	}
	if !strings.Contains(f.actions.Notice(), "already") {
		t.Errorf("Notice() = %q, want already-open notice", f.actions.Notice())
	}
}

func TestActions_ImportFileFails(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(newProject(t, "x"), "main.go")

	err := f.actions.ImportProject(file)
	if !errors.Is(err, project.ErrNotDirectory) {
		t.Errorf("ImportProject(file) error = %v, want ErrNotDirectory", err)
	}
	if len(f.state.Projects()) != 0 {
		t.Error("failed import must not register anything")
	}
}

func TestActions_NewProject(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "fresh")

	if err := f.actions.NewProject(path); err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatalf("project dir not created: %v", err)
	}
	if !f.state.HasProject(path) {
		t.Error("new project should be registered")
	}
}

func TestActions_RemoveSelected(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "gone")
	f.actions.ImportProject(root)
	f.registry.Run(root, []string{"go", "run", "."})

	f.actions.RemoveSelected()

	if f.state.HasProject(root) {
		t.Error("project should be unregistered")
	}
	if f.registry.Len() != 0 || !f.spawner.started[0].terminated {
		t.Error("removing a project should stop its builder")
	}
	if _, err := os.Stat(root); err != nil {
		t.Error("remove must leave files on disk")
	}
}

func TestActions_RemoveRequiresProjectRoot(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "keep")
	f.state.AddProject(root)
	f.state.SetSelection(filepath.Join(root, "main.go"))

	f.actions.RemoveSelected()

	if !f.state.HasProject(root) {
		t.Error("removing with a file selected must not unregister the project")
	}
	if f.actions.Notice() == "" {
		t.Error("expected a notice")
	}
}

func TestActions_MoveSelectionOpensFiles(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "nav")
	f.state.AddProject(root)
	f.state.AddExpansion(root)

	// Rows: nav, cmd/, go.mod, main.go
	f.actions.MoveSelection(1)
	if f.state.Selection() != root {
		t.Fatalf("first move should select the first row, got %q", f.state.Selection())
	}
	f.actions.MoveSelection(1)
	if f.state.Selection() != filepath.Join(root, "cmd") {
		t.Fatalf("Selection() = %q, want cmd dir", f.state.Selection())
	}
	if len(f.channel.sent) != 0 {
		t.Errorf("selecting directories sent %q", f.channel.sent)
	}

	f.actions.MoveSelection(10)
	last := filepath.Join(root, "main.go")
	if f.state.Selection() != last {
		t.Fatalf("Selection() = %q, want clamp to %q", f.state.Selection(), last)
	}
	if got := f.channel.sent[len(f.channel.sent)-1]; got != editCommand(last) {
		t.Errorf("last command = %q, want %q", got, editCommand(last))
	}

	sent := len(f.channel.sent)
	f.actions.MoveSelection(1)
	if len(f.channel.sent) != sent {
		t.Error("moving past the end should not reopen the file")
	}
}

func TestActions_Toggle(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "tog")
	f.state.AddProject(root)
	cmd := filepath.Join(root, "cmd")
	f.state.SetSelection(cmd)

	f.actions.Toggle()
	if !f.state.IsExpanded(cmd) {
		t.Error("Toggle should expand the selected directory")
	}
	f.actions.Toggle()
	if f.state.IsExpanded(cmd) {
		t.Error("second Toggle should collapse it")
	}

	file := filepath.Join(root, "main.go")
	f.state.SetSelection(file)
	f.actions.Toggle()
	if len(f.channel.sent) != 1 || f.channel.sent[0] != editCommand(file) {
		t.Errorf("Toggle on a file sent %q", f.channel.sent)
	}
}

func TestActions_RunCommand(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "runner")
	f.state.AddProject(root)
	f.state.SetSelection(filepath.Join(root, "main.go"))

	f.actions.RunCommand(config.CommandTest)

	b, ok := f.registry.Get(root)
	if !ok {
		t.Fatal("RunCommand should start a builder")
	}
	if strings.Join(b.Argv, " ") != "go test ./..." {
		t.Errorf("argv = %v", b.Argv)
	}
	if f.spawner.dirs[0] != root {
		t.Errorf("dir = %q, want project root", f.spawner.dirs[0])
	}
	if f.stack.Visible() != b.Surface {
		t.Error("the selected project's builder should be visible")
	}

	f.actions.RunCommand(config.CommandBuild)
	if !f.spawner.started[0].terminated {
		t.Error("starting a new command should stop the previous one")
	}

	f.actions.Stop()
	if f.registry.Len() != 0 {
		t.Error("Stop should remove the builder")
	}
	if !f.stack.IsPlaceholder() {
		t.Error("placeholder should show after Stop")
	}
}

func TestActions_RunCommandWithoutSelection(t *testing.T) {
	f := newFixture(t)

	f.actions.RunCommand(config.CommandRun)

	if f.registry.Len() != 0 {
		t.Error("no builder should start without a selection")
	}
	if f.actions.Notice() == "" {
		t.Error("expected a notice")
	}
}

func TestEditCommand_QuotesPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/it's here.go", `execute 'edit ' . fnameescape("/tmp/it's here.go")`},
		{`/tmp/say "hi".go`, `execute 'edit ' . fnameescape("/tmp/say \"hi\".go")`},
		{`/tmp/back\slash.go`, `execute 'edit ' . fnameescape("/tmp/back\\slash.go")`},
		{"/tmp/tab\there.go", `execute 'edit ' . fnameescape("/tmp/tab\x09here.go")`},
	}
	for _, tt := range tests {
		if got := editCommand(tt.path); got != tt.want {
			t.Errorf("editCommand(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEditCommand_NewlineStaysOnOneLine(t *testing.T) {
	got := editCommand("/tmp/x\n!touch injected #\r.go")
	want := `execute 'edit ' . fnameescape("/tmp/x\n!touch injected #\r.go")`
	if got != want {
		t.Errorf("editCommand() = %q, want %q", got, want)
	}
	if strings.ContainsAny(got, "\r\n") {
		t.Errorf("editCommand() spans more than one line: %q", got)
	}
}

func TestSelect_FileWithNewlineSendsOneCommand(t *testing.T) {
	f := newFixture(t)
	root := newProject(t, "app")
	f.state.AddProject(root)

	path := filepath.Join(root, "x\n!touch injected #")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Skipf("filesystem rejects newline names: %v", err)
	}

	f.actions.Select(path)

	if len(f.channel.sent) != 1 {
		t.Fatalf("sent %d commands, want 1: %q", len(f.channel.sent), f.channel.sent)
	}
	if cmd := f.channel.sent[0]; strings.ContainsAny(cmd, "\r\n") {
		t.Errorf("edit command spans more than one line: %q", cmd)
	}
}
