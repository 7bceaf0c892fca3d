package app

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oakshell/oak/internal/builder"
	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/ipc"
	"github.com/oakshell/oak/internal/logging"
	"github.com/oakshell/oak/internal/pane"
	"github.com/oakshell/oak/internal/state"
	"github.com/oakshell/oak/internal/terminal"
)

type fakeChannel struct {
	inbox     []ipc.Message
	sent      []string
	listeners int
	closed    int
}

func (c *fakeChannel) Send(text string) { c.sent = append(c.sent, text) }

func (c *fakeChannel) RegisterListeners() { c.listeners++ }

func (c *fakeChannel) TryReceive() (ipc.Message, bool) {
	if len(c.inbox) == 0 {
		return ipc.Message{}, false
	}
	m := c.inbox[0]
	c.inbox = c.inbox[1:]
	return m, true
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

// fakeView records the loop's calls in order.
type fakeView struct {
	calls []string
	shown []*pane.Surface
}

func (v *fakeView) RefreshTree() { v.calls = append(v.calls, "refresh") }

func (v *fakeView) ShowBuilder(s *pane.Surface) {
	v.calls = append(v.calls, "show")
	v.shown = append(v.shown, s)
}

type fakeProcess struct {
	done       chan struct{}
	terminated bool
}

func (p *fakeProcess) Pid() int { return 42 }

func (p *fakeProcess) Terminate() error {
	if !p.terminated {
		p.terminated = true
		close(p.done)
	}
	return nil
}

func (p *fakeProcess) Resize(cols, rows int) error { return nil }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

type fakeSpawner struct {
	started []*fakeProcess
	argvs   [][]string
	dirs    []string
}

func (s *fakeSpawner) Spawn(dir string, argv []string, cols, rows int, out io.Writer) (terminal.Process, error) {
	p := &fakeProcess{done: make(chan struct{})}
	s.started = append(s.started, p)
	s.argvs = append(s.argvs, argv)
	s.dirs = append(s.dirs, dir)
	return p, nil
}

// syncExecutor runs fn on the calling goroutine.
var syncExecutor = ExecutorFunc(func(fn func()) { fn() })

type fixture struct {
	cfg      *config.Config
	state    *state.State
	prefs    *state.PrefsStore
	channel  *fakeChannel
	view     *fakeView
	spawner  *fakeSpawner
	stack    *pane.Stack
	registry *builder.Registry
	loop     *Loop
	editor   *pane.Surface
	actions  *Actions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	f := &fixture{
		cfg:     cfg,
		state:   state.New(cfg.ManifestFiles()),
		prefs:   state.NewPrefsStore(cfg.PrefsFile()),
		channel: &fakeChannel{},
		view:    &fakeView{},
		spawner: &fakeSpawner{},
		stack:   pane.NewStack(10, 80),
		editor:  pane.NewSurface(24, 80),
	}
	f.registry = builder.NewRegistry(f.spawner, f.stack, logging.Discard())
	f.loop = NewLoop(LoopConfig{
		State:    f.state,
		Prefs:    f.prefs,
		Channel:  f.channel,
		Registry: f.registry,
		Stack:    f.stack,
		View:     f.view,
		Interval: time.Millisecond,
		Logger:   logging.Discard(),
	})
	f.actions = NewActions(cfg, f.loop, f.editor)
	return f
}

// newProject creates a Go project directory with one source file.
func newProject(t *testing.T, name string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(root, "cmd"), 0755); err != nil {
		t.Fatal(err)
	}
	for file, body := range map[string]string{
		"go.mod":  "module example.com/" + name + "\n",
		"main.go": "package main\n",
	} {
		if err := os.WriteFile(filepath.Join(root, file), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
