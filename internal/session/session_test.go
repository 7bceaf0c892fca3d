package session

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"

	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/ipc"
	"github.com/oakshell/oak/internal/logging"
)

// TestMain doubles as a stand-in editor process when the test binary is
// re-executed by Start.
func TestMain(m *testing.M) {
	if len(os.Args) > 1 && os.Args[1] == EditorSubcommand {
		os.Exit(fakeEditor(os.Args[2:]))
	}
	os.Exit(m.Run())
}

const testRuntimeEnv = "OAK_TEST_RUNTIME"

// fakeEditor announces the first file, echoes one command to its terminal
// and exits with code 3.
func fakeEditor(args []string) int {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	in := os.NewFile(EditorInFD, "in")
	out := os.NewFile(EditorOutFD, "out")
	if in == nil || out == nil {
		return 10
	}
	path := "/none"
	if len(args) > 0 {
		path = args[0]
	}
	frame, err := ipc.Encode(ipc.MethodBufEnter, path)
	if err != nil {
		return 11
	}
	if _, err := out.Write(frame); err != nil {
		return 12
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return 13
	}
	fmt.Printf("got: %s", line)
	fmt.Printf("runtime=%s;\n", os.Getenv(testRuntimeEnv))
	return 3
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart_BridgesPipesAndTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	ptmx.Close()
	tty.Close()

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() error = %v", err)
	}

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Editor.RuntimeEnv = testRuntimeEnv
	cfg.Editor.ToolEnv = ""
	unsetForTest(t, testRuntimeEnv)

	s, err := Start(cfg, Options{
		Executable: exe,
		Files:      []string{"/work/main.go"},
		Cols:       100,
		Rows:       30,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Close()

	if s.Pid() <= 0 {
		t.Errorf("Pid() = %d", s.Pid())
	}
	if err := s.Resize(120, 40); err != nil {
		t.Errorf("Resize() error = %v", err)
	}

	screen := &syncBuffer{}
	go io.Copy(screen, s.Pty())

	ch := s.Channel()
	var msg ipc.Message
	deadline := time.Now().Add(10 * time.Second)
	for {
		m, ok := ch.TryReceive()
		if ok {
			msg = m
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no notification from editor process")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if msg.Kind != ipc.KindBufferEntered || msg.Path != "/work/main.go" {
		t.Fatalf("message = %+v, want BufferEntered /work/main.go", msg)
	}

	ch.Send("hello")

	if code := s.Wait(10 * time.Second); code != 3 {
		t.Errorf("Wait() = %d, want 3", code)
	}

	deadline = time.Now().Add(5 * time.Second)
	for !strings.Contains(screen.String(), "got: hello") {
		if time.Now().After(deadline) {
			t.Fatalf("terminal output = %q, want echoed command", screen.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	deadline = time.Now().Add(5 * time.Second)
	for !strings.Contains(screen.String(), "runtime="+cfg.DataDir+";") {
		if time.Now().After(deadline) {
			t.Fatalf("terminal output = %q, want runtime defaulted to the data dir", screen.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Editor side closed: the channel reports VimLeave from now on.
	deadline = time.Now().Add(5 * time.Second)
	for {
		m, ok := ch.TryReceive()
		if ok && m.Kind == ipc.KindVimLeave {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("channel did not report editor exit")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStart_MissingExecutable(t *testing.T) {
	cfg := config.Default()
	_, err := Start(cfg, Options{Executable: "/nonexistent/oak", Cols: 80, Rows: 24}, logging.Discard())
	if err == nil {
		t.Fatal("Start() expected error for missing executable")
	}
}

func TestEditorArgs(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = "/data"
	cfg.Editor.Args = []string{"-n"}

	got := EditorArgs(cfg, "/tmp/oak.sock", []string{"a.go", "b.go"})
	want := []string{"--listen", "/tmp/oak.sock", "-u", "/data/oakrc.vim", "-n", "a.go", "b.go"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("EditorArgs() = %v, want %v", got, want)
	}

	got = EditorArgs(cfg, "", nil)
	want = []string{"-u", "/data/oakrc.vim", "-n"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("EditorArgs() without socket = %v, want %v", got, want)
	}
}

func TestPrepareEnv_DefaultsRuntime(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Editor.RuntimeEnv = testRuntimeEnv
	cfg.Editor.ToolEnv = "OAK_TEST_TOOL"
	cfg.Editor.Tool = "sh"
	unsetForTest(t, testRuntimeEnv)
	unsetForTest(t, "OAK_TEST_TOOL")

	set := PrepareEnv(cfg)

	if got := os.Getenv("OAK_TEST_RUNTIME"); got != cfg.DataDir {
		t.Errorf("runtime = %q, want %q", got, cfg.DataDir)
	}
	if set["OAK_TEST_RUNTIME"] != cfg.DataDir {
		t.Errorf("PrepareEnv() set = %v", set)
	}
	if got := os.Getenv("OAK_TEST_TOOL"); !strings.HasSuffix(got, "/sh") {
		t.Errorf("tool = %q, want path to sh", got)
	}
}

func TestPrepareEnv_KeepsExistingValues(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Editor.RuntimeEnv = testRuntimeEnv
	cfg.Editor.ToolEnv = "OAK_TEST_TOOL"
	t.Setenv("OAK_TEST_RUNTIME", "/custom/runtime")
	t.Setenv("OAK_TEST_TOOL", "")

	set := PrepareEnv(cfg)

	if len(set) != 0 {
		t.Errorf("PrepareEnv() set = %v, want nothing", set)
	}
	if got := os.Getenv("OAK_TEST_RUNTIME"); got != "/custom/runtime" {
		t.Errorf("runtime = %q, want unchanged", got)
	}
	if got := os.Getenv("OAK_TEST_TOOL"); got != "" {
		t.Errorf("tool = %q, want unchanged empty value", got)
	}
}

func TestPrepareEnv_ToolNotFound(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Editor.RuntimeEnv = ""
	cfg.Editor.ToolEnv = "OAK_TEST_TOOL"
	cfg.Editor.Tool = "oak-no-such-tool"
	unsetForTest(t, "OAK_TEST_TOOL")

	PrepareEnv(cfg)

	if _, ok := os.LookupEnv("OAK_TEST_TOOL"); ok {
		t.Error("tool variable should stay unset when the tool is missing")
	}
}

func TestBridge_ForwardWritesFrames(t *testing.T) {
	var out bytes.Buffer
	b := &bridge{out: &out, logger: logging.Discard()}

	b.forward(ipc.MethodBufEnter, "/src/a.go")
	b.forward(ipc.MethodVimLeave)

	want := `[2,"bufenter",["/src/a.go"]]` + "\n" + `[2,"vimleave",[]]` + "\n"
	if out.String() != want {
		t.Errorf("frames = %q, want %q", out.String(), want)
	}
}

func unsetForTest(t *testing.T, name string) {
	t.Helper()
	// t.Setenv registers the restore.
	t.Setenv(name, "")
	os.Unsetenv(name)
}
