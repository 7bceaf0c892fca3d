// Package terminal runs child processes attached to pseudo-terminals and
// pumps their output into terminal surfaces.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// ErrEmptyCommand is returned when Spawn is given no argv.
var ErrEmptyCommand = errors.New("empty command")

// Process is a running child attached to a terminal.
type Process interface {
	Pid() int
	// Terminate kills the process without a shutdown handshake.
	Terminate() error
	Resize(cols, rows int) error
	// Done is closed once the process has been reaped.
	Done() <-chan struct{}
}

// Spawner starts processes whose terminal output is written to out.
type Spawner interface {
	Spawn(dir string, argv []string, cols, rows int, out io.Writer) (Process, error)
}

// PTYSpawner starts each process on its own pseudo-terminal.
type PTYSpawner struct {
	logger *slog.Logger
	notify func()
}

// NewPTYSpawner creates a spawner that logs process lifecycle to logger.
// notify, when non-nil, is called from the output goroutine after every
// chunk of output and once the process has exited, so the UI can redraw.
func NewPTYSpawner(logger *slog.Logger, notify func()) *PTYSpawner {
	return &PTYSpawner{logger: logger, notify: notify}
}

// Spawn starts argv in dir on a new pty of the given size. Output is copied
// into out until the process exits, followed by an exit status line.
func (s *PTYSpawner) Spawn(dir string, argv []string, cols, rows int, out io.Writer) (Process, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, winsize(cols, rows))
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	p := &ptyProcess{
		cmd:      cmd,
		ptmx:     ptmx,
		done:     make(chan struct{}),
		exitCode: -1,
		logger:   s.logger.With("pid", cmd.Process.Pid, "argv", argv),
		notify:   s.notify,
	}
	p.logger.Info("process started", "dir", dir)

	go p.run(out)

	return p, nil
}

// ptyProcess is a child started by PTYSpawner.
type ptyProcess struct {
	cmd      *exec.Cmd
	ptmx     *os.File
	done     chan struct{}
	logger   *slog.Logger
	notify   func()
	mu       sync.Mutex
	exitCode int
	killed   bool
	closed   bool
}

func (p *ptyProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *ptyProcess) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit status, or -1 while the process is running.
func (p *ptyProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Terminate sends SIGKILL to the process group so that children of the
// command (a compiled binary under "go run", for example) die with it.
func (p *ptyProcess) Terminate() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.killed = true
	p.mu.Unlock()

	pid := p.cmd.Process.Pid
	// pty.Start puts the child in its own session, so its pgid is its pid.
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		p.logger.Warn("kill process group failed", "error", err)
		return p.cmd.Process.Kill()
	}
	p.logger.Info("process terminated")
	return nil
}

func (p *ptyProcess) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	return pty.Setsize(p.ptmx, winsize(cols, rows))
}

// run copies output until the pty reports EOF or EIO (every slave fd closed),
// then reaps the process and reports how it ended.
func (p *ptyProcess) run(out io.Writer) {
	if err := Pump(p.ptmx, out, p.notify); err != nil {
		p.logger.Debug("pty read error", "error", err)
	}

	err := p.cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
	}

	p.mu.Lock()
	p.exitCode = code
	p.closed = true
	killed := p.killed
	p.ptmx.Close()
	p.mu.Unlock()

	if !killed {
		fmt.Fprintf(out, "\r\n[process exited with code %d]\r\n", code)
	}
	p.logger.Info("process exited", "exit_code", code, "killed", killed)
	close(p.done)
	if p.notify != nil {
		p.notify()
	}
}

func winsize(cols, rows int) *pty.Winsize {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
}
