// Package session starts the editor as a second process. The shell keeps
// the pty master and one end of each of two pipes; the editor process gets
// the pty slave as its terminal and the other pipe ends as fds 3 and 4.
package session

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"

	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/ipc"
)

// File descriptors the editor process inherits.
const (
	// EditorInFD is the read end of the shell→editor pipe.
	EditorInFD = 3
	// EditorOutFD is the write end of the editor→shell pipe.
	EditorOutFD = 4
)

// EditorSubcommand is the hidden command that runs the editor half.
const EditorSubcommand = "editor"

// Options control how the editor process is started.
type Options struct {
	// Executable re-invoked with EditorSubcommand. Defaults to os.Executable.
	Executable string
	// Files are opened in the editor at startup.
	Files      []string
	Cols, Rows int
}

// Session is the shell side of a running editor process.
type Session struct {
	cmd     *exec.Cmd
	ptmx    *os.File
	channel *ipc.Channel
	logger  *slog.Logger

	done     chan struct{}
	exitCode int
}

// Start defaults the editor environment from cfg, allocates the pipes and the
// pty and spawns the editor process. Any failure here leaves the shell
// unusable, so errors carry a stack trace.
func Start(cfg *config.Config, opts Options, logger *slog.Logger) (*Session, error) {
	if set := PrepareEnv(cfg); len(set) > 0 {
		logger.Debug("editor environment defaulted", "vars", set)
	}

	fromEditorR, fromEditorW, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	toEditorR, toEditorW, err := os.Pipe()
	if err != nil {
		closeAll(fromEditorR, fromEditorW)
		return nil, errors.Wrap(err, 0)
	}
	ptmx, tty, err := pty.Open()
	if err != nil {
		closeAll(fromEditorR, fromEditorW, toEditorR, toEditorW)
		return nil, errors.Wrap(err, 0)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(max(opts.Cols, 1)), Rows: uint16(max(opts.Rows, 1))}); err != nil {
		logger.Debug("initial pty size failed", "error", err)
	}

	exe := opts.Executable
	if exe == "" {
		if exe, err = os.Executable(); err != nil {
			closeAll(fromEditorR, fromEditorW, toEditorR, toEditorW, ptmx, tty)
			return nil, errors.Wrap(err, 0)
		}
	}

	args := append([]string{EditorSubcommand, "--"}, opts.Files...)
	cmd := exec.Command(exe, args...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	// ExtraFiles[i] becomes fd 3+i in the child.
	cmd.ExtraFiles = []*os.File{toEditorR, fromEditorW}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	if err := cmd.Start(); err != nil {
		closeAll(fromEditorR, fromEditorW, toEditorR, toEditorW, ptmx, tty)
		return nil, errors.Wrap(err, 0)
	}
	// The child holds its own copies now.
	closeAll(tty, toEditorR, fromEditorW)

	ch, err := ipc.NewChannel(fromEditorR, toEditorW, logger.With("component", "ipc"))
	if err != nil {
		cmd.Process.Kill()
		closeAll(fromEditorR, toEditorW, ptmx)
		return nil, errors.Wrap(err, 0)
	}

	s := &Session{
		cmd:      cmd,
		ptmx:     ptmx,
		channel:  ch,
		logger:   logger,
		done:     make(chan struct{}),
		exitCode: -1,
	}
	go s.wait()

	logger.Info("editor started", "pid", cmd.Process.Pid, "exe", filepath.Base(exe))
	return s, nil
}

// Pid returns the editor process id.
func (s *Session) Pid() int {
	return s.cmd.Process.Pid
}

// Pty returns the pty master the editor draws to.
func (s *Session) Pty() *os.File {
	return s.ptmx
}

// Channel returns the notification channel to the editor.
func (s *Session) Channel() *ipc.Channel {
	return s.channel
}

// Resize changes the editor's terminal size.
func (s *Session) Resize(cols, rows int) error {
	if cols < 1 || rows < 1 {
		return nil
	}
	return pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Done is closed once the editor process has been reaped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the editor exits or timeout passes. It returns the exit
// code, or -1 on timeout.
func (s *Session) Wait(timeout time.Duration) int {
	select {
	case <-s.done:
		return s.exitCode
	case <-time.After(timeout):
		return -1
	}
}

// Kill terminates the editor's process group.
func (s *Session) Kill() {
	pid := s.cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		s.cmd.Process.Kill()
	}
}

// Close closes the pipes and the pty master. The editor process sees EOF
// on its command pipe and a hangup on its terminal.
func (s *Session) Close() {
	if err := s.channel.Close(); err != nil {
		s.logger.Debug("close channel", "error", err)
	}
	s.ptmx.Close()
}

func (s *Session) wait() {
	err := s.cmd.Wait()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
	}
	s.exitCode = code
	s.logger.Info("editor exited", "exit_code", code)
	close(s.done)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		f.Close()
	}
}
