package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/neovim/go-client/nvim"
	"golang.org/x/sys/unix"

	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/ipc"
)

// dialTimeout bounds how long the bridge waits for the editor socket.
const dialTimeout = 10 * time.Second

// EditorArgs returns the editor arguments. listen is the RPC socket path and
// may be empty.
func EditorArgs(cfg *config.Config, listen string, files []string) []string {
	var args []string
	if listen != "" {
		args = append(args, "--listen", listen)
	}
	args = append(args, "-u", cfg.RCFile())
	args = append(args, cfg.Editor.Args...)
	return append(args, files...)
}

// RunHeadless runs the editor directly on the current terminal with no
// shell around it. It returns the editor's exit code.
func RunHeadless(cfg *config.Config, files []string) (int, error) {
	PrepareEnv(cfg)
	cmd := exec.Command(cfg.Editor.Command, EditorArgs(cfg, "", files)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return exitCode(cmd.Run())
}

// RunEditor is the editor-process half. It runs inside the pty started by
// Start, launches the editor on the inherited terminal and bridges the
// editor's RPC socket to the pipes on EditorInFD and EditorOutFD.
func RunEditor(ctx context.Context, cfg *config.Config, files []string, logger *slog.Logger) (int, error) {
	for _, fd := range []int{EditorInFD, EditorOutFD} {
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
			return 1, errors.Errorf("fd %d not inherited: %v", fd, err)
		}
		// The editor itself must not hold the pipes open.
		unix.CloseOnExec(fd)
	}
	in := os.NewFile(EditorInFD, "oak-editor-in")
	out := os.NewFile(EditorOutFD, "oak-editor-out")
	defer out.Close()

	sock := filepath.Join(os.TempDir(), fmt.Sprintf("oak-%d.sock", os.Getpid()))
	os.Remove(sock)
	defer os.Remove(sock)

	cmd := exec.Command(cfg.Editor.Command, EditorArgs(cfg, sock, files)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return 1, errors.Wrap(err, 0)
	}
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	v, err := dial(ctx, sock, exited)
	if err != nil {
		if exitErr, ok := err.(*editorExited); ok {
			return exitCode(exitErr.err)
		}
		logger.Error("editor rpc unavailable", "socket", sock, "error", err)
		return exitCode(<-exited)
	}
	defer v.Close()

	b := &bridge{nv: v, out: out, logger: logger}
	if err := b.start(); err != nil {
		logger.Error("editor bridge", "error", err)
	}
	go b.forwardCommands(in)

	return exitCode(<-exited)
}

type editorExited struct {
	err error
}

func (e *editorExited) Error() string {
	return fmt.Sprintf("editor exited before accepting connections: %v", e.err)
}

// dial retries until the editor creates its socket.
func dial(ctx context.Context, sock string, exited <-chan error) (*nvim.Nvim, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		v, err := nvim.Dial(sock)
		if err == nil {
			return v, nil
		}
		lastErr = err

		select {
		case err := <-exited:
			return nil, &editorExited{err: err}
		case <-ctx.Done():
			return nil, errors.Errorf("dial %s: %v", sock, lastErr)
		case <-ticker.C:
		}
	}
}

// bridge turns editor notifications into frames on out and lines read from
// the shell into editor commands.
type bridge struct {
	nv     *nvim.Nvim
	logger *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

func (b *bridge) start() error {
	if err := b.nv.RegisterHandler(ipc.MethodBufEnter, func(path string) {
		b.forward(ipc.MethodBufEnter, path)
	}); err != nil {
		return errors.Wrap(err, 0)
	}
	if err := b.nv.RegisterHandler(ipc.MethodVimLeave, func() {
		b.forward(ipc.MethodVimLeave)
	}); err != nil {
		return errors.Wrap(err, 0)
	}

	go func() {
		if err := b.nv.Serve(); err != nil {
			b.logger.Debug("editor rpc closed", "error", err)
		}
	}()

	for _, method := range []string{ipc.MethodBufEnter, ipc.MethodVimLeave} {
		if err := b.nv.Subscribe(method); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}

func (b *bridge) forward(method string, args ...any) {
	frame, err := ipc.Encode(method, args...)
	if err != nil {
		b.logger.Warn("encode notification", "method", method, "error", err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.out.Write(frame); err != nil {
		b.logger.Debug("forward notification", "method", method, "error", err)
	}
}

// forwardCommands executes each line read from r as an editor command until
// r reaches EOF.
func (b *bridge) forwardCommands(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), ipc.MaxFrameSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := b.nv.Command(line); err != nil {
			b.logger.Debug("editor command failed", "command", line, "error", err)
		}
	}
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 1, errors.Wrap(err, 0)
}
