package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// MaxFrameSize bounds the bytes buffered for a single frame. A longer line
// is discarded up to its terminating newline.
const MaxFrameSize = 1 << 20

// sendTimeout bounds a command write so a stalled editor cannot freeze the UI.
const sendTimeout = time.Second

const readChunk = 64 * 1024

// ListenerCommands make the editor push bufenter and vimleave notifications
// to every subscribed client.
var ListenerCommands = []string{
	"augroup oak | autocmd! | augroup END",
	"autocmd oak BufEnter * call rpcnotify(0, 'bufenter', fnamemodify(bufname(''), ':p'))",
	"autocmd oak VimLeave * call rpcnotify(0, 'vimleave')",
}

// Channel is the shell side of the editor pipes. It is not safe for
// concurrent use; the event loop owns it.
type Channel struct {
	r      *os.File
	w      *os.File
	rc     syscall.RawConn
	logger *slog.Logger

	buf        []byte
	scratch    []byte
	discarding bool
	eof        bool
	closed     bool
}

// NewChannel wraps the editor→shell read end r and the shell→editor write
// end w. r is switched to non-blocking mode.
func NewChannel(r, w *os.File, logger *slog.Logger) (*Channel, error) {
	rc, err := r.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("raw conn: %w", err)
	}
	var nbErr error
	if err := rc.Control(func(fd uintptr) {
		nbErr = unix.SetNonblock(int(fd), true)
	}); err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}
	if nbErr != nil {
		return nil, fmt.Errorf("set nonblock: %w", nbErr)
	}

	return &Channel{
		r:       r,
		w:       w,
		rc:      rc,
		logger:  logger,
		scratch: make([]byte, readChunk),
	}, nil
}

// Send writes text as one command line. Failures, and text that would span
// more than one line, are logged and dropped.
func (c *Channel) Send(text string) {
	if c.closed {
		c.logger.Warn("send on closed channel", "command", text)
		return
	}
	if strings.ContainsAny(text, "\r\n") {
		c.logger.Warn("dropping multi-line command", "command", text)
		return
	}
	if err := c.w.SetWriteDeadline(time.Now().Add(sendTimeout)); err != nil {
		c.logger.Debug("write deadline unsupported", "error", err)
	}
	if _, err := c.w.Write([]byte(text + "\n")); err != nil {
		c.logger.Warn("send command failed", "command", text, "error", err)
	}
}

// RegisterListeners asks the editor to notify on buffer enter and exit.
func (c *Channel) RegisterListeners() {
	for _, cmd := range ListenerCommands {
		c.Send(cmd)
	}
}

// TryReceive returns at most one message without blocking. It reads from
// the pipe at most once per call. Undecodable frames are logged and the call
// reports nothing. Once the editor side is closed every call returns
// KindVimLeave.
func (c *Channel) TryReceive() (Message, bool) {
	if line, ok := c.popLine(); ok {
		return c.decode(line)
	}
	if !c.eof {
		c.fill()
		if line, ok := c.popLine(); ok {
			return c.decode(line)
		}
	}
	if c.eof {
		return Message{Kind: KindVimLeave}, true
	}
	return Message{}, false
}

// EOF reports whether the editor side has been closed.
func (c *Channel) EOF() bool {
	return c.eof
}

// Close closes both pipe ends. It is safe to call more than once.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.eof = true
	return errors.Join(c.r.Close(), c.w.Close())
}

func (c *Channel) decode(line []byte) (Message, bool) {
	msg, err := Decode(line)
	if err != nil {
		c.logger.Warn("dropping frame", "error", err, "frame", truncate(line, 200))
		return Message{}, false
	}
	if msg.Kind == KindUnrecognized {
		c.logger.Debug("unrecognized notification", "method", msg.Method)
	}
	return msg, true
}

// fill performs a single non-blocking read.
func (c *Channel) fill() {
	var n int
	var readErr error
	err := c.rc.Read(func(fd uintptr) bool {
		n, readErr = unix.Read(int(fd), c.scratch)
		// Never park on the poller: report back immediately either way.
		return true
	})
	switch {
	case err != nil:
		c.logger.Info("editor pipe closed", "error", err)
		c.eof = true
		return
	case errors.Is(readErr, unix.EAGAIN), errors.Is(readErr, unix.EINTR):
		return
	case readErr != nil:
		c.logger.Warn("editor pipe read failed", "error", readErr)
		c.eof = true
		return
	case n == 0:
		c.logger.Info("editor pipe reached EOF")
		c.eof = true
		return
	}
	c.append(c.scratch[:n])
}

func (c *Channel) append(data []byte) {
	if c.discarding {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return
		}
		c.discarding = false
		data = data[i+1:]
	}
	c.buf = append(c.buf, data...)

	if len(c.buf) > MaxFrameSize && bytes.LastIndexByte(c.buf, '\n') < 0 {
		c.logger.Warn("dropping oversized frame", "bytes", len(c.buf))
		c.buf = c.buf[:0]
		c.discarding = true
	}
}

// popLine removes the next non-empty line from the buffer.
func (c *Channel) popLine() ([]byte, bool) {
	for {
		i := bytes.IndexByte(c.buf, '\n')
		if i < 0 {
			return nil, false
		}
		line := bytes.TrimSpace(c.buf[:i])
		out := make([]byte, len(line))
		copy(out, line)
		c.buf = append(c.buf[:0], c.buf[i+1:]...)
		if len(out) > 0 {
			return out, true
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
