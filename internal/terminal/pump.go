package terminal

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// Pump copies r into w until r is exhausted, calling notify after every
// chunk so the UI can redraw. Reading a pty master fails with EIO once the
// other side is gone; that is treated like EOF.
func Pump(r io.Reader, w io.Writer, notify func()) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if notify != nil {
				notify()
			}
		}
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return err
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}
