// Package pane provides terminal surfaces backed by a midterm emulator and
// the screen layout they are drawn into.
package pane

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vito/midterm"

	"github.com/oakshell/oak/internal/config"
)

// Surface wraps midterm.Terminal with a mutex for thread-safe access.
// Process output is written from pump goroutines while the UI renders, so all
// reads and writes to the terminal must go through this wrapper.
type Surface struct {
	id       string
	term     *midterm.Terminal
	fontSize int
	released bool
	mu       sync.Mutex
}

// NewSurface creates a new surface with the given dimensions.
func NewSurface(rows, cols int) *Surface {
	if rows < 1 {
		rows = 24
	}
	if cols < 1 {
		cols = 80
	}
	return &Surface{
		id:       uuid.NewString(),
		term:     midterm.NewTerminal(rows, cols),
		fontSize: config.DefaultFontSize,
	}
}

// ID returns the surface identifier used in logs.
func (s *Surface) ID() string {
	return s.id
}

// Write writes data to the terminal buffer. Thread-safe.
// Writes to a released surface are discarded.
func (s *Surface) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return len(data), nil
	}
	return s.term.Write(data)
}

// Resize changes the terminal dimensions. Thread-safe.
func (s *Surface) Resize(rows, cols int) {
	if rows < 1 || cols < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term.Resize(rows, cols)

	// Growing a midterm screen allocates extra rows past the new height. A
	// second resize from the full allocation trims them back to rows.
	grown := claimRows(s.term.Screen)
	if claimRows(s.term.Alt) {
		grown = true
	}
	if grown || s.term.Height != rows {
		s.term.Resize(rows, cols)
	}
}

// claimRows sets the screen height to the rows it actually holds and reports
// whether that differed.
func claimRows(scr *midterm.Screen) bool {
	if scr == nil || len(scr.Content) <= scr.Height {
		return false
	}
	scr.Height = len(scr.Content)
	return true
}

// Render writes the terminal content to a strings.Builder. Thread-safe.
func (s *Surface) Render(w *strings.Builder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.term.Height <= 0 || s.term.Width <= 0 {
		return nil
	}
	return s.term.Render(w)
}

// Cursor returns the current cursor position. Thread-safe.
func (s *Surface) Cursor() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term.Cursor.X, s.term.Cursor.Y
}

// CursorVisible returns whether the cursor should be visible. Thread-safe.
func (s *Surface) CursorVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term.CursorVisible
}

// Dimensions returns the terminal size. Thread-safe.
func (s *Surface) Dimensions() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term.Height, s.term.Width
}

// SetFontSize records the font size the surface is drawn with.
func (s *Surface) SetFontSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontSize = n
}

// FontSize returns the font size last applied to the surface.
func (s *Surface) FontSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fontSize
}

// Reset clears the screen and scrollback, keeping the current size.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = midterm.NewTerminal(s.term.Height, s.term.Width)
}

// Release marks the surface as no longer owned. Late output from a killed
// process is dropped instead of being drawn.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

// Released reports whether Release has been called.
func (s *Surface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
