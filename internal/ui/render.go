// Package ui provides gocui view management and rendering utilities.
package ui

import (
	"fmt"
	"strings"

	"github.com/jesseduffield/gocui"

	"github.com/oakshell/oak/internal/input"
	"github.com/oakshell/oak/internal/pane"
)

// RenderTerminal renders a surface's content to a gocui view.
// Recovers from panics that can occur during resize race conditions.
func RenderTerminal(v *gocui.View, s *pane.Surface) {
	defer func() {
		if r := recover(); r != nil {
			// Silently ignore - will redraw on next update
		}
	}()

	var sb strings.Builder
	if err := s.Render(&sb); err != nil {
		return
	}
	fmt.Fprint(v, sb.String())
}

// ConfigurePaneView sets up a gocui view for a pane with proper styling.
func ConfigurePaneView(v *gocui.View, title string, isActive bool, mode input.Mode) {
	if isActive {
		v.Title = fmt.Sprintf(" [%s] %s ", mode.String(), title)
		v.FrameRunes = []rune{'━', '┃', '┏', '┓', '┗', '┛'}
		if mode.IsEditor() {
			v.FrameColor = gocui.ColorGreen
		} else {
			v.FrameColor = gocui.ColorBlue
		}
	} else {
		v.Title = fmt.Sprintf(" %s ", title)
		v.FrameRunes = []rune{'─', '│', '┌', '┐', '└', '┘'}
		v.FrameColor = gocui.ColorDefault
	}
	v.Frame = true
	v.Wrap = false
}

// ConfigurePromptModal sets up the prompt modal view.
func ConfigurePromptModal(v *gocui.View, kind input.PromptKind, buffer string) {
	v.Title = fmt.Sprintf(" %s (Enter=confirm, Esc=cancel) ", kind.Title())
	v.Frame = true
	v.FrameRunes = []rune{'━', '┃', '┏', '┓', '┗', '┛'}
	v.FrameColor = gocui.ColorYellow
	v.Editable = true
	v.Clear()
	fmt.Fprintf(v, " %s", buffer)
}

// ConfigureStatusBar sets up the status bar view.
func ConfigureStatusBar(v *gocui.View, lines ...string) {
	v.Frame = false
	v.FgColor = gocui.ColorBlack
	v.BgColor = gocui.ColorWhite
	v.Clear()
	fmt.Fprint(v, strings.Join(lines, "\n"))
}

// ModalDimensions calculates centered modal dimensions.
func ModalDimensions(maxX, maxY, width, height int) (x0, y0, x1, y1 int) {
	x0 = (maxX - width) / 2
	y0 = (maxY - height) / 2
	x1 = x0 + width
	y1 = y0 + height
	return
}
