package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/input"
)

// Colors and styles for the TUI
const (
	ColorReset   = "\033[0m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
	ColorReverse = "\033[7m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
)

// Truncate shortens a string to fit in the given width.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads a string to the right.
func PadRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

// StatusInfo is what the status bar shows.
type StatusInfo struct {
	Mode      input.Mode
	Selection string
	Project   string
	Branch    string
	Builder   string
	EasyMode  bool
	FontSize  int
}

// StatusLine renders the first status bar row: mode and selection on the
// left, editor settings on the right.
func StatusLine(info StatusInfo, width int) string {
	left := fmt.Sprintf(" [%s] ", info.Mode)
	if info.Selection != "" {
		sel := info.Selection
		if info.Project != "" {
			if rel, err := filepath.Rel(filepath.Dir(info.Project), info.Selection); err == nil {
				sel = rel
			}
		}
		left += sel
	}
	if info.Branch != "" {
		left += " (" + info.Branch + ")"
	}

	easy := "off"
	if info.EasyMode {
		easy = "on"
	}
	right := fmt.Sprintf(" easy:%s  font:%d ", easy, info.FontSize)
	if info.Builder != "" {
		right = fmt.Sprintf(" %s │%s", info.Builder, right)
	}

	rw := runewidth.StringWidth(right)
	if width <= rw {
		return Truncate(left+right, max(width, 0))
	}
	return PadRight(Truncate(left, width-rw), width-rw) + right
}

// HintLine renders the second status bar row from the configured bindings.
func HintLine(keys config.KeyBindings, width int) string {
	hints := []struct{ key, label string }{
		{keys.Focus, "focus"},
		{keys.NewProject, "new"},
		{keys.Import, "import"},
		{keys.Remove, "remove"},
		{keys.Run, "run"},
		{keys.Build, "build"},
		{keys.Test, "test"},
		{keys.Clean, "clean"},
		{keys.Stop, "stop"},
		{keys.EasyMode, "easy"},
		{keys.FontDec, "font-"},
		{keys.FontInc, "font+"},
		{keys.Quit, "quit"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		if h.key == "" {
			continue
		}
		parts = append(parts, h.key+":"+h.label)
	}
	return Truncate(" "+strings.Join(parts, " "), max(width, 0))
}
