package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakshell/oak/internal/project"
)

// RenderTree renders the project tree one row per line. The row at
// selected is drawn in reverse video; pass -1 for no selection.
func RenderTree(rows []project.Row, selected, width int) string {
	var sb strings.Builder
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(treeLine(r, i == selected, width))
	}
	return sb.String()
}

func treeLine(r project.Row, selected bool, width int) string {
	marker := "  "
	if r.IsDir {
		if r.Expanded {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}
	text := strings.Repeat("  ", r.Depth) + marker + r.Name
	if r.IsDir && !r.IsProject {
		text += "/"
	}
	if width > 0 {
		text = Truncate(text, width)
	}

	switch {
	case selected:
		return ColorReverse + PadRight(text, max(width, runewidth.StringWidth(text))) + ColorReset
	case r.IsProject:
		return ColorBold + ColorCyan + text + ColorReset
	case r.IsDir:
		return ColorBlue + text + ColorReset
	default:
		return text
	}
}
