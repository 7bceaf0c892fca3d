package pane

// StatusBarHeight is the height reserved for the status bar at the bottom.
const StatusBarHeight = 2

// SidebarWidth is the preferred width of the project tree in characters.
const SidebarWidth = 32

// EditorShare is the percentage of the right column given to the editor.
const EditorShare = 70

// Layout represents the position and size of a view in screen coordinates.
type Layout struct {
	X0, Y0, X1, Y1 int
}

// Width returns the interior width (excluding borders).
func (l Layout) Width() int {
	w := l.X1 - l.X0 - 1
	if w < 1 {
		return 1
	}
	return w
}

// Height returns the interior height (excluding borders).
func (l Layout) Height() int {
	h := l.Y1 - l.Y0 - 1
	if h < 1 {
		return 1
	}
	return h
}

// ShellLayout holds the regions of the main screen.
type ShellLayout struct {
	Tree    Layout
	Editor  Layout
	Builder Layout
	Status  Layout
}

// CalculateShellLayout returns the layout for the given screen size:
//
//	[ tree ][      editor      ]
//	[      ][     builder      ]
//	[         status           ]
//
// The tree keeps SidebarWidth columns (at most a third of the screen) and the
// editor takes EditorShare percent of the remaining height.
func CalculateShellLayout(maxX, maxY int) ShellLayout {
	sidebarWidth := SidebarWidth
	if sidebarWidth > maxX/3 {
		sidebarWidth = maxX / 3
	}
	if sidebarWidth < 10 {
		sidebarWidth = 10
	}

	bodyHeight := maxY - StatusBarHeight
	if bodyHeight < 6 {
		bodyHeight = 6
	}

	editorHeight := bodyHeight * EditorShare / 100
	if editorHeight < 3 {
		editorHeight = 3
	}

	return ShellLayout{
		Tree:    Layout{0, 0, sidebarWidth - 1, bodyHeight - 1},
		Editor:  Layout{sidebarWidth, 0, maxX - 1, editorHeight - 1},
		Builder: Layout{sidebarWidth, editorHeight, maxX - 1, bodyHeight - 1},
		Status:  Layout{-1, bodyHeight - 1, maxX, bodyHeight + StatusBarHeight},
	}
}
