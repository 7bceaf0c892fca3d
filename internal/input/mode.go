// Package input tracks which part of the shell receives keystrokes.
package input

// Mode represents the current input mode.
type Mode int

const (
	// ModeEditor forwards keystrokes to the editor terminal.
	ModeEditor Mode = iota
	// ModeTree navigates the project tree.
	ModeTree
	// ModePrompt collects a path for a project action.
	ModePrompt
)

// String returns the human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeEditor:
		return "EDITOR"
	case ModeTree:
		return "TREE"
	case ModePrompt:
		return "PROMPT"
	default:
		return "UNKNOWN"
	}
}

// IsEditor returns true if keystrokes go to the editor.
func (m Mode) IsEditor() bool {
	return m == ModeEditor
}

// IsTree returns true if the tree has focus.
func (m Mode) IsTree() bool {
	return m == ModeTree
}

// IsPrompt returns true if a prompt is open.
func (m Mode) IsPrompt() bool {
	return m == ModePrompt
}

// PromptKind identifies what a prompt's answer is used for.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptNewProject
	PromptImport
)

// Title returns the prompt heading.
func (k PromptKind) Title() string {
	switch k {
	case PromptNewProject:
		return "New project"
	case PromptImport:
		return "Import project"
	default:
		return ""
	}
}
