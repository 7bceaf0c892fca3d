package input

import (
	"sync"
)

// Handler manages mode state and the prompt buffer.
type Handler struct {
	mode     Mode
	previous Mode
	prompt   PromptKind
	buffer   []rune
	mu       sync.RWMutex
}

// NewHandler creates a new input handler with the editor focused.
func NewHandler() *Handler {
	return &Handler{
		mode: ModeEditor,
	}
}

// Mode returns the current input mode.
func (h *Handler) Mode() Mode {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mode
}

// FocusEditor sends keystrokes to the editor.
func (h *Handler) FocusEditor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = ModeEditor
}

// FocusTree gives the project tree focus.
func (h *Handler) FocusTree() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = ModeTree
}

// ToggleFocus switches between the editor and the tree. It does nothing
// while a prompt is open.
func (h *Handler) ToggleFocus() Mode {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.mode {
	case ModeEditor:
		h.mode = ModeTree
	case ModeTree:
		h.mode = ModeEditor
	}
	return h.mode
}

// OpenPrompt enters prompt mode with initial as the buffer contents.
func (h *Handler) OpenPrompt(kind PromptKind, initial string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode != ModePrompt {
		h.previous = h.mode
	}
	h.mode = ModePrompt
	h.prompt = kind
	h.buffer = []rune(initial)
}

// Prompt returns the open prompt's kind, or PromptNone.
func (h *Handler) Prompt() PromptKind {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.mode != ModePrompt {
		return PromptNone
	}
	return h.prompt
}

// CancelPrompt closes the prompt and restores the previous mode.
func (h *Handler) CancelPrompt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closePromptLocked()
}

// Buffer returns the prompt buffer contents.
func (h *Handler) Buffer() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return string(h.buffer)
}

// Append adds a character to the prompt buffer.
func (h *Handler) Append(ch rune) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffer = append(h.buffer, ch)
}

// Backspace removes the last character from the buffer.
func (h *Handler) Backspace() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) > 0 {
		h.buffer = h.buffer[:len(h.buffer)-1]
	}
}

// Submit returns the prompt kind and buffer, closes the prompt and restores
// the previous mode.
func (h *Handler) Submit() (PromptKind, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kind, text := h.prompt, string(h.buffer)
	h.closePromptLocked()
	return kind, text
}

func (h *Handler) closePromptLocked() {
	if h.mode == ModePrompt {
		h.mode = h.previous
	}
	h.prompt = PromptNone
	h.buffer = nil
}
