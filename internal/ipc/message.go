// Package ipc implements the notification channel between the shell and the
// editor process. Frames are newline-delimited JSON arrays of the form
// [type, method, args]; commands sent to the editor are plain text lines.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Notification methods emitted by the editor.
const (
	MethodBufEnter = "bufenter"
	MethodVimLeave = "vimleave"
)

// NotificationType is the msgpack-rpc tag for notifications. The editor half
// copies it into every frame; the shell does not check it.
const NotificationType = 2

// Kind identifies a decoded message.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindBufferEntered
	KindVimLeave
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindBufferEntered:
		return "BufferEntered"
	case KindVimLeave:
		return "VimLeave"
	default:
		return "Unrecognized"
	}
}

// Message is one decoded notification.
type Message struct {
	Kind Kind
	// Path is the absolute path of the entered buffer. Only set for
	// KindBufferEntered.
	Path string
	// Method is the raw method name, kept for logging.
	Method string
}

// ErrMalformed is wrapped by Decode for frames that are not well formed.
var ErrMalformed = errors.New("malformed frame")

// Decode parses a single frame. Syntactically invalid frames return an error;
// valid frames with an unknown method or unusable arguments decode to
// KindUnrecognized.
func Decode(line []byte) (Message, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(line, &frame); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(frame) < 2 {
		return Message{}, fmt.Errorf("%w: %d elements", ErrMalformed, len(frame))
	}

	var method string
	if err := json.Unmarshal(frame[1], &method); err != nil {
		return Message{}, fmt.Errorf("%w: method is not a string", ErrMalformed)
	}

	msg := Message{Kind: KindUnrecognized, Method: method}
	switch method {
	case MethodVimLeave:
		msg.Kind = KindVimLeave
	case MethodBufEnter:
		if len(frame) < 3 {
			return msg, nil
		}
		if path, ok := firstString(frame[2]); ok {
			msg.Kind = KindBufferEntered
			msg.Path = path
		}
	}
	return msg, nil
}

// firstString accepts either ["path", ...] or a bare "path".
func firstString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var args []json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil || len(args) == 0 {
		return "", false
	}
	if err := json.Unmarshal(args[0], &s); err != nil {
		return "", false
	}
	return s, s != ""
}

// Encode builds one newline-terminated notification frame.
func Encode(method string, args ...any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	b, err := json.Marshal([]any{NotificationType, method, args})
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
