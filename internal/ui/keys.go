package ui

import (
	"github.com/jesseduffield/gocui"
)

// specialKeys maps gocui keys to the bytes a terminal sends for them.
var specialKeys = map[gocui.Key]string{
	gocui.KeyEnter:      "\r",
	gocui.KeyEsc:        "\x1b",
	gocui.KeyBackspace:  "\x7f",
	gocui.KeyBackspace2: "\x7f",
	gocui.KeyDelete:     "\x1b[3~",
	gocui.KeyInsert:     "\x1b[2~",
	gocui.KeyTab:        "\t",
	gocui.KeySpace:      " ",
	gocui.KeyArrowUp:    "\x1b[A",
	gocui.KeyArrowDown:  "\x1b[B",
	gocui.KeyArrowRight: "\x1b[C",
	gocui.KeyArrowLeft:  "\x1b[D",
	gocui.KeyHome:       "\x1b[H",
	gocui.KeyEnd:        "\x1b[F",
	gocui.KeyPgup:       "\x1b[5~",
	gocui.KeyPgdn:       "\x1b[6~",
	gocui.KeyF1:         "\x1bOP",
	gocui.KeyF2:         "\x1bOQ",
	gocui.KeyF3:         "\x1bOR",
	gocui.KeyF4:         "\x1bOS",
	gocui.KeyF5:         "\x1b[15~",
	gocui.KeyF6:         "\x1b[17~",
	gocui.KeyF7:         "\x1b[18~",
	gocui.KeyF8:         "\x1b[19~",
	gocui.KeyF9:         "\x1b[20~",
	gocui.KeyF10:        "\x1b[21~",
	gocui.KeyF11:        "\x1b[23~",
	gocui.KeyF12:        "\x1b[24~",
}

// ctrlKeys lists ctrl+a through ctrl+z; index i encodes as byte i+1.
// A slice rather than a map since some of them alias tab, enter and
// backspace.
var ctrlKeys = []gocui.Key{
	gocui.KeyCtrlA, gocui.KeyCtrlB, gocui.KeyCtrlC, gocui.KeyCtrlD,
	gocui.KeyCtrlE, gocui.KeyCtrlF, gocui.KeyCtrlG, gocui.KeyCtrlH,
	gocui.KeyCtrlI, gocui.KeyCtrlJ, gocui.KeyCtrlK, gocui.KeyCtrlL,
	gocui.KeyCtrlM, gocui.KeyCtrlN, gocui.KeyCtrlO, gocui.KeyCtrlP,
	gocui.KeyCtrlQ, gocui.KeyCtrlR, gocui.KeyCtrlS, gocui.KeyCtrlT,
	gocui.KeyCtrlU, gocui.KeyCtrlV, gocui.KeyCtrlW, gocui.KeyCtrlX,
	gocui.KeyCtrlY, gocui.KeyCtrlZ,
}

// EncodeKey returns the bytes to write to a pty for a gocui key event, or
// nil if the event has no terminal encoding.
func EncodeKey(key gocui.Key, ch rune, mod gocui.Modifier) []byte {
	var seq string
	switch {
	case ch != 0:
		seq = string(ch)
	default:
		if s, ok := specialKeys[key]; ok {
			seq = s
			break
		}
		for i, k := range ctrlKeys {
			if k == key {
				seq = string(rune(i + 1))
				break
			}
		}
	}
	if seq == "" {
		return nil
	}
	if mod&gocui.ModAlt != 0 {
		seq = "\x1b" + seq
	}
	return []byte(seq)
}
