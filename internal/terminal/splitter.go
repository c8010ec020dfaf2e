package terminal

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"imebridge/internal/key"
	"imebridge/internal/keytable"
)

// Control bytes with their own host names; the rest of 0x01-0x1a are "c-<letter>".
var controlNames = map[byte]string{
	0x00: "c-space",
	0x08: "backspace",
	0x09: "tab",
	0x0d: "enter",
	0x1c: "c-\\",
	0x1d: "c-]",
	0x1e: "c-^",
	0x1f: "c-_",
	0x7f: "backspace",
}

// Key names for "ESC [ <n> ~" and "ESC [ <n> ; <mod> ~".
var tildeKeys = map[int]string{
	1: "Home", 2: "Insert", 3: "Delete", 4: "End", 5: "Page_Up", 6: "Page_Down", 7: "Home", 8: "End",
	11: "F1", 12: "F2", 13: "F3", 14: "F4", 15: "F5",
	17: "F6", 18: "F7", 19: "F8", 20: "F9", 21: "F10",
	23: "F11", 24: "F12", 25: "F13", 26: "F14", 28: "F15", 29: "F16",
	31: "F17", 32: "F18", 33: "F19", 34: "F20",
}

// Key names for CSI and SS3 sequences ending in a letter.
var letterKeys = map[byte]string{
	'A': "Up", 'B': "Down", 'C': "Right", 'D': "Left", 'H': "Home", 'F': "End",
	'P': "F1", 'Q': "F2", 'R': "F3", 'S': "F4",
}

// Code points CSI-u reports use for non-printing keys.
var csiUKeys = map[int]string{
	9: "Tab", 13: "Return", 27: "Escape", 127: "BackSpace",
}

// Splitter cuts raw terminal input into host chords.
//
// Printable characters become one-character chords, control bytes become
// "c-x" names, ESC followed by a key is that key with Alt, and CSI/SS3 key
// reports are decoded with their xterm modifier parameter. A CSI-u Enter report
// ("ESC [ 27 ; n ; 13 ~") is passed through character by character, the way
// line editors hand it to key bindings. Unknown sequences are dropped.
type Splitter struct {
	tr  *key.Translator
	buf []byte
}

// NewSplitter returns a splitter using tr for key names.
func NewSplitter(tr *key.Translator) *Splitter {
	if tr == nil {
		tr = key.Default()
	}
	return &Splitter{tr: tr, buf: make([]byte, 0, 64)}
}

// Feed appends input and returns every complete chord. Incomplete sequences
// and a trailing lone ESC stay buffered until more input or Flush.
func (s *Splitter) Feed(data []byte) []key.Chord {
	s.buf = append(s.buf, data...)

	var chords []key.Chord
	i := 0
	for i < len(s.buf) {
		n, chord := s.parse(s.buf[i:])
		if n == 0 {
			break
		}
		if chord != nil {
			chords = append(chords, chord)
		}
		i += n
	}
	s.buf = append(s.buf[:0], s.buf[i:]...)
	return chords
}

// Pending reports whether input is buffered.
func (s *Splitter) Pending() bool {
	return len(s.buf) > 0
}

// Flush emits whatever is buffered once the input has gone quiet: a lone ESC
// is the Escape key, ESC [ is Alt+[, anything else is dropped.
func (s *Splitter) Flush() []key.Chord {
	defer func() { s.buf = s.buf[:0] }()
	switch string(s.buf) {
	case "\x1b":
		return []key.Chord{{key.Escape}}
	case "\x1b[":
		return []key.Chord{{key.Escape, "["}}
	}
	return nil
}

// parse returns the bytes consumed by the first chord in data, 0 when data is
// incomplete, and a nil chord for consumed input that maps to no key.
func (s *Splitter) parse(data []byte) (int, key.Chord) {
	b := data[0]
	switch {
	case b == 0x1b:
		return s.parseEscape(data)
	case b < 0x20 || b == 0x7f:
		return 1, key.Chord{controlName(b)}
	case b < utf8.RuneSelf:
		return 1, key.Chord{string(rune(b))}
	}

	if !utf8.FullRune(data) {
		return 0, nil
	}
	r, size := utf8.DecodeRune(data)
	if r == utf8.RuneError {
		return size, nil
	}
	return size, key.Chord{string(r)}
}

func controlName(b byte) string {
	if name, ok := controlNames[b]; ok {
		return name
	}
	return "c-" + string(rune('a'+b-1))
}

func (s *Splitter) parseEscape(data []byte) (int, key.Chord) {
	if len(data) < 2 {
		return 0, nil
	}
	switch b := data[1]; {
	case b == 0x1b:
		return 2, key.Chord{key.Escape, key.Escape}
	case b == '[':
		return s.parseCSI(data)
	case b == 'O':
		return s.parseSS3(data)
	case b < 0x20 || b == 0x7f:
		return 2, key.Chord{key.Escape, controlName(b)}
	case b < utf8.RuneSelf:
		return 2, key.Chord{key.Escape, string(rune(b))}
	}

	if !utf8.FullRune(data[1:]) {
		return 0, nil
	}
	r, size := utf8.DecodeRune(data[1:])
	return 1 + size, key.Chord{key.Escape, string(r)}
}

// maxCSI bounds the parameter bytes scanned before a sequence is abandoned.
const maxCSI = 32

func (s *Splitter) parseCSI(data []byte) (int, key.Chord) {
	end := 2
	for ; end < len(data) && end < maxCSI; end++ {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x3f {
			// Not a CSI parameter byte: drop the introducer.
			return 2, nil
		}
	}
	if end >= maxCSI {
		return 2, nil
	}
	if end >= len(data) {
		return 0, nil
	}

	n := end + 1
	seq := string(data[:n])
	if _, _, ok := s.tr.Table().MatchTemplate(seq); ok {
		return n, templateChord(seq)
	}

	params := strings.Split(string(data[2:end]), ";")
	final := data[end]
	switch {
	case final == '~':
		return n, s.tildeChord(params)
	case final == 'u':
		return n, s.csiUChord(params)
	case final == 'Z':
		return n, s.chord("Tab", s.tr.Table().MustModifier("Shift"))
	}
	if name, ok := letterKeys[final]; ok {
		return n, s.chord(name, s.modifier(params, 1))
	}
	return n, nil
}

func (s *Splitter) parseSS3(data []byte) (int, key.Chord) {
	if len(data) < 3 {
		return 0, nil
	}
	if name, ok := letterKeys[data[2]]; ok {
		return 3, s.chord(name, keytable.Null)
	}
	return 3, nil
}

func (s *Splitter) tildeChord(params []string) key.Chord {
	n, err := strconv.Atoi(params[0])
	if err != nil {
		return nil
	}
	name, ok := tildeKeys[n]
	if !ok {
		return nil
	}
	return s.chord(name, s.modifier(params, 1))
}

// csiUChord decodes "ESC [ <codepoint> ; <mod> u".
func (s *Splitter) csiUChord(params []string) key.Chord {
	cp, err := strconv.Atoi(params[0])
	if err != nil {
		return nil
	}
	mask := s.modifier(params, 1)
	if name, ok := csiUKeys[cp]; ok {
		return s.chord(name, mask)
	}
	code, ok := s.tr.Table().RuneCode(rune(cp))
	if !ok {
		return nil
	}
	return s.decode(key.Event{Code: code, Mask: mask})
}

// modifier reads the xterm modifier parameter at index i; absent or invalid means none.
func (s *Splitter) modifier(params []string, i int) keytable.Mask {
	if i >= len(params) {
		return keytable.Null
	}
	p, err := strconv.Atoi(params[i])
	if err != nil {
		return keytable.Null
	}
	m, err := s.tr.Table().FromANSIParam(p)
	if err != nil {
		return keytable.Null
	}
	return m
}

func (s *Splitter) chord(name string, mask keytable.Mask) key.Chord {
	code, err := s.tr.Table().CodeFor(name)
	if err != nil {
		return nil
	}
	return s.decode(key.Event{Code: code, Mask: mask})
}

func (s *Splitter) decode(ev key.Event) key.Chord {
	chord, err := s.tr.Decode(ev)
	if err != nil {
		return nil
	}
	return chord
}

// templateChord spells a templated sequence one character per token.
func templateChord(seq string) key.Chord {
	chord := key.Chord{key.Escape}
	for _, r := range seq[1:] {
		chord = append(chord, string(r))
	}
	return chord
}
