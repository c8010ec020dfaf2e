// Package key translates between host editor key chords and engine key events.
//
// Hosts report keys as short token sequences (chords): a printable character,
// a named key with "c-"/"s-" prefixes ("c-a", "s-tab"), vim notation ("<C-a>"),
// an "escape" token followed by a key for Alt, or an "escape" token followed by the
// characters of a CSI-u report for keys the prefix syntax cannot express.
// The engine wants a (code, mask) pair. Translator converts both ways.
package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"imebridge/internal/keytable"
)

var (
	// ErrUnknownKeyName is returned when a chord names a key absent from the table.
	ErrUnknownKeyName = keytable.ErrUnknownKeyName
	// ErrUnsupportedModifier is returned when a prefix matches no configured modifier.
	ErrUnsupportedModifier = keytable.ErrUnsupportedModifier
	// ErrUnsupportedChord is returned for structurally malformed chords.
	ErrUnsupportedChord = errors.New("unsupported chord")
	// ErrEmptyChord is returned when decoding would produce no tokens.
	ErrEmptyChord = errors.New("empty chord")
)

// Escape is the host token for a leading ESC byte.
const Escape = "escape"

// Engine modifier masks of the default table.
var (
	Shift   = keytable.Default().MustModifier("Shift")
	Alt     = keytable.Default().MustModifier("Alt")
	Control = keytable.Default().MustModifier("Control")
)

// Event is the engine-facing key representation.
type Event struct {
	Code keytable.Code
	Mask keytable.Mask
}

// NewEvent builds an event from a canonical key name of the default table.
func NewEvent(name string, mask keytable.Mask) (Event, error) {
	code, err := keytable.Default().CodeFor(name)
	if err != nil {
		return Event{}, err
	}
	return Event{Code: code, Mask: mask}, nil
}

// String renders the event in vim notation, e.g. "<C-S-Page_Up>" or "a".
func (e Event) String() string {
	tbl := keytable.Default()
	name, ok := tbl.NameFor(e.Code)
	if !ok {
		name = fmt.Sprintf("%#x", uint32(e.Code))
	}
	if e.Mask == keytable.Null && utf8.RuneCountInString(name) == 1 {
		return name
	}

	var b strings.Builder
	b.WriteByte('<')
	for _, mod := range tbl.ModifierNames(e.Mask) {
		b.WriteString(mod[:1])
		b.WriteByte('-')
	}
	b.WriteString(name)
	b.WriteByte('>')
	return b.String()
}

// Literal returns the text a host inserts when the engine rejects the event:
// the character itself for an unmodified printable key.
func (e Event) Literal() (string, bool) {
	if e.Mask != keytable.Null {
		return "", false
	}
	if e.Code == ' ' {
		return " ", true
	}
	name, ok := keytable.Default().NameFor(e.Code)
	if !ok || utf8.RuneCountInString(name) != 1 {
		return "", false
	}
	return name, true
}

// Chord is a host key token sequence such as {"c-a"} or {"escape", "x"}.
type Chord []string

// String joins the tokens with spaces for display.
func (c Chord) String() string {
	return strings.Join(c, " ")
}

// Encode translates a chord with the default table.
func Encode(chord Chord) (Event, error) {
	return defaultTranslator().Encode(chord)
}

// Decode translates an event with the default table.
func Decode(ev Event) (Chord, error) {
	return defaultTranslator().Decode(ev)
}

// ParseVim translates a single vim-notation key name with the default table.
func ParseVim(name string) (Event, error) {
	return defaultTranslator().ParseVim(name)
}
