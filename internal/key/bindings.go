package key

import (
	"strconv"

	"imebridge/internal/keytable"
)

// Keys a host must route with every s-/c- combination, plain and Alt-prefixed.
var navigationKeys = []string{
	"Insert", "Delete", "Up", "Down", "Left", "Right", "Home", "End", "Page_Up", "Page_Down",
}

// Control characters hosts report under their own c- names.
var controlChars = []string{"@", "\\", "]", "^", "_"}

// Return masks that need the CSI-u form, by ANSI parameter.
var enterParams = []int{2, 5, 6, 7, 8}

const functionKeys = 24

// BindableChords lists the chords a host editor has to hand to the translator
// so the engine sees every key it can act on. The list is ordered and free of duplicates.
func BindableChords() []Chord {
	return defaultTranslator().BindableChords()
}

// BindableChords lists the bindable chords for t's table.
func (t *Translator) BindableChords() []Chord {
	b := &chordSet{seen: make(map[string]bool)}

	b.add(Chord{"s-tab"})
	b.add(Chord{"s-escape"})
	b.add(Chord{Escape, "backspace"})
	b.add(Chord{Escape, Escape})

	for _, p := range enterParams {
		code, err := t.table.CodeFor("Return")
		if err != nil {
			break
		}
		mask, err := t.table.FromANSIParam(p)
		if err != nil {
			continue
		}
		b.decode(t, Event{Code: code, Mask: mask})
	}
	b.add(Chord{Escape, "enter"})

	for r := ' '; r <= '~'; r++ {
		b.add(Chord{string(r)})
		b.add(Chord{Escape, string(r)})
	}

	for i := 1; i <= functionKeys; i++ {
		if code, err := t.table.CodeFor("F" + strconv.Itoa(i)); err == nil {
			b.decode(t, Event{Code: code})
		}
	}

	masks := []keytable.Mask{keytable.Null, t.control, t.shift, t.control | t.shift}
	for _, name := range navigationKeys {
		code, err := t.table.CodeFor(name)
		if err != nil {
			continue
		}
		for _, m := range masks {
			b.decode(t, Event{Code: code, Mask: m})
			b.decode(t, Event{Code: code, Mask: m | t.alt})
		}
	}

	for r := 'a'; r <= 'z'; r++ {
		b.add(Chord{"c-" + string(r)})
		b.add(Chord{Escape, "c-" + string(r)})
	}
	for _, c := range controlChars {
		b.add(Chord{"c-" + c})
		b.add(Chord{Escape, "c-" + c})
	}
	return b.chords
}

type chordSet struct {
	chords []Chord
	seen   map[string]bool
}

func (s *chordSet) add(c Chord) {
	k := c.String()
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.chords = append(s.chords, c)
}

func (s *chordSet) decode(t *Translator, ev Event) {
	if c, err := t.Decode(ev); err == nil {
		s.add(c)
	}
}
