package key

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"imebridge/internal/keytable"
)

// Translator converts chords to events and back using one key table.
// It holds no mutable state and is safe for concurrent use.
type Translator struct {
	table   *keytable.Table
	shift   keytable.Mask
	alt     keytable.Mask
	control keytable.Mask
}

var (
	translatorOnce sync.Once
	translator     *Translator
)

func defaultTranslator() *Translator {
	translatorOnce.Do(func() {
		t, err := NewTranslator(keytable.Default())
		if err != nil {
			panic(fmt.Sprintf("key: default translator: %v", err))
		}
		translator = t
	})
	return translator
}

// Default returns the translator over the embedded key table.
func Default() *Translator {
	return defaultTranslator()
}

// NewTranslator builds a translator. The table must configure Shift, Alt and Control.
func NewTranslator(table *keytable.Table) (*Translator, error) {
	t := &Translator{table: table}
	var err error
	if t.shift, err = table.Modifier("Shift"); err != nil {
		return nil, err
	}
	if t.alt, err = table.Modifier("Alt"); err != nil {
		return nil, err
	}
	if t.control, err = table.Modifier("Control"); err != nil {
		return nil, err
	}
	return t, nil
}

// Table returns the key table the translator reads.
func (t *Translator) Table() *keytable.Table {
	return t.table
}

// Encode translates a host chord into an engine event.
func (t *Translator) Encode(chord Chord) (Event, error) {
	switch {
	case len(chord) == 0:
		return Event{}, fmt.Errorf("%w: no tokens", ErrUnsupportedChord)
	case chord[0] == Escape && len(chord) > 1:
		return t.encodeEscaped(chord[1:])
	case len(chord) == 1:
		return t.encodeToken(chord[0])
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnsupportedChord, []string(chord))
}

// encodeEscaped handles chords led by an ESC token: either the characters of a
// templated CSI report, or Alt plus a single key.
func (t *Translator) encodeEscaped(rest []string) (Event, error) {
	seq := "\x1b" + strings.Join(rest, "")
	if name, param, ok := t.table.MatchTemplate(seq); ok {
		return t.encodeTemplate(name, param)
	}
	if len(rest) != 1 {
		return Event{}, fmt.Errorf("%w: %q is not a known escape sequence", ErrUnsupportedChord, seq)
	}

	ev, err := t.encodeToken(rest[0])
	if err != nil {
		return Event{}, err
	}
	ev.Mask |= t.alt
	return ev, nil
}

func (t *Translator) encodeTemplate(name, param string) (Event, error) {
	if param == "" || strings.TrimFunc(param, isDigit) != "" {
		return Event{}, fmt.Errorf("%w: modifier parameter %q is not a number", ErrUnsupportedChord, param)
	}
	n, err := strconv.Atoi(param)
	if err != nil {
		return Event{}, fmt.Errorf("%w: modifier parameter %q: %v", ErrUnsupportedChord, param, err)
	}
	mask, err := t.table.FromANSIParam(n)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrUnsupportedChord, err)
	}
	code, err := t.table.CodeFor(name)
	if err != nil {
		return Event{}, fmt.Errorf("%w: template owner: %w", ErrUnsupportedChord, err)
	}
	return Event{Code: code, Mask: mask}, nil
}

// encodeToken translates one host token: a character, a named key with optional
// "x-" prefixes, or vim notation.
func (t *Translator) encodeToken(tok string) (Event, error) {
	n := utf8.RuneCountInString(tok)
	switch {
	case n == 0:
		return Event{}, fmt.Errorf("%w: empty token", ErrUnsupportedChord)
	case n == 1:
		return t.runeEvent(tok)
	case isBracketed(tok):
		return t.ParseVim(tok)
	case !isASCII(tok) && !hasPrefix(tok):
		return Event{}, fmt.Errorf("%w: %q is neither a character nor a key name", ErrUnsupportedChord, tok)
	}
	return t.ParseVim("<" + tok + ">")
}

func (t *Translator) runeEvent(s string) (Event, error) {
	r, _ := utf8.DecodeRuneInString(s)
	code, ok := t.table.RuneCode(r)
	if !ok {
		return Event{}, fmt.Errorf("%w: %q has no key code", ErrUnsupportedChord, s)
	}
	return Event{Code: code}, nil
}

// ParseVim translates vim key notation: "a", "<Esc>", "<C-S-PageUp>", "<M-BS>".
func (t *Translator) ParseVim(name string) (Event, error) {
	name = t.table.ResolveAlias(name)
	if !isBracketed(name) {
		if utf8.RuneCountInString(name) == 1 {
			return t.runeEvent(name)
		}
		return Event{}, fmt.Errorf("%w: %q is not a key", ErrUnsupportedChord, name)
	}

	mask, base, err := t.splitPrefixes(name[1 : len(name)-1])
	if err != nil {
		return Event{}, err
	}
	// Control strips case: <C-A> and <c-a> are the same key.
	if mask == t.control && utf8.RuneCountInString(base) == 1 {
		base = strings.ToLower(base)
	}

	code, err := t.baseCode(base)
	if err != nil {
		return Event{}, err
	}
	return Event{Code: code, Mask: mask}, nil
}

// splitPrefixes peels "x-" prefixes off a bracket body from the right.
// The final rune always belongs to the key name, so "c--" is Control plus "-".
func (t *Translator) splitPrefixes(body string) (keytable.Mask, string, error) {
	var mask keytable.Mask
	for {
		_, size := utf8.DecodeLastRuneInString(body)
		i := strings.LastIndex(body[:len(body)-size], "-")
		if i < 0 {
			return mask, body, nil
		}
		prefix := body[:i]
		if j := strings.LastIndex(prefix, "-"); j >= 0 {
			prefix = prefix[j+1:]
		}
		m, err := t.table.PrefixMask(prefix)
		if err != nil {
			return keytable.Null, "", err
		}
		mask |= m
		body = body[:i-len(prefix)] + body[i+1:]
	}
}

func (t *Translator) baseCode(base string) (keytable.Code, error) {
	if utf8.RuneCountInString(base) == 1 {
		ev, err := t.runeEvent(base)
		return ev.Code, err
	}

	// <space>, <lt>, <bar> spell single characters; <cr> spells another name.
	bracketed := "<" + base + ">"
	if alias := t.table.ResolveAlias(bracketed); alias != bracketed {
		if utf8.RuneCountInString(alias) == 1 {
			ev, err := t.runeEvent(alias)
			return ev.Code, err
		}
		if isBracketed(alias) {
			base = alias[1 : len(alias)-1]
		}
	}
	return t.table.CodeFor(base)
}

// Decode translates an engine event into the chord a host would report for it.
func (t *Translator) Decode(ev Event) (Chord, error) {
	name, ok := t.table.NameFor(ev.Code)
	if !ok {
		return nil, fmt.Errorf("%w: code %#x", ErrUnknownKeyName, uint32(ev.Code))
	}
	if extra := ev.Mask &^ t.table.ANSIMask(); extra != keytable.Null {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedModifier, t.table.ModifierNames(extra))
	}

	if tmpl, ok := t.table.Template(name); ok && ev.Mask != keytable.Null {
		seq := strings.Replace(tmpl, "{}", strconv.Itoa(t.table.ANSIParam(ev.Mask)), 1)
		return sequenceChord(seq), nil
	}

	var chord Chord
	token := t.table.HostName(name)
	for _, bit := range t.table.Split(ev.Mask) {
		switch bit {
		case t.alt:
			chord = append(chord, Escape)
		case t.shift:
			token = "s-" + token
		case t.control:
			token = "c-" + token
		}
	}
	if token == "" {
		return nil, ErrEmptyChord
	}
	return append(chord, token), nil
}

// Representable reports whether a host can report ev as a chord of its own.
// Control folds letter case and absorbs the control-character spellings
// (<C-h> is BackSpace, <C-[> is Escape), so such events decode to chords that
// encode to a different event.
func (t *Translator) Representable(ev Event) bool {
	name, ok := t.table.NameFor(ev.Code)
	if !ok || ev.Mask&^t.table.ANSIMask() != keytable.Null {
		return false
	}
	if ev.Mask&^t.alt != t.control || utf8.RuneCountInString(name) != 1 {
		return true
	}
	if strings.ToLower(name) != name {
		return false
	}
	spelled := "<c-" + name + ">"
	return t.table.ResolveAlias(spelled) == spelled
}

// sequenceChord splits an escape sequence into one token per character,
// with a leading ESC as the escape token.
func sequenceChord(seq string) Chord {
	chord := make(Chord, 0, len(seq))
	for i, r := range seq {
		if i == 0 && r == '\x1b' {
			chord = append(chord, Escape)
			continue
		}
		chord = append(chord, string(r))
	}
	return chord
}

func isBracketed(s string) bool {
	return len(s) >= 3 && s[0] == '<' && s[len(s)-1] == '>'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// hasPrefix reports whether s looks like "x-name".
func hasPrefix(s string) bool {
	_, size := utf8.DecodeLastRuneInString(s)
	return strings.LastIndex(s[:len(s)-size], "-") > 0
}

func isDigit(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsDigit(r)
}
