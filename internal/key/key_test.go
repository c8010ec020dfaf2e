package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imebridge/internal/keytable"
)

func mustEvent(t *testing.T, name string, mask keytable.Mask) Event {
	t.Helper()
	ev, err := NewEvent(name, mask)
	require.NoError(t, err)
	return ev
}

func TestRoundTripEveryRepresentableEvent(t *testing.T) {
	tr := Default()
	tbl := tr.Table()

	checked := 0
	for _, code := range tbl.Codes() {
		for _, mask := range tbl.ANSIMasks() {
			ev := Event{Code: code, Mask: mask}
			if !tr.Representable(ev) {
				continue
			}
			chord, err := tr.Decode(ev)
			require.NoError(t, err, "decode %v", ev)

			back, err := tr.Encode(chord)
			require.NoError(t, err, "encode %q from %v", []string(chord), ev)
			assert.Equal(t, ev, back, "chord %q", []string(chord))
			checked++
		}
	}
	assert.Greater(t, checked, 1000)
}

func TestRepresentable(t *testing.T) {
	tr := Default()

	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"plain letter", mustEvent(t, "a", keytable.Null), true},
		{"control letter", mustEvent(t, "a", Control), true},
		{"control upper", mustEvent(t, "A", Control), false},
		{"control alt upper", mustEvent(t, "A", Control|Alt), false},
		{"control shift upper", mustEvent(t, "A", Control|Shift), true},
		{"control h is backspace", mustEvent(t, "h", Control), false},
		{"control bracket is escape", mustEvent(t, "[", Control), false},
		{"control caret", mustEvent(t, "^", Control), false},
		{"control six", mustEvent(t, "6", Control), true},
		{"control tab", mustEvent(t, "Tab", Control), true},
		{"lock", mustEvent(t, "a", keytable.Default().MustModifier("Lock")), false},
		{"unnamed code", Event{Code: 0x7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Representable(tt.ev))
		})
	}
}

func TestEncodeControlFoldsCase(t *testing.T) {
	want := mustEvent(t, "a", Control)

	for _, chord := range []Chord{{"<c-a>"}, {"<C-A>"}, {"<C-a>"}, {"c-a"}} {
		got, err := Encode(chord)
		require.NoError(t, err, chord)
		assert.Equal(t, want, got, chord)
	}

	got, err := Encode(Chord{"<c-s-A>"})
	require.NoError(t, err)
	assert.Equal(t, mustEvent(t, "A", Control|Shift), got)
}

func TestEncodeAliases(t *testing.T) {
	tests := []struct {
		chord Chord
		name  string
		mask  keytable.Mask
	}{
		{Chord{"<c-^>"}, "6", Control},
		{Chord{"<c-6>"}, "6", Control},
		{Chord{"<nul>"}, "space", Control},
		{Chord{"<c-@>"}, "space", Control},
		{Chord{"<CR>"}, "Return", keytable.Null},
		{Chord{"<c-m>"}, "Return", keytable.Null},
		{Chord{"<c-h>"}, "BackSpace", keytable.Null},
		{Chord{"<c-[>"}, "Escape", keytable.Null},
		{Chord{"<c-/>"}, "-", Control},
		{Chord{"<lt>"}, "<", keytable.Null},
		{Chord{"<Space>"}, "space", keytable.Null},
		{Chord{"<c-space>"}, "space", Control},
		{Chord{"<s-space>"}, "space", Shift},
	}
	for _, tt := range tests {
		t.Run(tt.chord.String(), func(t *testing.T) {
			got, err := Encode(tt.chord)
			require.NoError(t, err)
			assert.Equal(t, mustEvent(t, tt.name, tt.mask), got)
		})
	}
}

func TestEncodeHostTokens(t *testing.T) {
	tests := []struct {
		chord Chord
		name  string
		mask  keytable.Mask
	}{
		{Chord{"a"}, "a", keytable.Null},
		{Chord{" "}, "space", keytable.Null},
		{Chord{"tab"}, "Tab", keytable.Null},
		{Chord{"s-tab"}, "Tab", Shift},
		{Chord{"enter"}, "Return", keytable.Null},
		{Chord{"backspace"}, "BackSpace", keytable.Null},
		{Chord{"pageup"}, "Page_Up", keytable.Null},
		{Chord{"c-s-pagedown"}, "Page_Down", Control | Shift},
		{Chord{"f5"}, "F5", keytable.Null},
		{Chord{"c--"}, "-", Control},
		{Chord{"s--"}, "-", Shift},
		{Chord{"escape"}, "Escape", keytable.Null},
		{Chord{"escape", "escape"}, "Escape", Alt},
		{Chord{"escape", "x"}, "x", Alt},
		{Chord{"escape", "c-x"}, "x", Control | Alt},
		{Chord{"escape", "["}, "[", Alt},
		{Chord{"<M-BS>"}, "BackSpace", Alt},
		{Chord{"<A-S-Left>"}, "Left", Alt | Shift},
	}
	for _, tt := range tests {
		t.Run(tt.chord.String(), func(t *testing.T) {
			got, err := Encode(tt.chord)
			require.NoError(t, err)
			assert.Equal(t, mustEvent(t, tt.name, tt.mask), got)
		})
	}

	got, err := Encode(Chord{"你"})
	require.NoError(t, err)
	assert.Equal(t, Event{Code: 0x01004f60}, got)
}

func TestEnterTemplate(t *testing.T) {
	ev := mustEvent(t, "Return", Control|Shift|Alt)
	want := Chord{"escape", "[", "2", "7", ";", "8", ";", "1", "3", "~"}

	chord, err := Decode(ev)
	require.NoError(t, err)
	assert.Equal(t, want, chord)

	back, err := Encode(want)
	require.NoError(t, err)
	assert.Equal(t, ev, back)

	chord, err = Decode(mustEvent(t, "Return", keytable.Null))
	require.NoError(t, err)
	assert.Equal(t, Chord{"enter"}, chord)

	chord, err = Decode(mustEvent(t, "Return", Shift))
	require.NoError(t, err)
	assert.Equal(t, Chord{"escape", "[", "2", "7", ";", "2", ";", "1", "3", "~"}, chord)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		mask keytable.Mask
		want Chord
	}{
		{"a", keytable.Null, Chord{"a"}},
		{"a", Control, Chord{"c-a"}},
		{"a", Shift | Control, Chord{"c-s-a"}},
		{"a", Alt, Chord{"escape", "a"}},
		{"Page_Up", Control | Alt, Chord{"escape", "c-pageup"}},
		{"Tab", Shift, Chord{"s-tab"}},
		{"F12", keytable.Null, Chord{"f12"}},
		{"space", keytable.Null, Chord{"space"}},
	}
	for _, tt := range tests {
		got, err := Decode(mustEvent(t, tt.name, tt.mask))
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := Decode(Event{Code: 0x7})
	assert.ErrorIs(t, err, ErrUnknownKeyName)

	_, err = Decode(mustEvent(t, "a", keytable.Default().MustModifier("Lock")))
	assert.ErrorIs(t, err, ErrUnsupportedModifier)
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		chord Chord
		want  error
	}{
		{nil, ErrUnsupportedChord},
		{Chord{""}, ErrUnsupportedChord},
		{Chord{"a", "b"}, ErrUnsupportedChord},
		{Chord{"\x07"}, ErrUnsupportedChord},
		{Chord{"héllo"}, ErrUnsupportedChord},
		{Chord{"escape", "[", "2", "7", ";", "x", ";", "1", "3", "~"}, ErrUnsupportedChord},
		{Chord{"escape", "[", "2", "7", ";", "9", ";", "1", "3", "~"}, ErrUnsupportedChord},
		{Chord{"escape", "[", "A"}, ErrUnsupportedChord},
		{Chord{"<nosuchkey>"}, ErrUnknownKeyName},
		{Chord{"nosuchkey"}, ErrUnknownKeyName},
		{Chord{"<x-a>"}, ErrUnsupportedModifier},
		{Chord{"q-tab"}, ErrUnsupportedModifier},
	}
	for _, tt := range tests {
		t.Run(tt.chord.String(), func(t *testing.T) {
			_, err := Encode(tt.chord)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "a", mustEvent(t, "a", keytable.Null).String())
	assert.Equal(t, "<C-a>", mustEvent(t, "a", Control).String())
	assert.Equal(t, "<S-C-A-Page_Up>", mustEvent(t, "Page_Up", Control|Alt|Shift).String())
	assert.Equal(t, "<space>", mustEvent(t, "space", keytable.Null).String())

	ev, err := ParseVim("<S-C-A-Page_Up>")
	require.NoError(t, err)
	assert.Equal(t, mustEvent(t, "Page_Up", Control|Alt|Shift), ev)
}

func TestEventLiteral(t *testing.T) {
	lit, ok := mustEvent(t, "a", keytable.Null).Literal()
	assert.True(t, ok)
	assert.Equal(t, "a", lit)

	lit, ok = mustEvent(t, "space", keytable.Null).Literal()
	assert.True(t, ok)
	assert.Equal(t, " ", lit)

	lit, ok = Event{Code: 0x01004f60}.Literal()
	assert.True(t, ok)
	assert.Equal(t, "你", lit)

	_, ok = mustEvent(t, "a", Control).Literal()
	assert.False(t, ok)

	_, ok = mustEvent(t, "Return", keytable.Null).Literal()
	assert.False(t, ok)
}

func TestBindableChords(t *testing.T) {
	chords := BindableChords()
	require.NotEmpty(t, chords)

	seen := make(map[string]bool)
	for _, c := range chords {
		k := c.String()
		assert.False(t, seen[k], "duplicate chord %q", k)
		seen[k] = true
	}

	for _, want := range []string{
		"s-tab", "a", "~", "escape a", "c-a", "c-z", "c-^", "escape c-]",
		"f1", "f24", "pageup", "c-s-pagedown", "escape s-home",
		"escape [ 2 7 ; 8 ; 1 3 ~", "escape [ 2 7 ; 5 ; 1 3 ~",
	} {
		assert.True(t, seen[want], "missing %q", want)
	}
}
