package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imebridge/internal/key"
	"imebridge/internal/keytable"
)

func feed(t *testing.T, s *Splitter, input string) []key.Chord {
	t.Helper()
	return s.Feed([]byte(input))
}

func TestSplitterPrintable(t *testing.T) {
	s := NewSplitter(nil)
	assert.Equal(t, []key.Chord{{"a"}, {"B"}, {" "}, {"你"}}, feed(t, s, "aB 你"))
	assert.False(t, s.Pending())
}

func TestSplitterPartialRune(t *testing.T) {
	s := NewSplitter(nil)
	b := []byte("好")
	assert.Empty(t, s.Feed(b[:1]))
	assert.True(t, s.Pending())
	assert.Equal(t, []key.Chord{{"好"}}, s.Feed(b[1:]))
}

func TestSplitterControlBytes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"\x00", "c-space"},
		{"\x01", "c-a"},
		{"\x03", "c-c"},
		{"\x08", "backspace"},
		{"\x09", "tab"},
		{"\x0a", "c-j"},
		{"\x0d", "enter"},
		{"\x1a", "c-z"},
		{"\x1c", "c-\\"},
		{"\x1f", "c-_"},
		{"\x7f", "backspace"},
	}
	for _, tt := range tests {
		got := NewSplitter(nil).Feed([]byte(tt.in))
		require.Len(t, got, 1, "%q", tt.in)
		assert.Equal(t, key.Chord{tt.want}, got[0], "%q", tt.in)
	}
}

func TestSplitterSequences(t *testing.T) {
	tests := []struct {
		in   string
		want key.Chord
	}{
		{"\x1b[A", key.Chord{"up"}},
		{"\x1bOB", key.Chord{"down"}},
		{"\x1b[1;5C", key.Chord{"c-right"}},
		{"\x1b[1;2D", key.Chord{"s-left"}},
		{"\x1b[1;3A", key.Chord{"escape", "up"}},
		{"\x1b[H", key.Chord{"home"}},
		{"\x1b[4~", key.Chord{"end"}},
		{"\x1b[5~", key.Chord{"pageup"}},
		{"\x1b[6;6~", key.Chord{"c-s-pagedown"}},
		{"\x1b[3;5~", key.Chord{"c-delete"}},
		{"\x1bOP", key.Chord{"f1"}},
		{"\x1b[15~", key.Chord{"f5"}},
		{"\x1b[Z", key.Chord{"s-tab"}},
		{"\x1b[97;5u", key.Chord{"c-a"}},
		{"\x1b[9;2u", key.Chord{"s-tab"}},
		{"\x1bx", key.Chord{"escape", "x"}},
		{"\x1b\x01", key.Chord{"escape", "c-a"}},
		{"\x1b\x1b", key.Chord{"escape", "escape"}},
		{"\x1b你", key.Chord{"escape", "你"}},
	}
	for _, tt := range tests {
		got := NewSplitter(nil).Feed([]byte(tt.in))
		require.Len(t, got, 1, "%q", tt.in)
		assert.Equal(t, tt.want, got[0], "%q", tt.in)
	}
}

func TestSplitterEnterTemplate(t *testing.T) {
	s := NewSplitter(nil)
	got := feed(t, s, "\x1b[27;5;13~")
	require.Len(t, got, 1)
	assert.Equal(t, key.Chord{"escape", "[", "2", "7", ";", "5", ";", "1", "3", "~"}, got[0])

	ev, err := key.Encode(got[0])
	require.NoError(t, err)
	table := keytable.Default()
	assert.Equal(t, table.MustModifier("Control"), ev.Mask)
	ret, err := table.CodeFor("Return")
	require.NoError(t, err)
	assert.Equal(t, ret, ev.Code)
}

func TestSplitterChordsEncode(t *testing.T) {
	for _, in := range []string{"\x1b[1;5C", "\x1b[Z", "\x1bx", "\x00", "\x1b[6;6~"} {
		got := NewSplitter(nil).Feed([]byte(in))
		require.Len(t, got, 1)
		_, err := key.Encode(got[0])
		assert.NoError(t, err, "%q -> %v", in, got[0])
	}
}

func TestSplitterIncompleteSequence(t *testing.T) {
	s := NewSplitter(nil)
	assert.Equal(t, []key.Chord{{"a"}}, feed(t, s, "a\x1b[1;5"))
	assert.True(t, s.Pending())
	assert.Equal(t, []key.Chord{{"c-up"}, {"b"}}, feed(t, s, "Ab"))
	assert.False(t, s.Pending())
}

func TestSplitterLoneEscape(t *testing.T) {
	s := NewSplitter(nil)
	assert.Equal(t, []key.Chord{{"q"}}, feed(t, s, "q\x1b"))
	assert.True(t, s.Pending())
	assert.Equal(t, []key.Chord{{"escape"}}, s.Flush())
	assert.False(t, s.Pending())
	assert.Empty(t, s.Flush())

	assert.Empty(t, feed(t, s, "\x1b["))
	assert.Equal(t, []key.Chord{{"escape", "["}}, s.Flush())
	assert.False(t, s.Pending())

	assert.Empty(t, feed(t, s, "\x1b[1;"))
	assert.Empty(t, s.Flush())
	assert.False(t, s.Pending())
}

func TestSplitterUnknownSequences(t *testing.T) {
	s := NewSplitter(nil)
	assert.Equal(t, []key.Chord{{"a"}, {"b"}}, feed(t, s, "\x1b[99~a\x1b[?1;2cb"))
	assert.Equal(t, []key.Chord{{"c"}}, feed(t, s, "\x1bOzc"))
	assert.Equal(t, []key.Chord{{"d"}}, feed(t, s, "\xffd"))
}
