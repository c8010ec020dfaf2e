package ime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imebridge/internal/engine"
	"imebridge/internal/key"
	"imebridge/internal/keytable"
	"imebridge/internal/ui"
)

// recordingSession wraps a session and counts ClearComposition calls.
type recordingSession struct {
	engine.Session
	cleared int
}

func (s *recordingSession) ClearComposition() {
	s.cleared++
	s.Session.ClearComposition()
}

func newTestIME(t *testing.T) (*IME, *recordingSession) {
	t.Helper()
	dict, err := engine.NewDict(engine.DemoDictionary())
	require.NoError(t, err)
	s := &recordingSession{Session: dict}
	return New(s, Config{Enabled: true}), s
}

func chord(tokens ...string) key.Chord {
	return key.Chord(tokens)
}

func TestHandleChordComposesAndCommits(t *testing.T) {
	m, _ := newTestIME(t)

	res, err := m.HandleChord(chord("n"))
	require.NoError(t, err)
	assert.True(t, res.Consumed)
	assert.Empty(t, res.Commit)

	res, err = m.HandleChord(chord("i"))
	require.NoError(t, err)
	require.Len(t, res.Overlay.Lines, 2)
	assert.Equal(t, "ni|", res.Overlay.Lines[0])
	assert.Contains(t, res.Overlay.Lines[1], "[① 你]② 尼")
	assert.Equal(t, res.Overlay, m.Overlay())

	res, err = m.HandleChord(chord("2"))
	require.NoError(t, err)
	assert.Equal(t, "尼", res.Commit)
	assert.True(t, res.Overlay.Empty())
	assert.True(t, m.Overlay().Empty())
}

func TestRejectedKeyFallsBackToLiteral(t *testing.T) {
	m, _ := newTestIME(t)

	res, err := m.HandleChord(chord("1"))
	require.NoError(t, err)
	assert.False(t, res.Consumed)
	assert.Equal(t, "1", res.Commit)

	res, err = m.HandleChord(chord("enter"))
	require.NoError(t, err)
	assert.False(t, res.Consumed)
	assert.Empty(t, res.Commit)

	res, err = m.HandleChord(chord("c-a"))
	require.NoError(t, err)
	assert.False(t, res.Consumed)
	assert.Empty(t, res.Commit)
}

func TestDrawStopsAtFirstRejection(t *testing.T) {
	m, _ := newTestIME(t)

	evs := []key.Event{
		{Code: 'n'},
		{Code: '!'},
		{Code: 'i'},
	}
	res := m.Draw(evs...)
	assert.Equal(t, "!", res.Commit)
	assert.True(t, res.Overlay.Empty())

	ctx := m.Session().Context()
	require.NotNil(t, ctx)
	assert.Equal(t, "n", ctx.Composition.PreeditText())
}

func TestDrawWorksWhileDisabled(t *testing.T) {
	m, _ := newTestIME(t)
	m.Disable()

	res := m.Draw(key.Event{Code: 'w'}, key.Event{Code: 'o'})
	require.Len(t, res.Overlay.Lines, 2)
	assert.Equal(t, "wo|", res.Overlay.Lines[0])
}

func TestDisableClearsComposition(t *testing.T) {
	m, s := newTestIME(t)

	_, err := m.HandleChord(chord("n"))
	require.NoError(t, err)
	require.False(t, m.Overlay().Empty())

	assert.False(t, m.Toggle())
	assert.Equal(t, 1, s.cleared)
	assert.Nil(t, m.Session().Context())
	assert.True(t, m.Overlay().Empty())

	_, err = m.HandleChord(chord("n"))
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = m.HandleEvent(key.Event{Code: 'n'})
	assert.ErrorIs(t, err, ErrDisabled)

	assert.False(t, m.SetEnabled(false))
	assert.Equal(t, 1, s.cleared)

	assert.True(t, m.Toggle())
	assert.True(t, m.Enabled())
	assert.Equal(t, 1, s.cleared)
}

func TestTranslatorErrorsPropagate(t *testing.T) {
	m, _ := newTestIME(t)

	_, err := m.HandleChord(chord("a", "b"))
	assert.ErrorIs(t, err, key.ErrUnsupportedChord)

	_, err = m.HandleChord(chord("<nosuchkey>"))
	assert.ErrorIs(t, err, key.ErrUnknownKeyName)
}

func TestSetRenderer(t *testing.T) {
	m, _ := newTestIME(t)
	m.SetRenderer(ui.New(ui.Vertical, ui.DefaultGlyphs()))
	m.SetRenderer(nil)

	res := m.Draw(key.Event{Code: 'n'}, key.Event{Code: 'i'})
	require.Greater(t, len(res.Overlay.Lines), 2)
	assert.Equal(t, "[① 你]", res.Overlay.Lines[1])
}

func TestHandleEvent(t *testing.T) {
	m, _ := newTestIME(t)

	res, err := m.HandleEvent(key.Event{Code: 'h'})
	require.NoError(t, err)
	assert.True(t, res.Consumed)

	esc, err := key.NewEvent("Escape", keytable.Null)
	require.NoError(t, err)
	res, err = m.HandleEvent(esc)
	require.NoError(t, err)
	assert.True(t, res.Consumed)
	assert.Empty(t, res.Commit)
	assert.True(t, res.Overlay.Empty())
}

func TestNopSession(t *testing.T) {
	m := New(nil, Config{Enabled: true})

	res, err := m.HandleChord(chord("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", res.Commit)
	assert.False(t, res.Consumed)
}

func TestReset(t *testing.T) {
	m, s := newTestIME(t)

	_, err := m.HandleChord(chord("n"))
	require.NoError(t, err)

	m.Reset()
	assert.Equal(t, 1, s.cleared)
	assert.True(t, m.Enabled())
	assert.True(t, m.Overlay().Empty())
	assert.Nil(t, m.Session().Context())
}
