// Package ime holds the host-facing state of an input method: the engine
// session, the on/off switch and the candidate window last drawn.
//
// Host adapters (terminal, IBus) translate their key reports into chords or
// events and call HandleChord or HandleEvent; they paint the Result.
package ime

import (
	"errors"
	"log/slog"
	"sync"

	"imebridge/internal/engine"
	"imebridge/internal/key"
	"imebridge/internal/ui"
)

// ErrDisabled is returned while the input method is switched off.
// Hosts handle the key themselves.
var ErrDisabled = errors.New("input method disabled")

// Result is what a host applies after a key.
type Result struct {
	// Commit is text to insert: committed engine output, or the key's own
	// character when the engine rejected it.
	Commit string

	// Overlay is the candidate window to show. Empty hides it.
	Overlay ui.Overlay

	// Consumed reports whether the engine took the key.
	Consumed bool
}

// Host is the capability set host adapters drive.
type Host interface {
	HandleChord(chord key.Chord) (Result, error)
	HandleEvent(ev key.Event) (Result, error)
	Enabled() bool
	Toggle() bool
}

// Config configures an IME.
type Config struct {
	// Renderer draws the candidate window. Defaults to the horizontal style.
	Renderer ui.Renderer

	// Translator converts chords. Defaults to the embedded key table.
	Translator *key.Translator

	// Logger receives debug records for keys the IME cannot use.
	Logger *slog.Logger

	// Enabled is the initial state.
	Enabled bool
}

// IME is safe for concurrent use; calls are serialized.
type IME struct {
	mu         sync.Mutex
	session    engine.Session
	renderer   ui.Renderer
	translator *key.Translator
	logger     *slog.Logger
	enabled    bool
	overlay    ui.Overlay
}

var _ Host = (*IME)(nil)

// New wraps an engine session.
func New(session engine.Session, cfg Config) *IME {
	if session == nil {
		session = engine.Nop{}
	}
	if cfg.Renderer == nil {
		cfg.Renderer = ui.New(ui.Horizontal, ui.DefaultGlyphs())
	}
	if cfg.Translator == nil {
		cfg.Translator = key.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &IME{
		session:    session,
		renderer:   cfg.Renderer,
		translator: cfg.Translator,
		logger:     cfg.Logger.With("component", "ime"),
		enabled:    cfg.Enabled,
	}
}

// Enabled reports whether keys go to the engine.
func (m *IME) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// SetEnabled switches the input method and reports whether the state changed.
// Switching off clears the engine composition and hides the candidate window.
func (m *IME) SetEnabled(enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setEnabled(enabled)
}

func (m *IME) setEnabled(enabled bool) bool {
	if m.enabled == enabled {
		return false
	}
	if !enabled {
		m.session.ClearComposition()
		m.overlay = ui.Overlay{}
	}
	m.enabled = enabled
	m.logger.Debug("input method switched", "enabled", enabled)
	return true
}

// Toggle flips the state and returns the new one.
func (m *IME) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setEnabled(!m.enabled)
	return m.enabled
}

// Enable switches the input method on.
func (m *IME) Enable() { m.SetEnabled(true) }

// Disable switches the input method off.
func (m *IME) Disable() { m.SetEnabled(false) }

// Reset clears the engine composition and hides the candidate window
// without changing the on/off state.
func (m *IME) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.ClearComposition()
	m.overlay = ui.Overlay{}
}

// SetRenderer replaces the renderer, e.g. after a configuration reload.
func (m *IME) SetRenderer(r ui.Renderer) {
	if r == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderer = r
}

// Overlay returns the candidate window drawn by the last key.
func (m *IME) Overlay() ui.Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay
}

// Session returns the engine session.
func (m *IME) Session() engine.Session {
	return m.session
}

// Translator returns the chord translator.
func (m *IME) Translator() *key.Translator {
	return m.translator
}

// Draw feeds events to the engine regardless of the on/off state.
//
// The first rejected event stops processing: its literal character is
// returned for insertion and the window is hidden. When every event was
// consumed and the engine has nothing to show, pending committed text is
// returned. Otherwise the context is rendered.
func (m *IME) Draw(events ...key.Event) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draw(events)
}

func (m *IME) draw(events []key.Event) Result {
	for _, ev := range events {
		if !m.session.ProcessKey(ev.Code, ev.Mask) {
			m.overlay = ui.Overlay{}
			lit, _ := ev.Literal()
			return Result{Commit: lit}
		}
	}

	ctx := m.session.Context()
	if ctx == nil || ctx.Menu.NumCandidates == 0 {
		m.overlay = ui.Overlay{}
		return Result{Commit: engine.CommitText(m.session), Consumed: true}
	}
	m.overlay = m.renderer.Render(ctx)
	return Result{Overlay: m.overlay, Consumed: true}
}

// HandleChord translates a host chord and draws it. Translation errors are
// returned unchanged so the host can fall back to its own handling.
func (m *IME) HandleChord(chord key.Chord) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return Result{}, ErrDisabled
	}
	ev, err := m.translator.Encode(chord)
	if err != nil {
		m.logger.Debug("chord not translated", "chord", chord.String(), "error", err)
		return Result{}, err
	}
	return m.draw([]key.Event{ev}), nil
}

// HandleEvent draws one event for hosts that report key codes directly.
func (m *IME) HandleEvent(ev key.Event) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return Result{}, ErrDisabled
	}
	return m.draw([]key.Event{ev}), nil
}
