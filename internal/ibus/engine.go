package ibus

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"imebridge/internal/ime"
	"imebridge/internal/key"
	"imebridge/internal/keytable"
)

// modifierMask keeps the IBus state bits the key table models.
const modifierMask = ShiftMask | ControlMask | Mod1Mask

// Engine implements the org.freedesktop.IBus.Engine object for one input
// context. IBus keyvals are X11 keysyms, the same codes the key table uses,
// and the low IBus state bits line up with the table's modifier list.
type Engine struct {
	mu      sync.Mutex
	bus     Bus
	path    dbus.ObjectPath
	ime     *ime.IME
	logger  *slog.Logger
	focused bool
}

// NewEngine returns an engine that emits its signals on bus at path.
func NewEngine(bus Bus, path dbus.ObjectPath, m *ime.IME, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		bus:    bus,
		path:   path,
		ime:    m,
		logger: logger.With("component", "ibus", "path", string(path)),
	}
}

// Path returns the object path the engine is exported at.
func (e *Engine) Path() dbus.ObjectPath {
	return e.path
}

// Focused reports whether the input context has focus.
func (e *Engine) Focused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass it to the application.
func (e *Engine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	if state&ReleaseMask != 0 {
		return false, nil
	}
	ev := key.Event{Code: keytable.Code(keyval), Mask: keytable.Mask(state & modifierMask)}
	return e.process(ev), nil
}

func (e *Engine) process(ev key.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.ime.HandleEvent(ev)
	if errors.Is(err, ime.ErrDisabled) {
		return false
	}
	if err != nil {
		e.logger.Debug("key event failed", "event", ev.String(), "error", err)
		return false
	}

	// Rejected keys go back to the application, which inserts them itself.
	if res.Consumed && res.Commit != "" {
		e.emit("CommitText", NewText(res.Commit))
	}
	e.update(res)
	return res.Consumed
}

// update mirrors the composition and the candidate window into the panel.
func (e *Engine) update(res ime.Result) {
	ctx := e.ime.Session().Context()
	if ctx == nil || res.Overlay.Empty() {
		e.hide()
		return
	}
	e.emit("UpdatePreeditText",
		NewText(ctx.Composition.PreeditText()), uint32(max(ctx.Composition.CursorPos, 0)), true, PreeditClear)

	aux := ""
	if len(res.Overlay.Lines) > 1 {
		aux = strings.Join(res.Overlay.Lines[1:], " ")
	}
	e.emit("UpdateAuxiliaryText", NewText(aux), aux != "")
}

func (e *Engine) hide() {
	e.emit("UpdatePreeditText", NewText(""), uint32(0), false, PreeditClear)
	e.emit("UpdateAuxiliaryText", NewText(""), false)
}

func (e *Engine) emit(signal string, values ...interface{}) {
	if err := e.bus.Emit(e.path, IBusEngineInterface+"."+signal, values...); err != nil {
		e.logger.Warn("emit failed", "signal", signal, "error", err)
	}
}

// reset drops the composition and hides the panel.
func (e *Engine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ime.Reset()
	e.hide()
}

// FocusIn is called when the input context gains focus.
func (e *Engine) FocusIn() *dbus.Error {
	e.mu.Lock()
	e.focused = true
	e.mu.Unlock()
	e.logger.Debug("focus in")
	return nil
}

// FocusOut is called when the input context loses focus. The composition is
// abandoned.
func (e *Engine) FocusOut() *dbus.Error {
	e.mu.Lock()
	e.focused = false
	e.mu.Unlock()
	e.logger.Debug("focus out")
	e.reset()
	return nil
}

// Enable is called when the user switches to this engine.
func (e *Engine) Enable() *dbus.Error {
	e.ime.Enable()
	e.logger.Debug("enable")
	return nil
}

// Disable is called when the user switches away.
func (e *Engine) Disable() *dbus.Error {
	e.ime.Disable()
	e.logger.Debug("disable")
	e.mu.Lock()
	e.hide()
	e.mu.Unlock()
	return nil
}

// Reset is called when the application moves the cursor or changes the text.
func (e *Engine) Reset() *dbus.Error {
	e.reset()
	return nil
}

// PageUp turns the candidate page back.
func (e *Engine) PageUp() *dbus.Error {
	e.named("Page_Up")
	return nil
}

// PageDown turns the candidate page forward.
func (e *Engine) PageDown() *dbus.Error {
	e.named("Page_Down")
	return nil
}

// CursorUp moves the highlight up.
func (e *Engine) CursorUp() *dbus.Error {
	e.named("Up")
	return nil
}

// CursorDown moves the highlight down.
func (e *Engine) CursorDown() *dbus.Error {
	e.named("Down")
	return nil
}

// CandidateClicked selects the candidate at index on the current page by
// pressing its select key.
func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error {
	ctx := e.ime.Session().Context()
	if ctx == nil || int(index) >= len(ctx.Menu.Candidates) {
		return nil
	}
	keys := ctx.Menu.SelectKeys
	if keys == "" {
		keys = "1234567890"
	}
	sel := []rune(keys)
	if int(index) >= len(sel) {
		return nil
	}
	code, ok := e.ime.Translator().Table().RuneCode(sel[index])
	if !ok {
		return nil
	}
	e.process(key.Event{Code: code})
	return nil
}

func (e *Engine) named(name string) {
	code, err := e.ime.Translator().Table().CodeFor(name)
	if err != nil {
		e.logger.Debug("no key for panel action", "key", name, "error", err)
		return
	}
	e.process(key.Event{Code: code})
}

// SetCapabilities informs about client capabilities.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	e.logger.Debug("set capabilities", "caps", caps)
	return nil
}

// SetCursorLocation informs about the cursor position on screen.
func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// SetContentType informs about the type of content being edited.
func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error {
	e.logger.Debug("set content type", "purpose", purpose, "hints", hints)
	return nil
}

// SetSurroundingText provides context around the cursor.
func (e *Engine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

// PropertyActivate handles panel property activations.
func (e *Engine) PropertyActivate(name string, state uint32) *dbus.Error {
	e.logger.Debug("property activate", "name", name, "state", state)
	return nil
}

// Destroy is called when the input context goes away.
func (e *Engine) Destroy() *dbus.Error {
	e.reset()
	if err := e.bus.Export(nil, e.path, IBusEngineInterface); err != nil {
		e.logger.Warn("unexport failed", "error", err)
	}
	e.logger.Debug("destroyed")
	return nil
}
