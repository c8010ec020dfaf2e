package ibus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"imebridge/internal/ime"
)

// Factory implements the org.freedesktop.IBus.Factory object. Every input
// context gets its own Engine and its own IME state.
type Factory struct {
	bus    Bus
	name   string
	newIME func() (*ime.IME, error)
	logger *slog.Logger

	mu      sync.Mutex
	nextID  uint32
	engines map[dbus.ObjectPath]*Engine
}

// NewFactory returns a factory creating engines called name. newIME builds
// the input method state for each engine.
func NewFactory(bus Bus, name string, newIME func() (*ime.IME, error), logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		bus:     bus,
		name:    name,
		newIME:  newIME,
		logger:  logger,
		engines: make(map[dbus.ObjectPath]*Engine),
	}
}

// CreateEngine creates and exports a new engine instance for IBus.
func (f *Factory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	f.logger.Info("create engine", "name", engineName)

	if engineName != f.name {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	m, err := f.newIME()
	if err != nil {
		f.logger.Error("engine state", "error", err)
		return "", dbus.MakeFailedError(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	path := dbus.ObjectPath(fmt.Sprintf("%s%d", EnginePathBase, f.nextID))
	eng := NewEngine(f.bus, path, m, f.logger)
	if err := f.bus.Export(eng, path, IBusEngineInterface); err != nil {
		return "", dbus.MakeFailedError(err)
	}
	f.engines[path] = eng
	return path, nil
}

// Engine returns the engine exported at path.
func (f *Factory) Engine(path dbus.ObjectPath) (*Engine, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	eng, ok := f.engines[path]
	return eng, ok
}

// Destroy tears down every engine the factory created.
func (f *Factory) Destroy() *dbus.Error {
	f.mu.Lock()
	engines := f.engines
	f.engines = make(map[dbus.ObjectPath]*Engine)
	f.mu.Unlock()

	for _, eng := range engines {
		eng.Destroy()
	}
	return nil
}
