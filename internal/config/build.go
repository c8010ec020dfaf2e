package config

import (
	"fmt"
	"log/slog"

	"imebridge/internal/ime"
	"imebridge/internal/logging"
)

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger(component string) (*logging.Logger, error) {
	c.mu.RLock()
	l := c.Logging
	c.mu.RUnlock()

	lc, err := l.LoggerConfig(component)
	if err != nil {
		return nil, err
	}
	return logging.New(lc)
}

// NewIME builds an input method over the configured engine, key table and
// candidate window.
func (c *Config) NewIME(logger *slog.Logger) (*ime.IME, error) {
	cfg := c.Clone()

	tr, err := cfg.Keys.Translator()
	if err != nil {
		return nil, fmt.Errorf("key table: %w", err)
	}
	r, err := cfg.UI.Renderer()
	if err != nil {
		return nil, fmt.Errorf("ui: %w", err)
	}
	session, err := cfg.Engine.NewSession()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return ime.New(session, ime.Config{
		Renderer:   r,
		Translator: tr,
		Logger:     logger,
		Enabled:    cfg.Terminal.StartEnabled,
	}), nil
}
