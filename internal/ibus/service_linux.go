//go:build linux

package ibus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"imebridge/internal/ime"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	// Address of the bus to join. Empty means Address(), then the session bus.
	Address string

	// NewIME builds the input method state for each input context.
	NewIME func() (*ime.IME, error)

	Logger *slog.Logger
}

// Serve connects to IBus, exports the factory and blocks until ctx is done.
func Serve(ctx context.Context, opts ServeOptions) error {
	if opts.NewIME == nil {
		return errors.New("ibus: NewIME is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := connect(opts.Address, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	factory := NewFactory(conn, EngineName, opts.NewIME, logger)
	if err := conn.Export(factory, FactoryPath, IBusFactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("bus name already taken")
	}

	logger.Info("ibus engine started", "name", BusName)
	<-ctx.Done()
	factory.Destroy()
	logger.Info("ibus engine stopped")
	return nil
}

func connect(addr string, logger *slog.Logger) (*dbus.Conn, error) {
	if addr == "" {
		a, err := Address()
		if err != nil {
			logger.Warn("ibus address unknown, using session bus", "error", err)
			conn, err := dbus.SessionBus()
			if err != nil {
				return nil, fmt.Errorf("failed to connect to session bus: %w", err)
			}
			return conn, nil
		}
		addr = a
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}
