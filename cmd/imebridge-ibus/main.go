//go:build linux

// imebridge-ibus is the Linux IBus Input Method Engine.
//
// This connects to the IBus daemon via D-Bus and serves one input method
// per input context, backed by the configured dictionary engine.
//
// Installation:
//  1. Copy binary to /usr/local/bin/imebridge-ibus
//  2. Run: imebridge-ibus -install
//  3. Restart IBus: ibus restart
//  4. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"imebridge/internal/config"
	"imebridge/internal/ibus"
	"imebridge/internal/ime"
	"imebridge/internal/logging"
)

// Version is set at build time.
var Version = "dev"

func main() {
	installFlag := flag.Bool("install", false, "Install IBus component")
	uninstallFlag := flag.Bool("uninstall", false, "Uninstall IBus component")
	flag.Bool("ibus", false, "Started by ibus-daemon")
	configPath := flag.String("config", "", "path to config file")
	address := flag.String("address", "", "IBus bus address (default: discovered)")
	flag.Parse()

	if *installFlag {
		exe, err := executable()
		if err != nil {
			log.Fatalf("Failed to locate binary: %v", err)
		}
		path, err := ibus.Install(exe)
		if err != nil {
			log.Fatalf("Failed to install: %v", err)
		}
		log.Printf("Installed %s. Run 'ibus restart' to load.", path)
		return
	}

	if *uninstallFlag {
		if err := ibus.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall: %v", err)
		}
		log.Println("Uninstalled successfully.")
		return
	}

	if err := run(*configPath, *address); err != nil {
		log.Fatalf("imebridge-ibus: %v", err)
	}
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

func run(configPath, address string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := cfg.NewLogger("imebridge-ibus")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	// Input contexts created after a reload pick up the new configuration.
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch unavailable", "error", err)
	}
	defer loader.Close()
	loader.OnChange(func(c *config.Config) {
		logger.Info("config reloaded", "style", c.UI.Style)
	})

	newIME := func() (*ime.IME, error) {
		m, err := loader.Config().NewIME(logger.Logger)
		if err != nil {
			return nil, err
		}
		// IBus switches engines itself; an engine that exists is in use.
		m.Enable()
		return m, nil
	}

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version:   Version,
		Component: "imebridge-ibus",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	if crash.Recover(func() {
		serveErr = ibus.Serve(ctx, ibus.ServeOptions{
			Address: address,
			NewIME:  newIME,
			Logger:  logger.Logger,
		})
	}) {
		return fmt.Errorf("crashed, report in %s", crash.Dir())
	}
	return serveErr
}
