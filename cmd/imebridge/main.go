// imebridge is a line editor with an input method in front of it.
//
// Keys typed in the terminal go through the configured key table to the
// dictionary engine; the candidate window is painted below the prompt.
// Ctrl-Space switches the input method on and off, Enter submits the line
// and Ctrl-D on an empty line quits.
//
// Lines starting with ':' are commands:
//
//	:schemas        list the loaded dictionaries
//	:schema <id>    switch dictionary
//	:quit           exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"imebridge/internal/config"
	"imebridge/internal/ime"
	"imebridge/internal/logging"
	"imebridge/internal/terminal"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath = flag.String("config", "", "path to config file")
	styleFlag  = flag.String("style", "", "candidate window style (horizontal, vertical)")
	enableFlag = flag.Bool("enable", false, "start with the input method on")
	noWatch    = flag.Bool("no-watch", false, "do not reload the config file on change")
	showVer    = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("imebridge %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "imebridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *styleFlag != "" {
		cfg.UI.Style = *styleFlag
	}
	if *enableFlag {
		cfg.Terminal.StartEnabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.NewLogger("imebridge")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	m, err := cfg.NewIME(logger.Logger)
	if err != nil {
		return err
	}

	tty, err := terminal.OpenTTY(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer tty.Restore()

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version:   Version,
		Component: "imebridge",
		OnCrash:   func(logging.CrashReport) { tty.Restore() },
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if !*noWatch {
		watchConfig(loader, m, *styleFlag, logger.Logger)
		defer loader.Close()
	}

	width, _ := tty.Size()
	session := terminal.NewSession(os.Stdin, os.Stdout, m, terminal.Config{
		Prompt:        cfg.Terminal.Prompt,
		Toggle:        cfg.Terminal.ToggleChord(),
		EscapeTimeout: cfg.Terminal.EscapeTimeout(),
		Width:         width,
		Logger:        logger.Logger,
	})
	defer session.Close()
	tty.WatchResize(ctx, func(w, _ int) { session.SetWidth(w) })

	logger.Info("started", "schema", m.Session().CurrentSchema(), "enabled", m.Enabled())

	var loopErr error
	if crash.Recover(func() { loopErr = loop(ctx, session, m) }) {
		return errors.New("crashed")
	}
	return loopErr
}

// watchConfig swaps the candidate window renderer when the config file
// changes. Other settings apply on the next start.
func watchConfig(loader *config.Loader, m *ime.IME, style string, logger *slog.Logger) {
	loader.OnChange(func(c *config.Config) {
		if style != "" {
			c.UI.Style = style
		}
		r, err := c.UI.Renderer()
		if err != nil {
			logger.Warn("config reload ignored", "error", err)
			return
		}
		m.SetRenderer(r)
		logger.Info("config reloaded", "style", c.UI.Style, "indices", c.UI.Indices)
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch unavailable", "error", err)
		return
	}
	go func() {
		for err := range loader.Errors() {
			logger.Warn("config reload failed", "error", err)
		}
	}()
}

func loop(ctx context.Context, session *terminal.Session, m *ime.IME) error {
	out := os.Stdout
	for {
		line, err := session.ReadLine(ctx)
		switch {
		case errors.Is(err, terminal.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}

		if strings.HasPrefix(line, ":") {
			if quit := command(out, m, strings.Fields(line[1:])); quit {
				return nil
			}
			continue
		}
		if line != "" {
			fmt.Fprintf(out, "%s\r\n", line)
		}
	}
}

// command runs a ':' command and reports whether to quit. Output lines end
// in CRLF because the terminal is raw.
func command(w io.Writer, m *ime.IME, args []string) bool {
	if len(args) == 0 {
		return false
	}
	s := m.Session()
	switch args[0] {
	case "q", "quit":
		return true
	case "schemas":
		current := s.CurrentSchema()
		for _, item := range s.SchemaList() {
			mark := " "
			if item.SchemaID == current {
				mark = "*"
			}
			fmt.Fprintf(w, "%s %s\t%s\r\n", mark, item.SchemaID, item.Name)
		}
	case "schema":
		if len(args) < 2 {
			fmt.Fprintf(w, "usage: :schema <id>\r\n")
			break
		}
		m.Reset()
		if !s.SelectSchema(args[1]) {
			fmt.Fprintf(w, "unknown schema: %s\r\n", args[1])
			break
		}
		fmt.Fprintf(w, "schema: %s\r\n", args[1])
	default:
		fmt.Fprintf(w, "unknown command: %s\r\n", args[0])
	}
	return false
}
