// Package terminal hosts the input method in a raw-mode terminal: it splits
// tty input into chords, runs a small line editor and paints the candidate
// window below the prompt.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"imebridge/internal/ime"
	"imebridge/internal/key"
)

// ErrInterrupt is returned by ReadLine when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// DefaultEscapeTimeout is how long a lone ESC waits for the rest of a sequence.
const DefaultEscapeTimeout = 50 * time.Millisecond

// Config configures a Session.
type Config struct {
	Prompt string

	// Toggle switches the input method on and off. Defaults to c-space.
	Toggle key.Chord

	EscapeTimeout time.Duration

	// Width is the terminal width in columns; zero disables clipping.
	Width int

	Logger *slog.Logger
}

// Session is a line editor with an input method in front of it.
type Session struct {
	ime      *ime.IME
	splitter *Splitter
	painter  *Painter
	out      io.Writer
	logger   *slog.Logger

	prompt     string
	toggle     string
	escTimeout time.Duration

	line   []rune
	cursor int

	reads     chan readResult
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type readResult struct {
	data []byte
	err  error
}

// NewSession reads keys from in and draws on out.
func NewSession(in io.Reader, out io.Writer, m *ime.IME, cfg Config) *Session {
	if len(cfg.Toggle) == 0 {
		cfg.Toggle = key.Chord{"c-space"}
	}
	if cfg.EscapeTimeout <= 0 {
		cfg.EscapeTimeout = DefaultEscapeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Session{
		ime:        m,
		splitter:   NewSplitter(m.Translator()),
		painter:    NewPainter(out, cfg.Width),
		out:        out,
		logger:     cfg.Logger.With("component", "terminal"),
		prompt:     cfg.Prompt,
		toggle:     cfg.Toggle.String(),
		escTimeout: cfg.EscapeTimeout,
		reads:      make(chan readResult),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go s.readLoop(in)
	return s
}

func (s *Session) readLoop(in io.Reader) {
	defer close(s.stopped)
	for {
		buf := make([]byte, 256)
		n, err := in.Read(buf)
		if n > 0 && !s.send(readResult{data: buf[:n]}) {
			return
		}
		if err != nil {
			s.send(readResult{err: err})
			return
		}
	}
}

func (s *Session) send(r readResult) bool {
	select {
	case s.reads <- r:
		return true
	case <-s.done:
		return false
	}
}

// Close stops delivering input. The reader goroutine exits after its
// pending read returns; in is not closed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// SetWidth updates the terminal width after a resize. It is safe to call
// while ReadLine runs.
func (s *Session) SetWidth(width int) {
	s.painter.SetWidth(width)
}

// ReadLine edits one line and returns it when Enter reaches the editor.
// It returns ErrInterrupt on Ctrl-C, io.EOF on Ctrl-D with an empty line or
// end of input, and ctx.Err() when ctx is done.
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	s.line = s.line[:0]
	s.cursor = 0
	if err := s.redraw(); err != nil {
		return "", err
	}

	var timeout <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case <-timeout:
			timeout = nil
			if line, done, err := s.handleAll(s.splitter.Flush()); done || err != nil {
				return line, err
			}

		case r := <-s.reads:
			if r.err != nil {
				if line, done, err := s.handleAll(s.splitter.Flush()); done || err != nil {
					return line, err
				}
				s.finish()
				if errors.Is(r.err, io.EOF) && len(s.line) > 0 {
					return string(s.line), nil
				}
				return "", r.err
			}
			if line, done, err := s.handleAll(s.splitter.Feed(r.data)); done || err != nil {
				return line, err
			}
			timeout = nil
			if s.splitter.Pending() {
				timeout = time.After(s.escTimeout)
			}
		}
	}
}

func (s *Session) handleAll(chords []key.Chord) (string, bool, error) {
	for _, c := range chords {
		line, done, err := s.handle(c)
		if done || err != nil {
			return line, done, err
		}
	}
	return "", false, nil
}

// handle applies one chord: the toggle, then the input method, then the
// editor for keys the input method left alone.
func (s *Session) handle(c key.Chord) (string, bool, error) {
	if c.String() == s.toggle {
		on := s.ime.Toggle()
		s.logger.Debug("toggle", "enabled", on)
		return "", false, s.redraw()
	}

	res, err := s.ime.HandleChord(c)
	switch {
	case err == nil:
		s.insert(res.Commit)
		if res.Consumed || res.Commit != "" {
			return "", false, s.redraw()
		}
	case !errors.Is(err, ime.ErrDisabled):
		s.logger.Debug("chord passed to editor", "chord", c.String(), "error", err)
	}
	return s.edit(c)
}

func (s *Session) edit(c key.Chord) (string, bool, error) {
	switch c.String() {
	case "enter", "c-j":
		line := string(s.line)
		s.finish()
		return line, true, nil
	case "c-c":
		s.finish()
		return "", false, ErrInterrupt
	case "c-d":
		if len(s.line) == 0 {
			s.finish()
			return "", false, io.EOF
		}
		s.deleteAt(s.cursor)
	case "backspace":
		if s.cursor > 0 {
			s.cursor--
			s.deleteAt(s.cursor)
		}
	case "delete":
		s.deleteAt(s.cursor)
	case "left", "c-b":
		s.cursor = max(s.cursor-1, 0)
	case "right", "c-f":
		s.cursor = min(s.cursor+1, len(s.line))
	case "home", "c-a":
		s.cursor = 0
	case "end", "c-e":
		s.cursor = len(s.line)
	case "c-u":
		s.line = append(s.line[:0], s.line[s.cursor:]...)
		s.cursor = 0
	case "c-k":
		s.line = s.line[:s.cursor]
	case "space":
		s.insert(" ")
	default:
		if len(c) == 1 && utf8.RuneCountInString(c[0]) == 1 {
			s.insert(c[0])
		}
	}
	return "", false, s.redraw()
}

func (s *Session) insert(text string) {
	for _, r := range text {
		s.line = append(s.line, 0)
		copy(s.line[s.cursor+1:], s.line[s.cursor:])
		s.line[s.cursor] = r
		s.cursor++
	}
}

func (s *Session) deleteAt(i int) {
	if i < 0 || i >= len(s.line) {
		return
	}
	s.line = append(s.line[:i], s.line[i+1:]...)
}

// column is the screen column of the editor cursor.
func (s *Session) column() int {
	return runewidth.StringWidth(s.prompt) + runewidth.StringWidth(string(s.line[:s.cursor]))
}

func (s *Session) redraw() error {
	var buf bytes.Buffer
	buf.WriteString("\r" + eraseLine + s.prompt + string(s.line) + "\r")
	col := s.column()
	if col > 0 {
		buf.WriteString(cursorForward(col))
	}
	if _, err := s.out.Write(buf.Bytes()); err != nil {
		return err
	}
	return s.painter.Paint(s.ime.Overlay(), col)
}

// finish drops any composition, hides the window and moves to a fresh line.
func (s *Session) finish() {
	s.ime.Reset()
	s.painter.Clear(s.column())
	io.WriteString(s.out, "\r\n")
}
