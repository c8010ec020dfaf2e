//go:build !unix

package terminal

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

// TTY is a terminal switched into raw mode.
type TTY struct {
	inFd  int
	outFd int
	old   *term.State
}

// OpenTTY puts in into raw mode. Call Restore when done.
func OpenTTY(in, out *os.File) (*TTY, error) {
	t := &TTY{inFd: int(in.Fd()), outFd: int(out.Fd())}
	if !term.IsTerminal(t.inFd) {
		return nil, fmt.Errorf("%s is not a terminal", in.Name())
	}
	old, err := term.MakeRaw(t.inFd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	t.old = old
	return t, nil
}

// Restore returns the terminal to the mode it had before OpenTTY.
func (t *TTY) Restore() error {
	if t.old == nil {
		return nil
	}
	err := term.Restore(t.inFd, t.old)
	t.old = nil
	return err
}

// Size returns the output width and height, 80x24 when unknown.
func (t *TTY) Size() (int, int) {
	w, h, err := term.GetSize(t.outFd)
	if err != nil || w == 0 {
		return 80, 24
	}
	return w, h
}

// WatchResize is a no-op without SIGWINCH.
func (t *TTY) WatchResize(ctx context.Context, fn func(width, height int)) {}
