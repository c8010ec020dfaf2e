package terminal

import (
	"bytes"
	"io"
	"strconv"
	"sync/atomic"

	"github.com/mattn/go-runewidth"

	"imebridge/internal/ui"
)

// ANSI sequences used by the painter and the line editor.
const (
	eraseLine  = "\x1b[2K"
	eraseBelow = "\x1b[J"
)

func cursorUp(n int) string      { return "\x1b[" + strconv.Itoa(n) + "A" }
func cursorDown(n int) string    { return "\x1b[" + strconv.Itoa(n) + "B" }
func cursorColumn(c int) string  { return "\x1b[" + strconv.Itoa(c+1) + "G" }
func cursorForward(n int) string { return "\x1b[" + strconv.Itoa(n) + "C" }

// Painter draws a candidate window on the lines below the cursor and puts the
// cursor back where it was. SetWidth may be called from any goroutine.
type Painter struct {
	w     io.Writer
	width atomic.Int64
	drawn int
}

// NewPainter returns a painter for a terminal width columns wide.
// A width of zero disables clipping.
func NewPainter(w io.Writer, width int) *Painter {
	p := &Painter{w: w}
	p.width.Store(int64(width))
	return p
}

// SetWidth updates the terminal width after a resize.
func (p *Painter) SetWidth(width int) {
	p.width.Store(int64(width))
}

// Lines returns the number of lines currently drawn.
func (p *Painter) Lines() int {
	return p.drawn
}

// Paint draws o anchored at cursor column col. The overlay's Col shifts it
// left of the cursor; it is pushed back inside the screen edges when needed.
// An empty overlay erases the previous one.
func (p *Painter) Paint(o ui.Overlay, col int) error {
	if o.Empty() {
		return p.Clear(col)
	}

	indent := p.indent(o, col)
	var buf bytes.Buffer
	for _, line := range o.Lines {
		buf.WriteString("\r\n")
		buf.WriteString(eraseLine)
		buf.WriteString(pad(indent))
		buf.WriteString(p.clip(line, indent))
	}
	buf.WriteString(eraseBelow)
	buf.WriteString(cursorUp(len(o.Lines)))
	buf.WriteString(cursorColumn(col))

	p.drawn = len(o.Lines)
	_, err := p.w.Write(buf.Bytes())
	return err
}

// Clear erases a drawn window and leaves the cursor at column col.
func (p *Painter) Clear(col int) error {
	if p.drawn == 0 {
		return nil
	}
	p.drawn = 0
	_, err := io.WriteString(p.w, cursorDown(1)+"\r"+eraseBelow+cursorUp(1)+cursorColumn(col))
	return err
}

func (p *Painter) indent(o ui.Overlay, col int) int {
	indent := max(col+o.Col, 0)
	if width := int(p.width.Load()); width > 0 {
		if w := o.Width(); indent+w > width {
			indent = max(width-w, 0)
		}
	}
	return indent
}

func (p *Painter) clip(line string, indent int) string {
	width := int(p.width.Load())
	if width <= 0 {
		return line
	}
	return runewidth.Truncate(line, max(width-indent, 0), "")
}

func pad(n int) string {
	return string(bytes.Repeat([]byte{' '}, n))
}
