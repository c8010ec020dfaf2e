// Package ui renders engine state into the text of a candidate window.
//
// Rendering is pure: a Context goes in, an Overlay of display lines and a
// horizontal anchor offset comes out. Painting the lines is up to the host.
package ui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"imebridge/internal/engine"
)

// ErrUnknownStyle is returned by ParseStyle and LookupIndices.
var ErrUnknownStyle = errors.New("unknown style")

// Style selects a candidate window layout.
type Style int

const (
	// Horizontal draws a preedit line over a single candidate line.
	Horizontal Style = iota
	// Vertical draws the preedit line followed by one line per candidate.
	Vertical
)

func (s Style) String() string {
	switch s {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle parses "horizontal" or "vertical", ignoring case.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return Horizontal, fmt.Errorf("%w: %q", ErrUnknownStyle, s)
}

// IndexStyles are the glyph sets for candidate numbers. Position i labels
// candidate i+1; the last position labels the tenth candidate and beyond.
// Most sets need a Nerd Font.
var IndexStyles = map[string][]string{
	"circle":     {"①", "②", "③", "④", "⑤", "⑥", "⑦", "⑧", "⑨", "⓪"},
	"circle_inv": {"󰲠", "󰲢", "󰲤", "󰲦", "󰲨", "󰲪", "󰲬", "󰲮", "󰲰", "0"},
	"square":     {"󰎦", "󰎩", "󰎬", "󰎮", "󰎰", "󰎵", "󰎸", "󰎻", "󰎾", "󰎣"},
	"square_inv": {"󰎤", "󰎧", "󰎪", "󰎭", "󰎱", "󰎳", "󰎶", "󰎹", "󰎼", "󰎡"},
	"layer":      {"󰎥", "󰎨", "󰎫", "󰎲", "󰎯", "󰎴", "󰎷", "󰎺", "󰎽", "󰎢"},
	"layer_inv":  {"󰼏", "󰼐", "󰼑", "󰼒", "󰼓", "󰼔", "󰼕", "󰼖", "󰼗", "󰼎"},
	"number":     {"󰬺", "󰬻", "󰬼", "󰬽", "󰬾", "󰬿", "󰭀", "󰭁", "󰭂", ""},
}

// IndexStyleNames returns the names of IndexStyles, sorted.
func IndexStyleNames() []string {
	names := make([]string, 0, len(IndexStyles))
	for name := range IndexStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupIndices returns a copy of a named index glyph set.
func LookupIndices(name string) ([]string, error) {
	set, ok := IndexStyles[name]
	if !ok {
		return nil, fmt.Errorf("%w: index glyphs %q", ErrUnknownStyle, name)
	}
	return append([]string(nil), set...), nil
}

// Glyphs are the decorations a renderer draws with.
type Glyphs struct {
	Indices []string

	// Left and Right mark that a previous or next page exists (horizontal only).
	Left  string
	Right string

	// LeftSep and RightSep bracket the highlighted candidate.
	LeftSep  string
	RightSep string

	// Cursor is spliced into the preedit at the cursor position.
	Cursor string
}

// DefaultGlyphs returns the circle index set with ASCII decorations.
func DefaultGlyphs() Glyphs {
	indices, _ := LookupIndices("circle")
	return Glyphs{
		Indices:  indices,
		Left:     "<|",
		Right:    "|>",
		LeftSep:  "[",
		RightSep: "]",
		Cursor:   "|",
	}
}

func (g Glyphs) index(i int) string {
	n := len(g.Indices)
	switch {
	case n == 0:
		return ""
	case i < n-1 && i < 9:
		return g.Indices[i]
	}
	return g.Indices[n-1]
}

// candidate formats "<index> <text>[ <comment>]".
func (g Glyphs) candidate(i int, c engine.Candidate) string {
	text := g.index(i) + " " + c.Text
	if c.Comment != "" {
		text += " " + c.Comment
	}
	return text
}

// preedit splices the cursor glyph into the preedit at a character offset,
// clamped to the preedit length.
func (g Glyphs) preedit(comp engine.Composition) string {
	runes := []rune(comp.PreeditText())
	pos := min(max(comp.CursorPos, 0), len(runes))
	return string(runes[:pos]) + g.Cursor + string(runes[pos:])
}

// Overlay is the rendered candidate window.
type Overlay struct {
	Lines []string

	// Col shifts the window anchor relative to the text cursor, in cells.
	// It is zero or negative.
	Col int
}

// Empty reports whether there is nothing to draw.
func (o Overlay) Empty() bool {
	return len(o.Lines) == 0
}

// Width is the display width of the widest line, in terminal cells.
func (o Overlay) Width() int {
	w := 0
	for _, line := range o.Lines {
		w = max(w, runewidth.StringWidth(line))
	}
	return w
}

// Renderer turns an engine context into an overlay. A nil context renders empty.
type Renderer interface {
	Render(ctx *engine.Context) Overlay
}

// New returns the renderer for style.
func New(style Style, g Glyphs) Renderer {
	if style == Vertical {
		return VerticalRenderer{Glyphs: g}
	}
	return HorizontalRenderer{Glyphs: g}
}

// Render draws ctx in style with DefaultGlyphs.
func Render(ctx *engine.Context, style Style) Overlay {
	return New(style, DefaultGlyphs()).Render(ctx)
}
