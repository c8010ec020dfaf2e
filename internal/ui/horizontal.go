package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"imebridge/internal/engine"
)

// HorizontalRenderer lays candidates out on one line under the preedit:
//
//	ni|
//	[① 你]② 尼 |>
//
// The separator before a candidate opens the highlight, the one after closes it.
type HorizontalRenderer struct {
	Glyphs Glyphs
}

// Render implements Renderer.
func (r HorizontalRenderer) Render(ctx *engine.Context) Overlay {
	if ctx == nil {
		return Overlay{}
	}
	g := r.Glyphs
	menu := ctx.Menu
	preedit := g.preedit(ctx.Composition)

	var line strings.Builder
	for i, c := range menu.Candidates {
		switch i {
		case menu.HighlightedCandidateIndex:
			line.WriteString(g.LeftSep)
		case menu.HighlightedCandidateIndex + 1:
			line.WriteString(g.RightSep)
		default:
			line.WriteByte(' ')
		}
		line.WriteString(g.candidate(i, c))
	}
	if menu.HighlightedCandidateIndex+1 == menu.NumCandidates {
		line.WriteString(g.RightSep)
	} else {
		line.WriteByte(' ')
	}

	candidates := line.String()
	col := 0
	if menu.PageNo != 0 {
		w := runewidth.StringWidth(g.Left)
		candidates = g.Left + candidates
		preedit = strings.Repeat(" ", w) + preedit
		col -= w
	}
	if !menu.IsLastPage && menu.NumCandidates > 0 {
		candidates += g.Right
	}
	return Overlay{Lines: []string{preedit, candidates}, Col: col}
}
