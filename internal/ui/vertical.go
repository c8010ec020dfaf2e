package ui

import "imebridge/internal/engine"

// VerticalRenderer stacks one candidate per line under the preedit:
//
//	ni|
//	[① 你]
//	 ② 尼
//
// The window anchors directly under the cursor, so Col is always zero.
type VerticalRenderer struct {
	Glyphs Glyphs
}

// Render implements Renderer.
func (r VerticalRenderer) Render(ctx *engine.Context) Overlay {
	if ctx == nil {
		return Overlay{}
	}
	g := r.Glyphs
	lines := make([]string, 0, len(ctx.Menu.Candidates)+1)
	lines = append(lines, g.preedit(ctx.Composition))
	for i, c := range ctx.Menu.Candidates {
		text := g.candidate(i, c)
		if i == ctx.Menu.HighlightedCandidateIndex {
			text = g.LeftSep + text + g.RightSep
		} else {
			text = " " + text + " "
		}
		lines = append(lines, text)
	}
	return Overlay{Lines: lines}
}
