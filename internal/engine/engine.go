// Package engine defines the contract with an external input-method engine.
//
// The engine owns segmentation and candidate generation. Hosts feed it key
// events and read back read-only snapshots of the composition and candidate menu.
package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"imebridge/internal/keytable"
)

// Composition is the in-progress, not yet committed input.
type Composition struct {
	// Length is the byte length of the composed input.
	Length int `json:"length"`

	// CursorPos is the cursor offset inside Preedit, in characters.
	CursorPos int `json:"cursor_pos"`

	SelStart int `json:"sel_start"`
	SelEnd   int `json:"sel_end"`

	// Preedit is the visible composition text. Nil when the engine shows none.
	Preedit *string `json:"preedit,omitempty"`
}

// PreeditText returns the preedit or the empty string.
func (c Composition) PreeditText() string {
	if c.Preedit == nil {
		return ""
	}
	return *c.Preedit
}

// Candidate is one entry of the candidate menu.
type Candidate struct {
	Text    string `json:"text"`
	Comment string `json:"comment,omitempty"`
}

// Menu is the current page of candidates.
type Menu struct {
	PageSize   int  `json:"page_size"`
	PageNo     int  `json:"page_no"`
	IsLastPage bool `json:"is_last_page"`

	// HighlightedCandidateIndex is relative to the current page.
	HighlightedCandidateIndex int `json:"highlighted_candidate_index"`

	// NumCandidates is the number of candidates on the current page.
	NumCandidates int `json:"num_candidates"`

	SelectKeys string      `json:"select_keys,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// Context is a snapshot of the engine state after a key.
type Context struct {
	Composition Composition `json:"composition"`
	Menu        Menu        `json:"menu"`
}

// Commit holds text the engine finalized.
type Commit struct {
	Text string `json:"text"`
}

// SchemaListItem names an installed schema.
type SchemaListItem struct {
	SchemaID string `json:"schema_id"`
	Name     string `json:"name"`
}

// Session is one engine input session.
// Implementations are not required to be safe for concurrent use.
type Session interface {
	// ProcessKey feeds a key event and reports whether the engine consumed it.
	ProcessKey(code keytable.Code, mask keytable.Mask) bool

	// Context returns the current composition snapshot, or nil when nothing is composing.
	Context() *Context

	// Commit returns and clears the pending commit, or nil.
	Commit() *Commit

	// CommitComposition finalizes the current composition into the pending commit.
	CommitComposition() bool

	// ClearComposition discards the composition.
	ClearComposition()

	CurrentSchema() string
	SchemaList() []SchemaListItem
	SelectSchema(schemaID string) bool
}

// CommitText finalizes any composition and drains the pending commit.
// Text committed by an earlier key, such as a candidate selection, is returned too.
func CommitText(s Session) string {
	s.CommitComposition()
	if c := s.Commit(); c != nil {
		return c.Text
	}
	return ""
}

// ReadContext decodes a JSON context document.
func ReadContext(r io.Reader) (*Context, error) {
	var ctx Context
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ctx); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return &ctx, nil
}

// ReadContextFile decodes a JSON context document from a file.
func ReadContextFile(path string) (*Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open context: %w", err)
	}
	defer f.Close()
	return ReadContext(f)
}

// Nop is a session that consumes nothing. Hosts use it when no engine is installed.
type Nop struct{}

var _ Session = Nop{}

func (Nop) ProcessKey(keytable.Code, keytable.Mask) bool { return false }
func (Nop) Context() *Context                            { return nil }
func (Nop) Commit() *Commit                              { return nil }
func (Nop) CommitComposition() bool                      { return false }
func (Nop) ClearComposition()                            {}
func (Nop) CurrentSchema() string                        { return "" }
func (Nop) SchemaList() []SchemaListItem                 { return nil }
func (Nop) SelectSchema(string) bool                     { return false }
