package engine

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"imebridge/internal/keytable"
)

// ErrInvalidDictionary is returned for word lists that fail validation.
var ErrInvalidDictionary = errors.New("invalid dictionary")

// DefaultPageSize is used when a dictionary does not set one.
const DefaultPageSize = 5

const selectKeys = "1234567890"

//go:embed assets/demo.yaml
var demoYAML []byte

// Word maps an input code to a candidate.
type Word struct {
	Code    string `yaml:"code"`
	Text    string `yaml:"text"`
	Comment string `yaml:"comment,omitempty"`
}

// Dictionary is a static word list offered as one schema.
type Dictionary struct {
	SchemaID string `yaml:"schema_id"`
	Name     string `yaml:"name"`
	PageSize int    `yaml:"page_size,omitempty"`
	Words    []Word `yaml:"words"`
}

// LoadDictionary decodes and validates a YAML word list.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	var d Dictionary
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDictionary, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDictionaryFile reads a YAML word list from path.
func LoadDictionaryFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return LoadDictionary(f)
}

// DemoDictionary returns the built-in pinyin sample.
func DemoDictionary() *Dictionary {
	d, err := LoadDictionary(bytes.NewReader(demoYAML))
	if err != nil {
		panic(fmt.Sprintf("engine: embedded dictionary: %v", err))
	}
	return d
}

// Validate checks identifiers, page size and that every code is lower-case ASCII letters.
func (d *Dictionary) Validate() error {
	if d.SchemaID == "" {
		return fmt.Errorf("%w: schema_id is required", ErrInvalidDictionary)
	}
	if d.PageSize < 0 || d.PageSize > len(selectKeys) {
		return fmt.Errorf("%w: page_size %d out of range 1-%d", ErrInvalidDictionary, d.PageSize, len(selectKeys))
	}
	if len(d.Words) == 0 {
		return fmt.Errorf("%w: %s has no words", ErrInvalidDictionary, d.SchemaID)
	}
	for i, w := range d.Words {
		if w.Text == "" {
			return fmt.Errorf("%w: word %d has no text", ErrInvalidDictionary, i)
		}
		if w.Code == "" {
			return fmt.Errorf("%w: word %d (%s) has no code", ErrInvalidDictionary, i, w.Text)
		}
		for _, r := range w.Code {
			if r < 'a' || r > 'z' {
				return fmt.Errorf("%w: word %d code %q must be lower-case letters", ErrInvalidDictionary, i, w.Code)
			}
		}
	}
	return nil
}

// Keys the dictionary session acts on.
var (
	codeSpace     = mustCode("space")
	codeReturn    = mustCode("Return")
	codeEscape    = mustCode("Escape")
	codeBackSpace = mustCode("BackSpace")
	codePageUp    = mustCode("Page_Up")
	codePageDown  = mustCode("Page_Down")
	codeUp        = mustCode("Up")
	codeDown      = mustCode("Down")
)

func mustCode(name string) keytable.Code {
	code, err := keytable.Default().CodeFor(name)
	if err != nil {
		panic(err)
	}
	return code
}

// Dict is a reference Session over static word lists. It composes lower-case
// letters, pages through matching words and commits the selected one.
// There is no segmentation: the whole input is one code.
type Dict struct {
	mu sync.Mutex

	schemas  []*Dictionary
	current  *Dictionary
	pageSize int

	input     []rune
	matches   []Word
	highlight int
	pending   *Commit
}

var _ Session = (*Dict)(nil)

// NewDict creates a session over one or more dictionaries; the first is selected.
func NewDict(dicts ...*Dictionary) (*Dict, error) {
	if len(dicts) == 0 {
		return nil, fmt.Errorf("%w: no dictionaries", ErrInvalidDictionary)
	}
	seen := make(map[string]bool, len(dicts))
	for _, d := range dicts {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.SchemaID] {
			return nil, fmt.Errorf("%w: duplicate schema %q", ErrInvalidDictionary, d.SchemaID)
		}
		seen[d.SchemaID] = true
	}
	s := &Dict{schemas: dicts}
	s.use(dicts[0])
	return s, nil
}

// SetPageSize overrides the dictionary page size. Zero restores it.
func (s *Dict) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > len(selectKeys) {
		n = 0
	}
	s.pageSize = n
	s.highlight = 0
}

func (s *Dict) use(d *Dictionary) {
	s.current = d
	s.clear()
}

func (s *Dict) size() int {
	switch {
	case s.pageSize > 0:
		return s.pageSize
	case s.current.PageSize > 0:
		return s.current.PageSize
	}
	return DefaultPageSize
}

// ProcessKey implements Session.
func (s *Dict) ProcessKey(code keytable.Code, mask keytable.Mask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mask != keytable.Null {
		return false
	}
	if code >= 'a' && code <= 'z' {
		s.input = append(s.input, rune(code))
		s.refresh()
		return true
	}
	if len(s.input) == 0 {
		return false
	}

	switch code {
	case codeSpace:
		s.selectCandidate(s.highlight)
	case codeReturn:
		s.commit(string(s.input))
	case codeEscape:
		s.clear()
	case codeBackSpace:
		s.input = s.input[:len(s.input)-1]
		s.refresh()
	case codePageUp, '-':
		s.turnPage(-1)
	case codePageDown, '=':
		s.turnPage(1)
	case codeUp:
		s.move(-1)
	case codeDown:
		s.move(1)
	default:
		if code >= '0' && code <= '9' {
			i := (int(code-'0') + 9) % 10
			if i < s.size() {
				s.selectCandidate(s.page()*s.size() + i)
			}
			return true
		}
		return false
	}
	return true
}

func (s *Dict) refresh() {
	s.highlight = 0
	s.matches = s.matches[:0]
	if len(s.input) == 0 {
		return
	}
	code := string(s.input)
	for _, w := range s.current.Words {
		if w.Code == code {
			s.matches = append(s.matches, w)
		}
	}
	for _, w := range s.current.Words {
		if len(w.Code) > len(code) && w.Code[:len(code)] == code {
			s.matches = append(s.matches, w)
		}
	}
}

func (s *Dict) page() int {
	return s.highlight / s.size()
}

func (s *Dict) turnPage(delta int) {
	next := (s.page() + delta) * s.size()
	if next < 0 || next >= len(s.matches) {
		return
	}
	s.highlight = next
}

func (s *Dict) move(delta int) {
	next := s.highlight + delta
	if next < 0 || next >= len(s.matches) {
		return
	}
	s.highlight = next
}

func (s *Dict) selectCandidate(i int) {
	switch {
	case len(s.matches) == 0:
		s.commit(string(s.input))
	case i < len(s.matches):
		s.commit(s.matches[i].Text)
	}
}

func (s *Dict) commit(text string) {
	if s.pending == nil {
		s.pending = &Commit{}
	}
	s.pending.Text += text
	s.clear()
}

func (s *Dict) clear() {
	s.input = s.input[:0]
	s.matches = s.matches[:0]
	s.highlight = 0
}

// Context implements Session.
func (s *Dict) Context() *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.input) == 0 {
		return nil
	}
	preedit := string(s.input)
	size := s.size()
	start := s.page() * size
	end := min(start+size, len(s.matches))

	cands := make([]Candidate, 0, end-start)
	for _, w := range s.matches[start:end] {
		cands = append(cands, Candidate{Text: w.Text, Comment: w.Comment})
	}
	return &Context{
		Composition: Composition{
			Length:    len(preedit),
			CursorPos: utf8.RuneCountInString(preedit),
			SelStart:  0,
			SelEnd:    len(preedit),
			Preedit:   &preedit,
		},
		Menu: Menu{
			PageSize:                  size,
			PageNo:                    s.page(),
			IsLastPage:                end >= len(s.matches),
			HighlightedCandidateIndex: s.highlight - start,
			NumCandidates:             len(cands),
			SelectKeys:                selectKeys[:size],
			Candidates:                cands,
		},
	}
}

// Commit implements Session.
func (s *Dict) Commit() *Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.pending
	s.pending = nil
	return c
}

// CommitComposition commits the highlighted candidate, or the raw input when nothing matches.
func (s *Dict) CommitComposition() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.input) == 0 {
		return false
	}
	s.selectCandidate(s.highlight)
	return true
}

// ClearComposition implements Session.
func (s *Dict) ClearComposition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// CurrentSchema implements Session.
func (s *Dict) CurrentSchema() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.SchemaID
}

// SchemaList implements Session.
func (s *Dict) SchemaList() []SchemaListItem {
	items := make([]SchemaListItem, 0, len(s.schemas))
	for _, d := range s.schemas {
		items = append(items, SchemaListItem{SchemaID: d.SchemaID, Name: d.Name})
	}
	return items
}

// SelectSchema switches dictionaries and drops the composition.
func (s *Dict) SelectSchema(schemaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.schemas {
		if d.SchemaID == schemaID {
			s.use(d)
			return true
		}
	}
	return false
}
