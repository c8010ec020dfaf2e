package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imebridge/internal/keytable"
)

const testDict = `
schema_id: test
name: Test
page_size: 2
words:
  - {code: ni, text: 你}
  - {code: ni, text: 尼}
  - {code: ni, text: 泥}
  - {code: nihao, text: 你好, comment: hello}
  - {code: hao, text: 好}
`

func newTestDict(t *testing.T) *Dict {
	t.Helper()
	d, err := LoadDictionary(strings.NewReader(testDict))
	require.NoError(t, err)
	s, err := NewDict(d)
	require.NoError(t, err)
	return s
}

func typeString(t *testing.T, s Session, text string) {
	t.Helper()
	for _, r := range text {
		require.True(t, s.ProcessKey(keytable.Code(r), keytable.Null), "key %q", r)
	}
}

func TestDictComposesAndPages(t *testing.T) {
	s := newTestDict(t)
	assert.Nil(t, s.Context())

	typeString(t, s, "ni")
	ctx := s.Context()
	require.NotNil(t, ctx)
	assert.Equal(t, "ni", ctx.Composition.PreeditText())
	assert.Equal(t, 2, ctx.Composition.CursorPos)
	assert.Equal(t, 0, ctx.Menu.PageNo)
	assert.False(t, ctx.Menu.IsLastPage)
	assert.Equal(t, 2, ctx.Menu.NumCandidates)
	assert.Equal(t, "12", ctx.Menu.SelectKeys)
	assert.Equal(t, []Candidate{{Text: "你"}, {Text: "尼"}}, ctx.Menu.Candidates)

	require.True(t, s.ProcessKey(codePageDown, keytable.Null))
	ctx = s.Context()
	assert.Equal(t, 1, ctx.Menu.PageNo)
	assert.True(t, ctx.Menu.IsLastPage)
	assert.Equal(t, []Candidate{{Text: "泥"}, {Text: "你好", Comment: "hello"}}, ctx.Menu.Candidates)

	require.True(t, s.ProcessKey(codeDown, keytable.Null))
	assert.Equal(t, 1, s.Context().Menu.HighlightedCandidateIndex)

	require.True(t, s.ProcessKey('-', keytable.Null))
	ctx = s.Context()
	assert.Equal(t, 0, ctx.Menu.PageNo)
	assert.Equal(t, 0, ctx.Menu.HighlightedCandidateIndex)
}

func TestDictSelection(t *testing.T) {
	s := newTestDict(t)

	typeString(t, s, "ni")
	require.True(t, s.ProcessKey('2', keytable.Null))
	assert.Nil(t, s.Context())
	assert.Equal(t, "尼", CommitText(s))
	assert.Nil(t, s.Commit())

	typeString(t, s, "hao")
	require.True(t, s.ProcessKey(codeSpace, keytable.Null))
	assert.Equal(t, "好", CommitText(s))

	typeString(t, s, "xyz")
	ctx := s.Context()
	require.NotNil(t, ctx)
	assert.Equal(t, 0, ctx.Menu.NumCandidates)
	assert.True(t, ctx.Menu.IsLastPage)
	assert.Equal(t, "xyz", CommitText(s))
}

func TestDictEditing(t *testing.T) {
	s := newTestDict(t)

	assert.False(t, s.ProcessKey(codeBackSpace, keytable.Null))
	assert.False(t, s.ProcessKey(codeSpace, keytable.Null))
	assert.False(t, s.ProcessKey('a', keytable.Default().MustModifier("Control")))

	typeString(t, s, "nih")
	require.True(t, s.ProcessKey(codeBackSpace, keytable.Null))
	assert.Equal(t, "ni", s.Context().Composition.PreeditText())

	require.True(t, s.ProcessKey(codeEscape, keytable.Null))
	assert.Nil(t, s.Context())
	assert.Equal(t, "", CommitText(s))

	typeString(t, s, "ni")
	require.True(t, s.ProcessKey(codeReturn, keytable.Null))
	assert.Equal(t, "ni", CommitText(s))

	typeString(t, s, "ni")
	assert.False(t, s.ProcessKey(mustCode("F1"), keytable.Null))
	s.ClearComposition()
	assert.Nil(t, s.Context())
}

func TestDictSchemas(t *testing.T) {
	other := &Dictionary{SchemaID: "other", Name: "Other", Words: []Word{{Code: "a", Text: "啊"}}}
	test, err := LoadDictionary(strings.NewReader(testDict))
	require.NoError(t, err)

	s, err := NewDict(test, other)
	require.NoError(t, err)
	assert.Equal(t, "test", s.CurrentSchema())
	assert.Equal(t, []SchemaListItem{{"test", "Test"}, {"other", "Other"}}, s.SchemaList())

	typeString(t, s, "ni")
	require.True(t, s.SelectSchema("other"))
	assert.Nil(t, s.Context())
	assert.Equal(t, "other", s.CurrentSchema())
	assert.False(t, s.SelectSchema("missing"))

	typeString(t, s, "a")
	ctx := s.Context()
	assert.Equal(t, DefaultPageSize, ctx.Menu.PageSize)
	s.SetPageSize(1)
	assert.Equal(t, 1, s.Context().Menu.PageSize)

	_, err = NewDict(test, test)
	assert.ErrorIs(t, err, ErrInvalidDictionary)
	_, err = NewDict()
	assert.ErrorIs(t, err, ErrInvalidDictionary)
}

func TestLoadDictionaryRejects(t *testing.T) {
	tests := map[string]string{
		"no schema":     "words: [{code: a, text: x}]",
		"no words":      "schema_id: x",
		"bad code":      "schema_id: x\nwords: [{code: A1, text: x}]",
		"no text":       "schema_id: x\nwords: [{code: a}]",
		"unknown field": "schema_id: x\nfoo: 1\nwords: [{code: a, text: x}]",
		"page size":     "schema_id: x\npage_size: 11\nwords: [{code: a, text: x}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDictionary(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidDictionary)
		})
	}
}

func TestDemoDictionary(t *testing.T) {
	d := DemoDictionary()
	assert.Equal(t, "demo", d.SchemaID)
	assert.NotEmpty(t, d.Words)

	path := filepath.Join(t.TempDir(), "words.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDict), 0o600))
	loaded, err := LoadDictionaryFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Words, 5)
}

func TestNopAndReadContext(t *testing.T) {
	var s Session = Nop{}
	assert.False(t, s.ProcessKey('a', keytable.Null))
	assert.Nil(t, s.Context())
	assert.Equal(t, "", CommitText(s))

	ctx, err := ReadContext(strings.NewReader(`{
		"composition": {"length": 2, "cursor_pos": 2, "sel_start": 0, "sel_end": 2, "preedit": "ni"},
		"menu": {"page_size": 5, "page_no": 0, "is_last_page": true, "highlighted_candidate_index": 0,
		         "num_candidates": 1, "candidates": [{"text": "你"}]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "ni", ctx.Composition.PreeditText())
	assert.Equal(t, "你", ctx.Menu.Candidates[0].Text)

	_, err = ReadContext(strings.NewReader(`{"bogus": 1}`))
	assert.Error(t, err)
}
