package keytable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableLoads(t *testing.T) {
	tbl := Default()
	require.NotNil(t, tbl)
	assert.Same(t, tbl, Default())
	assert.NotEmpty(t, tbl.Codes())
}

func TestCodeFor(t *testing.T) {
	tbl := Default()

	tests := []struct {
		name string
		want Code
	}{
		{"a", 'a'},
		{"A", 'A'},
		{"6", '6'},
		{"space", 0x20},
		{"Escape", 0xff1b},
		{"escape", 0xff1b},
		{"ESCAPE", 0xff1b},
		{"Page_Up", 0xff55},
		{"page_up", 0xff55},
		{"pageup", 0xff55},
		{"Return", 0xff0d},
		{"enter", 0xff0d},
		{"bs", 0xff08},
		{"BackSpace", 0xff08},
		{"F1", 0xffbe},
		{"f24", 0xffd5},
		{"exclam", '!'},
		{"bar", '|'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := tbl.CodeFor(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestCodeForUnknown(t *testing.T) {
	tbl := Default()

	for _, name := range []string{"", "nosuchkey", "é", "F99"} {
		_, err := tbl.CodeFor(name)
		assert.ErrorIs(t, err, ErrUnknownKeyName, name)
	}
}

func TestNameForIsTotal(t *testing.T) {
	tbl := Default()

	for _, code := range tbl.Codes() {
		name, ok := tbl.NameFor(code)
		require.True(t, ok, "code %#x has no name", code)

		back, err := tbl.CodeFor(name)
		require.NoError(t, err)
		assert.Equal(t, code, back, "name %q", name)
	}
}

func TestRuneCode(t *testing.T) {
	tbl := Default()

	code, ok := tbl.RuneCode('a')
	require.True(t, ok)
	assert.Equal(t, Code('a'), code)

	code, ok = tbl.RuneCode('é')
	require.True(t, ok)
	assert.Equal(t, Code(0xe9), code)

	code, ok = tbl.RuneCode('你')
	require.True(t, ok)
	assert.Equal(t, Code(0x01004f60), code)

	name, ok := tbl.NameFor(code)
	require.True(t, ok)
	assert.Equal(t, "你", name)

	_, ok = tbl.RuneCode('\x07')
	assert.False(t, ok)
}

func TestResolveAlias(t *testing.T) {
	tbl := Default()

	assert.Equal(t, "<c-space>", tbl.ResolveAlias("<nul>"))
	assert.Equal(t, "<c-space>", tbl.ResolveAlias("<C-@>"))
	assert.Equal(t, "<return>", tbl.ResolveAlias("<CR>"))
	assert.Equal(t, "<c-6>", tbl.ResolveAlias("<c-^>"))
	assert.Equal(t, " ", tbl.ResolveAlias("<Space>"))
	assert.Equal(t, "<c-x>", tbl.ResolveAlias("<c-x>"))
	assert.Equal(t, "tab", tbl.ResolveAlias("tab"))
}

func TestHostName(t *testing.T) {
	tbl := Default()

	assert.Equal(t, "a", tbl.HostName("a"))
	assert.Equal(t, "A", tbl.HostName("A"))
	assert.Equal(t, "enter", tbl.HostName("Return"))
	assert.Equal(t, "pageup", tbl.HostName("Page_Up"))
	assert.Equal(t, "backspace", tbl.HostName("BackSpace"))
	assert.Equal(t, "f5", tbl.HostName("F5"))
}

func TestMatchTemplate(t *testing.T) {
	tbl := Default()

	tmpl, ok := tbl.Template("Return")
	require.True(t, ok)
	assert.Equal(t, "\x1b[27;{};13~", tmpl)

	name, param, ok := tbl.MatchTemplate("\x1b[27;8;13~")
	require.True(t, ok)
	assert.Equal(t, "Return", name)
	assert.Equal(t, "8", param)

	_, _, ok = tbl.MatchTemplate("\x1b[1;5A")
	assert.False(t, ok)

	_, ok = tbl.Template("Escape")
	assert.False(t, ok)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing keys", `{"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{}}`},
		{"unknown property", `{"keys":{"a":97},"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{},"extra":1}`},
		{"duplicate code", `{"keys":{"a":97,"b":97},"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{}}`},
		{"case collision", `{"keys":{"Tab":1,"TAB":2},"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{}}`},
		{"unknown ansi modifier", `{"keys":{"a":97},"modifiers":["Shift"],"ansi_modifiers":["Alt"],"prefixes":{}}`},
		{"unknown prefix target", `{"keys":{"a":97},"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{"c":"Control"}}`},
		{"template without placeholder", `{"keys":{"Return":1},"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{},"templates":{"Return":"x"}}`},
		{"spelling to unknown key", `{"keys":{"a":97},"modifiers":["Shift"],"ansi_modifiers":["Shift"],"prefixes":{},"names":{"esc":"Escape"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidTable)
		})
	}
}

func TestLoadMinimalDocument(t *testing.T) {
	doc := `{
		"keys": {"a": 97, "Return": 65293},
		"modifiers": ["Control", "Shift"],
		"ansi_modifiers": ["Shift", "Control"],
		"prefixes": {"c": "Control", "s": "Shift"},
		"templates": {"Return": "\u001b[27;{};13~"}
	}`

	tbl, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	control, err := tbl.Modifier("Control")
	require.NoError(t, err)
	assert.Equal(t, Mask(1), control)

	shift, err := tbl.Modifier("Shift")
	require.NoError(t, err)
	assert.Equal(t, Mask(2), shift)

	assert.Equal(t, 2, tbl.ANSIParam(shift))
	assert.Equal(t, 3, tbl.ANSIParam(control))
}
