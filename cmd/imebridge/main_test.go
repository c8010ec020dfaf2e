package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imebridge/internal/config"
)

func TestCommand(t *testing.T) {
	m, err := config.DefaultConfig().NewIME(nil)
	require.NoError(t, err)

	var out bytes.Buffer
	assert.False(t, command(&out, m, []string{"schemas"}))
	assert.Equal(t, "* demo\tPinyin demo\r\n", out.String())

	out.Reset()
	assert.False(t, command(&out, m, []string{"schema", "nope"}))
	assert.Equal(t, "unknown schema: nope\r\n", out.String())

	out.Reset()
	assert.False(t, command(&out, m, []string{"schema", "demo"}))
	assert.Equal(t, "schema: demo\r\n", out.String())

	out.Reset()
	assert.False(t, command(&out, m, []string{"frobnicate"}))
	assert.Contains(t, out.String(), "unknown command")

	assert.False(t, command(&out, m, nil))
	assert.True(t, command(&out, m, []string{"quit"}))
	assert.True(t, command(&out, m, []string{"q"}))
}
