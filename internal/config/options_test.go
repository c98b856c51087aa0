package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsMissingFile(t *testing.T) {
	opts, err := LoadOptions(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	contents := "prompt: \"lox> \"\ndisassemble: true\ntrace: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, OptionsFileName), []byte(contents), 0o644))

	opts, err := LoadOptions(dir)
	require.NoError(t, err)
	assert.Equal(t, "lox> ", opts.Prompt)
	assert.True(t, opts.Disassemble)
	assert.True(t, opts.Trace)
}

func TestLoadOptionsPartial(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, OptionsFileName), []byte("trace: true\n"), 0o644))

	opts, err := LoadOptions(dir)
	require.NoError(t, err)
	assert.True(t, opts.Trace)
	assert.False(t, opts.Disassemble)
	assert.Equal(t, DefaultOptions().Prompt, opts.Prompt, "unset prompt falls back to the default")
}

func TestLoadOptionsMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, OptionsFileName), []byte("trace: [unclosed"), 0o644))

	opts, err := LoadOptions(dir)
	assert.Error(t, err)
	assert.Equal(t, DefaultOptions(), opts, "malformed file falls back to defaults")
}
