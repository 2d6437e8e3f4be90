package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/al002/zbencode/pkg/bencode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
decode:
  max_depth: 64
  allow_unsorted_keys: true
log:
  level: debug
  format: json
`)

	r := NewRegistry()
	cfg, err := r.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Decode.MaxDepth)
	assert.True(t, cfg.Decode.AllowUnsortedKeys)
	assert.Equal(t, int64(bencode.DefaultDecodeMaxStrLen), cfg.Decode.MaxStringLength)
	assert.Equal(t, int64(bencode.DefaultDecodeMaxStrLen), cfg.Encode.MaxStringLength)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, r.ConfigFile())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ZBENCODE_DECODE_MAX_DEPTH", "8")

	cfg, err := NewRegistry().LoadConfig(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Decode.MaxDepth)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewRegistry().LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, bencode.DefaultMaxDepth, cfg.Decode.MaxDepth)
	assert.False(t, cfg.Decode.AllowUnsortedKeys)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := NewRegistry().LoadConfig(writeConfig(t, "decode:\n  max_depth: 0\n"))
	assert.Error(t, err)

	_, err = NewRegistry().LoadConfig(writeConfig(t, "log:\n  level: loud\n"))
	assert.Error(t, err)

	_, err = NewRegistry().LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeConfigNewDecoder(t *testing.T) {
	c := DecodeConfig{MaxDepth: 1, MaxStringLength: 10, AllowUnsortedKeys: true}

	_, err := c.NewDecoder([]byte("llee")).Decode()
	assert.ErrorIs(t, err, bencode.ErrExcessiveNesting)

	v, err := c.NewDecoder([]byte("d1:bi1e1:ai2ee")).Decode()
	require.NoError(t, err)
	assert.True(t, bencode.Equal(bencode.Dict{"a": bencode.Integer(2), "b": bencode.Integer(1)}, v))
}
