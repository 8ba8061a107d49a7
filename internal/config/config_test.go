package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/cmfy/client"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	c, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, Config{Hostname: "localhost", Port: 8188}, c)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hostname: filehost\nport: 9000\nclient_id: 6f1c2a52-6f07-4d7f-8a0d-2f3b8b0f6a11\n"), 0o644))

	file, err := LoadFile(path)
	require.NoError(t, err)
	fromEnv, err := FromEnv(env(map[string]string{EnvPort: "9100"}))
	require.NoError(t, err)
	flags := Config{Hostname: "flaghost"}

	c, err := Resolve(file, fromEnv, flags)
	require.NoError(t, err)
	assert.Equal(t, "flaghost", c.Hostname)
	assert.Equal(t, 9100, c.Port)
	assert.Equal(t, "6f1c2a52-6f07-4d7f-8a0d-2f3b8b0f6a11", c.ClientID)
}

func TestMissingFileIsEmpty(t *testing.T) {
	c, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestMalformedFileIsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o644))
	_, err := LoadFile(path)
	assert.True(t, client.IsParse(err))
}

func TestBadEnvPortIsInputError(t *testing.T) {
	_, err := FromEnv(env(map[string]string{EnvPort: "eighty"}))
	assert.True(t, client.IsInput(err))
}

func TestValidation(t *testing.T) {
	_, err := Resolve(Config{Port: 70000})
	assert.True(t, client.IsInput(err))

	_, err = Resolve(Config{ClientID: "not-a-uuid"})
	assert.True(t, client.IsInput(err))

	_, err = Resolve(Config{Hostname: "127.0.0.1", Port: 8080})
	assert.NoError(t, err)
}
