package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_SearchPaths(t *testing.T) {
	empty := t.TempDir()
	dir := t.TempDir()
	writeConfig(t, dir, `
[[servers]]
addr = "https://a.example.com"
key = "secret"

[[servers]]
addr = ""

[[servers]]
addr = "b.example.com"
`)

	conf, err := Load(context.Background(), "", empty, dir)
	require.NoError(t, err)
	require.Len(t, conf.Servers, 3)
	assert.Equal(t, "https://a.example.com", conf.Servers[0].Addr)
	assert.Equal(t, "secret", conf.Servers[0].Key)

	valid := conf.ValidServers()
	require.Len(t, valid, 2)
	assert.Equal(t, "b.example.com", valid[1].Addr)
	assert.Empty(t, valid[1].Key)
}

func TestLoad_FirstPathWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeConfig(t, first, "[[servers]]\naddr = \"first\"\n")
	writeConfig(t, second, "[[servers]]\naddr = \"second\"\n")

	conf, err := Load(context.Background(), "", first, second)
	require.NoError(t, err)
	require.Len(t, conf.Servers, 1)
	assert.Equal(t, "first", conf.Servers[0].Addr)
}

func TestLoad_ExplicitFile(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "[[servers]]\naddr = \"explicit\"\n")

	conf, err := Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, conf.Servers, 1)
	assert.Equal(t, "explicit", conf.Servers[0].Addr)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoad_NoConfigFound(t *testing.T) {
	conf, err := Load(context.Background(), "", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, conf.Servers)
	assert.Empty(t, conf.ValidServers())
}

func TestLoad_DefaultServer(t *testing.T) {
	old := defaultServer
	defaultServer = "default.example.com"
	t.Cleanup(func() { defaultServer = old })

	conf, err := Load(context.Background(), "", t.TempDir())
	require.NoError(t, err)
	require.Len(t, conf.Servers, 1)
	assert.Equal(t, "default.example.com", conf.Servers[0].Addr)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[[servers]\naddr = ")

	_, err := Load(context.Background(), "", dir)
	require.Error(t, err)
}

func TestLoadConfig_SetsGlobal(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "[[servers]]\naddr = \"global\"\n")
	old := C
	t.Cleanup(func() { C = old })

	require.NoError(t, LoadConfig(context.Background(), p))
	require.NotNil(t, C)
	assert.Equal(t, "global", C.Servers[0].Addr)
}
