package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnoitra/terminal/internal/config"
)

func TestNewInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.SQLitePath = ""

	a, err := New(context.Background(), cfg, BuildInfo{Version: "1.2.3"}, nil)
	require.NoError(t, err)

	_, ok := a.Registry.Get("help")
	assert.True(t, ok)
	assert.Equal(t, "help", a.Profile.Aliases["h"])

	s, err := a.Sessions.Open(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Sessions.Stats().Active)
	_ = s

	require.NoError(t, a.Close(context.Background()))
	assert.Zero(t, a.Sessions.Stats().Active)
}

func TestNewWithSQLiteAndProfile(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte("aliases:\n  ll: help\nenv:\n  ps1: \"$ \"\n"), 0o600))

	cfg := config.Default()
	cfg.Storage.SQLitePath = filepath.Join(dir, "terminal.db")
	cfg.Shell.ProfilePath = profilePath

	a, err := New(context.Background(), cfg, BuildInfo{}, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, map[string]string{"ll": "help"}, a.Profile.Aliases)
	assert.Equal(t, "$ ", a.Profile.Env["PS1"])
	assert.FileExists(t, cfg.Storage.SQLitePath)
}

func TestNewRejectsBadProfile(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte("aliases: [not, a, map]\n"), 0o600))

	cfg := config.Default()
	cfg.Storage.SQLitePath = ""
	cfg.Shell.ProfilePath = profilePath

	_, err := New(context.Background(), cfg, BuildInfo{}, nil)
	assert.Error(t, err)
}
