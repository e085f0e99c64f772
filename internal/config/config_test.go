package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	orig := os.Stderr
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	os.Stderr = devnull
	t.Cleanup(func() {
		os.Stderr = orig
		devnull.Close()
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.PlayerFilter())
	assert.Equal(t, defaultIcon, cfg.Icon())
	assert.Equal(t, defaultClearedIcon, cfg.ClearedIcon())
	assert.Equal(t, "warn", cfg.LogLevel())
	assert.Equal(t, "", cfg.ConfigFile())
}

func TestLoad_PlayerFlag(t *testing.T) {
	cfg, err := Load([]string{"--player", "spotify"})
	require.NoError(t, err)
	assert.Equal(t, "spotify", cfg.PlayerFilter())

	cfg, err = Load([]string{"--player=vlc", "--log-level=debug"})
	require.NoError(t, err)
	assert.Equal(t, "vlc", cfg.PlayerFilter())
	assert.Equal(t, "debug", cfg.LogLevel())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MPRIS_STATUS_PLAYER", "mpv")
	t.Setenv("MPRIS_STATUS_CLEARED_ICON", "-")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "mpv", cfg.PlayerFilter())
	assert.Equal(t, "-", cfg.ClearedIcon())

	// An explicit flag wins over the environment
	cfg, err = Load([]string{"--player", "spotify"})
	require.NoError(t, err)
	assert.Equal(t, "spotify", cfg.PlayerFilter())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mpris-status.toml")
	require.NoError(t, os.WriteFile(path, []byte("player = \"spotify\"\nicon = \"♪\"\n"), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "spotify", cfg.PlayerFilter())
	assert.Equal(t, "♪", cfg.Icon())
	assert.Equal(t, path, cfg.ConfigFile())
}

func TestLoad_Errors(t *testing.T) {
	silenceStderr(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "Unknown Flag", args: []string{"--bogus"}},
		{name: "Missing Flag Value", args: []string{"--player"}},
		{name: "Positional Argument", args: []string{"spotify"}},
		{name: "Missing Config File", args: []string{"--config", "/nonexistent/mpris-status.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.args)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_Help(t *testing.T) {
	silenceStderr(t)

	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, ".config/mpris-status.toml"), expandHome("~/.config/mpris-status.toml"))
	assert.Equal(t, "/etc/mpris-status.toml", expandHome("/etc/mpris-status.toml"))
}
