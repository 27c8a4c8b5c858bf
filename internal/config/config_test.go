package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chessmatch/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "stockfish", cfg.White.Name)
	assert.Equal(t, "uci", cfg.White.Protocol)
	assert.Equal(t, "crafty", cfg.Black.Name)
	assert.Equal(t, "cecp", cfg.Black.Protocol)
	assert.Equal(t, "-u", cfg.UCIFlag)
	assert.Equal(t, time.Second, cfg.MoveTime())
	assert.Equal(t, 500*time.Millisecond, cfg.MovePause)
	assert.Equal(t, 2*time.Second, cfg.RecoveryPause)
	assert.Equal(t, "plain", cfg.UI)
	assert.Empty(t, cfg.LogPath)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"-white", "fruit", "-white-protocol", "xboard",
		"-black", "gnuchess", "-black-protocol", "uci",
		"-movetime", "250", "-pause", "0s",
		"-fen", "4k3/8/8/8/8/8/8/4K2R w K - 0 1",
		"-ui", "tui", "-http", "localhost:8080", "-seed", "99",
		"-uci-flag", "",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "fruit", cfg.White.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.MoveTime())
	assert.Zero(t, cfg.MovePause)
	assert.Equal(t, "chessmatch.log", cfg.LogPath)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Empty(t, cfg.UCIFlag)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"movetime too small", []string{"-movetime", "50"}, "MoveTimeMs must be at least 100"},
		{"movetime too large", []string{"-movetime", "120000"}, "MoveTimeMs must be at most 60000"},
		{"unknown protocol", []string{"-white-protocol", "winboard2"}, "White.Protocol must be one of"},
		{"bad ui", []string{"-ui", "gtk"}, "UI must be one of"},
		{"bad theme", []string{"-theme", "pink"}, "Theme must be one of"},
		{"bad fen", []string{"-fen", "not-a-position"}, "FEN is not a valid FEN"},
		{"fen castling rights", []string{"-fen", "4k3/8/8/8/8/8/8/4K2R w XYZ - 0 1"}, "FEN is not a valid FEN"},
		{"fen en passant square", []string{"-fen", "4k3/8/8/8/8/8/8/4K2R w K z9 0 1"}, "FEN is not a valid FEN"},
		{"fen without kings", []string{"-fen", "8/8/8/8/8/8/8/8 w - - 0 1"}, "FEN is not a valid FEN"},
		{"fen with two white kings", []string{"-fen", "4k3/8/8/8/8/8/8/K3K3 w - - 0 1"}, "FEN is not a valid FEN"},
		{"bad http addr", []string{"-http", "localhost"}, "HTTPAddr must be host:port"},
		{"empty name", []string{"-black", ""}, "Black.Name is required"},
		{"uci flag shape", []string{"-uci-flag", "u"}, "UCIFlag failed startswith"},
		{"negative pause", []string{"-pause", "-1s"}, "MovePause must be at least"},
		{"stray argument", []string{"extra"}, "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"-bogus"}, io.Discard)
	assert.Error(t, err)
}

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755))
	return p
}

func withSearchDirs(t *testing.T, dirs ...string) {
	t.Helper()
	old := SearchDirs
	SearchDirs = dirs
	t.Cleanup(func() { SearchDirs = old })
}

func TestDiscoverExplicitPath(t *testing.T) {
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "myengine")

	got, err := Discover("myengine", bin)
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	plain := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))
	_, err = Discover("notes", plain)
	assert.ErrorIs(t, err, core.ErrEngineNotFound)

	_, err = Discover("ghost", filepath.Join(dir, "ghost"))
	assert.ErrorIs(t, err, core.ErrEngineNotFound)
}

func TestDiscoverSearchOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeExecutable(t, second, "stockfish")
	want := writeExecutable(t, first, "stockfish")
	withSearchDirs(t, first, second)
	t.Setenv("PATH", "")

	got, err := Discover("stockfish", "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscoverFallsBackToPath(t *testing.T) {
	withSearchDirs(t, t.TempDir())
	onPath := t.TempDir()
	want := writeExecutable(t, onPath, "crafty")
	t.Setenv("PATH", onPath)

	got, err := Discover("crafty", "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscoverMissing(t *testing.T) {
	withSearchDirs(t, t.TempDir())
	t.Setenv("PATH", t.TempDir())

	_, err := Discover("nonexistent-engine", "")
	require.ErrorIs(t, err, core.ErrEngineNotFound)
	assert.Contains(t, err.Error(), "nonexistent-engine")
}

func TestPlayers(t *testing.T) {
	dir := t.TempDir()
	withSearchDirs(t, dir)
	t.Setenv("PATH", "")
	writeExecutable(t, dir, "stockfish")
	writeExecutable(t, dir, "crafty")

	cfg, err := Parse(nil, io.Discard)
	require.NoError(t, err)

	white, black, err := cfg.Players()
	require.NoError(t, err)
	assert.Equal(t, core.ProtocolUCI, white.Protocol)
	assert.Equal(t, core.ColorWhite, white.Color)
	assert.Equal(t, filepath.Join(dir, "stockfish"), white.Path)
	assert.Equal(t, core.ProtocolCECP, black.Protocol)
	assert.Equal(t, core.ColorBlack, black.Color)

	cfg.Black.Name = "missing"
	_, _, err = cfg.Players()
	assert.ErrorIs(t, err, core.ErrEngineNotFound)
}
