package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chessmatch/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRequiresSubcommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, Run(nil, &out))
	assert.ErrorContains(t, Run([]string{"vacuum"}, &out), "unknown subcommand")
	assert.ErrorContains(t, Run([]string{"init"}, &out), "database path required")
	assert.ErrorContains(t, Run([]string{"moves", "-path", "x.db"}, &out), "match id required")
}

func TestDatabaseCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.db")
	var out bytes.Buffer

	require.NoError(t, Run([]string{"init", "-path", path}, &out))
	assert.Contains(t, out.String(), "Database initialized")

	out.Reset()
	require.NoError(t, Run([]string{"query", "-path", path}, &out))
	assert.Contains(t, out.String(), "No matches found")

	store, err := storage.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordNewMatch(storage.MatchRecord{
		MatchID: "0123456789abcdef", Label: "calm-lynx",
		InitialFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		WhiteName:  "stockfish", WhiteProtocol: "uci", WhitePath: "/usr/games/stockfish",
		BlackName: "crafty", BlackProtocol: "cecp", BlackPath: "/usr/games/crafty",
		MoveTimeMs: 1000, StartTimeUTC: time.Now().UTC(),
	}))
	require.NoError(t, store.RecordMove(storage.MoveRecord{
		MatchID: "0123456789abcdef", Ply: 1, MoveUCI: "e2e4", MoveSAN: "e4",
		FENAfterMove: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		PlayerColor:  "w", Source: "engine", ElapsedMs: 950, MoveTimeUTC: time.Now().UTC(),
	}))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, Run([]string{"query", "-path", path, "-engine", "crafty"}, &out))
	assert.Contains(t, out.String(), "01234567...")
	assert.Contains(t, out.String(), "calm-lynx")
	assert.Contains(t, out.String(), "Found 1 match(es)")

	out.Reset()
	require.NoError(t, Run([]string{"moves", "-path", path, "-matchId", "0123456789abcdef"}, &out))
	assert.Contains(t, out.String(), "e2e4")
	assert.Contains(t, out.String(), "950ms")

	out.Reset()
	require.NoError(t, Run([]string{"delete", "-path", path}, &out))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
