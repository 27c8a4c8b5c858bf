package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matches.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	t.Cleanup(func() { s.Close() })
	return s, path
}

func sampleMatch(id string) MatchRecord {
	return MatchRecord{
		MatchID:       id,
		Label:         "wise-badger",
		InitialFEN:    startFEN,
		WhiteName:     "stockfish",
		WhiteProtocol: "uci",
		WhitePath:     "/usr/games/stockfish",
		BlackName:     "crafty",
		BlackProtocol: "cecp",
		BlackPath:     "/usr/games/crafty",
		MoveTimeMs:    1000,
		StartTimeUTC:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestMatchLifecycle(t *testing.T) {
	s, _ := openStore(t)

	require.NoError(t, s.RecordNewMatch(sampleMatch("m-1")))
	require.NoError(t, s.RecordMove(MoveRecord{
		MatchID: "m-1", Ply: 1, MoveUCI: "e2e4", MoveSAN: "e4",
		FENAfterMove: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		PlayerColor:  "w", Source: "engine", ElapsedMs: 812, MoveTimeUTC: time.Now().UTC(),
	}))
	require.NoError(t, s.RecordMove(MoveRecord{
		MatchID: "m-1", Ply: 2, MoveUCI: "g8f6", MoveSAN: "Nf6",
		FENAfterMove: "rnbqkb1r/pppppppp/5n2/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 1 2",
		PlayerColor:  "b", Source: "fallback", Reason: "engine returned no move", MoveTimeUTC: time.Now().UTC(),
	}))
	require.NoError(t, s.RecordResult(ResultRecord{
		MatchID: "m-1", Verdict: "aborted", Score: "*", MoveCount: 2, Substitutions: 1,
		FinalFEN: "rnbqkb1r/pppppppp/5n2/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 1 2", EndTimeUTC: time.Now().UTC(),
	}))
	require.NoError(t, s.Flush(time.Second))
	assert.True(t, s.IsHealthy())

	matches, err := s.QueryMatches("m-1", "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "wise-badger", m.Label)
	assert.Equal(t, "cecp", m.BlackProtocol)
	assert.Equal(t, "aborted", m.Verdict)
	assert.Equal(t, 2, m.MoveCount)
	assert.Equal(t, 1, m.Substitutions)
	assert.False(t, m.EndTimeUTC.IsZero())

	moves, err := s.QueryMoves("m-1")
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "e4", moves[0].MoveSAN)
	assert.Equal(t, int64(812), moves[0].ElapsedMs)
	assert.Equal(t, "fallback", moves[1].Source)
	assert.Equal(t, "engine returned no move", moves[1].Reason)
}

func TestQueryMatchesFilters(t *testing.T) {
	s, _ := openStore(t)

	a := sampleMatch("a")
	b := sampleMatch("b")
	b.WhiteName = "fruit"
	b.StartTimeUTC = a.StartTimeUTC.Add(time.Minute)
	require.NoError(t, s.RecordNewMatch(a))
	require.NoError(t, s.RecordNewMatch(b))
	require.NoError(t, s.Flush(time.Second))

	all, err := s.QueryMatches("*", "*")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].MatchID, "newest first")
	assert.True(t, all[1].EndTimeUTC.IsZero())
	assert.Equal(t, "ongoing", all[1].Verdict)

	fruit, err := s.QueryMatches("", "fruit")
	require.NoError(t, err)
	require.Len(t, fruit, 1)
	assert.Equal(t, "b", fruit[0].MatchID)

	crafty, err := s.QueryMatches("", "crafty")
	require.NoError(t, err)
	assert.Len(t, crafty, 2)
}

func TestFailedWriteDegradesStore(t *testing.T) {
	s, _ := openStore(t)

	// Unknown match violates the foreign key
	require.NoError(t, s.RecordMove(MoveRecord{
		MatchID: "ghost", Ply: 1, MoveUCI: "e2e4", MoveSAN: "e4", FENAfterMove: startFEN,
		PlayerColor: "w", Source: "engine", MoveTimeUTC: time.Now().UTC(),
	}))
	require.Eventually(t, func() bool { return !s.IsHealthy() }, 2*time.Second, 10*time.Millisecond)

	// Later writes are dropped silently
	require.NoError(t, s.RecordNewMatch(sampleMatch("late")))
	matches, err := s.QueryMatches("late", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCloseDrainsQueuedWrites(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.RecordNewMatch(sampleMatch("drained")))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.RecordNewMatch(sampleMatch("after")), errClosed)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	matches, err := reopened.QueryMatches("drained", "")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDeleteDB(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.RecordNewMatch(sampleMatch("x")))
	require.NoError(t, s.Flush(time.Second))

	require.NoError(t, s.DeleteDB())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
