package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictScore(t *testing.T) {
	tests := []struct {
		verdict Verdict
		score   string
		text    string
	}{
		{Ongoing(), "*", "ongoing"},
		{Verdict{Kind: VerdictCheckmate, Winner: ColorWhite}, "1-0", "checkmate, white wins"},
		{Verdict{Kind: VerdictCheckmate, Winner: ColorBlack}, "0-1", "checkmate, black wins"},
		{Verdict{Kind: VerdictStalemate}, "1/2-1/2", "stalemate"},
		{Verdict{Kind: VerdictInsufficientMaterial}, "1/2-1/2", "draw by insufficient material"},
		{Verdict{Kind: VerdictFiftyMove}, "1/2-1/2", "draw by fifty-move rule"},
		{Verdict{Kind: VerdictRepetition}, "1/2-1/2", "draw by threefold repetition"},
		{Verdict{Kind: VerdictAborted}, "*", "aborted"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.score, tt.verdict.Score())
			assert.Equal(t, tt.text, tt.verdict.String())
			assert.Equal(t, tt.verdict.Kind != VerdictOngoing, tt.verdict.Terminal())
		})
	}
}

func TestColorText(t *testing.T) {
	assert.Equal(t, ColorBlack, OppositeColor(ColorWhite))
	assert.Equal(t, 1, ColorBlack.Index())

	data, err := json.Marshal(map[string]Color{"turn": ColorBlack})
	require.NoError(t, err)
	assert.JSONEq(t, `{"turn":"black"}`, string(data))

	var c Color
	require.NoError(t, c.UnmarshalText([]byte("w")))
	assert.Equal(t, ColorWhite, c)
	assert.Error(t, c.UnmarshalText([]byte("red")))
}

func TestParseProtocol(t *testing.T) {
	p, err := ParseProtocol("xboard")
	require.NoError(t, err)
	assert.Equal(t, ProtocolCECP, p)

	p, err = ParseProtocol("uci")
	require.NoError(t, err)
	assert.Equal(t, "uci", p.String())

	_, err = ParseProtocol("winboard2")
	assert.Error(t, err)

	player := Player{Name: "crafty", Color: ColorBlack}
	assert.Equal(t, "crafty (black)", player.String())
}
