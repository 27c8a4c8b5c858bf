package board

import (
	"testing"

	"chessmatch/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementIgnoresStateFields(t *testing.T) {
	a := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	b := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b - e3 7 12"
	assert.Equal(t, Placement(a), Placement(b))
	assert.Equal(t, "", Placement(""))
}

func TestParseFEN(t *testing.T) {
	b, err := ParseFEN(StartingFEN)
	require.NoError(t, err)

	assert.Equal(t, core.ColorWhite, b.Turn())
	assert.Equal(t, byte('K'), b.GetPieceAt("e1"))
	assert.Equal(t, byte('q'), b.GetPieceAt("d8"))
	assert.Equal(t, byte(0), b.GetPieceAt("e4"))
	assert.Equal(t, byte(0), b.GetPieceAt("z9"))
	assert.Equal(t, 0, b.Halfmove())
	assert.Equal(t, 1, b.Fullmove())
}

func TestParseFENRejectsMalformed(t *testing.T) {
	for _, fen := range []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - a 1",
	} {
		_, err := ParseFEN(fen)
		assert.Error(t, err, fen)
	}
}

func TestToASCII(t *testing.T) {
	b, err := ParseFEN(StartingFEN)
	require.NoError(t, err)

	ascii := b.ToASCII()
	assert.Contains(t, ascii, "8 r n b q k b n r  8")
	assert.Contains(t, ascii, "4 . . . . . . . .  4")
}
