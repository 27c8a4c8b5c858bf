// Package game tracks one chess game and owns the authoritative verdict on
// whether it is over. Draw conditions are enforced here independently of
// whatever the engines report.
package game

import (
	"fmt"
	"strconv"
	"strings"

	"chessmatch/internal/board"
	"chessmatch/internal/core"

	"github.com/corentings/chess/v2"
)

const (
	// FiftyMoveHalfmoves is the halfmove clock value that ends the game
	FiftyMoveHalfmoves = 100
	// RepetitionLimit is the occurrence count of a placement that ends the game
	RepetitionLimit = 3
)

type Tracker struct {
	game        *chess.Game
	initialFEN  string
	repetitions map[string]int
	maxRepeats  int
	clock       int
	history     []string
	lastMove    *chess.Move
	aborted     bool
}

// New starts tracking from fen, or from the standard position when fen is empty
func New(fen string) (*Tracker, error) {
	g, err := newGame(fen)
	if err != nil {
		return nil, err
	}
	current := g.Position().String()

	t := &Tracker{
		game:        g,
		initialFEN:  current,
		repetitions: make(map[string]int),
		clock:       halfmoveField(current),
	}
	t.repetitions[board.Placement(current)] = 1
	t.maxRepeats = 1

	return t, nil
}

// ValidateFEN reports whether fen can start a game: the rules library must
// accept it and each side must have exactly one king
func ValidateFEN(fen string) error {
	_, err := newGame(fen)
	return err
}

// newGame leaves the library's automatic fivefold and seventy-five move
// draws on. The tracker's threefold count is keyed on placement alone, so
// it reaches 3 no later than the library reaches 5, and its clock hits 100
// before 150; the game is over before either automatic draw can fire.
func newGame(fen string) (*chess.Game, error) {
	if fen == "" {
		return chess.NewGame(), nil
	}

	fromFEN, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	g := chess.NewGame(fromFEN)

	b := g.Position().Board()
	var whiteKings, blackKings int
	for sq := chess.A1; sq <= chess.H8; sq++ {
		switch b.Piece(sq) {
		case chess.WhiteKing:
			whiteKings++
		case chess.BlackKing:
			blackKings++
		}
	}
	if whiteKings != 1 || blackKings != 1 {
		return nil, fmt.Errorf("invalid FEN: need one king per side, got %d white and %d black", whiteKings, blackKings)
	}
	return g, nil
}

func halfmoveField(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ApplyMove plays m if it is legal in the current position. It is rejected
// once the game is over.
func (t *Tracker) ApplyMove(m *chess.Move) error {
	if v := t.Verdict(); v.Terminal() {
		return fmt.Errorf("%w: %s", core.ErrGameOver, v)
	}

	legal, ok := t.find(m)
	if !ok {
		return fmt.Errorf("%w: %v", core.ErrIllegalMove, m)
	}

	pos := t.game.Position()
	san := chess.AlgebraicNotation{}.Encode(pos, legal)

	clock := t.clock + 1
	if pos.Board().Piece(legal.S1()).Type() == chess.Pawn ||
		legal.HasTag(chess.Capture) || legal.HasTag(chess.EnPassant) {
		clock = 0
	}

	if err := t.game.Move(legal, nil); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIllegalMove, err)
	}

	t.clock = clock

	key := board.Placement(t.game.Position().String())
	t.repetitions[key]++
	if n := t.repetitions[key]; n > t.maxRepeats {
		t.maxRepeats = n
	}

	t.history = append(t.history, san)
	t.lastMove = legal
	return nil
}

func (t *Tracker) find(m *chess.Move) (*chess.Move, bool) {
	if m == nil {
		return nil, false
	}
	moves := t.game.Position().ValidMoves()
	for i := range moves {
		if moves[i].S1() == m.S1() && moves[i].S2() == m.S2() && moves[i].Promo() == m.Promo() {
			return &moves[i], true
		}
	}
	return nil, false
}

// Verdict derives the game outcome. Checkmate and stalemate win over the
// draw rules, and the draw rules are checked in a fixed order so the
// reported reason is deterministic.
func (t *Tracker) Verdict() core.Verdict {
	switch t.game.Method() {
	case chess.Checkmate:
		winner := core.ColorWhite
		if t.game.Outcome() == chess.BlackWon {
			winner = core.ColorBlack
		}
		return core.Verdict{Kind: core.VerdictCheckmate, Winner: winner}
	case chess.Stalemate:
		return core.Verdict{Kind: core.VerdictStalemate}
	case chess.InsufficientMaterial:
		return core.Verdict{Kind: core.VerdictInsufficientMaterial}
	}

	if t.clock >= FiftyMoveHalfmoves {
		return core.Verdict{Kind: core.VerdictFiftyMove}
	}
	if t.maxRepeats >= RepetitionLimit {
		return core.Verdict{Kind: core.VerdictRepetition}
	}
	if t.aborted {
		return core.Verdict{Kind: core.VerdictAborted}
	}
	return core.Ongoing()
}

// Abort ends an ongoing game on external request. A finished game keeps its verdict.
func (t *Tracker) Abort() {
	if !t.Verdict().Terminal() {
		t.aborted = true
	}
}

func (t *Tracker) IsLegal(m *chess.Move) bool {
	_, ok := t.find(m)
	return ok
}

// LegalMoves returns a copy of the legal moves in the current position
func (t *Tracker) LegalMoves() []chess.Move {
	return append([]chess.Move(nil), t.game.Position().ValidMoves()...)
}

func (t *Tracker) Position() *chess.Position {
	return t.game.Position()
}

func (t *Tracker) FEN() string {
	return t.game.Position().String()
}

func (t *Tracker) InitialFEN() string {
	return t.initialFEN
}

func (t *Tracker) Turn() core.Color {
	return colorOf(t.game.Position().Turn())
}

// Moves returns the applied moves in algebraic notation
func (t *Tracker) Moves() []string {
	return append([]string(nil), t.history...)
}

// LastMove returns the most recently applied move, nil before the first
func (t *Tracker) LastMove() *chess.Move {
	return t.lastMove
}

func (t *Tracker) HalfmoveClock() int {
	return t.clock
}

// Repetitions returns how often a piece placement has occurred so far
func (t *Tracker) Repetitions(placement string) int {
	return t.repetitions[placement]
}

// InCheck reports whether the side to move was checked by the last move
func (t *Tracker) InCheck() bool {
	return t.lastMove != nil && t.lastMove.HasTag(chess.Check)
}

// KingSquare locates the king of color c
func (t *Tracker) KingSquare(c core.Color) (chess.Square, bool) {
	want := chess.WhiteKing
	if c == core.ColorBlack {
		want = chess.BlackKing
	}
	b := t.game.Position().Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if b.Piece(sq) == want {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

func colorOf(c chess.Color) core.Color {
	if c == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}
