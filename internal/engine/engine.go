// Package engine drives external chess engines over their stdin/stdout
// text protocols. Every move request spawns a fresh process that is
// terminated and reaped before the request returns.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chessmatch/internal/core"

	"github.com/corentings/chess/v2"
)

const (
	// UCIGrace is added to the search budget to form the UCI reply deadline
	UCIGrace = 1 * time.Second
	// CECPGrace is added to the search budget to form the CECP reply deadline
	CECPGrace = 3 * time.Second

	// DefaultUCIFlag is passed to a CECP binary to ask for UCI mode
	DefaultUCIFlag = "-u"
)

// Adapter requests one move for a position within a time budget. A nil
// move is always accompanied by an error explaining why there is none.
type Adapter interface {
	Name() string
	RequestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error)
}

// New builds the adapter for a player's protocol
func New(p *core.Player, uciFlag string) (Adapter, error) {
	switch p.Protocol {
	case core.ProtocolUCI:
		return &UCI{Label: p.Name, Path: p.Path}, nil
	case core.ProtocolCECP:
		return &CECP{Label: p.Name, Path: p.Path, UCIFlag: uciFlag}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol for %s: %v", p.Name, p.Protocol)
	}
}

// isCoordinateMove checks the [a-h][1-8][a-h][1-8][qrbn]? shape
func isCoordinateMove(move string) bool {
	if len(move) < 4 || len(move) > 5 {
		return false
	}

	if move[0] < 'a' || move[0] > 'h' ||
		move[1] < '1' || move[1] > '8' ||
		move[2] < 'a' || move[2] > 'h' ||
		move[3] < '1' || move[3] > '8' {
		return false
	}

	if len(move) == 5 {
		promotion := move[4]
		if promotion != 'q' && promotion != 'r' && promotion != 'b' && promotion != 'n' {
			return false
		}
	}

	return true
}

// decodeCoordinate parses a coordinate move token against pos. Legality is
// not checked here; the orchestrator owns that decision.
func decodeCoordinate(pos *chess.Position, token string) (*chess.Move, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if !isCoordinateMove(token) {
		return nil, fmt.Errorf("%w: %q is not a coordinate move", core.ErrProtocol, token)
	}
	m, err := chess.UCINotation{}.Decode(pos, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", core.ErrProtocol, token, err)
	}
	return m, nil
}

// resolveAlgebraic finds the legal move whose algebraic rendering matches
// token. Check and annotation suffixes are ignored on both sides.
func resolveAlgebraic(pos *chess.Position, token string) (*chess.Move, bool) {
	want := normalizeSAN(token)
	if want == "" {
		return nil, false
	}

	moves := pos.ValidMoves()
	for i := range moves {
		if normalizeSAN(chess.AlgebraicNotation{}.Encode(pos, &moves[i])) == want {
			return &moves[i], true
		}
	}
	return nil, false
}

func normalizeSAN(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")
	s = strings.ReplaceAll(s, "0-0-0", "O-O-O")
	s = strings.ReplaceAll(s, "0-0", "O-O")
	return s
}
