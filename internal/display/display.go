// Package display renders a running match and turns user input into quit
// and acknowledge signals. Every view implements match.View.
package display

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chessmatch/internal/match"
)

var glyphs = map[byte]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

// signals carries the quit and ack channels shared by all views
type signals struct {
	quit     chan struct{}
	quitOnce sync.Once
	ack      chan struct{}
}

func newSignals() signals {
	return signals{
		quit: make(chan struct{}),
		ack:  make(chan struct{}, 1),
	}
}

func (s *signals) Quit() <-chan struct{} {
	return s.quit
}

func (s *signals) requestQuit() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *signals) acknowledge() {
	select {
	case s.ack <- struct{}{}:
	default:
	}
}

// waitAck returns when the user acknowledges, quits, or ctx ends
func (s *signals) waitAck(ctx context.Context) error {
	select {
	case <-s.ack:
		return nil
	case <-s.quit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// squareIndex maps "e4" to row/column with rank 8 at row 0
func squareIndex(sq string) (row, col int, ok bool) {
	if len(sq) != 2 || sq[0] < 'a' || sq[0] > 'h' || sq[1] < '1' || sq[1] > '8' {
		return 0, 0, false
	}
	return int('8' - sq[1]), int(sq[0] - 'a'), true
}

// highlights collects squares to emphasize: the last move's origin and
// target, and the king in check
type highlights struct {
	from, to, check string
}

func highlightsOf(s match.Snapshot) highlights {
	h := highlights{check: s.KingInCheck}
	if len(s.LastMove) >= 4 {
		h.from, h.to = s.LastMove[:2], s.LastMove[2:4]
	}
	return h
}

// moveRows pairs SAN moves as "1. e4 e5"
func moveRows(moves []string) []string {
	rows := make([]string, 0, (len(moves)+1)/2)
	for i := 0; i < len(moves); i += 2 {
		row := fmt.Sprintf("%d. %s", i/2+1, moves[i])
		if i+1 < len(moves) {
			row += " " + moves[i+1]
		}
		rows = append(rows, row)
	}
	return rows
}

func playersLine(s match.Snapshot) string {
	return fmt.Sprintf("%s (%s) vs %s (%s)",
		s.White.Name, s.White.Protocol, s.Black.Name, s.Black.Protocol)
}

func title(s match.Snapshot) string {
	parts := []string{"chessmatch"}
	if s.Label != "" {
		parts = append(parts, s.Label)
	}
	return strings.Join(parts, " - ")
}
