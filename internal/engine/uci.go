package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chessmatch/internal/core"

	"github.com/corentings/chess/v2"
)

// UCI speaks the Universal Chess Interface to a fresh process per move
type UCI struct {
	Label string
	Path  string
	Args  []string
	Grace time.Duration // zero means UCIGrace
}

func (u *UCI) Name() string {
	if u.Label != "" {
		return u.Label
	}
	return u.Path
}

func (u *UCI) RequestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	token, err := u.bestMove(ctx, pos.String(), budget)
	if err != nil {
		return nil, err
	}
	return decodeCoordinate(pos, token)
}

func (u *UCI) bestMove(ctx context.Context, fen string, budget time.Duration) (string, error) {
	h, err := Start(u.Path, u.Args...)
	if err != nil {
		return "", err
	}
	defer h.Close()

	err = h.Send(
		"uci",
		"isready",
		"position fen "+fen,
		fmt.Sprintf("go movetime %d", budget.Milliseconds()),
	)
	if err != nil {
		return "", err
	}

	grace := u.Grace
	if grace <= 0 {
		grace = UCIGrace
	}

	line, err := h.Await(ctx, time.Now().Add(budget+grace), func(fields []string) bool {
		return len(fields) > 0 && fields[0] == "bestmove"
	})
	if err != nil {
		return "", err
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", core.ErrProtocol, line)
	}
	return parts[1], nil
}
