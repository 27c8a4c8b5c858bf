package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"chessmatch/internal/core"

	"github.com/corentings/chess/v2"
)

// CECP speaks the xboard protocol. When the xboard reply cannot be turned
// into a move it retries the same binary once in UCI mode.
type CECP struct {
	Label   string
	Path    string
	Args    []string
	UCIFlag string        // empty disables the UCI retry
	Grace   time.Duration // zero means CECPGrace
}

func (c *CECP) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Path
}

func (c *CECP) RequestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	token, err := c.move(ctx, pos.String(), budget)
	if err == nil {
		if m, decodeErr := decodeCoordinate(pos, token); decodeErr == nil {
			return m, nil
		}
		if m, ok := resolveAlgebraic(pos, token); ok {
			return m, nil
		}
		err = fmt.Errorf("%w: %q matches no legal move", core.ErrProtocol, token)
	}

	if ctx.Err() != nil || c.UCIFlag == "" {
		return nil, err
	}

	log.Printf("%s: xboard attempt failed (%v), retrying with %s", c.Name(), err, c.UCIFlag)

	fallback := &UCI{
		Label: c.Label,
		Path:  c.Path,
		Args:  append(append([]string(nil), c.Args...), c.UCIFlag),
		Grace: UCIGrace,
	}
	m, uciErr := fallback.RequestMove(ctx, pos, budget)
	if uciErr != nil {
		return nil, fmt.Errorf("%w: xboard: %v; uci retry: %w", core.ErrNoMove, err, uciErr)
	}
	return m, nil
}

func (c *CECP) move(ctx context.Context, fen string, budget time.Duration) (string, error) {
	h, err := Start(c.Path, c.Args...)
	if err != nil {
		return "", err
	}
	defer h.Close()

	err = h.Send(
		"xboard",
		"protover 2",
		"setboard "+fen,
		"st "+seconds(budget),
		"go",
	)
	if err != nil {
		return "", err
	}

	grace := c.Grace
	if grace <= 0 {
		grace = CECPGrace
	}

	line, err := h.Await(ctx, time.Now().Add(budget+grace), func(fields []string) bool {
		return len(fields) > 0 && fields[0] == "move"
	})
	if err != nil {
		if errors.Is(err, core.ErrEngineTimeout) && h.LastReply() != "" {
			return "", fmt.Errorf("%w (last output %q)", err, h.LastReply())
		}
		return "", err
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", core.ErrProtocol, line)
	}
	return parts[1], nil
}

// seconds formats a budget for the "st" command, e.g. 1s -> "1", 1500ms -> "1.5"
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
