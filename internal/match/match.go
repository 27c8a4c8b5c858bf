// Package match runs one game between two engine adapters and arbitrates
// it with a game.Tracker. A misbehaving engine never stops the game: its
// turn is played by a uniformly random legal move instead.
package match

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"chessmatch/internal/core"
	"chessmatch/internal/engine"
	"chessmatch/internal/game"

	"github.com/corentings/chess/v2"
)

const (
	DefaultMoveTime      = 1 * time.Second
	DefaultMovePause     = 500 * time.Millisecond
	DefaultRecoveryPause = 2 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
)

var errTurnPanic = errors.New("turn panicked")

// Side binds a player description to the adapter that speaks for it
type Side struct {
	Player  core.Player
	Adapter engine.Adapter
}

// Options tunes a match. Zero durations take the package defaults.
type Options struct {
	ID    string
	Label string
	FEN   string

	MoveTime      time.Duration
	MovePause     time.Duration
	RecoveryPause time.Duration
	PollInterval  time.Duration

	// Rand picks fallback moves; nil means a randomly seeded source
	Rand *rand.Rand

	Observer Observer
	Recorder Recorder
}

// Result summarizes a finished or aborted match
type Result struct {
	ID            string
	Label         string
	White         core.Player
	Black         core.Player
	InitialFEN    string
	FinalFEN      string
	Verdict       core.Verdict
	Winner        string
	Moves         []string
	Substitutions int
	Started       time.Time
	Finished      time.Time
}

// Score renders the result as "1-0", "0-1", "1/2-1/2" or "*"
func (r Result) Score() string {
	return r.Verdict.Score()
}

// Match owns the tracker and drives turns sequentially
type Match struct {
	opts    Options
	sides   [2]Side
	tracker *game.Tracker
	rng     *rand.Rand

	status   string
	thinking time.Duration
	subs     int
	started  time.Time
}

// New prepares a match from the position in opts.FEN, or the standard
// start when empty.
func New(white, black Side, opts Options) (*Match, error) {
	if white.Adapter == nil || black.Adapter == nil {
		return nil, fmt.Errorf("both sides need an engine adapter")
	}

	tracker, err := game.New(opts.FEN)
	if err != nil {
		return nil, err
	}

	if opts.MoveTime <= 0 {
		opts.MoveTime = DefaultMoveTime
	}
	if opts.MovePause < 0 {
		opts.MovePause = 0
	}
	if opts.RecoveryPause < 0 {
		opts.RecoveryPause = 0
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	white.Player.Color = core.ColorWhite
	black.Player.Color = core.ColorBlack

	return &Match{
		opts:    opts,
		sides:   [2]Side{white, black},
		tracker: tracker,
		rng:     rng,
		status:  "starting game",
	}, nil
}

// Tracker exposes the game state, read-only by convention
func (m *Match) Tracker() *game.Tracker {
	return m.tracker
}

// Run plays until the tracker reports a terminal verdict or ctx is
// cancelled, in which case the game is marked aborted. The returned error
// is non-nil only when the match could not continue at all.
func (m *Match) Run(ctx context.Context) (Result, error) {
	m.started = time.Now().UTC()
	log.Printf("match %s: %s vs %s from %s", m.opts.Label,
		m.sides[0].Player.String(), m.sides[1].Player.String(), m.tracker.InitialFEN())
	m.publish()

	var runErr error
	for {
		if m.tracker.Verdict().Terminal() {
			break
		}
		if ctx.Err() != nil {
			m.tracker.Abort()
			break
		}

		ply := len(m.tracker.Moves())
		err := m.turn(ctx)
		if err != nil && ctx.Err() == nil {
			if rerr := m.recoverTurn(ctx, ply, err); rerr != nil {
				runErr = rerr
				m.tracker.Abort()
				break
			}
		}

		if !m.tracker.Verdict().Terminal() && !sleep(ctx, m.opts.MovePause) {
			m.tracker.Abort()
			break
		}
	}

	res := m.result()
	m.status = fmt.Sprintf("game over: %s %s", res.Score(), res.Verdict)
	if res.Winner != "" {
		m.status += " - winner " + res.Winner
	}
	log.Printf("match %s: %s after %d half-moves, %d substituted",
		m.opts.Label, m.status, len(res.Moves), res.Substitutions)
	m.publish()

	if m.opts.Recorder != nil {
		m.opts.Recorder.RecordResult(res)
	}
	return res, runErr
}

// turn asks the side to move for a move and applies it, substituting a
// random legal move when the engine fails or answers illegally
func (m *Match) turn(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTurnPanic, r)
		}
	}()

	side := &m.sides[m.tracker.Turn().Index()]
	m.status = fmt.Sprintf("%s to move, thinking...", side.Player.String())
	m.thinking = 0
	m.publish()

	start := time.Now()
	mv, reqErr := m.request(ctx, side)
	elapsed := time.Since(start)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	source, reason := core.SourceEngine, ""
	switch {
	case reqErr != nil:
		reason = reqErr.Error()
	case !m.tracker.IsLegal(mv):
		reason = fmt.Sprintf("%v: %s", core.ErrIllegalMove, mv)
	}

	if reason != "" {
		log.Printf("%s returned no usable move: %s", side.Player.String(), reason)
		mv = m.randomMove()
		if mv == nil {
			return fmt.Errorf("no legal move to substitute in %s", m.tracker.FEN())
		}
		source = core.SourceFallback
	}

	return m.apply(mv, source, reason, elapsed)
}

// request runs the adapter off the orchestrator goroutine so heartbeats
// and cancellation are serviced while the engine thinks. It always waits
// for the adapter to return, which guarantees its process was reaped.
func (m *Match) request(ctx context.Context, side *Side) (*chess.Move, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type reply struct {
		move *chess.Move
		err  error
	}
	done := make(chan reply, 1)
	pos := m.tracker.Position()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%w: adapter: %v", errTurnPanic, r)}
			}
		}()
		mv, err := side.Adapter.RequestMove(reqCtx, pos, m.opts.MoveTime)
		done <- reply{move: mv, err: err}
	}()

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case r := <-done:
			if r.err == nil && r.move == nil {
				r.err = core.ErrNoMove
			}
			return r.move, r.err
		case <-ticker.C:
			m.thinking = time.Since(start)
			m.publish()
		case <-ctx.Done():
			cancel()
			<-done
			return nil, ctx.Err()
		}
	}
}

// recoverTurn handles an error that escaped a turn. If the turn never
// applied a move, a random legal move is played for it after a pause.
func (m *Match) recoverTurn(ctx context.Context, ply int, cause error) error {
	log.Printf("turn %d failed: %v", ply+1, cause)
	m.status = fmt.Sprintf("error: %v", cause)
	m.publish()

	if !sleep(ctx, m.opts.RecoveryPause) {
		return nil
	}
	if len(m.tracker.Moves()) != ply || m.tracker.Verdict().Terminal() {
		return nil
	}

	mv := m.randomMove()
	if mv == nil {
		return fmt.Errorf("no legal move to recover with in %s", m.tracker.FEN())
	}
	if err := m.apply(mv, core.SourceFallback, "recovered: "+cause.Error(), 0); err != nil {
		return fmt.Errorf("recovery move: %w", err)
	}
	m.status = "recovered with a random move"
	m.publish()
	return nil
}

func (m *Match) apply(mv *chess.Move, source core.MoveSource, reason string, elapsed time.Duration) error {
	color := m.tracker.Turn()
	if err := m.tracker.ApplyMove(mv); err != nil {
		return err
	}

	moves := m.tracker.Moves()
	san := moves[len(moves)-1]
	if source == core.SourceFallback {
		m.subs++
		log.Printf("substituted random move %s (%s) for %s", mv, san, color)
	}

	if m.opts.Recorder != nil {
		m.opts.Recorder.RecordTurn(m.opts.ID, Turn{
			Ply:      len(moves),
			Color:    color,
			UCI:      mv.String(),
			SAN:      san,
			FEN:      m.tracker.FEN(),
			Source:   source,
			Reason:   reason,
			Elapsed:  elapsed,
			PlayedAt: time.Now().UTC(),
		})
	}

	next := m.sides[m.tracker.Turn().Index()].Player
	m.status = fmt.Sprintf("last move: %s | to move: %s", san, next.String())
	if source == core.SourceFallback {
		m.status = fmt.Sprintf("last move: %s (random substitute) | to move: %s", san, next.String())
	}
	m.thinking = 0
	m.publish()
	return nil
}

func (m *Match) randomMove() *chess.Move {
	legal := m.tracker.LegalMoves()
	if len(legal) == 0 {
		return nil
	}
	return &legal[m.rng.IntN(len(legal))]
}

// Snapshot captures the current state for views
func (m *Match) Snapshot() Snapshot {
	v := m.tracker.Verdict()
	moves := m.tracker.Moves()
	s := Snapshot{
		ID:            m.opts.ID,
		Label:         m.opts.Label,
		White:         m.sides[0].Player,
		Black:         m.sides[1].Player,
		FEN:           m.tracker.FEN(),
		Turn:          m.tracker.Turn(),
		Moves:         moves,
		MoveCount:     len(moves),
		Check:         m.tracker.InCheck(),
		Status:        m.status,
		Thinking:      m.thinking,
		ThinkingMs:    m.thinking.Milliseconds(),
		Substitutions: m.subs,
		Verdict:       v,
		Outcome:       v.String(),
		Score:         v.Score(),
		Running:       !v.Terminal(),
	}
	if last := m.tracker.LastMove(); last != nil {
		s.LastMove = last.String()
		s.LastSAN = moves[len(moves)-1]
	}
	if s.Check {
		if sq, ok := m.tracker.KingSquare(s.Turn); ok {
			s.KingInCheck = sq.String()
		}
	}
	return s
}

func (m *Match) publish() {
	if m.opts.Observer != nil {
		m.opts.Observer.Update(m.Snapshot())
	}
}

func (m *Match) result() Result {
	v := m.tracker.Verdict()
	r := Result{
		ID:            m.opts.ID,
		Label:         m.opts.Label,
		White:         m.sides[0].Player,
		Black:         m.sides[1].Player,
		InitialFEN:    m.tracker.InitialFEN(),
		FinalFEN:      m.tracker.FEN(),
		Verdict:       v,
		Moves:         m.tracker.Moves(),
		Substitutions: m.subs,
		Started:       m.started,
		Finished:      time.Now().UTC(),
	}
	if v.Kind == core.VerdictCheckmate {
		r.Winner = m.sides[v.Winner.Index()].Player.String()
	}
	return r
}

// sleep waits d or until ctx is done, reporting whether the full pause elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
