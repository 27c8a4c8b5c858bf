package match

import (
	"context"
	"time"

	"chessmatch/internal/core"
)

// Snapshot is everything a view needs to draw one frame
type Snapshot struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	White     core.Player `json:"white"`
	Black     core.Player `json:"black"`
	FEN       string      `json:"fen"`
	Turn      core.Color  `json:"turn"`
	LastMove  string      `json:"lastMove,omitempty"`
	LastSAN   string      `json:"lastSan,omitempty"`
	Moves     []string    `json:"moves"`
	MoveCount int         `json:"moveCount"`
	Check     bool        `json:"check"`
	// KingInCheck is the square of the side to move's king when in check
	KingInCheck   string        `json:"kingInCheck,omitempty"`
	Status        string        `json:"status"`
	Thinking      time.Duration `json:"-"`
	ThinkingMs    int64         `json:"thinkingMs"`
	Substitutions int           `json:"substitutions"`
	Verdict       core.Verdict  `json:"-"`
	Outcome       string        `json:"outcome"`
	Score         string        `json:"score"`
	Running       bool          `json:"running"`
}

// Observer receives a snapshot after each state change and on every
// heartbeat while an engine is thinking. Update must not block.
type Observer interface {
	Update(Snapshot)
}

// View is an Observer that also owns user input
type View interface {
	Observer
	// Quit is closed when the user asks to stop the match
	Quit() <-chan struct{}
	// WaitAck blocks until the user dismisses the final position
	WaitAck(ctx context.Context) error
}

// Observers fans one snapshot out to several observers
type Observers []Observer

func (o Observers) Update(s Snapshot) {
	for _, obs := range o {
		if obs != nil {
			obs.Update(s)
		}
	}
}

// Turn describes one applied half-move
type Turn struct {
	Ply      int
	Color    core.Color
	UCI      string
	SAN      string
	FEN      string
	Source   core.MoveSource
	Reason   string
	Elapsed  time.Duration
	PlayedAt time.Time
}

// Recorder persists the course of a match
type Recorder interface {
	RecordTurn(matchID string, t Turn)
	RecordResult(r Result)
}
