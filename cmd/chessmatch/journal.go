package main

import (
	"log"
	"time"

	"chessmatch/internal/core"
	"chessmatch/internal/match"
	"chessmatch/internal/storage"
)

// journal writes the course of a match to the store
type journal struct {
	store *storage.Store
}

// begin records the match row that later moves and the result refer to
func (j *journal) begin(id, label, fen string, white, black core.Player, moveTime time.Duration) {
	err := j.store.RecordNewMatch(storage.MatchRecord{
		MatchID:       id,
		Label:         label,
		InitialFEN:    fen,
		WhiteName:     white.Name,
		WhiteProtocol: white.Protocol.String(),
		WhitePath:     white.Path,
		BlackName:     black.Name,
		BlackProtocol: black.Protocol.String(),
		BlackPath:     black.Path,
		MoveTimeMs:    moveTime.Milliseconds(),
		StartTimeUTC:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Storage: failed to record match %s: %v", id, err)
	}
}

func (j *journal) RecordTurn(matchID string, t match.Turn) {
	err := j.store.RecordMove(storage.MoveRecord{
		MatchID:      matchID,
		Ply:          t.Ply,
		MoveUCI:      t.UCI,
		MoveSAN:      t.SAN,
		FENAfterMove: t.FEN,
		PlayerColor:  string(rune(t.Color)),
		Source:       t.Source.String(),
		Reason:       t.Reason,
		ElapsedMs:    t.Elapsed.Milliseconds(),
		MoveTimeUTC:  t.PlayedAt.UTC(),
	})
	if err != nil {
		log.Printf("Storage: failed to record ply %d: %v", t.Ply, err)
	}
}

func (j *journal) RecordResult(r match.Result) {
	err := j.store.RecordResult(storage.ResultRecord{
		MatchID:       r.ID,
		Verdict:       r.Verdict.Kind.String(),
		Score:         r.Score(),
		Winner:        r.Winner,
		MoveCount:     len(r.Moves),
		Substitutions: r.Substitutions,
		FinalFEN:      r.FinalFEN,
		EndTimeUTC:    r.Finished.UTC(),
	})
	if err != nil {
		log.Printf("Storage: failed to record result: %v", err)
	}
}
