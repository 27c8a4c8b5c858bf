package storage

import (
	"database/sql"
	"fmt"
)

// RecordNewMatch asynchronously records a new match
func (s *Store) RecordNewMatch(record MatchRecord) error {
	return s.enqueue("match record", func(tx *sql.Tx) error {
		query := `INSERT INTO matches (
			match_id, label, initial_fen,
			white_name, white_protocol, white_path,
			black_name, black_protocol, black_path,
			move_time_ms, start_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.MatchID, record.Label, record.InitialFEN,
			record.WhiteName, record.WhiteProtocol, record.WhitePath,
			record.BlackName, record.BlackProtocol, record.BlackPath,
			record.MoveTimeMs, record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) error {
	return s.enqueue("move record", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			match_id, ply, move_uci, move_san, fen_after_move,
			player_color, source, reason, elapsed_ms, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.MatchID, record.Ply, record.MoveUCI, record.MoveSAN, record.FENAfterMove,
			record.PlayerColor, record.Source, record.Reason, record.ElapsedMs, record.MoveTimeUTC,
		)
		return err
	})
}

// RecordResult asynchronously stores the outcome of a match
func (s *Store) RecordResult(record ResultRecord) error {
	return s.enqueue("result record", func(tx *sql.Tx) error {
		query := `UPDATE matches SET
			verdict = ?, score = ?, winner = ?, move_count = ?,
			substitutions = ?, final_fen = ?, end_time_utc = ?
		WHERE match_id = ?`

		res, err := tx.Exec(query,
			record.Verdict, record.Score, record.Winner, record.MoveCount,
			record.Substitutions, record.FinalFEN, record.EndTimeUTC,
			record.MatchID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("no match %s to record result for", record.MatchID)
		}
		return nil
	})
}

// QueryMatches retrieves matches, optionally filtered by id or by an engine
// name on either side. Empty or "*" means no filter.
func (s *Store) QueryMatches(matchID, engineName string) ([]MatchRecord, error) {
	query := `SELECT
		match_id, label, initial_fen,
		white_name, white_protocol, white_path,
		black_name, black_protocol, black_path,
		move_time_ms, start_time_utc,
		verdict, score, winner, move_count, substitutions, final_fen, end_time_utc
	FROM matches WHERE 1=1`

	var args []any

	if matchID != "" && matchID != "*" {
		query += " AND match_id = ?"
		args = append(args, matchID)
	}

	if engineName != "" && engineName != "*" {
		query += " AND (white_name = ? OR black_name = ?)"
		args = append(args, engineName, engineName)
	}

	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var matches []MatchRecord
	for rows.Next() {
		var m MatchRecord
		var end sql.NullTime
		err := rows.Scan(
			&m.MatchID, &m.Label, &m.InitialFEN,
			&m.WhiteName, &m.WhiteProtocol, &m.WhitePath,
			&m.BlackName, &m.BlackProtocol, &m.BlackPath,
			&m.MoveTimeMs, &m.StartTimeUTC,
			&m.Verdict, &m.Score, &m.Winner, &m.MoveCount, &m.Substitutions, &m.FinalFEN, &end,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if end.Valid {
			m.EndTimeUTC = end.Time
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return matches, nil
}

// QueryMoves retrieves the moves of one match in play order
func (s *Store) QueryMoves(matchID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT
		move_id, match_id, ply, move_uci, move_san, fen_after_move,
		player_color, source, reason, elapsed_ms, move_time_utc
	FROM moves WHERE match_id = ? ORDER BY ply`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		err := rows.Scan(
			&m.MoveID, &m.MatchID, &m.Ply, &m.MoveUCI, &m.MoveSAN, &m.FENAfterMove,
			&m.PlayerColor, &m.Source, &m.Reason, &m.ElapsedMs, &m.MoveTimeUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}
