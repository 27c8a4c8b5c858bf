package storage

import "time"

// MatchRecord represents a row in the matches table
type MatchRecord struct {
	MatchID       string    `db:"match_id"`
	Label         string    `db:"label"`
	InitialFEN    string    `db:"initial_fen"`
	WhiteName     string    `db:"white_name"`
	WhiteProtocol string    `db:"white_protocol"`
	WhitePath     string    `db:"white_path"`
	BlackName     string    `db:"black_name"`
	BlackProtocol string    `db:"black_protocol"`
	BlackPath     string    `db:"black_path"`
	MoveTimeMs    int64     `db:"move_time_ms"`
	StartTimeUTC  time.Time `db:"start_time_utc"`

	// Filled in by RecordResult; zero while the match is unfinished
	Verdict       string    `db:"verdict"`
	Score         string    `db:"score"`
	Winner        string    `db:"winner"`
	MoveCount     int       `db:"move_count"`
	Substitutions int       `db:"substitutions"`
	FinalFEN      string    `db:"final_fen"`
	EndTimeUTC    time.Time `db:"end_time_utc"`
}

// ResultRecord carries the outcome written when a match ends
type ResultRecord struct {
	MatchID       string
	Verdict       string
	Score         string
	Winner        string
	MoveCount     int
	Substitutions int
	FinalFEN      string
	EndTimeUTC    time.Time
}

// MoveRecord represents a row in the moves table
type MoveRecord struct {
	MoveID       int64     `db:"move_id"`
	MatchID      string    `db:"match_id"`
	Ply          int       `db:"ply"`
	MoveUCI      string    `db:"move_uci"`
	MoveSAN      string    `db:"move_san"`
	FENAfterMove string    `db:"fen_after_move"`
	PlayerColor  string    `db:"player_color"` // "w" or "b"
	Source       string    `db:"source"`       // "engine" or "fallback"
	Reason       string    `db:"reason"`
	ElapsedMs    int64     `db:"elapsed_ms"`
	MoveTimeUTC  time.Time `db:"move_time_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id TEXT PRIMARY KEY,
	label TEXT NOT NULL DEFAULT '',
	initial_fen TEXT NOT NULL,
	white_name TEXT NOT NULL,
	white_protocol TEXT NOT NULL CHECK(white_protocol IN ('uci', 'cecp')),
	white_path TEXT NOT NULL,
	black_name TEXT NOT NULL,
	black_protocol TEXT NOT NULL CHECK(black_protocol IN ('uci', 'cecp')),
	black_path TEXT NOT NULL,
	move_time_ms INTEGER NOT NULL DEFAULT 1000,
	start_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	verdict TEXT NOT NULL DEFAULT 'ongoing',
	score TEXT NOT NULL DEFAULT '*',
	winner TEXT NOT NULL DEFAULT '',
	move_count INTEGER NOT NULL DEFAULT 0,
	substitutions INTEGER NOT NULL DEFAULT 0,
	final_fen TEXT NOT NULL DEFAULT '',
	end_time_utc DATETIME
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id TEXT NOT NULL,
	ply INTEGER NOT NULL,
	move_uci TEXT NOT NULL,
	move_san TEXT NOT NULL,
	fen_after_move TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	source TEXT NOT NULL CHECK(source IN ('engine', 'fallback')),
	reason TEXT NOT NULL DEFAULT '',
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (match_id) REFERENCES matches(match_id) ON DELETE CASCADE,
	UNIQUE(match_id, ply)
);

CREATE INDEX IF NOT EXISTS idx_moves_match_id ON moves(match_id);
CREATE INDEX IF NOT EXISTS idx_matches_white_name ON matches(white_name);
CREATE INDEX IF NOT EXISTS idx_matches_black_name ON matches(black_name);
`
