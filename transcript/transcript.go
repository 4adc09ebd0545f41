// Package transcript records play sessions to a SQLite database: one row
// per turn with the input, the narrative output, and the state changes
// the turn committed. The journal makes sessions reviewable and
// replayable after the fact.
package transcript

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/fablecore/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game       TEXT NOT NULL,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	session_id INTEGER NOT NULL REFERENCES sessions(id),
	turn       INTEGER NOT NULL,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	changes    TEXT NOT NULL,
	PRIMARY KEY (session_id, turn)
);
`

// Store is an open transcript database.
type Store struct {
	db *sql.DB
}

// Session is one recorded play session.
type Session struct {
	ID        int64
	Game      string
	StartedAt time.Time
}

// Turn is one recorded turn.
type Turn struct {
	Turn    int
	Input   string
	Output  []string
	Changes []types.StateChange
}

// Open creates or opens the transcript database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating transcript dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating transcript schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// BeginSession records the start of a session and returns its ID.
func (s *Store) BeginSession(game string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO sessions (game, started_at) VALUES (?, ?)",
		game, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("beginning session: %w", err)
	}
	return res.LastInsertId()
}

// RecordTurn appends one turn to a session. Output lines are stored
// newline-joined; changes are stored as JSON so the journal can be
// replayed through the state engine later.
func (s *Store) RecordTurn(session int64, turn int, input string, result types.Result) error {
	changes, err := json.Marshal(result.Changes)
	if err != nil {
		return fmt.Errorf("encoding changes: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO turns (session_id, turn, input, output, changes) VALUES (?, ?, ?, ?, ?)",
		session, turn, input, strings.Join(result.Texts(), "\n"), string(changes))
	if err != nil {
		return fmt.Errorf("recording turn %d: %w", turn, err)
	}
	return nil
}

// Turns returns a session's recorded turns in order.
func (s *Store) Turns(session int64) ([]Turn, error) {
	rows, err := s.db.Query(
		"SELECT turn, input, output, changes FROM turns WHERE session_id = ? ORDER BY turn",
		session)
	if err != nil {
		return nil, fmt.Errorf("reading turns: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		var output, changes string
		if err := rows.Scan(&t.Turn, &t.Input, &output, &changes); err != nil {
			return nil, err
		}
		if output != "" {
			t.Output = strings.Split(output, "\n")
		}
		if err := json.Unmarshal([]byte(changes), &t.Changes); err != nil {
			return nil, fmt.Errorf("decoding changes for turn %d: %w", t.Turn, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Sessions returns all recorded sessions, newest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(
		"SELECT id, game, started_at FROM sessions ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var started string
		if err := rows.Scan(&sess.ID, &sess.Game, &started); err != nil {
			return nil, err
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339, started)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Changes flattens a session's journal into one ordered change list,
// suitable for state.Replay.
func (s *Store) Changes(session int64) ([]types.StateChange, error) {
	turns, err := s.Turns(session)
	if err != nil {
		return nil, err
	}
	var out []types.StateChange
	for _, t := range turns {
		out = append(out, t.Changes...)
	}
	return out, nil
}
