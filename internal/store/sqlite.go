package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath and ensures
// the schema exists.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps readers from blocking the single writer.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		first_seen_at INTEGER NOT NULL,
		last_seen_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

	CREATE TABLE IF NOT EXISTS session_questions (
		session_id INTEGER NOT NULL REFERENCES sessions(session_id),
		position INTEGER NOT NULL,
		question TEXT NOT NULL,
		PRIMARY KEY (session_id, position)
	);

	CREATE TABLE IF NOT EXISTS answers (
		answer_id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(session_id),
		user_id TEXT NOT NULL REFERENCES users(user_id),
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		answered_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_answers_user ON answers(user_id, answered_at);
	CREATE INDEX IF NOT EXISTS idx_answers_session ON answers(session_id);

	CREATE TABLE IF NOT EXISTS results (
		result_id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL UNIQUE REFERENCES sessions(session_id),
		career_name TEXT NOT NULL,
		reason TEXT NOT NULL,
		skills_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// RegisterUser creates the user row on first sight; later calls only
// refresh last_seen_at.
func (s *SQLiteStore) RegisterUser(ctx context.Context, userID, displayName string) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO users (user_id, display_name, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_seen_at = excluded.last_seen_at`

	if _, err := s.db.ExecContext(ctx, query, userID, displayName, now, now); err != nil {
		return fmt.Errorf("register user %q: %w", userID, err)
	}
	return nil
}

// CreateSession inserts a new session and returns its identifier.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, started_at) VALUES (?, ?)`,
		userID, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("create session for %q: %w", userID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// SnapshotQuestions writes the ordered question copy inside one transaction
// so a crash cannot leave a half-written snapshot.
func (s *SQLiteStore) SnapshotQuestions(ctx context.Context, sessionID int64, questions []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_questions (session_id, position, question) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, q := range questions {
		if _, err := stmt.ExecContext(ctx, sessionID, i, q); err != nil {
			return fmt.Errorf("snapshot question %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// RecordAnswer appends one answer row.
func (s *SQLiteStore) RecordAnswer(ctx context.Context, sessionID int64, userID, question, answer string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (session_id, user_id, question, answer, answered_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, userID, question, answer, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record answer for session %d: %w", sessionID, err)
	}
	return nil
}

// RecordResult stores the recommendation. The UNIQUE constraint on
// session_id keeps results at most one per session.
func (s *SQLiteStore) RecordResult(ctx context.Context, sessionID int64, career, reason string, skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (session_id, career_name, reason, skills_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, career, reason, string(skillsJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record result for session %d: %w", sessionID, err)
	}
	return nil
}

// FinishSession stamps the finish time.
func (s *SQLiteStore) FinishSession(ctx context.Context, sessionID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET finished_at = ? WHERE session_id = ?`,
		time.Now().Unix(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session %d: %w", sessionID, err)
	}
	return nil
}

// HistoryForUser returns every answered question for the user, oldest first.
func (s *SQLiteStore) HistoryForUser(ctx context.Context, userID string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, answered_at FROM answers
		 WHERE user_id = ? ORDER BY answered_at ASC, answer_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history for %q: %w", userID, err)
	}
	defer rows.Close()

	history := make([]HistoryEntry, 0)
	for rows.Next() {
		var entry HistoryEntry
		var ts int64
		if err := rows.Scan(&entry.Question, &entry.Answer, &ts); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.AnsweredAt = time.Unix(ts, 0)
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return history, nil
}

// SessionResult returns the stored recommendation for a session, or nil.
func (s *SQLiteStore) SessionResult(ctx context.Context, sessionID int64) (*Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, career_name, reason, skills_json, created_at
		 FROM results WHERE session_id = ?`,
		sessionID,
	)

	result, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan result for session %d: %w", sessionID, err)
	}
	return result, nil
}

// ResultsForUser returns all recommendations across the user's sessions,
// oldest first.
func (s *SQLiteStore) ResultsForUser(ctx context.Context, userID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.session_id, r.career_name, r.reason, r.skills_json, r.created_at
		 FROM results r JOIN sessions s ON s.session_id = r.session_id
		 WHERE s.user_id = ? ORDER BY r.created_at ASC, r.result_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results for %q: %w", userID, err)
	}
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*Result, error) {
	var result Result
	var skillsJSON string
	var ts int64

	if err := row.Scan(&result.SessionID, &result.Career, &result.Reason, &skillsJSON, &ts); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skillsJSON), &result.Skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	result.CreatedAt = time.Unix(ts, 0)

	return &result, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
