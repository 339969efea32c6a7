// Package store provides durable persistence for users, quiz sessions,
// answers and career results.
package store

import (
	"context"
	"time"
)

// HistoryEntry is one answered question from a user's past sessions.
type HistoryEntry struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Result is a persisted career recommendation for one session.
type Result struct {
	SessionID int64     `json:"session_id"`
	Career    string    `json:"career_name"`
	Reason    string    `json:"reason"`
	Skills    []string  `json:"recommended_skills"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the persistence operations the interview engine and the
// gateway depend on. Every call is a single logical write or read; no
// transaction spans multiple calls.
type Store interface {
	// RegisterUser creates the user if unknown and refreshes last-seen
	// otherwise. First-seen is never rewritten.
	RegisterUser(ctx context.Context, userID, displayName string) error

	// CreateSession allocates a new session for the user and returns its
	// monotonically increasing identifier.
	CreateSession(ctx context.Context, userID string) (int64, error)

	// SnapshotQuestions writes the ordered catalog copy for a session.
	// Called exactly once per session, in a single transaction.
	SnapshotQuestions(ctx context.Context, sessionID int64, questions []string) error

	// RecordAnswer appends one answer row. Rows are never updated or deleted.
	RecordAnswer(ctx context.Context, sessionID int64, userID, question, answer string) error

	// RecordResult stores the career recommendation for a session. At most
	// one result may exist per session; a second insert fails.
	RecordResult(ctx context.Context, sessionID int64, career, reason string, skills []string) error

	// FinishSession stamps the session's finish time.
	FinishSession(ctx context.Context, sessionID int64) error

	// HistoryForUser returns all answered questions across the user's
	// sessions, oldest first. Unknown users get an empty slice, not an error.
	HistoryForUser(ctx context.Context, userID string) ([]HistoryEntry, error)

	// SessionResult returns the result for a session, or nil when absent.
	SessionResult(ctx context.Context, sessionID int64) (*Result, error)

	// ResultsForUser returns all recommendations for a user, oldest first.
	ResultsForUser(ctx context.Context, userID string) ([]Result, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying database.
	Close() error
}
