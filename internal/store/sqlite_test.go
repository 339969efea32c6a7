package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func TestRegisterUserIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RegisterUser(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := s.RegisterUser(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestCreateSessionIdsIncrease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RegisterUser(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := s.CreateSession(ctx, "u1")
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	second, err := s.CreateSession(ctx, "u1")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}

	if second <= first {
		t.Fatalf("expected increasing session ids, got %d then %d", first, second)
	}
}

func TestHistoryForNewUserIsEmpty(t *testing.T) {
	s := newTestStore(t)

	history, err := s.HistoryForUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(history))
	}
}

func TestAnswersComeBackInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RegisterUser(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sessionID, err := s.CreateSession(ctx, "u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	questions := []string{"q1", "q2", "q3"}
	if err := s.SnapshotQuestions(ctx, sessionID, questions); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	answers := []string{"a1", "a2", "a3"}
	for i, q := range questions {
		if err := s.RecordAnswer(ctx, sessionID, "u1", q, answers[i]); err != nil {
			t.Fatalf("record answer %d: %v", i, err)
		}
	}

	history, err := s.HistoryForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != len(questions) {
		t.Fatalf("expected %d entries, got %d", len(questions), len(history))
	}
	for i, entry := range history {
		if entry.Question != questions[i] {
			t.Errorf("entry %d: expected question %q, got %q", i, questions[i], entry.Question)
		}
		if entry.Answer != answers[i] {
			t.Errorf("entry %d: expected answer %q, got %q", i, answers[i], entry.Answer)
		}
	}
}

func TestRecordResultUniquePerSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RegisterUser(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sessionID, err := s.CreateSession(ctx, "u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := s.RecordResult(ctx, sessionID, "Engineer", "fits profile", []string{"math"}); err != nil {
		t.Fatalf("first result: %v", err)
	}
	if err := s.RecordResult(ctx, sessionID, "Doctor", "another", nil); err == nil {
		t.Fatal("expected second result insert to fail")
	}

	result, err := s.SessionResult(ctx, sessionID)
	if err != nil {
		t.Fatalf("session result: %v", err)
	}
	if result == nil || result.Career != "Engineer" {
		t.Fatalf("expected the first result to survive, got %+v", result)
	}
}

func TestSessionResultAbsent(t *testing.T) {
	s := newTestStore(t)

	result, err := s.SessionResult(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
}

func TestResultsForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RegisterUser(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, career := range []string{"Engineer", "Teacher"} {
		sessionID, err := s.CreateSession(ctx, "u1")
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		if err := s.RecordResult(ctx, sessionID, career, "because", []string{}); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}

	results, err := s.ResultsForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Career != "Engineer" || results[1].Career != "Teacher" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if results[0].Skills == nil {
		t.Fatal("expected skills to unmarshal to an empty slice, not nil")
	}
}
