package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oztrk/careerbot/internal/advice"
	"github.com/oztrk/careerbot/internal/catalog"
	"github.com/oztrk/careerbot/internal/interview"
	"github.com/oztrk/careerbot/internal/store"
	"go.uber.org/zap"
)

type fixedRecommender struct{}

func (fixedRecommender) Recommend(context.Context, []advice.Exchange, []advice.Exchange) *advice.Recommendation {
	return &advice.Recommendation{Career: "Engineer", Reason: "fits", Skills: []string{"math"}}
}

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	path := filepath.Join(t.TempDir(), "questions.json")
	content := `[
		{"question": "q1", "category": "Social"},
		{"question": "q2"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}
	cat, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	engine := interview.New(cat, st, fixedRecommender{}, interview.Config{}, zap.NewNop())
	return New(engine, cat, zap.NewNop())
}

func TestCareerCommandStartsQuiz(t *testing.T) {
	d := testDispatcher(t)
	user := interview.User{ID: "u1", DisplayName: "Alice"}

	replies := d.Handle(context.Background(), user, "!career")
	if len(replies) != 1 || !strings.Contains(replies[0], "q1") {
		t.Fatalf("expected the first question, got %v", replies)
	}
}

func TestSecondCareerCommandIsRejected(t *testing.T) {
	d := testDispatcher(t)
	ctx := context.Background()
	user := interview.User{ID: "u1", DisplayName: "Alice"}

	d.Handle(ctx, user, "!career")
	replies := d.Handle(ctx, user, "!career")

	if len(replies) != 1 || !strings.Contains(replies[0], "already have a quiz") {
		t.Fatalf("expected the session-active notice, got %v", replies)
	}
}

func TestPlainTextWhileIdleIsSilent(t *testing.T) {
	d := testDispatcher(t)

	replies := d.Handle(context.Background(), interview.User{ID: "u1"}, "just chatting")
	if len(replies) != 0 {
		t.Fatalf("expected silence, got %v", replies)
	}
}

func TestFullConversation(t *testing.T) {
	d := testDispatcher(t)
	ctx := context.Background()
	user := interview.User{ID: "u1", DisplayName: "Alice"}

	d.Handle(ctx, user, "!career")
	d.Handle(ctx, user, "answer one")
	replies := d.Handle(ctx, user, "answer two")

	if len(replies) != 1 || !strings.Contains(replies[0], "Engineer") {
		t.Fatalf("expected the recommendation, got %v", replies)
	}
}

func TestBrowseCommand(t *testing.T) {
	d := testDispatcher(t)

	replies := d.Handle(context.Background(), interview.User{ID: "u1"}, "!browse")
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %v", replies)
	}
	if !strings.Contains(replies[0], "Social") || !strings.Contains(replies[0], "q1") {
		t.Fatalf("expected the category listing, got %q", replies[0])
	}
}

func TestCancelCommand(t *testing.T) {
	d := testDispatcher(t)
	ctx := context.Background()
	user := interview.User{ID: "u1", DisplayName: "Alice"}

	replies := d.Handle(ctx, user, "!cancel")
	if len(replies) != 1 || !strings.Contains(replies[0], "no quiz in progress") {
		t.Fatalf("expected the nothing-to-cancel notice, got %v", replies)
	}

	d.Handle(ctx, user, "!career")
	replies = d.Handle(ctx, user, "!cancel")
	if len(replies) != 1 || !strings.Contains(replies[0], "cancelled") {
		t.Fatalf("expected the cancelled notice, got %v", replies)
	}

	// A fresh quiz can start afterwards.
	replies = d.Handle(ctx, user, "!career")
	if len(replies) != 1 || !strings.Contains(replies[0], "q1") {
		t.Fatalf("expected a fresh first question, got %v", replies)
	}
}

func TestUnknownCommand(t *testing.T) {
	d := testDispatcher(t)

	replies := d.Handle(context.Background(), interview.User{ID: "u1"}, "!dance")
	if len(replies) != 1 || !strings.Contains(replies[0], "Unknown command") {
		t.Fatalf("expected the unknown-command notice, got %v", replies)
	}
}

func TestCommandMidQuizDoesNotAdvance(t *testing.T) {
	d := testDispatcher(t)
	ctx := context.Background()
	user := interview.User{ID: "u1", DisplayName: "Alice"}

	d.Handle(ctx, user, "!career")
	d.Handle(ctx, user, "!browse")

	replies := d.Handle(ctx, user, "first answer")
	if len(replies) != 1 || !strings.Contains(replies[0], "q2") {
		t.Fatalf("expected the quiz still on question 2, got %v", replies)
	}
}
