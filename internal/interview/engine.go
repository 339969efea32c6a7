// Package interview holds the per-user quiz state machine: question index
// tracking, answer collection and completion detection.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oztrk/careerbot/internal/advice"
	"github.com/oztrk/careerbot/internal/catalog"
	"github.com/oztrk/careerbot/internal/render"
	"github.com/oztrk/careerbot/internal/store"
	"go.uber.org/zap"
)

// ErrSessionActive is returned by Start when the user already has a quiz
// in progress. The prior session is never discarded silently.
var ErrSessionActive = errors.New("a quiz is already in progress for this user")

// CommandPrefix marks chat input that must never be treated as an answer.
const CommandPrefix = "!"

const (
	defaultHistoryLimit   = 50
	defaultMaxAnswerRunes = 2000
)

// User identifies a chat participant.
type User struct {
	ID          string
	DisplayName string
}

// Config tunes the engine.
type Config struct {
	// HistoryLimit caps how many prior answers are fed into the
	// recommendation prompt. Zero means the default.
	HistoryLimit int
	// MaxAnswerRunes truncates overlong answers. Zero means the default.
	MaxAnswerRunes int
}

// activeQuiz is the transient per-user state. It exists only while a quiz
// is in progress; len(answers) == index holds at all times.
type activeQuiz struct {
	sessionID    int64
	questions    []string
	index        int
	answers      []string
	history      []advice.Exchange
	lastActivity time.Time
}

// Engine owns the registry of active quizzes and drives each user's run
// through the catalog. Quizzes of different users are independent.
type Engine struct {
	catalog     *catalog.Catalog
	store       store.Store
	recommender advice.Recommender
	logger      *zap.Logger
	cfg         Config

	mu     sync.Mutex
	active map[string]*activeQuiz
}

// New creates an Engine.
func New(cat *catalog.Catalog, st store.Store, rec advice.Recommender, cfg Config, log *zap.Logger) *Engine {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.MaxAnswerRunes <= 0 {
		cfg.MaxAnswerRunes = defaultMaxAnswerRunes
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		catalog:     cat,
		store:       st,
		recommender: rec,
		logger:      log,
		cfg:         cfg,
		active:      make(map[string]*activeQuiz),
	}
}

// Start begins a new quiz for the user: registers the user, creates the
// session, snapshots the catalog and returns the first question. Fails
// with ErrSessionActive when a quiz is already running.
func (e *Engine) Start(ctx context.Context, user User) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.active[user.ID]; ok {
		return "", ErrSessionActive
	}

	if err := e.store.RegisterUser(ctx, user.ID, user.DisplayName); err != nil {
		return "", fmt.Errorf("register user: %w", err)
	}

	sessionID, err := e.store.CreateSession(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	questions := e.catalog.Texts()
	if err := e.store.SnapshotQuestions(ctx, sessionID, questions); err != nil {
		return "", fmt.Errorf("snapshot questions: %w", err)
	}

	// Prior behavior is captured now, before this session writes any
	// answers, so the completion prompt sees only earlier sessions.
	history, err := e.priorHistory(ctx, user.ID)
	if err != nil {
		e.logger.Warn("loading prior history failed; continuing without it",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		history = nil
	}

	e.active[user.ID] = &activeQuiz{
		sessionID:    sessionID,
		questions:    questions,
		answers:      make([]string, 0, len(questions)),
		history:      history,
		lastActivity: time.Now(),
	}

	e.logger.Info("quiz started",
		zap.String("user_id", user.ID),
		zap.Int64("session_id", sessionID),
		zap.Int("questions", len(questions)),
	)

	return render.Question(user.DisplayName, 0, len(questions), questions[0]), nil
}

// Submit feeds one inbound plain message into the user's quiz. With no
// quiz in progress it is a silent no-op (nil reply, nil error).
// Command-prefixed input never advances the quiz. When the final answer
// arrives the state is removed, the session finishes and the returned
// reply carries the rendered recommendation.
func (e *Engine) Submit(ctx context.Context, user User, text string) ([]string, error) {
	if strings.HasPrefix(strings.TrimSpace(text), CommandPrefix) {
		return nil, nil
	}

	answer := strings.TrimSpace(text)
	if answer == "" {
		return nil, nil
	}
	if runes := []rune(answer); len(runes) > e.cfg.MaxAnswerRunes {
		answer = string(runes[:e.cfg.MaxAnswerRunes])
	}

	e.mu.Lock()
	state, ok := e.active[user.ID]
	if !ok {
		e.mu.Unlock()
		return nil, nil
	}

	question := state.questions[state.index]
	if err := e.store.RecordAnswer(ctx, state.sessionID, user.ID, question, answer); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("record answer: %w", err)
	}

	state.answers = append(state.answers, answer)
	state.index++
	state.lastActivity = time.Now()

	if state.index < len(state.questions) {
		next := state.questions[state.index]
		index := state.index
		total := len(state.questions)
		e.mu.Unlock()
		return []string{render.Question(user.DisplayName, index, total, next)}, nil
	}

	// Terminal transition: drop the in-memory state exactly once, then
	// complete outside the lock so the AI call never blocks other users.
	delete(e.active, user.ID)
	e.mu.Unlock()

	return e.complete(ctx, user, state)
}

func (e *Engine) complete(ctx context.Context, user User, state *activeQuiz) ([]string, error) {
	if err := e.store.FinishSession(ctx, state.sessionID); err != nil {
		return nil, fmt.Errorf("finish session: %w", err)
	}

	exchanges := make([]advice.Exchange, len(state.questions))
	for i, q := range state.questions {
		exchanges[i] = advice.Exchange{Question: q, Answer: state.answers[i]}
	}

	rec := e.recommender.Recommend(ctx, exchanges, state.history)

	if err := e.store.RecordResult(ctx, state.sessionID, rec.Career, rec.Reason, rec.Skills); err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}

	e.logger.Info("quiz completed",
		zap.String("user_id", user.ID),
		zap.Int64("session_id", state.sessionID),
		zap.String("career", rec.Career),
		zap.Bool("degraded", rec.Degraded),
	)

	return []string{render.Recommendation(rec)}, nil
}

// Abandon drops the user's in-progress quiz, if any, and reports whether
// one existed. Persisted answers of the abandoned session are kept.
func (e *Engine) Abandon(user User) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.active[user.ID]; !ok {
		return false
	}

	delete(e.active, user.ID)
	e.logger.Info("quiz abandoned", zap.String("user_id", user.ID))
	return true
}

// SweepIdle removes quizzes with no activity for longer than maxIdle and
// returns how many were dropped. Bounds memory held by walked-away users.
func (e *Engine) SweepIdle(maxIdle time.Duration) int {
	deadline := time.Now().Add(-maxIdle)

	e.mu.Lock()
	defer e.mu.Unlock()

	dropped := 0
	for userID, state := range e.active {
		if state.lastActivity.Before(deadline) {
			delete(e.active, userID)
			dropped++
			e.logger.Info("idle quiz swept",
				zap.String("user_id", userID),
				zap.Int64("session_id", state.sessionID),
				zap.Int("answered", state.index),
			)
		}
	}
	return dropped
}

// Active reports whether the user has a quiz in progress.
func (e *Engine) Active(user User) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[user.ID]
	return ok
}

// ActiveCount returns the number of quizzes currently in progress.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

func (e *Engine) priorHistory(ctx context.Context, userID string) ([]advice.Exchange, error) {
	entries, err := e.store.HistoryForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(entries) > e.cfg.HistoryLimit {
		entries = entries[len(entries)-e.cfg.HistoryLimit:]
	}

	history := make([]advice.Exchange, len(entries))
	for i, entry := range entries {
		history[i] = advice.Exchange{Question: entry.Question, Answer: entry.Answer}
	}
	return history, nil
}
