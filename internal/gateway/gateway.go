// Package gateway exposes the chat surface and read-only history views
// over HTTP. It is a thin transport: all quiz behavior lives behind the
// dispatcher.
package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oztrk/careerbot/internal/dispatch"
	"github.com/oztrk/careerbot/internal/interview"
	"github.com/oztrk/careerbot/internal/store"
	"go.uber.org/zap"
)

// Handler serves the HTTP API.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	store      store.Store
	logger     *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(d *dispatch.Dispatcher, st store.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{dispatcher: d, store: st, logger: log}
}

// Router builds the chi router for the gateway.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Post("/v1/messages", h.handleMessage)
	r.Get("/v1/users/{userID}/history", h.handleHistory)
	r.Get("/v1/users/{userID}/results", h.handleResults)
	r.Get("/healthz", h.handleHealth)

	return r
}

type inboundMessage struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

type messageResponse struct {
	MessageID string   `json:"message_id"`
	Replies   []string `json:"replies"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(msg.UserID) == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	messageID := uuid.NewString()
	user := interview.User{ID: msg.UserID, DisplayName: msg.DisplayName}

	h.logger.Debug("inbound message",
		zap.String("message_id", messageID),
		zap.String("user_id", user.ID),
		zap.Int("text_length", len(msg.Text)),
	)

	replies := h.dispatcher.Handle(r.Context(), user, msg.Text)
	if replies == nil {
		replies = []string{}
	}

	JSON(w, http.StatusOK, messageResponse{MessageID: messageID, Replies: replies})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	history, err := h.store.HistoryForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("loading history failed", zap.String("user_id", userID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	JSON(w, http.StatusOK, map[string]any{"user_id": userID, "history": history})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	results, err := h.store.ResultsForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("loading results failed", zap.String("user_id", userID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to load results")
		return
	}

	JSON(w, http.StatusOK, map[string]any{"user_id": userID, "results": results})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
