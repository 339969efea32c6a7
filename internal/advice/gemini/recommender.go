package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/oztrk/careerbot/internal/advice"
	"github.com/oztrk/careerbot/internal/logger"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	// DegradedCareer is the career name reported when the provider call or
	// its response parsing failed.
	DegradedCareer = "Undetermined"

	// degradedReasonLimit bounds the raw-reply prefix kept as the reason
	// of a degraded recommendation.
	degradedReasonLimit = 500

	defaultTimeout      = 40 * time.Second
	defaultMaxLogLength = 200
)

// Recommender asks Gemini for a single career recommendation and extracts
// the structured result from its free-text reply. It is the terminal
// error-absorption boundary: Recommend never fails, it degrades.
type Recommender struct {
	generator contentGenerator
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

// NewRecommender wires a Recommender around the given generator. A zero
// timeout falls back to 40 seconds.
func NewRecommender(generator contentGenerator, timeout time.Duration, maxLogLength int, log *zap.Logger) *Recommender {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Recommender{
		generator: generator,
		timeout:   timeout,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Recommend builds the prompt from the session's exchanges plus any prior
// history, sends one bounded request, and extracts the recommendation.
func (r *Recommender) Recommend(ctx context.Context, current, history []advice.Exchange) *advice.Recommendation {
	prompt, err := buildPrompt(current, history)
	if err != nil {
		r.logger.Warn("building recommendation prompt failed", zap.Error(err))
		return degraded(err.Error())
	}

	r.logger.Debug("gemini recommendation request",
		zap.Int("answers", len(current)),
		zap.Int("history_entries", len(history)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, r.maxLogLen)),
	)

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.generator.GenerateContent(reqCtx, prompt)
	if err != nil {
		r.logger.Warn("gemini request failed", zap.Error(err))
		return degraded(err.Error())
	}

	r.logger.Debug("gemini recommendation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, r.maxLogLen)),
	)

	rec, err := parseRecommendation(raw)
	if err != nil {
		r.logger.Warn("parsing gemini response failed", zap.Error(err))
		return degraded(raw)
	}

	return rec
}

func buildPrompt(current, history []advice.Exchange) (string, error) {
	answersJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", err
	}

	historyBlock := "none"
	if len(history) > 0 {
		historyJSON, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			return "", err
		}
		historyBlock = string(historyJSON)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{ANSWERS_JSON}}", string(answersJSON))
	prompt = strings.ReplaceAll(prompt, "{{HISTORY_JSON}}", historyBlock)
	return prompt, nil
}

type recommendationPayload struct {
	CareerName        string   `json:"career_name"`
	Reason            string   `json:"reason"`
	RecommendedSkills []string `json:"recommended_skills"`
}

func parseRecommendation(raw string) (*advice.Recommendation, error) {
	span, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var payload recommendationPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, err
	}

	career := strings.TrimSpace(payload.CareerName)
	if career == "" {
		return nil, errNoCareerName
	}

	skills := payload.RecommendedSkills
	if skills == nil {
		skills = []string{}
	}

	return &advice.Recommendation{
		Career: career,
		Reason: strings.TrimSpace(payload.Reason),
		Skills: skills,
	}, nil
}

var (
	errNoJSONSpan   = jsonSpanError("no JSON object found in response")
	errNoCareerName = jsonSpanError("response JSON has no career_name")
)

type jsonSpanError string

func (e jsonSpanError) Error() string { return string(e) }

// extractJSON returns the first balanced brace span of the reply: from the
// leftmost opening brace to the last closing brace, newlines included.
// Markdown code fences around the object are stripped first.
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", errNoJSONSpan
	}

	return raw[start : end+1], nil
}

func degraded(reason string) *advice.Recommendation {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "the recommendation service returned no usable output"
	}

	return &advice.Recommendation{
		Career:   DegradedCareer,
		Reason:   logger.TruncateForLog(reason, degradedReasonLimit),
		Skills:   []string{},
		Degraded: true,
	}
}
