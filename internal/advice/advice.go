// Package advice defines the career recommendation contract between the
// interview engine and the AI provider.
package advice

import "context"

// Exchange is one question/answer pair shown to the recommender.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Recommendation is the structured outcome of one completed quiz.
type Recommendation struct {
	Career string   `json:"career_name"`
	Reason string   `json:"reason"`
	Skills []string `json:"recommended_skills"`

	// Degraded is set when the provider call or its response parsing
	// failed and the recommendation carries fallback values.
	Degraded bool `json:"-"`
}

// Recommender turns a completed quiz (and optional prior history) into a
// single career recommendation. Implementations absorb provider failures:
// Recommend never returns an error, only a possibly degraded result.
type Recommender interface {
	Recommend(ctx context.Context, current []Exchange, history []Exchange) *Recommendation
}
