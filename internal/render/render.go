// Package render turns engine output into plain-text chat messages. It is
// the only place message wording lives; transports just deliver strings.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oztrk/careerbot/internal/advice"
	"github.com/oztrk/careerbot/internal/catalog"
)

// Question renders the prompt for the question at position index (0-based)
// out of total.
func Question(displayName string, index, total int, text string) string {
	return fmt.Sprintf("%s\n📌 Question %d/%d: %s", mention(displayName), index+1, total, text)
}

// Recommendation renders the career recommendation card.
func Recommendation(rec *advice.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎯 Recommended career: %s\n\n%s", rec.Career, rec.Reason)

	if len(rec.Skills) > 0 {
		fmt.Fprintf(&b, "\n\nRecommended skills: %s", strings.Join(rec.Skills, ", "))
	}

	if rec.Degraded {
		b.WriteString("\n\n⚠️ The recommendation service did not return a usable analysis. Try again later with !career.")
	}

	return b.String()
}

// Browse renders the catalog grouped by category, categories sorted by name.
func Browse(groups map[string][]catalog.Question) string {
	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("📚 Quiz questions by category:")
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n\n%s:", cat)
		for _, q := range groups[cat] {
			fmt.Fprintf(&b, "\n  • %s", q.Text)
		}
	}
	return b.String()
}

// SessionActive tells the user a quiz is already running.
func SessionActive(displayName string) string {
	return fmt.Sprintf("%s you already have a quiz in progress. Answer the current question or send !cancel to abandon it.", mention(displayName))
}

// Cancelled confirms an abandoned quiz.
func Cancelled(displayName string) string {
	return fmt.Sprintf("%s your quiz was cancelled. Start over any time with !career.", mention(displayName))
}

// NothingToCancel is the reply to !cancel with no quiz running.
func NothingToCancel(displayName string) string {
	return fmt.Sprintf("%s you have no quiz in progress.", mention(displayName))
}

// UnknownCommand is the reply to an unrecognized command.
func UnknownCommand(command string) string {
	return fmt.Sprintf("Unknown command %q. Try !career, !browse or !cancel.", command)
}

// StartFailed is the notice shown when a quiz could not be started.
func StartFailed(displayName string) string {
	return fmt.Sprintf("%s your quiz could not be started right now. Please try again in a moment.", mention(displayName))
}

// CompletionFailed is the notice shown when the result could not be stored.
func CompletionFailed(displayName string) string {
	return fmt.Sprintf("%s something went wrong while finishing your quiz. Please try again with !career.", mention(displayName))
}

func mention(displayName string) string {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "Hey,"
	}
	return "@" + displayName
}
