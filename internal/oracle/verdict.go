// Package oracle submits aggregated course texts to a language model and
// returns its similarity verdict.
package oracle

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// MaxCompletionTokens caps the length of the verdict
const MaxCompletionTokens = 150

// Client compares two texts
type Client interface {
	Compare(ctx context.Context, textA, textB string) (Verdict, error)
}

// Verdict is the oracle's answer. Text is passed through verbatim; Score is a
// best-effort reading of the 0-100 similarity value and is nil when the text
// does not state one clearly.
type Verdict struct {
	Text  string `json:"comparison_result"`
	Score *int   `json:"score,omitempty"`
}

// NewVerdict wraps text and extracts its score
func NewVerdict(text string) Verdict {
	return Verdict{Text: text, Score: ExtractScore(text)}
}

// BuildPrompt embeds both course texts in the comparison instruction
func BuildPrompt(textA, textB string) string {
	return fmt.Sprintf(
		"Compare the following two texts and determine whether the course contents match:\n"+
			"Text 1:\n%s\n\n"+
			"Text 2:\n%s\n\n"+
			"Give a short explanation and a similarity value (0 to 100).",
		textA, textB,
	)
}

// Patterns tried in order; the first capture group is the score.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:similarity|score|ähnlichkeit\w*)[^0-9\n]{0,30}?(\d{1,3})(?:[.,]\d+)?`),
	regexp.MustCompile(`(?i)\b(\d{1,3})(?:[.,]\d+)?\s*(?:%|/\s*100\b|out of 100\b|von 100\b)`),
}

// ExtractScore finds a similarity value between 0 and 100 in text
func ExtractScore(text string) *int {
	for _, pattern := range scorePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			value, err := strconv.Atoi(match[1])
			if err != nil || value < 0 || value > 100 {
				continue
			}
			return &value
		}
	}
	return nil
}
