package sentiment

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const scoringInstructions = `You score the tone of financial news headlines for investors.
For each numbered headline return one compound sentiment score between -1 (very negative)
and 1 (very positive), 0 when neutral. Respond with a JSON array of numbers only, one per
headline, in the same order.`

func buildPrompt(headlines []string) string {
	var b strings.Builder
	b.WriteString("Headlines:\n")
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(h))
	}
	return b.String()
}

// parseScores reads a JSON array of n numbers from model output, tolerating a
// markdown code fence. Scores are clamped to [-1,1].
func parseScores(text string, n int) ([]float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var scores []float64
	if err := json.Unmarshal([]byte(cleaned), &scores); err != nil {
		return nil, fmt.Errorf("failed to parse scores %q: %w", truncate(text, 120), err)
	}
	if len(scores) != n {
		return nil, fmt.Errorf("expected %d scores, got %d", n, len(scores))
	}

	for i, s := range scores {
		if math.IsNaN(s) {
			s = 0
		}
		scores[i] = clampCompound(s)
	}
	return scores, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
