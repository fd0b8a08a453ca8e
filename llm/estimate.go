package llm

import "context"

// messageOverhead approximates the role and framing tokens every chat message costs.
const messageOverhead = 3

// EstimateTokens estimates token count using the ~4 chars/token heuristic.
// Good enough for budget comparison, not billing-accurate.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateCounter is a TokenCounter for providers without a counting endpoint.
type EstimateCounter struct{}

// CountTokens implements TokenCounter
func (EstimateCounter) CountTokens(_ context.Context, msg Message) (int, error) {
	return EstimateTokens(msg.Content) + messageOverhead, nil
}
