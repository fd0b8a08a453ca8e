package trim

import (
	"context"
	"sync"

	"github.com/alt-coder/pocketchat/llm"
)

// CachingCounter memoizes message weights so a remote counter is asked about each
// distinct message once. Safe for concurrent use.
type CachingCounter struct {
	next llm.TokenCounter

	mu      sync.RWMutex
	weights map[cacheKey]int
}

type cacheKey struct {
	role    llm.Role
	content string
}

// NewCachingCounter wraps next with a weight cache.
func NewCachingCounter(next llm.TokenCounter) *CachingCounter {
	return &CachingCounter{next: next, weights: make(map[cacheKey]int)}
}

// CountTokens implements llm.TokenCounter. Errors are not cached.
func (c *CachingCounter) CountTokens(ctx context.Context, msg llm.Message) (int, error) {
	key := cacheKey{role: msg.Role, content: msg.Content}

	c.mu.RLock()
	weight, ok := c.weights[key]
	c.mu.RUnlock()
	if ok {
		return weight, nil
	}

	weight, err := c.next.CountTokens(ctx, msg)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.weights[key] = weight
	c.mu.Unlock()
	return weight, nil
}

// Len returns the number of cached weights.
func (c *CachingCounter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.weights)
}
