// Package thread keeps per-conversation message histories in process memory.
package thread

import (
	"slices"
	"sync"

	"github.com/alt-coder/pocketchat/llm"
)

// history is one thread's append-only message log.
type history struct {
	mu       sync.Mutex
	messages []llm.Message
}

// Store maps thread ids to histories with create-on-first-use semantics.
// Threads are never deleted and live for the lifetime of the process.
// All methods are safe for concurrent use; operations on different threads
// only contend briefly on the index lock.
type Store struct {
	mu      sync.RWMutex
	threads map[string]*history
	order   []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{threads: make(map[string]*history)}
}

// thread returns the history for id, creating it if absent.
func (s *Store) thread(id string) *history {
	s.mu.RLock()
	h, ok := s.threads[id]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.threads[id]; ok {
		return h
	}
	h = &history{}
	s.threads[id] = h
	s.order = append(s.order, id)
	return h
}

// GetOrCreate returns a copy of the thread's history in append order, creating
// an empty thread if the id has not been seen before.
func (s *Store) GetOrCreate(id string) []llm.Message {
	h := s.thread(id)
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.messages)
}

// Append adds messages to the end of the thread's history, creating the thread if absent.
func (s *Store) Append(id string, msgs ...llm.Message) {
	h := s.thread(id)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// Len returns the number of messages in the thread, creating it if absent.
func (s *Store) Len(id string) int {
	h := s.thread(id)
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Threads returns the known thread ids in creation order.
func (s *Store) Threads() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}
