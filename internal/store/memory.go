package store

import (
	"sync"
	"time"

	"github.com/i474232898/farm-advisor/internal/chat"
)

// conversation holds the ordered turns for one session.
type conversation struct {
	Turns []chat.Turn
}

// MemoryStore is a concurrency-safe in-memory session store. Nothing survives
// a restart.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*conversation

	// hard cap on turns per session (0 = unlimited)
	maxTurns int
}

// NewMemoryStore creates a MemoryStore. If maxTurns is <= 0, sessions are unbounded.
func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		data:     make(map[string]*conversation),
		maxTurns: maxTurns,
	}
}

// Get returns a copy of the session's turns, or an empty slice.
func (s *MemoryStore) Get(sessionID string) []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.data[sessionID]
	if !ok {
		return []chat.Turn{}
	}
	out := make([]chat.Turn, len(conv.Turns))
	copy(out, conv.Turns)
	return out
}

// Append adds turns to the end of a session, creating it if needed, and
// returns the resulting length.
func (s *MemoryStore) Append(sessionID string, turns ...chat.Turn) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.data[sessionID]
	if !ok {
		conv = &conversation{}
		s.data[sessionID] = conv
	}
	conv.Turns = append(conv.Turns, turns...)

	// Enforce retention by count.
	if s.maxTurns > 0 && len(conv.Turns) > s.maxTurns {
		over := len(conv.Turns) - s.maxTurns
		conv.Turns = append([]chat.Turn(nil), conv.Turns[over:]...)
	}
	return len(conv.Turns)
}

// Clear removes a session. Unknown ids are ignored.
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
}

// Truncate keeps only the most recent maxTurns turns of a session.
func (s *MemoryStore) Truncate(sessionID string, maxTurns int) {
	if maxTurns <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.data[sessionID]
	if !ok || len(conv.Turns) <= maxTurns {
		return
	}
	over := len(conv.Turns) - maxTurns
	conv.Turns = append([]chat.Turn(nil), conv.Turns[over:]...)
}

// Sweep deletes sessions that are empty or whose last turn is older than
// cutoff, and returns how many were removed.
func (s *MemoryStore) Sweep(cutoff time.Time) int {
	limit := cutoff.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, conv := range s.data {
		if len(conv.Turns) == 0 || conv.Turns[len(conv.Turns)-1].Timestamp < limit {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
