package panel

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps one panel per browser session
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
}

type entry struct {
	state    *State
	lastSeen time.Time
}

// NewStore creates a store that forgets sessions idle for longer than ttl
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*entry),
		ttl:      ttl,
	}
}

// Get returns the panel for id, creating it if needed
func (s *Store) Get(id uuid.UUID) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		e = &entry{state: New()}
		s.sessions[id] = e
	}
	e.lastSeen = time.Now()
	return e.state
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup drops sessions idle since before now-ttl and returns how many
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
