package search

import (
	"sync"
	"time"
)

// Sequencer tracks the newest search each client has started so a slower,
// older search can be dropped instead of overwriting fresher results.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]sequence
	ttl    time.Duration
	now    func() time.Time
}

type sequence struct {
	seq     uint64
	touched time.Time
}

func NewSequencer(ttl time.Duration) *Sequencer {
	return &Sequencer{
		latest: make(map[string]sequence),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Begin records that client started search seq. It returns false when a
// later search from the same client has already started.
func (s *Sequencer) Begin(client string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	cur, ok := s.latest[client]
	if ok && seq < cur.seq {
		return false
	}
	s.latest[client] = sequence{seq: seq, touched: now}
	return true
}

// Current reports whether seq is still the newest search for client.
func (s *Sequencer) Current(client string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.latest[client]
	return !ok || cur.seq == seq
}

func (s *Sequencer) prune(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for client, entry := range s.latest {
		if now.Sub(entry.touched) > s.ttl {
			delete(s.latest, client)
		}
	}
}
