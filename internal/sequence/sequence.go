// Package sequence issues per-key request numbers so that only the most
// recently issued request for a key may apply its result.
package sequence

import "sync"

// Sequencer tracks the latest issued number per key.
type Sequencer struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64
}

// New creates a Sequencer.
func New() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Next issues a number for key, superseding every earlier one.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.latest[key] = s.next
	return s.next
}

// IsLatest reports whether seq is still the newest number issued for key.
func (s *Sequencer) IsLatest(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] == seq && seq != 0
}

// Forget invalidates every outstanding number for key.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.latest, key)
}

// Reset invalidates everything.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.latest)
}
