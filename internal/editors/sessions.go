package editors

import (
	"sync"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/sheet"
)

// Session is the uncommitted state of a chip editor.
type Session struct {
	Chips catalog.Value
	Input string
}

// Sessions keeps chip editor state by cell, so reopening a cell whose
// editor lost focus without committing resumes where the user left off.
type Sessions struct {
	mu   sync.Mutex
	byID map[sheet.CellKey]Session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{byID: make(map[sheet.CellKey]Session)}
}

// Get returns the session for key.
func (s *Sessions) Get(key sheet.CellKey) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[key]
	return sess, ok
}

// Start stores sess for key, replacing any earlier one.
func (s *Sessions) Start(key sheet.CellKey, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[key] = Session{Chips: catalog.Clone(sess.Chips), Input: sess.Input}
}

// Discard drops the session for key.
func (s *Sessions) Discard(key sheet.CellKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, key)
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
