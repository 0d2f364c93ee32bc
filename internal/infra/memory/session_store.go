package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session domain.Session
	items   []domain.SessionItem
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *SessionStore) Items(_ context.Context, id string) ([]domain.SessionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.SessionItem, len(entry.items))
	copy(out, entry.items)
	return out, nil
}

func (s *SessionStore) Append(_ context.Context, id string, item domain.SessionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	entry.items = append(entry.items, item)
	return nil
}

func (s *SessionStore) PatchLast(_ context.Context, id string, item domain.SessionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if len(entry.items) == 0 {
		return domain.ErrNoPendingQuestion
	}
	entry.items[len(entry.items)-1] = item
	return nil
}

func (s *SessionStore) MarkConcluded(_ context.Context, id string, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if entry.session.Concluded() {
		return domain.ErrSessionConcluded
	}
	at := session.ConcludedAt
	if at == nil {
		return nil
	}
	concluded := *at
	entry.session.ConcludedAt = &concluded
	return nil
}

func (s *SessionStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*sessionEntry)
	return nil
}
