package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// ExclusionStore keeps each user's ordered exclusion list and its normalized
// index under one mutex.
type ExclusionStore struct {
	mu    sync.RWMutex
	users map[string]*exclusionList
}

type exclusionList struct {
	ordered []string
	index   map[string]struct{}
}

func NewExclusionStore() *ExclusionStore {
	return &ExclusionStore{users: make(map[string]*exclusionList)}
}

func (s *ExclusionStore) Count(_ context.Context, username string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.users[username]; ok {
		return len(l.ordered), nil
	}
	return 0, nil
}

func (s *ExclusionStore) List(_ context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.users[username]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(l.ordered))
	copy(out, l.ordered)
	return out, nil
}

func (s *ExclusionStore) Merge(_ context.Context, username string, entries []domain.ExclusionEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.users[username]
	if !ok {
		l = &exclusionList{index: make(map[string]struct{})}
		s.users[username] = l
	}
	added := 0
	for _, e := range entries {
		if _, exists := l.index[e.Normalized]; exists {
			continue
		}
		l.index[e.Normalized] = struct{}{}
		l.ordered = append(l.ordered, e.Question)
		added++
	}
	return added, nil
}

func (s *ExclusionStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*exclusionList)
	return nil
}
