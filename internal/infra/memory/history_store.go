package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// HistoryStore keeps a bounded per-user answer log, oldest evicted first.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.HistoryRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string][]domain.HistoryRecord)}
}

func (s *HistoryStore) Append(_ context.Context, record domain.HistoryRecord, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.records[record.Username], record)
	if limit > 0 && len(list) > limit {
		list = append([]domain.HistoryRecord(nil), list[len(list)-limit:]...)
	}
	s.records[record.Username] = list
	return nil
}

// List returns up to limit records, newest first.
func (s *HistoryStore) List(_ context.Context, username string, limit int) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.records[username]
	n := len(list)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.HistoryRecord, 0, n)
	for i := len(list) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *HistoryStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string][]domain.HistoryRecord)
	return nil
}

// TopicStore records completed topics per user in first-concluded order.
type TopicStore struct {
	mu     sync.RWMutex
	topics map[string][]string
}

func NewTopicStore() *TopicStore {
	return &TopicStore{topics: make(map[string][]string)}
}

func (s *TopicStore) AddCompleted(_ context.Context, username, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics[username] {
		if t == topic {
			return nil
		}
	}
	s.topics[username] = append(s.topics[username], topic)
	return nil
}

func (s *TopicStore) Completed(_ context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.topics[username]))
	copy(out, s.topics[username])
	return out, nil
}

func (s *TopicStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = make(map[string][]string)
	return nil
}
