package supportstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/support-assistant/internal/domain/support"
)

type answerEntry struct {
	payload   support.AnswerRecord
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of support.Store for tests/dev.
type MemoryStore struct {
	mu       sync.RWMutex
	answers  map[string]answerEntry
	trending map[string]int64
	displays map[string]string
	now      func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		answers:  make(map[string]answerEntry),
		trending: make(map[string]int64),
		displays: make(map[string]string),
		now:      time.Now,
	}
}

// GetAnswer implements support.Store.
func (s *MemoryStore) GetAnswer(_ context.Context, key string) (support.AnswerRecord, bool, error) {
	if key == "" {
		return support.AnswerRecord{}, false, nil
	}
	s.mu.RLock()
	entry, ok := s.answers[key]
	s.mu.RUnlock()
	if !ok {
		return support.AnswerRecord{}, false, nil
	}
	if s.hasExpired(entry.expiresAt) {
		s.mu.Lock()
		delete(s.answers, key)
		s.mu.Unlock()
		return support.AnswerRecord{}, false, nil
	}
	return entry.payload, true, nil
}

// SaveAnswer caches the answer with optional TTL.
func (s *MemoryStore) SaveAnswer(_ context.Context, record support.AnswerRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.answers[record.Key] = answerEntry{payload: record, expiresAt: exp}
	return nil
}

// IncrementQuery bumps the counter for a canonical question and records a display string.
func (s *MemoryStore) IncrementQuery(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending[canonical]++
	if _, exists := s.displays[canonical]; !exists {
		s.displays[canonical] = display
	}
	return nil
}

// TopQueries returns the most frequently matched questions.
func (s *MemoryStore) TopQueries(_ context.Context, limit int) ([]support.TrendingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.trending)
	}
	items := make([]support.TrendingQuery, 0, len(s.trending))
	for canonical, count := range s.trending {
		display := s.displays[canonical]
		if display == "" {
			display = canonical
		}
		items = append(items, support.TrendingQuery{Query: display, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Query < items[j].Query
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ support.Store = (*MemoryStore)(nil)
