package history

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

const defaultMemoryGC = 5 * time.Minute

// memoryStore keeps records in a map plus an index ordered by (CreatedAt, ID)
// so List walks newest first without sorting.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []indexKey
	ttl     time.Duration

	done     chan struct{}
	doneOnce sync.Once
}

type indexKey struct {
	created time.Time
	id      string
}

func compareKeys(a, b indexKey) int {
	if c := a.created.Compare(b.created); c != 0 {
		return c
	}
	return cmp.Compare(a.id, b.id)
}

// NewMemory builds an in-memory store and starts its expiry sweep.
func NewMemory(cfg Config) Store {
	interval := defaultMemoryGC
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		interval = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		records: make(map[string]Record),
		ttl:     cfg.TTL,
		done:    make(chan struct{}),
	}
	go s.sweep(interval)
	return s
}

func (s *memoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		}
	}
}

func (s *memoryStore) Save(_ context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id required")
	}
	record = record.stamp(time.Now(), s.ttl)
	key := indexKey{created: record.CreatedAt, id: record.ID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.records[record.ID]; ok {
		s.unindex(prev)
	}
	s.records[record.ID] = record
	pos, _ := slices.BinarySearchFunc(s.order, key, compareKeys)
	s.order = slices.Insert(s.order, pos, key)
	return nil
}

// unindex must be called with mu held.
func (s *memoryStore) unindex(record Record) {
	key := indexKey{created: record.CreatedAt, id: record.ID}
	if pos, found := slices.BinarySearchFunc(s.order, key, compareKeys); found {
		s.order = slices.Delete(s.order, pos, pos+1)
	}
}

func (s *memoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok || record.expired(time.Now()) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return record, nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]Record, error) {
	limit = normalizeLimit(limit)
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		if record := s.records[s.order[i].id]; !record.expired(now) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id]; ok {
		s.unindex(record)
		delete(s.records, id)
	}
	return nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = slices.DeleteFunc(s.order, func(k indexKey) bool {
		if s.records[k.id].expired(now) {
			delete(s.records, k.id)
			return true
		}
		return false
	})
	return nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := time.Now()
	byKind := map[string]int{}
	active := 0

	s.mu.RLock()
	total := len(s.records)
	for _, record := range s.records {
		if record.expired(now) {
			continue
		}
		active++
		byKind[string(record.Kind)]++
	}
	s.mu.RUnlock()

	return map[string]any{
		"type":        "memory",
		"total":       total,
		"active":      active,
		"by_kind":     byKind,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })
	return nil
}
