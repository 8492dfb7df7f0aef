package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gamo-keyword-api/models"
)

// MemoryStore keeps records in insertion order. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Keyword
	ids     map[string]struct{}
	now     func() time.Time
	last    time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
		now: time.Now,
	}
}

// WithClock replaces the time source. Stamps stay non-decreasing even if the
// clock goes backwards.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Insert(ctx context.Context, kw *models.Keyword) (string, error) {
	return insertOne(ctx, s, kw)
}

func (s *MemoryStore) InsertBatch(ctx context.Context, kws []*models.Keyword) error {
	if err := ctx.Err(); err != nil {
		return storageError("insert keywords", err)
	}
	if err := prepareBatch(kws); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(kws))
	for _, kw := range kws {
		if _, ok := s.ids[kw.ID]; ok {
			return fmt.Errorf("insert keyword %s: %w", kw.ID, ErrDuplicateID)
		}
		if _, ok := seen[kw.ID]; ok {
			return fmt.Errorf("insert keyword %s: %w", kw.ID, ErrDuplicateID)
		}
		seen[kw.ID] = struct{}{}
	}

	stamp := s.stamp()
	for _, kw := range kws {
		kw.CreatedAt = stamp
		s.ids[kw.ID] = struct{}{}
		s.records = append(s.records, *kw)
	}
	return nil
}

func (s *MemoryStore) stamp() time.Time {
	now := s.now().UTC()
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	return now
}

func (s *MemoryStore) FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error) {
	if len(callIDs) == 0 {
		return []models.Keyword{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, storageError("find keywords", err)
	}

	wanted := make(map[int64]struct{}, len(callIDs))
	for _, id := range callIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Keyword{}
	for _, kw := range s.records {
		if _, ok := wanted[kw.CallID]; ok {
			out = append(out, kw)
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
