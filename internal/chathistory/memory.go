package chathistory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps journals in a mutex-guarded map, oldest entry first.
// Used for tests and for running the service without a BigQuery project;
// journals are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Interaction
}

// NewMemoryStore creates an empty in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Interaction)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, in Interaction) error {
	if in.Identity == "" {
		return fmt.Errorf("interaction identity is required")
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	in.FiltersApplied = append([]string(nil), in.FiltersApplied...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[in.Identity] = append(s.entries[in.Identity], in)
	return nil
}

// History implements Store. Entries come back newest first.
func (s *MemoryStore) History(ctx context.Context, identity string, limit, offset int) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}
	all := s.entries[identity]
	out := make([]Interaction, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		in := all[i]
		in.FiltersApplied = append([]string(nil), in.FiltersApplied...)
		out = append(out, in)
	}
	return out, nil
}

// Recent implements Store. Repeated questions appear once, at their most
// recent position.
func (s *MemoryStore) Recent(ctx context.Context, identity string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}
	all := s.entries[identity]
	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		q := all[i].Question
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(ctx context.Context, identity string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[identity]
	stats := &Stats{
		Identity:     identity,
		Interactions: len(all),
		ByMode:       make(map[string]int),
	}
	for _, in := range all {
		if in.Mode != "" {
			stats.ByMode[in.Mode]++
		}
	}
	if len(all) > 0 {
		first, last := all[0].CreatedAt, all[len(all)-1].CreatedAt
		stats.FirstAt = &first
		stats.LastAt = &last
	}
	return stats, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, identity)
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
