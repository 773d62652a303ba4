package store

import (
	"context"
	"sync"

	"github.com/SonJH7/status-allocation-berths/core/model"
	"github.com/SonJH7/status-allocation-berths/core/schedule"
)

// MemoryStore keeps the version chain in process memory. It is used for tests
// and ephemeral runs; all returned slices are copies so committed versions
// stay immutable.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	versions map[string]model.Version
	sets     map[string][]model.Assignment
	seq      int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[string]model.Version),
		sets:     make(map[string][]model.Assignment),
	}
}

func cloneAssignments(in []model.Assignment) []model.Assignment {
	out := make([]model.Assignment, len(in))
	copy(out, in)
	return out
}

// Head implements schedule.Store.
func (s *MemoryStore) Head(ctx context.Context) (model.Version, []model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return model.Version{}, nil, schedule.ErrUnknownVersion
	}
	id := s.order[len(s.order)-1]
	return s.versions[id], cloneAssignments(s.sets[id]), nil
}

// Get implements schedule.Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Version, []model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return model.Version{}, nil, schedule.ErrUnknownVersion
	}
	return v, cloneAssignments(s.sets[id]), nil
}

// List implements schedule.Store.
func (s *MemoryStore) List(ctx context.Context) ([]model.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Version, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.versions[id])
	}
	return out, nil
}

// Commit implements schedule.Store.
func (s *MemoryStore) Commit(ctx context.Context, v model.Version, assignments []model.Assignment) (model.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	v.Seq = s.seq
	s.versions[v.ID] = v
	s.sets[v.ID] = cloneAssignments(assignments)
	s.order = append(s.order, v.ID)
	return v, nil
}

// Close implements schedule.Store.
func (s *MemoryStore) Close() error { return nil }
