package records

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a development-only implementation.
type InMemoryStore struct {
	mu      sync.RWMutex
	persons map[string]MissingPerson
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{persons: make(map[string]MissingPerson), now: time.Now}
}

func (s *InMemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.persons[id]
	return ok, nil
}

func (s *InMemoryStore) Create(_ context.Context, p MissingPerson) (MissingPerson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.ID]; ok {
		return MissingPerson{}, ErrExists
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.persons[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (MissingPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[id]
	if !ok {
		return MissingPerson{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) List(_ context.Context, f Filter) ([]MissingPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MissingPerson, 0, len(s.persons))
	for _, p := range s.persons {
		if f.match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n := f.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[id]; !ok {
		return ErrNotFound
	}
	delete(s.persons, id)
	return nil
}
