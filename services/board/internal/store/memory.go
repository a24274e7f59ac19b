package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a development-only in-memory implementation.
type InMemoryStore struct {
	mu       sync.RWMutex
	comments map[string]Comment
	reports  map[string]Report
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		comments: make(map[string]Comment),
		reports:  make(map[string]Report),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func cloneComment(c Comment) Comment {
	c.LikedBy = slices.Clone(c.LikedBy)
	c.ReportedBy = slices.Clone(c.ReportedBy)
	if c.LikedBy == nil {
		c.LikedBy = []string{}
	}
	if c.ReportedBy == nil {
		c.ReportedBy = []string{}
	}
	return c
}

func (s *InMemoryStore) CreateComment(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	c.LikedBy, c.ReportedBy = nil, nil
	c.Likes, c.ReportCount = 0, 0
	c.Version = 1
	c = cloneComment(c)
	s.comments[c.ID] = c
	return cloneComment(c), nil
}

func (s *InMemoryStore) GetComment(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *InMemoryStore) ListComments(_ context.Context, f CommentFilter) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		if c.MissingPersonID != f.MissingPersonID {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if c.IsHidden && !f.IncludeHidden {
			continue
		}
		out = append(out, cloneComment(c))
	}

	newer := func(a, b Comment) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
	if f.Order == OrderPopular {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Likes != out[j].Likes {
				return out[i].Likes > out[j].Likes
			}
			return newer(out[i], out[j])
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	}

	if n := f.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *InMemoryStore) UpdateComment(_ context.Context, id string, m Mutation) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	next, err := m(cloneComment(cur))
	if err != nil {
		return Comment{}, err
	}
	next.ID, next.Version = cur.ID, cur.Version+1
	s.comments[id] = cloneComment(next)
	return cloneComment(next), nil
}

func (s *InMemoryStore) FileReport(_ context.Context, r Report, m Mutation) (Comment, Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.comments[r.CommentID]
	if !ok {
		return Comment{}, Report{}, ErrNotFound
	}
	for _, existing := range s.reports {
		if existing.CommentID == r.CommentID && existing.ReporterID == r.ReporterID {
			return Comment{}, Report{}, ErrDuplicateReport
		}
	}
	next, err := m(cloneComment(cur))
	if err != nil {
		return Comment{}, Report{}, err
	}

	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	r.Status = StatusPending
	next.ID, next.Version = cur.ID, cur.Version+1

	s.comments[cur.ID] = cloneComment(next)
	s.reports[r.ID] = r
	return cloneComment(next), r, nil
}

func (s *InMemoryStore) GetReport(_ context.Context, id string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) ListReports(_ context.Context, f ReportFilter) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Report{}
	for _, r := range s.reports {
		if f.Status == "" || r.Status == f.Status {
			out = append(out, r)
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

func (s *InMemoryStore) UpdateReport(_ context.Context, id string, m ReportMutation) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	next, err := m(cur)
	if err != nil {
		return Report{}, err
	}
	next.ID = cur.ID
	s.reports[id] = next
	return next, nil
}
