package records

import (
	"context"
	"errors"
	"testing"
	"time"
)

func person(id string, cat Category, created time.Time) MissingPerson {
	return MissingPerson{
		ID:        id,
		Name:      "홍길동",
		Gender:    GenderMale,
		Category:  cat,
		Status:    StatusActive,
		Source:    SourceAPI,
		CreatedAt: created,
	}
}

func TestInMemoryStore_CreateExists(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if ok, _ := s.Exists(ctx, "A1"); ok {
		t.Fatal("expected A1 to be absent")
	}
	created, err := s.Create(ctx, person("A1", CategoryDementia, time.Time{}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
	if ok, _ := s.Exists(ctx, "A1"); !ok {
		t.Fatal("expected A1 to exist")
	}
	if _, err := s.Create(ctx, person("A1", CategoryRunaway, time.Time{})); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, _ := s.Get(ctx, "A1")
	if got.Category != CategoryDementia {
		t.Fatalf("duplicate create must not overwrite, got %s", got.Category)
	}
}

func TestInMemoryStore_ListFilterOrderLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _ = s.Create(ctx, person("old", CategoryDementia, base))
	_, _ = s.Create(ctx, person("mid", CategoryRunaway, base.Add(time.Hour)))
	_, _ = s.Create(ctx, person("new", CategoryDementia, base.Add(2*time.Hour)))

	all, _ := s.List(ctx, Filter{})
	if len(all) != 3 || all[0].ID != "new" || all[2].ID != "old" {
		t.Fatalf("unexpected order: %v", ids(all))
	}
	dem, _ := s.List(ctx, Filter{Category: CategoryDementia})
	if len(dem) != 2 {
		t.Fatalf("expected 2 dementia records, got %d", len(dem))
	}
	one, _ := s.List(ctx, Filter{Limit: 1})
	if len(one) != 1 || one[0].ID != "new" {
		t.Fatalf("expected newest only, got %v", ids(one))
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_, _ = s.Create(ctx, person("U1", CategoryUnknown, time.Time{}))

	if err := s.Delete(ctx, "U1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "U1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "U1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFilter_LimitBounds(t *testing.T) {
	if (Filter{}).limit() != DefaultListLimit {
		t.Fatal("zero limit must use default")
	}
	if (Filter{Limit: 1000}).limit() != MaxListLimit {
		t.Fatal("limit must be capped")
	}
}

func TestStoreInterface(t *testing.T) {
	var _ Store = (*InMemoryStore)(nil)
	var _ Store = (*PostgresStore)(nil)
}

func ids(ps []MissingPerson) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
