package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/findme-platform/internal/platform/apperr"
	"github.com/example/findme-platform/internal/platform/auth"
	"github.com/example/findme-platform/services/board/internal/ratelimit"
	"github.com/example/findme-platform/services/board/internal/store"
)

type parents map[string]bool

func (p parents) Exists(_ context.Context, id string) (bool, error) { return p[id], nil }

type rejectBot struct{}

func (rejectBot) Verify(context.Context, string, string) error {
	return apperr.Forbidden("bot verification failed")
}

func newService() *Service {
	return &Service{
		Store:   store.NewInMemoryStore(),
		Limiter: ratelimit.NewMemory(ratelimit.DefaultLimit, ratelimit.DefaultWindow),
		Parents: parents{"p1": true},
		Now:     func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) },
	}
}

var (
	alice = auth.Identity{UID: "alice"}
	bob   = auth.Identity{UID: "bob"}
	admin = auth.Identity{UID: "root", Admin: true}
)

func create(t *testing.T, s *Service, who auth.Identity, content string) store.Comment {
	t.Helper()
	c, err := s.Create(context.Background(), who, CreateInput{MissingPersonID: "p1", Content: content, Type: "sighting", Nickname: "Alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestValidateContent_Boundaries(t *testing.T) {
	if _, err := ValidateContent("  123456789  "); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("9 runes must be rejected, got %v", err)
	}
	got, err := ValidateContent("  1234567890  ")
	if err != nil || got != "1234567890" {
		t.Fatalf("10 runes must be accepted trimmed, got %q %v", got, err)
	}
	if _, err := ValidateContent("실종된아이를찾습니다!"); err != nil {
		t.Fatalf("10 hangul runes must be accepted: %v", err)
	}
	if _, err := ValidateContent(strings.Repeat("a", MaxContentRunes+1)); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("overlong content must be rejected, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	s := newService()
	ctx := context.Background()

	c := create(t, s, alice, "  saw him near the station  ")
	if c.Content != "saw him near the station" || c.UserID != "alice" || c.Nickname != "Alice" {
		t.Fatalf("unexpected comment %+v", c)
	}

	anon, err := s.Create(ctx, alice, CreateInput{MissingPersonID: "p1", Content: "praying for a safe return", Type: "support", Nickname: "Alice", Anonymous: true})
	if err != nil || anon.Nickname != AnonymousNickname {
		t.Fatalf("anonymous: %+v %v", anon, err)
	}

	cases := []struct {
		name string
		who  auth.Identity
		in   CreateInput
		kind apperr.Kind
	}{
		{"unauthenticated", auth.Identity{}, CreateInput{MissingPersonID: "p1", Content: "long enough text", Type: "sighting"}, apperr.KindAuth},
		{"short", alice, CreateInput{MissingPersonID: "p1", Content: "too short", Type: "sighting"}, apperr.KindValidation},
		{"bad type", alice, CreateInput{MissingPersonID: "p1", Content: "long enough text", Type: "rumor"}, apperr.KindValidation},
		{"no parent", alice, CreateInput{Content: "long enough text", Type: "sighting"}, apperr.KindValidation},
		{"unknown parent", alice, CreateInput{MissingPersonID: "p404", Content: "long enough text", Type: "sighting"}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Create(ctx, tc.who, tc.in); apperr.KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestCreate_BotCheckRequired(t *testing.T) {
	s := newService()
	s.Bot = rejectBot{}
	_, err := s.Create(context.Background(), alice, CreateInput{MissingPersonID: "p1", Content: "long enough text", Type: "sighting"})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	list, _ := s.List(context.Background(), alice, ListQuery{MissingPersonID: "p1"})
	if len(list) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(list))
	}
}

func TestCreate_RateLimited(t *testing.T) {
	s := newService()
	s.Limiter = ratelimit.NewMemory(2, time.Minute)
	ctx := context.Background()
	in := CreateInput{MissingPersonID: "p1", Content: "long enough text", Type: "question"}

	for range 2 {
		if _, err := s.Create(ctx, alice, in); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, alice, in); apperr.KindOf(err) != apperr.KindRateLimit {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if _, err := s.Create(ctx, bob, in); err != nil {
		t.Fatalf("other user must not be limited: %v", err)
	}
}

func TestEdit(t *testing.T) {
	s := newService()
	ctx := context.Background()
	c := create(t, s, alice, "original content here")

	if _, err := s.Edit(ctx, bob, c.ID, "hijacked content here"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := s.Edit(ctx, alice, c.ID, "short"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation, got %v", err)
	}
	got, err := s.Edit(ctx, alice, c.ID, "corrected content here")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsEdited || got.Content != "corrected content here" {
		t.Fatalf("unexpected %+v", got)
	}
	if _, err := s.Edit(ctx, alice, "missing", "corrected content here"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	s := newService()
	ctx := context.Background()
	c1 := create(t, s, alice, "first comment body")
	c2 := create(t, s, alice, "second comment body")

	if _, err := s.Delete(ctx, bob, c1.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	got, err := s.Delete(ctx, alice, c1.ID)
	if err != nil || !got.IsDeleted || !got.IsHidden || got.Content != "first comment body" {
		t.Fatalf("owner delete: %+v %v", got, err)
	}
	if _, err := s.Delete(ctx, alice, c1.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if _, err := s.Delete(ctx, admin, c2.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	visible, _ := s.List(ctx, alice, ListQuery{MissingPersonID: "p1"})
	if len(visible) != 0 {
		t.Fatalf("deleted comments must be hidden from users, got %d", len(visible))
	}
	all, _ := s.List(ctx, admin, ListQuery{MissingPersonID: "p1"})
	if len(all) != 2 {
		t.Fatalf("admin should see hidden comments, got %d", len(all))
	}
}

func TestToggleLike_TwiceRestores(t *testing.T) {
	s := newService()
	ctx := context.Background()
	c := create(t, s, alice, "please share widely")

	got, liked, err := s.ToggleLike(ctx, bob, c.ID)
	if err != nil || !liked || got.Likes != 1 {
		t.Fatalf("first: liked=%v %+v %v", liked, got, err)
	}
	got, liked, err = s.ToggleLike(ctx, bob, c.ID)
	if err != nil || liked || got.Likes != 0 || len(got.LikedBy) != 0 {
		t.Fatalf("second: liked=%v %+v %v", liked, got, err)
	}
	if _, _, err := s.ToggleLike(ctx, auth.Identity{}, c.ID); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestList_Validation(t *testing.T) {
	s := newService()
	ctx := context.Background()
	for _, q := range []ListQuery{
		{},
		{MissingPersonID: "p1", Type: "rumor"},
		{MissingPersonID: "p1", Order: "oldest"},
		{MissingPersonID: "p1", Limit: 101},
	} {
		if _, err := s.List(ctx, alice, q); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%+v: expected validation error, got %v", q, err)
		}
	}
}

type conflictStore struct{ store.Store }

func (conflictStore) UpdateComment(context.Context, string, store.Mutation) (store.Comment, error) {
	return store.Comment{}, store.ErrTxConflict
}

func TestToggleLike_TxConflict(t *testing.T) {
	s := newService()
	s.Store = conflictStore{Store: s.Store}
	_, _, err := s.ToggleLike(context.Background(), bob, "c1")
	if apperr.KindOf(err) != apperr.KindConflict || !errors.Is(err, store.ErrTxConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
