// Package comments implements the comment board attached to missing-person
// records: listing, creation, owner edits, soft deletion and likes.
package comments

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/platform/apperr"
	"github.com/example/findme-platform/internal/platform/auth"
	"github.com/example/findme-platform/services/board/internal/botcheck"
	"github.com/example/findme-platform/services/board/internal/ratelimit"
	"github.com/example/findme-platform/services/board/internal/store"
)

const (
	MinContentRunes   = 10
	MaxContentRunes   = 1000
	MaxNicknameRunes  = 30
	AnonymousNickname = "익명"
)

// ParentChecker reports whether a missing-person record exists.
type ParentChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	Store   store.Store
	Limiter ratelimit.Limiter
	Bot     botcheck.Verifier
	Parents ParentChecker // nil skips the parent check
	Log     *zap.Logger
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// ValidateContent trims content and enforces the length bounds.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n < MinContentRunes {
		return "", apperr.Validation("CONTENT_TOO_SHORT", "content must be at least 10 characters")
	}
	if n > MaxContentRunes {
		return "", apperr.Validation("CONTENT_TOO_LONG", "content must be at most 1000 characters")
	}
	return content, nil
}

func nickname(raw string, anonymous bool) string {
	raw = strings.TrimSpace(raw)
	if anonymous || raw == "" {
		return AnonymousNickname
	}
	if utf8.RuneCountInString(raw) > MaxNicknameRunes {
		raw = string([]rune(raw)[:MaxNicknameRunes])
	}
	return raw
}

func requireUser(id auth.Identity) error {
	if id.UID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

type ListQuery struct {
	MissingPersonID string
	Type            string
	Order           string
	Limit           int
}

// List returns a record's comments. Hidden comments are visible to admins only.
func (s *Service) List(ctx context.Context, caller auth.Identity, q ListQuery) ([]store.Comment, error) {
	f := store.CommentFilter{
		MissingPersonID: strings.TrimSpace(q.MissingPersonID),
		Type:            store.CommentType(strings.TrimSpace(q.Type)),
		Order:           store.OrderLatest,
		Limit:           q.Limit,
		IncludeHidden:   caller.Admin,
	}
	if f.MissingPersonID == "" {
		return nil, apperr.Validation("MISSING_ID", "missing person id is required")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("INVALID_TYPE", "type must be one of sighting, question, support")
	}
	switch q.Order {
	case "", store.OrderLatest:
	case store.OrderPopular:
		f.Order = store.OrderPopular
	default:
		return nil, apperr.Validation("INVALID_ORDER", "order must be latest or popular")
	}
	if f.Limit < 0 || f.Limit > 100 {
		return nil, apperr.Validation("INVALID_LIMIT", "limit must be between 1 and 100")
	}

	out, err := s.Store.ListComments(ctx, f)
	return out, store.AppError(err)
}

type CreateInput struct {
	MissingPersonID string
	Content         string
	Type            string
	Nickname        string
	Anonymous       bool
	BotToken        string
	RemoteIP        string
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (store.Comment, error) {
	if err := requireUser(caller); err != nil {
		return store.Comment{}, err
	}
	parent := strings.TrimSpace(in.MissingPersonID)
	if parent == "" {
		return store.Comment{}, apperr.Validation("MISSING_ID", "missing_person_id is required")
	}
	content, err := ValidateContent(in.Content)
	if err != nil {
		return store.Comment{}, err
	}
	typ := store.CommentType(strings.TrimSpace(in.Type))
	if !typ.Valid() {
		return store.Comment{}, apperr.Validation("INVALID_TYPE", "type must be one of sighting, question, support")
	}

	if err := ratelimit.Enforce(ctx, s.Limiter, s.log(), caller.UID); err != nil {
		return store.Comment{}, err
	}
	if s.Bot != nil {
		if err := s.Bot.Verify(ctx, in.BotToken, in.RemoteIP); err != nil {
			return store.Comment{}, err
		}
	}
	if s.Parents != nil {
		ok, err := s.Parents.Exists(ctx, parent)
		if err != nil {
			return store.Comment{}, apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
		}
		if !ok {
			return store.Comment{}, apperr.NotFound("MISSING_PERSON_NOT_FOUND", "missing person not found")
		}
	}

	c, err := s.Store.CreateComment(ctx, store.Comment{
		MissingPersonID: parent,
		UserID:          caller.UID,
		Nickname:        nickname(in.Nickname, in.Anonymous),
		Content:         content,
		Type:            typ,
	})
	if err != nil {
		return store.Comment{}, store.AppError(err)
	}
	s.log().Info("comment created", zap.String("comment_id", c.ID), zap.String("missing_person_id", parent))
	return c, nil
}

var errCommentNotFound = apperr.NotFound("COMMENT_NOT_FOUND", "comment not found")

// mutate runs m under the store's optimistic transaction and maps errors.
func (s *Service) mutate(ctx context.Context, commentID string, m store.Mutation) (store.Comment, error) {
	c, err := s.Store.UpdateComment(ctx, commentID, m)
	if err != nil {
		if apperr.KindOf(store.AppError(err)) == apperr.KindNotFound {
			return store.Comment{}, errCommentNotFound
		}
		return store.Comment{}, store.AppError(err)
	}
	return c, nil
}

// Edit replaces the content of the caller's own comment.
func (s *Service) Edit(ctx context.Context, caller auth.Identity, commentID, content string) (store.Comment, error) {
	if err := requireUser(caller); err != nil {
		return store.Comment{}, err
	}
	content, err := ValidateContent(content)
	if err != nil {
		return store.Comment{}, err
	}
	if err := ratelimit.Enforce(ctx, s.Limiter, s.log(), caller.UID); err != nil {
		return store.Comment{}, err
	}

	now := s.now()
	return s.mutate(ctx, commentID, func(c store.Comment) (store.Comment, error) {
		if c.IsDeleted {
			return c, errCommentNotFound
		}
		if c.UserID != caller.UID {
			return c, apperr.Forbidden("only the author can edit this comment")
		}
		return store.Edit(c, content, now), nil
	})
}

// Delete soft-deletes a comment. Authors and admins may delete.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, commentID string) (store.Comment, error) {
	if err := requireUser(caller); err != nil {
		return store.Comment{}, err
	}
	if err := ratelimit.Enforce(ctx, s.Limiter, s.log(), caller.UID); err != nil {
		return store.Comment{}, err
	}

	now := s.now()
	c, err := s.mutate(ctx, commentID, func(c store.Comment) (store.Comment, error) {
		if c.IsDeleted {
			return c, errCommentNotFound
		}
		if c.UserID != caller.UID && !caller.Admin {
			return c, apperr.Forbidden("only the author or an admin can delete this comment")
		}
		return store.SoftDelete(c, now), nil
	})
	if err == nil {
		s.log().Info("comment deleted", zap.String("comment_id", commentID),
			zap.String("by", caller.UID), zap.Bool("admin", caller.Admin && c.UserID != caller.UID))
	}
	return c, err
}

// ToggleLike flips the caller's like and reports whether it is now liked.
func (s *Service) ToggleLike(ctx context.Context, caller auth.Identity, commentID string) (store.Comment, bool, error) {
	if err := requireUser(caller); err != nil {
		return store.Comment{}, false, err
	}
	if err := ratelimit.Enforce(ctx, s.Limiter, s.log(), caller.UID); err != nil {
		return store.Comment{}, false, err
	}

	var liked bool
	c, err := s.mutate(ctx, commentID, func(c store.Comment) (store.Comment, error) {
		if c.IsDeleted {
			return c, errCommentNotFound
		}
		c, liked = store.ToggleLike(c, caller.UID)
		return c, nil
	})
	if err != nil {
		return store.Comment{}, false, err
	}
	return c, liked, nil
}
