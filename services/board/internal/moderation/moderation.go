// Package moderation implements user reports against comments and the admin
// actions that resolve them.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/platform/apperr"
	"github.com/example/findme-platform/internal/platform/auth"
	"github.com/example/findme-platform/internal/platform/events"
	"github.com/example/findme-platform/services/board/internal/ratelimit"
	"github.com/example/findme-platform/services/board/internal/store"
)

const MaxDescriptionRunes = 500

type Service struct {
	Store   store.Store
	Limiter ratelimit.Limiter
	Events  *events.Publisher
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

func requireAdmin(caller auth.Identity) error {
	if caller.UID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	if !caller.Admin {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

type ReportInput struct {
	Reason      string
	Description string
}

// FileReport records the caller's report and the comment's updated report
// state in one transaction. A comment hides itself at the third distinct reporter.
func (s *Service) FileReport(ctx context.Context, caller auth.Identity, commentID string, in ReportInput) (store.Comment, store.Report, error) {
	if caller.UID == "" {
		return store.Comment{}, store.Report{}, apperr.Unauthenticated("authentication required")
	}
	reason := store.ReportReason(strings.TrimSpace(in.Reason))
	if !reason.Valid() {
		return store.Comment{}, store.Report{}, apperr.Validation("INVALID_REASON", "reason must be one of spam, inappropriate, false, other")
	}
	desc := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(desc) > MaxDescriptionRunes {
		return store.Comment{}, store.Report{}, apperr.Validation("DESCRIPTION_TOO_LONG", "description must be at most 500 characters")
	}
	if err := ratelimit.Enforce(ctx, s.Limiter, s.log(), caller.UID); err != nil {
		return store.Comment{}, store.Report{}, err
	}

	var wasHidden bool
	c, rep, err := s.Store.FileReport(ctx, store.Report{
		CommentID:   commentID,
		ReporterID:  caller.UID,
		Reason:      reason,
		Description: desc,
	}, func(c store.Comment) (store.Comment, error) {
		if c.IsDeleted {
			return c, store.ErrNotFound
		}
		wasHidden = c.IsHidden
		return store.AddReporter(c, caller.UID)
	})
	if err != nil {
		return store.Comment{}, store.Report{}, commentErr(err)
	}

	s.Events.Publish(events.SubjectCommentReported, caller.UID, map[string]any{
		"comment_id":   c.ID,
		"report_id":    rep.ID,
		"reason":       string(reason),
		"report_count": c.ReportCount,
	})
	if c.IsHidden && !wasHidden {
		s.log().Info("comment auto-hidden", zap.String("comment_id", c.ID), zap.Int("report_count", c.ReportCount))
		s.Events.Publish(events.SubjectCommentHidden, caller.UID, map[string]any{
			"comment_id": c.ID,
			"cause":      "auto",
		})
	}
	return c, rep, nil
}

func commentErr(err error) error {
	err = store.AppError(err)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.NotFound("COMMENT_NOT_FOUND", "comment not found")
	}
	return err
}

// ListReports returns the moderation queue, newest first.
func (s *Service) ListReports(ctx context.Context, caller auth.Identity, status string, limit int) ([]store.Report, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	st := store.ReportStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, apperr.Validation("INVALID_STATUS", "status must be one of pending, resolved, dismissed")
	}
	if limit < 0 || limit > 100 {
		return nil, apperr.Validation("INVALID_LIMIT", "limit must be between 1 and 100")
	}
	out, err := s.Store.ListReports(ctx, store.ReportFilter{Status: st, Limit: limit})
	return out, store.AppError(err)
}

type Resolution struct {
	Status string
	Hide   bool
}

// Resolve closes a pending report. Hide forces the comment hidden; dismissing
// without Hide makes it visible again.
func (s *Service) Resolve(ctx context.Context, caller auth.Identity, reportID string, in Resolution) (store.Report, error) {
	if err := requireAdmin(caller); err != nil {
		return store.Report{}, err
	}
	st := store.ReportStatus(strings.TrimSpace(in.Status))
	if st != store.StatusResolved && st != store.StatusDismissed {
		return store.Report{}, apperr.Validation("INVALID_STATUS", "status must be resolved or dismissed")
	}

	now := s.now()
	rep, err := s.Store.UpdateReport(ctx, reportID, func(r store.Report) (store.Report, error) {
		return store.Resolve(r, st, caller.UID, now)
	})
	replay := false
	if errors.Is(err, store.ErrReportClosed) {
		// Repeating the same outcome re-applies the visibility change, so a
		// failed hide/unhide after the report closed can be retried.
		if prev, gerr := s.Store.GetReport(ctx, reportID); gerr == nil && prev.Status == st {
			rep, err, replay = prev, nil, true
		}
	}
	if err != nil {
		err = store.AppError(err)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return store.Report{}, apperr.NotFound("REPORT_NOT_FOUND", "report not found")
		}
		return store.Report{}, err
	}

	switch {
	case in.Hide:
		_, err = s.setHidden(ctx, caller, rep.CommentID, true, "report_resolved")
	case st == store.StatusDismissed:
		_, err = s.setHidden(ctx, caller, rep.CommentID, false, "report_dismissed")
	}
	if err != nil {
		s.log().Error("report closed but comment visibility update failed",
			zap.String("report_id", rep.ID), zap.String("comment_id", rep.CommentID), zap.Error(err))
		return rep, err
	}
	if replay {
		return rep, nil
	}

	s.Events.Publish(events.SubjectReportResolved, caller.UID, map[string]any{
		"report_id":  rep.ID,
		"comment_id": rep.CommentID,
		"status":     string(rep.Status),
		"hide":       in.Hide,
	})
	return rep, nil
}

// SetHidden lets an admin hide or unhide a comment directly.
func (s *Service) SetHidden(ctx context.Context, caller auth.Identity, commentID string, hidden bool) (store.Comment, error) {
	if err := requireAdmin(caller); err != nil {
		return store.Comment{}, err
	}
	return s.setHidden(ctx, caller, commentID, hidden, "admin")
}

func (s *Service) setHidden(ctx context.Context, caller auth.Identity, commentID string, hidden bool, cause string) (store.Comment, error) {
	var wasHidden bool
	c, err := s.Store.UpdateComment(ctx, commentID, func(c store.Comment) (store.Comment, error) {
		wasHidden = c.IsHidden
		return store.SetHidden(c, hidden), nil
	})
	if err != nil {
		return store.Comment{}, commentErr(err)
	}
	if c.IsHidden && !wasHidden {
		s.Events.Publish(events.SubjectCommentHidden, caller.UID, map[string]any{
			"comment_id": c.ID,
			"cause":      cause,
		})
	}
	s.log().Info("comment visibility set", zap.String("comment_id", c.ID),
		zap.Bool("hidden", c.IsHidden), zap.String("cause", cause), zap.String("by", caller.UID))
	return c, nil
}
