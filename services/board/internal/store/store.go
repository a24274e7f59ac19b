package store

import (
	"context"
	"errors"
	"time"
)

type CommentType string

const (
	TypeSighting CommentType = "sighting"
	TypeQuestion CommentType = "question"
	TypeSupport  CommentType = "support"
)

func (t CommentType) Valid() bool {
	switch t {
	case TypeSighting, TypeQuestion, TypeSupport:
		return true
	}
	return false
}

// Comment ordering for listings.
const (
	OrderLatest  = "latest"
	OrderPopular = "popular"
)

// Comment is a board comment attached to a missing-person record.
// Likes and ReportCount always equal the sizes of LikedBy and ReportedBy.
type Comment struct {
	ID              string      `json:"id"`
	MissingPersonID string      `json:"missing_person_id"`
	UserID          string      `json:"user_id"`
	Nickname        string      `json:"nickname"`
	Content         string      `json:"content"`
	Type            CommentType `json:"type"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Likes           int         `json:"likes"`
	LikedBy         []string    `json:"liked_by"`
	IsEdited        bool        `json:"is_edited"`
	IsDeleted       bool        `json:"is_deleted"`
	IsHidden        bool        `json:"is_hidden"`
	IsReported      bool        `json:"is_reported"`
	ReportCount     int         `json:"report_count"`
	ReportedBy      []string    `json:"reported_by"`
	Version         int64       `json:"-"`
}

type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonFalse         ReportReason = "false"
	ReasonOther         ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonInappropriate, ReasonFalse, ReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusResolved  ReportStatus = "resolved"
	StatusDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Report is one user's report against a comment.
type Report struct {
	ID          string       `json:"id"`
	CommentID   string       `json:"comment_id"`
	ReporterID  string       `json:"reporter_id"`
	Reason      ReportReason `json:"reason"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Status      ReportStatus `json:"status"`
	ResolvedBy  *string      `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateReport = errors.New("comment already reported by this user")
	ErrTxConflict      = errors.New("concurrent update conflict")
)

// CommentFilter selects comments for a listing.
type CommentFilter struct {
	MissingPersonID string
	Type            CommentType // empty means any
	Order           string
	Limit           int
	IncludeHidden   bool
}

func (f CommentFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 100 {
		return 50
	}
	return f.Limit
}

// ReportFilter selects reports for the admin queue. Newest first.
type ReportFilter struct {
	Status ReportStatus // empty means any
	Limit  int
}

func (f ReportFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 100 {
		return 50
	}
	return f.Limit
}

// Mutation computes a comment's next state from its current one. Returning
// an error aborts the write and is passed back to the caller unchanged.
type Mutation func(Comment) (Comment, error)

// ReportMutation computes a report's next state.
type ReportMutation func(Report) (Report, error)

// Store persists comments and reports.
//
// UpdateComment and FileReport are read-modify-write transactions: the
// mutation runs against the current row and the write is conditioned on the
// row's version. A lost race is retried once, then ErrTxConflict is returned.
type Store interface {
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	ListComments(ctx context.Context, f CommentFilter) ([]Comment, error)
	UpdateComment(ctx context.Context, id string, m Mutation) (Comment, error)

	// FileReport applies m to the comment and inserts r in one transaction.
	// A second report by the same reporter yields ErrDuplicateReport.
	FileReport(ctx context.Context, r Report, m Mutation) (Comment, Report, error)
	GetReport(ctx context.Context, id string) (Report, error)
	ListReports(ctx context.Context, f ReportFilter) ([]Report, error)
	UpdateReport(ctx context.Context, id string, m ReportMutation) (Report, error)
}
