package comments

import (
	"slices"
	"time"

	"github.com/example/findme-platform/internal/platform/auth"
	"github.com/example/findme-platform/services/board/internal/store"
)

// View is a comment as returned to a particular caller. Reporter and liker
// identities are only included for admins; everyone else sees whether they
// liked the comment themselves.
type View struct {
	ID              string            `json:"id"`
	MissingPersonID string            `json:"missing_person_id"`
	UserID          string            `json:"user_id"`
	Nickname        string            `json:"nickname"`
	Content         string            `json:"content"`
	Type            store.CommentType `json:"type"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Likes           int               `json:"likes"`
	Liked           bool              `json:"liked"`
	IsEdited        bool              `json:"is_edited"`
	IsDeleted       bool              `json:"is_deleted"`
	IsHidden        bool              `json:"is_hidden"`
	IsReported      bool              `json:"is_reported"`
	ReportCount     int               `json:"report_count"`
	LikedBy         []string          `json:"liked_by,omitempty"`
	ReportedBy      []string          `json:"reported_by,omitempty"`
}

func NewView(c store.Comment, caller auth.Identity) View {
	v := View{
		ID:              c.ID,
		MissingPersonID: c.MissingPersonID,
		UserID:          c.UserID,
		Nickname:        c.Nickname,
		Content:         c.Content,
		Type:            c.Type,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Likes:           c.Likes,
		Liked:           caller.UID != "" && slices.Contains(c.LikedBy, caller.UID),
		IsEdited:        c.IsEdited,
		IsDeleted:       c.IsDeleted,
		IsHidden:        c.IsHidden,
		IsReported:      c.IsReported,
		ReportCount:     c.ReportCount,
	}
	if caller.Admin {
		v.LikedBy = slices.Clone(c.LikedBy)
		v.ReportedBy = slices.Clone(c.ReportedBy)
	}
	return v
}

func NewViews(list []store.Comment, caller auth.Identity) []View {
	out := make([]View, len(list))
	for i, c := range list {
		out[i] = NewView(c, caller)
	}
	return out
}
