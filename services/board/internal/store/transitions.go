package store

import (
	"errors"
	"slices"
	"time"
)

// AutoHideThreshold is the distinct-reporter count at which a comment hides itself.
const AutoHideThreshold = 3

var ErrReportClosed = errors.New("report already closed")

// ToggleLike adds uid to LikedBy, or removes it if present.
func ToggleLike(c Comment, uid string) (Comment, bool) {
	liked := !slices.Contains(c.LikedBy, uid)
	if liked {
		c.LikedBy = append(slices.Clone(c.LikedBy), uid)
	} else {
		c.LikedBy = slices.DeleteFunc(slices.Clone(c.LikedBy), func(s string) bool { return s == uid })
	}
	c.Likes = len(c.LikedBy)
	return c, liked
}

// AddReporter records uid as a reporter and applies auto-hide.
func AddReporter(c Comment, uid string) (Comment, error) {
	if slices.Contains(c.ReportedBy, uid) {
		return c, ErrDuplicateReport
	}
	c.ReportedBy = append(slices.Clone(c.ReportedBy), uid)
	c.ReportCount = len(c.ReportedBy)
	c.IsReported = true
	c.IsHidden = c.IsHidden || c.ReportCount >= AutoHideThreshold
	return c, nil
}

// SetHidden sets the hidden flag. A deleted comment stays hidden.
func SetHidden(c Comment, hidden bool) Comment {
	c.IsHidden = hidden || c.IsDeleted
	return c
}

// SoftDelete marks the comment deleted and hidden; content is kept.
func SoftDelete(c Comment, at time.Time) Comment {
	c.IsDeleted = true
	c.IsHidden = true
	c.UpdatedAt = at
	return c
}

func Edit(c Comment, content string, at time.Time) Comment {
	c.Content = content
	c.IsEdited = true
	c.UpdatedAt = at
	return c
}

// Resolve closes a pending report.
func Resolve(r Report, status ReportStatus, by string, at time.Time) (Report, error) {
	if r.Status != StatusPending {
		return r, ErrReportClosed
	}
	r.Status = status
	r.ResolvedBy = &by
	r.ResolvedAt = &at
	return r, nil
}
