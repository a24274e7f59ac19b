package handlers

import (
	"net/http"

	"github.com/example/findme-platform/internal/platform/api"
	"github.com/example/findme-platform/internal/platform/httpserver"
	"github.com/example/findme-platform/services/board/internal/moderation"
	"github.com/example/findme-platform/services/board/internal/store"
)

type reportRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

type reportResponse struct {
	Report      store.Report `json:"report"`
	ReportCount int          `json:"report_count"`
	IsHidden    bool         `json:"is_hidden"`
}

type resolveRequest struct {
	Status string `json:"status"`
	Hide   bool   `json:"hide"`
}

type moderationRequest struct {
	Hidden *bool `json:"hidden"`
}

type reportsResponse struct {
	Reports []store.Report `json:"reports"`
}

// ReportComment handles POST /v1/comments/{id}/report
func ReportComment(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req reportRequest
		if !decode(w, r, &req) {
			return
		}
		c, rep, err := svc.FileReport(r.Context(), caller(r), id, moderation.ReportInput{
			Reason:      req.Reason,
			Description: req.Description,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
		api.Created(w, reportResponse{Report: rep, ReportCount: c.ReportCount, IsHidden: c.IsHidden})
	}
}

// ListReports handles GET /v1/comment-reports (admin)
func ListReports(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		list, err := svc.ListReports(r.Context(), caller(r), r.URL.Query().Get("status"), limit)
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, reportsResponse{Reports: list})
	}
}

// ResolveReport handles POST /v1/comment-reports/{id}/resolve (admin)
func ResolveReport(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req resolveRequest
		if !decode(w, r, &req) {
			return
		}
		rep, err := svc.Resolve(r.Context(), caller(r), id, moderation.Resolution{Status: req.Status, Hide: req.Hide})
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, rep)
	}
}

// ModerateComment handles POST /v1/comments/{id}/moderation (admin)
func ModerateComment(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req moderationRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Hidden == nil {
			api.BadRequest(w, "MISSING_HIDDEN", "hidden is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		c, err := svc.SetHidden(r.Context(), caller(r), id, *req.Hidden)
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, c)
	}
}
