package handlers

import (
	"net/http"
	"strings"

	"github.com/example/findme-platform/internal/platform/api"
	"github.com/example/findme-platform/services/board/internal/comments"
)

type createCommentRequest struct {
	MissingPersonID string `json:"missing_person_id"`
	Content         string `json:"content"`
	Type            string `json:"type"`
	Nickname        string `json:"nickname"`
	Anonymous       bool   `json:"anonymous"`
	BotToken        string `json:"bot_token"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

type likeResponse struct {
	CommentID string `json:"comment_id"`
	Liked     bool   `json:"liked"`
	Likes     int    `json:"likes"`
}

type commentsResponse struct {
	Comments []comments.View `json:"comments"`
}

// ListComments handles GET /v1/comments/{id}, id being the missing person.
func ListComments(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID, ok := pathID(w, r)
		if !ok {
			return
		}
		limit, err := queryLimit(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		q := r.URL.Query()
		list, err := svc.List(r.Context(), caller(r), comments.ListQuery{
			MissingPersonID: parentID,
			Type:            q.Get("type"),
			Order:           strings.ToLower(strings.TrimSpace(q.Get("order"))),
			Limit:           limit,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, commentsResponse{Comments: comments.NewViews(list, caller(r))})
	}
}

// CreateComment handles POST /v1/comments
func CreateComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCommentRequest
		if !decode(w, r, &req) {
			return
		}
		token := req.BotToken
		if h := r.Header.Get("X-Bot-Token"); h != "" {
			token = h
		}
		c, err := svc.Create(r.Context(), caller(r), comments.CreateInput{
			MissingPersonID: req.MissingPersonID,
			Content:         req.Content,
			Type:            req.Type,
			Nickname:        req.Nickname,
			Anonymous:       req.Anonymous,
			BotToken:        token,
			RemoteIP:        remoteIP(r),
		})
		if err != nil {
			fail(w, r, err)
			return
		}
		api.Created(w, comments.NewView(c, caller(r)))
	}
}

// EditComment handles PATCH /v1/comments/{id}
func EditComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req editCommentRequest
		if !decode(w, r, &req) {
			return
		}
		c, err := svc.Edit(r.Context(), caller(r), id, req.Content)
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, comments.NewView(c, caller(r)))
	}
}

// DeleteComment handles DELETE /v1/comments/{id}
func DeleteComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c, err := svc.Delete(r.Context(), caller(r), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, comments.NewView(c, caller(r)))
	}
}

// LikeComment handles POST /v1/comments/{id}/like
func LikeComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c, liked, err := svc.ToggleLike(r.Context(), caller(r), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, likeResponse{CommentID: c.ID, Liked: liked, Likes: c.Likes})
	}
}
