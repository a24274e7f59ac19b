package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/findme-platform/internal/platform/apperr"
)

func TestWriteAppError_MapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{apperr.Validation("CONTENT_TOO_SHORT", "too short"), http.StatusBadRequest, "CONTENT_TOO_SHORT"},
		{apperr.Unauthenticated("login required"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{apperr.Forbidden("not yours"), http.StatusForbidden, "FORBIDDEN"},
		{apperr.NotFound("COMMENT_NOT_FOUND", "missing"), http.StatusNotFound, "COMMENT_NOT_FOUND"},
		{fmt.Errorf("wrapped: %w", apperr.Conflict("DUPLICATE_REPORT", "dup")), http.StatusConflict, "DUPLICATE_REPORT"},
		{apperr.RateLimited("slow down"), http.StatusTooManyRequests, "RATE_LIMITED"},
		{errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteAppError(rr, tc.err, "rid-1")
		if rr.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rr.Code)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Success {
			t.Fatal("expected success=false")
		}
		if body.Error.Code != tc.code {
			t.Fatalf("expected code %s, got %s", tc.code, body.Error.Code)
		}
		if body.Error.RequestID != "rid-1" {
			t.Fatalf("expected request id, got %q", body.Error.RequestID)
		}
	}
}

func TestOK_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]int{"saved": 3})

	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data["saved"] != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if ct := rr.Header().Get("Content-Type"); ct == "" {
		t.Fatal("expected content type")
	}
}
