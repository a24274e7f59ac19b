package store

import (
	"errors"
	"testing"
	"time"
)

func TestToggleLike_TwiceRestoresState(t *testing.T) {
	orig := Comment{ID: "c1", LikedBy: []string{"u1"}, Likes: 1}

	liked, on := ToggleLike(orig, "u2")
	if !on || liked.Likes != 2 || len(liked.LikedBy) != 2 {
		t.Fatalf("first toggle: on=%v %+v", on, liked)
	}
	back, on := ToggleLike(liked, "u2")
	if on || back.Likes != 1 || len(back.LikedBy) != 1 || back.LikedBy[0] != "u1" {
		t.Fatalf("second toggle: on=%v %+v", on, back)
	}
	if len(orig.LikedBy) != 1 {
		t.Fatalf("input mutated: %+v", orig)
	}
}

func TestAddReporter_AutoHideAtThree(t *testing.T) {
	c := Comment{ID: "c1"}
	var err error
	for i, uid := range []string{"a", "b"} {
		if c, err = AddReporter(c, uid); err != nil {
			t.Fatal(err)
		}
		if c.IsHidden {
			t.Fatalf("hidden after %d reports", i+1)
		}
	}
	if !c.IsReported || c.ReportCount != 2 {
		t.Fatalf("unexpected state %+v", c)
	}

	if _, err := AddReporter(c, "a"); !errors.Is(err, ErrDuplicateReport) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	c, err = AddReporter(c, "c")
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsHidden || c.ReportCount != 3 || len(c.ReportedBy) != 3 {
		t.Fatalf("expected hidden at 3: %+v", c)
	}
}

func TestSetHidden_DeletedStaysHidden(t *testing.T) {
	c := SoftDelete(Comment{Content: "keep me around"}, time.Now())
	if !c.IsDeleted || !c.IsHidden || c.Content != "keep me around" {
		t.Fatalf("soft delete: %+v", c)
	}
	if SetHidden(c, false).IsHidden != true {
		t.Fatal("deleted comment must stay hidden")
	}
	if SetHidden(Comment{IsHidden: true}, false).IsHidden {
		t.Fatal("expected unhide")
	}
}

func TestResolve(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r, err := Resolve(Report{Status: StatusPending}, StatusDismissed, "admin", at)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusDismissed || *r.ResolvedBy != "admin" || !r.ResolvedAt.Equal(at) {
		t.Fatalf("unexpected report %+v", r)
	}
	if _, err := Resolve(r, StatusResolved, "admin", at); !errors.Is(err, ErrReportClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
}
