package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/findme-platform/internal/platform/apperr"
)

func TestAppError(t *testing.T) {
	cases := []struct {
		err  error
		kind apperr.Kind
	}{
		{ErrNotFound, apperr.KindNotFound},
		{fmt.Errorf("tx: %w", ErrDuplicateReport), apperr.KindConflict},
		{ErrReportClosed, apperr.KindConflict},
		{ErrTxConflict, apperr.KindConflict},
		{apperr.Forbidden("nope"), apperr.KindForbidden},
		{errors.New("socket closed"), apperr.KindInternal},
	}
	for _, tc := range cases {
		if got := apperr.KindOf(AppError(tc.err)); got != tc.kind {
			t.Errorf("%v: expected %s, got %s", tc.err, tc.kind, got)
		}
	}
	if AppError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
