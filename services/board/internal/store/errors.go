package store

import (
	"errors"

	"github.com/example/findme-platform/internal/platform/apperr"
)

// AppError translates store sentinels into the service error taxonomy.
// Errors that already carry a kind pass through unchanged.
func AppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, ErrDuplicateReport):
		return apperr.Wrap(err, apperr.KindConflict, "ALREADY_REPORTED", "you have already reported this comment")
	case errors.Is(err, ErrReportClosed):
		return apperr.Wrap(err, apperr.KindConflict, "REPORT_CLOSED", "report is already resolved")
	case errors.Is(err, ErrTxConflict):
		return apperr.Wrap(err, apperr.KindConflict, "TX_CONFLICT", "the comment was modified concurrently, retry")
	default:
		return apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
	}
}
