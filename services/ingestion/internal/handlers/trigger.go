package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/platform/api"
	"github.com/example/findme-platform/internal/platform/httpserver"
	"github.com/example/findme-platform/services/ingestion/internal/pipeline"
)

// DefaultRunTimeout bounds a manual run when Trigger.Timeout is unset.
const DefaultRunTimeout = 10 * time.Minute

// Runner runs one ingestion cycle.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Trigger exposes a manual, synchronous ingestion run for admins.
type Trigger struct {
	Log     *zap.Logger
	Runner  Runner
	Timeout time.Duration
}

func (t Trigger) Register(r chi.Router) {
	r.Post("/v1/admin/ingestion/run", t.run)
}

func (t Trigger) run(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}

	// A dropped client must not cut the run short, and the summary may be
	// written well after the server-wide write timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()
	_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(timeout + 10*time.Second))

	sum, err := t.Runner.Run(ctx)
	if err != nil {
		t.Log.Warn("manual ingestion failed", zap.String("request_id", rid), zap.Error(err))
		api.WriteAppError(w, err, rid)
		return
	}
	api.OK(w, sum)
}
