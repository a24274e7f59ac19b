// Package pipeline runs one ingestion cycle: page through the upstream,
// then persist every item not already stored.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/geocode"
	"github.com/example/findme-platform/internal/platform/apperr"
	"github.com/example/findme-platform/internal/platform/events"
	"github.com/example/findme-platform/internal/records"
	"github.com/example/findme-platform/services/ingestion/internal/metrics"
	"github.com/example/findme-platform/services/ingestion/internal/normalize"
	"github.com/example/findme-platform/services/ingestion/internal/ratelimit"
	"github.com/example/findme-platform/services/ingestion/internal/safe182"
)

// RecordStore is the subset of records.Store the pipeline writes through.
type RecordStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, p records.MissingPerson) (records.MissingPerson, error)
}

// ErrAlreadyRunning is returned when a run is requested while another is in flight.
var ErrAlreadyRunning = apperr.Conflict("INGESTION_RUNNING", "an ingestion run is already in progress")

// DefaultMaxPages bounds a single run if the upstream never signals the end.
const DefaultMaxPages = 500

type Pipeline struct {
	Provider safe182.Provider
	Store    RecordStore
	Pacer    ratelimit.Pacer
	Geocoder geocode.Geocoder
	Metrics  *metrics.Metrics
	Events   *events.Publisher
	Log      *zap.Logger
	MaxPages int
	Now      func() time.Time

	mu sync.Mutex
}

// Summary reports one run.
type Summary struct {
	Pages      int           `json:"pages"`
	Fetched    int           `json:"fetched"`
	Saved      int           `json:"saved"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Skipped    bool          `json:"skipped"`
	ResultCode string        `json:"result_code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// Run executes one cycle. An upstream result code other than "00" skips the
// run and returns a nil error. Transport, status and decode errors abort the
// run and are returned; nothing from a partial collection is persisted.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	if !p.mu.TryLock() {
		return Summary{}, ErrAlreadyRunning
	}
	defer p.mu.Unlock()

	start := p.now()
	log := p.log()

	sum, items, err := p.collect(ctx)
	if err != nil {
		sum.Duration = p.now().Sub(start)
		p.Metrics.ObserveRun("failed", sum.Duration, p.now())
		log.Error("ingestion run aborted", zap.Int("pages", sum.Pages), zap.Error(err))
		return sum, err
	}
	if sum.Skipped {
		sum.Duration = p.now().Sub(start)
		p.Metrics.ObserveRun("skipped", sum.Duration, p.now())
		log.Warn("ingestion run skipped",
			zap.String("result", sum.ResultCode), zap.String("msg", sum.Message))
		return sum, nil
	}

	p.persist(ctx, items, &sum)

	sum.Duration = p.now().Sub(start)
	p.Metrics.AddRecords("saved", sum.Saved)
	p.Metrics.AddRecords("duplicate", sum.Duplicates)
	p.Metrics.AddRecords("failed", sum.Failed)
	p.Metrics.ObserveRun("ok", sum.Duration, p.now())
	p.Events.Publish(events.SubjectIngestionRun, "", map[string]any{
		"pages": sum.Pages, "fetched": sum.Fetched, "saved": sum.Saved,
		"duplicates": sum.Duplicates, "failed": sum.Failed,
	})
	log.Info("ingestion run completed",
		zap.Int("pages", sum.Pages),
		zap.Int("fetched", sum.Fetched),
		zap.Int("saved", sum.Saved),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("failed", sum.Failed),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

func (p *Pipeline) collect(ctx context.Context) (Summary, []safe182.Item, error) {
	var sum Summary
	var items []safe182.Item

	rowSize := p.Provider.RowSize()
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	for page := 1; page <= maxPages; page++ {
		resp, err := p.Provider.FetchPage(ctx, page)
		if err != nil {
			return sum, nil, fmt.Errorf("fetch page %d: %w",
				page, apperr.Wrap(err, apperr.KindUpstream, "UPSTREAM_UNAVAILABLE", "missing-person source unavailable"))
		}
		sum.Pages++
		p.Metrics.IncPages()

		if !resp.OK() {
			sum.Skipped = true
			sum.ResultCode = resp.Result
			sum.Message = resp.Msg
			return sum, nil, nil
		}

		items = append(items, resp.List...)
		sum.Fetched = len(items)

		if len(resp.List) == 0 || len(resp.List) < rowSize {
			return sum, items, nil
		}
		if total, ok := resp.Total(); ok && len(items) >= total {
			return sum, items, nil
		}
		if p.Pacer != nil {
			if err := p.Pacer.Wait(ctx); err != nil {
				return sum, nil, fmt.Errorf("wait before page %d: %w", page+1, err)
			}
		}
	}
	p.log().Warn("ingestion stopped at page cap", zap.Int("max_pages", maxPages))
	return sum, items, nil
}

func (p *Pipeline) persist(ctx context.Context, items []safe182.Item, sum *Summary) {
	log := p.log()
	now := p.now()
	for _, it := range items {
		id := normalize.ID(it)

		exists, err := p.Store.Exists(ctx, id)
		if err != nil {
			sum.Failed++
			log.Warn("existence check failed", zap.String("id", id), zap.Error(err))
			continue
		}
		if exists {
			sum.Duplicates++
			continue
		}

		rec := normalize.Record(it, now, p.Geocoder)
		created, err := p.Store.Create(ctx, rec)
		switch {
		case errors.Is(err, records.ErrExists):
			sum.Duplicates++
		case err != nil:
			sum.Failed++
			log.Warn("persist record failed", zap.String("id", id), zap.Error(err))
		default:
			sum.Saved++
			p.Events.Publish(events.SubjectPersonCreated, "", map[string]any{
				"id":       created.ID,
				"category": string(created.Category),
				"source":   string(created.Source),
			})
		}
	}
}
