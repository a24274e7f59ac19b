package main

import (
	"context"
	"errors"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/geocode"
	"github.com/example/findme-platform/internal/platform/auth"
	"github.com/example/findme-platform/internal/platform/config"
	"github.com/example/findme-platform/internal/platform/db"
	"github.com/example/findme-platform/internal/platform/events"
	"github.com/example/findme-platform/internal/platform/httpserver"
	"github.com/example/findme-platform/internal/platform/logging"
	"github.com/example/findme-platform/internal/platform/natsconn"
	"github.com/example/findme-platform/internal/platform/run"
	"github.com/example/findme-platform/internal/records"
	inkcfg "github.com/example/findme-platform/services/ingestion/internal/config"
	"github.com/example/findme-platform/services/ingestion/internal/handlers"
	"github.com/example/findme-platform/services/ingestion/internal/metrics"
	"github.com/example/findme-platform/services/ingestion/internal/pipeline"
	"github.com/example/findme-platform/services/ingestion/internal/ratelimit"
	"github.com/example/findme-platform/services/ingestion/internal/safe182"
	"github.com/example/findme-platform/services/ingestion/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ink, err := inkcfg.Load()
	if err != nil {
		log.Error("load ingestion config", zap.Error(err))
		run.Exit(1)
	}

	store, ping, closeStore := initRecords(log, ink.DatabaseURL, cfg.IsProduction())
	publisher, closeNATS := initEvents(log, ink.NATSURL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := safe182.New(ink.BaseURL, safe182.ClientConfig{
		EsntlID:    ink.EsntlID,
		AuthKey:    ink.AuthKey,
		RowSize:    ink.RowSize,
		MaxRetries: ink.MaxRetries,
	}, safe182.WithLogger(log), safe182.WithCircuitBreaker(safe182.NewBreaker("safe182", log)))

	pl := &pipeline.Pipeline{
		Provider: client,
		Store:    store,
		Pacer:    ratelimit.NewDelay(ink.PageDelay),
		Geocoder: geocode.Lookup,
		Metrics:  metrics.New(reg),
		Events:   publisher,
		Log:      log.Named("pipeline"),
		MaxPages: ink.MaxPages,
	}

	sched, err := schedule.New(ink.Schedule, ink.RunTimeout, func(ctx context.Context) error {
		_, err := pl.Run(ctx)
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			return nil
		}
		return err
	}, log)
	if err != nil {
		log.Error("invalid INGEST_SCHEDULE", zap.String("schedule", ink.Schedule), zap.Error(err))
		run.Exit(1)
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: ping, Logger: log})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if ink.JWTSecret != "" {
		verifier := auth.JWTVerifier{Secret: []byte(ink.JWTSecret)}
		policy := auth.DefaultAdminPolicy(ink.AdminEmails, ink.AdminUIDs)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(verifier, policy))
			r.Use(auth.RequireAdmin)
			handlers.Trigger{Log: log, Runner: pl, Timeout: ink.RunTimeout}.Register(r)
		})
	} else {
		log.Warn("JWT_SECRET not set, manual ingestion trigger disabled")
	}

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		sched.Start()
		log.Info("ingestion scheduled", zap.String("schedule", ink.Schedule), zap.Time("next", sched.Next()))
		if ink.RunOnStart {
			go func() {
				runCtx, cancel := context.WithTimeout(ctx, ink.RunTimeout)
				defer cancel()
				if _, err := pl.Run(runCtx); err != nil {
					log.Error("startup ingestion failed", zap.Error(err))
				}
			}()
		}
		return srv.Start()
	},
		closeStore,
		closeNATS,
		sched.Stop,
		srv.Shutdown,
	)

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func noopClose(context.Context) error { return nil }

// initRecords selects the record store backend.
// In production (APP_ENV=production) Postgres is mandatory.
func initRecords(log *zap.Logger, dsn string, isProd bool) (records.Store, func() error, func(context.Context) error) {
	ready := func() error { return nil }
	if dsn == "" {
		if isProd {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory record store (development only)")
		return records.NewInMemoryStore(), ready, noopClose
	}

	pool, err := db.Open(context.Background(), dsn)
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory record store", zap.Error(err))
		return records.NewInMemoryStore(), ready, noopClose
	}

	log.Info("records store: postgres")
	ping := func() error { return pool.Ping(context.Background()) }
	return records.NewPostgresStore(pool), ping, func(context.Context) error { pool.Close(); return nil }
}

// initEvents connects to NATS when configured. Events are optional: without
// NATS the publisher is a no-op.
func initEvents(log *zap.Logger, url string) (*events.Publisher, func(context.Context) error) {
	if url == "" {
		log.Info("NATS_URL not set, domain events disabled")
		return events.New(nil, log), noopClose
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: url, Name: "findme-ingestion", Logger: log})
	if err != nil {
		log.Warn("nats unavailable, domain events disabled", zap.Error(err))
		return events.New(nil, log), noopClose
	}
	js, err := nc.JetStream()
	if err == nil {
		err = events.EnsureStream(js)
	}
	if err != nil {
		log.Warn("jetstream unavailable, domain events disabled", zap.Error(err))
		nc.Close()
		return events.New(nil, log), noopClose
	}
	return events.New(js, log), func(context.Context) error { return nc.Drain() }
}
