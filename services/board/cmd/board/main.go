package main

import (
	"context"
	"os"

	"github.com/go-chi/chi/v5"
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
	"github.com/example/findme-platform/services/board/internal/botcheck"
	"github.com/example/findme-platform/services/board/internal/comments"
	boardcfg "github.com/example/findme-platform/services/board/internal/config"
	"github.com/example/findme-platform/services/board/internal/handlers"
	"github.com/example/findme-platform/services/board/internal/moderation"
	"github.com/example/findme-platform/services/board/internal/persons"
	"github.com/example/findme-platform/services/board/internal/ratelimit"
	"github.com/example/findme-platform/services/board/internal/store"
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

	bc, err := boardcfg.Load()
	if err == nil {
		err = bc.Validate(cfg.IsProduction())
	}
	if err != nil {
		log.Error("load board config", zap.Error(err))
		run.Exit(1)
	}

	recs, comms, ping, closeDB := initStores(log, bc.DatabaseURL, cfg.IsProduction())
	limiter, closeLimiter := initLimiter(log, bc)
	publisher, closeNATS := initEvents(log, bc.NATSURL)

	var bot botcheck.Verifier = botcheck.Noop{}
	if bc.BotSecret != "" {
		bot = botcheck.NewSiteVerify(bc.BotVerifyURL, bc.BotSecret, nil, log.Named("botcheck"))
	} else {
		log.Warn("BOT_CHECK_SECRET not set, bot check disabled (development only)")
	}

	commentSvc := &comments.Service{Store: comms, Limiter: limiter, Bot: bot, Parents: recs, Log: log.Named("comments")}
	moderationSvc := &moderation.Service{Store: comms, Limiter: limiter, Events: publisher, Log: log.Named("moderation")}
	personSvc := &persons.Service{Store: recs, Limiter: limiter, Geocoder: geocode.Lookup, Events: publisher, Log: log.Named("persons")}

	verifier := auth.JWTVerifier{Secret: []byte(bc.JWTSecret)}
	policy := auth.DefaultAdminPolicy(bc.AdminEmails, bc.AdminUIDs)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: ping, Logger: log})

	r.Route("/v1", func(r chi.Router) {
		// Public reads; admins see hidden comments.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalUser(verifier, policy))
			r.Get("/comments/{id}", handlers.ListComments(commentSvc))
			r.Get("/missing-persons", handlers.ListPersons(personSvc))
			r.Get("/missing-persons/{id}", handlers.GetPerson(personSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(verifier, policy))
			r.Post("/comments", handlers.CreateComment(commentSvc))
			r.Patch("/comments/{id}", handlers.EditComment(commentSvc))
			r.Delete("/comments/{id}", handlers.DeleteComment(commentSvc))
			r.Post("/comments/{id}/like", handlers.LikeComment(commentSvc))
			r.Post("/comments/{id}/report", handlers.ReportComment(moderationSvc))
			r.Post("/missing-persons", handlers.SubmitPerson(personSvc))
			r.Delete("/missing-persons/{id}", handlers.DeletePerson(personSvc))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/comment-reports", handlers.ListReports(moderationSvc))
				r.Post("/comment-reports/{id}/resolve", handlers.ResolveReport(moderationSvc))
				r.Post("/comments/{id}/moderation", handlers.ModerateComment(moderationSvc))
			})
		})
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(context.Context) error {
		return srv.Start()
	},
		closeDB,
		closeLimiter,
		closeNATS,
		srv.Shutdown,
	)

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func noopClose(context.Context) error { return nil }

// initStores selects the record and comment store backends, which share one
// pool. In production (APP_ENV=production) Postgres is mandatory.
func initStores(log *zap.Logger, dsn string, isProd bool) (records.Store, store.Store, func() error, func(context.Context) error) {
	ready := func() error { return nil }
	if dsn == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		return records.NewInMemoryStore(), store.NewInMemoryStore(), ready, noopClose
	}

	pool, err := db.Open(context.Background(), dsn)
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return records.NewInMemoryStore(), store.NewInMemoryStore(), ready, noopClose
	}

	log.Info("board stores: postgres")
	ping := func() error { return pool.Ping(context.Background()) }
	return records.NewPostgresStore(pool), store.NewPostgresStore(pool), ping,
		func(context.Context) error { pool.Close(); return nil }
}

// initLimiter prefers Redis so limits hold across instances; the in-memory
// limiter only counts for this process.
func initLimiter(log *zap.Logger, bc boardcfg.Config) (ratelimit.Limiter, func(context.Context) error) {
	if bc.RedisDSN == "" {
		log.Warn("REDIS_DSN not set, rate limits are per-instance")
		return ratelimit.NewMemory(bc.RateLimit, bc.RateWindow), noopClose
	}
	rl := ratelimit.NewRedis(bc.RedisDSN, bc.RateLimit, bc.RateWindow)
	if err := rl.Ping(context.Background()); err != nil {
		log.Warn("redis unavailable at startup, limiter will allow actions until it recovers", zap.Error(err))
	} else {
		log.Info("rate limiter: redis")
	}
	return rl, func(context.Context) error { return rl.Close() }
}

// initEvents connects to NATS when configured. Events are optional: without
// NATS the publisher is a no-op.
func initEvents(log *zap.Logger, url string) (*events.Publisher, func(context.Context) error) {
	if url == "" {
		log.Info("NATS_URL not set, domain events disabled")
		return events.New(nil, log), noopClose
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: url, Name: "findme-board", Logger: log})
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
