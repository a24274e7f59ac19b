package config

import (
	"errors"
	"time"

	platformcfg "github.com/example/findme-platform/internal/platform/config"
	"github.com/example/findme-platform/services/ingestion/internal/safe182"
)

type Config struct {
	BaseURL    string
	EsntlID    string
	AuthKey    string
	RowSize    int
	MaxRetries int
	MaxPages   int
	PageDelay  time.Duration

	Schedule   string
	RunTimeout time.Duration
	RunOnStart bool

	DatabaseURL string
	NATSURL     string

	JWTSecret   string
	AdminEmails []string
	AdminUIDs   []string
}

func Load() (Config, error) {
	cfg := Config{
		BaseURL:     platformcfg.EnvString("SAFE182_BASE_URL", safe182.DefaultBaseURL),
		EsntlID:     platformcfg.EnvString("SAFE182_ESNTL_ID", ""),
		AuthKey:     platformcfg.EnvString("SAFE182_AUTH_KEY", ""),
		RowSize:     platformcfg.EnvInt("SAFE182_ROW_SIZE", safe182.DefaultRowSize),
		MaxRetries:  platformcfg.EnvInt("SAFE182_MAX_RETRIES", 2),
		MaxPages:    platformcfg.EnvInt("INGEST_MAX_PAGES", 500),
		PageDelay:   platformcfg.EnvDuration("INGEST_PAGE_DELAY", 500*time.Millisecond),
		Schedule:    platformcfg.EnvString("INGEST_SCHEDULE", "@every 30m"),
		RunTimeout:  platformcfg.EnvDuration("INGEST_RUN_TIMEOUT", 10*time.Minute),
		RunOnStart:  platformcfg.EnvString("INGEST_RUN_ON_START", "false") == "true",
		DatabaseURL: platformcfg.EnvString("DATABASE_URL", ""),
		NATSURL:     platformcfg.EnvString("NATS_URL", ""),
		JWTSecret:   platformcfg.EnvString("JWT_SECRET", ""),
		AdminEmails: platformcfg.EnvList("ADMIN_EMAILS"),
		AdminUIDs:   platformcfg.EnvList("ADMIN_UIDS"),
	}
	if cfg.EsntlID == "" || cfg.AuthKey == "" {
		return Config{}, errors.New("SAFE182_ESNTL_ID and SAFE182_AUTH_KEY are required")
	}
	if cfg.RowSize == 0 {
		cfg.RowSize = safe182.DefaultRowSize
	}
	return cfg, nil
}
