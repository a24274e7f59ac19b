package config

import (
	"errors"
	"strings"
	"time"

	platformcfg "github.com/example/findme-platform/internal/platform/config"
	"github.com/example/findme-platform/services/board/internal/botcheck"
	"github.com/example/findme-platform/services/board/internal/ratelimit"
)

type Config struct {
	DatabaseURL string
	RedisDSN    string
	NATSURL     string

	JWTSecret   string
	AdminEmails []string
	AdminUIDs   []string

	RateLimit  int
	RateWindow time.Duration

	// BotSecret empty disables the bot check (development only).
	BotSecret    string
	BotVerifyURL string
}

func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:  platformcfg.EnvString("DATABASE_URL", ""),
		RedisDSN:     platformcfg.EnvString("REDIS_DSN", ""),
		NATSURL:      platformcfg.EnvString("NATS_URL", ""),
		JWTSecret:    platformcfg.EnvString("JWT_SECRET", ""),
		AdminEmails:  platformcfg.EnvList("ADMIN_EMAILS"),
		AdminUIDs:    platformcfg.EnvList("ADMIN_UIDS"),
		RateLimit:    platformcfg.EnvInt("RATE_LIMIT_MAX", ratelimit.DefaultLimit),
		RateWindow:   platformcfg.EnvDuration("RATE_LIMIT_WINDOW", ratelimit.DefaultWindow),
		BotSecret:    platformcfg.EnvString("BOT_CHECK_SECRET", ""),
		BotVerifyURL: platformcfg.EnvString("BOT_CHECK_VERIFY_URL", botcheck.DefaultVerifyURL),
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = ratelimit.DefaultLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = ratelimit.DefaultWindow
	}
	return cfg, nil
}

// Validate applies production-only requirements.
func (c Config) Validate(isProd bool) error {
	if !isProd {
		return nil
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required in production")
	}
	if c.BotSecret == "" {
		return errors.New("BOT_CHECK_SECRET is required in production")
	}
	return nil
}
