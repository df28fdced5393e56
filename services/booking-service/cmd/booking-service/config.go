package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/bellabook/libs/config"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/session"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/wizard"
)

type appConfig struct {
	Service      string
	Port         string
	LogLevel     string
	DatabaseURL  string
	RedisAddr    string
	KafkaBrokers string

	Slug          string
	Location      *time.Location
	WindowDays    int
	ConflictCheck bool
	PhoneKey      roster.PhoneKey
	SessionTTL    time.Duration

	CORSOrigins        []string
	RateLimitPerMinute int
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	var err error

	cfg.Service = config.String("SERVICE_NAME", "booking-service")
	if cfg.Port, err = config.Port("PORT", "8083"); err != nil {
		return cfg, err
	}
	cfg.LogLevel = config.String("LOG_LEVEL", "info")
	cfg.DatabaseURL = config.String("DATABASE_URL", "")
	cfg.RedisAddr = config.String("REDIS_ADDR", "")
	cfg.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	cfg.Slug = config.String("BUSINESS_SLUG", "studio")

	tz := config.String("BUSINESS_TIMEZONE", "Local")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return cfg, fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}
	if cfg.WindowDays, err = config.Int("BOOKING_WINDOW_DAYS", wizard.DefaultWindowDays); err != nil {
		return cfg, err
	}
	if cfg.ConflictCheck, err = config.Bool("BOOKING_CONFLICT_CHECK", false); err != nil {
		return cfg, err
	}
	if cfg.PhoneKey, err = roster.PhoneKeyFor(config.String("PHONE_MATCH", roster.MatchExact)); err != nil {
		return cfg, err
	}
	if cfg.SessionTTL, err = config.Duration("SESSION_TTL", session.DefaultTTL); err != nil {
		return cfg, err
	}
	cfg.CORSOrigins = config.List("CORS_ALLOWED_ORIGINS")
	if cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return cfg, err
	}
	return cfg, nil
}
