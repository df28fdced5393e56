package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/bellabook/libs/config"
	"github.com/md-rashed-zaman/bellabook/libs/db"
	"github.com/md-rashed-zaman/bellabook/libs/httpx"
	"github.com/md-rashed-zaman/bellabook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bellabook/libs/otel"
	"github.com/md-rashed-zaman/bellabook/libs/runtime"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/memstore"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/session"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	deps := handlers.Deps{
		Metrics:       metrics.NewBookingMetrics(nil),
		Logger:        logger,
		Slug:          cfg.Slug,
		Location:      cfg.Location,
		WindowDays:    cfg.WindowDays,
		ConflictCheck: cfg.ConflictCheck,
	}
	checks := []runtime.ReadyCheck{
		{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		if err := storage.RunMigrations(ctx, pool); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}

		outboxRepo := outbox.NewRepository()
		deps.Catalog = storage.NewServiceRepository(pool)
		deps.Appointments = storage.NewAppointmentRepository(pool)
		deps.Clients = storage.NewClientRepository(pool, cfg.PhoneKey)
		deps.Recorder = storage.NewRecorder(pool, cfg.PhoneKey, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	} else {
		logger.Warn("DATABASE_URL not set; catalog, appointments and clients are kept in memory")
		appts := memstore.NewAppointments()
		clients := roster.NewMemory(cfg.PhoneKey)
		deps.Catalog = memstore.NewCatalog()
		deps.Appointments = appts
		deps.Clients = clients
		deps.Recorder = memstore.NewRecorder(appts, clients)
	}

	limiter := httpx.Limiter(httpx.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute))
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		deps.Hours = hours.NewRedisStore(rdb)
		deps.Sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		limiter = httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "bellabook:ratelimit:")
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		logger.Warn("REDIS_ADDR not set; business hours and booking sessions are kept in memory")
		deps.Hours = hours.NewMemoryStore()
		deps.Sessions = session.NewMemoryStore(cfg.SessionTTL)
	}
	if cfg.RateLimitPerMinute > 0 {
		deps.PublicMiddleware = append(deps.PublicMiddleware, httpx.WithRateLimit(limiter, logger, true))
	}

	router := handlers.New(deps).Routes()
	router.Get("/healthz", runtime.Healthz)
	router.Get("/readyz", runtime.Readyz(checks...))
	router.Handle("/metrics", promhttp.Handler())

	httpHandler := httpx.Chain(router,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: cfg.CORSOrigins}),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "slug", cfg.Slug, "conflict_check", cfg.ConflictCheck)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
