package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/config"
	"github.com/hospease/hospease/internal/domain/appointment"
	"github.com/hospease/hospease/internal/domain/bed"
	"github.com/hospease/hospease/internal/domain/directory"
	"github.com/hospease/hospease/internal/domain/patient"
	"github.com/hospease/hospease/internal/domain/prescription"
	"github.com/hospease/hospease/internal/platform/auth"
	"github.com/hospease/hospease/internal/platform/db"
	"github.com/hospease/hospease/internal/platform/metrics"
	"github.com/hospease/hospease/internal/platform/middleware"
	"github.com/hospease/hospease/internal/platform/notification"
	"github.com/hospease/hospease/internal/platform/realtime"
	"github.com/hospease/hospease/internal/platform/validate"
)

// services is everything the HTTP layer is assembled from.
type services struct {
	pool        *pgxpool.Pool
	hub         *realtime.Hub
	broadcaster realtime.Broadcaster
	notifier    *notification.Notifier
	metrics     *metrics.Metrics
}

func newServer(cfg *config.Config, logger zerolog.Logger, s services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Validator = validate.New()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(s.metrics.Middleware())

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(auth.AuthSkipper))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.AuthSecret),
			Skipper:    auth.AuthSkipper,
		}))
	}

	// Rate limiting runs after auth so limits are keyed per caller.
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Infrastructure endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	var stats func() *db.PoolStats
	if s.pool != nil {
		stats = func() *db.PoolStats { return db.GetPoolStats(s.pool) }
	}
	e.GET("/health/db", db.HealthHandler(s.pool, stats))
	e.GET("/metrics", s.metrics.Handler())

	realtime.NewWebSocketHandler(s.hub, cfg.CORSOrigins).RegisterRoutes(e)

	api := e.Group("/api/v1")

	dirSvc := directory.NewService(
		directory.NewHospitalRepoPG(s.pool),
		directory.NewDepartmentRepoPG(s.pool),
		directory.NewDoctorRepoPG(s.pool),
	)
	directory.NewHandler(dirSvc).RegisterRoutes(api)

	patient.NewHandler(patient.NewService(patient.NewRepoPG(s.pool))).RegisterRoutes(api)

	apptSvc := appointment.NewService(
		appointment.NewRepoPG(s.pool),
		appointment.PGTx(s.pool),
		s.broadcaster,
		s.notifier,
		s.metrics,
		logger,
	)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)

	bed.NewHandler(bed.NewService(bed.NewRepoPG(s.pool), logger)).RegisterRoutes(api)

	rxSvc := prescription.NewService(prescription.NewRepoPG(s.pool), s.notifier, logger)
	prescription.NewHandler(rxSvc).RegisterRoutes(api)

	return e
}

func newNotifier(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *notification.Notifier {
	if !cfg.SMTPEnabled() {
		logger.Info().Msg("SMTP not configured, emails disabled")
		return notification.NewNotifier(nil, nil, logger, m)
	}
	sender := notification.NewSMTPSender(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	return notification.NewNotifier(sender, nil, logger, m)
}

// loadConfig returns a validated config and a logger for its environment.
// The logger is usable even when err is set.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, newLogger(os.Getenv("ENV")), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func runServer() error {
	// Config
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	m := metrics.New()
	m.RegisterPoolStats(func() *db.PoolStats { return db.GetPoolStats(pool) })

	// Realtime: a single process fans out from its own hub; with Redis every
	// process relays the shared channel into its hub.
	hub := realtime.NewHub(logger, m)
	var broadcaster realtime.Broadcaster = hub
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()

		rb := realtime.NewRedisBroadcaster(client, realtime.DefaultChannel, hub, logger, m)
		go func() {
			if err := rb.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		broadcaster = rb
		logger.Info().Msg("realtime events relayed through redis")
	}

	notifier := newNotifier(cfg, logger, m)

	e := newServer(cfg, logger, services{
		pool:        pool,
		hub:         hub,
		broadcaster: broadcaster,
		notifier:    notifier,
		metrics:     m,
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	hub.CloseAll()
	cancelRun()
	notifier.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
