package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/lmittmann/tint"

	"github.com/joshuacenter/applicant-intake/internal/config"
	"github.com/joshuacenter/applicant-intake/internal/database"
	"github.com/joshuacenter/applicant-intake/internal/handler"
	"github.com/joshuacenter/applicant-intake/internal/intake"
	"github.com/joshuacenter/applicant-intake/internal/middleware"
	"github.com/joshuacenter/applicant-intake/internal/queue"
	"github.com/joshuacenter/applicant-intake/internal/repository"
	"github.com/joshuacenter/applicant-intake/internal/router"
	queue_publisher "github.com/joshuacenter/applicant-intake/internal/service"
	"github.com/joshuacenter/applicant-intake/internal/storage"
	"github.com/joshuacenter/applicant-intake/internal/verification"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // a missing .env is fine outside local development

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.DateTime,
		NoColor:    cfg.IsProduction(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema ready")
	}

	// Redis backs the verification rate limiter and the location cache.
	// Both degrade to pass-through when it is unreachable.
	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	cache := middleware.NewCache(config.LoadCacheConfig(), rdb, logger)

	applicants := repository.NewApplicantRepo(db)
	locations := repository.NewLocationRepo(db)
	users := repository.NewUserRepo(db)

	docs, err := storage.NewResumeStore(cfg.UploadDir, cfg.MaxResumeBytes)
	if err != nil {
		return fmt.Errorf("uploads: %w", err)
	}

	var (
		submitted intake.EventPublisher
		changed   handler.StatusPublisher
	)
	if cfg.EventsEnabled {
		pub := queue_publisher.New(cfg.RabbitMQURL, logger)
		submitted, changed = pub, pub
		consumer := &queue.Consumer{URL: cfg.RabbitMQURL, LogDir: cfg.EventLogDir, Logger: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "err", err)
			}
		}()
	}

	svc := intake.NewService(
		intake.NewValidator(cfg.MaxResumeBytes, cfg.RequireVerifiedEmail),
		applicants, docs, submitted, logger, cfg.SubmitTimeout,
	)

	gate := verification.NewGate(
		verification.WithTTL(cfg.VerificationTTL),
		verification.WithCost(cfg.BcryptCost),
	)
	go gate.Run(ctx, cfg.VerificationSweepInterval, logger)

	ah := &handler.ApplicantHandler{Intake: svc, Applicants: applicants, Events: changed, Logger: logger}
	lh := &handler.LocationHandler{Locations: locations, Cache: cache, Logger: logger}
	uh := &handler.UserHandler{Users: users, Logger: logger}
	vh := &handler.VerificationHandler{
		Gate:        gate,
		ExposeCode:  cfg.ExposeVerificationCode,
		TokenSecret: cfg.VerificationTokenSecret,
		TokenTTL:    cfg.VerificationTokenTTL,
		Logger:      logger,
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	// room for the JSON part and multipart framing on top of the resume
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", cfg.MaxResumeBytes/1024+512)))
	e.Static(strings.TrimSuffix(storage.PublicPrefix, "/"), cfg.UploadDir)

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e, ah, lh, middleware.VerifiedEmail(cfg.VerificationTokenSecret), cache.Middleware())
	router.RegisterVerification(e, vh, limiter)
	router.RegisterAdmin(e, ah, lh, uh)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
