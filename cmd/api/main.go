package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/handler"
	"portfolio/internal/httpserver"
	"portfolio/internal/services"
	"portfolio/internal/util"
)

const rateLimitWindow = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := util.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", cfg.App.Version),
		zap.Bool("debug", cfg.App.Debug),
		zap.String("host", cfg.App.Host),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		logger.Info("closing database connections")
		if err := database.Close(db); err != nil {
			logger.Error("error closing database", zap.Error(err))
		}
	}()
	if err := database.Seed(db, cfg, logger); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	limiter, err := newRateLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	breaker := services.NewBreakerTransport(services.NewSMTPTransport(&cfg.Mail), logger)
	emailSvc, err := services.NewEmailService(&cfg.Mail, breaker, logger)
	if err != nil {
		return err
	}
	if cfg.Mail.OperatorAddress == "" {
		logger.Warn("ADMIN_EMAIL is unset; operator notifications will be skipped")
	}

	resumeSvc, err := services.NewResumeService(&cfg.Resume, logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	projects := services.NewProjectService(db, logger)
	blog := services.NewBlogService(db, logger)
	messages := services.NewMessageService(db, logger)
	svc := handler.Services{
		Contact:   services.NewContactService(db, emailSvc, logger),
		Projects:  projects,
		Blog:      blog,
		Messages:  messages,
		Profile:   services.NewProfileService(db, logger),
		Settings:  services.NewSettingsService(db, map[string]string{services.SettingSiteName: cfg.Mail.SiteName}, logger),
		Dashboard: services.NewDashboardService(projects, blog, messages),
		Auth:      services.NewAuthService(db, &cfg.Auth, logger),
		Images:    services.NewImageService(services.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.URLPrefix), &cfg.Uploads, logger),
		Resume:    resumeSvc,
		Chat:      services.NewChatService(logger),
		Health:    services.NewHealthService(db, breaker, cfg.App.Name, cfg.App.Version),
		Limiter:   limiter,
	}

	h, err := handler.New(cfg, svc, logger)
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg, httpserver.NewHandler(cfg, h, logger), logger)
	return srv.Run(ctx)
}

// newRateLimiter uses Redis when REDIS_URL is set, otherwise an in-process
// store swept once per window until ctx ends.
func newRateLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services.RateLimiter, error) {
	if cfg.RateLimit.RedisURL != "" {
		rdb, err := services.NewRedisClient(cfg.RateLimit.RedisURL)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = rdb.Close()
		}()
		logger.Info("rate limiting backed by redis")
		return services.NewRateLimiter(services.NewRedisRateLimitStore(rdb), cfg.RateLimit.Enabled, logger), nil
	}

	store := services.NewMemoryRateLimitStore()
	go func() {
		ticker := time.NewTicker(rateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				store.Sweep(rateLimitWindow)
			}
		}
	}()
	return services.NewRateLimiter(store, cfg.RateLimit.Enabled, logger), nil
}
