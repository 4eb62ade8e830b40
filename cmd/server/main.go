package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/salonmate/salonmate/internal/ai"
	"github.com/salonmate/salonmate/internal/api"
	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/config"
	"github.com/salonmate/salonmate/internal/service"
	"github.com/salonmate/salonmate/internal/storage/sqlstore"
	"github.com/salonmate/salonmate/internal/worker"
	"github.com/salonmate/salonmate/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	envFile := flag.String("env-file", ".env", "path to a dotenv file (ignored when missing)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	var generator ai.Generator
	if cfg.AIProviderURL != "" {
		generator = ai.NewHTTPGenerator(ai.HTTPConfig{
			URL:     cfg.AIProviderURL,
			APIKey:  cfg.AIAPIKey,
			Timeout: cfg.AITimeout,
		})
		slog.Info("AI provider configured", "url", cfg.AIProviderURL)
	} else {
		generator = ai.NewTemplateGenerator()
		slog.Warn("No AI provider configured, using template replies")
	}
	if cfg.IngestAPIKey == "" {
		slog.Warn("INGEST_API_KEY is empty, review ingestion is disabled")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	subscriptions := service.NewSubscriptionService(store)
	svc := api.Services{
		Auth:          service.NewAuthService(store, auth.NewPasswordAuthenticator(store), jwtManager, cfg.RefreshTokenTTL),
		Shops:         service.NewShopService(store),
		Team:          service.NewTeamService(store),
		Media:         service.NewMediaService(store),
		Subscriptions: subscriptions,
		Reviews:       service.NewReviewService(store, generator, subscriptions),
		Posts:         service.NewPostService(store, generator, subscriptions),
		Calendar:      service.NewCalendarService(store),
		Analytics:     service.NewAnalyticsService(store),
	}

	router := api.NewRouter(svc, api.Options{
		JWT:         jwtManager,
		Roles:       store,
		IngestKey:   cfg.IngestAPIKey,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Wrap with h2c for HTTP/2 without TLS (used by Connect clients)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	scheduler := worker.NewScheduler(store, worker.LocalPublisher{}, cfg.PublishInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			slog.Error("Server failed", "error", err)
		}
		stop()
	}

	// The scheduler stops with ctx; in-flight requests get shutdownTimeout.
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}
