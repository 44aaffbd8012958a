package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pratik-mahalle/parlour/internal/api/handlers"
	"github.com/pratik-mahalle/parlour/internal/api/middleware"
	"github.com/pratik-mahalle/parlour/internal/api/router"
	"github.com/pratik-mahalle/parlour/internal/auth"
	"github.com/pratik-mahalle/parlour/internal/config"
	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/character"
	"github.com/pratik-mahalle/parlour/internal/domain/speech"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/validator"
	"github.com/pratik-mahalle/parlour/internal/providers"
	"github.com/pratik-mahalle/parlour/internal/repository/memory"
	"github.com/pratik-mahalle/parlour/internal/repository/postgres"
	"github.com/pratik-mahalle/parlour/internal/services"
	"github.com/pratik-mahalle/parlour/internal/worker"
	"github.com/pratik-mahalle/parlour/migrations"
)

// @title Parlour API
// @version 1.0
// @description Metered chat with historical characters.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// store is what the services need from a persistence backend
type store interface {
	user.Repository
	user.SessionRepository
	billing.Repository
	Ping(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closer, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	gen, err := newGenerator(cfg.Generation)
	if err != nil {
		return err
	}

	var synth speech.Synthesizer
	if cfg.TTS.Enabled {
		polly, err := providers.NewPollySynthesizer(ctx, providers.AWSCredentials{
			AccessKeyID:     cfg.TTS.AccessKeyID,
			SecretAccessKey: cfg.TTS.SecretAccessKey,
			Region:          cfg.TTS.Region,
		})
		if err != nil {
			log.ErrorWithErr(err, "Speech synthesis unavailable, continuing without it")
		} else {
			synth = polly
		}
	}

	var payments billing.Provider
	accountOpts := []services.AccountOption{}
	if cfg.BillingEnabled() {
		stripe, err := providers.NewStripeBilling(cfg.Billing.StripeAPIKey, cfg.Billing.WebhookSecret)
		if err != nil {
			return fmt.Errorf("billing: %w", err)
		}
		payments = stripe
		accountOpts = append(accountOpts, services.WithCustomerProvisioning(stripe))
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, checkout and webhooks are disabled")
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	val := validator.New()

	accounts := services.NewAccountService(st, st, issuer, cfg.Auth.SessionExpiry, log, accountOpts...)
	ledger := services.NewUsageLedger(st, log)
	reconciler := services.NewBillingReconciler(st, st, log)
	billingSvc := services.NewBillingService(accounts, payments, reconciler, cfg.Billing, log)
	chat := services.NewChatService(character.Default(), gen, log)
	speechSvc := services.NewSpeechService(synth, cfg.TTS.DefaultVoice, log)

	h := &router.Handlers{
		Health:    handlers.NewHealthHandler(st, gen, cfg.Generation.Provider, log),
		Auth:      handlers.NewAuthHandler(accounts, ledger, log, val),
		Chat:      handlers.NewChatHandler(chat, speechSvc, log, val),
		Billing:   handlers.NewBillingHandler(billingSvc, cfg.Server.FrontendURL, log, val),
		Analytics: handlers.NewAnalyticsHandler(accounts, ledger, log),
	}
	deps := router.Deps{
		Verifier:    issuer,
		Gate:        middleware.NewGate(ledger, cfg.Quota.StrictAdmission, log),
		IPLimiter:   middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		UserLimiter: middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}
	go deps.IPLimiter.Run(ctx, 5*time.Minute)
	go deps.UserLimiter.Run(ctx, 5*time.Minute)

	snapshot := worker.NewUsageSnapshot(st, cfg.Worker.UsageSnapshotSchedule, log)
	if err := snapshot.Start(ctx); err != nil {
		return err
	}
	defer snapshot.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router.New(cfg, log, h, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"address":      srv.Addr,
			"environment":  cfg.Server.Environment,
			"llm_provider": cfg.Generation.Provider,
			"database":     cfg.Database.Driver,
			"strict_quota": cfg.Quota.StrictAdmission,
		}).Info("Parlour API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(cfg *config.Config, log *logger.Logger) (store, io.Closer, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("Using the in-memory store, accounts are lost on restart")
		return memory.New(time.Now), nopCloser{}, nil
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	applied, err := postgres.RunMigrations(db, cfg.Database.Driver, migrations.GetFS())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	s := postgres.NewStore(db, cfg.Database.Driver, time.Now)
	return s, s, nil
}

func newGenerator(cfg config.GenerationConfig) (character.Generator, error) {
	switch cfg.Provider {
	case "modal":
		return providers.NewModalGenerator(cfg.BaseURL, cfg.HealthURL, cfg.Timeout), nil
	case "openai":
		return providers.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
