package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"moviehub/internal/auth"
	"moviehub/internal/config"
	"moviehub/internal/db"
	"moviehub/internal/handlers"
)

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.Development() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config")
	}
	logger := newLogger(cfg)

	dbc, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open database")
	}
	defer dbc.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, dbc); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash admin password")
	}
	created, err := db.Seed(ctx, dbc, cfg.Admin.Name, cfg.Admin.Email, hash)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	if created {
		logger.Info().Str("email", cfg.Admin.Email).Msg("default admin user created")
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	hcfg := handlers.Config{CORSOrigin: cfg.CORSOrigin}
	if cfg.Limiter.Enabled {
		hcfg.RateLimit = rate.Limit(cfg.Limiter.RPS)
		hcfg.Burst = cfg.Limiter.Burst
	}
	h := handlers.New(dbc, tokens, hcfg, logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logger.Info().Str("signal", s.String()).Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("serve")
	}
	if err := <-shutdownErr; err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("stopped")
}
