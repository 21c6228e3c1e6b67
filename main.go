package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/config"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/server"
	"github.com/pliu/estate/internal/store/sqlstore"
	"github.com/pliu/estate/internal/ws"
)

var addr = flag.String("addr", "", "http service address (overrides SERVER_ADDR)")

func main() {
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.IsDevelopment() && cfg.Auth.JWTSecret == config.DevJWTSecret {
		logging.Warn().Msg("JWT_SECRET_KEY not set, using the development secret")
	}

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	go hub.Run(ctx)

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(server.Deps{
			Config: cfg,
			Store:  store,
			Tokens: auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			Hub:    hub,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Str("driver", cfg.Database.Driver).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
