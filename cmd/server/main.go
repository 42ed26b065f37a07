package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/MaivaSoftwares/intercom/internal/api"
	"github.com/MaivaSoftwares/intercom/internal/config"
	"github.com/MaivaSoftwares/intercom/internal/crypto"
	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/store"
	"github.com/MaivaSoftwares/intercom/internal/transport"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize durable store: Postgres when configured, SQLite otherwise
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		db = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		db = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer db.Close()

	// Initialize Redis store
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// In-memory ledger engine, shared by the HTTP host and the relay listener
	engine := ledger.NewEngine()

	// Relay transport: fan expense events out to peer nodes over Redis
	// pub/sub and fold theirs into the local engine. Without Redis the
	// node runs standalone.
	listenCtx, stopListen := context.WithCancel(ctx)
	defer stopListen()

	var peers transport.Transport = transport.Nop{}
	if redisStore != nil {
		origin := crypto.NewUUIDv7().String()
		rt := transport.NewRedisTransport(redisStore.Client(), cfg.PeerNamespace, origin, logger)
		peers = rt

		go func() {
			if err := rt.Listen(listenCtx, engine); err != nil && listenCtx.Err() == nil {
				logger.Error().Err(err).Msg("relay listener stopped")
			}
		}()
		logger.Info().Str("origin", origin).Str("namespace", cfg.PeerNamespace).Msg("relay transport started")
	}

	// Create router
	router := api.NewRouter(logger, cfg, engine, db, redisStore, peers)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting intercom server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	stopListen()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
