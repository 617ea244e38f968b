package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/motoconnect/auth-service/internal/api"
	"github.com/motoconnect/auth-service/internal/core/service"
	"github.com/motoconnect/auth-service/internal/infrastructure/db/mongo"
	"github.com/motoconnect/auth-service/internal/infrastructure/db/redis"
	"github.com/motoconnect/auth-service/internal/infrastructure/queue"
	"github.com/motoconnect/auth-service/internal/pkg/config"
	"github.com/motoconnect/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger settings come from the same config, so fall back to defaults.
		log := logger.Init(logger.Options{Service: "authd"})
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "authd",
	})

	tokens, err := service.NewTokenIssuer(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	if err != nil {
		log.Error().Err(err).Msg("token issuer misconfigured")
		return err
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Error().Err(err).Msg("identity store unavailable")
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	repo := mongo.NewIdentityRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Error().Err(err).Msg("could not ensure identity indexes")
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error().Err(err).Msg("login throttle store unavailable")
		return err
	}
	defer rdb.Close()

	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()
	pool := queue.NewPool(cfg.Password.Workers, log)
	pool.Start(poolCtx)

	authService := service.NewAuthService(repo, service.AuthConfig{
		Iterations: cfg.Password.Iterations,
		Pool:       pool,
		Throttle:   redis.NewLoginThrottle(rdb, cfg.Login.MaxFailures, cfg.Login.Lockout),
	}, log)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Tokens:      tokens,
		Log:         log,
		Mongo:       mongoClient,
		Redis:       rdb,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
