package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/qkart/api/routes"
	"github.com/angelmondragon/qkart/internal/auth"
	"github.com/angelmondragon/qkart/internal/cartstore"
	"github.com/angelmondragon/qkart/internal/products"
	"github.com/angelmondragon/qkart/internal/users"
	"github.com/angelmondragon/qkart/pkg/auth/session"
	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/env"
	"github.com/angelmondragon/qkart/pkg/instance"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/migrate"
	"github.com/angelmondragon/qkart/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := connectRedis(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: &cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:        userRepo,
		PasswordConfig:  cfg.Password,
		StartingBalance: cfg.Wallet.StartingBalance,
	})
	if err != nil {
		return err
	}
	productService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	cartService, err := cartstore.NewService(dbClient, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	port := env.Get("PORT", cfg.App.Port)
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"driver":   cfg.DB.Driver,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			RateLimiter:     redisClient,
			Sessions:        sessionManager,
			AuthService:     authService,
			RegisterService: registerService,
			ProductService:  productService,
			CartService:     cartService,
			Registry:        registry,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// connectRedis falls back to an in-process store when Redis is optional and unreachable.
func connectRedis(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*redis.Client, error) {
	client, err := redis.New(ctx, cfg.Redis, logg)
	if err == nil {
		return client, nil
	}
	if !cfg.FeatureFlags.RedisOptional {
		return nil, err
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, using in-memory sessions and rate limits")
	return redis.NewMemory(), nil
}
