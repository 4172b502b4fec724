// Package bootstrap wires the process-level dependencies shared by every command.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"creatorhub/internal/cache"
	"creatorhub/internal/config"
	"creatorhub/internal/database"
	"creatorhub/internal/middleware"
	"creatorhub/internal/observability"
	"creatorhub/internal/payments"
	"creatorhub/internal/push"
	"creatorhub/internal/seed"
	"creatorhub/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedScenario, when set, loads a seed scenario file after migration.
	SeedScenario string
}

// Runtime holds the initialized external dependencies.
type Runtime struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Store    storage.Store
	Push     push.Sender
	Payments payments.Provider

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and Redis and builds the optional
// integrations. Redis, push and payments degrade to no-ops when unavailable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.ConfigureLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "creatorhub-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// may result in a nil client if unreachable
	cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	rt := &Runtime{
		DB:              db,
		Redis:           cache.GetClient(),
		Store:           store,
		Push:            push.Noop{},
		Payments:        payments.Unconfigured{},
		shutdownTracing: shutdownTracing,
	}

	if cfg.FCMCredentialsFile != "" {
		sender, err := push.NewFCMSender(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			middleware.Logger.Warn("push notifications disabled", slog.String("error", err.Error()))
		} else {
			rt.Push = sender
		}
	}

	if cfg.StripeSecretKey != "" {
		provider, err := payments.NewStripeProvider(cfg.StripeSecretKey, cfg.VerificationPriceCents)
		if err != nil {
			middleware.Logger.Warn("verification payments disabled", slog.String("error", err.Error()))
		} else {
			rt.Payments = provider
		}
	}

	if opts.SeedScenario != "" {
		scenario, err := seed.LoadScenario(opts.SeedScenario)
		if err != nil {
			return nil, err
		}
		if _, err := seed.Run(ctx, db, scenario); err != nil {
			return nil, fmt.Errorf("seeding failed: %w", err)
		}
	}

	return rt, nil
}

// Close releases the tracer. Database and Redis are closed by the server.
func (r *Runtime) Close(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}
