package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/config"
	"github.com/chirpboard/backend/internal/db"
	"github.com/chirpboard/backend/internal/handlers"
	"github.com/chirpboard/backend/internal/middleware"
	"github.com/chirpboard/backend/internal/posts"
	"github.com/chirpboard/backend/internal/repositories"
	"github.com/chirpboard/backend/internal/storage"
	"github.com/chirpboard/backend/internal/uploads"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases connections opened here.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, reg prometheus.Registerer) (handlers.Dependencies, func() error, error) {
	users := repositories.NewPostgresUserRepository(pool)

	objects, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	limiter, cleanup, err := buildRateLimiter(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	return handlers.Dependencies{
		Users:   users,
		Hasher:  auth.NewHasher(bcrypt.DefaultCost),
		Tokens:  auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Posts:   posts.NewLedger(repositories.NewPostgresPostRepository(pool)),
		Uploads: uploads.NewGateway(objects, users, cfg.UploadURLTTL),
		Limiter: limiter,
		Metrics: middleware.NewMetrics(reg),
	}, cleanup, nil
}

// buildRateLimiter shares limits through Redis when REDIS_URL is set and
// falls back to per-process buckets otherwise.
func buildRateLimiter(ctx context.Context, cfg config.Config) (middleware.RateLimiter, func() error, error) {
	rl := cfg.RateLimit
	if cfg.RedisURL == "" {
		return middleware.NewLocalRateLimiter(rl.Requests, rl.Window, rl.Burst, 0), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return middleware.NewRedisRateLimiter(client, rl.Requests, rl.Window, rl.Burst), client.Close, nil
}
