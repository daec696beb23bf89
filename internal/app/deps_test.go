package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chirpboard/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		UploadURLTTL: time.Hour,
		RateLimit:    config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5},
		ObjectStore: config.ObjectStoreConfig{
			Bucket:          "test-bucket",
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			AccessKeyID:     "test",
			SecretAccessKey: "test",
		},
	}
}

func TestBuildDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() { _ = cleanup() }()

	if deps.Users == nil || deps.Hasher == nil || deps.Tokens == nil {
		t.Fatal("expected account services to be configured")
	}
	if deps.Posts == nil {
		t.Fatal("expected post ledger to be configured")
	}
	if deps.Uploads == nil {
		t.Fatal("expected upload gateway to be configured")
	}
	if deps.Limiter == nil || deps.Metrics == nil {
		t.Fatal("expected rate limiter and metrics to be configured")
	}
	if !deps.Limiter.Allow(context.Background(), "login:127.0.0.1") {
		t.Fatal("expected first request to be allowed")
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected the limiter to use redis, keys: %v", mr.Keys())
	}
}

func TestBuildDependenciesWithoutRedis(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, testConfig(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = cleanup() }()

	if deps.Limiter == nil {
		t.Fatal("expected local rate limiter")
	}
}

func TestBuildDependenciesErrors(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "not a url"
	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, prometheus.NewRegistry()); err == nil {
		t.Fatal("expected invalid redis url to fail")
	}

	cfg = testConfig()
	cfg.ObjectStore.Bucket = ""
	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, prometheus.NewRegistry()); err == nil {
		t.Fatal("expected missing bucket to fail")
	}
}
