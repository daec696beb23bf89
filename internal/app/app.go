package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chirpboard/backend/internal/config"
	"github.com/chirpboard/backend/internal/db"
	"github.com/chirpboard/backend/internal/handlers"
	"github.com/chirpboard/backend/internal/httpserver"
	"github.com/chirpboard/backend/internal/logging"
	"github.com/chirpboard/backend/internal/middleware"
)

// Run bootstraps the chirpboard backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With("service", "chirpboard")
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("release dependencies", "error", err)
		}
	}()

	handler := middleware.RequestLogger(logger)(handlers.NewRouter(deps))
	srv := httpserver.New(cfg.AppPort, handler)

	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	logger.Info("starting http server", "port", cfg.AppPort)
	return srv.Run(ctx, ln, logger)
}
