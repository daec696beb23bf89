package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/config"
	"github.com/chirpboard/backend/internal/db"
	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/posts"
	"github.com/chirpboard/backend/internal/repositories"
)

const devSeedPassword = "Passw0rd!"

var devSeedUsers = []string{"alice", "bob"}

type seedUserStore interface {
	Create(ctx context.Context, user models.User) error
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}
	if args[0] != "dev" {
		return fmt.Errorf("unknown seed %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	ledger := posts.NewLedger(repositories.NewPostgresPostRepository(pool))
	created, err := seedDev(ctx, repositories.NewPostgresUserRepository(pool), ledger, auth.NewHasher(bcrypt.DefaultCost))
	if err != nil {
		return err
	}

	fmt.Printf("applied seed dev (%d new users)\n", created)
	return nil
}

// seedDev creates the demo accounts and a welcome post. Accounts that already
// exist are left alone, so running it twice is harmless.
func seedDev(ctx context.Context, users seedUserStore, ledger *posts.Ledger, hasher *auth.Hasher) (int, error) {
	created := 0
	for _, username := range devSeedUsers {
		digest, err := hasher.Hash(devSeedPassword)
		if err != nil {
			return created, fmt.Errorf("hash seed password: %w", err)
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        username + "@chirpboard.dev",
			PasswordHash: digest,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err = users.Create(ctx, user)
		switch {
		case errors.Is(err, repositories.ErrConflict):
			continue
		case err != nil:
			return created, fmt.Errorf("seed user %s: %w", username, err)
		}
		created++

		if username == devSeedUsers[0] {
			if _, err := ledger.CreatePost(ctx, user.ID, "Welcome to chirpboard!"); err != nil {
				return created, fmt.Errorf("seed welcome post: %w", err)
			}
		}
	}
	return created, nil
}
