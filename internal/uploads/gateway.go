// Package uploads issues presigned profile image uploads.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chirpboard/backend/internal/logging"
	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/validation"
)

// ObjectStore signs uploads and removes objects.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(raw string) (string, bool)
}

// ProfileStore reads and updates the image reference on a user record.
type ProfileStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetProfileURL(ctx context.Context, id string, url *string) error
}

// Gateway hands out presigned upload URLs for profile images.
type Gateway struct {
	objects ObjectStore
	users   ProfileStore
	ttl     time.Duration
	now     func() time.Time
	newKey  func(name string) string
}

// NewGateway constructs a Gateway issuing authorizations valid for ttl.
func NewGateway(objects ObjectStore, users ProfileStore, ttl time.Duration) *Gateway {
	if objects == nil || users == nil {
		panic("uploads: object and profile stores must not be nil")
	}
	if ttl <= 0 {
		panic("uploads: ttl must be positive")
	}
	return &Gateway{
		objects: objects,
		users:   users,
		ttl:     ttl,
		now:     time.Now,
		newKey:  objectKey,
	}
}

func objectKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		if r == ' ' || r == '?' || r == '#' || r == '%' {
			return '_'
		}
		return r
	}, base)
	return uuid.NewString() + "_" + base
}

// Issue validates the declared image, signs an upload for a fresh key and
// records the resulting public URL on userID's profile. Removing the previous
// image is best-effort.
func (g *Gateway) Issue(ctx context.Context, userID string, details models.ImageDetails) (models.PresignedUpload, error) {
	if err := validation.Struct(details); err != nil {
		return models.PresignedUpload{}, err
	}

	ctx, span := logging.StartSpan(ctx, "uploads.issue")
	defer span.End()
	logger := logging.FromContext(ctx)

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return models.PresignedUpload{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	key := g.newKey(details.Name)
	presigned, err := g.objects.PresignPut(ctx, key, details.Type, details.Size, g.ttl)
	if err != nil {
		span.RecordError(err)
		return models.PresignedUpload{}, fmt.Errorf("presign upload: %w", err)
	}
	imageURL := g.objects.PublicURL(key)

	if user.ProfileURL != nil {
		if oldKey, ok := g.objects.KeyFromURL(*user.ProfileURL); ok && oldKey != key {
			if err := g.objects.Delete(ctx, oldKey); err != nil {
				logger.Warn("remove previous profile image", slog.String("key", oldKey), slog.Any("error", err))
			}
		}
	}

	if err := g.users.SetProfileURL(ctx, userID, &imageURL); err != nil {
		span.RecordError(err)
		return models.PresignedUpload{}, fmt.Errorf("save profile url: %w", err)
	}

	logger.Info("issued image upload", slog.String("key", key))
	return models.PresignedUpload{
		PresignedURL: presigned,
		ImageURL:     imageURL,
		ExpiresAt:    g.now().Add(g.ttl).UTC(),
	}, nil
}
