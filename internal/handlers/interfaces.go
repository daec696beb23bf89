package handlers

import (
	"context"

	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/posts"
)

// UserStore captures the persistence operations required by the account handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Search(ctx context.Context, prefix string, limit int) ([]models.User, error)
	Update(ctx context.Context, user models.User) error
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) bool
}

// TokenService issues bearer tokens and resolves them back to a user id.
type TokenService interface {
	Issue(subject string) (models.SessionToken, error)
	Verify(token string) (string, error)
}

// PostLedger applies post and like operations.
type PostLedger interface {
	CreatePost(ctx context.Context, ownerID, content string) (models.Post, error)
	GetPost(ctx context.Context, postID int64, viewerID *string) (models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	DeletePost(ctx context.Context, postID int64, requesterID string) error
	ToggleLike(ctx context.Context, userID string, postID int64, action models.LikeAction) (posts.LikeOutcome, error)
}

// ImageUploader issues presigned profile image uploads.
type ImageUploader interface {
	Issue(ctx context.Context, userID string, details models.ImageDetails) (models.PresignedUpload, error)
}
