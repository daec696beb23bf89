package repositories

import (
	"context"

	"github.com/chirpboard/backend/internal/models"
)

// PostRepository exposes data access for posts and the likes relation.
//
// Like and Dislike change the relation and the post's counter together: the
// counter moves only when the relation row was actually inserted or deleted.
type PostRepository interface {
	Create(ctx context.Context, ownerID, content string) (models.Post, error)
	Find(ctx context.Context, id int64, viewerID *string) (models.Post, error)
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	Delete(ctx context.Context, id int64) error
	Like(ctx context.Context, userID string, postID int64) (LikeResult, error)
	Dislike(ctx context.Context, userID string, postID int64) (LikeResult, error)
}

// LikeResult reports whether a like/dislike took effect and the counter afterwards.
type LikeResult struct {
	Changed bool
	Likes   int64
}
