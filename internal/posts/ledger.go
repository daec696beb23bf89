// Package posts owns posts, the likes relation and the like counter kept on each post.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chirpboard/backend/internal/logging"
	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/repositories"
	"github.com/chirpboard/backend/internal/validation"
)

var (
	// ErrForbidden indicates the requester does not own the post.
	ErrForbidden = errors.New("post belongs to another user")
	// ErrAlreadyLiked indicates the user already has a like on the post.
	ErrAlreadyLiked = errors.New("post already liked")
	// ErrNotLiked indicates the user has no like on the post to remove.
	ErrNotLiked = errors.New("post not liked")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var likeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chirpboard_like_actions_total",
	Help: "Like and dislike requests by action and outcome.",
}, []string{"action", "outcome"})

// LikeOutcome is the result of an applied like or dislike.
type LikeOutcome struct {
	Action models.LikeAction
	Likes  int64
}

// Ledger validates and applies post and like operations on top of a PostRepository.
type Ledger struct {
	store repositories.PostRepository
}

// NewLedger constructs a Ledger backed by store.
func NewLedger(store repositories.PostRepository) *Ledger {
	if store == nil {
		panic("posts: store must not be nil")
	}
	return &Ledger{store: store}
}

// CreatePost validates content and stores a new post owned by ownerID.
func (l *Ledger) CreatePost(ctx context.Context, ownerID, content string) (models.Post, error) {
	if err := validation.PostContent(content); err != nil {
		return models.Post{}, err
	}

	post, err := l.store.Create(ctx, ownerID, content)
	if err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}

	liked := false
	post.Liked = &liked
	return post, nil
}

// GetPost loads one post, annotated for viewerID when present.
func (l *Ledger) GetPost(ctx context.Context, postID int64, viewerID *string) (models.Post, error) {
	post, err := l.store.Find(ctx, postID, viewerID)
	if err != nil {
		return models.Post{}, fmt.Errorf("get post %d: %w", postID, err)
	}
	return post, nil
}

// ListPosts returns a page of posts newest first. A page shorter than the
// requested limit means there is nothing older to fetch.
func (l *Ledger) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}

	posts, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes postID when requesterID owns it.
func (l *Ledger) DeletePost(ctx context.Context, postID int64, requesterID string) error {
	post, err := l.store.Find(ctx, postID, nil)
	if err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}

	if post.OwnerID != requesterID {
		return fmt.Errorf("delete post %d: %w", postID, ErrForbidden)
	}

	if err := l.store.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}
	return nil
}

// ToggleLike moves userID's like on postID to the desired state. It reports
// ErrAlreadyLiked or ErrNotLiked, leaving the counter untouched, when the
// relation already is in that state.
func (l *Ledger) ToggleLike(ctx context.Context, userID string, postID int64, action models.LikeAction) (LikeOutcome, error) {
	if !action.Valid() {
		return LikeOutcome{}, &validation.Error{Field: "type", Message: "must be LIKE or DISLIKE"}
	}

	ctx, span := logging.StartSpan(ctx, "posts.toggle_like", slog.Int64("postId", postID), slog.String("action", string(action)))
	defer span.End()
	logger := logging.FromContext(ctx)

	var (
		result repositories.LikeResult
		err    error
	)
	if action == models.LikeActionLike {
		result, err = l.store.Like(ctx, userID, postID)
	} else {
		result, err = l.store.Dislike(ctx, userID, postID)
	}
	if err != nil {
		likeOutcomes.WithLabelValues(string(action), "error").Inc()
		span.RecordError(err)
		return LikeOutcome{}, fmt.Errorf("%s post %d: %w", action, postID, err)
	}

	if !result.Changed {
		likeOutcomes.WithLabelValues(string(action), "unchanged").Inc()
		logger.Info("like state unchanged")
		if action == models.LikeActionLike {
			return LikeOutcome{}, fmt.Errorf("like post %d: %w", postID, ErrAlreadyLiked)
		}
		return LikeOutcome{}, fmt.Errorf("dislike post %d: %w", postID, ErrNotLiked)
	}

	likeOutcomes.WithLabelValues(string(action), "applied").Inc()
	logger.Info("like state changed", slog.Int64("likes", result.Likes))
	return LikeOutcome{Action: action, Likes: result.Likes}, nil
}
