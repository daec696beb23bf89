package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/validation"
)

// PostHandler implements the post feed and like endpoints.
type PostHandler struct {
	Posts PostLedger
}

type createPostRequest struct {
	Content string `json:"content"`
}

type likeRequest struct {
	Type models.LikeAction `json:"type"`
}

type likeResponse struct {
	Message string `json:"message"`
	Likes   int64  `json:"likes"`
}

const (
	likedMessage    = "LIKED"
	dislikedMessage = "DISLIKED"
)

// List handles GET /posts. Pass before as the created_at of the last post
// received to fetch the next, older page.
func (h PostHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var filter models.PostFilter
	if username := strings.TrimSpace(query.Get("username")); username != "" {
		filter.Username = &username
	}
	if raw := strings.TrimSpace(query.Get("before")); raw != "" {
		before, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(ctx, w, &validation.Error{Field: "before", Message: "must be an RFC 3339 timestamp"})
			return
		}
		filter.Before = &before
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(ctx, w, &validation.Error{Field: "limit", Message: "must be a positive integer"})
			return
		}
		filter.Limit = limit
	}
	if viewerID, ok := auth.IdentityFromContext(ctx); ok {
		filter.ViewerID = &viewerID
	}

	posts, err := h.Posts.ListPosts(ctx, filter)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	respondJSON(ctx, w, http.StatusOK, posts)
}

// Create handles POST /posts.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.IdentityFromContext(ctx)

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	post, err := h.Posts.CreatePost(ctx, userID, req.Content)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, post)
}

// Get handles GET /posts/{id}.
func (h PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, err := postIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var viewerID *string
	if id, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = &id
	}

	post, err := h.Posts.GetPost(ctx, postID, viewerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}.
func (h PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.IdentityFromContext(ctx)

	postID, err := postIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.Posts.DeletePost(ctx, postID, userID); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like handles PUT /posts/{id} with {"type": "LIKE"|"DISLIKE"}.
func (h PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.IdentityFromContext(ctx)

	postID, err := postIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if !req.Type.Valid() {
		writeError(ctx, w, &validation.Error{Field: "type", Message: "Invalid type"})
		return
	}

	outcome, err := h.Posts.ToggleLike(ctx, userID, postID, req.Type)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	message := likedMessage
	if outcome.Action == models.LikeActionDislike {
		message = dislikedMessage
	}
	respondJSON(ctx, w, http.StatusOK, likeResponse{Message: message, Likes: outcome.Likes})
}

func postIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &validation.Error{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}
