package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/logging"
	"github.com/chirpboard/backend/internal/posts"
	"github.com/chirpboard/backend/internal/repositories"
	"github.com/chirpboard/backend/internal/validation"
)

const maxBodyBytes = 1 << 20

var errRateLimited = errors.New("too many requests")

type errorResponse struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// writeError maps err onto the status and body the API promises for it.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		respondJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{Name: "ValidationError", Message: vErr.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		respondJSON(ctx, w, http.StatusForbidden, errorResponse{Name: "Unauthorized", Message: "Unauthorized"})
	case errors.Is(err, posts.ErrForbidden):
		respondJSON(ctx, w, http.StatusForbidden, errorResponse{Name: "Forbidden", Message: "You cannot delete someone else's post"})
	case errors.Is(err, posts.ErrAlreadyLiked):
		respondJSON(ctx, w, http.StatusConflict, errorResponse{Message: "ALREADY_LIKED"})
	case errors.Is(err, posts.ErrNotLiked):
		respondJSON(ctx, w, http.StatusConflict, errorResponse{Message: "NOT_LIKED"})
	case errors.Is(err, repositories.ErrConflict):
		respondJSON(ctx, w, http.StatusConflict, errorResponse{Name: "Conflict", Message: "username or email already in use"})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, errorResponse{Name: "NotFound", Message: "Not found"})
	case errors.Is(err, errRateLimited):
		respondJSON(ctx, w, http.StatusTooManyRequests, errorResponse{Message: "Too many requests, try again later"})
	default:
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Name: errorName(err), Message: err.Error()})
	}
}

// errorName is the type name of the innermost error in err's chain.
func errorName(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into dst.
// Every decoding failure is reported as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &validation.Error{Field: "body", Message: "request body is required"}
		case errors.As(err, &maxErr):
			return &validation.Error{Field: "body", Message: fmt.Sprintf("must be at most %d bytes", maxErr.Limit)}
		default:
			return &validation.Error{Field: "body", Message: err.Error()}
		}
	}
	return nil
}
