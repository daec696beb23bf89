package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/logging"
	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/repositories"
	"github.com/chirpboard/backend/internal/validation"
)

// AuthHandler implements registration and login.
type AuthHandler struct {
	Users   UserStore
	Hasher  PasswordHasher
	Tokens  TokenService
	Limiter RateLimiter
	NowFunc func() time.Time
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,max=255,mailaddr"`
	Password string `json:"password" validate:"required,min=8,max=50,password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Password string `json:"password" validate:"required,min=8,max=50,password"`
}

// Register handles POST /register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		logger.Warn("register rate limited", "ip", clientIP(r))
		writeError(ctx, w, errRateLimited)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.Struct(req); err != nil {
		writeError(ctx, w, err)
		return
	}

	hashed, err := h.Hasher.Hash(req.Password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		writeError(ctx, w, err)
		return
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "username", req.Username)
		}
		writeError(ctx, w, err)
		return
	}

	logger.Info("user registered", "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, user.Profile())
}

// Login handles POST /login. Unknown usernames and wrong passwords are
// reported identically.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "ip", clientIP(r))
		writeError(ctx, w, errRateLimited)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := validation.Struct(req); err != nil {
		writeError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			writeError(ctx, w, err)
			return
		}
		logger.Warn("login unknown user", "username", req.Username)
		writeError(ctx, w, auth.ErrInvalidCredentials)
		return
	}

	if !h.Hasher.Verify(user.PasswordHash, req.Password) {
		logger.Warn("login password mismatch", "userId", user.ID)
		writeError(ctx, w, auth.ErrInvalidCredentials)
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("issue token: %w", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, token)
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
