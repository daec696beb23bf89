package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/logging"
	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/validation"
)

const searchLimit = 20

// UserHandler implements profile lookup, search and settings.
type UserHandler struct {
	Users  UserStore
	Hasher PasswordHasher
}

type updateSettingsRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,username"`
	Email       string `json:"email" validate:"required,max=255,mailaddr"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Search handles GET /users?q=, a username prefix search.
func (h UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.Users.Search(ctx, strings.TrimSpace(r.URL.Query().Get("q")), searchLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// Get handles GET /users/{username}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.FindByUsername(ctx, r.PathValue("username"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user.Public())
}

// Me handles GET /users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.IdentityFromContext(ctx)

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user.Profile())
}

// UpdateMe handles PUT /users/me. A password change needs the current password.
func (h UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	userID, _ := auth.IdentityFromContext(ctx)

	var req updateSettingsRequest
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

	changingPassword := req.OldPassword != "" || req.NewPassword != ""
	if changingPassword {
		if req.OldPassword == "" {
			writeError(ctx, w, &validation.Error{Field: "old_password", Message: "is required to change the password"})
			return
		}
		if err := validation.Password("new_password", req.NewPassword); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if changingPassword {
		if !h.Hasher.Verify(user.PasswordHash, req.OldPassword) {
			logger.Warn("settings update with wrong password", "userId", userID)
			respondJSON(ctx, w, http.StatusForbidden, errorResponse{Name: "Forbidden", Message: "Old password does not match"})
			return
		}
		hashed, err := h.Hasher.Hash(req.NewPassword)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		user.PasswordHash = hashed
	}

	user.Username = req.Username
	user.Email = req.Email
	user.UpdatedAt = time.Now().UTC()

	if err := h.Users.Update(ctx, user); err != nil {
		writeError(ctx, w, err)
		return
	}

	logger.Info("settings updated", "userId", userID, "passwordChanged", changingPassword)
	respondJSON(ctx, w, http.StatusOK, user.Profile())
}
