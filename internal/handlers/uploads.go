package handlers

import (
	"net/http"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/models"
)

// UploadHandler implements POST /upload-image-presigned.
type UploadHandler struct {
	Uploads ImageUploader
}

// Presign issues an upload URL for the caller's new profile image.
func (h UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.IdentityFromContext(ctx)

	var details models.ImageDetails
	if err := decodeJSON(w, r, &details); err != nil {
		writeError(ctx, w, err)
		return
	}

	upload, err := h.Uploads.Issue(ctx, userID, details)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, upload)
}
