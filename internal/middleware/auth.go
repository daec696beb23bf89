package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chirpboard/backend/internal/auth"
	"github.com/chirpboard/backend/internal/logging"
)

// TokenVerifier resolves a bearer token to the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireIdentity rejects requests without a valid bearer token with 403 and
// otherwise attaches the token subject to the request context.
func RequireIdentity(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				logger.Warn("missing bearer token")
				unauthorized(w)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("rejected bearer token", "error", err)
				unauthorized(w)
				return
			}

			ctx := logging.WithUserID(auth.WithIdentity(r.Context(), userID), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalIdentity attaches the token subject when a valid bearer token is
// present and passes every request through regardless.
func OptionalIdentity(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if userID, err := verifier.Verify(token); err == nil {
					r = r.WithContext(logging.WithUserID(auth.WithIdentity(r.Context(), userID), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"name": "Unauthorized", "message": "Unauthorized"})
}
