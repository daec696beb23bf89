package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chirpboard/backend/internal/middleware"
)

// APIPrefix is an alternate mount point for every route.
const APIPrefix = "/api"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users   UserStore
	Hasher  PasswordHasher
	Tokens  TokenService
	Posts   PostLedger
	Uploads ImageUploader
	Limiter RateLimiter
	Metrics *middleware.Metrics
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Hasher: deps.Hasher, Tokens: deps.Tokens, Limiter: deps.Limiter}
	posts := PostHandler{Posts: deps.Posts}
	users := UserHandler{Users: deps.Users, Hasher: deps.Hasher}
	uploads := UploadHandler{Uploads: deps.Uploads}

	required := middleware.RequireIdentity(deps.Tokens)
	optional := middleware.OptionalIdentity(deps.Tokens)

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /register", auth.Register)
	mux.HandleFunc("POST /login", auth.Login)

	mux.Handle("GET /posts", optional(http.HandlerFunc(posts.List)))
	mux.Handle("POST /posts", required(http.HandlerFunc(posts.Create)))
	mux.Handle("GET /posts/{id}", optional(http.HandlerFunc(posts.Get)))
	mux.Handle("DELETE /posts/{id}", required(http.HandlerFunc(posts.Delete)))
	mux.Handle("PUT /posts/{id}", required(http.HandlerFunc(posts.Like)))

	mux.HandleFunc("GET /users", users.Search)
	mux.Handle("GET /users/me", required(http.HandlerFunc(users.Me)))
	mux.Handle("PUT /users/me", required(http.HandlerFunc(users.UpdateMe)))
	mux.HandleFunc("GET /users/{username}", users.Get)

	mux.Handle("POST /upload-image-presigned", required(http.HandlerFunc(uploads.Presign)))
}

// NewRouter returns the API handler, serving every route both at the root and
// under APIPrefix.
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)

	var api http.Handler = mux
	if deps.Metrics != nil {
		api = deps.Metrics.Middleware(mux)
	}

	root := http.NewServeMux()
	root.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, api))
	root.Handle("/", api)
	return root
}
