package models

import "time"

// User represents an account within chirpboard. PasswordHash never leaves the
// service; use Profile or Public for anything written to a response.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	ProfileURL   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the view of a user returned to the user themselves.
type Profile struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	ProfileURL *string `json:"profile_url"`
}

// PublicUser is the view of a user returned to anyone.
type PublicUser struct {
	Username   string  `json:"username"`
	ProfileURL *string `json:"profile_url"`
}

// Profile returns the self-view of the user.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, ProfileURL: u.ProfileURL}
}

// Public returns the public view of the user.
func (u User) Public() PublicUser {
	return PublicUser{Username: u.Username, ProfileURL: u.ProfileURL}
}

// Post is a text post joined with its owner's display attributes. Liked is nil
// when the post was loaded without a viewer.
type Post struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	OwnerID    string    `json:"-"`
	Username   string    `json:"username"`
	ProfileURL *string   `json:"profile_url"`
	Likes      int64     `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
	Liked      *bool     `json:"liked"`
}

// PostFilter narrows a post listing. Nil fields are not applied.
type PostFilter struct {
	Username *string
	Before   *time.Time
	ViewerID *string
	Limit    int
}

// LikeAction is the desired state of a user's like on a post.
type LikeAction string

const (
	LikeActionLike    LikeAction = "LIKE"
	LikeActionDislike LikeAction = "DISLIKE"
)

// Valid reports whether the action is one of the known values.
func (a LikeAction) Valid() bool {
	return a == LikeActionLike || a == LikeActionDislike
}

// ImageDetails describes a profile image the client intends to upload.
type ImageDetails struct {
	Name string `json:"name" validate:"required,max=255"`
	Size int64  `json:"size" validate:"gte=67,lte=1048576"`
	Type string `json:"type" validate:"required,imagetype"`
}

// PresignedUpload is the authorization handed to a client for a direct upload.
type PresignedUpload struct {
	PresignedURL string    `json:"presignedUrl"`
	ImageURL     string    `json:"imageUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SessionToken groups the bearer credential issued at login.
type SessionToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
