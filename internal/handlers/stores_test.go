package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chirpboard/backend/internal/models"
	"github.com/chirpboard/backend/internal/repositories"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) conflictsLocked(user models.User) bool {
	for id, existing := range s.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username || existing.Email == user.Email {
			return true
		}
	}
	return false
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists || s.conflictsLocked(user) {
		return repositories.ErrConflict
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) Search(_ context.Context, prefix string, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, user := range s.users {
		if strings.HasPrefix(user.Username, prefix) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *inMemoryUserStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	if s.conflictsLocked(user) {
		return repositories.ErrConflict
	}
	s.users[user.ID] = user
	return nil
}

type likePair struct {
	userID string
	postID int64
}

type inMemoryPostStore struct {
	mu     sync.Mutex
	users  *inMemoryUserStore
	nextID int64
	clock  time.Time
	posts  map[int64]models.Post
	likes  map[likePair]bool
}

func newInMemoryPostStore(users *inMemoryUserStore) *inMemoryPostStore {
	return &inMemoryPostStore{
		users: users,
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		posts: make(map[int64]models.Post),
		likes: make(map[likePair]bool),
	}
}

func (s *inMemoryPostStore) annotateLocked(post models.Post, viewerID *string) models.Post {
	if owner, err := s.users.FindByID(context.Background(), post.OwnerID); err == nil {
		post.Username = owner.Username
		post.ProfileURL = owner.ProfileURL
	}
	post.Liked = nil
	if viewerID != nil {
		liked := s.likes[likePair{*viewerID, post.ID}]
		post.Liked = &liked
	}
	return post
}

func (s *inMemoryPostStore) Create(_ context.Context, ownerID, content string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.users.FindByID(context.Background(), ownerID); err != nil {
		return models.Post{}, err
	}
	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	post := models.Post{ID: s.nextID, Content: content, OwnerID: ownerID, CreatedAt: s.clock}
	s.posts[post.ID] = post
	return s.annotateLocked(post, nil), nil
}

func (s *inMemoryPostStore) Find(_ context.Context, id int64, viewerID *string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, repositories.ErrNotFound
	}
	return s.annotateLocked(post, viewerID), nil
}

func (s *inMemoryPostStore) List(_ context.Context, filter models.PostFilter) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Post
	for _, post := range s.posts {
		post = s.annotateLocked(post, filter.ViewerID)
		if filter.Username != nil && post.Username != *filter.Username {
			continue
		}
		if filter.Before != nil && !post.CreatedAt.Before(*filter.Before) {
			continue
		}
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *inMemoryPostStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.posts, id)
	for pair := range s.likes {
		if pair.postID == id {
			delete(s.likes, pair)
		}
	}
	return nil
}

func (s *inMemoryPostStore) Like(_ context.Context, userID string, postID int64) (repositories.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return repositories.LikeResult{}, repositories.ErrNotFound
	}
	pair := likePair{userID, postID}
	if s.likes[pair] {
		return repositories.LikeResult{Likes: post.Likes}, nil
	}
	s.likes[pair] = true
	post.Likes++
	s.posts[postID] = post
	return repositories.LikeResult{Changed: true, Likes: post.Likes}, nil
}

func (s *inMemoryPostStore) Dislike(_ context.Context, userID string, postID int64) (repositories.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return repositories.LikeResult{}, repositories.ErrNotFound
	}
	pair := likePair{userID, postID}
	if !s.likes[pair] {
		return repositories.LikeResult{Likes: post.Likes}, nil
	}
	delete(s.likes, pair)
	post.Likes--
	s.posts[postID] = post
	return repositories.LikeResult{Changed: true, Likes: post.Likes}, nil
}
