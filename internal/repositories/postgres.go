package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/chirpboard/backend/internal/db"
	"github.com/chirpboard/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, profile_url, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, profile_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Username, user.Email, user.PasswordHash, user.ProfileURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by their username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// Search returns users whose username starts with prefix, ordered by username.
func (r *PostgresUserRepository) Search(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username LIKE $1
        ORDER BY username
        LIMIT $2
    `, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Update modifies the credentials of an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET username = $2, email = $3, password_hash = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Username, user.Email, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetProfileURL records the public URL of the user's profile image.
func (r *PostgresUserRepository) SetProfileURL(ctx context.Context, id string, url *string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET profile_url = $2, updated_at = $3
        WHERE id = $1
    `, id, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile url: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresPostRepository provides PostgreSQL-backed persistence for posts and likes.
type PostgresPostRepository struct {
	pool db.Pool
}

// NewPostgresPostRepository constructs a post repository backed by PostgreSQL.
func NewPostgresPostRepository(pool db.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

const postColumns = `p.id, p.content, p.owner_id, u.username, u.profile_url, p.likes, p.created_at`

// likedColumn yields NULL without a viewer, otherwise whether the viewer has a like row.
func likedColumn(param int) string {
	return fmt.Sprintf(`CASE WHEN $%[1]d::TEXT IS NULL THEN NULL
            ELSE EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $%[1]d::TEXT)
        END`, param)
}

// Create stores a new post with a zero like counter.
func (r *PostgresPostRepository) Create(ctx context.Context, ownerID, content string) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        WITH p AS (
            INSERT INTO posts (content, owner_id, likes, created_at)
            VALUES ($1, $2, 0, $3)
            RETURNING id, content, owner_id, likes, created_at
        )
        SELECT `+postColumns+`, NULL::BOOL
        FROM p
        JOIN users u ON u.id = p.owner_id
    `, content, ownerID, time.Now().UTC())

	post, err := scanPost(row)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation || errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}

	return post, nil
}

// Find loads a single post, annotated for viewerID when it is non-nil.
func (r *PostgresPostRepository) Find(ctx context.Context, id int64, viewerID *string) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+postColumns+`, `+likedColumn(2)+`
        FROM posts p
        JOIN users u ON u.id = p.owner_id
        WHERE p.id = $1
    `, id, viewerID)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("select post: %w", err)
	}

	return post, nil
}

// List returns posts newest first, strictly older than filter.Before when set.
func (r *PostgresPostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+postColumns+`, `+likedColumn(3)+`
        FROM posts p
        JOIN users u ON u.id = p.owner_id
        WHERE ($1::TEXT IS NULL OR u.username = $1::TEXT)
          AND ($2::TIMESTAMPTZ IS NULL OR p.created_at < $2::TIMESTAMPTZ)
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT $4
    `, filter.Username, filter.Before, filter.ViewerID, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, filter.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// Delete removes a post; its like rows go with it through the foreign key cascade.
func (r *PostgresPostRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Like inserts the (user, post) like row and, only if a row was inserted,
// increments the post's counter in the same transaction.
func (r *PostgresPostRepository) Like(ctx context.Context, userID string, postID int64) (LikeResult, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return LikeResult{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var result LikeResult
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		result = LikeResult{}

		tag, err := tx.Exec(ctx, `
            INSERT INTO post_likes (user_id, post_id, created_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (user_id, post_id) DO NOTHING
        `, userID, postID, time.Now().UTC())
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return tx.QueryRow(ctx, `SELECT likes FROM posts WHERE id = $1`, postID).Scan(&result.Likes)
		}

		result.Changed = true
		return tx.QueryRow(ctx, `
            UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes
        `, postID).Scan(&result.Likes)
	})
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation || errors.Is(err, pgx.ErrNoRows) {
			return LikeResult{}, ErrNotFound
		}
		return LikeResult{}, fmt.Errorf("like post: %w", err)
	}

	return result, nil
}

// Dislike deletes the (user, post) like row and, only if a row was deleted,
// decrements the post's counter in the same transaction.
func (r *PostgresPostRepository) Dislike(ctx context.Context, userID string, postID int64) (LikeResult, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return LikeResult{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var result LikeResult
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		result = LikeResult{}

		tag, err := tx.Exec(ctx, `
            DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2
        `, userID, postID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return tx.QueryRow(ctx, `SELECT likes FROM posts WHERE id = $1`, postID).Scan(&result.Likes)
		}

		result.Changed = true
		return tx.QueryRow(ctx, `
            UPDATE posts SET likes = GREATEST(likes - 1, 0) WHERE id = $1 RETURNING likes
        `, postID).Scan(&result.Likes)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LikeResult{}, ErrNotFound
		}
		return LikeResult{}, fmt.Errorf("dislike post: %w", err)
	}

	return result, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ProfileURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.Content, &post.OwnerID, &post.Username, &post.ProfileURL, &post.Likes, &post.CreatedAt, &post.Liked)
	if err != nil {
		return models.Post{}, err
	}
	post.CreatedAt = post.CreatedAt.UTC()
	return post, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ PostRepository = (*PostgresPostRepository)(nil)
