package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/calebfds/postline/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByUserID(ctx context.Context, userID string, status models.PostStatus) ([]*models.Post, error)
	ListDue(ctx context.Context, before time.Time) ([]*models.Post, error)
	UpdateScheduledFor(ctx context.Context, id string, scheduledFor time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.PostStatus, platformPostID, errorMessage string) error
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, social_account_id, platform, content, scheduled_for, published_at, platform_post_id, error_message, status, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, social_account_id, platform, content, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, post.ID, post.UserID, post.SocialAccountID, post.Platform, post.Content, post.ScheduledFor, post.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, post.ID, post.UserID, post.SocialAccountID, post.Platform, post.Content, post.ScheduledFor, post.Status)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	var publishedAt sql.NullTime
	var platformPostID, errorMessage sql.NullString

	err := row.Scan(&post.ID, &post.UserID, &post.SocialAccountID, &post.Platform, &post.Content,
		&post.ScheduledFor, &publishedAt, &platformPostID, &errorMessage, &post.Status,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		post.PublishedAt = &publishedAt.Time
	}
	post.PlatformPostID = platformPostID.String
	post.ErrorMessage = errorMessage.String

	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID string, status models.PostStatus) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []any{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) ListDue(ctx context.Context, before time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_for <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) UpdateScheduledFor(ctx context.Context, id string, scheduledFor time.Time) error {
	query := `
		UPDATE posts
		SET scheduled_for = $1,
			updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, scheduledFor, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return checkAffected(result)
}

// UpdateStatus writes the terminal outcome for a post. PUBLISHED also stamps
// published_at and platform_post_id, FAILED also stores the error message.
// Transition legality is the caller's concern, not the store's.
func (r *postRepository) UpdateStatus(ctx context.Context, id string, status models.PostStatus, platformPostID, errorMessage string) error {
	var result sql.Result
	var err error

	switch status {
	case models.PostStatusPublished:
		query := `
			UPDATE posts
			SET status = $1,
				platform_post_id = $2,
				published_at = $3,
				updated_at = $3
			WHERE id = $4
		`
		result, err = r.db.ExecContext(ctx, query, status, platformPostID, time.Now(), id)
	case models.PostStatusFailed:
		query := `
			UPDATE posts
			SET status = $1,
				error_message = $2,
				updated_at = $3
			WHERE id = $4
		`
		result, err = r.db.ExecContext(ctx, query, status, errorMessage, time.Now(), id)
	default:
		query := `
			UPDATE posts
			SET status = $1,
				updated_at = $2
			WHERE id = $3
		`
		result, err = r.db.ExecContext(ctx, query, status, time.Now(), id)
	}

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return checkAffected(result)
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
