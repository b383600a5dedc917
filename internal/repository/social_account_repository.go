package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/calebfds/postline/internal/models"
)

type SocialAccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	Deactivate(ctx context.Context, id, userID string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, user_id, platform, account_name, account_username, access_token, is_active, created_at, updated_at`

func (r *socialAccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountName, &sa.AccountUsername,
		&sa.AccessToken, &sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sa, nil
}

// ListByUserID returns the user's connected accounts without token columns.
func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_name, account_username, is_active, created_at, updated_at
		FROM social_accounts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountName, &sa.AccountUsername,
			&sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) Deactivate(ctx context.Context, id, userID string) error {
	query := `
		UPDATE social_accounts
		SET is_active = false,
			updated_at = $1
		WHERE id = $2 AND user_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return checkAffected(result)
}
