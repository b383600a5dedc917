package models

import "time"

type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformMastodon Platform = "mastodon"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformMastodon:
		return true
	}
	return false
}

// SocialAccount is a connected platform account. AccessToken is stored
// AES-GCM encrypted and is never exposed through the API.
type SocialAccount struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Platform        Platform  `db:"platform" json:"platform"`
	AccountName     string    `db:"account_name" json:"account_name"`
	AccountUsername string    `db:"account_username" json:"account_username"`
	AccessToken     string    `db:"access_token" json:"-"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
