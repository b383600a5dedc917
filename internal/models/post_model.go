package models

import "time"

type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
	PostStatusCancelled PostStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible for the status.
func (s PostStatus) IsTerminal() bool {
	switch s {
	case PostStatusPublished, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusScheduled, PostStatusPublished, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

type Post struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	SocialAccountID string     `db:"social_account_id" json:"social_account_id"`
	Platform        Platform   `db:"platform" json:"platform"`
	Content         string     `db:"content" json:"content"`
	ScheduledFor    time.Time  `db:"scheduled_for" json:"scheduled_for"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at,omitempty"`
	PlatformPostID  string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	ErrorMessage    string     `db:"error_message" json:"error_message,omitempty"`
	Status          PostStatus `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PublishAttempt records one delivery outcome for a post, successful or not.
type PublishAttempt struct {
	ID           int64     `db:"id" json:"id"`
	PostID       string    `db:"post_id" json:"post_id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Succeeded    bool      `db:"succeeded" json:"succeeded"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
