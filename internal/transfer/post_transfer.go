package transfer

import "time"

type PostCreation struct {
	SocialAccountID string    `json:"social_account_id"`
	Platform        string    `json:"platform"`
	Content         string    `json:"content"`
	ScheduledFor    time.Time `json:"scheduled_for"`
}

type PostReschedule struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}
