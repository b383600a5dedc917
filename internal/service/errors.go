package service

import "errors"

// Sentinel errors returned by the scheduler. Handlers map these onto HTTP
// statuses; anything else is an infrastructure failure.
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrAccountNotFound  = errors.New("social account not found")
	ErrAccountInvalid   = errors.New("invalid or inactive social account")
	ErrPlatformMismatch = errors.New("platform mismatch with social account")
	ErrNotOwner         = errors.New("not authorized for this post")
	ErrInvalidState     = errors.New("post is not in a state that allows this operation")
	ErrInvalidInput     = errors.New("invalid post data")
)
