package queue

import (
	"context"
	"errors"
	"time"
)

const TaskTypePublishPost = "post:publish"

// PostQueue is the asynq queue name all publish tasks go through.
const PostQueue = "posts"

// PublishPostPayload carries only the post id. The worker re-fetches the
// record and never trusts anything else from the payload.
type PublishPostPayload struct {
	PostID string `json:"post_id"`
}

var (
	// ErrJobNotFound means the job already delivered or never existed.
	// Callers racing a cancel against delivery treat this as a no-op.
	ErrJobNotFound = errors.New("job not found in queue")

	// ErrDuplicateJob means a pending job with the same id already exists.
	ErrDuplicateJob = errors.New("job already queued")
)

// DelayQueue holds (post id, due time) pairs and releases each job to one
// consumer once its due time has passed.
type DelayQueue interface {
	Enqueue(ctx context.Context, postID string, dueAt time.Time) error
	Remove(ctx context.Context, postID string) error
	Reschedule(ctx context.Context, postID string, newDueAt time.Time) error
}
