package job

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/calebfds/postline/internal/queue"
	"github.com/calebfds/postline/internal/repository"
)

// RequeueJob sweeps for SCHEDULED posts whose due time passed a while ago
// without a delivery. That combination means the queue entry was lost (for
// example Redis was flushed after the record committed) and the post would
// otherwise sit in SCHEDULED forever. Re-enqueueing is safe: if the entry
// does still exist the enqueue is rejected as a duplicate, and a double
// delivery is absorbed by the worker's status check.
type RequeueJob struct {
	pr    repository.PostRepository
	dq    queue.DelayQueue
	grace time.Duration
}

func NewRequeueJob(pr repository.PostRepository, dq queue.DelayQueue) *RequeueJob {
	return &RequeueJob{
		pr:    pr,
		dq:    dq,
		grace: 2 * time.Minute,
	}
}

func (j *RequeueJob) RequeueOverdue() {
	ctx := context.Background()

	posts, err := j.pr.ListDue(ctx, time.Now().Add(-j.grace))
	if err != nil {
		slog.Error("requeue sweep failed to list overdue posts", "error", err)
		return
	}

	for _, post := range posts {
		err := j.dq.Enqueue(ctx, post.ID, post.ScheduledFor)
		if err != nil {
			if errors.Is(err, queue.ErrDuplicateJob) {
				continue
			}
			slog.Error("requeue sweep failed to enqueue post", "post_id", post.ID, "error", err)
			continue
		}
		slog.Warn("re-enqueued overdue post with missing queue entry", "post_id", post.ID, "scheduled_for", post.ScheduledFor)
	}
}
