package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AsynqQueue implements DelayQueue on a Redis-backed asynq queue. Tasks are
// keyed by post id so an entry can be found and deleted before delivery.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewAsynqQueue(redisOpt asynq.RedisClientOpt) *AsynqQueue {
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

func (q *AsynqQueue) Close() error {
	cerr := q.client.Close()
	if err := q.inspector.Close(); err != nil {
		return err
	}
	return cerr
}

// Enqueue schedules delivery no earlier than dueAt. A due time already in
// the past is delivered as soon as a consumer is free.
func (q *AsynqQueue) Enqueue(ctx context.Context, postID string, dueAt time.Time) error {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	delay := time.Until(dueAt)
	if delay < 0 {
		slog.Warn("scheduled time is in the past, queueing for immediate delivery", "post_id", postID)
		delay = 0
	}

	task := asynq.NewTask(TaskTypePublishPost, payload)
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.TaskID(postID),
		asynq.Queue(PostQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(5),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return ErrDuplicateJob
		}
		slog.Error("failed to enqueue post", "post_id", postID, "error", err)
		return err
	}

	slog.Info("post queued", "post_id", postID, "queue", info.Queue, "due_at", dueAt)
	return nil
}

// Remove cancels a pending job. Returns ErrJobNotFound if the job already
// delivered or never existed; races with delivery are expected and the
// publisher re-validates the record either way.
func (q *AsynqQueue) Remove(ctx context.Context, postID string) error {
	err := q.inspector.DeleteTask(PostQueue, postID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return ErrJobNotFound
		}
		slog.Error("failed to remove post from queue", "post_id", postID, "error", err)
		return err
	}

	slog.Info("post removed from queue", "post_id", postID)
	return nil
}

// Reschedule is remove-then-enqueue, not atomic. If delivery wins the race
// the job fires with its old due time and the publisher's record check
// decides what happens.
func (q *AsynqQueue) Reschedule(ctx context.Context, postID string, newDueAt time.Time) error {
	if err := q.Remove(ctx, postID); err != nil && !errors.Is(err, ErrJobNotFound) {
		return err
	}
	return q.Enqueue(ctx, postID, newDueAt)
}
